package dto

import "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"

// CreateJournalRequest is the payload for creating a journal record.
type CreateJournalRequest struct {
	Name         string          `json:"name" validate:"required,max=256"`
	Year         int             `json:"year" validate:"required"`
	ImpactFactor float64         `json:"impact_factor"`
	Quartile     models.Quartile `json:"quartile" validate:"required"`
}

// UpdateJournalRequest is the payload for updating a journal record.
type UpdateJournalRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,max=256"`
	Year         *int             `json:"year,omitempty"`
	ImpactFactor *float64         `json:"impact_factor,omitempty"`
	Quartile     *models.Quartile `json:"quartile,omitempty"`
}
