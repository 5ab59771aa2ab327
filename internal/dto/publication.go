package dto

// CreatePublicationRequest is the payload for recording a publication.
type CreatePublicationRequest struct {
	Title        string  `json:"title" validate:"required,max=500"`
	Authors      string  `json:"authors" validate:"required,max=1000"`
	JournalID    string  `json:"journal_id" validate:"required"`
	DepartmentID string  `json:"department_id" validate:"required"`
	PublishYear  int     `json:"publish_year" validate:"required"`
	Volume       *string `json:"volume,omitempty"`
	Issue        *string `json:"issue,omitempty"`
	Pages        *string `json:"pages,omitempty"`
	DOI          *string `json:"doi,omitempty"`
}

// UpdatePublicationRequest is the payload for updating a publication. Nil
// fields are left unchanged.
type UpdatePublicationRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=500"`
	Authors     *string `json:"authors,omitempty" validate:"omitempty,max=1000"`
	JournalID   *string `json:"journal_id,omitempty"`
	PublishYear *int    `json:"publish_year,omitempty"`
	Volume      *string `json:"volume,omitempty"`
	Issue       *string `json:"issue,omitempty"`
	Pages       *string `json:"pages,omitempty"`
	DOI         *string `json:"doi,omitempty"`
}
