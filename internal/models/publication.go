package models

import "time"

// Field bounds for publications.
const (
	MinPublishYear = 1900
	MaxTitleLen    = 500
	MaxAuthorsLen  = 1000
)

// Publication is a single authored work recorded by a user for a department.
type Publication struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Authors      string    `db:"authors" json:"authors"`
	JournalID    string    `db:"journal_id" json:"journal_id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	PublishYear  int       `db:"publish_year" json:"publish_year"`
	Volume       *string   `db:"volume" json:"volume,omitempty"`
	Issue        *string   `db:"issue" json:"issue,omitempty"`
	Pages        *string   `db:"pages" json:"pages,omitempty"`
	DOI          *string   `db:"doi" json:"doi,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PublicationDetail joins reference names onto a publication for list views
// and exports.
type PublicationDetail struct {
	Publication
	JournalName    string   `db:"journal_name" json:"journal_name"`
	ImpactFactor   float64  `db:"impact_factor" json:"impact_factor"`
	Quartile       Quartile `db:"quartile" json:"quartile"`
	DepartmentName string   `db:"department_name" json:"department_name"`
}

// PublicationFilter captures list criteria for publications.
type PublicationFilter struct {
	DepartmentID string
	JournalID    string
	UserID       string
	YearFrom     *int
	YearTo       *int
	Quartile     *Quartile
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
