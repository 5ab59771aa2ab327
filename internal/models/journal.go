package models

import "time"

// Quartile is the journal ranking tier within its subject category, Q1 best.
type Quartile string

const (
	QuartileQ1 Quartile = "Q1"
	QuartileQ2 Quartile = "Q2"
	QuartileQ3 Quartile = "Q3"
	QuartileQ4 Quartile = "Q4"
)

// Valid reports whether the quartile is one of Q1..Q4.
func (q Quartile) Valid() bool {
	switch q {
	case QuartileQ1, QuartileQ2, QuartileQ3, QuartileQ4:
		return true
	}
	return false
}

// Impact factor bounds; externally supplied, never computed here.
const (
	MinImpactFactor = 0.0
	MaxImpactFactor = 50.0
)

// Journal is shared bibliographic reference data. name+year is expected to
// be unique in practice but not enforced by the schema.
type Journal struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Year         int       `db:"year" json:"year"`
	ImpactFactor float64   `db:"impact_factor" json:"impact_factor"`
	Quartile     Quartile  `db:"quartile" json:"quartile"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// JournalFilter captures list criteria for journals.
type JournalFilter struct {
	Search    string
	Quartile  *Quartile
	Year      *int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
