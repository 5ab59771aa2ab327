package models

import "time"

// YearCount is one point of a yearly publication trend, ordered ascending.
type YearCount struct {
	Year  int `db:"publish_year" json:"year"`
	Count int `db:"count" json:"count"`
}

// DepartmentRank is one entry of the overview leaderboard.
type DepartmentRank struct {
	DepartmentID string `db:"department_id" json:"department_id"`
	Name         string `db:"name" json:"name"`
	Publications int    `db:"publications" json:"publications"`
}

// DepartmentStats aggregates publication metrics for one department.
type DepartmentStats struct {
	DepartmentID        string         `json:"department_id"`
	TotalPublications   int            `json:"total_publications"`
	AverageImpactFactor float64        `json:"average_impact_factor"`
	QuartileDist        map[string]int `json:"quartile_distribution"`
	YearlyTrend         []YearCount    `json:"yearly_trend"`
	GeneratedAt         time.Time      `json:"generated_at"`
}

// OverviewStats aggregates global publication metrics.
type OverviewStats struct {
	TotalPublications   int              `json:"total_publications"`
	TotalDepartments    int              `json:"total_departments"`
	AverageImpactFactor float64          `json:"average_impact_factor"`
	TopDepartments      []DepartmentRank `json:"top_departments"`
	YearlyTrend         []YearCount      `json:"yearly_trend"`
	GeneratedAt         time.Time        `json:"generated_at"`
}

// SystemMetrics is a lightweight instrumentation snapshot.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
