package models

// ImportRowError names the data row (1-based, header excluded) and the rule
// it violated. Collected, never thrown; a bad row does not abort the batch.
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportResult aggregates the outcome of one import batch.
type ImportResult struct {
	Success    int              `json:"success"`
	Failed     int              `json:"failed"`
	Duplicates int              `json:"duplicates"`
	Errors     []ImportRowError `json:"errors"`
}
