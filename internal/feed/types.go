package feed

import "time"

// RefreshReport summarises one ingestion cycle across all active sources.
type RefreshReport struct {
	StartedAt  time.Time      `json:"startedAt"`
	Duration   time.Duration  `json:"duration"`
	Sources    int            `json:"sources"`
	Failed     int            `json:"failed"`
	Inserted   int            `json:"inserted"`
	Duplicates int            `json:"duplicates"`
	Skipped    int            `json:"skipped"`
	PerSource  []SourceResult `json:"perSource"`
}

// SourceResult is the outcome for a single source.
type SourceResult struct {
	SourceID   int64  `json:"sourceId"`
	Name       string `json:"name"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
	Skipped    int    `json:"skipped"`
	Error      string `json:"error,omitempty"`
}
