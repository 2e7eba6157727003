package storage

import "time"

// RunRecord is one persisted scrape run.
type RunRecord struct {
	RunID      string    `json:"run_id"`
	Technology string    `json:"technology"`
	Level      string    `json:"level"`
	TotalJobs  int       `json:"total_jobs"`
	CSVFile    string    `json:"csv_file,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// OriginCount is the per-platform tally for a run.
type OriginCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ListOptions controls selection when listing stored listings.
type ListOptions struct {
	RunID  string
	Origin string
	Search string
}
