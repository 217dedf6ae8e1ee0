package models

import "time"

// OutcomeStatus is the result of processing one image URL
type OutcomeStatus string

const (
	StatusSaved  OutcomeStatus = "saved"
	StatusFailed OutcomeStatus = "failed"
)

// DownloadOutcome records what happened to the URL at Index
type DownloadOutcome struct {
	Index    int           `json:"index"`
	URL      string        `json:"url"`
	Status   OutcomeStatus `json:"status"`
	Path     string        `json:"path,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Bytes    int64         `json:"bytes,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Saved reports whether the image was written
func (o DownloadOutcome) Saved() bool {
	return o.Status == StatusSaved
}

// RunSummary describes one scrape run
type RunSummary struct {
	Query       string            `json:"query"`
	Target      int               `json:"target"`
	OutputDir   string            `json:"output_dir"`
	State       string            `json:"state"`
	URLsFound   int               `json:"urls_found"`
	Saved       int               `json:"saved"`
	Failed      int               `json:"failed"`
	Outcomes    []DownloadOutcome `json:"outcomes,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
}

// Duration returns how long the run took
func (s *RunSummary) Duration() time.Duration {
	if s.CompletedAt.IsZero() {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// Record appends an outcome and updates the counters
func (s *RunSummary) Record(o DownloadOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	if o.Saved() {
		s.Saved++
	} else {
		s.Failed++
	}
}
