package model

import "time"

// EnrichmentJob asks a background worker to enrich one anchor.
type EnrichmentJob struct {
	JobID       string    // unique id for idempotency
	Platform    Platform  // anchor platform
	Handle      string    // anchor handle
	SubmittedAt time.Time // enqueue timestamp
}

// AnchorKey identifies the anchor regardless of job id.
func (j EnrichmentJob) AnchorKey() string {
	return AnchorKey(j.Platform, j.Handle)
}
