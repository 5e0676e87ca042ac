package models

import "time"

// PlatformResult aggregates sync outcomes for a single platform.
type PlatformResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// SyncReport is the aggregate result of one full bulk sync across all
// active accounts.
type SyncReport struct {
	RunID       string                      `json:"run_id"`
	StartedAt   time.Time                   `json:"started_at"`
	Duration    time.Duration               `json:"duration"`
	Success     int                         `json:"success"`
	Failed      int                         `json:"failed"`
	ViralAlerts int                         `json:"viral_alerts"`
	ByPlatform  map[Platform]PlatformResult `json:"by_platform"`
}

// Total returns the number of accounts attempted.
func (r *SyncReport) Total() int {
	return r.Success + r.Failed
}
