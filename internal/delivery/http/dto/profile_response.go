package dto

import "matchsync/internal/domain/profile"

const (
	SyncOK      = "ok"
	SyncFailed  = "failed"
	SyncSkipped = "skipped"
)

// SyncStatus reports the outcome of a best-effort push to the matching
// service.
type SyncStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func NewSyncStatus(err error) SyncStatus {
	if err != nil {
		return SyncStatus{Status: SyncFailed, Error: err.Error()}
	}
	return SyncStatus{Status: SyncOK}
}

type SessionResponse struct {
	Profile  profile.Profile `json:"profile"`
	Created  bool            `json:"created"`
	Repaired bool            `json:"repaired"`
	Sync     SyncStatus      `json:"sync"`
}

type ProfileResponse struct {
	Profile profile.Profile `json:"profile"`
	Sync    *SyncStatus     `json:"sync,omitempty"`
}
