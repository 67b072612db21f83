package dto

import "time"

// SetOnlineRequest reports a connectivity change.
type SetOnlineRequest struct {
	Online *bool `json:"online" binding:"required"`
}

// SyncStatusResponse is the sync queue state shown to the user.
type SyncStatusResponse struct {
	PendingCount int        `json:"pendingCount"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	IsOnline     bool       `json:"isOnline"`
	InFlight     bool       `json:"inFlight"`
	LastError    string     `json:"lastError,omitempty"`
}

// SyncReportResponse describes one drain.
type SyncReportResponse struct {
	Pushed    int `json:"pushed"`
	Accepted  int `json:"accepted"`
	Conflicts int `json:"conflicts"`
}

// BackupRequest names a backup target.
type BackupRequest struct {
	Sink string `json:"sink" binding:"required,oneof=file gcs"`
	Name string `json:"name" binding:"omitempty,max=200"`
}

// BackupResponse names a written backup.
type BackupResponse struct {
	Sink string `json:"sink"`
	Name string `json:"name"`
}

// TokenRequest exchanges the pairing key for a client token.
type TokenRequest struct {
	ClientID string `json:"clientId" binding:"required,max=100"`
}

// TokenResponse carries a signed client token.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
