package model

import "time"

// HostRate is the current-slot sample of a host. Present is false when the
// slot has never been written.
type HostRate struct {
	Host    HostID `json:"host"`
	RateKB  int64  `json:"rate_kb"`
	Present bool   `json:"present"`
}

// BanEntry is one blacklist membership.
type BanEntry struct {
	Host     HostID    `json:"host"`
	BannedAt time.Time `json:"banned_at"`
	Tick     uint64    `json:"tick"`
}

// Report is the snapshot published after each tick.
type Report struct {
	Tick        uint64     `json:"tick"`
	Timestamp   time.Time  `json:"timestamp"`
	Hosts       []HostRate `json:"hosts"`
	Banned      []BanEntry `json:"banned"`
	NewlyBanned []HostID   `json:"newly_banned,omitempty"`
	Unbanned    []HostID   `json:"unbanned,omitempty"`
}

// HasChanges reports whether the blacklist changed since the previous report.
func (r *Report) HasChanges() bool {
	return len(r.NewlyBanned) > 0 || len(r.Unbanned) > 0
}
