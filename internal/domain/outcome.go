package domain

import "time"

// Action is what the synchronizer did for one entry.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionFailed  Action = "failed"
)

// Outcome records the result of upserting a single entry.
type Outcome struct {
	EntryID int64     `json:"entry_id"`
	PageID  string    `json:"page_id,omitempty"`
	Action  Action    `json:"action"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}
