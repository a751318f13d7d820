// Package audit records every successful mutation of the knowledge store in a
// SQLite sidecar, so changes to entries can be traced after the fact.
package audit

import "time"

// Action describes what was done to an entry.
type Action string

const (
	ActionEntryAdded   Action = "entry_added"
	ActionEntryUpdated Action = "entry_updated"
	ActionEntryDeleted Action = "entry_deleted"
	ActionEntrySeeded  Action = "entry_seeded"
)

// Record is a single audit trail row.
type Record struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Action        Action    `json:"action"`
	EntryID       string    `json:"entry_id"`
	Tool          string    `json:"tool,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	ChangedFields []string  `json:"changed_fields,omitempty"`
}
