package store

import "time"

// Conversation represents the active per-conversation state in memory.
// Durable chat history is the source of truth after a restart; this
// object is a cache entry keyed by the conversation identifier.
type Conversation struct {
	ID    string `json:"id"` // opaque conversation identifier from the transport
	State string `json:"state"`

	// Metadata for the last interaction
	LastQuery string    `json:"last_query"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// StateNew is implicit: a conversation with no record is NEW.
	StateNew              = "new"
	StateWaitingForChoice = "waiting_for_choice"
	StateResolved         = "resolved"
)
