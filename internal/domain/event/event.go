// internal/domain/event/event.go
package event

import "time"

// Type identifies a change-feed event.
type Type string

const (
	RecordSaved    Type = "record.saved"
	RecordDeleted  Type = "record.deleted"
	RecordRestored Type = "record.restored"
	TeamSaved      Type = "team.saved"
)

// Event is one entry on the change feed pushed to connected clients.
type Event struct {
	Type    Type        `json:"type"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload,omitempty"`
}

// Publisher delivers events to the feed. Implementations must not block the
// mutation path.
type Publisher interface {
	Publish(ev Event)
}
