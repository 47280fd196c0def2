package bus

import "time"

// Event kinds published by the engines. Subscribers filter by namespace
// prefix, e.g. "message." or "contact.".
const (
	KindChatCreated      = "chat.created"
	KindChatMembersAdded = "chat.members_added"
	KindMessageSent      = "message.sent"
	KindMessageEdited    = "message.edited"
	KindMessageDeleted   = "message.deleted"
	KindContactRequested = "contact.requested"
	KindContactAccepted  = "contact.accepted"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// NewEvent stamps a payload with the current time.
func NewEvent(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
