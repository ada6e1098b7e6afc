package models

import "time"

// ChatDelivery is the delivery state of an optimistically inserted chat
// message. A failed send is retained, never silently removed: the provider may
// still receive the message, and deleting the local echo is more confusing
// than keeping a stale one.
type ChatDelivery int

const (
	ChatPending ChatDelivery = iota
	ChatConfirmed
	ChatFailedButRetained
)

func (d ChatDelivery) String() string {
	switch d {
	case ChatPending:
		return "pending"
	case ChatConfirmed:
		return "confirmed"
	case ChatFailedButRetained:
		return "failed_retained"
	}
	return "unknown"
}

// ChatMessage is a customer-to-provider message on an active job. LocalID is
// assigned at insertion time; ServerID is filled in when the server confirms
// the send.
type ChatMessage struct {
	LocalID  string       `json:"localId"`
	ServerID string       `json:"serverId,omitempty"`
	JobID    string       `json:"jobId"`
	Body     string       `json:"body"`
	SentAt   time.Time    `json:"sentAt"`
	Delivery ChatDelivery `json:"delivery"`
}
