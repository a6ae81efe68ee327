// Package entity defines the notification envelope and its message types.
package entity

import "time"

// Envelope types pushed to clients. The transport layer additionally emits
// connection-lifecycle and reply types over the same wire format.
const (
	TypeStrategyChange        = "STRATEGY_CHANGE"
	TypePriceUpdate           = "PRICE_UPDATE"
	TypeSystemMessage         = "SYSTEM_MESSAGE"
	TypeConnectionEstablished = "CONNECTION_ESTABLISHED"
	TypeRecentStrategyChanges = "RECENT_STRATEGY_CHANGES"
	TypeNewsDigest            = "NEWS_SUMMARY"
	TypeUpdateStarted         = "STRATEGY_UPDATE_STARTED"
	TypeUpdateReport          = "STRATEGY_UPDATE_REPORT"
	TypeSubscriptionConfirmed = "SUBSCRIPTION_CONFIRMED"
	TypePong                  = "PONG"
	TypeError                 = "ERROR"
)

// Envelope is the typed, timestamped wrapper around any payload pushed
// through a channel. Envelopes are constructed per send and never stored.
type Envelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// NewEnvelope builds an envelope stamped with the current time.
func NewEnvelope(typ string, data any) Envelope {
	return Envelope{Type: typ, Timestamp: time.Now().UTC(), Data: data}
}
