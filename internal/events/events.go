// Package events announces completed registrations to downstream systems.
package events

import (
	"context"
	"encoding/json"
	"time"
)

const TypeRegistrationCompleted = "registration.completed"

type DocumentEvent struct {
	Kind string `json:"kind"`
	Tier string `json:"tier"`
	Key  string `json:"key,omitempty"`
	URL  string `json:"url,omitempty"`
}

type RegistrationEvent struct {
	Type           string          `json:"type"`
	RegistrationID string          `json:"registrationId"`
	ClientName     string          `json:"clientName"`
	Email          string          `json:"email"`
	Plan           string          `json:"plan"`
	Status         string          `json:"status"`
	Documents      []DocumentEvent `json:"documents"`
	ClientNotified bool            `json:"clientNotified"`
	OwnerNotified  bool            `json:"ownerNotified"`
	OccurredAt     time.Time       `json:"occurredAt"`
}

func (e RegistrationEvent) Encode() ([]byte, error) {
	if e.Type == "" {
		e.Type = TypeRegistrationCompleted
	}
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, event RegistrationEvent) error
	Close() error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, RegistrationEvent) error { return nil }
func (NoopPublisher) Close() error { return nil }
