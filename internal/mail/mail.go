// Package mail sends transactional email through a hosted provider.
package mail

import (
	"context"
	"errors"
)

var ErrNoRecipient = errors.New("message has no recipient")

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Message struct {
	From        string
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers one message and returns the provider's message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}
