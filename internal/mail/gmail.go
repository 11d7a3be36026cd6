package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailMailer sends through the Gmail API as Sender, using a service
// account with domain-wide delegation.
type GmailMailer struct {
	svc     *gmail.Service
	sender  string
	limiter *rate.Limiter
}

func NewGmailMailer(ctx context.Context, credentialsPath, sender string) (*GmailMailer, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read gmail credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gmail credentials: %w", err)
	}
	conf.Subject = sender

	svc, err := gmail.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &GmailMailer{
		svc:     svc,
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(2), 5),
	}, nil
}

func (m *GmailMailer) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", ErrNoRecipient
	}
	if msg.From == "" {
		msg.From = m.sender
	}

	raw, err := BuildMIME(msg)
	if err != nil {
		return "", err
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return "", err
	}

	sent, err := m.svc.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail: %w", err)
	}
	return sent.Id, nil
}
