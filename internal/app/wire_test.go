package app

import (
	"context"
	"testing"

	"FIT-CONTRACTS/internal/config"
	"FIT-CONTRACTS/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledBackends(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Provider = "local"
	cfg.Email.Provider = "none"
	cfg.Events.Provider = "none"

	store, err := NewObjectStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, store)

	mailer, err := NewMailer(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, mailer)

	pub, err := NewPublisher(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, events.NoopPublisher{}, pub)
}

func TestUnknownProviders(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Provider = "ftp"
	cfg.Email.Provider = "pigeon"
	cfg.Events.Provider = "nats"

	_, err := NewObjectStore(context.Background(), cfg)
	assert.Error(t, err)
	_, err = NewMailer(context.Background(), cfg)
	assert.Error(t, err)
	_, err = NewPublisher(context.Background(), cfg)
	assert.Error(t, err)
}

func TestResendMailerNeedsNoNetwork(t *testing.T) {
	cfg := &config.Config{}
	cfg.Email.Provider = "resend"
	cfg.Email.ResendAPIKey = "re_test"

	mailer, err := NewMailer(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, mailer)
}

func TestSenderAddress(t *testing.T) {
	assert.Equal(t, "hello@studio.test", senderAddress("Studio <hello@studio.test>"))
	assert.Equal(t, "hello@studio.test", senderAddress(" hello@studio.test "))
}
