// Package app builds the configured backends shared by the server and the
// operator CLI.
package app

import (
	"context"
	"fmt"
	"strings"

	"FIT-CONTRACTS/internal/config"
	"FIT-CONTRACTS/internal/events"
	"FIT-CONTRACTS/internal/mail"
	"FIT-CONTRACTS/internal/storage"
)

// NewObjectStore returns nil for the local and none providers; the
// uploader then writes every contract to the fallback directory.
func NewObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.Storage.Provider {
	case "s3":
		return storage.NewS3Client(ctx, storage.S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
	case "gcs":
		return storage.NewGCSClient(ctx, cfg.GCS.BucketName, cfg.GCS.CredentialsPath, cfg.GCS.PublicBaseURL)
	case "local", "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Storage.Provider)
	}
}

// NewMailer returns nil when email is disabled.
func NewMailer(ctx context.Context, cfg *config.Config) (mail.Mailer, error) {
	switch cfg.Email.Provider {
	case "resend":
		return mail.NewResendMailer(cfg.Email.ResendAPIKey), nil
	case "gmail":
		return mail.NewGmailMailer(ctx, cfg.Email.GmailCredentialsPath, senderAddress(cfg.Email.From))
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported email provider %q", cfg.Email.Provider)
	}
}

func NewPublisher(ctx context.Context, cfg *config.Config) (events.Publisher, error) {
	switch cfg.Events.Provider {
	case "sqs":
		return events.NewSQSPublisher(ctx, cfg.Events.SQSRegion, cfg.Events.SQSEndpoint, cfg.Events.SQSQueueURL)
	case "kafka":
		return events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic), nil
	case "none", "":
		return events.NoopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unsupported events provider %q", cfg.Events.Provider)
	}
}

// senderAddress strips a display name: "Studio <hello@studio.test>" -> hello@studio.test.
func senderAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return strings.TrimSpace(from[i+1 : j])
		}
	}
	return strings.TrimSpace(from)
}
