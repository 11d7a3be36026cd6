package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSClient struct {
	client     *storage.Client
	bucketName string
	publicBase string
	directBase string
}

func NewGCSClient(ctx context.Context, bucketName, credentialsPath, publicBase string) (*GCSClient, error) {
	var client *storage.Client
	var err error

	if credentialsPath != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credentialsPath))
	} else {
		client, err = storage.NewClient(ctx)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSClient{
		client:     client,
		bucketName: bucketName,
		publicBase: publicBase,
		directBase: fmt.Sprintf("https://storage.googleapis.com/%s", bucketName),
	}, nil
}

func (g *GCSClient) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	obj := g.client.Bucket(g.bucketName).Object(key)
	writer := obj.NewWriter(ctx)

	if contentType != "" {
		writer.ContentType = contentType
	}

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to copy data to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}

	return objectURL(ctx, g.SignedURL, g.publicBase, g.directBase, key), nil
}

func (g *GCSClient) Get(ctx context.Context, key string) ([]byte, error) {
	reader, err := g.client.Bucket(g.bucketName).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to read %s from GCS: %w", key, err)
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// SignedURL grants temporary read access to a private contract.
func (g *GCSClient) SignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expiry),
	}

	return g.client.Bucket(g.bucketName).SignedURL(key, opts)
}

func (g *GCSClient) Close() error {
	return g.client.Close()
}
