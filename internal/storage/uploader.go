package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"FIT-CONTRACTS/internal/models"
)

// Tier says where a contract ended up.
type Tier string

const (
	TierRemote Tier = "remote"
	TierLocal  Tier = "local"
	TierFailed Tier = "failed"
)

// UploadResult is the delivery outcome for one FilledDocument.
type UploadResult struct {
	Kind      models.DocumentKind
	Key       string
	URL       string
	LocalPath string
	Tier      Tier
	Size      int64
	Err       error
}

// Delivered is true for both the remote and the local tier.
func (r UploadResult) Delivered() bool {
	return r.Tier == TierRemote || r.Tier == TierLocal
}

type Uploader struct {
	store    ObjectStore
	localDir string
	now      func() time.Time
}

// NewUploader accepts a nil store, in which case every contract goes
// straight to the local directory.
func NewUploader(store ObjectStore, localDir string) *Uploader {
	return &Uploader{
		store:    store,
		localDir: localDir,
		now:      time.Now,
	}
}

func (u *Uploader) LocalDir() string {
	return u.localDir
}

// Upload never returns an error: a failure of both tiers is reported as
// TierFailed with Err set, and affects this document only.
func (u *Uploader) Upload(ctx context.Context, doc models.FilledDocument) UploadResult {
	ts := doc.CreatedAt
	if ts.IsZero() {
		ts = u.now()
	}

	result := UploadResult{
		Kind: doc.Kind,
		Key:  ObjectKey(doc.Kind, doc.ClientName, ts),
		Size: int64(len(doc.Data)),
	}

	var remoteErr error
	if u.store != nil {
		url, err := u.store.Put(ctx, result.Key, contentTypePDF, doc.Data)
		if err == nil {
			result.URL = url
			result.Tier = TierRemote
			return result
		}
		remoteErr = err
		log.Printf("Warning: remote upload of %s failed, falling back to local: %v", result.Key, err)
	}

	path, err := u.writeLocal(result.Key, doc.Data)
	if err != nil {
		if remoteErr != nil {
			err = fmt.Errorf("remote: %v; local: %w", remoteErr, err)
		}
		log.Printf("Warning: could not store %s anywhere: %v", result.Key, err)
		result.Tier = TierFailed
		result.Err = fmt.Errorf("%w: %w", models.ErrUploadFailed, err)
		return result
	}

	result.LocalPath = path
	result.Tier = TierLocal
	return result
}

func (u *Uploader) writeLocal(key string, data []byte) (string, error) {
	if u.localDir == "" {
		return "", fmt.Errorf("no local fallback directory configured")
	}
	path := filepath.Join(u.localDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create fallback directory: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write fallback file: %w", err)
	}
	return path, nil
}

// writeFileAtomic writes through a temp file in the same directory and
// renames it into place, so the sweeper never sees a partial contract.
// Temp names end in ".tmp" and are skipped by the sweep.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
