package storage

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FallbackSweeper pushes contracts that landed in the local fallback
// directory to the bucket once it is reachable again.
type FallbackSweeper struct {
	store    ObjectStore
	localDir string
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once

	// OnUploaded is called after a local copy was promoted to the bucket.
	OnUploaded func(ctx context.Context, key, url string)
}

func NewFallbackSweeper(store ObjectStore, localDir string, interval time.Duration) *FallbackSweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &FallbackSweeper{
		store:    store,
		localDir: localDir,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (s *FallbackSweeper) Start() {
	s.ticker = time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-s.ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.interval)
				s.Sweep(ctx)
				cancel()
			}
		}
	}()
	log.Printf("Fallback sweeper started (every %s)", s.interval)
}

// Stop is safe to call more than once.
func (s *FallbackSweeper) Stop() {
	s.stopOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.done)
		log.Println("Fallback sweeper stopped")
	})
}

// Sweep uploads every local contract and removes the copies the bucket
// accepted. It returns the number of promoted files.
func (s *FallbackSweeper) Sweep(ctx context.Context) int {
	if s.store == nil || s.localDir == "" {
		return 0
	}
	if _, err := os.Stat(s.localDir); os.IsNotExist(err) {
		return 0
	}

	promoted := 0
	err := filepath.Walk(s.localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".pdf") {
			return nil
		}

		rel, err := filepath.Rel(s.localDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: failed to read fallback file %s: %v", path, err)
			return nil
		}

		url, err := s.store.Put(ctx, key, contentTypePDF, data)
		if err != nil {
			log.Printf("Warning: fallback file %s still not uploadable: %v", key, err)
			return nil
		}

		if err := os.Remove(path); err != nil {
			log.Printf("Warning: uploaded %s but could not remove local copy: %v", key, err)
		}
		log.Printf("Promoted fallback contract %s to remote storage", key)
		promoted++

		if s.OnUploaded != nil {
			s.OnUploaded(ctx, key, url)
		}
		return nil
	})

	if err != nil {
		log.Printf("Error during fallback sweep of %s: %v", s.localDir, err)
	}
	return promoted
}
