package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"FIT-CONTRACTS/internal/models"
	"FIT-CONTRACTS/internal/storage"
	"FIT-CONTRACTS/internal/templates"
)

// TemplateService resolves the PDF bytes behind a template descriptor:
// the object store first, then the copy bundled with the binary.
type TemplateService struct {
	store   storage.ObjectStore
	catalog *templates.Catalog
	baseDir string
}

// NewTemplateService accepts a nil store; bundled paths are resolved
// relative to baseDir.
func NewTemplateService(store storage.ObjectStore, catalog *templates.Catalog, baseDir string) *TemplateService {
	return &TemplateService{
		store:   store,
		catalog: catalog,
		baseDir: baseDir,
	}
}

func (s *TemplateService) Descriptor(kind models.DocumentKind) (models.TemplateDescriptor, error) {
	desc, ok := s.catalog.Get(kind)
	if !ok {
		return models.TemplateDescriptor{}, fmt.Errorf("%w: %s", models.ErrUnknownKind, kind)
	}
	return desc, nil
}

func (s *TemplateService) Descriptors() []models.TemplateDescriptor {
	return s.catalog.All()
}

func (s *TemplateService) Load(ctx context.Context, desc models.TemplateDescriptor) ([]byte, error) {
	var remoteErr error
	if s.store != nil {
		data, err := s.store.Get(ctx, desc.StorageKey())
		if err == nil {
			return data, nil
		}
		remoteErr = err
		log.Printf("Warning: template %s not readable from storage, using bundled copy: %v", desc.StorageKey(), err)
	}

	data, err := os.ReadFile(s.bundledPath(desc))
	if err != nil {
		if remoteErr != nil {
			return nil, fmt.Errorf("%w: %s: storage: %v; bundled: %v", models.ErrTemplateLoad, desc.Name, remoteErr, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", models.ErrTemplateLoad, desc.Name, err)
	}
	return data, nil
}

func (s *TemplateService) bundledPath(desc models.TemplateDescriptor) string {
	if filepath.IsAbs(desc.BundledPath) || s.baseDir == "" {
		return desc.BundledPath
	}
	return filepath.Join(s.baseDir, desc.BundledPath)
}

// Sync uploads every bundled template to its storage key and returns the
// keys written.
func (s *TemplateService) Sync(ctx context.Context) ([]string, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no object storage configured")
	}

	var keys []string
	for _, desc := range s.catalog.All() {
		data, err := os.ReadFile(s.bundledPath(desc))
		if err != nil {
			return keys, fmt.Errorf("failed to read bundled template %s: %w", desc.Name, err)
		}
		if _, err := s.store.Put(ctx, desc.StorageKey(), "application/pdf", data); err != nil {
			return keys, fmt.Errorf("failed to upload template %s: %w", desc.Name, err)
		}
		keys = append(keys, desc.StorageKey())
	}
	return keys, nil
}
