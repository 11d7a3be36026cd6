package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"FIT-CONTRACTS/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RegistrationService persists registration outcomes. A nil database
// turns every write into a no-op so the pipeline runs without one.
type RegistrationService struct {
	db *gorm.DB
}

func NewRegistrationService(db *gorm.DB) *RegistrationService {
	return &RegistrationService{db: db}
}

func (s *RegistrationService) Enabled() bool {
	return s != nil && s.db != nil
}

// SubmissionJSON is the stored copy of a submission, without signature images.
func SubmissionJSON(sub models.ClientSubmission) (datatypes.JSON, error) {
	sub.Signatures = models.Signatures{}
	data, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission: %w", err)
	}
	return datatypes.JSON(data), nil
}

func (s *RegistrationService) Record(ctx context.Context, reg *models.Registration) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(reg).Error; err != nil {
		return fmt.Errorf("failed to save registration: %w", err)
	}
	return nil
}

type RegistrationFilter struct {
	Status string
	Email  string
	Limit  int
	Offset int
}

func (s *RegistrationService) List(ctx context.Context, f RegistrationFilter) ([]models.Registration, int64, error) {
	if !s.Enabled() {
		return []models.Registration{}, 0, nil
	}

	var regs []models.Registration
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Registration{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Email != "" {
		query = query.Where("email = ?", f.Email)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}

	if err := query.Preload("Documents").Order("created_at DESC").Find(&regs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch registrations: %w", err)
	}

	return regs, total, nil
}

func (s *RegistrationService) Get(ctx context.Context, id string) (*models.Registration, error) {
	if !s.Enabled() {
		return nil, models.ErrNotFound
	}
	var reg models.Registration
	err := s.db.WithContext(ctx).Preload("Documents").First(&reg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("registration %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registration: %w", err)
	}
	return &reg, nil
}

// SessionUsed reports whether a registration that delivered at least one
// contract was already recorded for the checkout session.
func (s *RegistrationService) SessionUsed(ctx context.Context, sessionID string) (bool, error) {
	if !s.Enabled() || sessionID == "" {
		return false, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Registration{}).
		Where("checkout_session_id = ? AND status <> ?", sessionID, models.RegistrationFailed).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up checkout session: %w", err)
	}
	return n > 0, nil
}

// MarkRemote records that a locally stored contract reached the bucket.
func (s *RegistrationService) MarkRemote(ctx context.Context, key, url string) error {
	if !s.Enabled() {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.ContractDocument{}).
		Where("object_key = ?", key).
		Updates(map[string]any{"tier": "remote", "url": url, "local_path": ""}).Error
}
