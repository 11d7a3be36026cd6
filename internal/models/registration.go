package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Registration is the persisted outcome of one registration attempt.
type Registration struct {
	ID                string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	ClientName        string         `gorm:"type:varchar(255);not null" json:"client_name"`
	Email             string         `gorm:"type:varchar(255);index" json:"email"`
	PlanTitle         string         `gorm:"type:varchar(255)" json:"plan_title"`
	CheckoutSessionID string         `gorm:"type:varchar(255);index" json:"checkout_session_id,omitempty"`
	PaymentStatus     string         `gorm:"type:varchar(32)" json:"payment_status"`
	Status            string         `gorm:"type:varchar(32);default:'completed'" json:"status"`
	ClientNotified    bool           `json:"client_notified"`
	OwnerNotified     bool           `json:"owner_notified"`
	Data              datatypes.JSON `json:"data"` // submission without signature images
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Documents []ContractDocument `gorm:"foreignKey:RegistrationID" json:"documents,omitempty"`
}

func (Registration) TableName() string {
	return "registrations"
}

// ContractDocument records where one filled contract ended up.
type ContractDocument struct {
	ID             string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	RegistrationID string         `gorm:"type:varchar(36);not null;index" json:"registration_id"`
	Kind           string         `gorm:"type:varchar(32);not null" json:"kind"`
	Tier           string         `gorm:"type:varchar(16);not null" json:"tier"`
	ObjectKey      string         `gorm:"type:varchar(512)" json:"object_key"`
	URL            string         `gorm:"type:text" json:"url,omitempty"`
	LocalPath      string         `gorm:"type:text" json:"local_path,omitempty"`
	Error          string         `gorm:"type:text" json:"error,omitempty"`
	FileSize       int64          `json:"file_size"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ContractDocument) TableName() string {
	return "contract_documents"
}

const (
	RegistrationCompleted = "completed"
	RegistrationPartial   = "partial"
	RegistrationFailed    = "failed"
)
