package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records a permission administration event within a club.
type AuditLog struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	ClubID       string         `gorm:"size:36;not null;index" json:"club_id"`
	ActorUserID  string         `gorm:"size:36;index" json:"actor_user_id"`
	MembershipID string         `gorm:"size:36;index" json:"membership_id"`
	Action       string         `gorm:"size:64;not null;index" json:"action"`
	Resource     string         `gorm:"size:64;index" json:"resource"`
	Result       string         `gorm:"size:16;not null" json:"result"`
	IPAddress    string         `gorm:"size:64" json:"ip_address"`
	UserAgent    string         `json:"user_agent"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
