package models

import "gorm.io/datatypes"

// MemberPermission is a per-membership permission override. Rows with a nil
// RoleSource are member specific; attributed rows are owned by role
// assignment workflows and ignored by permission resolution.
type MemberPermission struct {
	BaseModel

	MembershipID string         `gorm:"size:36;not null;index:idx_member_permission,priority:1" json:"membership_id"`
	Permission   string         `gorm:"size:64;not null;index:idx_member_permission,priority:2" json:"permission"`
	Allowed      bool           `gorm:"not null" json:"allowed"`
	RoleSource   *string        `gorm:"size:16;index" json:"role_source,omitempty"`
	GrantedByID  *string        `gorm:"size:36" json:"granted_by_id,omitempty"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`

	Membership *Membership `gorm:"foreignKey:MembershipID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the default table name for GORM.
func (MemberPermission) TableName() string {
	return "member_permissions"
}
