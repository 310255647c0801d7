package models

// Membership is a user's standing within a club. Role holds one of the
// permission hierarchy values (PENDING, NORMAL, MANAGER, MASTER).
type Membership struct {
	BaseModel

	ClubID string `gorm:"size:36;not null;uniqueIndex:idx_membership_club_user,priority:1" json:"club_id"`
	UserID string `gorm:"size:36;not null;uniqueIndex:idx_membership_club_user,priority:2;index" json:"user_id"`
	Role   string `gorm:"size:16;not null;index" json:"role"`
}

// TableName overrides the default table name for GORM.
func (Membership) TableName() string {
	return "memberships"
}
