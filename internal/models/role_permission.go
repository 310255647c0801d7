package models

// RolePermission is a permission template row: the default grant of
// Permission to every membership holding Role. (Role, Permission) is unique.
type RolePermission struct {
	BaseModel

	Role       string `gorm:"size:16;not null;uniqueIndex:idx_role_permission,priority:1" json:"role"`
	Permission string `gorm:"size:64;not null;uniqueIndex:idx_role_permission,priority:2" json:"permission"`
	Allowed    bool   `gorm:"not null" json:"allowed"`
}

// TableName overrides the default table name for GORM.
func (RolePermission) TableName() string {
	return "role_permissions"
}
