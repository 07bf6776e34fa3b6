package models

import "github.com/google/uuid"

type SharePermission string

const (
	SharePermissionNone SharePermission = "none"
	SharePermissionView SharePermission = "view"
	SharePermissionEdit SharePermission = "edit"
)

// Share grants a single user access to a single file. The (file, user)
// pair is unique; re-sharing updates the permission in place.
type Share struct {
	BaseModel
	FileID     uuid.UUID       `json:"fileID" gorm:"type:uuid;not null;uniqueIndex:idx_shares_file_user"`
	UserID     uuid.UUID       `json:"userID" gorm:"type:uuid;not null;uniqueIndex:idx_shares_file_user"`
	Permission SharePermission `json:"permission" gorm:"type:varchar(20);not null;default:'view'"`

	File File `json:"file,omitempty" gorm:"foreignKey:FileID;references:ID"`
	User User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

func (Share) TableName() string {
	return "shares"
}

// Allows reports whether the granted permission satisfies the required
// one. Edit is a strict superset of view.
func (s *Share) Allows(required SharePermission) bool {
	return PermissionLevel(s.Permission) >= PermissionLevel(required)
}

// PermissionLevel orders permissions for comparison. Unknown values rank
// below none so a corrupt row never grants access.
func PermissionLevel(permission SharePermission) int {
	switch permission {
	case SharePermissionView:
		return 1
	case SharePermissionEdit:
		return 2
	default:
		return 0
	}
}
