package models

import "github.com/google/uuid"

// Folder is a node in an owner's folder tree. A nil ParentID means the
// folder sits at the owner's implicit root; there is no root row. Sibling
// names are unique per (owner, parent) case-insensitively, enforced by the
// folder service.
type Folder struct {
	BaseModel
	Name     string     `json:"name" gorm:"type:varchar(255);not null"`
	OwnerID  uuid.UUID  `json:"ownerID" gorm:"type:uuid;not null;index"`
	ParentID *uuid.UUID `json:"parentID,omitempty" gorm:"type:uuid;index"`

	Owner    User     `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
	Parent   *Folder  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children []Folder `json:"children,omitempty" gorm:"foreignKey:ParentID"`
}

func (Folder) TableName() string {
	return "folders"
}
