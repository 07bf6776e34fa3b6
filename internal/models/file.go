package models

import "github.com/google/uuid"

type File struct {
	BaseModel
	Name       string       `json:"name" gorm:"type:varchar(255);not null"`
	Extension  string       `json:"extension" gorm:"type:varchar(32);not null"`
	Category   FileCategory `json:"category" gorm:"type:varchar(20);not null;index"`
	Size       int64        `json:"size" gorm:"not null;default:0"`
	OwnerID    uuid.UUID    `json:"ownerID" gorm:"type:uuid;not null;index"`
	FolderID   *uuid.UUID   `json:"folderID,omitempty" gorm:"type:uuid;index"`
	StorageRef string       `json:"storageRef" gorm:"type:text;not null"`
	IsPublic   bool         `json:"isPublic" gorm:"not null;default:false"`

	Owner  User    `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
	Folder *Folder `json:"folder,omitempty" gorm:"foreignKey:FolderID"`
	Shares []Share `json:"shares,omitempty" gorm:"foreignKey:FileID"`
}

func (File) TableName() string {
	return "files"
}
