package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/teamforge/backend/internal/models"
	"gorm.io/gorm"
)

// PlacementService owns the move operations. Both moves are idempotent
// when the destination already equals the current placement, and a folder
// move can never make a folder an ancestor of itself: the check runs
// against the destination's ancestor chain inside the same owner-locked
// transaction as the write, so a concurrent move cannot slip a cycle in
// between the check and the update.
type PlacementService struct {
	DB    *gorm.DB
	Locks *OwnerLocks
}

func NewPlacementService(db *gorm.DB, locks *OwnerLocks) *PlacementService {
	return &PlacementService{DB: db, Locks: locks}
}

// MoveFile re-parents a file to destFolderID (nil = the owner's root).
func (s *PlacementService) MoveFile(ctx context.Context, fileID uuid.UUID, destFolderID *uuid.UUID, actorID uuid.UUID) (*models.File, error) {
	var file models.File
	if err := s.DB.WithContext(ctx).First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if file.OwnerID != actorID {
		return nil, ErrForbidden
	}

	if samePlacement(file.FolderID, destFolderID) {
		return &file, nil
	}

	unlock := s.Locks.Lock(file.OwnerID)
	defer unlock()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if destFolderID != nil {
			if _, err := resolveOwnedFolder(tx, file.OwnerID, *destFolderID); err != nil {
				if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
					return ErrInvalidFolder
				}
				return err
			}
		}
		return tx.Model(&models.File{}).Where("id = ?", file.ID).Update("folder_id", destFolderID).Error
	})
	if err != nil {
		return nil, err
	}

	file.FolderID = destFolderID
	return &file, nil
}

// MoveFolder re-parents a folder to destParentID (nil = the owner's
// root). Rejected with ErrCyclicMove when the destination is the folder
// itself or any of its descendants; sibling uniqueness at the destination
// is enforced the same as on create.
func (s *PlacementService) MoveFolder(ctx context.Context, folderID uuid.UUID, destParentID *uuid.UUID, actorID uuid.UUID) (*models.Folder, error) {
	var folder models.Folder
	if err := s.DB.WithContext(ctx).First(&folder, "id = ?", folderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if folder.OwnerID != actorID {
		return nil, ErrForbidden
	}

	if samePlacement(folder.ParentID, destParentID) {
		return &folder, nil
	}

	unlock := s.Locks.Lock(folder.OwnerID)
	defer unlock()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if destParentID != nil {
			if *destParentID == folder.ID {
				return ErrCyclicMove
			}

			if _, err := resolveOwnedFolder(tx, folder.OwnerID, *destParentID); err != nil {
				if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
					return ErrInvalidFolder
				}
				return err
			}

			chain, err := ancestorChain(tx, *destParentID)
			if err != nil {
				return err
			}
			for _, ancestor := range chain {
				if ancestor.ID == folder.ID {
					return ErrCyclicMove
				}
			}
		}

		taken, err := siblingNameTaken(tx, folder.OwnerID, destParentID, folder.Name, &folder.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateName
		}

		return tx.Model(&models.Folder{}).Where("id = ?", folder.ID).Update("parent_id", destParentID).Error
	})
	if err != nil {
		return nil, err
	}

	folder.ParentID = destParentID
	return &folder, nil
}

func samePlacement(current, destination *uuid.UUID) bool {
	if current == nil || destination == nil {
		return current == nil && destination == nil
	}
	return *current == *destination
}
