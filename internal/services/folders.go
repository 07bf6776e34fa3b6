package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/teamforge/backend/internal/models"
	"gorm.io/gorm"
)

// maxTreeDepth bounds every ancestor-chain walk. Real trees stay far
// below this; hitting the cap means the tree is corrupt.
const maxTreeDepth = 64

type FolderService struct {
	DB    *gorm.DB
	Locks *OwnerLocks
}

func NewFolderService(db *gorm.DB, locks *OwnerLocks) *FolderService {
	return &FolderService{DB: db, Locks: locks}
}

// Create adds a folder under parentID (nil = the owner's root). Sibling
// names are unique case-insensitively per (owner, parent).
func (s *FolderService) Create(ctx context.Context, ownerID uuid.UUID, name string, parentID *uuid.UUID) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	unlock := s.Locks.Lock(ownerID)
	defer unlock()

	var folder models.Folder
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if parentID != nil {
			if _, err := resolveOwnedFolder(tx, ownerID, *parentID); err != nil {
				if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
					return ErrInvalidParent
				}
				return err
			}
		}

		taken, err := siblingNameTaken(tx, ownerID, parentID, name, nil)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateName
		}

		folder = models.Folder{
			Name:     name,
			OwnerID:  ownerID,
			ParentID: parentID,
		}
		return tx.Create(&folder).Error
	})
	if err != nil {
		return nil, err
	}

	return &folder, nil
}

func (s *FolderService) Get(ctx context.Context, folderID uuid.UUID) (*models.Folder, error) {
	var folder models.Folder
	if err := s.DB.WithContext(ctx).First(&folder, "id = ?", folderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &folder, nil
}

// ListChildren returns the immediate child folders and files of folderID
// for the given owner. A nil folderID lists the owner's root. There is no
// implicit recursion.
func (s *FolderService) ListChildren(ctx context.Context, ownerID uuid.UUID, folderID *uuid.UUID) ([]models.Folder, []models.File, error) {
	db := s.DB.WithContext(ctx)

	if folderID != nil {
		if _, err := resolveOwnedFolder(db, ownerID, *folderID); err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
				return nil, nil, ErrInvalidFolder
			}
			return nil, nil, err
		}
	}

	var folders []models.Folder
	query := db.Where("owner_id = ?", ownerID)
	if folderID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *folderID)
	}
	if err := query.Order("name ASC").Find(&folders).Error; err != nil {
		return nil, nil, err
	}

	var files []models.File
	fileQuery := db.Where("owner_id = ?", ownerID)
	if folderID == nil {
		fileQuery = fileQuery.Where("folder_id IS NULL")
	} else {
		fileQuery = fileQuery.Where("folder_id = ?", *folderID)
	}
	if err := fileQuery.Order("name ASC").Find(&files).Error; err != nil {
		return nil, nil, err
	}

	return folders, files, nil
}

// AncestorChain returns the chain from folderID up to (but excluding) the
// implicit root, starting with the folder itself. Used for breadcrumbs and
// as the cycle-detection primitive for folder moves.
func (s *FolderService) AncestorChain(ctx context.Context, folderID uuid.UUID) ([]models.Folder, error) {
	return ancestorChain(s.DB.WithContext(ctx), folderID)
}

// Rename changes a folder's name, preserving sibling uniqueness.
func (s *FolderService) Rename(ctx context.Context, folderID uuid.UUID, actorID uuid.UUID, newName string) (*models.Folder, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, ErrInvalidName
	}

	folder, err := s.Get(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.OwnerID != actorID {
		return nil, ErrForbidden
	}

	unlock := s.Locks.Lock(folder.OwnerID)
	defer unlock()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := siblingNameTaken(tx, folder.OwnerID, folder.ParentID, newName, &folder.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateName
		}
		return tx.Model(&models.Folder{}).Where("id = ?", folder.ID).Update("name", newName).Error
	})
	if err != nil {
		return nil, err
	}

	folder.Name = newName
	return folder, nil
}

// Delete removes a folder. Without recursive it refuses when any child
// folder or file exists. With recursive it destroys the whole subtree in
// one transaction, files before their folder and folders bottom-up, and
// returns the storage refs of every destroyed file so the caller can
// release the blobs after commit.
func (s *FolderService) Delete(ctx context.Context, folderID uuid.UUID, actorID uuid.UUID, recursive bool) ([]string, error) {
	folder, err := s.Get(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.OwnerID != actorID {
		return nil, ErrForbidden
	}

	unlock := s.Locks.Lock(folder.OwnerID)
	defer unlock()

	var storageRefs []string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !recursive {
			empty, err := folderIsEmpty(tx, folder.ID)
			if err != nil {
				return err
			}
			if !empty {
				return ErrFolderNotEmpty
			}
			return tx.Delete(&models.Folder{}, "id = ?", folder.ID).Error
		}

		refs, err := deleteSubtree(tx, folder.ID, 0)
		if err != nil {
			return err
		}
		storageRefs = refs
		return nil
	})
	if err != nil {
		return nil, err
	}

	return storageRefs, nil
}

func folderIsEmpty(tx *gorm.DB, folderID uuid.UUID) (bool, error) {
	var childFolders int64
	if err := tx.Model(&models.Folder{}).Where("parent_id = ?", folderID).Count(&childFolders).Error; err != nil {
		return false, err
	}
	if childFolders > 0 {
		return false, nil
	}

	var childFiles int64
	if err := tx.Model(&models.File{}).Where("folder_id = ?", folderID).Count(&childFiles).Error; err != nil {
		return false, err
	}
	return childFiles == 0, nil
}

// deleteSubtree destroys folderID and everything below it depth-first.
// Files go first (with their shares), then child folders, then the folder
// itself, so no folder ever references already-deleted children.
func deleteSubtree(tx *gorm.DB, folderID uuid.UUID, depth int) ([]string, error) {
	if depth > maxTreeDepth {
		return nil, fmt.Errorf("folder tree deeper than %d levels at %s", maxTreeDepth, folderID)
	}

	var refs []string

	var children []models.Folder
	if err := tx.Select("id").Where("parent_id = ?", folderID).Find(&children).Error; err != nil {
		return nil, err
	}
	for _, child := range children {
		childRefs, err := deleteSubtree(tx, child.ID, depth+1)
		if err != nil {
			return nil, err
		}
		refs = append(refs, childRefs...)
	}

	var files []models.File
	if err := tx.Select("id", "storage_ref").Where("folder_id = ?", folderID).Find(&files).Error; err != nil {
		return nil, err
	}
	for _, file := range files {
		if err := tx.Delete(&models.Share{}, "file_id = ?", file.ID).Error; err != nil {
			return nil, err
		}
		if err := tx.Delete(&models.File{}, "id = ?", file.ID).Error; err != nil {
			return nil, err
		}
		if file.StorageRef != "" {
			refs = append(refs, file.StorageRef)
		}
	}

	if err := tx.Delete(&models.Folder{}, "id = ?", folderID).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

// resolveOwnedFolder loads folderID and checks it belongs to ownerID.
func resolveOwnedFolder(tx *gorm.DB, ownerID uuid.UUID, folderID uuid.UUID) (*models.Folder, error) {
	var folder models.Folder
	if err := tx.First(&folder, "id = ?", folderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if folder.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return &folder, nil
}

// siblingNameTaken reports whether another folder with the same
// case-insensitive name exists under (ownerID, parentID). excludeID skips
// the folder being renamed or moved.
func siblingNameTaken(tx *gorm.DB, ownerID uuid.UUID, parentID *uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	query := tx.Model(&models.Folder{}).
		Where("owner_id = ?", ownerID).
		Where("LOWER(name) = LOWER(?)", name)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ancestorChain walks parent pointers from folderID upward, returning the
// folder itself first. The walk is capped at maxTreeDepth and fails loudly
// if a node repeats, so a corrupt tree surfaces as an error instead of an
// infinite loop.
func ancestorChain(tx *gorm.DB, folderID uuid.UUID) ([]models.Folder, error) {
	chain := make([]models.Folder, 0, 8)
	seen := make(map[uuid.UUID]bool)
	current := folderID

	for hops := 0; hops <= maxTreeDepth; hops++ {
		if seen[current] {
			return nil, fmt.Errorf("cycle detected in folder tree at %s", current)
		}
		seen[current] = true

		var folder models.Folder
		if err := tx.First(&folder, "id = ?", current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}

		chain = append(chain, folder)
		if folder.ParentID == nil {
			return chain, nil
		}
		current = *folder.ParentID
	}

	return nil, fmt.Errorf("folder tree deeper than %d levels at %s", maxTreeDepth, folderID)
}
