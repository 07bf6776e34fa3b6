package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/teamforge/backend/internal/models"
	"gorm.io/gorm"
)

type CatalogService struct {
	DB    *gorm.DB
	Locks *OwnerLocks
}

func NewCatalogService(db *gorm.DB, locks *OwnerLocks) *CatalogService {
	return &CatalogService{DB: db, Locks: locks}
}

type UploadInput struct {
	OwnerID    uuid.UUID
	Name       string
	Extension  string
	Size       int64
	StorageRef string
	FolderID   *uuid.UUID
}

// Upload records an uploaded file. The category is derived from the
// extension exactly once here; it never changes afterwards. The optional
// folder must resolve to one owned by the uploader.
func (s *CatalogService) Upload(ctx context.Context, input UploadInput) (*models.File, error) {
	unlock := s.Locks.Lock(input.OwnerID)
	defer unlock()

	extension := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(input.Extension), "."))

	var file models.File
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.FolderID != nil {
			if _, err := resolveOwnedFolder(tx, input.OwnerID, *input.FolderID); err != nil {
				if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
					return ErrInvalidFolder
				}
				return err
			}
		}

		file = models.File{
			Name:       strings.TrimSpace(input.Name),
			Extension:  extension,
			Category:   models.CategoryForExtension(extension),
			Size:       input.Size,
			OwnerID:    input.OwnerID,
			FolderID:   input.FolderID,
			StorageRef: input.StorageRef,
		}
		return tx.Create(&file).Error
	})
	if err != nil {
		return nil, err
	}

	return &file, nil
}

func (s *CatalogService) Get(ctx context.Context, fileID uuid.UUID) (*models.File, error) {
	var file models.File
	if err := s.DB.WithContext(ctx).Preload("Owner").First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// ListOwned enumerates exactly the owner's files whose folder matches
// folderID (nil = root). No recursion into subfolders.
func (s *CatalogService) ListOwned(ctx context.Context, ownerID uuid.UUID, folderID *uuid.UUID) ([]models.File, error) {
	query := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID)
	if folderID == nil {
		query = query.Where("folder_id IS NULL")
	} else {
		query = query.Where("folder_id = ?", *folderID)
	}

	var files []models.File
	if err := query.Order("created_at DESC").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

// ListSharedWith returns files the user does not own but can see: files
// with an explicit share for them, plus public files.
func (s *CatalogService) ListSharedWith(ctx context.Context, userID uuid.UUID) ([]models.File, error) {
	var files []models.File
	err := s.DB.WithContext(ctx).
		Preload("Owner").
		Table("files").
		Distinct("files.*").
		Joins("LEFT JOIN shares ON shares.file_id = files.id AND shares.user_id = ?", userID).
		Where("files.owner_id <> ?", userID).
		Where("files.is_public = ? OR shares.user_id IS NOT NULL", true).
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (s *CatalogService) Rename(ctx context.Context, fileID uuid.UUID, actorID uuid.UUID, newName string) (*models.File, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, ErrInvalidName
	}

	file, err := s.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != actorID {
		return nil, ErrForbidden
	}

	if err := s.DB.WithContext(ctx).Model(&models.File{}).Where("id = ?", file.ID).Update("name", newName).Error; err != nil {
		return nil, err
	}

	file.Name = newName
	return file, nil
}

// Delete destroys a file record and every share referencing it, and
// returns the storage ref so the caller can release the blob after the
// transaction commits. Owner-only.
func (s *CatalogService) Delete(ctx context.Context, fileID uuid.UUID, actorID uuid.UUID) (string, error) {
	file, err := s.Get(ctx, fileID)
	if err != nil {
		return "", err
	}
	if file.OwnerID != actorID {
		return "", ErrForbidden
	}

	unlock := s.Locks.Lock(file.OwnerID)
	defer unlock()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Share{}, "file_id = ?", file.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.File{}, "id = ?", file.ID).Error
	})
	if err != nil {
		return "", err
	}

	return file.StorageRef, nil
}
