package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/teamforge/backend/internal/models"
	"gorm.io/gorm"
)

// AccountingService computes storage usage by recomputation: every call
// walks the live folder tree instead of maintaining a denormalized
// counter, so moves and cascading deletes can never leave usage numbers
// drifting from the files that actually exist.
type AccountingService struct {
	DB *gorm.DB
}

func NewAccountingService(db *gorm.DB) *AccountingService {
	return &AccountingService{DB: db}
}

// SubtreeSize sums size bytes over every file in folderID's subtree,
// including the folder itself. A nil folderID covers the owner's entire
// tree regardless of depth.
func (s *AccountingService) SubtreeSize(ctx context.Context, ownerID uuid.UUID, folderID *uuid.UUID) (int64, error) {
	db := s.DB.WithContext(ctx)

	if folderID == nil {
		var total int64
		err := db.Model(&models.File{}).
			Where("owner_id = ?", ownerID).
			Select("COALESCE(SUM(size), 0)").
			Scan(&total).Error
		return total, err
	}

	if _, err := resolveOwnedFolder(db, ownerID, *folderID); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
			return 0, ErrInvalidFolder
		}
		return 0, err
	}

	folderIDs, err := descendantFolderIDs(db, ownerID, *folderID)
	if err != nil {
		return 0, err
	}

	var total int64
	err = db.Model(&models.File{}).
		Where("owner_id = ?", ownerID).
		Where("folder_id IN ?", folderIDs).
		Select("COALESCE(SUM(size), 0)").
		Scan(&total).Error
	return total, err
}

type CategoryUsage struct {
	Bytes int64 `json:"bytes"`
	Count int64 `json:"count"`
}

// UsageByCategory partitions the owner's files (at any depth) by
// category. Every category appears in the result, zeroed when unused.
func (s *AccountingService) UsageByCategory(ctx context.Context, ownerID uuid.UUID) (map[models.FileCategory]CategoryUsage, error) {
	var rows []struct {
		Category models.FileCategory
		Bytes    int64
		Count    int64
	}
	err := s.DB.WithContext(ctx).Model(&models.File{}).
		Where("owner_id = ?", ownerID).
		Select("category, COALESCE(SUM(size), 0) AS bytes, COUNT(*) AS count").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	usage := make(map[models.FileCategory]CategoryUsage, len(models.AllCategories()))
	for _, category := range models.AllCategories() {
		usage[category] = CategoryUsage{}
	}
	for _, row := range rows {
		usage[row.Category] = CategoryUsage{Bytes: row.Bytes, Count: row.Count}
	}
	return usage, nil
}

// descendantFolderIDs collects rootID and every folder below it with a
// level-by-level walk over parent pointers, bounded by maxTreeDepth.
func descendantFolderIDs(db *gorm.DB, ownerID uuid.UUID, rootID uuid.UUID) ([]uuid.UUID, error) {
	all := []uuid.UUID{rootID}
	frontier := []uuid.UUID{rootID}

	for depth := 0; len(frontier) > 0; depth++ {
		if depth > maxTreeDepth {
			return nil, fmt.Errorf("folder tree deeper than %d levels under %s", maxTreeDepth, rootID)
		}

		var children []models.Folder
		if err := db.Select("id").
			Where("owner_id = ?", ownerID).
			Where("parent_id IN ?", frontier).
			Find(&children).Error; err != nil {
			return nil, err
		}

		frontier = frontier[:0]
		for _, child := range children {
			all = append(all, child.ID)
			frontier = append(frontier, child.ID)
		}
	}

	return all, nil
}
