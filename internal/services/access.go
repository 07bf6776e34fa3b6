package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/teamforge/backend/internal/models"
	"gorm.io/gorm"
)

type AccessService struct {
	DB    *gorm.DB
	Locks *OwnerLocks
}

func NewAccessService(db *gorm.DB, locks *OwnerLocks) *AccessService {
	return &AccessService{DB: db, Locks: locks}
}

// EffectivePermission resolves the access level userID has on fileID.
// Resolution order: owner always edits; an explicit share grants its
// permission; a public file grants view; otherwise none. Total over
// existing files, so every download/listing decision funnels through it.
func (a *AccessService) EffectivePermission(ctx context.Context, fileID uuid.UUID, userID uuid.UUID) (models.SharePermission, error) {
	var file models.File
	if err := a.DB.WithContext(ctx).First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.SharePermissionNone, ErrNotFound
		}
		return models.SharePermissionNone, err
	}

	if file.OwnerID == userID {
		return models.SharePermissionEdit, nil
	}

	var share models.Share
	err := a.DB.WithContext(ctx).First(&share, "file_id = ? AND user_id = ?", fileID, userID).Error
	if err == nil {
		return share.Permission, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.SharePermissionNone, err
	}

	if file.IsPublic {
		return models.SharePermissionView, nil
	}
	return models.SharePermissionNone, nil
}

// HasAccess reports whether userID holds at least requiredPermission on
// fileID. Lookup failures deny.
func (a *AccessService) HasAccess(ctx context.Context, userID uuid.UUID, fileID uuid.UUID, requiredPermission models.SharePermission) bool {
	permission, err := a.EffectivePermission(ctx, fileID, userID)
	if err != nil {
		return false
	}
	return models.PermissionLevel(permission) >= models.PermissionLevel(requiredPermission)
}

// Share grants targetUserID access to fileID, upserting by (file, user):
// re-sharing the same user updates the permission instead of duplicating
// the grant. Only the owner may share, and never with themselves. The
// upsert reads then writes, so it runs under the owner's lock like every
// other mutation; without it two concurrent grants for the same pair can
// both miss the existing row and collide on the unique index.
func (a *AccessService) Share(ctx context.Context, fileID uuid.UUID, targetUserID uuid.UUID, permission models.SharePermission, actorID uuid.UUID) (*models.Share, error) {
	var file models.File
	if err := a.DB.WithContext(ctx).First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if file.OwnerID != actorID {
		return nil, ErrForbidden
	}
	if targetUserID == actorID {
		return nil, ErrSelfShare
	}

	var target models.User
	if err := a.DB.WithContext(ctx).First(&target, "id = ?", targetUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTargetNotFound
		}
		return nil, err
	}

	unlock := a.Locks.Lock(file.OwnerID)
	defer unlock()

	var share models.Share
	err := a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&share, "file_id = ? AND user_id = ?", fileID, targetUserID).Error
		if err == nil {
			share.Permission = permission
			return tx.Model(&models.Share{}).Where("id = ?", share.ID).Update("permission", permission).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		share = models.Share{
			FileID:     fileID,
			UserID:     targetUserID,
			Permission: permission,
		}
		return tx.Create(&share).Error
	})
	if err != nil {
		return nil, err
	}

	return &share, nil
}

// Revoke removes targetUserID's share on fileID. Revoking a share that
// does not exist is a no-op success, which makes revokes safely
// retryable. Owner-only.
func (a *AccessService) Revoke(ctx context.Context, fileID uuid.UUID, targetUserID uuid.UUID, actorID uuid.UUID) error {
	var file models.File
	if err := a.DB.WithContext(ctx).First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if file.OwnerID != actorID {
		return ErrForbidden
	}

	return a.DB.WithContext(ctx).Delete(&models.Share{}, "file_id = ? AND user_id = ?", fileID, targetUserID).Error
}

// SetPublic toggles public visibility. Owner-only.
func (a *AccessService) SetPublic(ctx context.Context, fileID uuid.UUID, isPublic bool, actorID uuid.UUID) (*models.File, error) {
	var file models.File
	if err := a.DB.WithContext(ctx).First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if file.OwnerID != actorID {
		return nil, ErrForbidden
	}

	if err := a.DB.WithContext(ctx).Model(&models.File{}).Where("id = ?", file.ID).Update("is_public", isPublic).Error; err != nil {
		return nil, err
	}

	file.IsPublic = isPublic
	return &file, nil
}

// ListFileShares returns the grants on a file, visible to anyone who can
// view it.
func (a *AccessService) ListFileShares(ctx context.Context, fileID uuid.UUID) ([]models.Share, error) {
	var shares []models.Share
	if err := a.DB.WithContext(ctx).Preload("User").Where("file_id = ?", fileID).Find(&shares).Error; err != nil {
		return nil, err
	}
	return shares, nil
}
