package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/teamforge/backend/internal/models"
)

func TestCatalogService_Upload(t *testing.T) {
	db := setupServiceDB(t)
	service := NewCatalogService(db, NewOwnerLocks())
	owner := createUser(t, db, "owner@test.com")
	ctx := context.Background()

	t.Run("records file at root with derived category", func(t *testing.T) {
		file, err := service.Upload(ctx, UploadInput{
			OwnerID:    owner.ID,
			Name:       "photo.JPG",
			Extension:  "JPG",
			Size:       2048,
			StorageRef: "blobs/photo",
		})
		if err != nil {
			t.Fatalf("upload failed: %v", err)
		}
		if file.Category != models.CategoryImage {
			t.Fatalf("expected image category, got %s", file.Category)
		}
		if file.Extension != "jpg" {
			t.Fatalf("expected normalized extension jpg, got %s", file.Extension)
		}
		if file.FolderID != nil {
			t.Fatal("expected file at root")
		}
	})

	t.Run("records file inside owned folder", func(t *testing.T) {
		folder := createFolder(t, db, owner.ID, "Docs", nil)
		file, err := service.Upload(ctx, UploadInput{
			OwnerID:    owner.ID,
			Name:       "report.pdf",
			Extension:  ".pdf",
			Size:       100,
			StorageRef: "blobs/report",
			FolderID:   &folder.ID,
		})
		if err != nil {
			t.Fatalf("upload failed: %v", err)
		}
		if file.FolderID == nil || *file.FolderID != folder.ID {
			t.Fatal("expected file inside Docs")
		}
		if file.Category != models.CategoryDocument {
			t.Fatalf("expected document category, got %s", file.Category)
		}
	})

	t.Run("rejects folder owned by someone else", func(t *testing.T) {
		stranger := createUser(t, db, "stranger@test.com")
		theirs := createFolder(t, db, stranger.ID, "Theirs", nil)

		_, err := service.Upload(ctx, UploadInput{
			OwnerID:    owner.ID,
			Name:       "sneak.txt",
			Extension:  "txt",
			Size:       1,
			StorageRef: "blobs/sneak",
			FolderID:   &theirs.ID,
		})
		if !errors.Is(err, ErrInvalidFolder) {
			t.Fatalf("expected ErrInvalidFolder, got %v", err)
		}
	})

	t.Run("rejects unknown folder", func(t *testing.T) {
		bogus := uuid.New()
		_, err := service.Upload(ctx, UploadInput{
			OwnerID:    owner.ID,
			Name:       "lost.txt",
			Extension:  "txt",
			Size:       1,
			StorageRef: "blobs/lost",
			FolderID:   &bogus,
		})
		if !errors.Is(err, ErrInvalidFolder) {
			t.Fatalf("expected ErrInvalidFolder, got %v", err)
		}
	})
}

func TestCatalogService_ListOwned(t *testing.T) {
	db := setupServiceDB(t)
	service := NewCatalogService(db, NewOwnerLocks())
	owner := createUser(t, db, "owner@test.com")
	other := createUser(t, db, "other@test.com")
	ctx := context.Background()

	folder := createFolder(t, db, owner.ID, "Docs", nil)
	sub := createFolder(t, db, owner.ID, "Sub", &folder.ID)
	atRoot := createFile(t, db, owner.ID, "root.txt", 1, nil)
	inFolder := createFile(t, db, owner.ID, "in.txt", 2, &folder.ID)
	createFile(t, db, owner.ID, "deep.txt", 3, &sub.ID)
	createFile(t, db, other.ID, "theirs.txt", 4, nil)

	t.Run("root listing excludes foldered and foreign files", func(t *testing.T) {
		files, err := service.ListOwned(ctx, owner.ID, nil)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(files) != 1 || files[0].ID != atRoot.ID {
			t.Fatalf("expected only root.txt, got %+v", files)
		}
	})

	t.Run("folder listing is not recursive", func(t *testing.T) {
		files, err := service.ListOwned(ctx, owner.ID, &folder.ID)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(files) != 1 || files[0].ID != inFolder.ID {
			t.Fatalf("expected only in.txt, got %+v", files)
		}
	})
}

func TestCatalogService_ListSharedWith(t *testing.T) {
	db := setupServiceDB(t)
	service := NewCatalogService(db, NewOwnerLocks())
	access := NewAccessService(db, NewOwnerLocks())
	owner := createUser(t, db, "owner@test.com")
	viewer := createUser(t, db, "viewer@test.com")
	ctx := context.Background()

	shared := createFile(t, db, owner.ID, "shared.txt", 1, nil)
	public := createFile(t, db, owner.ID, "public.txt", 2, nil)
	createFile(t, db, owner.ID, "private.txt", 3, nil)
	ownPublic := createFile(t, db, viewer.ID, "own-public.txt", 4, nil)

	if _, err := access.Share(ctx, shared.ID, viewer.ID, models.SharePermissionView, owner.ID); err != nil {
		t.Fatalf("share failed: %v", err)
	}
	if _, err := access.SetPublic(ctx, public.ID, true, owner.ID); err != nil {
		t.Fatalf("set public failed: %v", err)
	}
	if _, err := access.SetPublic(ctx, ownPublic.ID, true, viewer.ID); err != nil {
		t.Fatalf("set public failed: %v", err)
	}

	files, err := service.ListSharedWith(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("list shared failed: %v", err)
	}

	ids := make(map[uuid.UUID]bool, len(files))
	for _, f := range files {
		ids[f.ID] = true
	}
	if len(files) != 2 || !ids[shared.ID] || !ids[public.ID] {
		t.Fatalf("expected exactly shared.txt and public.txt, got %+v", files)
	}
}

func TestCatalogService_RenameAndDelete(t *testing.T) {
	db := setupServiceDB(t)
	service := NewCatalogService(db, NewOwnerLocks())
	owner := createUser(t, db, "owner@test.com")
	other := createUser(t, db, "other@test.com")
	ctx := context.Background()

	t.Run("renames file", func(t *testing.T) {
		file := createFile(t, db, owner.ID, "old.txt", 1, nil)
		renamed, err := service.Rename(ctx, file.ID, owner.ID, "new.txt")
		if err != nil {
			t.Fatalf("rename failed: %v", err)
		}
		if renamed.Name != "new.txt" {
			t.Fatalf("expected new.txt, got %s", renamed.Name)
		}
		if renamed.Category != file.Category {
			t.Fatal("rename must not change the category")
		}
	})

	t.Run("non-owner cannot rename", func(t *testing.T) {
		file := createFile(t, db, owner.ID, "mine.txt", 1, nil)
		_, err := service.Rename(ctx, file.ID, other.ID, "stolen.txt")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("delete removes file and shares, returns storage ref", func(t *testing.T) {
		file := createFile(t, db, owner.ID, "gone.txt", 1, nil)
		share := &models.Share{FileID: file.ID, UserID: other.ID, Permission: models.SharePermissionView}
		if err := db.Create(share).Error; err != nil {
			t.Fatalf("failed creating share: %v", err)
		}

		ref, err := service.Delete(ctx, file.ID, owner.ID)
		if err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if ref != file.StorageRef {
			t.Fatalf("expected storage ref %s, got %s", file.StorageRef, ref)
		}

		var fileCount int64
		db.Model(&models.File{}).Where("id = ?", file.ID).Count(&fileCount)
		if fileCount != 0 {
			t.Fatal("expected file row gone")
		}

		var shareCount int64
		db.Model(&models.Share{}).Where("file_id = ?", file.ID).Count(&shareCount)
		if shareCount != 0 {
			t.Fatal("expected share rows gone")
		}
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		file := createFile(t, db, owner.ID, "keep.txt", 1, nil)
		_, err := service.Delete(ctx, file.ID, other.ID)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("unknown file", func(t *testing.T) {
		_, err := service.Delete(ctx, uuid.New(), owner.ID)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
