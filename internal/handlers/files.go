package handlers

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/teamforge/backend/internal/middleware"
	"github.com/teamforge/backend/internal/models"
	"github.com/teamforge/backend/internal/services"
	"github.com/teamforge/backend/internal/storage"
	"github.com/teamforge/backend/pkg/logger"
	"github.com/teamforge/backend/pkg/utils"
)

type FilesHandler struct {
	Catalog   *services.CatalogService
	Placement *services.PlacementService
	Access    *services.AccessService
	Storage   storage.ObjectStore
	Audit     *services.AuditService
}

func NewFilesHandler(catalog *services.CatalogService, placement *services.PlacementService, access *services.AccessService, store storage.ObjectStore, audit *services.AuditService) *FilesHandler {
	return &FilesHandler{Catalog: catalog, Placement: placement, Access: access, Storage: store, Audit: audit}
}

func (h *FilesHandler) Upload(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	folderIDRaw := c.FormValue("folderID")
	folderID, ok := parseOptionalUUID(&folderIDRaw)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folderID")
	}

	filename := filepath.Base(strings.TrimSpace(fileHeader.Filename))
	if filename == "" || filename == "." {
		return utils.Error(c, fiber.StatusBadRequest, "invalid filename")
	}
	extension := strings.TrimPrefix(filepath.Ext(filename), ".")

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	// Blob first, record second: an orphan blob is cheap to clean up, a
	// record without bytes is not.
	storageRef := fmt.Sprintf("%s/%s/%s", currentUser.ID.String(), uuid.New().String(), filename)
	if err := h.Storage.Upload(c.Context(), storageRef, stream, fileHeader.Size, contentType); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed uploading file")
	}

	entry, err := h.Catalog.Upload(c.Context(), services.UploadInput{
		OwnerID:    currentUser.ID,
		Name:       filename,
		Extension:  extension,
		Size:       fileHeader.Size,
		StorageRef: storageRef,
		FolderID:   folderID,
	})
	if err != nil {
		_ = h.Storage.Delete(c.Context(), storageRef)
		return serviceError(c, err)
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_uploaded", map[string]interface{}{
		"file_id":     entry.ID.String(),
		"file_name":   filename,
		"file_size":   fileHeader.Size,
		"category":    string(entry.Category),
		"storage_ref": storageRef,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "file.upload",
		ResourceType: "file",
		ResourceID:   &entry.ID,
		Details: map[string]interface{}{
			"file_name": filename,
			"file_size": fileHeader.Size,
			"category":  string(entry.Category),
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusCreated, entry)
}

func (h *FilesHandler) ListRoot(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	files, err := h.Catalog.ListOwned(c.Context(), currentUser.ID, nil)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, files)
}

func (h *FilesHandler) ListSharedWithMe(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	files, err := h.Catalog.ListSharedWith(c.Context(), currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, files)
}

func (h *FilesHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	file, err := h.Catalog.Get(c.Context(), fileID)
	if err != nil {
		return serviceError(c, err)
	}

	if !h.Access.HasAccess(c.Context(), currentUser.ID, file.ID, models.SharePermissionView) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	return utils.Success(c, fiber.StatusOK, file)
}

func (h *FilesHandler) Download(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	file, err := h.Catalog.Get(c.Context(), fileID)
	if err != nil {
		return serviceError(c, err)
	}

	if !h.Access.HasAccess(c.Context(), currentUser.ID, file.ID, models.SharePermissionView) {
		logger.WarnWithUser(currentUser.ID.String(), "permission_denied", map[string]interface{}{
			"action":    "file_download",
			"target_id": file.ID.String(),
		})
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	obj, info, err := h.Storage.Download(c.Context(), file.StorageRef)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed downloading file")
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension("." + file.Extension)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Set("Content-Type", contentType)
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	return c.SendStream(obj, int(info.Size))
}

type renameFileRequest struct {
	Name string `json:"name"`
}

func (h *FilesHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req renameFileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	file, err := h.Catalog.Rename(c.Context(), fileID, currentUser.ID, req.Name)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, file)
}

type moveFileRequest struct {
	FolderID *string `json:"folderID"`
}

func (h *FilesHandler) Move(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req moveFileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	destFolderID, ok := parseOptionalUUID(req.FolderID)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folderID")
	}

	file, err := h.Placement.MoveFile(c.Context(), fileID, destFolderID, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "file.move",
		ResourceType: "file",
		ResourceID:   &file.ID,
		Details: map[string]interface{}{
			"file_name": file.Name,
			"folder_id": req.FolderID,
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, file)
}

func (h *FilesHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	storageRef, err := h.Catalog.Delete(c.Context(), fileID, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	if storageRef != "" {
		// Record is gone; a failed blob delete only leaks storage, so log
		// and move on.
		if err := h.Storage.Delete(c.Context(), storageRef); err != nil {
			logger.Error("blob_delete_failed", err, map[string]interface{}{
				"storage_ref": storageRef,
			})
		}
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_deleted", map[string]interface{}{
		"file_id": fileID.String(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "file.delete",
		ResourceType: "file",
		ResourceID:   &fileID,
		IPAddress:    c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "file deleted"})
}

// EffectiveAccess reports the caller's effective permission on a file,
// the same resolution every download and listing uses.
func (h *FilesHandler) EffectiveAccess(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	permission, err := h.Access.EffectivePermission(c.Context(), fileID, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"permission": permission})
}
