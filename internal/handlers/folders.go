package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/teamforge/backend/internal/middleware"
	"github.com/teamforge/backend/internal/models"
	"github.com/teamforge/backend/internal/services"
	"github.com/teamforge/backend/internal/storage"
	"github.com/teamforge/backend/pkg/logger"
	"github.com/teamforge/backend/pkg/utils"
)

type FoldersHandler struct {
	Folders   *services.FolderService
	Placement *services.PlacementService
	Storage   storage.ObjectStore
	Audit     *services.AuditService
}

func NewFoldersHandler(folders *services.FolderService, placement *services.PlacementService, store storage.ObjectStore, audit *services.AuditService) *FoldersHandler {
	return &FoldersHandler{Folders: folders, Placement: placement, Storage: store, Audit: audit}
}

type createFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentID"`
}

func (h *FoldersHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Name) == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	parentID, ok := parseOptionalUUID(req.ParentID)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parentID")
	}

	folder, err := h.Folders.Create(c.Context(), currentUser.ID, req.Name, parentID)
	if err != nil {
		return serviceError(c, err)
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "folder.create",
		ResourceType: "folder",
		ResourceID:   &folder.ID,
		Details: map[string]interface{}{
			"folder_name": folder.Name,
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusCreated, folder)
}

type folderContents struct {
	Folders []models.Folder `json:"folders"`
	Files   []models.File   `json:"files"`
}

// ListRoot returns the caller's root-level folders and files.
func (h *FoldersHandler) ListRoot(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folders, files, err := h.Folders.ListChildren(c.Context(), currentUser.ID, nil)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, folderContents{Folders: folders, Files: files})
}

func (h *FoldersHandler) ListChildren(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	folders, files, listErr := h.Folders.ListChildren(c.Context(), currentUser.ID, &folderID)
	if listErr != nil {
		return serviceError(c, listErr)
	}

	return utils.Success(c, fiber.StatusOK, folderContents{Folders: folders, Files: files})
}

// Path returns the breadcrumb from the root down to the folder.
func (h *FoldersHandler) Path(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	folder, err := h.Folders.Get(c.Context(), folderID)
	if err != nil {
		return serviceError(c, err)
	}
	if folder.OwnerID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	chain, err := h.Folders.AncestorChain(c.Context(), folderID)
	if err != nil {
		return serviceError(c, err)
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	return utils.Success(c, fiber.StatusOK, chain)
}

type renameFolderRequest struct {
	Name string `json:"name"`
}

func (h *FoldersHandler) Rename(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	var req renameFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	folder, err := h.Folders.Rename(c.Context(), folderID, currentUser.ID, req.Name)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, folder)
}

type moveFolderRequest struct {
	ParentID *string `json:"parentID"`
}

func (h *FoldersHandler) Move(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	var req moveFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	destParentID, ok := parseOptionalUUID(req.ParentID)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parentID")
	}

	folder, err := h.Placement.MoveFolder(c.Context(), folderID, destParentID, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "folder.move",
		ResourceType: "folder",
		ResourceID:   &folder.ID,
		Details: map[string]interface{}{
			"folder_name": folder.Name,
			"parent_id":   req.ParentID,
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, folder)
}

func (h *FoldersHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	recursive := c.QueryBool("recursive", false)

	storageRefs, err := h.Folders.Delete(c.Context(), folderID, currentUser.ID, recursive)
	if err != nil {
		return serviceError(c, err)
	}

	// Records are gone; failed blob deletes only leak storage.
	for _, ref := range storageRefs {
		if err := h.Storage.Delete(c.Context(), ref); err != nil {
			logger.Error("blob_delete_failed", err, map[string]interface{}{
				"storage_ref": ref,
			})
		}
	}

	logger.InfoWithUser(currentUser.ID.String(), "folder_deleted", map[string]interface{}{
		"folder_id":     folderID.String(),
		"recursive":     recursive,
		"files_removed": len(storageRefs),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "folder.delete",
		ResourceType: "folder",
		ResourceID:   &folderID,
		Details: map[string]interface{}{
			"recursive": recursive,
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "folder deleted"})
}
