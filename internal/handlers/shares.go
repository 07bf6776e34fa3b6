package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/teamforge/backend/internal/middleware"
	"github.com/teamforge/backend/internal/models"
	"github.com/teamforge/backend/internal/services"
	"github.com/teamforge/backend/pkg/logger"
	"github.com/teamforge/backend/pkg/utils"
)

type SharesHandler struct {
	Access *services.AccessService
	Audit  *services.AuditService
}

func NewSharesHandler(access *services.AccessService, audit *services.AuditService) *SharesHandler {
	return &SharesHandler{Access: access, Audit: audit}
}

type createShareRequest struct {
	UserID     string                 `json:"userID"`
	Permission models.SharePermission `json:"permission"`
}

func (h *SharesHandler) ShareFile(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req createShareRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	targetUserID, err := parseUUID(req.UserID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid userID")
	}

	if !isValidSharePermission(string(req.Permission)) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid permission")
	}

	share, err := h.Access.Share(c.Context(), fileID, targetUserID, req.Permission, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_shared", map[string]interface{}{
		"file_id":    fileID.String(),
		"target_id":  targetUserID.String(),
		"permission": string(req.Permission),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "share.create",
		ResourceType: "share",
		ResourceID:   &fileID,
		Details: map[string]interface{}{
			"shared_with_user_id": targetUserID.String(),
			"permission":          string(req.Permission),
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusCreated, share)
}

func (h *SharesHandler) RevokeShare(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	targetUserID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.Access.Revoke(c.Context(), fileID, targetUserID, currentUser.ID); err != nil {
		return serviceError(c, err)
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "share.revoke",
		ResourceType: "share",
		ResourceID:   &fileID,
		Details: map[string]interface{}{
			"revoked_user_id": targetUserID.String(),
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "share revoked"})
}

type setPublicRequest struct {
	IsPublic bool `json:"isPublic"`
}

func (h *SharesHandler) SetPublic(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req setPublicRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	file, err := h.Access.SetPublic(c.Context(), fileID, req.IsPublic, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "file.set_public",
		ResourceType: "file",
		ResourceID:   &fileID,
		Details: map[string]interface{}{
			"is_public": req.IsPublic,
		},
		IPAddress: c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, file)
}

func (h *SharesHandler) ListFileShares(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	if !h.Access.HasAccess(c.Context(), currentUser.ID, fileID, models.SharePermissionView) {
		return utils.Error(c, fiber.StatusForbidden, "insufficient permissions")
	}

	shares, err := h.Access.ListFileShares(c.Context(), fileID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, shares)
}
