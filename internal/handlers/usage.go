package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/teamforge/backend/internal/middleware"
	"github.com/teamforge/backend/internal/services"
	"github.com/teamforge/backend/pkg/utils"
)

type UsageHandler struct {
	Accounting *services.AccountingService
}

func NewUsageHandler(accounting *services.AccountingService) *UsageHandler {
	return &UsageHandler{Accounting: accounting}
}

// Total reports the caller's storage usage across their whole tree.
func (h *UsageHandler) Total(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	total, err := h.Accounting.SubtreeSize(c.Context(), currentUser.ID, nil)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"bytes": total})
}

// Folder reports usage for one folder's subtree.
func (h *UsageHandler) Folder(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	total, err := h.Accounting.SubtreeSize(c.Context(), currentUser.ID, &folderID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"bytes": total})
}

// Categories reports per-category bytes and counts for the caller.
func (h *UsageHandler) Categories(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	usage, err := h.Accounting.UsageByCategory(c.Context(), currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, usage)
}
