package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/teamforge/backend/internal/services"
	"github.com/teamforge/backend/pkg/utils"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// parseOptionalUUID turns an optional request field into a folder
// reference; nil or empty means the implicit root.
func parseOptionalUUID(value *string) (*uuid.UUID, bool) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, true
	}
	parsed, err := parseUUID(*value)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}

func isValidSharePermission(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "view", "edit":
		return true
	default:
		return false
	}
}

// serviceError maps the service-layer validation taxonomy onto HTTP
// statuses. Anything outside the taxonomy is an infrastructure failure.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.Error(c, fiber.StatusNotFound, "record not found")
	case errors.Is(err, services.ErrForbidden):
		return utils.Error(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, services.ErrInvalidFolder):
		return utils.Error(c, fiber.StatusNotFound, "folder not found")
	case errors.Is(err, services.ErrInvalidParent):
		return utils.Error(c, fiber.StatusNotFound, "parent folder not found")
	case errors.Is(err, services.ErrTargetNotFound):
		return utils.Error(c, fiber.StatusNotFound, "target user not found")
	case errors.Is(err, services.ErrDuplicateName):
		return utils.Error(c, fiber.StatusConflict, "a sibling with this name already exists")
	case errors.Is(err, services.ErrFolderNotEmpty):
		return utils.Error(c, fiber.StatusConflict, "folder is not empty")
	case errors.Is(err, services.ErrCyclicMove):
		return utils.Error(c, fiber.StatusBadRequest, "cannot move a folder inside itself")
	case errors.Is(err, services.ErrSelfShare):
		return utils.Error(c, fiber.StatusBadRequest, "cannot share a file with yourself")
	case errors.Is(err, services.ErrInvalidName):
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	default:
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}
}
