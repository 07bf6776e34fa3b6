package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/teamforge/backend/internal/middleware"
	"github.com/teamforge/backend/internal/models"
	"github.com/teamforge/backend/pkg/utils"
	"gorm.io/gorm"
)

// UsersHandler exposes the read-only user directory lookup used when
// picking share targets.
type UsersHandler struct {
	DB *gorm.DB
}

func NewUsersHandler(db *gorm.DB) *UsersHandler {
	return &UsersHandler{DB: db}
}

func (h *UsersHandler) Search(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	q := strings.TrimSpace(c.Query("q"))
	if len(q) < 2 {
		return utils.Error(c, fiber.StatusBadRequest, "search query must be at least 2 characters")
	}

	searchValue := "%" + strings.ToLower(q) + "%"

	var users []models.User
	err := h.DB.
		Where("id <> ?", currentUser.ID).
		Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", searchValue, searchValue, searchValue).
		Order("email ASC").
		Limit(20).
		Find(&users).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "search failed")
	}

	return utils.Success(c, fiber.StatusOK, users)
}
