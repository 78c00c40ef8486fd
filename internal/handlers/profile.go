package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/stitchnet/stitchnet-api/internal/models"
)

type ProfileHandler struct {
	DB        *gorm.DB
	UploadDir string
	BaseURL   string
}

func NewProfileHandler(db *gorm.DB, uploadDir, baseURL string) *ProfileHandler {
	return &ProfileHandler{DB: db, UploadDir: uploadDir, BaseURL: baseURL}
}

func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}

type UpdateProfileReq struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Skill    string `json:"skill"`
}

func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req UpdateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Name is required",
		})
	}

	updates := map[string]interface{}{
		"name":     name,
		"location": strings.TrimSpace(req.Location),
		"phone":    strings.TrimSpace(req.Phone),
		"company":  strings.TrimSpace(req.Company),
		"skill":    strings.TrimSpace(req.Skill),
	}

	if err := h.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(updates).Error; err != nil {
		log.Println("update profile:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update profile",
		})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Profile updated successfully"})
}

func (h *ProfileHandler) UploadPhoto(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "No file uploaded",
		})
	}

	photoPath, err := saveImageUpload(c, file, h.UploadDir, h.BaseURL)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	if err := h.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("profile_photo", photoPath).Error; err != nil {
		log.Println("update profile photo:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update profile photo",
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "Profile photo updated",
		"profile_photo": photoPath,
	})
}
