package handlers

import (
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// currentUserID reads the authenticated user id placed by the JWT
// middleware.
func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("userId").(string)
	if !ok || raw == "" {
		return uuid.Nil, errors.New("missing user id")
	}
	return uuid.Parse(raw)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": "Unauthorized",
	})
}

const maxUploadBytes = 5 * 1024 * 1024

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// saveImageUpload stores an uploaded image under dir and returns its
// public URL path. Enforces the 5 MB cap and image extension filter.
func saveImageUpload(c *fiber.Ctx, file *multipart.FileHeader, dir, baseURL string) (string, error) {
	if file.Size <= 0 {
		return "", errors.New("invalid file size")
	}
	if file.Size > maxUploadBytes {
		return "", errors.New("file exceeds 5MB limit")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return "", errors.New("only images are allowed")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	filename := uuid.New().String() + ext
	if err := c.SaveFile(file, filepath.Join(dir, filename)); err != nil {
		return "", err
	}

	publicPath := "/uploads/" + filename
	if baseURL != "" {
		publicPath = strings.TrimRight(baseURL, "/") + publicPath
	}
	return publicPath, nil
}
