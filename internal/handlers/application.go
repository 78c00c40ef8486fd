package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stitchnet/stitchnet-api/internal/models"
	"github.com/stitchnet/stitchnet-api/internal/realtime"
)

type ApplicationHandler struct {
	DB       *gorm.DB
	Notifier *Notifier
}

func NewApplicationHandler(db *gorm.DB, hub *realtime.Hub) *ApplicationHandler {
	return &ApplicationHandler{DB: db, Notifier: &Notifier{Hub: hub}}
}

// Apply records a worker's interest in an open order. A worker may
// apply to each order once.
func (h *ApplicationHandler) Apply(c *fiber.Ctx) error {
	workerID, err := currentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	orderID, err := uuid.Parse(c.Params("orderId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid order ID",
		})
	}

	var order models.Order
	if err := h.DB.First(&order, "id = ?", orderID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Order not found",
		})
	}

	if order.Status != models.OrderStatusOpen {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Order is no longer open for applications",
		})
	}

	var existing models.Application
	if err := h.DB.Where("order_id = ? AND worker_id = ?", orderID, workerID).
		First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "You have already applied to this order",
		})
	}

	app := models.Application{
		OrderID:  orderID,
		WorkerID: workerID,
		Status:   models.ApplicationStatusPending,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&app).Error; err != nil {
			return err
		}
		return h.Notifier.Notify(tx, order.OwnerID, models.NotificationApplicationReceived,
			map[string]interface{}{
				"application_id": app.ID.String(),
				"order_id":       orderID.String(),
				"worker_id":      workerID.String(),
			})
	})
	if err != nil {
		log.Println("apply for order:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to submit application",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":       true,
		"message":       "Application submitted",
		"applicationId": app.ID,
	})
}

type ApplicationResponse struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	AppliedAt  time.Time `json:"applied_at"`
	WorkerID   string    `json:"worker_id"`
	WorkerName string    `json:"worker_name"`
	OrderID    string    `json:"order_id"`
	OrderTitle string    `json:"order_title"`
}

// ListForOwner returns all applications against the caller's orders,
// joined with the worker's display name and the order title. The
// caller filters rejected rows client-side.
func (h *ApplicationHandler) ListForOwner(c *fiber.Ctx) error {
	ownerID, err := currentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var apps []models.Application
	if err := h.DB.
		Joins("JOIN orders ON orders.id = applications.order_id").
		Where("orders.owner_id = ?", ownerID).
		Preload("Worker").
		Preload("Order").
		Order("applications.applied_at DESC").
		Find(&apps).Error; err != nil {
		log.Println("list applications:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch applications",
		})
	}

	out := make([]ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		resp := ApplicationResponse{
			ID:        a.ID.String(),
			Status:    string(a.Status),
			AppliedAt: a.AppliedAt,
			WorkerID:  a.WorkerID.String(),
			OrderID:   a.OrderID.String(),
		}
		if a.Worker != nil {
			resp.WorkerName = a.Worker.Name
		}
		if a.Order != nil {
			resp.OrderTitle = a.Order.Title
		}
		out = append(out, resp)
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// Reject marks an application rejected. Only the owner of the related
// order may reject it; repeating the call is a no-op.
func (h *ApplicationHandler) Reject(c *fiber.Ctx) error {
	ownerID, err := currentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	appID, err := uuid.Parse(c.Params("appId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid application ID",
		})
	}

	var app models.Application
	if err := h.DB.Preload("Order").First(&app, "id = ?", appID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Application not found",
		})
	}

	if app.Order == nil || app.Order.OwnerID != ownerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Only the order's owner can reject applications",
		})
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Application{}).
			Where("id = ?", appID).
			Update("status", models.ApplicationStatusRejected).Error; err != nil {
			return err
		}
		return h.Notifier.Notify(tx, app.WorkerID, models.NotificationApplicationRejected,
			map[string]interface{}{
				"application_id": appID.String(),
				"order_id":       app.OrderID.String(),
			})
	})
	if err != nil {
		log.Println("reject application:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to reject application",
		})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Application rejected"})
}
