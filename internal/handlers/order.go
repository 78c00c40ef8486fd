package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/stitchnet/stitchnet-api/internal/cache"
	"github.com/stitchnet/stitchnet-api/internal/models"
	"github.com/stitchnet/stitchnet-api/internal/realtime"
	"github.com/stitchnet/stitchnet-api/internal/services/escrow"
)

type OrderHandler struct {
	DB        *gorm.DB
	RDB       *redis.Client
	Hub       *realtime.Hub
	Escrow    *escrow.Service
	Notifier  *Notifier
	UploadDir string
	BaseURL   string
}

func NewOrderHandler(db *gorm.DB, rdb *redis.Client, hub *realtime.Hub, esc *escrow.Service, uploadDir, baseURL string) *OrderHandler {
	return &OrderHandler{
		DB:        db,
		RDB:       rdb,
		Hub:       hub,
		Escrow:    esc,
		Notifier:  &Notifier{Hub: hub},
		UploadDir: uploadDir,
		BaseURL:   baseURL,
	}
}

// Create posts a new order. Multipart form; the image part is
// optional. Budget is stored exactly as submitted — the owner's number
// is authoritative, quantity × rate is never recomputed here.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	ownerID, err := currentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	title := c.FormValue("title")
	description := c.FormValue("description")
	quantity, _ := strconv.Atoi(c.FormValue("quantity"))
	pieceRate, _ := strconv.ParseInt(c.FormValue("piece_rate"), 10, 64)
	budget, _ := strconv.ParseInt(c.FormValue("budget"), 10, 64)

	errors := FieldErrors{}
	if title == "" {
		errors.Add("title", "Title is required")
	}
	if quantity <= 0 {
		errors.Add("quantity", "Quantity must be positive")
	}
	if pieceRate <= 0 {
		errors.Add("piece_rate", "Piece rate must be positive")
	}
	if len(errors) > 0 {
		return validationFail(c, errors)
	}

	deadline, err := time.Parse("2006-01-02", c.FormValue("deadline"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid deadline, expected YYYY-MM-DD",
		})
	}

	imageURL := ""
	if file, err := c.FormFile("image"); err == nil && file != nil {
		imageURL, err = saveImageUpload(c, file, h.UploadDir, h.BaseURL)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
	}

	order := models.Order{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Quantity:    quantity,
		PieceRate:   pieceRate,
		Budget:      budget,
		Deadline:    deadline,
		Status:      models.OrderStatusOpen,
		ImageURL:    imageURL,
	}

	if err := h.DB.Create(&order).Error; err != nil {
		log.Println("create order:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create order",
		})
	}

	cache.InvalidateOpenOrders(c.Context(), h.RDB)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  "Order created",
		"orderId":  order.ID,
		"imageUrl": order.ImageURL,
	})
}

// ListOpen returns every order still accepting applications. The
// listing is served from Redis when a fresh copy exists.
func (h *OrderHandler) ListOpen(c *fiber.Ctx) error {
	if orders, ok := cache.GetOpenOrders(c.Context(), h.RDB); ok {
		return c.JSON(fiber.Map{"success": true, "data": orders})
	}

	var orders []models.Order
	if err := h.DB.
		Where("status = ?", models.OrderStatusOpen).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		log.Println("list open orders:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch orders",
		})
	}

	cache.SetOpenOrders(c.Context(), h.RDB, orders)

	return c.JSON(fiber.Map{"success": true, "data": orders})
}

// ListMine returns the caller's orders regardless of status.
func (h *OrderHandler) ListMine(c *fiber.Ctx) error {
	ownerID, err := currentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var orders []models.Order
	if err := h.DB.
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		log.Println("list my orders:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch orders",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": orders})
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus advances an order through the production stages. Only
// the order's owner or its contracted worker may request a move, and
// only to a legal successor of the current status. Reaching
// `completed` also completes a fully signed contract and releases the
// escrow display state, in the same transaction.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
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

	var req UpdateStatusReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if !models.ValidOrderStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": models.ErrUnknownStatus.Error(),
		})
	}
	next := models.OrderStatus(req.Status)

	var order models.Order
	if err := h.DB.First(&order, "id = ?", orderID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Order not found",
		})
	}

	// The contract names the only worker allowed to touch this order.
	var contract models.Contract
	hasContract := h.DB.First(&contract, "order_id = ?", orderID).Error == nil

	isOwner := order.OwnerID == userID
	isWorker := hasContract && contract.WorkerID == userID
	if !isOwner && !isWorker {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Only the order's owner or its contracted worker can update status",
		})
	}

	if !order.Status.CanTransition(next) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": models.ErrInvalidTransition.Error() + ": " + string(order.Status) + " -> " + string(next),
		})
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		// Conditional update so a concurrent move loses cleanly.
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "Order status changed concurrently")
		}

		if next == models.OrderStatusCompleted && hasContract && contract.FullySigned() {
			if err := tx.Model(&models.Contract{}).
				Where("id = ?", contract.ID).
				Update("status", models.ContractStatusCompleted).Error; err != nil {
				return err
			}
			if err := h.Escrow.Release(tx, contract.ID, order.Budget); err != nil {
				return err
			}
		}

		payload := map[string]interface{}{
			"order_id": orderID.String(),
			"status":   string(next),
		}
		if hasContract {
			return h.Notifier.NotifyBoth(tx, order.OwnerID, contract.WorkerID,
				models.NotificationOrderStatusChanged, payload)
		}
		return h.Notifier.Notify(tx, order.OwnerID,
			models.NotificationOrderStatusChanged, payload)
	})

	if err != nil {
		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{"success": false, "message": e.Message})
		}
		log.Println("update order status:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update order status",
		})
	}

	cache.InvalidateOpenOrders(c.Context(), h.RDB)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order status updated",
		"data":    fiber.Map{"order_id": orderID, "status": next},
	})
}
