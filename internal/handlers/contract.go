package handlers

import (
	"log"
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

type ContractHandler struct {
	DB       *gorm.DB
	RDB      *redis.Client
	Escrow   *escrow.Service
	Notifier *Notifier
}

func NewContractHandler(db *gorm.DB, rdb *redis.Client, hub *realtime.Hub, esc *escrow.Service) *ContractHandler {
	return &ContractHandler{DB: db, RDB: rdb, Escrow: esc, Notifier: &Notifier{Hub: hub}}
}

type CreateContractReq struct {
	OrderID  string `json:"orderId"`
	WorkerID string `json:"workerId"`
	Terms    string `json:"terms"`
}

// Create turns an accepted application into a contract. The contract
// insert, the order's open→assigned move and the application's accept
// are one transaction: either all three commit or none do. The order
// update is conditional on the order still being open, so a concurrent
// accept of another application rolls back with a conflict.
func (h *ContractHandler) Create(c *fiber.Ctx) error {
	ownerID, err := currentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req CreateContractReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid order ID",
		})
	}
	workerID, err := uuid.Parse(req.WorkerID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid worker ID",
		})
	}

	var order models.Order
	if err := h.DB.First(&order, "id = ?", orderID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Order not found",
		})
	}

	if order.OwnerID != ownerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Only the order's owner can create a contract",
		})
	}

	// The worker must have a live application; a rejected one cannot be
	// contracted.
	var app models.Application
	if err := h.DB.Where("order_id = ? AND worker_id = ? AND status <> ?",
		orderID, workerID, models.ApplicationStatusRejected).
		First(&app).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "No application from this worker for this order",
		})
	}

	contract := models.Contract{
		OrderID:  orderID,
		WorkerID: workerID,
		OwnerID:  ownerID,
		Terms:    req.Terms,
		Status:   models.ContractStatusPending,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, models.OrderStatusOpen).
			Update("status", models.OrderStatusAssigned)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "Order is no longer open")
		}

		if err := tx.Create(&contract).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Application{}).
			Where("id = ?", app.ID).
			Update("status", models.ApplicationStatusAccepted).Error; err != nil {
			return err
		}

		if err := h.Escrow.Hold(tx, contract.ID, order.Budget); err != nil {
			return err
		}

		return h.Notifier.Notify(tx, workerID, models.NotificationContractCreated,
			map[string]interface{}{
				"contract_id": contract.ID.String(),
				"order_id":    orderID.String(),
			})
	})

	if err != nil {
		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{"success": false, "message": e.Message})
		}
		log.Println("create contract:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create contract",
		})
	}

	// The order left the open pool, so the cached public listing is stale.
	cache.InvalidateOpenOrders(c.Context(), h.RDB)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"message":    "Contract generated and order assigned",
		"contractId": contract.ID,
	})
}

type SignContractReq struct {
	Signature string `json:"signature"`
}

// Sign records one party's signature. The caller must be the party
// named on the contract for their role; each signature slot can be
// filled once. When both slots are filled the escrow display state
// becomes secured.
func (h *ContractHandler) Sign(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	role, _ := c.Locals("role").(string)

	contractID, err := uuid.Parse(c.Params("contractId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid contract ID",
		})
	}

	var req SignContractReq
	if err := c.BodyParser(&req); err != nil || req.Signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Signature is required",
		})
	}

	var contract models.Contract
	if err := h.DB.First(&contract, "id = ?", contractID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Contract not found",
		})
	}

	if contract.Status == models.ContractStatusCompleted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Contract is already completed",
		})
	}

	var column, takenMsg string
	var nextStatus models.ContractStatus
	switch models.Role(role) {
	case models.RoleWorker:
		if contract.WorkerID != userID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Only the contracted worker can sign this contract",
			})
		}
		column = "worker_signature"
		takenMsg = "Worker has already signed"
		nextStatus = models.ContractStatusSignedByWorker
	case models.RoleOwner:
		if contract.OwnerID != userID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Only the contract's owner can sign this contract",
			})
		}
		column = "owner_signature"
		takenMsg = "Owner has already signed"
		nextStatus = models.ContractStatusSignedByOwner
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized role",
		})
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		// The update only lands if the slot is still empty, so a
		// concurrent sign for the same slot rolls back instead of
		// overwriting.
		res := tx.Model(&models.Contract{}).
			Where("id = ? AND "+column+" = ''", contract.ID).
			Updates(map[string]interface{}{
				column:   req.Signature,
				"status": nextStatus,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusBadRequest, takenMsg)
		}

		var signed models.Contract
		if err := tx.First(&signed, "id = ?", contract.ID).Error; err != nil {
			return err
		}
		if signed.FullySigned() {
			var order models.Order
			if err := tx.First(&order, "id = ?", contract.OrderID).Error; err != nil {
				return err
			}
			if err := h.Escrow.Secure(tx, contract.ID, order.Budget); err != nil {
				return err
			}
		}

		return h.Notifier.NotifyBoth(tx, contract.OwnerID, contract.WorkerID,
			models.NotificationContractSigned,
			map[string]interface{}{
				"contract_id": contract.ID.String(),
				"signed_by":   role,
				"status":      string(nextStatus),
			})
	})
	if err != nil {
		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{"success": false, "message": e.Message})
		}
		log.Println("sign contract:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to sign contract",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Contract signed",
		"data": fiber.Map{
			"contract_id": contract.ID,
			"status":      nextStatus,
		},
	})
}

type ContractResponse struct {
	ID              string    `json:"id"`
	OrderID         string    `json:"order_id"`
	WorkerID        string    `json:"worker_id"`
	OwnerID         string    `json:"owner_id"`
	Terms           string    `json:"terms"`
	WorkerSignature string    `json:"worker_signature"`
	OwnerSignature  string    `json:"owner_signature"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`

	OrderTitle    string    `json:"order_title"`
	OrderQuantity int       `json:"order_quantity"`
	OrderBudget   int64     `json:"order_budget"`
	OrderDeadline time.Time `json:"order_deadline"`
	OrderStatus   string    `json:"order_status"`

	OwnerName    string `json:"owner_name"`
	OwnerCompany string `json:"owner_company"`
	WorkerName   string `json:"worker_name"`
	WorkerSkill  string `json:"worker_skill"`

	EscrowState string `json:"escrow_state"`
}

// List returns every contract the caller is party to, either side.
func (h *ContractHandler) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var contracts []models.Contract
	if err := h.DB.
		Preload("Order").
		Preload("Worker").
		Preload("Owner").
		Where("owner_id = ? OR worker_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&contracts).Error; err != nil {
		log.Println("list contracts:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch contracts",
		})
	}

	out := make([]ContractResponse, 0, len(contracts))
	for _, ct := range contracts {
		resp := ContractResponse{
			ID:              ct.ID.String(),
			OrderID:         ct.OrderID.String(),
			WorkerID:        ct.WorkerID.String(),
			OwnerID:         ct.OwnerID.String(),
			Terms:           ct.Terms,
			WorkerSignature: ct.WorkerSignature,
			OwnerSignature:  ct.OwnerSignature,
			Status:          string(ct.Status),
			CreatedAt:       ct.CreatedAt,
			EscrowState:     string(h.Escrow.StateFor(ct.ID)),
		}
		if ct.Order != nil {
			resp.OrderTitle = ct.Order.Title
			resp.OrderQuantity = ct.Order.Quantity
			resp.OrderBudget = ct.Order.Budget
			resp.OrderDeadline = ct.Order.Deadline
			resp.OrderStatus = string(ct.Order.Status)
		}
		if ct.Owner != nil {
			resp.OwnerName = ct.Owner.Name
			resp.OwnerCompany = ct.Owner.Company
		}
		if ct.Worker != nil {
			resp.WorkerName = ct.Worker.Name
			resp.WorkerSkill = ct.Worker.Skill
		}
		out = append(out, resp)
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}
