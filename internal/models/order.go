package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"      // posted, accepting applications
	OrderStatusAssigned  OrderStatus = "assigned"  // contract created
	OrderStatusCutting   OrderStatus = "cutting"   // production stage 1
	OrderStatusSewing    OrderStatus = "sewing"    // production stage 2
	OrderStatusFinishing OrderStatus = "finishing" // production stage 3
	OrderStatusCompleted OrderStatus = "completed" // done, escrow released
)

var ErrInvalidTransition = errors.New("status transition not allowed")
var ErrUnknownStatus = errors.New("unknown status value")

// orderTransitions is the closed set of legal successors per status.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusOpen:      {OrderStatusAssigned},
	OrderStatusAssigned:  {OrderStatusCutting},
	OrderStatusCutting:   {OrderStatusSewing},
	OrderStatusSewing:    {OrderStatusFinishing},
	OrderStatusFinishing: {OrderStatusCompleted},
	OrderStatusCompleted: {},
}

func ValidOrderStatus(s string) bool {
	_, ok := orderTransitions[OrderStatus(s)]
	return ok
}

// CanTransition reports whether next is a legal successor of the
// current status.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID      uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	OwnerID uuid.UUID `gorm:"type:char(36);not null;index" json:"owner_id"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	Quantity  int   `gorm:"not null" json:"quantity"`
	PieceRate int64 `gorm:"not null" json:"piece_rate"`
	// Budget is stored as submitted by the owner, never recomputed
	// from quantity and rate.
	Budget int64 `gorm:"not null" json:"budget"`

	Deadline time.Time   `json:"deadline"`
	Status   OrderStatus `gorm:"type:varchar(20);default:'open';index" json:"status"`
	ImageURL string      `gorm:"type:varchar(255)" json:"image_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return
}
