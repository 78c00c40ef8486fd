package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	NotificationApplicationReceived = "application_received"
	NotificationApplicationRejected = "application_rejected"
	NotificationContractCreated     = "contract_created"
	NotificationContractSigned      = "contract_signed"
	NotificationOrderStatusChanged  = "order_status_changed"
)

// Notification is a persisted event for one user; the same payload is
// pushed over the websocket feed when the user is connected.
type Notification struct {
	ID     uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:char(36);not null;index" json:"user_id"`

	Type    string         `gorm:"type:varchar(40);not null" json:"type"`
	Payload datatypes.JSON `json:"payload"`
	IsRead  bool           `gorm:"default:false" json:"is_read"`

	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
