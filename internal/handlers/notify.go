package handlers

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stitchnet/stitchnet-api/internal/models"
	"github.com/stitchnet/stitchnet-api/internal/realtime"
)

// Notifier persists workflow notifications and mirrors them onto the
// websocket feed.
type Notifier struct {
	Hub *realtime.Hub
}

// Notify writes the notification row on tx (so it commits or rolls
// back with the workflow write) and pushes it to the user if connected.
func (n *Notifier) Notify(tx *gorm.DB, userID uuid.UUID, typ string, payload map[string]interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	notif := models.Notification{
		UserID:  userID,
		Type:    typ,
		Payload: datatypes.JSON(raw),
	}
	if err := tx.Create(&notif).Error; err != nil {
		return err
	}

	if n.Hub != nil {
		n.Hub.SendToUser(userID, map[string]interface{}{
			"type":    typ,
			"payload": payload,
		})
	}
	return nil
}

// NotifyBoth sends the same event to the owner and worker of a
// contract or order.
func (n *Notifier) NotifyBoth(tx *gorm.DB, ownerID, workerID uuid.UUID, typ string, payload map[string]interface{}) error {
	if err := n.Notify(tx, ownerID, typ, payload); err != nil {
		return err
	}
	return n.Notify(tx, workerID, typ, payload)
}
