package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

type Application struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	OrderID  uuid.UUID `gorm:"type:char(36);not null;index:idx_app_order_worker,unique" json:"order_id"`
	WorkerID uuid.UUID `gorm:"type:char(36);not null;index:idx_app_order_worker,unique" json:"worker_id"`

	Status    ApplicationStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	AppliedAt time.Time         `gorm:"autoCreateTime" json:"applied_at"`

	Order  *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Worker *User  `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
