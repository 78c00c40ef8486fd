package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EscrowState string

const (
	EscrowHeld     EscrowState = "held"     // contract exists, not fully signed
	EscrowSecured  EscrowState = "secured"  // both signatures present
	EscrowReleased EscrowState = "released" // order completed
)

// EscrowEntry is a display-only ledger record; no funds ever move.
type EscrowEntry struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	ContractID uuid.UUID `gorm:"type:char(36);not null;index" json:"contract_id"`

	Amount int64       `gorm:"not null" json:"amount"`
	State  EscrowState `gorm:"type:varchar(20);not null" json:"state"`
	Note   string      `gorm:"type:text" json:"note"`

	CreatedAt time.Time `json:"created_at"`

	Contract *Contract `gorm:"foreignKey:ContractID" json:"-"`
}

func (e *EscrowEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
