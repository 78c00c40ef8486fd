package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContractStatus string

// The status names the most recent signer rather than a canonical
// sequence: either party may sign first.
const (
	ContractStatusPending        ContractStatus = "pending"
	ContractStatusSignedByWorker ContractStatus = "signed_by_worker"
	ContractStatusSignedByOwner  ContractStatus = "signed_by_owner"
	ContractStatusCompleted      ContractStatus = "completed"
)

type Contract struct {
	ID uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	// One active contract per order.
	OrderID  uuid.UUID `gorm:"type:char(36);not null;uniqueIndex" json:"order_id"`
	WorkerID uuid.UUID `gorm:"type:char(36);not null;index" json:"worker_id"`
	OwnerID  uuid.UUID `gorm:"type:char(36);not null;index" json:"owner_id"`

	Terms string `gorm:"type:text" json:"terms"`

	// Signatures are opaque payloads (rendered image encoding or styled
	// text); non-empty means signed.
	WorkerSignature string `gorm:"type:text" json:"worker_signature"`
	OwnerSignature  string `gorm:"type:text" json:"owner_signature"`

	Status ContractStatus `gorm:"type:varchar(30);default:'pending';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Order  *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Worker *User  `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
	Owner  *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

func (c *Contract) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// FullySigned reports whether both parties have signed.
func (c *Contract) FullySigned() bool {
	return c.WorkerSignature != "" && c.OwnerSignature != ""
}
