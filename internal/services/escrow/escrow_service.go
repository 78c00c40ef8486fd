package escrow

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stitchnet/stitchnet-api/internal/models"
)

// Service keeps the display-only escrow ledger. Entries describe how a
// contract's budget is presented (held, secured, released); no funds
// move anywhere.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Hold records the budget as held when a contract is created. Must be
// called inside the contract-creation transaction.
func (s *Service) Hold(tx *gorm.DB, contractID uuid.UUID, amount int64) error {
	if amount < 0 {
		return errors.New("escrow amount must not be negative")
	}
	entry := models.EscrowEntry{
		ContractID: contractID,
		Amount:     amount,
		State:      models.EscrowHeld,
		Note:       "budget held pending signatures",
	}
	return tx.Create(&entry).Error
}

// Secure marks the budget as secured once both parties have signed.
func (s *Service) Secure(tx *gorm.DB, contractID uuid.UUID, amount int64) error {
	entry := models.EscrowEntry{
		ContractID: contractID,
		Amount:     amount,
		State:      models.EscrowSecured,
		Note:       "both signatures present",
	}
	return tx.Create(&entry).Error
}

// Release marks the budget as released when the order completes.
func (s *Service) Release(tx *gorm.DB, contractID uuid.UUID, amount int64) error {
	entry := models.EscrowEntry{
		ContractID: contractID,
		Amount:     amount,
		State:      models.EscrowReleased,
		Note:       "order completed",
	}
	return tx.Create(&entry).Error
}

// States only ever progress held, secured, released; entries created in
// the same timestamp tick make created_at useless as a tiebreaker, so
// the furthest state wins regardless of row order.
var stateRank = map[models.EscrowState]int{
	models.EscrowHeld:     0,
	models.EscrowSecured:  1,
	models.EscrowReleased: 2,
}

// StateFor returns the furthest ledger state recorded for a contract,
// defaulting to held when no entry exists yet.
func (s *Service) StateFor(contractID uuid.UUID) models.EscrowState {
	var entries []models.EscrowEntry
	if err := s.DB.
		Where("contract_id = ?", contractID).
		Find(&entries).Error; err != nil {
		return models.EscrowHeld
	}

	state := models.EscrowHeld
	for _, e := range entries {
		if stateRank[e.State] > stateRank[state] {
			state = e.State
		}
	}
	return state
}
