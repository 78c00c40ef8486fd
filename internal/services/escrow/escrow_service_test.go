package escrow

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stitchnet/stitchnet-api/internal/db"
	"github.com/stitchnet/stitchnet-api/internal/models"
)

func setupEscrowTest(t *testing.T) *Service {
	t.Helper()

	gdb, err := db.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.Contract{},
		&models.EscrowEntry{},
	))
	return NewService(gdb)
}

func TestStateForNoEntries(t *testing.T) {
	svc := setupEscrowTest(t)
	assert.Equal(t, models.EscrowHeld, svc.StateFor(uuid.New()))
}

func TestStateForProgression(t *testing.T) {
	svc := setupEscrowTest(t)
	contractID := uuid.New()

	require.NoError(t, svc.DB.Transaction(func(tx *gorm.DB) error {
		if err := svc.Hold(tx, contractID, 50000); err != nil {
			return err
		}
		return svc.Secure(tx, contractID, 50000)
	}))
	assert.Equal(t, models.EscrowSecured, svc.StateFor(contractID))
}

// Entries written in the same timestamp tick must not make the state
// regress: the furthest state wins, not the newest row.
func TestStateForSameTimestamp(t *testing.T) {
	svc := setupEscrowTest(t)
	contractID := uuid.New()
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// Released first, secured second, identical created_at.
	for _, state := range []models.EscrowState{
		models.EscrowHeld,
		models.EscrowReleased,
		models.EscrowSecured,
	} {
		entry := models.EscrowEntry{
			ContractID: contractID,
			Amount:     50000,
			State:      state,
			CreatedAt:  at,
		}
		require.NoError(t, svc.DB.Create(&entry).Error)
	}

	assert.Equal(t, models.EscrowReleased, svc.StateFor(contractID))
}
