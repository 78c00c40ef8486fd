package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitchnet/stitchnet-api/internal/models"
)

func TestNotificationsFlow(t *testing.T) {
	app, gdb := setupTest(t)
	owner, ownerToken := seedUser(t, gdb, "Owner", "owner@example.com", models.RoleOwner)
	_, workerToken := seedUser(t, gdb, "Worker", "worker@example.com", models.RoleWorker)

	resp, body := createOrderForm(t, app, ownerToken, defaultOrderFields())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := body["orderId"].(string)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/orders/"+orderID+"/apply", workerToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The owner was notified about the application.
	resp, body = doJSON(t, app, http.MethodGet, "/api/notifications", ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	first := data[0].(map[string]interface{})
	assert.Equal(t, models.NotificationApplicationReceived, first["type"])
	assert.False(t, first["is_read"].(bool))
	notifID := first["id"].(string)

	// The worker sees nothing yet.
	_, body = doJSON(t, app, http.MethodGet, "/api/notifications", workerToken, nil)
	assert.Len(t, body["data"].([]interface{}), 0)

	// A user cannot mark someone else's notification read.
	resp, _ = doJSON(t, app, http.MethodPatch, "/api/notifications/"+notifID+"/read", workerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPatch, "/api/notifications/"+notifID+"/read", ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var notif models.Notification
	require.NoError(t, gdb.First(&notif, "id = ?", notifID).Error)
	assert.True(t, notif.IsRead)
	assert.Equal(t, owner.ID, notif.UserID)
}

func TestContractEventsNotifyBothParties(t *testing.T) {
	app, gdb := setupTest(t)
	owner, ownerToken := seedUser(t, gdb, "Owner", "owner@example.com", models.RoleOwner)
	worker, workerToken := seedUser(t, gdb, "Worker", "worker@example.com", models.RoleWorker)

	_, _ = seedContractedOrder(t, app, gdb, owner.ID, ownerToken, worker.ID, workerToken)

	// Worker: contract created + two signature events.
	var workerCount int64
	gdb.Model(&models.Notification{}).Where("user_id = ?", worker.ID).Count(&workerCount)
	assert.Equal(t, int64(3), workerCount)

	// Owner: application received + two signature events.
	var created int64
	gdb.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", worker.ID, models.NotificationContractCreated).
		Count(&created)
	assert.Equal(t, int64(1), created)

	var signed int64
	gdb.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", owner.ID, models.NotificationContractSigned).
		Count(&signed)
	assert.Equal(t, int64(2), signed)
}
