package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stitchnet/stitchnet-api/internal/db"
	"github.com/stitchnet/stitchnet-api/internal/middleware"
	"github.com/stitchnet/stitchnet-api/internal/models"
	"github.com/stitchnet/stitchnet-api/internal/realtime"
	"github.com/stitchnet/stitchnet-api/internal/services/escrow"
	"github.com/stitchnet/stitchnet-api/internal/utils"
)

const testJWTSecret = "test-secret"

// setupTest builds the full route surface over an in-memory sqlite
// database, without Redis.
func setupTest(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	return setupTestWithRedis(t, nil)
}

// setupTestWithRedis is setupTest with a caching layer, for tests that
// assert cache behavior.
func setupTestWithRedis(t *testing.T, rdb *redis.Client) (*fiber.App, *gorm.DB) {
	t.Helper()

	gdb, err := db.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.Application{},
		&models.Contract{},
		&models.Notification{},
		&models.EscrowEntry{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	hub := realtime.NewHub()
	esc := escrow.NewService(gdb)
	uploadDir := t.TempDir()

	authH := &AuthHandler{DB: gdb, JWTSecret: testJWTSecret, Expires: 60}
	orderH := NewOrderHandler(gdb, rdb, hub, esc, uploadDir, "")
	appH := NewApplicationHandler(gdb, hub)
	contractH := NewContractHandler(gdb, rdb, hub, esc)
	profileH := NewProfileHandler(gdb, uploadDir, "")
	notifH := NewNotificationHandler(gdb)

	app := fiber.New()
	api := app.Group("/api")

	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Get("/orders", orderH.ListOpen)

	protected := api.Group("/",
		middleware.JWTFromHeader(testJWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Post("/orders", middleware.RequireRoles("owner"), orderH.Create)
	protected.Get("/orders/my", middleware.RequireRoles("owner"), orderH.ListMine)
	protected.Patch("/orders/:orderId/status", orderH.UpdateStatus)

	protected.Post("/orders/:orderId/apply", middleware.RequireRoles("worker"), appH.Apply)
	protected.Get("/orders/applications", middleware.RequireRoles("owner"), appH.ListForOwner)
	protected.Patch("/orders/applications/:appId/reject", middleware.RequireRoles("owner"), appH.Reject)

	protected.Post("/contracts", middleware.RequireRoles("owner"), contractH.Create)
	protected.Get("/contracts", contractH.List)
	protected.Post("/contracts/:contractId/sign", contractH.Sign)

	protected.Get("/profile", profileH.Get)
	protected.Patch("/profile", profileH.Update)
	protected.Post("/profile/photo", profileH.UploadPhoto)

	protected.Get("/notifications", notifH.List)
	protected.Patch("/notifications/:id/read", notifH.MarkRead)

	return app, gdb
}

// seedUser creates a user directly and mints a token for it.
func seedUser(t *testing.T, gdb *gorm.DB, name, email string, role models.Role) (models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)

	u := models.User{Name: name, Email: email, Password: hash, Role: role}
	require.NoError(t, gdb.Create(&u).Error)

	token, err := utils.SignJWT(testJWTSecret, u.ID.String(), string(u.Role), 60)
	require.NoError(t, err)

	return u, token
}

func jsonRequest(t *testing.T, method, path, token string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	resp, err := app.Test(jsonRequest(t, method, path, token, body), -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]interface{}{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

// seedContractedOrder walks the whole happy path through the API:
// owner posts an order, worker applies, owner creates the contract and
// both parties sign. Returns the order and contract ids.
func seedContractedOrder(t *testing.T, app *fiber.App, gdb *gorm.DB, ownerID interface{}, ownerToken string, workerID interface{}, workerToken string) (string, string) {
	t.Helper()

	resp, body := createOrderForm(t, app, ownerToken, map[string]string{
		"title":       "200 denim jackets",
		"description": "with lining",
		"quantity":    "200",
		"piece_rate":  "250",
		"budget":      "50000",
		"deadline":    "2026-11-15",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := body["orderId"].(string)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/orders/"+orderID+"/apply", workerToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var worker models.User
	require.NoError(t, gdb.First(&worker, "id = ?", workerID).Error)

	resp, body = doJSON(t, app, http.MethodPost, "/api/contracts", ownerToken, map[string]interface{}{
		"orderId":  orderID,
		"workerId": worker.ID.String(),
		"terms":    "200 jackets at 250 per piece, due Nov 15",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	contractID := body["contractId"].(string)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/contracts/"+contractID+"/sign", workerToken,
		map[string]interface{}{"signature": "worker-sig"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/contracts/"+contractID+"/sign", ownerToken,
		map[string]interface{}{"signature": "owner-sig"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return orderID, contractID
}

// createOrderForm posts a multipart order-creation form.
func createOrderForm(t *testing.T, app *fiber.App, token string, fields map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]interface{}{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}
