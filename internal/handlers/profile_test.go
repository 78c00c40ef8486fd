package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitchnet/stitchnet-api/internal/models"
)

func TestGetAndUpdateProfile(t *testing.T) {
	app, gdb := setupTest(t)
	user, token := seedUser(t, gdb, "Sari", "sari@example.com", models.RoleWorker)

	resp, body := doJSON(t, app, http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Sari", data["name"])
	assert.Equal(t, "sari@example.com", data["email"])
	// The password hash never leaves the server.
	_, leaked := data["password"]
	assert.False(t, leaked)

	resp, _ = doJSON(t, app, http.MethodPatch, "/api/profile", token, map[string]interface{}{
		"name":     "Sari Dewi",
		"location": "Bandung",
		"phone":    "08123456789",
		"skill":    "sewing",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.User
	require.NoError(t, gdb.First(&updated, "id = ?", user.ID).Error)
	assert.Equal(t, "Sari Dewi", updated.Name)
	assert.Equal(t, "Bandung", updated.Location)
	assert.Equal(t, "sewing", updated.Skill)

	// Blank name is rejected.
	resp, _ = doJSON(t, app, http.MethodPatch, "/api/profile", token, map[string]interface{}{
		"name": "  ",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadProfilePhoto(t *testing.T) {
	app, gdb := setupTest(t)
	user, token := seedUser(t, gdb, "Sari", "sari@example.com", models.RoleWorker)

	upload := func(t *testing.T, field, filename string, content []byte) (*http.Response, map[string]interface{}) {
		t.Helper()
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		fw, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/profile/photo", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		out := map[string]interface{}{}
		_ = json.Unmarshal(raw, &out)
		return resp, out
	}

	resp, body := upload(t, "photo", "me.png", []byte("png-bytes"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["profile_photo"])

	var updated models.User
	require.NoError(t, gdb.First(&updated, "id = ?", user.ID).Error)
	assert.Equal(t, body["profile_photo"], updated.ProfilePhoto)

	// Non-image extensions are refused.
	resp, _ = upload(t, "photo", "malware.exe", []byte("nope"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Missing file part is refused.
	resp, _ = upload(t, "not-photo", "me.png", []byte("png-bytes"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
