package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- bindPatch ---

type patchTarget struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func patchApp() *fiber.App {
	app := fiber.New()
	app.Patch("/items", func(c *fiber.Ctx) error {
		var in patchTarget
		if err := bindPatch(c, []string{"title", "content"}, &in); err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"title_set": in.Title != nil, "content_set": in.Content != nil})
	})
	return app
}

func patch(t *testing.T, app *fiber.App, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	return resp.StatusCode, raw
}

func TestBindPatch_Partial(t *testing.T) {
	status, body := patch(t, patchApp(), `{"title":"New"}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"title_set":true,"content_set":false}`, string(body))
}

func TestBindPatch_RejectsUnknownKeys(t *testing.T) {
	status, body := patch(t, patchApp(), `{"title":"New","author":3,"date_posted":"2020-01-01"}`)
	require.Equal(t, http.StatusBadRequest, status)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, models.CodeValidation, resp.Code)
	assert.Len(t, resp.Fields, 2)
	assert.Equal(t, []string{"This field cannot be updated."}, resp.Fields["author"])
	assert.Equal(t, []string{"This field cannot be updated."}, resp.Fields["date_posted"])
}

func TestBindPatch_MalformedBody(t *testing.T) {
	for _, body := range []string{`{`, `[1,2]`, `{"title":5}`} {
		t.Run(body, func(t *testing.T) {
			status, _ := patch(t, patchApp(), body)
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

// --- parseID ---

func TestParseID(t *testing.T) {
	s := &Server{}
	app := fiber.New()
	app.Get("/things/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c)
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	tests := []struct {
		path   string
		status int
	}{
		{"/things/7", http.StatusOK},
		{"/things/0", http.StatusBadRequest},
		{"/things/-3", http.StatusBadRequest},
		{"/things/seven", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
