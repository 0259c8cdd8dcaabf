package lists

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zippicks/critic-backend/internal/logging"
	"github.com/zippicks/critic-backend/internal/models"
)

func newTestApp(t *testing.T) (*fiber.App, *fixture) {
	t.Helper()
	f := newFixture(t)
	plugin := New(f.service, NewRenderer(f.service, "https://zippicks.com", logging.Nop(), nil), "https://zippicks.com")

	app := fiber.New()
	plugin.RegisterRoutes(app.Group("/api"))
	plugin.RegisterAdminRoutes(app.Group("/api/admin"))
	return app, f
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func TestHandlerCreateAndFetch(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/admin/lists", pizzaInput(models.StatusPublished))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	set := body["set"].(map[string]any)
	id := strconv.Itoa(int(set["id"].(float64)))
	assert.Equal(t, "best-pizza", set["slug"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/lists/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Best Pizza", body["set"].(map[string]any)["name"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/lists/slug/best-pizza?include_items=1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["set"].(map[string]any)["items"], 3)

	resp, body = doJSON(t, app, http.MethodGet, "/api/lists/"+id+"/items", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	tiers := body["tiers"].([]any)
	require.Len(t, tiers, 2)
	assert.Equal(t, "Essential", tiers[0].(map[string]any)["tier"])
	assert.Equal(t, "Worthy", tiers[1].(map[string]any)["tier"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/lists?city=Austin", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["data"].(map[string]any)["total"])
}

func TestHandlerErrors(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/lists/abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, true, body["error"])
	assert.Equal(t, "id", body["field"])

	resp, _ = doJSON(t, app, http.MethodGet, "/api/lists/77", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, "/api/admin/lists", map[string]any{"name": ""})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "name", body["field"])

	req := httptest.NewRequest(http.MethodPost, "/api/admin/lists", bytes.NewReader([]byte("{")))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	raw, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, raw.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/admin/lists/77/status", map[string]string{"status": "published"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, "/api/admin/cache/flush/everything", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "group", body["field"])
}

func TestHandlerLifecycle(t *testing.T) {
	app, f := newTestApp(t)
	set, err := f.service.CreateSet(context.Background(), pizzaInput(models.StatusDraft))
	require.NoError(t, err)
	id := strconv.FormatUint(uint64(set.ID), 10)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/lists/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPut, "/api/admin/lists/"+id+"/status", map[string]string{"status": "published"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "published", body["set"].(map[string]any)["status"])

	resp, body = doJSON(t, app, http.MethodPut, "/api/admin/lists/"+id+"/meta", map[string]any{
		"metadata": map[string]string{"hero_image": "https://img.example/p.jpg"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://img.example/p.jpg", body["metadata"].(map[string]any)["hero_image"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/admin/cache/flush/"+GroupSets, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, GroupSets, body["flushed"])

	resp, body = doJSON(t, app, http.MethodDelete, "/api/admin/lists/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	deleted := body["deleted"].(map[string]any)
	assert.Equal(t, float64(3), deleted["items"])
	assert.Equal(t, float64(2), deleted["meta"])

	resp, _ = doJSON(t, app, http.MethodGet, "/api/lists/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/admin/lists/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandlerRenderAndSchema(t *testing.T) {
	app, f := newTestApp(t)
	set, err := f.service.CreateSet(context.Background(), pizzaInput(models.StatusPublished))
	require.NoError(t, err)
	id := strconv.FormatUint(uint64(set.ID), 10)

	read := func(path string) (*http.Response, string) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, string(b)
	}

	resp, body := read("/api/lists/" + id + "/render?show_scores=0&include_schema=yes")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")
	assert.Contains(t, body, "zp-tier--essential")
	assert.NotContains(t, body, "zp-item__score")
	assert.Contains(t, body, "application/ld+json")

	resp, body = read("/api/lists/0/render")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, MsgIDRequired, body)

	resp, body = read("/api/lists/999/render")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, MsgNotFound, body)

	resp, body = read("/api/lists/" + id + "/schema")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/ld+json", resp.Header.Get(fiber.HeaderContentType))
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, "ItemList", doc["@type"])
	assert.Equal(t, float64(3), doc["numberOfItems"])
	first := doc["itemListElement"].([]any)[0].(map[string]any)["item"].(map[string]any)
	assert.Equal(t, "Home Slice", first["name"])
}

func TestFlag(t *testing.T) {
	assert.True(t, flag("YES", false))
	assert.True(t, flag("1", false))
	assert.False(t, flag("off", true))
	assert.True(t, flag("", true))
	assert.False(t, flag("maybe", false))
}
