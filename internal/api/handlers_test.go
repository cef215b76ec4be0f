package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zivkovicn/vestnik/internal/ai"
	"github.com/zivkovicn/vestnik/internal/cache"
	"github.com/zivkovicn/vestnik/internal/config"
	"github.com/zivkovicn/vestnik/internal/cover"
	"github.com/zivkovicn/vestnik/internal/feed"
	"github.com/zivkovicn/vestnik/internal/ingest"
	"github.com/zivkovicn/vestnik/internal/middleware"
	"github.com/zivkovicn/vestnik/internal/models"
	"github.com/zivkovicn/vestnik/internal/store"
)

type stubSource struct {
	feeds []feed.Feed
}

func (s stubSource) FetchAll(_ context.Context, _ []string) []feed.Feed {
	return s.feeds
}

func testAppConfig() *config.Config {
	return &config.Config{
		SiteBaseURL:      "https://vestnik.example",
		Lang:             "sr",
		Country:          "AT",
		DefaultLimit:     12,
		MaxLimit:         25,
		PerSourceCap:     2,
		ChunkSize:        3,
		MinContentLength: 500,
		RecentWindow:     72 * time.Hour,
		TitleProbeLength: 48,
		QuietStartHour:   1,
		QuietEndHour:     5,
		Timezone:         "UTC",
		SeenTTL:          time.Hour,
		IngestToken:      "tajna",
		AdminAPIKey:      "admin-kljuc",
		PlaceholderDir:   "/images/placeholders",
	}
}

// newTestApp wires a full app over the in-memory store and a canned feed
// source. The AI client has no key, so every rewrite takes the local
// fallback path and no outbound request is made.
func newTestApp(repo store.Repository, feeds []feed.Feed) (*fiber.App, *Handlers) {
	cfg := testAppConfig()
	covers := cover.NewResolver(time.Second, "vestnik-test/1.0", cfg.PlaceholderDir)

	pipeline := ingest.NewPipeline(repo, ai.NewClient("", "test-model", time.Second), covers, ingest.Config{
		MinContentLength: cfg.MinContentLength,
		RecentWindow:     cfg.RecentWindow,
		TitleProbeLength: cfg.TitleProbeLength,
		Lang:             cfg.Lang,
		Country:          cfg.Country,
		SiteBaseURL:      cfg.SiteBaseURL,
	})

	orch := ingest.NewOrchestrator(stubSource{feeds: feeds}, pipeline, cache.NewMockSeenGuard(), ingest.OrchestratorConfig{
		FeedURLs:     []string{"https://example.rs/rss"},
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
		PerSourceCap: cfg.PerSourceCap,
		ChunkSize:    cfg.ChunkSize,
		SeenTTL:      cfg.SeenTTL,
	})

	handlers := NewHandlers(cfg, repo, orch, covers)
	handlers.SetClock(func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	})

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	SetupRoutes(app, handlers)
	return app, handlers
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestIngestRequiresToken(t *testing.T) {
	app, _ := newTestApp(store.NewMemoryRepository(), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ingest", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ingest?token=pogresan", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIngestAcceptsBearerToken(t *testing.T) {
	app, _ := newTestApp(store.NewMemoryRepository(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ingest?dryRun=true", nil)
	req.Header.Set("Authorization", "Bearer tajna")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIngestSkipsDuringQuietHours(t *testing.T) {
	app, handlers := newTestApp(store.NewMemoryRepository(), nil)
	handlers.SetClock(func() time.Time {
		return time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ingest?token=tajna", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["skipped"])
	assert.Equal(t, "quiet hours", body["reason"])
}

func TestIngestDryRunReturnsSample(t *testing.T) {
	feeds := []feed.Feed{{
		URL: "https://example.rs/rss",
		Items: []models.NormalizedItem{{
			Title:         "Vlada usvojila budžet za 2026",
			Link:          "https://example.rs/politika/budzet-2026",
			CanonicalLink: "https://example.rs/politika/budzet-2026",
			SourceHost:    "example.rs",
		}},
	}}

	repo := store.NewMemoryRepository()
	app, _ := newTestApp(repo, feeds)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ingest?token=tajna&dryRun=true", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["dryRun"])
	assert.Equal(t, float64(1), body["groups"])

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestListAndGetNews(t *testing.T) {
	repo := store.NewMemoryRepository()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(context.Background(), &models.Article{
		ID:          "a-1",
		Slug:        "budzet-za-2026-usvojen",
		Title:       "Budžet za 2026 usvojen",
		Summary:     "Sažetak.",
		Category:    models.CategoryPolitika,
		PublishedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))

	app, _ := newTestApp(repo, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/news", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["total"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/news/budzet-za-2026-usvojen", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Budžet za 2026 usvojen", body["title"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/news/ne-postoji", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminEndpointsRequireKey(t *testing.T) {
	app, _ := newTestApp(store.NewMemoryRepository(), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/admin/reclassify", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reclassify", nil)
	req.Header.Set("X-API-Key", "pogresan")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReclassifyUpdatesCategories(t *testing.T) {
	repo := store.NewMemoryRepository()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(context.Background(), &models.Article{
		ID:          "a-1",
		Slug:        "uhapsen-osumnjiceni",
		Title:       "Uhapšen osumnjičeni za ubistvo",
		Category:    models.CategoryUnknown,
		SourceURL:   "https://example.rs/vesti/uhapsen",
		PublishedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))

	app, _ := newTestApp(repo, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reclassify", bytes.NewBufferString(`{"batch":50}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "admin-kljuc")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["updated"])
	assert.Equal(t, true, body["done"])

	got, err := repo.GetBySlug(context.Background(), "uhapsen-osumnjiceni")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryHronika, got.Category)
}

func TestReclassifyRejectsBadBatch(t *testing.T) {
	app, _ := newTestApp(store.NewMemoryRepository(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reclassify", bytes.NewBufferString(`{"batch":7}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "admin-kljuc")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	app, _ := newTestApp(store.NewMemoryRepository(), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/nepoznato", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
