package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zivkovicn/vestnik/internal/classify"
	"github.com/zivkovicn/vestnik/internal/config"
	"github.com/zivkovicn/vestnik/internal/cover"
	"github.com/zivkovicn/vestnik/internal/ingest"
	"github.com/zivkovicn/vestnik/internal/logger"
	"github.com/zivkovicn/vestnik/internal/middleware"
	"github.com/zivkovicn/vestnik/internal/models"
	"github.com/zivkovicn/vestnik/internal/store"
)

const defaultAdminBatch = 200

type Handlers struct {
	config    *config.Config
	repo      store.Repository
	orch      *ingest.Orchestrator
	covers    *cover.Resolver
	validator *middleware.Validator
	location  *time.Location
	now       func() time.Time
}

func NewHandlers(cfg *config.Config, repo store.Repository, orch *ingest.Orchestrator, covers *cover.Resolver) *Handlers {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Get().Warn().
			Str("timezone", cfg.Timezone).
			Msg("Unknown timezone, quiet hours use UTC")
		loc = time.UTC
	}

	return &Handlers{
		config:    cfg,
		repo:      repo,
		orch:      orch,
		covers:    covers,
		validator: middleware.NewValidator(),
		location:  loc,
		now:       time.Now,
	}
}

// SetClock injects a deterministic clock. Used by tests.
func (h *Handlers) SetClock(now func() time.Time) { h.now = now }

// HealthCheck handles GET /api/v1/health
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Ingest handles GET/POST /api/v1/ingest. The scheduler only sees aggregate
// counts plus the per-group outcome list; quiet hours yield a skipped
// response, never an error.
func (h *Handlers) Ingest(c *fiber.Ctx) error {
	if ingest.InQuietHours(h.now(), h.location, h.config.QuietStartHour, h.config.QuietEndHour) {
		return c.JSON(fiber.Map{
			"ok":      true,
			"skipped": true,
			"reason":  "quiet hours",
		})
	}

	limit := c.QueryInt("limit", 0)
	dryRun := c.QueryBool("dryRun", false)

	report, err := h.orch.Run(c.Context(), limit, dryRun)
	if err != nil {
		logger.Get().Error().Err(err).Msg("Ingest run failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"ok":    false,
			"error": err.Error(),
		})
	}

	if report.DryRun {
		return c.JSON(fiber.Map{
			"ok":     true,
			"dryRun": true,
			"groups": len(report.Sample),
			"sample": report.Sample,
		})
	}

	return c.JSON(fiber.Map{
		"ok":      true,
		"created": report.Created,
		"updated": report.Updated,
		"results": report.Results,
	})
}

// ListNews handles GET /api/v1/news
func (h *Handlers) ListNews(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize := c.QueryInt("page_size", 20)
	switch {
	case pageSize > 100:
		pageSize = 100
	case pageSize <= 0:
		pageSize = 20
	}

	articles, err := h.repo.List(c.Context(), page, pageSize)
	if err != nil {
		logger.Get().Error().Err(err).Msg("Error listing news")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get news",
		})
	}

	return c.JSON(fiber.Map{
		"page":      page,
		"page_size": pageSize,
		"total":     len(articles),
		"items":     articles,
	})
}

// GetNewsBySlug handles GET /api/v1/news/:slug
func (h *Handlers) GetNewsBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "News slug is required",
		})
	}

	article, err := h.repo.GetBySlug(c.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "News not found",
			})
		}
		logger.Get().Error().Err(err).Str("slug", slug).Msg("Error getting news item")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get news item",
		})
	}

	return c.JSON(article)
}

// DeleteNews handles DELETE /api/v1/admin/news/:id
func (h *Handlers) DeleteNews(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "News ID is required",
		})
	}

	if err := h.repo.Delete(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "News not found",
			})
		}
		logger.Get().Error().Err(err).Str("id", id).Msg("Error deleting news item")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete news item",
		})
	}

	return c.JSON(fiber.Map{
		"status":  "deleted",
		"message": "News item deleted successfully",
	})
}

// batchRequest is the shared shape of the admin batch jobs: an opaque id
// cursor plus a batch size, enabling loop-until-done polling.
type batchRequest struct {
	Cursor string `json:"cursor"`
	Batch  int    `json:"batch" validate:"omitempty,min=50,max=1000"`
}

func (h *Handlers) parseBatchRequest(c *fiber.Ctx) (*batchRequest, error) {
	req := &batchRequest{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body: " + err.Error(),
			})
		}
	}
	if fields := h.validator.Validate(req); fields != nil {
		return nil, c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": fields,
		})
	}
	if req.Batch == 0 {
		req.Batch = defaultAdminBatch
	}
	return req, nil
}

// Reclassify handles POST /api/v1/admin/reclassify: one cursor page of
// stored articles is run back through the category classifier.
func (h *Handlers) Reclassify(c *fiber.Ctx) error {
	req, err := h.parseBatchRequest(c)
	if req == nil {
		return err
	}

	articles, err := h.repo.ListAfter(c.Context(), req.Cursor, req.Batch)
	if err != nil {
		logger.Get().Error().Err(err).Msg("Error paging articles for reclassify")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"ok":    false,
			"error": "Failed to page articles",
		})
	}

	updated := 0
	cursor := req.Cursor
	for _, a := range articles {
		cursor = a.ID
		category := classify.Classify(a.Title, a.SourceURL)
		if category == models.CategoryUnknown || category == a.Category {
			continue
		}
		if err := h.repo.Update(c.Context(), a.ID, models.ArticlePatch{Category: &category}); err != nil {
			logger.Get().Error().Err(err).Str("id", a.ID).Msg("Error reclassifying article")
			continue
		}
		updated++
	}

	return c.JSON(fiber.Map{
		"ok":      true,
		"batch":   len(articles),
		"updated": updated,
		"cursor":  cursor,
		"done":    len(articles) < req.Batch,
	})
}

// BackfillCovers handles POST /api/v1/admin/covers/backfill: articles with
// no cover get one more pass through the resolution chain, with the HEAD
// verification on scraped candidates.
func (h *Handlers) BackfillCovers(c *fiber.Ctx) error {
	req, err := h.parseBatchRequest(c)
	if req == nil {
		return err
	}

	articles, err := h.repo.ListAfter(c.Context(), req.Cursor, req.Batch)
	if err != nil {
		logger.Get().Error().Err(err).Msg("Error paging articles for cover backfill")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"ok":    false,
			"error": "Failed to page articles",
		})
	}

	updated := 0
	cursor := req.Cursor
	for _, a := range articles {
		cursor = a.ID
		if a.CoverImage != "" {
			continue
		}
		img := h.resolveCoverFor(c.Context(), a)
		if err := h.repo.Update(c.Context(), a.ID, models.ArticlePatch{CoverImage: &img}); err != nil {
			logger.Get().Error().Err(err).Str("id", a.ID).Msg("Error backfilling cover")
			continue
		}
		updated++
	}

	return c.JSON(fiber.Map{
		"ok":      true,
		"batch":   len(articles),
		"updated": updated,
		"cursor":  cursor,
		"done":    len(articles) < req.Batch,
	})
}

func (h *Handlers) resolveCoverFor(ctx context.Context, a *models.Article) string {
	if img := h.covers.FromPage(ctx, a.SourceURL); img != "" && h.covers.LooksLikeImageURL(ctx, img) {
		return img
	}
	return h.covers.Placeholder(a.Category)
}
