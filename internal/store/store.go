// Package store is the persistence boundary of the ingestion pipeline. The
// Repository interface is everything the pipeline knows about storage; the
// Postgres implementation backs production and the memory implementation
// backs tests and database-less development.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/zivkovicn/vestnik/internal/models"
)

// ErrNotFound is returned by lookups addressed at a specific article.
var ErrNotFound = errors.New("article not found")

// Repository is the storage contract consumed by the ingestion pipeline and
// the admin batch jobs. Probe-style finders (FindBySourceURL,
// FindRecentByTitle) return (nil, nil) when nothing matches; only direct
// lookups return ErrNotFound.
type Repository interface {
	// FindBySourceURL returns the first article whose source URL equals any
	// of the given URLs (raw and canonicalized forms are both passed in).
	FindBySourceURL(ctx context.Context, urls ...string) (*models.Article, error)

	// FindRecentByTitle returns an article published since the given time
	// whose title or slug contains the probe, or whose title is contained
	// by the probe (case-insensitive).
	FindRecentByTitle(ctx context.Context, probe string, since time.Time) (*models.Article, error)

	// FindUniqueSlug resolves slug collisions by numeric suffix increment:
	// base, base-2, base-3, ...
	FindUniqueSlug(ctx context.Context, base string) (string, error)

	Create(ctx context.Context, a *models.Article) error
	Update(ctx context.Context, id string, patch models.ArticlePatch) error

	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	List(ctx context.Context, page, pageSize int) ([]*models.Article, error)

	// ListAfter pages through all articles by opaque id cursor, ascending.
	ListAfter(ctx context.Context, cursor string, limit int) ([]*models.Article, error)

	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
