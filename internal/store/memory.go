package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zivkovicn/vestnik/internal/models"
)

// MemoryRepository is an in-memory Repository with the same semantics as
// the Postgres implementation. It backs tests and database-less runs.
type MemoryRepository struct {
	mu       sync.RWMutex
	articles []*models.Article
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) FindBySourceURL(ctx context.Context, urls ...string) (*models.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range urls {
		if u == "" {
			continue
		}
		for _, a := range m.articles {
			if a.SourceURL == u {
				return clone(a), nil
			}
		}
	}
	return nil, nil
}

func (m *MemoryRepository) FindRecentByTitle(ctx context.Context, probe string, since time.Time) (*models.Article, error) {
	probe = strings.ToLower(strings.TrimSpace(probe))
	if probe == "" {
		return nil, nil
	}
	slugged := strings.ReplaceAll(probe, " ", "-")

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.articles {
		ts := a.CreatedAt
		if a.PublishedAt != nil {
			ts = *a.PublishedAt
		}
		if ts.Before(since) {
			continue
		}
		title := strings.ToLower(a.Title)
		if strings.Contains(title, probe) || strings.Contains(probe, title) || strings.Contains(a.Slug, slugged) {
			return clone(a), nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) FindUniqueSlug(ctx context.Context, base string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	taken := make(map[string]bool, len(m.articles))
	for _, a := range m.articles {
		taken[a.Slug] = true
	}

	candidate := base
	for i := 2; taken[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return candidate, nil
}

func (m *MemoryRepository) Create(ctx context.Context, a *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.articles {
		if existing.Slug == a.Slug {
			return fmt.Errorf("slug %q already exists", a.Slug)
		}
		if a.SourceURL != "" && existing.SourceURL == a.SourceURL {
			return fmt.Errorf("source URL %q already exists", a.SourceURL)
		}
	}

	m.articles = append(m.articles, clone(a))
	return nil
}

func (m *MemoryRepository) Update(ctx context.Context, id string, patch models.ArticlePatch) error {
	if patch.Empty() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.articles {
		if a.ID != id {
			continue
		}
		applyPatch(a, patch)
		a.UpdatedAt = time.Now().UTC()
		return nil
	}
	return ErrNotFound
}

func (m *MemoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.articles {
		if a.Slug == slug {
			return clone(a), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) List(ctx context.Context, page, pageSize int) ([]*models.Article, error) {
	if page < 1 {
		page = 1
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	published := make([]*models.Article, 0, len(m.articles))
	for _, a := range m.articles {
		if a.Published() {
			published = append(published, a)
		}
	}
	sort.SliceStable(published, func(i, j int) bool {
		return published[i].PublishedAt.After(*published[j].PublishedAt)
	})

	start := (page - 1) * pageSize
	if start >= len(published) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(published) {
		end = len(published)
	}

	out := make([]*models.Article, 0, end-start)
	for _, a := range published[start:end] {
		out = append(out, clone(a))
	}
	return out, nil
}

func (m *MemoryRepository) ListAfter(ctx context.Context, cursor string, limit int) ([]*models.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*models.Article, len(m.articles))
	copy(all, m.articles)
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	out := make([]*models.Article, 0, limit)
	for _, a := range all {
		if cursor != "" && a.ID <= cursor {
			continue
		}
		out = append(out, clone(a))
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, a := range m.articles {
		if a.ID == id {
			m.articles = append(m.articles[:i], m.articles[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryRepository) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.articles), nil
}

func applyPatch(a *models.Article, patch models.ArticlePatch) {
	if patch.Summary != nil {
		a.Summary = *patch.Summary
	}
	if patch.Content != nil {
		a.Content = *patch.Content
	}
	if patch.CoverImage != nil {
		a.CoverImage = *patch.CoverImage
	}
	if patch.ContentSource != nil {
		a.ContentSource = *patch.ContentSource
	}
	if patch.Category != nil {
		a.Category = *patch.Category
	}
	if patch.SeoTitle != nil {
		a.SeoTitle = *patch.SeoTitle
	}
	if patch.SeoDescription != nil {
		a.SeoDescription = *patch.SeoDescription
	}
	if patch.OgImage != nil {
		a.OgImage = *patch.OgImage
	}
	if patch.CanonicalURL != nil {
		a.CanonicalURL = *patch.CanonicalURL
	}
	if patch.Noindex != nil {
		a.Noindex = *patch.Noindex
	}
}

func clone(a *models.Article) *models.Article {
	c := *a
	if a.PublishedAt != nil {
		t := *a.PublishedAt
		c.PublishedAt = &t
	}
	return &c
}
