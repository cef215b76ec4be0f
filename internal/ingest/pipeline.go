// Package ingest contains the core pipeline: deduplication of candidate
// groups against stored articles, enrichment of duplicates, and creation of
// new articles, plus the orchestrator that batches groups through it.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/zivkovicn/vestnik/internal/ai"
	"github.com/zivkovicn/vestnik/internal/classify"
	"github.com/zivkovicn/vestnik/internal/logger"
	"github.com/zivkovicn/vestnik/internal/models"
	"github.com/zivkovicn/vestnik/internal/store"
)

// OutcomeKind describes what the pipeline did with one group.
type OutcomeKind string

const (
	OutcomeCreated OutcomeKind = "created"
	OutcomeUpdated OutcomeKind = "updated"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeFailed  OutcomeKind = "failed"
)

// Outcome is the per-group result reported back to the trigger caller.
type Outcome struct {
	CanonicalLink string      `json:"canonical_link"`
	Title         string      `json:"title"`
	Slug          string      `json:"slug,omitempty"`
	Kind          OutcomeKind `json:"outcome"`
	Reason        string      `json:"reason,omitempty"`
}

// CoverResolver is the slice of the cover package the pipeline needs.
type CoverResolver interface {
	Resolve(ctx context.Context, item models.NormalizedItem, category models.Category) string
	Placeholder(category models.Category) string
}

// Config tunes the dedup and creation behavior.
type Config struct {
	MinContentLength int
	RecentWindow     time.Duration
	TitleProbeLength int
	Lang             string
	Country          string
	SiteBaseURL      string
}

// Pipeline processes one group at a time. It is safe for concurrent use.
type Pipeline struct {
	repo     store.Repository
	rewriter ai.Rewriter
	covers   CoverResolver
	cfg      Config
	now      func() time.Time
}

func NewPipeline(repo store.Repository, rewriter ai.Rewriter, covers CoverResolver, cfg Config) *Pipeline {
	return &Pipeline{
		repo:     repo,
		rewriter: rewriter,
		covers:   covers,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetClock injects a deterministic clock. Used by tests.
func (p *Pipeline) SetClock(now func() time.Time) { p.now = now }

// ProcessGroup runs the three-stage dedup and either enriches the matched
// article or creates a new one:
//
//  1. recent-title soft match on the source title (3-day window)
//  2. canonical-link hard match on raw and canonicalized links
//  3. AI rewrite, minimum-length gate, then recent-title soft match on the
//     rewritten title (independent sources covering one event often only
//     converge on phrasing after the rewrite)
func (p *Pipeline) ProcessGroup(ctx context.Context, g models.Group) (Outcome, error) {
	if len(g.Items) == 0 {
		return Outcome{Kind: OutcomeSkipped, Reason: "empty group"}, nil
	}

	first := g.First()
	since := p.now().Add(-p.cfg.RecentWindow)

	existing, err := p.repo.FindRecentByTitle(ctx, titleProbe(first.Title, p.cfg.TitleProbeLength), since)
	if err != nil {
		return Outcome{}, fmt.Errorf("recent title lookup: %w", err)
	}
	if existing != nil {
		return p.merge(ctx, existing, g)
	}

	existing, err = p.repo.FindBySourceURL(ctx, first.Link, g.CanonicalLink)
	if err != nil {
		return Outcome{}, fmt.Errorf("source URL lookup: %w", err)
	}
	if existing != nil {
		return p.merge(ctx, existing, g)
	}

	rewrite := p.rewriter.Rewrite(ctx, p.rewriteRequest(first))

	if utf8.RuneCountInString(rewrite.Content) < p.cfg.MinContentLength {
		return Outcome{
			CanonicalLink: g.CanonicalLink,
			Title:         first.Title,
			Kind:          OutcomeSkipped,
			Reason:        "rewritten content below minimum length",
		}, nil
	}

	existing, err = p.repo.FindRecentByTitle(ctx, titleProbe(rewrite.Title, p.cfg.TitleProbeLength), since)
	if err != nil {
		return Outcome{}, fmt.Errorf("post-rewrite title lookup: %w", err)
	}
	if existing != nil {
		return p.merge(ctx, existing, g)
	}

	return p.create(ctx, g, rewrite)
}

// merge backfills only the empty fields of an existing article, never
// overwriting populated ones. This keeps duplicate handling idempotent and
// safe to re-run.
func (p *Pipeline) merge(ctx context.Context, existing *models.Article, g models.Group) (Outcome, error) {
	first := g.First()
	patch := models.ArticlePatch{}

	coverImage := existing.CoverImage
	if coverImage == "" {
		coverImage = p.covers.Resolve(ctx, first, existing.Category)
		patch.CoverImage = &coverImage
	}

	summary := existing.Summary
	content := existing.Content
	if summary == "" || content == "" {
		rewrite := p.rewriter.Rewrite(ctx, p.rewriteRequest(first))
		if summary == "" && rewrite.Summary != "" {
			summary = rewrite.Summary
			patch.Summary = &summary
		}
		if content == "" && utf8.RuneCountInString(rewrite.Content) >= p.cfg.MinContentLength {
			content = rewrite.Content
			patch.Content = &content
			source := models.ContentSourceAI
			if rewrite.Fallback {
				source = models.ContentSourceFallback
			}
			patch.ContentSource = &source
		}
	}

	if existing.SeoTitle == "" {
		seoTitle := ai.Truncate(existing.Title, 60)
		patch.SeoTitle = &seoTitle
	}
	if existing.SeoDescription == "" && summary != "" {
		seoDesc := ai.Truncate(summary, 160)
		patch.SeoDescription = &seoDesc
	}
	if existing.OgImage == "" && coverImage != "" {
		patch.OgImage = &coverImage
	}
	if existing.CanonicalURL == "" {
		canonical := p.articleURL(existing.Slug)
		patch.CanonicalURL = &canonical
	}

	if patch.Empty() {
		return Outcome{
			CanonicalLink: g.CanonicalLink,
			Title:         existing.Title,
			Slug:          existing.Slug,
			Kind:          OutcomeSkipped,
			Reason:        "duplicate, nothing to backfill",
		}, nil
	}

	if err := p.repo.Update(ctx, existing.ID, patch); err != nil {
		return Outcome{}, fmt.Errorf("backfill article %s: %w", existing.ID, err)
	}

	logger.Get().Info().
		Str("article_id", existing.ID).
		Str("canonical_link", g.CanonicalLink).
		Msg("Backfilled duplicate article")

	return Outcome{
		CanonicalLink: g.CanonicalLink,
		Title:         existing.Title,
		Slug:          existing.Slug,
		Kind:          OutcomeUpdated,
	}, nil
}

func (p *Pipeline) create(ctx context.Context, g models.Group, rewrite ai.Result) (Outcome, error) {
	first := g.First()

	category := classify.Classify(first.Title, first.Link)
	coverImage := p.covers.Resolve(ctx, first, category)

	uniqueSlug, err := p.repo.FindUniqueSlug(ctx, slug.Make(rewrite.Title))
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve slug: %w", err)
	}

	sourcesJSON, err := json.Marshal(g.Sources())
	if err != nil {
		return Outcome{}, fmt.Errorf("marshal sources: %w", err)
	}

	contentSource := models.ContentSourceAI
	if rewrite.Fallback {
		contentSource = models.ContentSourceFallback
	}

	now := p.now().UTC()
	published := now
	if first.PublishedAt != nil && !first.PublishedAt.IsZero() {
		published = first.PublishedAt.UTC()
	}

	article := &models.Article{
		ID:             uuid.NewString(),
		Slug:           uniqueSlug,
		Title:          rewrite.Title,
		Summary:        rewrite.Summary,
		Content:        rewrite.Content,
		Lang:           p.cfg.Lang,
		SourceURL:      g.CanonicalLink,
		SourcesJSON:    string(sourcesJSON),
		TopicKey:       first.TopicKey,
		Category:       category,
		Country:        p.cfg.Country,
		CoverImage:     coverImage,
		ContentSource:  contentSource,
		SeoTitle:       ai.Truncate(rewrite.Title, 60),
		SeoDescription: ai.Truncate(rewrite.Summary, 160),
		OgImage:        coverImage,
		CanonicalURL:   p.articleURL(uniqueSlug),
		PublishedAt:    &published,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := p.repo.Create(ctx, article); err != nil {
		return Outcome{}, fmt.Errorf("create article: %w", err)
	}

	logger.Get().Info().
		Str("article_id", article.ID).
		Str("slug", article.Slug).
		Str("category", category.String()).
		Bool("fallback_content", rewrite.Fallback).
		Msg("Created article")

	return Outcome{
		CanonicalLink: g.CanonicalLink,
		Title:         article.Title,
		Slug:          article.Slug,
		Kind:          OutcomeCreated,
	}, nil
}

func (p *Pipeline) rewriteRequest(item models.NormalizedItem) ai.Request {
	return ai.Request{
		SourceTitle: item.Title,
		PlainText:   item.PlainText,
		Language:    p.cfg.Lang,
		SourceName:  item.SourceHost,
		Country:     p.cfg.Country,
	}
}

func (p *Pipeline) articleURL(articleSlug string) string {
	return strings.TrimRight(p.cfg.SiteBaseURL, "/") + "/vesti/" + articleSlug
}

// titleProbe is the first n runes of a title, lowercased. Long enough to be
// distinctive, short enough to survive outlets appending their own suffixes.
func titleProbe(title string, n int) string {
	probe := strings.ToLower(strings.TrimSpace(title))
	runes := []rune(probe)
	if len(runes) > n {
		probe = string(runes[:n])
	}
	return strings.TrimSpace(probe)
}
