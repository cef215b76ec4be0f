package models

import "time"

// Content provenance values. Fallback marks articles whose body was produced
// by the local summarizer instead of the AI service, so downstream consumers
// can treat them as lower confidence.
const (
	ContentSourceAI       = "ai"
	ContentSourceFallback = "fallback"
	ContentSourceManual   = "manual"
)

// Article is the persisted news entity.
type Article struct {
	ID      string `json:"id"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content,omitempty"`
	Lang    string `json:"lang"`

	SourceURL   string `json:"source_url,omitempty"`
	SourcesJSON string `json:"sources_json,omitempty"`
	TopicKey    string `json:"topic_key,omitempty"`

	Category Category `json:"category"`
	Country  string   `json:"country"`

	CoverImage    string `json:"cover_image,omitempty"`
	ContentSource string `json:"content_source,omitempty"`

	SeoTitle       string `json:"seo_title,omitempty"`
	SeoDescription string `json:"seo_description,omitempty"`
	OgImage        string `json:"og_image,omitempty"`
	CanonicalURL   string `json:"canonical_url,omitempty"`
	Noindex        bool   `json:"noindex"`

	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Published reports whether the article is publicly visible.
func (a *Article) Published() bool {
	return a.PublishedAt != nil && !a.PublishedAt.IsZero()
}

// ArticlePatch is a partial update. Nil pointers leave the stored value
// untouched, which is what makes backfill merges idempotent.
type ArticlePatch struct {
	Summary        *string
	Content        *string
	CoverImage     *string
	ContentSource  *string
	Category       *Category
	SeoTitle       *string
	SeoDescription *string
	OgImage        *string
	CanonicalURL   *string
	Noindex        *bool
}

// Empty reports whether the patch carries no changes at all.
func (p ArticlePatch) Empty() bool {
	return p.Summary == nil && p.Content == nil && p.CoverImage == nil &&
		p.ContentSource == nil && p.Category == nil && p.SeoTitle == nil &&
		p.SeoDescription == nil && p.OgImage == nil && p.CanonicalURL == nil &&
		p.Noindex == nil
}

// SourceRef records one feed item that contributed to an article. A list of
// these is serialized into Article.SourcesJSON for diagnostics.
type SourceRef struct {
	FeedURL  string `json:"feed_url"`
	Link     string `json:"link"`
	Title    string `json:"title"`
	TopicKey string `json:"topic_key,omitempty"`
}
