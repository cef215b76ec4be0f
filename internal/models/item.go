package models

import "time"

// NormalizedItem is the cleaned, typed form of a raw feed entry. Downstream
// components only ever see this shape, never the feed library's own types.
type NormalizedItem struct {
	Title          string     `json:"title"`
	Link           string     `json:"link"`
	CanonicalLink  string     `json:"canonical_link"`
	HTMLContent    string     `json:"-"`
	PlainText      string     `json:"-"`
	ImageCandidate string     `json:"image_candidate,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	SourceHost     string     `json:"source_host"`
	FeedURL        string     `json:"feed_url"`
	TopicKey       string     `json:"topic_key,omitempty"`
}

// Group is a non-empty set of normalized items sharing a canonical link,
// i.e. syndicated coverage of one story. The first item is the one the
// selector encountered first and drives title/content extraction.
type Group struct {
	CanonicalLink string           `json:"canonical_link"`
	Items         []NormalizedItem `json:"items"`
}

// First returns the lead item of the group.
func (g Group) First() NormalizedItem { return g.Items[0] }

// Sources builds the provenance list serialized into Article.SourcesJSON.
func (g Group) Sources() []SourceRef {
	refs := make([]SourceRef, 0, len(g.Items))
	for _, it := range g.Items {
		refs = append(refs, SourceRef{
			FeedURL:  it.FeedURL,
			Link:     it.Link,
			Title:    it.Title,
			TopicKey: it.TopicKey,
		})
	}
	return refs
}
