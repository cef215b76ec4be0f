package feed

import (
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/zivkovicn/vestnik/internal/models"
)

// Normalizer turns raw feed entries into models.NormalizedItem so that no
// downstream component ever touches the feed library's own types.
type Normalizer struct {
	strip *bluemonday.Policy
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		strip: bluemonday.StrictPolicy(),
	}
}

// Normalize cleans a single raw item. feedURL is the feed the item came
// from, used for provenance and as the hostname fallback.
func (n *Normalizer) Normalize(feedURL string, raw *gofeed.Item) models.NormalizedItem {
	content := raw.Content
	if content == "" {
		content = raw.Description
	}

	link := strings.TrimSpace(raw.Link)
	item := models.NormalizedItem{
		Title:         flattenWhitespace(raw.Title),
		Link:          link,
		CanonicalLink: CanonicalLink(link),
		HTMLContent:   content,
		PlainText:     n.PlainText(content),
		PublishedAt:   raw.PublishedParsed,
		SourceHost:    hostOf(link, feedURL),
		FeedURL:       feedURL,
		TopicKey:      TopicKey(raw.Title),
	}
	item.ImageCandidate = imageCandidate(raw, link)
	return item
}

// PlainText strips all markup (script and style contents included) and
// joins the remaining text with single spaces.
func (n *Normalizer) PlainText(htmlContent string) string {
	if htmlContent == "" {
		return ""
	}
	stripped := n.strip.Sanitize(htmlContent)
	return flattenWhitespace(html.UnescapeString(stripped))
}

// CanonicalLink reduces a URL to scheme+host+path, dropping query and
// fragment. This is the dedup key: syndicated re-publication usually only
// differs in tracking query strings. Returns "" for non-http(s) input.
func CanonicalLink(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	canonical := url.URL{
		Scheme: u.Scheme,
		Host:   strings.ToLower(u.Host),
		Path:   u.Path,
	}
	return canonical.String()
}

// LooksLikeImage reports whether raw parses as a valid http(s) URL with a
// non-empty host. No extension requirement: many CDNs serve images from
// extensionless paths.
func LooksLikeImage(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// TopicKey derives a short diagnostic grouping hint from a title. It is not
// a dedup key, only a human-readable marker stored alongside sources.
func TopicKey(title string) string {
	words := strings.Fields(title)
	if len(words) > 6 {
		words = words[:6]
	}
	return slug.Make(strings.Join(words, " "))
}

// imageCandidate picks the best-effort cover image for an item: enclosure
// with an image mimetype first, the feed-level image second, then the first
// <img src> in the HTML content resolved against the article link.
func imageCandidate(raw *gofeed.Item, articleLink string) string {
	for _, enc := range raw.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(enc.Type, "image/") || LooksLikeImage(enc.URL) {
			return ResolveURL(articleLink, enc.URL)
		}
	}

	if raw.Image != nil && LooksLikeImage(raw.Image.URL) {
		return raw.Image.URL
	}

	content := raw.Content
	if content == "" {
		content = raw.Description
	}
	if src := FirstImageSrc(content, articleLink); src != "" {
		return src
	}

	return ""
}

// FirstImageSrc returns the first <img src> found in htmlContent, resolved
// to an absolute URL against base. Empty when nothing usable is present.
func FirstImageSrc(htmlContent, base string) string {
	if htmlContent == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if resolved := ResolveURL(base, src); LooksLikeImage(resolved) {
			found = resolved
			return false
		}
		return true
	})
	return found
}

// ResolveURL resolves ref against base, tolerating a missing or broken base.
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if refURL.IsAbs() {
		return refURL.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return ""
	}
	return baseURL.ResolveReference(refURL).String()
}

func hostOf(link, feedURL string) string {
	if u, err := url.Parse(link); err == nil && u.Host != "" {
		return strings.ToLower(u.Host)
	}
	if u, err := url.Parse(feedURL); err == nil && u.Host != "" {
		return strings.ToLower(u.Host)
	}
	return "unknown"
}

func flattenWhitespace(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
