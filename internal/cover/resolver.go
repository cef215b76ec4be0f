// Package cover resolves a representative image URL for an article through
// an ordered fallback chain: feed-provided candidate, scrape of the source
// page, per-category placeholder.
package cover

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/zivkovicn/vestnik/internal/feed"
	"github.com/zivkovicn/vestnik/internal/logger"
	"github.com/zivkovicn/vestnik/internal/models"
)

// deniedHosts are ad/tracking CDNs that feeds occasionally put into
// enclosures. Anything served from them is never a real cover.
var deniedHosts = []string{
	"doubleclick.net",
	"googlesyndication.com",
	"google-analytics.com",
	"googletagmanager.com",
	"facebook.com",
	"feedburner.com",
	"feeds.feedburner.com",
	"pixel.wp.com",
}

var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "fbclid", "gclid", "mc_cid", "mc_eid"}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif"}

type Resolver struct {
	client         *resty.Client
	placeholderDir string
}

func NewResolver(timeout time.Duration, userAgent, placeholderDir string) *Resolver {
	return &Resolver{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent),
		placeholderDir: placeholderDir,
	}
}

// Resolve runs the full chain for a normalized item and never returns an
// empty string: when everything fails it falls back to the category
// placeholder.
func (r *Resolver) Resolve(ctx context.Context, item models.NormalizedItem, category models.Category) string {
	if img := FromCandidate(item.ImageCandidate); img != "" {
		return img
	}
	if img := r.FromPage(ctx, item.Link); img != "" {
		return img
	}
	return r.Placeholder(category)
}

// FromCandidate validates a feed-provided image URL against the safe-host
// check and strips tracking parameters. Empty when unusable.
func FromCandidate(candidate string) string {
	if candidate == "" || !feed.LooksLikeImage(candidate) {
		return ""
	}
	if !safeHost(candidate) {
		return ""
	}
	return StripTrackingParams(candidate)
}

// FromPage fetches the article page and extracts, in order, og:image,
// twitter:image, and the first inline <img src>, each resolved to an
// absolute URL. Empty on any failure; scrape errors are never fatal.
func (r *Resolver) FromPage(ctx context.Context, pageURL string) string {
	if pageURL == "" {
		return ""
	}

	resp, err := r.client.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil || resp.StatusCode() != http.StatusOK {
		logger.Get().Debug().
			Str("page_url", pageURL).
			Msg("Cover page scrape failed")
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body())))
	if err != nil {
		return ""
	}

	metaSelectors := []string{
		`meta[property="og:image"]`,
		`meta[name="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[property="twitter:image"]`,
	}
	for _, sel := range metaSelectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if img := normalizeScraped(pageURL, content); img != "" {
				return img
			}
		}
	}

	var found string
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if img := normalizeScraped(pageURL, src); img != "" {
			found = img
			return false
		}
		return true
	})
	return found
}

// Placeholder returns the static per-category fallback image path.
func (r *Resolver) Placeholder(category models.Category) string {
	if !category.Valid() {
		category = models.CategoryUnknown
	}
	return r.placeholderDir + "/" + category.String() + ".jpg"
}

// LooksLikeImageURL verifies a URL actually serves an image: a HEAD request
// checking the Content-Type header, falling back to extension sniffing when
// the header is missing or the request fails. Some CDNs answer HEAD with a
// generic content type yet serve correct images on GET, hence the fallback.
func (r *Resolver) LooksLikeImageURL(ctx context.Context, rawURL string) bool {
	if !feed.LooksLikeImage(rawURL) {
		return false
	}

	resp, err := r.client.R().
		SetContext(ctx).
		Head(rawURL)
	if err == nil && resp.StatusCode() < 400 {
		ct := resp.Header().Get("Content-Type")
		if ct != "" {
			if strings.HasPrefix(ct, "image/") {
				return true
			}
			if !strings.HasPrefix(ct, "application/octet-stream") && !strings.HasPrefix(ct, "text/") {
				return false
			}
		}
	}

	return hasImageExtension(rawURL)
}

// StripTrackingParams removes marketing query parameters while keeping the
// rest of the URL intact.
func StripTrackingParams(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func normalizeScraped(base, candidate string) string {
	resolved := feed.ResolveURL(base, candidate)
	if resolved == "" || !feed.LooksLikeImage(resolved) || !safeHost(resolved) {
		return ""
	}
	return StripTrackingParams(resolved)
}

func safeHost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, denied := range deniedHosts {
		if host == denied || strings.HasSuffix(host, "."+denied) {
			return false
		}
	}
	return true
}

func hasImageExtension(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
