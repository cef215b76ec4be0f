package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"

	"github.com/zivkovicn/vestnik/internal/logger"
	"github.com/zivkovicn/vestnik/internal/models"
)

// Feed is one fetched source with its already-normalized items.
type Feed struct {
	URL   string
	Items []models.NormalizedItem
}

// Source yields feeds for an ingest run. Satisfied by Fetcher and by test
// stubs that skip the network entirely.
type Source interface {
	FetchAll(ctx context.Context, urls []string) []Feed
}

type Fetcher struct {
	client *resty.Client
	parser *gofeed.Parser
	norm   *Normalizer
}

func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml"),
		parser: gofeed.NewParser(),
		norm:   NewNormalizer(),
	}
}

// FetchAll retrieves every feed in order, feed by feed. A parse or network
// failure on one feed is logged and skipped; it never aborts the run. There
// are no retries here: a source that fails this cycle is simply absent until
// the next scheduled invocation.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Feed {
	log := logger.Get()
	feeds := make([]Feed, 0, len(urls))

	for _, u := range urls {
		fd, err := f.fetchOne(ctx, u)
		if err != nil {
			log.Warn().
				Err(err).
				Str("feed_url", u).
				Msg("Skipping unreachable feed")
			continue
		}
		feeds = append(feeds, fd)
	}

	return feeds
}

func (f *Fetcher) fetchOne(ctx context.Context, feedURL string) (Feed, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(feedURL)
	if err != nil {
		return Feed{}, fmt.Errorf("failed to fetch feed from %s: %w", feedURL, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Feed{}, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode(), feedURL)
	}

	parsed, err := f.parser.ParseString(string(resp.Body()))
	if err != nil {
		return Feed{}, fmt.Errorf("failed to parse feed from %s: %w", feedURL, err)
	}

	items := make([]models.NormalizedItem, 0, len(parsed.Items))
	for _, raw := range parsed.Items {
		if raw == nil {
			continue
		}
		item := f.norm.Normalize(feedURL, raw)
		if item.Title == "" || item.Link == "" {
			continue
		}
		items = append(items, item)
	}

	return Feed{URL: feedURL, Items: items}, nil
}
