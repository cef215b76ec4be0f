package feed

import (
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalLinkStripsQueryAndFragment(t *testing.T) {
	got := CanonicalLink("https://example.rs/vesti/budzet-2026?utm_source=fb#deo")
	assert.Equal(t, "https://example.rs/vesti/budzet-2026", got)
}

func TestCanonicalLinkIdempotent(t *testing.T) {
	urls := []string{
		"https://example.rs/vesti/budzet-2026?utm_source=fb",
		"http://Example.RS/a/b/c?q=1#x",
		"https://cdn.example.com/path",
		"https://example.rs/",
	}
	for _, u := range urls {
		once := CanonicalLink(u)
		require.NotEmpty(t, once, u)
		assert.Equal(t, once, CanonicalLink(once), u)
	}
}

func TestCanonicalLinkRejectsNonHTTP(t *testing.T) {
	assert.Empty(t, CanonicalLink("ftp://example.rs/file"))
	assert.Empty(t, CanonicalLink("not a url at all"))
	assert.Empty(t, CanonicalLink(""))
}

func TestLooksLikeImage(t *testing.T) {
	assert.True(t, LooksLikeImage("https://cdn.example.com/foto/123"))
	assert.True(t, LooksLikeImage("http://example.rs/slika.jpg"))
	assert.False(t, LooksLikeImage("/relativna/slika.jpg"))
	assert.False(t, LooksLikeImage("data:image/png;base64,AAAA"))
}

func TestPlainTextStripsMarkupAndScripts(t *testing.T) {
	n := NewNormalizer()
	html := `<p>Vlada je   usvojila</p> <script>var tracker = 1;</script> <style>p{color:red}</style> <div>novi   budžet</div>`
	got := n.PlainText(html)
	assert.Equal(t, "Vlada je usvojila novi budžet", got)
	assert.NotContains(t, got, "tracker")
}

func TestNormalizePrefersImageEnclosure(t *testing.T) {
	n := NewNormalizer()
	item := n.Normalize("https://feed.example.rs/rss", &gofeed.Item{
		Title:   "Naslov vesti",
		Link:    "https://example.rs/vesti/naslov?utm_source=rss",
		Content: `<p>Tekst</p><img src="/slike/u-tekstu.jpg">`,
		Enclosures: []*gofeed.Enclosure{
			{URL: "https://cdn.example.rs/foto/777", Type: "image/jpeg"},
		},
	})

	assert.Equal(t, "https://cdn.example.rs/foto/777", item.ImageCandidate)
	assert.Equal(t, "https://example.rs/vesti/naslov", item.CanonicalLink)
	assert.Equal(t, "example.rs", item.SourceHost)
}

func TestNormalizeFallsBackToFirstInlineImage(t *testing.T) {
	n := NewNormalizer()
	item := n.Normalize("https://feed.example.rs/rss", &gofeed.Item{
		Title:   "Naslov vesti",
		Link:    "https://example.rs/vesti/naslov",
		Content: `<p>Tekst</p><img src="/slike/u-tekstu.jpg"><img src="https://example.rs/druga.jpg">`,
	})

	assert.Equal(t, "https://example.rs/slike/u-tekstu.jpg", item.ImageCandidate)
}

func TestNormalizeHostFallsBackToFeedHost(t *testing.T) {
	n := NewNormalizer()
	item := n.Normalize("https://feed.example.rs/rss", &gofeed.Item{
		Title: "Naslov",
		Link:  "::::not-a-link",
	})
	assert.Equal(t, "feed.example.rs", item.SourceHost)
}

func TestTopicKey(t *testing.T) {
	key := TopicKey("Vlada usvojila budžet za 2026 godinu uprkos protivljenju opozicije")
	assert.Equal(t, "vlada-usvojila-budzet-za-2026-godinu", key)
}
