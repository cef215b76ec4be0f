package cover

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zivkovicn/vestnik/internal/models"
)

func newTestResolver() *Resolver {
	return NewResolver(2*time.Second, "vestnik-test/1.0", "/images/placeholders")
}

func TestFromCandidate(t *testing.T) {
	assert.Equal(t,
		"https://cdn.example.rs/foto/123.jpg",
		FromCandidate("https://cdn.example.rs/foto/123.jpg?utm_source=rss&fbclid=abc"))

	assert.Empty(t, FromCandidate(""))
	assert.Empty(t, FromCandidate("/relativna/slika.jpg"))
	assert.Empty(t, FromCandidate("https://ads.doubleclick.net/pixel.jpg"))
	assert.Empty(t, FromCandidate("https://sub.googlesyndication.com/banner.png"))
}

func TestFromPagePrefersOgImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
			<meta property="og:image" content="/slike/naslovna.jpg?utm_campaign=share">
			<meta name="twitter:image" content="https://cdn.example.rs/tw.jpg">
		</head><body><img src="https://cdn.example.rs/telo.jpg"></body></html>`))
	}))
	defer srv.Close()

	got := newTestResolver().FromPage(context.Background(), srv.URL+"/vesti/naslov")
	assert.Equal(t, srv.URL+"/slike/naslovna.jpg", got)
}

func TestFromPageFallsBackToFirstImg(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<img src="https://ads.doubleclick.net/pixel.gif">
			<img src="/slike/prva.jpg">
		</body></html>`))
	}))
	defer srv.Close()

	got := newTestResolver().FromPage(context.Background(), srv.URL+"/vesti/naslov")
	assert.Equal(t, srv.URL+"/slike/prva.jpg", got)
}

func TestFromPageEmptyOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.Empty(t, newTestResolver().FromPage(context.Background(), srv.URL+"/nema"))
}

func TestResolveFallsBackToPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>bez slika</p></body></html>`))
	}))
	defer srv.Close()

	r := newTestResolver()
	got := r.Resolve(context.Background(), models.NormalizedItem{Link: srv.URL + "/vesti/bez-slike"}, models.CategorySport)
	assert.Equal(t, "/images/placeholders/sport.jpg", got)
}

func TestPlaceholderInvalidCategory(t *testing.T) {
	r := newTestResolver()
	assert.Equal(t, "/images/placeholders/unknown.jpg", r.Placeholder(models.Category("bogus")))
}

func TestLooksLikeImageURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slika":
			w.Header().Set("Content-Type", "image/jpeg")
		case "/dokument":
			w.Header().Set("Content-Type", "application/pdf")
		case "/bez-tipa.png":
			// no Content-Type, extension sniff decides
		}
	}))
	defer srv.Close()

	r := newTestResolver()
	ctx := context.Background()

	assert.True(t, r.LooksLikeImageURL(ctx, srv.URL+"/slika"))
	assert.False(t, r.LooksLikeImageURL(ctx, srv.URL+"/dokument"))
	assert.True(t, r.LooksLikeImageURL(ctx, srv.URL+"/bez-tipa.png"))
	assert.False(t, r.LooksLikeImageURL(ctx, "not-a-url"))
}

func TestStripTrackingParams(t *testing.T) {
	got := StripTrackingParams("https://example.rs/a.jpg?utm_source=fb&w=600&gclid=xyz")
	assert.Equal(t, "https://example.rs/a.jpg?w=600", got)

	// URLs without tracking params stay usable.
	assert.Equal(t, "https://example.rs/a.jpg", StripTrackingParams("https://example.rs/a.jpg"))
}
