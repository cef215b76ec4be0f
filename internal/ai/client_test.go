package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() Request {
	return Request{
		SourceTitle: "Vlada usvojila budžet za 2026 uprkos protivljenju opozicije",
		PlainText:   "Vlada je danas usvojila budžet. Opozicija je glasala protiv. Budžet predviđa veća izdvajanja za penzije. Ministar finansija je zadovoljan. Rasprava je trajala satima. Sednica je završena uveče. Novinari su postavljali pitanja.",
		Language:    "sr",
		SourceName:  "example.rs",
		Country:     "AT",
	}
}

func TestRewriteParsesFencedJSON(t *testing.T) {
	answer := "```json\n{\"title\":\"Budžet za 2026 usvojen: šta donosi građanima i dijaspori\",\"summary\":\"Skupština je usvojila budžet za 2026. sa većim izdvajanjima za penzije i infrastrukturu.\",\"content\":\"Budžet je usvojen.\\n\\n### Šta to znači\\n\\nViše novca za penzije.\"}\n```"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":` + jsonString(answer) + `}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", "test-model", 2*time.Second)
	c.SetBaseURL(srv.URL)

	result := c.Rewrite(context.Background(), testRequest())

	assert.False(t, result.Fallback)
	assert.Equal(t, "Budžet za 2026 usvojen: šta donosi građanima i dijaspori", result.Title)
	assert.Contains(t, result.Content, "### Šta to znači")
}

func TestRewriteFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("test-key", "test-model", 2*time.Second)
	c.SetBaseURL(srv.URL)

	result := c.Rewrite(context.Background(), testRequest())

	assert.True(t, result.Fallback)
	assert.True(t, strings.HasPrefix(result.Title, FallbackTitlePrefix))
	assert.Contains(t, result.Content, DiasporaContextParagraph)
}

func TestRewriteFallsBackOnMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"this is not json"}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", "test-model", 2*time.Second)
	c.SetBaseURL(srv.URL)

	assert.True(t, c.Rewrite(context.Background(), testRequest()).Fallback)
}

func TestRewriteFallsBackWithoutAPIKey(t *testing.T) {
	c := NewClient("", "test-model", 2*time.Second)
	assert.True(t, c.Rewrite(context.Background(), testRequest()).Fallback)
}

func TestFallbackShape(t *testing.T) {
	result := Fallback(testRequest())

	require.True(t, result.Fallback)
	assert.True(t, strings.HasPrefix(result.Title, FallbackTitlePrefix))
	assert.LessOrEqual(t, utf8.RuneCountInString(result.Title), 68)
	assert.LessOrEqual(t, utf8.RuneCountInString(result.Summary), 155)
	assert.Contains(t, result.Content, "### Ukratko")
	assert.Contains(t, result.Content, DiasporaContextParagraph)

	// The digest only keeps the leading sentences.
	assert.Contains(t, result.Content, "Vlada je danas usvojila budžet.")
	assert.NotContains(t, result.Content, "Novinari su postavljali pitanja.")
}

func TestFallbackDeterministic(t *testing.T) {
	req := testRequest()
	assert.Equal(t, Fallback(req), Fallback(req))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "kratko", Truncate("kratko", 10))

	long := strings.Repeat("reč i još ", 30)
	cut := Truncate(long, 50)
	assert.LessOrEqual(t, utf8.RuneCountInString(cut), 50)
	assert.True(t, strings.HasSuffix(cut, "…"))
}

// jsonString is a minimal JSON string encoder for test fixtures.
func jsonString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}
