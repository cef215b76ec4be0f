package ai

import (
	"fmt"
	"regexp"
	"strings"
)

var controlCharRegex = regexp.MustCompile(`[\x00-\x1F\x7F]`)

var scriptBlockRegex = regexp.MustCompile(`<script[^>]*>[\s\S]*?<\/script>`)

var dangerousTags = []string{"<script", "<iframe", "<object", "<embed", "<link", "<meta"}

// cleanText removes control characters and normalizes whitespace.
func cleanText(s string) string {
	s = controlCharRegex.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// cleanContent strips dangerous HTML from AI-generated markdown and
// normalizes line endings. The model is asked for markdown only, but its
// output is not trusted.
func cleanContent(content string) string {
	content = scriptBlockRegex.ReplaceAllString(content, "")
	for _, tag := range dangerousTags {
		re := regexp.MustCompile(fmt.Sprintf(`%s[^>]*>`, tag))
		content = re.ReplaceAllString(content, "")
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.TrimSpace(content)
}

// Truncate shortens s to at most max runes, cutting at a word boundary and
// appending an ellipsis when anything was removed.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := string(runes[:max-1])
	if idx := strings.LastIndex(cut, " "); idx > max/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
