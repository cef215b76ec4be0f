package ai

import (
	"regexp"
	"strings"
)

const (
	// FallbackTitlePrefix marks titles synthesized by the local summarizer.
	FallbackTitlePrefix = "Pregled: "

	fallbackTitleMaxLen   = 68
	fallbackSummaryMaxLen = 155
	fallbackSentenceCount = 6
)

// DiasporaContextParagraph is appended verbatim to every fallback article so
// the required diaspora-relevance section is never missing.
const DiasporaContextParagraph = "Za naše čitaoce u dijaspori ovakve vesti iz regiona ostaju važan način da prate dešavanja kod kuće. Redakcija nastavlja da prati temu i objaviće dopune čim izvori potvrde nove informacije."

var sentenceEndRegex = regexp.MustCompile(`([.!?])\s+`)

// Fallback deterministically summarizes the source text without the AI
// service: first sentences become the body, the title is a fixed template
// over the source title, and the summary is a truncation of the digest.
// The output quality is lower, so Result.Fallback is set.
func Fallback(req Request) Result {
	digest := firstSentences(req.PlainText, fallbackSentenceCount)
	if digest == "" {
		digest = cleanText(req.PlainText)
	}

	title := Truncate(FallbackTitlePrefix+cleanText(req.SourceTitle), fallbackTitleMaxLen)

	var content strings.Builder
	content.WriteString("### Ukratko\n\n")
	content.WriteString(digest)
	content.WriteString("\n\n### Šta ovo znači za dijasporu\n\n")
	content.WriteString(DiasporaContextParagraph)

	return Result{
		Title:    title,
		Summary:  Truncate(digest, fallbackSummaryMaxLen),
		Content:  content.String(),
		Fallback: true,
	}
}

// firstSentences returns up to n leading sentences of text, joined with
// single spaces. Sentence splitting is intentionally naive; the fallback
// only needs a readable digest, not linguistic precision.
func firstSentences(text string, n int) string {
	text = cleanText(text)
	if text == "" || n <= 0 {
		return ""
	}

	marked := sentenceEndRegex.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")

	if len(parts) > n {
		parts = parts[:n]
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, " ")
}
