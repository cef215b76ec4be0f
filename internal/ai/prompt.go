package ai

import (
	"fmt"
	"strings"
)

const rewritePromptTemplate = `You are an experienced news editor writing in %s for a diaspora audience living in %s.
Rewrite the source article below into an original piece. Requirements:

1. title: 55-70 characters, must differ from the source title, no clickbait
2. summary: 130-160 characters
3. content: 300-600 words, structured in paragraphs; markdown "###" subheadings are allowed;
   include at least one paragraph on what this means for the diaspora in %s
4. Do not copy runs of 8 or more consecutive words from the source
5. If a claim in the source is uncertain, say so instead of presenting it as fact

Respond with ONLY a valid JSON object with exactly these string fields:
- title
- summary
- content

Source (%s):
Title: %s

Text: %s`

// BuildRewritePrompt renders the rewrite instruction for one article.
func BuildRewritePrompt(req Request) string {
	return fmt.Sprintf(rewritePromptTemplate,
		req.Language,
		req.Country,
		req.Country,
		escapeForPrompt(req.SourceName),
		escapeForPrompt(req.SourceTitle),
		escapeForPrompt(req.PlainText),
	)
}

// escapeForPrompt escapes characters that would break the prompt layout.
func escapeForPrompt(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}
