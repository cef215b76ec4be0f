package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/zivkovicn/vestnik/internal/logger"
)

// Request carries everything the rewrite prompt needs about one article.
type Request struct {
	SourceTitle string
	PlainText   string
	Language    string
	SourceName  string
	Country     string
}

// Result is a rewritten article. Fallback is true when the AI service was
// unavailable or returned garbage and the local summarizer produced the
// content instead; callers must treat such results as lower confidence.
type Result struct {
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Content  string `json:"content"`
	Fallback bool   `json:"-"`
}

// Rewriter produces a rewritten title/summary/content for a source article.
type Rewriter interface {
	Rewrite(ctx context.Context, req Request) Result
}

type Client struct {
	client  *resty.Client
	apiKey  string
	model   string
	baseURL string
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		client:  resty.New().SetTimeout(timeout),
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://generativelanguage.googleapis.com/v1beta/models",
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// Rewrite calls the AI service and parses its JSON answer. Any failure at
// any stage degrades to the deterministic local fallback so the pipeline is
// never blocked on the external service.
func (c *Client) Rewrite(ctx context.Context, req Request) Result {
	log := logger.Get()

	if c.apiKey == "" {
		return Fallback(req)
	}

	raw, err := c.generate(ctx, BuildRewritePrompt(req))
	if err != nil {
		log.Warn().
			Err(err).
			Str("source_title", req.SourceTitle).
			Msg("AI rewrite failed, using local fallback")
		return Fallback(req)
	}

	result, err := parseResult(raw)
	if err != nil {
		log.Warn().
			Err(err).
			Str("source_title", req.SourceTitle).
			Msg("AI response unparseable, using local fallback")
		return Fallback(req)
	}

	return result
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	body := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{
				Text: prompt,
			}},
		}},
	}

	var resp geminiResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&resp).
		Post(url)

	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	if httpResp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d", httpResp.StatusCode())
	}
	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s", resp.Error.Message)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// parseResult decodes the model's JSON answer, tolerating markdown code
// fences around it.
func parseResult(response string) (Result, error) {
	clean := strings.TrimSpace(response)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var result Result
	if err := json.Unmarshal([]byte(clean), &result); err != nil {
		return Result{}, fmt.Errorf("failed to parse response: %w", err)
	}

	result.Title = cleanText(result.Title)
	result.Summary = cleanText(result.Summary)
	result.Content = cleanContent(result.Content)

	if result.Title == "" || result.Summary == "" || result.Content == "" {
		return Result{}, fmt.Errorf("incomplete response: title, summary and content are all required")
	}

	return result, nil
}
