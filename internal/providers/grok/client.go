package grok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	generationdomain "github.com/depictapp/depict/internal/generation/domain"
)

const chatCompletionsPath = "/v1/chat/completions"

const scoringPrompt = `You are a strict image similarity judge for an articulation training app. Users describe a reference image in words, and an AI generates an image from that description. Score how well the generated image matches the reference.

SCORING RUBRIC (be harsh - most attempts should score 20-55):
- SUBJECT & CONTENT (0-35): same primary subjects, secondary elements, quantity and arrangement. Wrong or missing main subject caps the total at 25.
- COMPOSITION & SPATIAL LAYOUT (0-25): framing, positioning, perspective.
- COLOR & LIGHTING (0-20): palette, lighting direction and mood, notable colors.
- FINE DETAIL (0-20): precise matching details only - patterns, expressions, text, exact colors, unique features.

A total of 70+ is reserved for remarkably similar images. Generic descriptions that could apply to many images should never score above 45.

The user's description was: %q

The first image is the REFERENCE (target). The second is GENERATED from the description. Respond with ONLY a JSON object, no other text:
{"total": <0-100>, "subject": <0-35>, "composition": <0-25>, "color": <0-20>, "detail": <0-20>}`

// Client scores generated images against their reference through the
// Grok vision chat API.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	httpc   *http.Client
}

func NewClient(apiKey, baseURL, model string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpc:   &http.Client{},
	}
}

var _ generationdomain.Scorer = (*Client)(nil)

func (c *Client) Score(ctx context.Context, referenceURL, generatedURL, articulationText string) (generationdomain.ScoreResult, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []message{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: fmt.Sprintf(scoringPrompt, articulationText)},
				{Type: "image_url", ImageURL: &imageURL{URL: referenceURL}},
				{Type: "image_url", ImageURL: &imageURL{URL: generatedURL}},
			},
		}},
		Temperature: 0,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return generationdomain.ScoreResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return generationdomain.ScoreResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return generationdomain.ScoreResult{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return generationdomain.ScoreResult{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return generationdomain.ScoreResult{}, fmt.Errorf("grok scoring failed: status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return generationdomain.ScoreResult{}, fmt.Errorf("grok response decode failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return generationdomain.ScoreResult{}, fmt.Errorf("grok response has no choices")
	}

	return parseVerdict(strings.TrimSpace(parsed.Choices[0].Message.Content))
}

// parseVerdict accepts the requested JSON verdict, tolerating a bare
// integer reply with no breakdown.
func parseVerdict(raw string) (generationdomain.ScoreResult, error) {
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.Trim(raw, "` \n")

	var verdict struct {
		Total       int `json:"total"`
		Subject     int `json:"subject"`
		Composition int `json:"composition"`
		Color       int `json:"color"`
		Detail      int `json:"detail"`
	}
	if err := json.Unmarshal([]byte(raw), &verdict); err == nil {
		if verdict.Total < 0 || verdict.Total > 100 {
			return generationdomain.ScoreResult{}, fmt.Errorf("invalid score from grok: %d", verdict.Total)
		}
		return generationdomain.ScoreResult{
			Total: verdict.Total,
			Breakdown: &generationdomain.ScoreBreakdown{
				Subject:     verdict.Subject,
				Composition: verdict.Composition,
				Color:       verdict.Color,
				Detail:      verdict.Detail,
			},
		}, nil
	}

	total, err := strconv.Atoi(raw)
	if err != nil || total < 0 || total > 100 {
		return generationdomain.ScoreResult{}, fmt.Errorf("invalid score from grok: %q", raw)
	}
	return generationdomain.ScoreResult{Total: total}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
