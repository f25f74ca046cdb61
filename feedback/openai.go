package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/seejho/etude/constants"
	"github.com/seejho/etude/model"
)

const defaultBaseURL = "https://api.openai.com/v1"

const comparisonSystemPrompt = "You are an expert music teacher providing constructive feedback to students. Be specific, encouraging, and helpful."
const analysisSystemPrompt = "You are a music teacher analyzing student recordings."

// OpenAI talks to the chat completions API.
type OpenAI struct {
	apiKey  string
	mdl     string
	baseURL string
	hc      *http.Client
}

var _ Client = (*OpenAI)(nil)

type Option func(*OpenAI)

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(c *OpenAI) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *OpenAI) { c.hc = hc }
}

// NewOpenAI builds a client from the environment. The API key is
// required; the model falls back to the package default.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	key := constants.GetOpenAIKey()
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}
	c := &OpenAI{
		apiKey:  key,
		mdl:     constants.GetOpenAIModel(),
		baseURL: defaultBaseURL,
		hc:      &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *OpenAI) Comparison(ctx context.Context, m model.ComparisonMetrics, referenceName, playerName string) (string, error) {
	return c.call(ctx, comparisonSystemPrompt, comparisonPrompt(m, referenceName, playerName))
}

func (c *OpenAI) Analysis(ctx context.Context, fs model.FeatureStream, notes []model.NoteEvent, name string) (string, error) {
	return c.call(ctx, analysisSystemPrompt, analysisPrompt(fs, notes, name))
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenAI) call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.mdl,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer res.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai: %s", parsed.Error.Message)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai: unexpected status %s", res.Status)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai: response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
