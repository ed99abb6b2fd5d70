package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds the settings for an OpenAI-compatible backend.
type Config struct {
	Endpoint string        `json:"endpoint"`
	APIKey   string        `json:"api_key"`
	Model    string        `json:"model"`
	Timeout  time.Duration `json:"timeout,omitempty"`
}

// OpenAI is a Generator backed by any OpenAI-compatible chat completion
// API. Requests are context-aware, so caller cancellation propagates to
// the HTTP call.
type OpenAI struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// NewOpenAI creates an OpenAI-compatible generator.
func NewOpenAI(cfg Config, logger *zap.Logger) *OpenAI {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.openai.com/v1"
	}
	return &OpenAI{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate asks the backend for the target character's in-voice reply.
func (g *OpenAI) Generate(ctx context.Context, req *Request) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(req)},
			{Role: "user", Content: req.Content},
		},
		Temperature: 0.8,
		MaxTokens:   512,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.config.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("empty response from backend")
	}
	return out.Choices[0].Message.Content, nil
}

// systemPrompt frames the target's persona and the resolved dynamics.
func systemPrompt(req *Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a character with these Big Five traits: "+
		"openness %.2f, conscientiousness %.2f, extraversion %.2f, agreeableness %.2f, neuroticism %.2f.\n",
		req.Target.Name,
		req.Target.Traits.Openness, req.Target.Traits.Conscientiousness,
		req.Target.Traits.Extraversion, req.Target.Traits.Agreeableness,
		req.Target.Traits.Neuroticism)
	fmt.Fprintf(&b, "%s just initiated a %s with you.\n", req.Initiator.Name, req.Type)
	fmt.Fprintf(&b, "Your current relationship: affinity %.2f, trust %.2f, rivalry %.2f.\n",
		req.Relationship.Metrics.Affinity, req.Relationship.Metrics.Trust, req.Relationship.Metrics.Rivalry)
	keys := make([]string, 0, len(req.Context))
	for k := range req.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "Context %s: %s\n", k, req.Context[k])
	}
	b.WriteString("Reply in character, in one or two sentences, to the message that follows.")
	return b.String()
}
