package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nidhogg/vivarium/internal/character"
	"github.com/nidhogg/vivarium/internal/interaction"
	"github.com/nidhogg/vivarium/internal/personality"
	"go.uber.org/zap"
)

func testRequest() *Request {
	return &Request{
		Initiator: character.Snapshot{ID: "a", Name: "Ada", Traits: personality.Neutral()},
		Target:    character.Snapshot{ID: "b", Name: "Brook", Traits: personality.Neutral()},
		Type:      interaction.Chat,
		Content:   "how goes the experiment?",
	}
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth header = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[1].Content != "how goes the experiment?" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[0].Content, "Brook") {
			t.Errorf("system prompt missing target name: %q", req.Messages[0].Content)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "Slow, but promising."}},
			},
		})
	}))
	defer srv.Close()

	g := NewOpenAI(Config{Endpoint: srv.URL, APIKey: "sk-test", Model: "gpt-4"}, zap.NewNop())
	text, err := g.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "Slow, but promising." {
		t.Errorf("text = %q", text)
	}
}

func TestOpenAIGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewOpenAI(Config{Endpoint: srv.URL, APIKey: "sk-test", Model: "gpt-4"}, zap.NewNop())
	if _, err := g.Generate(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestOpenAIGenerateHonorsCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	g := NewOpenAI(Config{Endpoint: srv.URL, APIKey: "sk-test", Model: "gpt-4"}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := g.Generate(ctx, testRequest()); err == nil {
		t.Fatal("expected cancellation error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("generate did not return promptly on cancellation: %v", elapsed)
	}
}

func TestTemplateGenerateIsDeterministic(t *testing.T) {
	g := NewTemplate()
	first, err := g.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(first, "Brook") || !strings.Contains(first, "Ada") {
		t.Errorf("template text missing character names: %q", first)
	}
	second, _ := g.Generate(context.Background(), testRequest())
	if first != second {
		t.Errorf("template output differs: %q vs %q", first, second)
	}
}
