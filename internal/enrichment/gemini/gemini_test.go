package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/orgball2608/hashtag-discovery/internal/enrichment"
	"github.com/orgball2608/hashtag-discovery/pkg/config"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"google.golang.org/genai"
)

func TestNarrate_NoModels(t *testing.T) {
	n := &Narrator{logger: logger.NewNop()}
	if _, err := n.Narrate(context.Background(), enrichment.Prompt{User: "caption"}); !errors.Is(err, ErrNoModels) {
		t.Fatalf("expected ErrNoModels, got %v", err)
	}
}

func TestNew_WithoutKey(t *testing.T) {
	narrator, err := New(Opts{Config: &config.Config{}, Logger: logger.NewNop()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if narrator != nil {
		t.Fatal("expected no narrator without an API key")
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("Error 429, Message: Resource has been exhausted"), true},
		{errors.New("models/gemini-x is not found"), true},
		{errors.New("503 Service Unavailable"), true},
		{errors.New("400 API key not valid"), false},
	}
	for _, tt := range tests {
		if got := retryable(tt.err); got != tt.want {
			t.Errorf("retryable(%q) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestFirstText(t *testing.T) {
	if got := firstText(nil); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
	if got := firstText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}); got != "" {
		t.Errorf("expected empty for a candidate without content, got %q", got)
	}
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: `{"placeName":"Ascension"}`}}}}},
	}
	if got := firstText(resp); got != `{"placeName":"Ascension"}` {
		t.Errorf("unexpected text %q", got)
	}
}
