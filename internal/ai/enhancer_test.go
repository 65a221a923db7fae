package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"newsflow/internal/logger"
)

func TestNewLLMEnhancer_NoKey(t *testing.T) {
	if e := NewLLMEnhancer("", "", logger.Nop()); e != nil {
		t.Fatal("expected nil enhancer without an API key")
	}
}

func TestParseEnhancement(t *testing.T) {
	tests := []struct {
		name          string
		in            string
		wantErr       bool
		wantSentiment string
		wantPoints    int
	}{
		{
			name:          "valid",
			in:            `{"summary":"S","enhancement":"E","keyPoints":["a","b"],"sentiment":"positive"}`,
			wantSentiment: "positive",
			wantPoints:    2,
		},
		{
			name:          "fenced with odd sentiment",
			in:            "```json\n{\"summary\":\"S\",\"enhancement\":\"E\",\"keyPoints\":[\"a\",\" \"],\"sentiment\":\"Mixed\"}\n```",
			wantSentiment: "neutral",
			wantPoints:    1,
		},
		{
			name:          "uppercase sentiment",
			in:            `{"summary":"S","sentiment":"NEGATIVE"}`,
			wantSentiment: "negative",
		},
		{name: "not json", in: "I cannot help with that", wantErr: true},
		{name: "missing summary", in: `{"summary":"  ","sentiment":"neutral"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEnhancement(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseEnhancement() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Sentiment != tt.wantSentiment {
				t.Errorf("Sentiment = %q, want %q", got.Sentiment, tt.wantSentiment)
			}
			if len(got.KeyPoints) != tt.wantPoints {
				t.Errorf("KeyPoints = %v, want %d entries", got.KeyPoints, tt.wantPoints)
			}
		})
	}
}

func TestEnhance(t *testing.T) {
	var gotUser, gotSchema string
	e := newLLMEnhancer(func(system, user, schema string) (string, error) {
		gotUser, gotSchema = user, schema
		return `{"summary":"Short.","enhancement":"Context.","keyPoints":["one"],"sentiment":"neutral"}`, nil
	}, logger.Nop())

	res, err := e.Enhance(context.Background(), "Big News", "<p>Hello <strong>world</strong></p>")
	if err != nil {
		t.Fatalf("Enhance() error = %v", err)
	}
	if res.Summary != "Short." || res.Enhancement != "Context." {
		t.Errorf("unexpected result: %+v", res)
	}
	if !strings.Contains(gotUser, "Title: Big News") || !strings.Contains(gotUser, "**world**") {
		t.Errorf("prompt did not carry markdown content: %q", gotUser)
	}
	if !strings.Contains(gotSchema, `"keyPoints"`) {
		t.Error("schema was not passed to the model")
	}
}

func TestEnhance_Errors(t *testing.T) {
	failing := newLLMEnhancer(func(string, string, string) (string, error) {
		return "", errors.New("rate limited")
	}, logger.Nop())
	if _, err := failing.Enhance(context.Background(), "t", "c"); err == nil {
		t.Error("expected error from failing model")
	}

	slow := newLLMEnhancer(func(string, string, string) (string, error) {
		time.Sleep(time.Second)
		return "{}", nil
	}, logger.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := slow.Enhance(ctx, "t", "c"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestPrepareContent_Truncates(t *testing.T) {
	e := newLLMEnhancer(nil, logger.Nop())
	long := strings.Repeat("ü", maxContentChars)
	got := e.prepareContent(long)
	if !strings.HasSuffix(got, "...") {
		t.Fatal("expected truncation marker")
	}
	if len(got) > maxContentChars+3 {
		t.Errorf("prepared content too long: %d", len(got))
	}
	if !strings.HasPrefix(got, "üü") || strings.ContainsRune(got, '�') {
		t.Error("truncation split a rune")
	}
}
