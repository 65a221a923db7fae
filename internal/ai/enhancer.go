// Package ai produces summaries and context for articles with an LLM.
package ai

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"newsflow/internal/database"
	"newsflow/internal/logger"
)

const (
	maxContentChars  = 12000
	defaultMaxTokens = 1500
	defaultModel     = "claude-sonnet-4-20250514"
)

//go:embed enhance-schema.json
var enhanceSchema string

const systemPrompt = `You are a news analyst. Given an article, write a neutral summary, ` +
	`add the background a general reader needs, list the key points and classify ` +
	`the overall sentiment as positive, neutral or negative. Respond only with JSON ` +
	`matching the provided schema.`

var ErrEmptyResponse = errors.New("empty response from model")

// Enhancer generates AI metadata for an article.
type Enhancer interface {
	Enhance(ctx context.Context, title, content string) (database.Enhancement, error)
}

// PromptFunc sends one structured prompt and returns the model's text.
type PromptFunc func(system, user, schema string) (string, error)

type LLMEnhancer struct {
	prompt    PromptFunc
	converter *md.Converter
	log       *logger.Logger
}

// NewLLMEnhancer returns nil when apiKey is empty.
func NewLLMEnhancer(apiKey, model string, log *logger.Logger) *LLMEnhancer {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = defaultModel
	}
	settings := types.RequestSettings{
		Model:       model,
		MaxTokens:   defaultMaxTokens,
		Temperature: 0.2,
	}
	prompt := func(system, user, schema string) (string, error) {
		response, err := anthropic.PromptWithSettings(system, user, schema, apiKey, settings)
		if err != nil {
			return "", err
		}
		if len(response.Content) == 0 {
			return "", ErrEmptyResponse
		}
		return response.Content[0].Text, nil
	}
	return newLLMEnhancer(prompt, log)
}

func newLLMEnhancer(prompt PromptFunc, log *logger.Logger) *LLMEnhancer {
	return &LLMEnhancer{
		prompt:    prompt,
		converter: md.NewConverter("", true, nil),
		log:       log.With("component", "ai"),
	}
}

func (e *LLMEnhancer) Enhance(ctx context.Context, title, content string) (database.Enhancement, error) {
	if err := ctx.Err(); err != nil {
		return database.Enhancement{}, err
	}
	user := fmt.Sprintf("Title: %s\n\nArticle:\n%s", strings.TrimSpace(title), e.prepareContent(content))

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := e.prompt(systemPrompt, user, enhanceSchema)
		done <- result{text, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return database.Enhancement{}, ctx.Err()
	case r = <-done:
	}
	if r.err != nil {
		e.log.Warn("enhancement request failed", "error", r.err)
		return database.Enhancement{}, fmt.Errorf("enhancement request failed: %w", r.err)
	}
	return parseEnhancement(r.text)
}

// prepareContent converts HTML to Markdown and caps its length.
func (e *LLMEnhancer) prepareContent(content string) string {
	text := content
	if strings.Contains(content, "<") {
		if converted, err := e.converter.ConvertString(content); err == nil {
			text = converted
		}
	}
	text = strings.TrimSpace(text)
	if len(text) > maxContentChars {
		cut := maxContentChars
		for cut > 0 && !isRuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return text
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

type enhancementPayload struct {
	Summary     string   `json:"summary"`
	Enhancement string   `json:"enhancement"`
	KeyPoints   []string `json:"keyPoints"`
	Sentiment   string   `json:"sentiment"`
}

func parseEnhancement(text string) (database.Enhancement, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var p enhancementPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &p); err != nil {
		return database.Enhancement{}, fmt.Errorf("failed to parse enhancement response: %w", err)
	}
	if strings.TrimSpace(p.Summary) == "" {
		return database.Enhancement{}, ErrEmptyResponse
	}

	sentiment := strings.ToLower(strings.TrimSpace(p.Sentiment))
	switch sentiment {
	case "positive", "neutral", "negative":
	default:
		sentiment = "neutral"
	}

	points := make([]string, 0, len(p.KeyPoints))
	for _, kp := range p.KeyPoints {
		if kp = strings.TrimSpace(kp); kp != "" {
			points = append(points, kp)
		}
	}

	return database.Enhancement{
		Summary:     strings.TrimSpace(p.Summary),
		Enhancement: strings.TrimSpace(p.Enhancement),
		KeyPoints:   points,
		Sentiment:   sentiment,
	}, nil
}
