package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

const (
	maxRetries = 5
	baseDelay  = 500 * time.Millisecond
	maxDelay   = 8 * time.Second
)

// ErrMissingAPIKey is returned when a Gemini agent is requested without a key.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")

// NewGeminiClient opens a client authenticated with apiKey.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return genai.NewClient(ctx, option.WithAPIKey(apiKey))
}

// Gemini answers with a Gemini model. One client can serve many agents.
type Gemini struct {
	client      *genai.Client
	modelName   string
	temperature float32
	retries     int
}

// NewGemini returns an agent backed by modelName.
func NewGemini(client *genai.Client, modelName string) *Gemini {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Gemini{client: client, modelName: modelName, temperature: 0.8, retries: maxRetries}
}

func (g *Gemini) model(system string, temperature float32) *genai.GenerativeModel {
	m := g.client.GenerativeModel(g.modelName)
	m.SetTemperature(temperature)
	if system != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	return m
}

func (g *Gemini) Speak(ctx context.Context, p Prompt) (string, error) {
	return g.generate(ctx, g.model(p.System, g.temperature), p.User)
}

// ExtractName accepts a reply that mentions exactly one valid name and asks
// the model to settle anything else, retrying on invalid answers.
func (g *Gemini) ExtractName(ctx context.Context, text string, valid []string, hint string) (string, error) {
	if len(valid) == 0 {
		return "", ErrNoValidName
	}
	if m := Mentions(text, valid); len(m) == 1 {
		return m[0], nil
	}

	prompt := extractionPrompt(text, valid, hint)
	m := g.model("", 0)
	for attempt := 0; attempt < g.retries; attempt++ {
		answer, err := g.generate(ctx, m, prompt)
		if err != nil {
			return "", err
		}
		answer = strings.Trim(strings.TrimSpace(answer), "\"'`.")
		for _, name := range valid {
			if answer == name {
				return name, nil
			}
		}
		prompt = fmt.Sprintf("%s\n\nYour previous answer %q is not one of %v. Answer with exactly one valid name.", prompt, answer, valid)
	}
	return "", fmt.Errorf("%w after %d attempts", ErrNoValidName, g.retries)
}

func extractionPrompt(text string, valid []string, hint string) string {
	return strings.Join([]string{
		"You are the best at consolidating opinions and drawing conclusions.",
		fmt.Sprintf("Your task is to extract a valid name, where valid names are %v.", valid),
		hint,
		"Extract the valid name from the following message:",
		"```text",
		text,
		"```",
		"Answer with the name only.",
	}, "\n")
}

// generate calls the model with exponential backoff on transport errors.
func (g *Gemini) generate(ctx context.Context, m *genai.GenerativeModel, prompt string) (string, error) {
	var lastErr error
	delay := baseDelay
	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay = min(delay*2, maxDelay)
		}

		resp, err := m.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}
		return responseText(resp)
	}
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned from Gemini")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("unexpected response type from Gemini")
	}
	return strings.TrimSpace(b.String()), nil
}
