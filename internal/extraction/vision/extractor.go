package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"healthrisk/internal/profile/ports"
)

const systemPrompt = `You transcribe photographed health survey forms.
Read every printed or handwritten line of the form in reading order and report it verbatim.

You MUST respond with valid JSON only, no markdown and no explanation outside the JSON:
{"lines":[{"text":"<line exactly as written>","confidence":<float between 0.0 and 1.0>}]}

Keep labels and answers together on one line as they appear (e.g. "Age: 45").
Do not correct spelling, infer missing answers or add lines that are not on the form.
Lower the confidence of lines that are blurred, crossed out or partly illegible.`

const userPrompt = `Transcribe this survey form.`

const defaultMaxTokens = 1024

// AnthropicMessager defines the subset of the Anthropic client we use.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Extractor reads survey lines with an Anthropic vision model.
type Extractor struct {
	messages  AnthropicMessager
	model     anthropic.Model
	maxTokens int64
}

type Option func(*Extractor)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(e *Extractor) {
		if model != "" {
			e.model = anthropic.Model(model)
		}
	}
}

// WithMessager injects the messages client, mainly for tests.
func WithMessager(m AnthropicMessager) Option {
	return func(e *Extractor) {
		e.messages = m
	}
}

// New builds an extractor authenticated with apiKey. The key may be empty when a
// messager is injected.
func New(apiKey string, opts ...Option) (*Extractor, error) {
	e := &Extractor{
		model:     anthropic.ModelClaudeSonnet4_20250514,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.messages == nil {
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic API key is required")
		}
		client := anthropic.NewClient(option.WithAPIKey(apiKey))
		e.messages = &client.Messages
	}
	return e, nil
}

// visionResponse mirrors the JSON structure we ask the model to return.
type visionResponse struct {
	Lines []struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"lines"`
}

func (e *Extractor) Extract(ctx context.Context, image []byte, mediaType string) ([]ports.TextLine, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("image is empty")
	}

	resp, err := e.messages.New(ctx, anthropic.MessageNewParams{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		Temperature: anthropic.Float(0),
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(image)),
				anthropic.NewTextBlock(userPrompt),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vision API call failed: %w", err)
	}

	var textParts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}
	rawText := strings.Join(textParts, "")
	if rawText == "" {
		return nil, fmt.Errorf("empty response from vision API")
	}

	var out visionResponse
	if err := json.Unmarshal([]byte(stripCodeFence(rawText)), &out); err != nil {
		return nil, fmt.Errorf("failed to parse vision response as JSON: %w", err)
	}

	lines := make([]ports.TextLine, 0, len(out.Lines))
	for _, l := range out.Lines {
		lines = append(lines, ports.TextLine{Text: l.Text, Confidence: clamp(l.Confidence)})
	}
	return lines, nil
}

func (e *Extractor) Backend() string { return "anthropic-vision" }

// stripCodeFence removes a markdown fence the model sometimes wraps JSON in.
func stripCodeFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		if idx := strings.Index(cleaned[3:], "\n"); idx >= 0 {
			cleaned = cleaned[3+idx+1:]
		}
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
