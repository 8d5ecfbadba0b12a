// Package importance asks an external judge how significant a memory is.
package importance

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/rcliao/memory-stream/internal/model"
)

// Rater rates a memory description from 1 (mundane) to 10 (poignant).
type Rater interface {
	Rate(ctx context.Context, description string) (int, error)
}

// StaticRater gives every memory the same rating.
type StaticRater int

func (r StaticRater) Rate(ctx context.Context, description string) (int, error) {
	return int(r), nil
}

// --- OpenAI ---

const (
	// RatingFunctionName is the tool the model is forced to call.
	RatingFunctionName = "get_importance_rating_for_memory"

	systemPrompt = "I am MemoryImportanceJudgeGPT. I have the responsibility of rating memories from 1 to 10 according to their importance."
	userPrompt   = "On the scale of 1 to 10, where 1 is purely mundane (e.g., brushing teeth, making bed) " +
		"and 10 is extremely poignant (e.g., a break up, college acceptance), rate the likely importance " +
		"of the following piece of memory. Memory: %s"
)

// OpenAIRater asks a chat model for the rating through a forced tool call.
type OpenAIRater struct {
	client *openai.Client
	model  string
}

// NewOpenAIRater creates a rater for any OpenAI-compatible chat API.
func NewOpenAIRater(baseURL, apiKey, model string) *OpenAIRater {
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIRater{client: openai.NewClientWithConfig(cfg), model: model}
}

func ratingTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        RatingFunctionName,
			Description: "Gets the importance rating for a memory, from 1 to 10.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"rating": {
						Type:        jsonschema.Integer,
						Description: "A rating from 1 to 10 of the importance of the memory.",
					},
				},
				Required: []string{"rating"},
			},
		},
	}
}

func (r *OpenAIRater) Rate(ctx context.Context, description string) (int, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(userPrompt, description)},
		},
		Tools: []openai.Tool{ratingTool()},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: RatingFunctionName},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("rating request: %v: %w", err, model.ErrExternalRating)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("rating response has no choices: %w", model.ErrExternalRating)
	}

	msg := resp.Choices[0].Message
	var args string
	for _, call := range msg.ToolCalls {
		if call.Function.Name == RatingFunctionName {
			args = call.Function.Arguments
			break
		}
	}
	if args == "" && msg.FunctionCall != nil && msg.FunctionCall.Name == RatingFunctionName {
		args = msg.FunctionCall.Arguments
	}
	if args == "" {
		return 0, fmt.Errorf("model did not call %s (content %q): %w", RatingFunctionName, msg.Content, model.ErrExternalRating)
	}

	var parsed struct {
		Rating *int `json:"rating"`
	}
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return 0, fmt.Errorf("parse rating arguments %q: %v: %w", args, err, model.ErrExternalRating)
	}
	if parsed.Rating == nil {
		return 0, fmt.Errorf("rating missing from arguments %q: %w", args, model.ErrExternalRating)
	}
	return *parsed.Rating, nil
}

// --- Factory ---

// Settings selects and configures a rater.
type Settings struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // "static" | "openai"
	Model    string `mapstructure:"model" yaml:"model"`
	URL      string `mapstructure:"url" yaml:"url"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	Static   int    `mapstructure:"static" yaml:"static"`
}

// New creates the rater described by s.
func New(s Settings) (Rater, error) {
	switch s.Provider {
	case "", "static":
		if s.Static == 0 {
			return StaticRater(5), nil
		}
		return StaticRater(s.Static), nil
	case "openai":
		key := s.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		return NewOpenAIRater(s.URL, key, s.Model), nil
	default:
		return nil, fmt.Errorf("unknown rating provider %q (valid: static, openai)", s.Provider)
	}
}
