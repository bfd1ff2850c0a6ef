package coder

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"occubench/internal/logging"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	DefaultModel = "gpt-4o-mini"

	defaultSystemPrompt = "You are an expert occupational coder. You assign ISCO-08 unit group codes " +
		"(four digits) to job descriptions."
)

var codePattern = regexp.MustCompile(`\b\d{4}\b`)

type OpenAIConfig struct {
	APIKey string

	// BaseURL points at any OpenAI-compatible endpoint (default the OpenAI
	// API).
	BaseURL string

	Model       string
	TopN        int
	Temperature float32

	// SystemPrompt replaces the default instructions.
	SystemPrompt string
}

// OpenAICoder asks a chat-completion model for ranked four-digit codes.
type OpenAICoder struct {
	client *openai.Client
	cfg    OpenAIConfig
	logger *zap.Logger
}

func NewOpenAICoder(cfg OpenAIConfig, logger *zap.Logger) (*OpenAICoder, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY)")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 3
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAICoder{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logging.OrNop(logger),
	}, nil
}

func (o *OpenAICoder) Code(ctx context.Context, job Job) ([]string, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.cfg.Model,
		Temperature: o.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.cfg.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt(job, o.cfg.TopN)},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}
	o.logger.Debug("completion", zap.String("model", resp.Model), zap.String("finish_reason", string(resp.Choices[0].FinishReason)))
	return ParseCodes(resp.Choices[0].Message.Content, o.cfg.TopN), nil
}

func prompt(job Job, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Return the %d most likely ISCO-08 unit group codes for this job, best first, one per line. Reply with codes only.\n\n", n)
	if job.Title != "" {
		fmt.Fprintf(&b, "Job title: %s\n", job.Title)
	}
	if job.Description != "" {
		fmt.Fprintf(&b, "Job description: %s\n", job.Description)
	}
	if job.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", job.Industry)
	}
	return b.String()
}

// ParseCodes extracts up to n distinct four-digit codes from text in order
// of appearance.
func ParseCodes(text string, n int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range codePattern.FindAllString(text, -1) {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
		if len(out) == n {
			break
		}
	}
	return out
}
