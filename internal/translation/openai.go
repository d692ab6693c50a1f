package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eleven-am/relay-backend/internal/analytics"
	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultModel = "gpt-4o-mini"

	generationEvent = "openai_translation"

	additionalInstruction = "Never output any explanation, question, error message or reasoning, only the translation. " +
		"Remove duplicate words, repetitions, and filler phrases like 'um' and similar."
)

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenAIProvider struct {
	client   *openai.Client
	model    string
	recorder analytics.Recorder
	log      *slog.Logger
}

func NewOpenAIProvider(cfg OpenAIConfig, recorder analytics.Recorder, log *slog.Logger) *OpenAIProvider {
	if log == nil {
		log = slog.Default()
	}
	if recorder == nil {
		recorder = analytics.Noop{}
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		recorder: recorder,
		log:      log.With("component", "openai_translation"),
	}
}

func buildPrompt(req Request) string {
	if req.Context != "" {
		return fmt.Sprintf(
			"Translate the following text from %s to %s. You are translating live subtitles that get updated every few seconds. Try not to change previously translated chunks. Previous chunk: %s %s",
			req.SourceLang, req.TargetLang, req.Context, additionalInstruction,
		)
	}
	return fmt.Sprintf("Translate the following text from %s to %s. %s",
		req.SourceLang, req.TargetLang, additionalInstruction)
}

func (p *OpenAIProvider) Translate(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
	})
	if err != nil {
		p.recorder.CaptureError(generationEvent, err, req.Metadata.StreamID, map[string]any{
			"model":          p.model,
			"sourceLanguage": req.SourceLang.String(),
			"targetLanguage": req.TargetLang.String(),
			"latencyMs":      time.Since(start).Milliseconds(),
		})
		return "", fmt.Errorf("translate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("translate: empty completion")
	}

	translated := strings.TrimSpace(resp.Choices[0].Message.Content)

	p.recorder.Capture(generationEvent, req.Metadata.StreamID, map[string]any{
		"model":            p.model,
		"sourceLanguage":   req.SourceLang.String(),
		"targetLanguage":   req.TargetLang.String(),
		"latencyMs":        time.Since(start).Milliseconds(),
		"promptTokens":     resp.Usage.PromptTokens,
		"completionTokens": resp.Usage.CompletionTokens,
		"totalTokens":      resp.Usage.TotalTokens,
	})

	return translated, nil
}
