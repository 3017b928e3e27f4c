// Package llm 封装对 Gemini generateContent 接口的单次调用。
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"medimate-go/internal/config"
)

// ErrEmptyResponse 表示响应中缺少 candidates[0].content.parts[0].text。
var ErrEmptyResponse = errors.New("llm: response has no candidate text")

// ErrNotConfigured 表示未配置 API key，调用一律失败。
var ErrNotConfigured = errors.New("llm: api key not configured")

// Client 是生成式文本服务的最小接口。一次调用只发一个请求，不做重试。
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type geminiClient struct {
	models  *genai.Models
	model   string
	timeout time.Duration
	gen     *genai.GenerateContentConfig
}

// NewClient 根据配置创建 Gemini 客户端。
func NewClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: cfg.APIVersion,
		},
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &geminiClient{
		models:  client.Models,
		model:   cfg.Model,
		timeout: timeout,
		gen:     generationConfig(cfg.Generation),
	}, nil
}

// 零值参数不下发，使用服务端默认。
func generationConfig(g config.LLMGenerationConfig) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{}
	set := false
	if g.Temperature > 0 {
		gc.Temperature = genai.Ptr(float32(g.Temperature))
		set = true
	}
	if g.TopP > 0 {
		gc.TopP = genai.Ptr(float32(g.TopP))
		set = true
	}
	if g.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(g.MaxTokens)
		set = true
	}
	if !set {
		return nil
	}
	return gc
}

// Generate 发送单条 user 文本并返回首个候选的首段文本。
func (c *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.models.GenerateContent(ctx, c.model, contents, c.gen)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return firstText(resp)
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 || cand.Content.Parts[0] == nil {
		return "", ErrEmptyResponse
	}
	text := cand.Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Unavailable 是未配置 key 时使用的客户端，每次调用都返回 ErrNotConfigured，
// 由上层走统一的失败兜底。
type Unavailable struct{}

func (Unavailable) Generate(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}
