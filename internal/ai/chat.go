package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// ChatFormat 聊天接口的请求/响应格式
type ChatFormat string

const (
	// FormatOpenAI OpenAI chat completions
	FormatOpenAI ChatFormat = "openai"
	// FormatQwen 阿里云通义千问 DashScope
	FormatQwen ChatFormat = "qwen"
)

const (
	openAIEndpoint = "https://api.openai.com/v1/chat/completions"
	qwenEndpoint   = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"
)

// ChatProvider 通过 HTTP 聊天接口获取映射建议
type ChatProvider struct {
	name       string
	format     ChatFormat
	apiKey     string
	endpoint   string
	model      string
	fields     []TargetField
	httpClient *http.Client
}

// ChatOptions ChatProvider 参数
type ChatOptions struct {
	Format   ChatFormat
	APIKey   string
	Endpoint string // 为空时使用格式默认地址
	Model    string
	Timeout  time.Duration
}

// NewChatProvider 创建聊天 provider
func NewChatProvider(opts ChatOptions, fields []TargetField) *ChatProvider {
	p := &ChatProvider{
		name:     string(opts.Format),
		format:   opts.Format,
		apiKey:   opts.APIKey,
		endpoint: opts.Endpoint,
		model:    opts.Model,
		fields:   fields,
	}
	if p.endpoint == "" {
		p.endpoint = openAIEndpoint
		if p.format == FormatQwen {
			p.endpoint = qwenEndpoint
		}
	}
	if p.model == "" {
		p.model = "gpt-4o-mini"
		if p.format == FormatQwen {
			p.model = "qwen-plus"
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	p.httpClient = &http.Client{Timeout: timeout}
	return p
}

func (p *ChatProvider) Name() string { return p.name }

// SuggestMapping 实现 Provider
func (p *ChatProvider) SuggestMapping(ctx context.Context, headers []string, sampleRows []map[string]string) (map[string]string, error) {
	content, err := p.callAPI(ctx, buildPrompt(p.fields, headers, sampleRows))
	if err != nil {
		return nil, err
	}
	return parseMapping(content, headers, p.fields)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (p *ChatProvider) requestBody(prompt string) map[string]interface{} {
	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}
	if p.format == FormatQwen {
		return map[string]interface{}{
			"model": p.model,
			"input": map[string]interface{}{
				"messages": messages,
			},
			"parameters": map[string]interface{}{
				"result_format": "message",
			},
		}
	}
	return map[string]interface{}{
		"model":           p.model,
		"messages":        messages,
		"temperature":     0,
		"response_format": map[string]string{"type": "json_object"},
	}
}

// callAPI 调用聊天接口，返回第一条回复内容
func (p *ChatProvider) callAPI(ctx context.Context, prompt string) (string, error) {
	jsonData, err := json.Marshal(p.requestBody(prompt))
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "%s request", p.name)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("%s API call failed: %s, body: %s", p.name, resp.Status, truncate(string(body), 500))
	}

	var apiResp struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
		Output struct {
			Choices []struct {
				Message chatMessage `json:"message"`
			} `json:"choices"`
		} `json:"output"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", eris.Wrap(err, "decode chat response")
	}

	choices := apiResp.Choices
	if p.format == FormatQwen {
		choices = apiResp.Output.Choices
	}
	if len(choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", p.name)
	}
	return choices[0].Message.Content, nil
}
