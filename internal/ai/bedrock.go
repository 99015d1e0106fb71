package ai

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/rotisserie/eris"
)

// DefaultBedrockModel 默认 Claude 模型
const DefaultBedrockModel = "anthropic.claude-3-haiku-20240307-v1:0"

// InvokeModelAPI bedrockruntime.Client 的子集
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockProvider 通过 AWS Bedrock 调用 Claude
type BedrockProvider struct {
	client  InvokeModelAPI
	modelID string
	fields  []TargetField
}

type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewBedrockProvider 使用默认凭证链创建 provider
func NewBedrockProvider(ctx context.Context, region, modelID string, fields []TargetField) (*BedrockProvider, error) {
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, eris.Wrap(err, "load AWS config")
	}
	return NewBedrockProviderWithClient(bedrockruntime.NewFromConfig(cfg), modelID, fields), nil
}

// NewBedrockProviderWithClient 使用现有客户端创建 provider
func NewBedrockProviderWithClient(client InvokeModelAPI, modelID string, fields []TargetField) *BedrockProvider {
	if modelID == "" {
		modelID = DefaultBedrockModel
	}
	return &BedrockProvider{client: client, modelID: modelID, fields: fields}
}

func (p *BedrockProvider) Name() string { return "bedrock" }

// SuggestMapping 实现 Provider
func (p *BedrockProvider) SuggestMapping(ctx context.Context, headers []string, sampleRows []map[string]string) (map[string]string, error) {
	request := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        1024,
		System:           systemPrompt,
		Messages: []bedrockMessage{{
			Role:    "user",
			Content: []bedrockContentBlock{{Type: "text", Text: buildPrompt(p.fields, headers, sampleRows)}},
		}},
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	output, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, eris.Wrap(err, "bedrock invoke model")
	}

	var resp bedrockResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, eris.Wrap(err, "decode bedrock response")
	}

	var text string
	for _, c := range resp.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}
	return parseMapping(text, headers, p.fields)
}
