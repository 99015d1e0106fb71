package ai

import (
	"context"
	"strings"
	"time"

	"ratecard-converter/internal/pkg/logger"
)

// ProviderConfig provider 选择配置
type ProviderConfig struct {
	Provider string // openai / qwen / bedrock / keyword
	Model    string
	APIKey   string
	Endpoint string
	Region   string
	Timeout  time.Duration
}

// BuildProvider 按配置创建 provider，缺少凭证时退回关键字 provider
func BuildProvider(ctx context.Context, cfg ProviderConfig, fields []TargetField) Provider {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch name {
	case "openai", "qwen", "dashscope":
		if cfg.APIKey == "" {
			logger.Warn("provider api key missing, using keyword fallback", "provider", name)
			break
		}
		format := FormatOpenAI
		if name != "openai" {
			format = FormatQwen
		}
		return NewChatProvider(ChatOptions{
			Format:   format,
			APIKey:   cfg.APIKey,
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			Timeout:  cfg.Timeout,
		}, fields)
	case "bedrock", "claude":
		p, err := NewBedrockProvider(ctx, cfg.Region, cfg.Model, fields)
		if err != nil {
			logger.Warn("bedrock unavailable, using keyword fallback", "error", err)
			break
		}
		return p
	case "", "keyword", KeywordProviderName:
	default:
		logger.Warn("unknown provider, using keyword fallback", "provider", name)
	}
	return NewKeywordProvider()
}
