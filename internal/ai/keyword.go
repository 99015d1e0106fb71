package ai

import (
	"context"
	"strings"
)

// KeywordProviderName 无网络兜底 provider 名称
const KeywordProviderName = "deterministic-fallback"

// KeywordProvider 基于关键字的确定性 provider，无需 API Key
type KeywordProvider struct{}

// NewKeywordProvider 创建关键字 provider
func NewKeywordProvider() *KeywordProvider {
	return &KeywordProvider{}
}

func (p *KeywordProvider) Name() string { return KeywordProviderName }

// SuggestMapping 实现 Provider，忽略样本行
func (p *KeywordProvider) SuggestMapping(_ context.Context, headers []string, _ []map[string]string) (map[string]string, error) {
	out := make(map[string]string)
	for _, h := range headers {
		if field := keywordField(h); field != "" {
			out[h] = field
		}
	}
	return out, nil
}

func keywordField(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	switch {
	// "Valid From" / "Effective To" 是日期列
	case containsAny(h, "valid", "effective", "date"):
		return ""
	case containsAny(h, "origin", "pol") || hasWord(h, "from"):
		return "lane_origin"
	case containsAny(h, "dest", "pod") || hasWord(h, "to"):
		return "lane_destination"
	case containsAny(h, "rate", "price"):
		return "rate_value"
	case strings.Contains(h, "curr"):
		return "currency"
	default:
		return ""
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasWord(s, word string) bool {
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '/'
	}) {
		if w == word {
			return true
		}
	}
	return false
}
