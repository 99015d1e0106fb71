package analyzer

import (
	"context"
	"fmt"

	"ratecard-converter/internal/ai"
	"ratecard-converter/internal/catalog"
	"ratecard-converter/internal/pkg/logger"
	"ratecard-converter/internal/table"

	"github.com/rotisserie/eris"
)

// RequiredFields 标准行的必填字段
var RequiredFields = []string{"lane_origin", "lane_destination", "rate_value"}

// StrategyProvider provider 补齐映射的策略标签
const StrategyProvider = "provider_suggestion"

// ImprovementSuggestion 一次被采纳的 provider 建议
type ImprovementSuggestion struct {
	Issue  string `json:"issue"`
	Action string `json:"action"`
}

// HybridResult 混合映射结果
type HybridResult struct {
	InitialMapping  *ColumnMap              `json:"initial_mapping"`
	ImprovedMapping *ColumnMap              `json:"improved_mapping"`
	Suggestions     []ImprovementSuggestion `json:"suggestions"`
	ProviderUsed    string                  `json:"provider_used"`
	Evidence        []MappingEvidence       `json:"evidence"`
	Warnings        []string                `json:"warnings,omitempty"`
}

// HybridAgent 混合映射（确定性算法 + provider 建议）
type HybridAgent struct {
	mapper   *ColumnMapper
	provider ai.Provider
}

// NewHybridAgent 创建混合映射器
func NewHybridAgent(mapper *ColumnMapper, provider ai.Provider) *HybridAgent {
	if provider == nil {
		provider = ai.NewKeywordProvider()
	}
	return &HybridAgent{mapper: mapper, provider: provider}
}

// Provider 当前使用的 provider
func (h *HybridAgent) Provider() ai.Provider {
	return h.provider
}

// Run 先做确定性映射，再用 provider 的建议补齐缺失的必填字段
//
// 已有映射不会被覆盖，非必填字段不会被修改。provider 失败时结果等同于确定性映射。
func (h *HybridAgent) Run(ctx context.Context, t *table.Table) (*HybridResult, error) {
	if t == nil || len(t.Headers) == 0 {
		return nil, eris.Wrap(table.ErrEmptyInput, "table has no headers")
	}

	deterministic := h.mapper.BuildColumnMapping(t.Headers)
	result := &HybridResult{
		InitialMapping:  deterministic.ColumnMap,
		ImprovedMapping: deterministic.ColumnMap.Clone(),
		Suggestions:     []ImprovementSuggestion{},
		ProviderUsed:    h.provider.Name(),
		Evidence:        append([]MappingEvidence(nil), deterministic.Evidence...),
	}

	suggested, err := h.provider.SuggestMapping(ctx, t.Headers, t.Head(ai.SampleRowLimit))
	if err != nil {
		logger.Warn("provider suggestion failed", "provider", h.provider.Name(), "error", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("Provider %s unavailable: %v", h.provider.Name(), err))
		return result, nil
	}

	required := make(map[string]bool, len(RequiredFields))
	for _, f := range RequiredFields {
		required[f] = true
	}

	// 按表头顺序处理，结果可复现
	for _, source := range t.Headers {
		target, ok := suggested[source]
		if !ok || !required[target] || result.ImprovedMapping.Has(target) {
			continue
		}
		result.ImprovedMapping.Set(target, source)
		result.Suggestions = append(result.Suggestions, ImprovementSuggestion{
			Issue:  fmt.Sprintf("Missing required field mapping: %s", target),
			Action: fmt.Sprintf("Mapped %s -> %s from provider=%s", source, target, h.provider.Name()),
		})
		result.Evidence = append(result.Evidence, MappingEvidence{
			CanonicalField: target,
			SourceColumn:   source,
			Confidence:     catalogScore(h.mapper, source, target),
			Strategy:       StrategyProvider,
			Rationale:      fmt.Sprintf("Suggested by provider %s for missing required field.", h.provider.Name()),
		})
	}

	logger.Debug("hybrid mapping finished",
		"provider", h.provider.Name(),
		"initial", deterministic.ColumnMap.Len(),
		"improved", result.ImprovedMapping.Len(),
	)
	return result, nil
}

// catalogScore provider 建议没有自带置信度，用目录相似度代替
func catalogScore(m *ColumnMapper, column, field string) float64 {
	return catalog.Round3(m.catalog.FieldScore(column, field))
}
