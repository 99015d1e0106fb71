package renderer

import (
	"ratecard-converter/internal/analyzer"
	"ratecard-converter/internal/convert"
	"ratecard-converter/internal/graph"
)

// Report 渲染一次转换所需的全部内容
type Report struct {
	Title        string
	Filename     string
	ProviderUsed string
	Result       *convert.ConversionResult
	Graph        *graph.MappingGraph
	Suggestions  []analyzer.ImprovementSuggestion
	Profiles     []analyzer.ColumnProfile
}
