package renderer

import (
	"fmt"
	"strings"

	"ratecard-converter/internal/convert"
)

// sampleRowLimit 报告中展示的行数
const sampleRowLimit = 10

// EnhancedMarkdownRenderer 增强的 Markdown 渲染器（包含 provider 建议、列画像和样本行）
type EnhancedMarkdownRenderer struct {
	base *MarkdownRenderer
}

// NewEnhancedMarkdownRenderer 创建渲染器
func NewEnhancedMarkdownRenderer() *EnhancedMarkdownRenderer {
	return &EnhancedMarkdownRenderer{base: NewMarkdownRenderer()}
}

// Render 渲染为 Markdown 格式
func (m *EnhancedMarkdownRenderer) Render(r *Report) string {
	var sb strings.Builder
	sb.WriteString(m.base.Render(r))

	if len(r.Suggestions) > 0 {
		sb.WriteString("## Provider Improvements\n\n")
		sb.WriteString("| Issue | Action |\n")
		sb.WriteString("|-------|--------|\n")
		for _, s := range r.Suggestions {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", escapeCell(s.Issue), escapeCell(s.Action)))
		}
		sb.WriteString("\n")
	}

	if len(r.Profiles) > 0 {
		sb.WriteString("## Column Profiles\n\n")
		sb.WriteString("| Column | Kind | Null | Distinct | Numeric | Date |\n")
		sb.WriteString("|--------|------|------|----------|---------|------|\n")
		for _, p := range r.Profiles {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.1f%% | %.1f%% | %.1f%% | %.1f%% |\n",
				escapeCell(p.Column), p.Kind,
				p.NullRatio*100, p.DistinctRatio*100, p.NumericRatio*100, p.DateRatio*100))
		}
		sb.WriteString("\n")
	}

	if r.Result != nil && len(r.Result.Rows) > 0 {
		renderRows(&sb, r.Result.Rows)
	}
	return sb.String()
}

func renderRows(sb *strings.Builder, rows []convert.CanonicalRow) {
	sb.WriteString("## Sample Rows\n\n")
	sb.WriteString("| Carrier | Origin | Destination | Equipment | Rate | Currency | Fuel % | Transit | Valid from | Valid to |\n")
	sb.WriteString("|---------|--------|-------------|-----------|------|----------|--------|---------|------------|----------|\n")
	for i, r := range rows {
		if i == sampleRowLimit {
			break
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			str(r.CarrierName),
			escapeCell(r.LaneOrigin),
			escapeCell(r.LaneDestination),
			str(r.EquipmentType),
			formatFloat(r.RateValue),
			r.Currency,
			optFloat(r.SurchargeFuelPct),
			optInt(r.TransitDays),
			optDate(r.EffectiveFrom),
			optDate(r.EffectiveTo),
		))
	}
	if len(rows) > sampleRowLimit {
		sb.WriteString(fmt.Sprintf("\n_%d more rows not shown._\n", len(rows)-sampleRowLimit))
	}
	sb.WriteString("\n")
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return escapeCell(*s)
}

func formatFloat(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.4f", f), "0"), ".")
}

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func optInt(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%d", *n)
}

func optDate(d *convert.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
