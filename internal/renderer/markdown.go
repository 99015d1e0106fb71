package renderer

import (
	"fmt"
	"strings"

	"ratecard-converter/internal/graph"
)

// MarkdownRenderer Markdown 转换报告渲染器
type MarkdownRenderer struct{}

// NewMarkdownRenderer 创建渲染器
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render 渲染为 Markdown 格式
func (m *MarkdownRenderer) Render(r *Report) string {
	var sb strings.Builder
	renderSummary(&sb, r)
	renderMapping(&sb, r.Graph)
	renderWarnings(&sb, r)
	return sb.String()
}

func renderSummary(sb *strings.Builder, r *Report) {
	title := r.Title
	if title == "" {
		title = "Rate Card Conversion Report"
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	if r.Filename != "" {
		sb.WriteString(fmt.Sprintf("- Source: `%s`\n", r.Filename))
	}
	if r.ProviderUsed != "" {
		sb.WriteString(fmt.Sprintf("- Provider: %s\n", r.ProviderUsed))
	}
	if r.Result != nil {
		sb.WriteString(fmt.Sprintf("- Accepted rows: %d\n", len(r.Result.Rows)))
		sb.WriteString(fmt.Sprintf("- Rejected rows: %d\n", r.Result.RejectedRows))
		sb.WriteString(fmt.Sprintf("- Warnings: %d\n", len(r.Result.Warnings)))
	}
	sb.WriteString("\n")
}

// renderMapping 列映射表
func renderMapping(sb *strings.Builder, g *graph.MappingGraph) {
	if g == nil {
		return
	}
	sb.WriteString("## Column Mapping\n\n")
	sb.WriteString("| Source column | Canonical field | Confidence | Strategy | Status |\n")
	sb.WriteString("|---------------|-----------------|------------|----------|--------|\n")
	for _, e := range g.Edges {
		from := g.GetNode(e.From)
		to := g.GetNode(e.To)
		if from == nil || to == nil {
			continue
		}
		status := "✓"
		if !e.Active {
			status = "overridden"
		}
		strategy := ""
		if len(e.Evidence) > 0 {
			strategy = e.Evidence[0].Type
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %.3f | %s | %s |\n",
			escapeCell(from.Name), to.Name, e.Confidence, strategy, status))
	}
	sb.WriteString("\n")

	if unmapped := g.UnmappedColumns(); len(unmapped) > 0 {
		sb.WriteString("### Unmapped Columns\n\n")
		for _, c := range unmapped {
			sb.WriteString(fmt.Sprintf("- %s\n", c))
		}
		sb.WriteString("\n")
	}

	var missing []string
	for _, n := range g.NodesOf(graph.NodeTypeField) {
		if n.Properties["required"] == true && n.Properties["mapped"] == false {
			missing = append(missing, n.Name)
		}
	}
	if len(missing) > 0 {
		sb.WriteString("### Missing Required Fields\n\n")
		for _, f := range missing {
			sb.WriteString(fmt.Sprintf("- ⚠️ %s\n", f))
		}
		sb.WriteString("\n")
	}
}

func renderWarnings(sb *strings.Builder, r *Report) {
	if r.Result == nil || len(r.Result.Warnings) == 0 {
		return
	}
	sb.WriteString("## Warnings\n\n")
	for _, w := range r.Result.Warnings {
		sb.WriteString(fmt.Sprintf("- %s\n", w))
	}
	sb.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
