package renderer

import (
	"fmt"
	"strings"

	"ratecard-converter/internal/graph"
)

// MermaidRenderer Mermaid 映射流程图渲染器
type MermaidRenderer struct{}

// NewMermaidRenderer 创建渲染器
func NewMermaidRenderer() *MermaidRenderer {
	return &MermaidRenderer{}
}

// Render 渲染为 Mermaid flowchart，只输出参与映射的字段
func (m *MermaidRenderer) Render(g *graph.MappingGraph) string {
	var sb strings.Builder
	sb.WriteString("flowchart LR\n")

	ids := make(map[string]string)
	nodeID := func(n *graph.Node) string {
		if id, ok := ids[n.ID]; ok {
			return id
		}
		prefix := "c"
		if n.Type == graph.NodeTypeField {
			prefix = "f"
		}
		id := fmt.Sprintf("%s%d", prefix, len(ids))
		ids[n.ID] = id
		return id
	}

	// 源列
	sb.WriteString("    subgraph source[Source columns]\n")
	for _, n := range g.NodesOf(graph.NodeTypeColumn) {
		sb.WriteString(fmt.Sprintf("        %s[\"%s\"]\n", nodeID(n), mermaidLabel(n.Name)))
	}
	sb.WriteString("    end\n")

	// 标准字段（有边指向或为必填）
	sb.WriteString("    subgraph canonical[Canonical fields]\n")
	for _, n := range g.NodesOf(graph.NodeTypeField) {
		if len(g.EdgesTo(n.ID)) == 0 && n.Properties["required"] != true {
			continue
		}
		sb.WriteString(fmt.Sprintf("        %s[\"%s\"]\n", nodeID(n), mermaidLabel(n.Name)))
	}
	sb.WriteString("    end\n")

	for _, e := range g.Edges {
		from, to := g.GetNode(e.From), g.GetNode(e.To)
		if from == nil || to == nil {
			continue
		}
		arrow := "-->"
		switch {
		case !e.Active:
			arrow = "--x"
		case e.Type == graph.EdgeTypeSuggested:
			arrow = "-.->"
		}
		sb.WriteString(fmt.Sprintf("    %s %s|\"%.2f\"| %s\n", nodeID(from), arrow, e.Confidence, nodeID(to)))
	}

	// 未映射的必填字段
	for _, n := range g.NodesOf(graph.NodeTypeField) {
		if n.Properties["required"] == true && n.Properties["mapped"] == false {
			sb.WriteString(fmt.Sprintf("    style %s stroke:#d33,stroke-width:2px\n", nodeID(n)))
		}
	}
	return sb.String()
}

func mermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}
