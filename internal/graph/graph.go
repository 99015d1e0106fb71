package graph

import (
	"encoding/json"
	"fmt"

	"ratecard-converter/internal/analyzer"
	"ratecard-converter/internal/catalog"
)

// MappingGraph 列映射图，节点和边保持插入顺序
type MappingGraph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
	index map[string]*Node
}

// NewMappingGraph 创建新图
func NewMappingGraph() *MappingGraph {
	return &MappingGraph{index: make(map[string]*Node)}
}

// AddNode 添加节点，ID 已存在时忽略
func (g *MappingGraph) AddNode(node *Node) {
	if _, ok := g.index[node.ID]; ok {
		return
	}
	g.index[node.ID] = node
	g.Nodes = append(g.Nodes, node)
}

// AddEdge 添加边
func (g *MappingGraph) AddEdge(edge *Edge) {
	g.Edges = append(g.Edges, edge)
}

// GetNode 获取节点
func (g *MappingGraph) GetNode(id string) *Node {
	return g.index[id]
}

// NodesOf 指定类型的节点
func (g *MappingGraph) NodesOf(t NodeType) []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// EdgesFrom 从某节点出发的边
func (g *MappingGraph) EdgesFrom(id string) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// EdgesTo 指向某节点的边
func (g *MappingGraph) EdgesTo(id string) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.To == id {
			out = append(out, e)
		}
	}
	return out
}

// ToJSON 导出为JSON
func (g *MappingGraph) ToJSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// Build 由表头、字段目录和映射证据构造映射图
//
// final 为最终采用的映射；证据中未被采用的边标记为 inactive。
// profiles 可以为空。
func Build(headers []string, cat *catalog.Catalog, evidence []analyzer.MappingEvidence, final *analyzer.ColumnMap, profiles []analyzer.ColumnProfile) *MappingGraph {
	g := NewMappingGraph()

	byColumn := make(map[string]analyzer.ColumnProfile, len(profiles))
	for _, p := range profiles {
		byColumn[p.Column] = p
	}

	for i, h := range headers {
		props := map[string]interface{}{"position": i}
		if p, ok := byColumn[h]; ok {
			props["kind"] = p.Kind
			props["null_ratio"] = p.NullRatio
			props["distinct_ratio"] = p.DistinctRatio
		}
		g.AddNode(&Node{ID: ColumnID(h), Type: NodeTypeColumn, Name: h, Properties: props})
	}

	required := make(map[string]bool, len(analyzer.RequiredFields))
	for _, f := range analyzer.RequiredFields {
		required[f] = true
	}
	for _, f := range cat.Fields() {
		_, mapped := final.Get(f.Name)
		g.AddNode(&Node{
			ID:   FieldID(f.Name),
			Type: NodeTypeField,
			Name: f.Name,
			Properties: map[string]interface{}{
				"description": f.Description,
				"required":    required[f.Name],
				"mapped":      mapped,
			},
		})
	}

	for i, ev := range evidence {
		edgeType := EdgeTypeMapped
		if ev.Strategy == analyzer.StrategyProvider {
			edgeType = EdgeTypeSuggested
		}
		col, _ := final.Get(ev.CanonicalField)
		g.AddEdge(&Edge{
			ID:         fmt.Sprintf("e%d", i),
			Type:       edgeType,
			From:       ColumnID(ev.SourceColumn),
			To:         FieldID(ev.CanonicalField),
			Confidence: ev.Confidence,
			Active:     col == ev.SourceColumn,
			Evidence: []Evidence{{
				Type:        ev.Strategy,
				Score:       ev.Confidence,
				Description: ev.Rationale,
			}},
		})
	}
	return g
}

// UnmappedColumns 没有有效映射的列
func (g *MappingGraph) UnmappedColumns() []string {
	var out []string
	for _, n := range g.NodesOf(NodeTypeColumn) {
		active := false
		for _, e := range g.EdgesFrom(n.ID) {
			if e.Active {
				active = true
				break
			}
		}
		if !active {
			out = append(out, n.Name)
		}
	}
	return out
}
