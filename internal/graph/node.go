package graph

// NodeType 节点类型
type NodeType string

const (
	NodeTypeColumn NodeType = "column" // 源表列
	NodeTypeField  NodeType = "field"  // 标准字段
)

// Node 图节点
type Node struct {
	ID         string                 `json:"id"`
	Type       NodeType               `json:"type"`
	Name       string                 `json:"name"`
	Properties map[string]interface{} `json:"properties"`
}

// ColumnID 列节点 ID
func ColumnID(name string) string { return "column:" + name }

// FieldID 字段节点 ID
func FieldID(name string) string { return "field:" + name }
