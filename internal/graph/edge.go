package graph

// EdgeType 边类型
type EdgeType string

const (
	EdgeTypeMapped    EdgeType = "mapped"    // 确定性映射
	EdgeTypeSuggested EdgeType = "suggested" // provider 补齐
)

// Edge 列 -> 字段
type Edge struct {
	ID         string     `json:"id"`
	Type       EdgeType   `json:"type"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	Confidence float64    `json:"confidence"`
	Active     bool       `json:"active"` // 被后出现的列覆盖时为 false
	Evidence   []Evidence `json:"evidence"`
}

// Evidence 证据
type Evidence struct {
	Type        string  `json:"type"` // 策略标签
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}
