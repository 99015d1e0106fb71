package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"ratecard-converter/internal/catalog"
)

const (
	// DefaultAcceptThreshold 列映射接受阈值
	DefaultAcceptThreshold = 0.62

	// StrategyRetrieval 确定性映射策略标签
	StrategyRetrieval = "retrieval+string_similarity"
)

// MappingEvidence 一次列映射的依据
type MappingEvidence struct {
	CanonicalField string  `json:"canonical_field"`
	SourceColumn   string  `json:"source_column"`
	Confidence     float64 `json:"confidence"`
	Strategy       string  `json:"strategy"`
	Rationale      string  `json:"rationale"`
}

// ColumnMap 标准字段 -> 源列，保持首次写入顺序
type ColumnMap struct {
	order []string
	cols  map[string]string
}

// NewColumnMap 创建空映射
func NewColumnMap() *ColumnMap {
	return &ColumnMap{cols: make(map[string]string)}
}

// Set 写入映射，已存在的字段保留原位置
func (m *ColumnMap) Set(field, column string) {
	if _, ok := m.cols[field]; !ok {
		m.order = append(m.order, field)
	}
	m.cols[field] = column
}

// Get 查询字段对应的源列
func (m *ColumnMap) Get(field string) (string, bool) {
	if m == nil {
		return "", false
	}
	c, ok := m.cols[field]
	return c, ok
}

// Has 字段是否已映射
func (m *ColumnMap) Has(field string) bool {
	_, ok := m.Get(field)
	return ok
}

// Fields 已映射字段（按写入顺序）
func (m *ColumnMap) Fields() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

// Len 已映射字段数
func (m *ColumnMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Clone 深拷贝
func (m *ColumnMap) Clone() *ColumnMap {
	c := NewColumnMap()
	for _, f := range m.Fields() {
		c.Set(f, m.cols[f])
	}
	return c
}

// Map 转为普通 map
func (m *ColumnMap) Map() map[string]string {
	out := make(map[string]string, m.Len())
	for _, f := range m.Fields() {
		out[f] = m.cols[f]
	}
	return out
}

// MarshalJSON 按写入顺序输出对象
func (m *ColumnMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(f)
		v, _ := json.Marshal(m.cols[f])
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 按对象中出现的顺序恢复映射
func (m *ColumnMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("column map: expected object")
	}
	*m = ColumnMap{cols: make(map[string]string)}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		var v string
		if err := dec.Decode(&v); err != nil {
			return err
		}
		m.Set(kt.(string), v)
	}
	_, err = dec.Token()
	return err
}

// MappingResult 列映射结果
type MappingResult struct {
	ColumnMap *ColumnMap        `json:"column_map"`
	Evidence  []MappingEvidence `json:"evidence"`
}

// MapperOptions 映射参数
type MapperOptions struct {
	AcceptThreshold float64
}

// ColumnMapper 基于同义词检索 + 字符串相似度的列映射器
type ColumnMapper struct {
	catalog   *catalog.Catalog
	threshold float64
}

// NewColumnMapper 创建列映射器，阈值未设置时使用默认值
func NewColumnMapper(c *catalog.Catalog, opts MapperOptions) *ColumnMapper {
	if opts.AcceptThreshold <= 0 {
		opts.AcceptThreshold = DefaultAcceptThreshold
	}
	return &ColumnMapper{catalog: c, threshold: opts.AcceptThreshold}
}

// Catalog 映射器使用的字段目录
func (m *ColumnMapper) Catalog() *catalog.Catalog {
	return m.catalog
}

// BuildColumnMapping 按输入顺序为每列选择最佳标准字段
//
// 多列命中同一字段时后出现的列覆盖前者，证据全部保留。
func (m *ColumnMapper) BuildColumnMapping(columns []string) *MappingResult {
	result := &MappingResult{ColumnMap: NewColumnMap(), Evidence: []MappingEvidence{}}

	for _, col := range columns {
		candidates, err := m.catalog.RetrieveFieldCandidates(col, 1)
		if err != nil || len(candidates) == 0 {
			continue
		}
		best := candidates[0]
		direct := catalog.Similarity(col, best.Field.Name)
		confidence := catalog.Round3(math.Max(best.Score, direct))
		if confidence < m.threshold {
			continue
		}

		result.ColumnMap.Set(best.Field.Name, col)
		result.Evidence = append(result.Evidence, MappingEvidence{
			CanonicalField: best.Field.Name,
			SourceColumn:   col,
			Confidence:     confidence,
			Strategy:       StrategyRetrieval,
			Rationale:      fmt.Sprintf("Matched '%s' to '%s' via synonym retrieval.", col, best.Field.Name),
		})
	}
	return result
}
