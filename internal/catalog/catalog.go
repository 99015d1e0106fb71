package catalog

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ErrEmptyCatalog 目录为空（配置错误）
var ErrEmptyCatalog = eris.New("canonical field catalog is empty")

// FieldDefinition 标准字段定义
type FieldDefinition struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Synonyms    []string `json:"synonyms" yaml:"synonyms"`
}

// Candidate 字段候选（检索结果）
type Candidate struct {
	Field FieldDefinition
	Score float64 // 0-1，名称与同义词中的最高相似度
}

// Catalog 标准字段目录，构造后只读，可被多个 goroutine 同时使用
type Catalog struct {
	fields []FieldDefinition
	index  map[string]int
}

// New 创建目录，字段顺序即声明顺序
func New(defs []FieldDefinition) (*Catalog, error) {
	c := &Catalog{
		fields: make([]FieldDefinition, 0, len(defs)),
		index:  make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, eris.New("canonical field name must not be empty")
		}
		if _, dup := c.index[name]; dup {
			return nil, eris.Errorf("duplicate canonical field %q", name)
		}
		synonyms := make([]string, 0, len(d.Synonyms))
		for _, s := range d.Synonyms {
			synonyms = append(synonyms, strings.ToLower(strings.TrimSpace(s)))
		}
		c.index[name] = len(c.fields)
		c.fields = append(c.fields, FieldDefinition{
			Name:        name,
			Description: d.Description,
			Synonyms:    synonyms,
		})
	}
	return c, nil
}

// Default 内置的费率卡标准字段
func Default() *Catalog {
	c, err := New(defaultFields)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultFields = []FieldDefinition{
	{Name: "carrier_name", Description: "Name of the carrier", Synonyms: []string{"carrier", "vendor", "provider"}},
	{Name: "lane_origin", Description: "Start location of shipment lane", Synonyms: []string{"origin", "from", "origin city", "pol"}},
	{Name: "lane_destination", Description: "End location of shipment lane", Synonyms: []string{"destination", "to", "dest", "pod"}},
	{Name: "equipment_type", Description: "Container or truck type", Synonyms: []string{"equipment", "container type", "truck type"}},
	{Name: "service_level", Description: "Service speed or priority", Synonyms: []string{"service", "priority", "mode"}},
	{Name: "currency", Description: "Rate currency", Synonyms: []string{"curr", "ccy"}},
	{Name: "rate_value", Description: "Main freight rate", Synonyms: []string{"rate", "base rate", "price", "amount"}},
	{Name: "surcharge_fuel_pct", Description: "Fuel surcharge percentage", Synonyms: []string{"fuel", "fsc", "fuel surcharge"}},
	{Name: "min_charge", Description: "Minimum charge", Synonyms: []string{"minimum", "min", "min charge"}},
	{Name: "transit_days", Description: "Transit duration in days", Synonyms: []string{"transit", "lead time", "days"}},
	{Name: "effective_from", Description: "Validity start date", Synonyms: []string{"effective from", "start date", "valid from"}},
	{Name: "effective_to", Description: "Validity end date", Synonyms: []string{"effective to", "end date", "valid to", "expiry"}},
	{Name: "notes", Description: "Any additional comment", Synonyms: []string{"remark", "comment", "notes"}},
}

// catalogFile YAML 目录文件格式
type catalogFile struct {
	Fields []FieldDefinition `yaml:"fields"`
}

// LoadFile 从 YAML 文件加载自定义目录
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read catalog file %s", path)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "parse catalog file %s", path)
	}
	if len(f.Fields) == 0 {
		return nil, ErrEmptyCatalog
	}
	return New(f.Fields)
}

// Fields 返回字段列表副本
func (c *Catalog) Fields() []FieldDefinition {
	out := make([]FieldDefinition, len(c.fields))
	copy(out, c.fields)
	return out
}

// Lookup 按名称查找字段
func (c *Catalog) Lookup(name string) (FieldDefinition, bool) {
	i, ok := c.index[name]
	if !ok {
		return FieldDefinition{}, false
	}
	return c.fields[i], true
}

// Len 字段数量
func (c *Catalog) Len() int {
	return len(c.fields)
}

// RetrieveFieldCandidates 检索与列名最相近的 topK 个字段
func (c *Catalog) RetrieveFieldCandidates(column string, topK int) ([]Candidate, error) {
	if len(c.fields) == 0 {
		return nil, ErrEmptyCatalog
	}
	text := strings.ToLower(strings.TrimSpace(column))

	scored := make([]Candidate, 0, len(c.fields))
	for _, f := range c.fields {
		scored = append(scored, Candidate{Field: f, Score: c.bestScore(text, f)})
	}

	// 稳定排序：同分时保持声明顺序
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK < 1 {
		topK = 1
	}
	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

// FieldScore 列名与指定字段（名称+同义词）的最高相似度
func (c *Catalog) FieldScore(column, field string) float64 {
	f, ok := c.Lookup(field)
	if !ok {
		return 0
	}
	return c.bestScore(strings.ToLower(strings.TrimSpace(column)), f)
}

func (c *Catalog) bestScore(text string, f FieldDefinition) float64 {
	best := Similarity(text, f.Name)
	for _, s := range f.Synonyms {
		if score := Similarity(text, s); score > best {
			best = score
		}
	}
	return best
}
