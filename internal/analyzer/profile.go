package analyzer

import (
	"sort"
	"strings"

	"ratecard-converter/internal/table"
)

// ColumnProfile 列统计特征（证据）
type ColumnProfile struct {
	Column        string         `json:"column"`
	Total         int            `json:"total"`
	NullRatio     float64        `json:"null_ratio"`
	DistinctRatio float64        `json:"distinct_ratio"`
	NumericRatio  float64        `json:"numeric_ratio"`
	DateRatio     float64        `json:"date_ratio"`
	Patterns      map[string]int `json:"patterns"`
	Kind          string         `json:"kind"` // numeric / date / category / text / empty
}

// ProfileTable 统计每一列，按表头顺序返回
func ProfileTable(t *table.Table) []ColumnProfile {
	if t == nil {
		return nil
	}
	profiles := make([]ColumnProfile, 0, len(t.Headers))
	for _, h := range t.Headers {
		profiles = append(profiles, profileColumn(t, h))
	}
	return profiles
}

func profileColumn(t *table.Table, column string) ColumnProfile {
	p := ColumnProfile{Column: column, Total: t.Len(), Patterns: make(map[string]int)}
	if p.Total == 0 {
		p.Kind = "empty"
		return p
	}

	distinct := make(map[string]struct{})
	var nulls, numeric, dates, filled int
	for _, r := range t.Rows {
		v, ok := r.Get(column)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			nulls++
			p.Patterns["empty"]++
			continue
		}
		filled++
		distinct[strings.ToLower(v)] = struct{}{}

		pattern := detectPattern(v)
		p.Patterns[pattern]++
		switch pattern {
		case "numeric":
			numeric++
		case "date":
			dates++
		}
	}

	total := float64(p.Total)
	p.NullRatio = float64(nulls) / total
	p.DistinctRatio = float64(len(distinct)) / total
	if filled > 0 {
		p.NumericRatio = float64(numeric) / float64(filled)
		p.DateRatio = float64(dates) / float64(filled)
	}
	p.Kind = classify(p, filled, len(distinct))
	return p
}

// classify 多数值决定类型；不同值很少的文本列视为分类（币种、箱型等）
func classify(p ColumnProfile, filled, distinct int) string {
	switch {
	case filled == 0:
		return "empty"
	case p.NumericRatio >= 0.8:
		return "numeric"
	case p.DateRatio >= 0.8:
		return "date"
	case filled >= 4 && float64(distinct)/float64(filled) <= 0.5:
		return "category"
	default:
		return "text"
	}
}

// detectPattern 值的模式（不暴露实际值）
func detectPattern(value string) string {
	if len(value) == 0 {
		return "empty"
	}
	if isNumeric(value) {
		return "numeric"
	}
	if isDateLike(value) {
		return "date"
	}
	return "text"
}

// isNumeric 允许千分位、小数点、负号、货币符号和百分号
func isNumeric(s string) bool {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	s = strings.TrimLeft(s, "$€£¥")
	s = strings.TrimPrefix(s, "-")
	digits := 0
	dots := 0
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == ',':
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

func isDateLike(s string) bool {
	if len(s) < 6 || !strings.ContainsAny(s, "-/.") {
		return false
	}
	digits := 0
	for _, c := range s {
		if c >= '0' && c <= '9' {
			digits++
		}
	}
	return digits >= 4
}

// SortedPatterns 按出现次数降序的模式名
func (p ColumnProfile) SortedPatterns() []string {
	names := make([]string, 0, len(p.Patterns))
	for k := range p.Patterns {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if p.Patterns[names[i]] != p.Patterns[names[j]] {
			return p.Patterns[names[i]] > p.Patterns[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
