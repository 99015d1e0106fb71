package table

import (
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrUnsupportedFormat 无法从给定内容构造表格
	ErrUnsupportedFormat = eris.New("unsupported format")
	// ErrEmptyInput 规范化后没有任何数据行
	ErrEmptyInput = eris.New("no records found in input")
)

// Row 行访问契约：按表头取值，不存在时返回 false
type Row interface {
	Get(column string) (string, bool)
}

// Table 规范化后的表格（有序表头 + 有序数据行）
type Table struct {
	Headers []string
	Rows    []Row
}

// Len 数据行数
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Head 前 n 行，以 map 形式返回（供 AI 采样）
func (t *Table) Head(n int) []map[string]string {
	if n > t.Len() {
		n = t.Len()
	}
	out := make([]map[string]string, 0, n)
	for _, r := range t.Rows[:n] {
		m := make(map[string]string, len(t.Headers))
		for _, h := range t.Headers {
			if v, ok := r.Get(h); ok {
				m[h] = v
			}
		}
		out = append(out, m)
	}
	return out
}

// HasHeader 表头是否存在
func (t *Table) HasHeader(column string) bool {
	for _, h := range t.Headers {
		if h == column {
			return true
		}
	}
	return false
}

// MapRow 基于 map 的行实现
type MapRow map[string]string

// Get 实现 Row
func (r MapRow) Get(column string) (string, bool) {
	v, ok := r[column]
	return v, ok
}

// FromRecords 由表头 + 原始记录构造表格
//
// 表头去除首尾空白；全空行被丢弃；短行缺失的列视为不存在。
// 重复表头时后出现的列覆盖前者。
func FromRecords(header []string, records [][]string) *Table {
	t := &Table{Headers: make([]string, len(header))}
	for i, h := range header {
		t.Headers[i] = strings.TrimSpace(h)
	}

	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		row := make(MapRow, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
