package convert

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

var numberReplacer = strings.NewReplacer(",", "", "%", "", " ", "", " ", "")

// parseFloat 宽松解析数值：允许千分位、百分号和前置货币符号
func parseFloat(raw string, present bool) (*float64, bool) {
	if !present {
		return nil, true
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, true
	}
	s = strings.TrimLeft(numberReplacer.Replace(s), "$€£¥")
	if s == "" {
		return nil, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, false
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, false
	}
	return &f, true
}

// parseInt 走数值路径后截断，超出 int 范围视为无法解析
func parseInt(raw string, present bool) *int {
	f, _ := parseFloat(raw, present)
	if f == nil || *f >= math.MaxInt || *f <= math.MinInt {
		return nil
	}
	n := int(*f)
	return &n
}

// parseDate 解析常见日期写法
//
// 第二个返回值表示原值是否为空；非空且无法解析时返回 (nil, false)。
func parseDate(raw string, present bool) (d *Date, empty bool) {
	if !present {
		return nil, true
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, true
	}
	if !strings.ContainsFunc(s, unicode.IsDigit) {
		return nil, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil, false
	}
	date := NewDate(t.Year(), t.Month(), t.Day())
	return &date, false
}

// optionalString 去除空白，空值返回 nil
func optionalString(raw string, present bool) *string {
	if !present {
		return nil
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	return &s
}
