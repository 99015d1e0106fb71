package convert

import (
	"fmt"
	"strconv"

	"ratecard-converter/internal/analyzer"
	"ratecard-converter/internal/table"

	"github.com/rotisserie/eris"
)

const (
	// DefaultLowConfidenceThreshold 低于该置信度的映射会产生提示
	DefaultLowConfidenceThreshold = 0.80
	// DefaultCurrency 未提供币种时的默认值
	DefaultCurrency = "USD"
)

// Options 转换参数
type Options struct {
	LowConfidenceThreshold float64
	DefaultCurrency        string
}

// Converter 行转换与校验
type Converter struct {
	mapper          *analyzer.ColumnMapper
	lowConfidence   float64
	defaultCurrency string
}

// NewConverter 创建转换器
func NewConverter(mapper *analyzer.ColumnMapper, opts Options) *Converter {
	if opts.LowConfidenceThreshold <= 0 {
		opts.LowConfidenceThreshold = DefaultLowConfidenceThreshold
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = DefaultCurrency
	}
	return &Converter{
		mapper:          mapper,
		lowConfidence:   opts.LowConfidenceThreshold,
		defaultCurrency: opts.DefaultCurrency,
	}
}

// Mapper 转换器使用的列映射器
func (c *Converter) Mapper() *analyzer.ColumnMapper {
	return c.mapper
}

// ConvertTable 映射列并转换所有行
func (c *Converter) ConvertTable(t *table.Table) (*ConversionResult, error) {
	if err := checkTable(t); err != nil {
		return nil, err
	}
	m := c.mapper.BuildColumnMapping(t.Headers)
	return c.ConvertWithMapping(t, m.ColumnMap, m.Evidence)
}

// ConvertWithMapping 使用给定映射转换（例如混合映射的结果）
//
// 数据问题只会变成拒绝行和警告，只有空表返回错误。
func (c *Converter) ConvertWithMapping(t *table.Table, cm *analyzer.ColumnMap, evidence []analyzer.MappingEvidence) (*ConversionResult, error) {
	if err := checkTable(t); err != nil {
		return nil, err
	}
	if cm == nil {
		cm = analyzer.NewColumnMap()
	}
	if evidence == nil {
		evidence = []analyzer.MappingEvidence{}
	}

	res := &ConversionResult{
		Rows:            []CanonicalRow{},
		MappingEvidence: evidence,
		Warnings:        missingRequiredWarnings(cm),
	}

	for _, src := range t.Rows {
		row, reason := c.convertRow(src, cm)
		if reason != "" {
			res.RejectedRows++
			res.Warnings = append(res.Warnings, "Row rejected: "+reason)
			continue
		}
		res.Rows = append(res.Rows, *row)
	}

	for _, ev := range evidence {
		if ev.Confidence < c.lowConfidence {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Low-confidence mapping: %s -> %s (%s)",
				ev.SourceColumn, ev.CanonicalField, strconv.FormatFloat(ev.Confidence, 'f', -1, 64)))
		}
	}
	return res, nil
}

func checkTable(t *table.Table) error {
	if t == nil || len(t.Headers) == 0 || t.Len() == 0 {
		return eris.Wrap(table.ErrEmptyInput, "convert table")
	}
	return nil
}

func missingRequiredWarnings(cm *analyzer.ColumnMap) []string {
	warnings := []string{}
	for _, f := range analyzer.RequiredFields {
		if !cm.Has(f) {
			warnings = append(warnings, "Missing required canonical field mapping: "+f)
		}
	}
	return warnings
}

// convertRow 转换一行；被拒绝时返回原因
func (c *Converter) convertRow(src table.Row, cm *analyzer.ColumnMap) (*CanonicalRow, string) {
	get := func(field string) (string, bool) {
		col, ok := cm.Get(field)
		if !ok {
			return "", false
		}
		return src.Get(col)
	}

	rate, _ := parseFloat(get("rate_value"))
	fuel, _ := parseFloat(get("surcharge_fuel_pct"))
	minCharge, _ := parseFloat(get("min_charge"))
	from, fromEmpty := parseDate(get("effective_from"))
	to, toEmpty := parseDate(get("effective_to"))

	row := &CanonicalRow{
		CarrierName:      optionalString(get("carrier_name")),
		EquipmentType:    optionalString(get("equipment_type")),
		ServiceLevel:     optionalString(get("service_level")),
		Currency:         c.defaultCurrency,
		SurchargeFuelPct: fuel,
		MinCharge:        minCharge,
		TransitDays:      parseInt(get("transit_days")),
		EffectiveFrom:    from,
		EffectiveTo:      to,
		Notes:            optionalString(get("notes")),
	}
	if cur := optionalString(get("currency")); cur != nil {
		row.Currency = *cur
	}
	if s := optionalString(get("lane_origin")); s != nil {
		row.LaneOrigin = *s
	}
	if s := optionalString(get("lane_destination")); s != nil {
		row.LaneDestination = *s
	}

	// 质量检查，顺序固定，遇到第一个失败即返回
	switch {
	case rate == nil:
		return nil, "missing/non-numeric rate_value"
	case *rate < 0:
		return nil, "rate_value must be non-negative"
	case from == nil && !fromEmpty:
		return nil, "effective_from is invalid"
	case to == nil && !toEmpty:
		return nil, "effective_to is invalid"
	case from != nil && to != nil && from.After(to.Time):
		return nil, "effective_from is after effective_to"
	}
	row.RateValue = *rate

	if reason := validateSchema(row); reason != "" {
		return nil, reason
	}
	return row, ""
}

// validateSchema 标准行的字段约束
func validateSchema(r *CanonicalRow) string {
	switch {
	case r.LaneOrigin == "":
		return "lane_origin is required"
	case r.LaneDestination == "":
		return "lane_destination is required"
	case r.SurchargeFuelPct != nil && (*r.SurchargeFuelPct < 0 || *r.SurchargeFuelPct > 100):
		return "surcharge_fuel_pct must be between 0 and 100"
	case r.MinCharge != nil && *r.MinCharge < 0:
		return "min_charge must be non-negative"
	case r.TransitDays != nil && *r.TransitDays < 0:
		return "transit_days must be non-negative"
	}
	return ""
}
