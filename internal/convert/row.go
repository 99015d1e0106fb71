package convert

import (
	"encoding/json"
	"time"

	"ratecard-converter/internal/analyzer"
)

const dateLayout = "2006-01-02"

// Date 日历日期，JSON 格式 YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate 由年月日构造
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// CanonicalRow 校验通过的标准费率行
type CanonicalRow struct {
	CarrierName      *string  `json:"carrier_name"`
	LaneOrigin       string   `json:"lane_origin"`
	LaneDestination  string   `json:"lane_destination"`
	EquipmentType    *string  `json:"equipment_type"`
	ServiceLevel     *string  `json:"service_level"`
	Currency         string   `json:"currency"`
	RateValue        float64  `json:"rate_value"`
	SurchargeFuelPct *float64 `json:"surcharge_fuel_pct"`
	MinCharge        *float64 `json:"min_charge"`
	TransitDays      *int     `json:"transit_days"`
	EffectiveFrom    *Date    `json:"effective_from"`
	EffectiveTo      *Date    `json:"effective_to"`
	Notes            *string  `json:"notes"`
}

// ConversionResult 一次转换的结果
type ConversionResult struct {
	Rows            []CanonicalRow             `json:"rows"`
	MappingEvidence []analyzer.MappingEvidence `json:"mapping_evidence"`
	RejectedRows    int                        `json:"rejected_rows"`
	Warnings        []string                   `json:"warnings"`
}
