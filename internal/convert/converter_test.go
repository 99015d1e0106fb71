package convert

import (
	"encoding/json"
	"testing"
	"time"

	"ratecard-converter/internal/analyzer"
	"ratecard-converter/internal/catalog"
	"ratecard-converter/internal/table"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioHeaders = []string{"Origin", "Destination", "Base Rate", "Fuel Surcharge %", "Valid From", "Valid To", "Transit Days"}

func newTestConverter() *Converter {
	return NewConverter(analyzer.NewColumnMapper(catalog.Default(), analyzer.MapperOptions{}), Options{})
}

func TestConvertScenario(t *testing.T) {
	tbl := table.FromRecords(scenarioHeaders, [][]string{
		{"Shanghai", "Rotterdam", "2500", "12%", "2025-01-01", "2025-12-31", "28"},
	})

	res, err := newTestConverter().ConvertTable(tbl)
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, 0, res.RejectedRows)

	row := res.Rows[0]
	assert.Equal(t, "Shanghai", row.LaneOrigin)
	assert.Equal(t, "Rotterdam", row.LaneDestination)
	assert.Equal(t, 2500.0, row.RateValue)
	require.NotNil(t, row.SurchargeFuelPct)
	assert.Equal(t, 12.0, *row.SurchargeFuelPct)
	require.NotNil(t, row.TransitDays)
	assert.Equal(t, 28, *row.TransitDays)
	assert.Equal(t, "USD", row.Currency)
	assert.Equal(t, NewDate(2025, time.January, 1), *row.EffectiveFrom)
	assert.Equal(t, NewDate(2025, time.December, 31), *row.EffectiveTo)
	assert.Nil(t, row.CarrierName)

	assert.Len(t, res.MappingEvidence, 7)
	assert.Empty(t, res.Warnings)
}

func TestNegativeRateRejected(t *testing.T) {
	tbl := table.FromRecords(scenarioHeaders, [][]string{
		{"Shanghai", "Rotterdam", "-1", "12%", "2025-01-01", "2025-12-31", "28"},
		{"Ningbo", "Hamburg", "1800", "", "", "", ""},
	})

	res, err := newTestConverter().ConvertTable(tbl)
	require.NoError(t, err)

	assert.Equal(t, 1, res.RejectedRows)
	assert.Len(t, res.Rows, 1)
	assert.Contains(t, res.Warnings, "Row rejected: rate_value must be non-negative")
}

func TestMissingRequiredMappings(t *testing.T) {
	tbl := table.FromRecords([]string{"Carrier", "Foo"}, [][]string{{"Maersk", "bar"}})

	res, err := newTestConverter().ConvertTable(tbl)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Missing required canonical field mapping: lane_origin",
		"Missing required canonical field mapping: lane_destination",
		"Missing required canonical field mapping: rate_value",
		"Row rejected: missing/non-numeric rate_value",
	}, res.Warnings)
	assert.Equal(t, 1, res.RejectedRows)
	assert.Empty(t, res.Rows)
}

func TestInvertedDateRange(t *testing.T) {
	tbl := table.FromRecords(scenarioHeaders, [][]string{
		{"Shanghai", "Rotterdam", "2500", "12%", "2025-12-31", "2025-01-01", "28"},
	})

	res, err := newTestConverter().ConvertTable(tbl)
	require.NoError(t, err)

	assert.Equal(t, 1, res.RejectedRows)
	assert.Equal(t, []string{"Row rejected: effective_from is after effective_to"}, res.Warnings)
}

func TestRowChecks(t *testing.T) {
	tests := []struct {
		name   string
		record []string
		reason string
	}{
		{"non-numeric rate", []string{"A", "B", "call us", "", "", "", ""}, "missing/non-numeric rate_value"},
		{"empty rate", []string{"A", "B", " ", "", "", "", ""}, "missing/non-numeric rate_value"},
		{"bad from date", []string{"A", "B", "10", "", "soon", "", ""}, "effective_from is invalid"},
		{"bad to date", []string{"A", "B", "10", "", "2025-01-01", "2025-13-45", ""}, "effective_to is invalid"},
		{"rate checked before dates", []string{"A", "B", "-5", "", "soon", "", ""}, "rate_value must be non-negative"},
		{"missing origin", []string{"", "B", "10", "", "", "", ""}, "lane_origin is required"},
		{"missing destination", []string{"A", "  ", "10", "", "", "", ""}, "lane_destination is required"},
		{"fuel out of range", []string{"A", "B", "10", "120%", "", "", ""}, "surcharge_fuel_pct must be between 0 and 100"},
		{"negative transit", []string{"A", "B", "10", "", "", "", "-3"}, "transit_days must be non-negative"},
		{"overflowing rate", []string{"A", "B", "1e400", "", "", "", ""}, "missing/non-numeric rate_value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := table.FromRecords(scenarioHeaders, [][]string{tt.record})
			res, err := newTestConverter().ConvertTable(tbl)
			require.NoError(t, err)
			assert.Equal(t, 1, res.RejectedRows)
			assert.Equal(t, []string{"Row rejected: " + tt.reason}, res.Warnings)
		})
	}
}

func TestCoercion(t *testing.T) {
	headers := []string{"Carrier", "Origin", "Destination", "Rate", "Currency", "Min Charge", "Transit Days", "Notes", "Fuel Surcharge %"}
	tbl := table.FromRecords(headers, [][]string{
		{" Maersk ", "Shanghai", "Rotterdam", "1,234.50", "eur", "abc", "28.9", "  ", ""},
	})

	res, err := newTestConverter().ConvertTable(tbl)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	row := res.Rows[0]
	assert.Equal(t, "Maersk", *row.CarrierName)
	assert.Equal(t, 1234.5, row.RateValue)
	assert.Equal(t, "eur", row.Currency)
	assert.Nil(t, row.MinCharge, "unparsable optional number becomes null")
	assert.Equal(t, 28, *row.TransitDays)
	assert.Nil(t, row.Notes)
	assert.Nil(t, row.SurchargeFuelPct)
}

func TestOverflowingOptionalNumbers(t *testing.T) {
	tbl := table.FromRecords(scenarioHeaders, [][]string{
		{"Shanghai", "Rotterdam", "2500", "1e400", "", "", "1e19"},
	})

	res, err := newTestConverter().ConvertTable(tbl)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Empty(t, res.Warnings)
	assert.Nil(t, res.Rows[0].SurchargeFuelPct)
	assert.Nil(t, res.Rows[0].TransitDays)

	_, err = json.Marshal(res)
	assert.NoError(t, err)
}

func TestLowConfidenceWarningsAfterRows(t *testing.T) {
	tbl := table.FromRecords([]string{"Origin", "Destination", "Price USD"}, [][]string{
		{"Shanghai", "Rotterdam", "-1"},
	})

	res, err := newTestConverter().ConvertTable(tbl)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Row rejected: rate_value must be non-negative",
		"Low-confidence mapping: Price USD -> rate_value (0.714)",
	}, res.Warnings)
}

func TestLowConfidenceThresholdOption(t *testing.T) {
	c := NewConverter(analyzer.NewColumnMapper(catalog.Default(), analyzer.MapperOptions{}), Options{LowConfidenceThreshold: 0.95})
	tbl := table.FromRecords(scenarioHeaders, [][]string{
		{"Shanghai", "Rotterdam", "2500", "12%", "2025-01-01", "2025-12-31", "28"},
	})

	res, err := c.ConvertTable(tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Low-confidence mapping: Fuel Surcharge % -> surcharge_fuel_pct (0.933)",
		"Low-confidence mapping: Transit Days -> transit_days (0.917)",
	}, res.Warnings)
}

func TestRowCountInvariant(t *testing.T) {
	tbl := table.FromRecords(scenarioHeaders, [][]string{
		{"Shanghai", "Rotterdam", "2500", "12%", "2025-01-01", "2025-12-31", "28"},
		{"Ningbo", "Hamburg", "x", "", "", "", ""},
		{"Busan", "Antwerp", "900", "", "", "", ""},
		{"Qingdao", "", "900", "", "", "", ""},
	})

	res, err := newTestConverter().ConvertTable(tbl)
	require.NoError(t, err)

	assert.Equal(t, tbl.Len(), res.RejectedRows+len(res.Rows))
	for _, r := range res.Rows {
		assert.GreaterOrEqual(t, r.RateValue, 0.0)
		assert.NotEmpty(t, r.LaneOrigin)
		assert.NotEmpty(t, r.LaneDestination)
	}
}

func TestConvertWithMapping(t *testing.T) {
	tbl := table.FromRecords([]string{"From City", "Destination", "Base Rate"}, [][]string{
		{"Shanghai", "Rotterdam", "2500"},
	})
	cm := analyzer.NewColumnMap()
	cm.Set("lane_destination", "Destination")
	cm.Set("rate_value", "Base Rate")
	cm.Set("lane_origin", "From City")

	res, err := newTestConverter().ConvertWithMapping(tbl, cm, nil)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Shanghai", res.Rows[0].LaneOrigin)
	assert.NotNil(t, res.MappingEvidence)
}

func TestConvertEmptyInput(t *testing.T) {
	c := newTestConverter()

	_, err := c.ConvertTable(table.FromRecords(scenarioHeaders, nil))
	assert.True(t, eris.Is(err, table.ErrEmptyInput))

	_, err = c.ConvertTable(nil)
	assert.True(t, eris.Is(err, table.ErrEmptyInput))
}

func TestResultJSON(t *testing.T) {
	tbl := table.FromRecords(scenarioHeaders, [][]string{
		{"Shanghai", "Rotterdam", "2500", "12%", "2025-01-01", "2025-12-31", "28"},
	})
	res, err := newTestConverter().ConvertTable(tbl)
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "mapping_evidence")
	assert.EqualValues(t, 0, decoded["rejected_rows"])

	row := decoded["rows"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "2025-01-01", row["effective_from"])
	assert.Nil(t, row["carrier_name"])

	var back ConversionResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, res.Rows[0].EffectiveTo.String(), back.Rows[0].EffectiveTo.String())
}
