package analyzer

import (
	"encoding/json"
	"reflect"
	"testing"

	"ratecard-converter/internal/catalog"
)

func newTestMapper() *ColumnMapper {
	return NewColumnMapper(catalog.Default(), MapperOptions{})
}

func TestBuildColumnMappingScenario(t *testing.T) {
	m := newTestMapper()
	res := m.BuildColumnMapping([]string{"Origin", "Destination", "Base Rate", "Fuel Surcharge %", "Valid From", "Valid To", "Transit Days"})

	tests := []struct {
		field  string
		column string
	}{
		{"lane_origin", "Origin"},
		{"lane_destination", "Destination"},
		{"rate_value", "Base Rate"},
		{"surcharge_fuel_pct", "Fuel Surcharge %"},
		{"effective_from", "Valid From"},
		{"effective_to", "Valid To"},
		{"transit_days", "Transit Days"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, ok := res.ColumnMap.Get(tt.field)
			if !ok || got != tt.column {
				t.Errorf("expected %s -> %s, got %q (ok=%v)", tt.field, tt.column, got, ok)
			}
		})
	}

	if len(res.Evidence) != 7 {
		t.Fatalf("expected 7 evidence entries, got %d", len(res.Evidence))
	}
	for _, ev := range res.Evidence {
		if ev.Strategy != StrategyRetrieval {
			t.Errorf("unexpected strategy %q", ev.Strategy)
		}
		if ev.Confidence < DefaultAcceptThreshold || ev.Confidence > 1 {
			t.Errorf("confidence out of range: %v", ev.Confidence)
		}
	}
	if res.Evidence[0].Rationale != "Matched 'Origin' to 'lane_origin' via synonym retrieval." {
		t.Errorf("unexpected rationale %q", res.Evidence[0].Rationale)
	}
}

func TestExactFieldNameIsMaximal(t *testing.T) {
	m := newTestMapper()
	res := m.BuildColumnMapping([]string{"rate_value"})

	if len(res.Evidence) != 1 {
		t.Fatalf("expected 1 evidence entry, got %d", len(res.Evidence))
	}
	if res.Evidence[0].Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %v", res.Evidence[0].Confidence)
	}
}

func TestUnrecognizableColumnExcluded(t *testing.T) {
	m := newTestMapper()
	res := m.BuildColumnMapping([]string{"xyz123", "Foo"})

	if res.ColumnMap.Len() != 0 {
		t.Errorf("expected empty mapping, got %v", res.ColumnMap.Map())
	}
	if len(res.Evidence) != 0 {
		t.Errorf("expected no evidence, got %d", len(res.Evidence))
	}
}

func TestLastWriterWins(t *testing.T) {
	m := newTestMapper()
	res := m.BuildColumnMapping([]string{"Rate", "Origin", "Price"})

	if got, _ := res.ColumnMap.Get("rate_value"); got != "Price" {
		t.Errorf("expected later column to win, got %q", got)
	}
	if !reflect.DeepEqual(res.ColumnMap.Fields(), []string{"rate_value", "lane_origin"}) {
		t.Errorf("overwrite must keep first position, got %v", res.ColumnMap.Fields())
	}
	if len(res.Evidence) != 3 {
		t.Errorf("expected evidence for every accepted column, got %d", len(res.Evidence))
	}
}

func TestBuildColumnMappingIdempotent(t *testing.T) {
	m := newTestMapper()
	cols := []string{"Carrier", "POL", "POD", "Price USD", "Currency", "Remarks", "xyz123"}

	a := m.BuildColumnMapping(cols)
	b := m.BuildColumnMapping(cols)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("mapping is not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestAcceptThresholdOption(t *testing.T) {
	strict := NewColumnMapper(catalog.Default(), MapperOptions{AcceptThreshold: 0.95})
	res := strict.BuildColumnMapping([]string{"Transit Days", "Origin"})

	if res.ColumnMap.Has("transit_days") {
		t.Errorf("transit_days should fall below a 0.95 threshold")
	}
	if !res.ColumnMap.Has("lane_origin") {
		t.Errorf("exact synonym should pass any threshold")
	}
}

func TestColumnMapJSONOrder(t *testing.T) {
	cm := NewColumnMap()
	cm.Set("rate_value", "Rate")
	cm.Set("lane_origin", "POL")
	cm.Set("rate_value", "Price")

	data, err := json.Marshal(cm)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"rate_value":"Price","lane_origin":"POL"}` {
		t.Errorf("unexpected json %s", data)
	}

	var back ColumnMap
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back.Fields(), cm.Fields()) {
		t.Errorf("expected order %v, got %v", cm.Fields(), back.Fields())
	}
}
