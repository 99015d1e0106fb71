package analyzer

import (
	"testing"

	"ratecard-converter/internal/table"
)

func TestProfileTable(t *testing.T) {
	tbl := table.FromRecords(
		[]string{"Origin", "Rate", "Valid From", "Currency", "Notes"},
		[][]string{
			{"Shanghai", "2,500", "2025-01-01", "USD", ""},
			{"Ningbo", "2300", "2025-02-01", "USD", "x"},
			{"Busan", "12%", "01/03/2025", "USD", ""},
			{"Qingdao", "n/a", "2025-04-01", "EUR", ""},
		},
	)

	profiles := ProfileTable(tbl)
	if len(profiles) != 5 {
		t.Fatalf("expected 5 profiles, got %d", len(profiles))
	}

	tests := []struct {
		column string
		kind   string
	}{
		{"Origin", "text"},
		{"Valid From", "date"},
		{"Currency", "category"},
		{"Notes", "text"},
	}
	byName := map[string]ColumnProfile{}
	for _, p := range profiles {
		byName[p.Column] = p
	}
	for _, tt := range tests {
		if got := byName[tt.column].Kind; got != tt.kind {
			t.Errorf("%s: expected kind %s, got %s", tt.column, tt.kind, got)
		}
	}

	rate := byName["Rate"]
	if rate.NumericRatio != 0.75 {
		t.Errorf("expected numeric ratio 0.75, got %v", rate.NumericRatio)
	}
	if byName["Notes"].NullRatio != 0.75 {
		t.Errorf("expected null ratio 0.75, got %v", byName["Notes"].NullRatio)
	}
	if got := byName["Notes"].SortedPatterns(); got[0] != "empty" {
		t.Errorf("expected empty to dominate, got %v", got)
	}
}

func TestDetectPattern(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"2500", "numeric"},
		{"-1", "numeric"},
		{"1,234.50", "numeric"},
		{"12%", "numeric"},
		{"2025-01-01", "date"},
		{"31/12/2025", "date"},
		{"Rotterdam", "text"},
		{"", "empty"},
	}
	for _, tt := range tests {
		if got := detectPattern(tt.value); got != tt.want {
			t.Errorf("detectPattern(%q) = %s, want %s", tt.value, got, tt.want)
		}
	}
}
