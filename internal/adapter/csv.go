package adapter

import (
	"bytes"
	"encoding/csv"

	"ratecard-converter/internal/table"

	"github.com/rotisserie/eris"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVLoader CSV 加载器，第一行为表头
type CSVLoader struct {
	Comma rune // 默认 ','
}

// Load 实现 FileLoader
func (l *CSVLoader) Load(content []byte) (*table.Table, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	r := csv.NewReader(bytes.NewReader(content))
	if l.Comma != 0 {
		r.Comma = l.Comma
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(table.ErrUnsupportedFormat, "read csv: %v", err)
	}
	if len(records) == 0 {
		return nil, eris.Wrap(table.ErrEmptyInput, "csv has no header row")
	}
	return table.FromRecords(records[0], records[1:]), nil
}
