package adapter

import (
	"bytes"

	"ratecard-converter/internal/table"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

// XLSXLoader Excel 加载器
type XLSXLoader struct {
	Sheet string // 为空时读取第一个工作表
}

// Load 实现 FileLoader，首个非空行作为表头
func (l *XLSXLoader) Load(content []byte) (*table.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, eris.Wrapf(table.ErrUnsupportedFormat, "open workbook: %v", err)
	}
	defer f.Close()

	sheet := l.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, eris.Wrapf(table.ErrUnsupportedFormat, "read sheet %q: %v", sheet, err)
	}

	start := 0
	for start < len(rows) && isBlankRecord(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, eris.Wrapf(table.ErrEmptyInput, "sheet %q is empty", sheet)
	}
	return table.FromRecords(rows[start], rows[start+1:]), nil
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if v != "" {
			return false
		}
	}
	return true
}
