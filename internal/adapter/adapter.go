package adapter

import (
	"context"
	"path/filepath"
	"strings"

	"ratecard-converter/internal/table"

	"github.com/rotisserie/eris"
)

// DBAdapter 数据库表来源接口（费率卡直接存放在承运商数据库中时使用）
type DBAdapter interface {
	// ListTables 列出可读取的表
	ListTables(ctx context.Context) ([]string, error)

	// LoadTable 读取整张表（limit<=0 表示不限制）
	LoadTable(ctx context.Context, name string, limit int) (*table.Table, error)

	// LoadQuery 执行只读查询并转为表格
	LoadQuery(ctx context.Context, query string) (*table.Table, error)

	// Close 关闭连接
	Close() error
}

// FileLoader 文件内容加载器
type FileLoader interface {
	Load(content []byte) (*table.Table, error)
}

// Format 文件格式
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat 根据扩展名判断格式
func DetectFormat(filename string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	switch ext {
	case "csv", "txt":
		return FormatCSV, nil
	case "xlsx", "xlsm":
		return FormatXLSX, nil
	case "pdf":
		return "", eris.Wrap(table.ErrUnsupportedFormat, "PDF table extraction is not available")
	case "xls":
		return "", eris.Wrap(table.ErrUnsupportedFormat, "legacy .xls workbooks are not supported, save as .xlsx")
	default:
		return "", eris.Wrapf(table.ErrUnsupportedFormat, "unsupported format: .%s", ext)
	}
}

// LoaderFor 返回格式对应的加载器
func LoaderFor(f Format) FileLoader {
	switch f {
	case FormatXLSX:
		return &XLSXLoader{}
	default:
		return &CSVLoader{}
	}
}

// Load 按文件名选择加载器并解析内容
func Load(filename string, content []byte) (*table.Table, error) {
	f, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	return LoaderFor(f).Load(content)
}
