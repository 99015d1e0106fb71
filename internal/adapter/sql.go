package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ratecard-converter/internal/table"

	"github.com/rotisserie/eris"
)

// dialect 不同数据库的 SQL 差异
type dialect interface {
	driverName() string
	listTablesQuery() (string, []any)
	selectTable(name string, limit int) string
}

// SQLAdapter 通用 SQL 表来源
type SQLAdapter struct {
	db      *sql.DB
	dialect dialect
}

var _ DBAdapter = (*SQLAdapter)(nil)

// NewSQLAdapter 按驱动名创建适配器（mysql / sqlserver）
func NewSQLAdapter(driver, connStr, schema string) (*SQLAdapter, error) {
	switch driver {
	case "mysql":
		return NewMySQLAdapter(connStr, schema)
	case "sqlserver", "mssql":
		return NewSQLServerAdapter(connStr)
	default:
		return nil, eris.Errorf("unsupported database driver: %s", driver)
	}
}

func openSQL(d dialect, connStr string) (*SQLAdapter, error) {
	db, err := sql.Open(d.driverName(), connStr)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", d.driverName())
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, eris.Wrapf(err, "ping %s", d.driverName())
	}
	return &SQLAdapter{db: db, dialect: d}, nil
}

// ListTables 实现 DBAdapter
func (a *SQLAdapter) ListTables(ctx context.Context) ([]string, error) {
	query, args := a.dialect.listTablesQuery()
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "list tables")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "scan table name")
		}
		names = append(names, name)
	}
	return names, eris.Wrap(rows.Err(), "list tables")
}

// LoadTable 实现 DBAdapter
func (a *SQLAdapter) LoadTable(ctx context.Context, name string, limit int) (*table.Table, error) {
	return a.LoadQuery(ctx, a.dialect.selectTable(name, limit))
}

// LoadQuery 实现 DBAdapter
func (a *SQLAdapter) LoadQuery(ctx context.Context, query string) (*table.Table, error) {
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "run query")
	}
	defer rows.Close()
	return rowsToTable(rows)
}

// Close 实现 DBAdapter
func (a *SQLAdapter) Close() error {
	return a.db.Close()
}

// rowsToTable 把结果集转为字符串表格，NULL 视为缺失
func rowsToTable(rows *sql.Rows) (*table.Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "read columns")
	}

	var records [][]string
	present := make([][]bool, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrap(err, "scan row")
		}

		rec := make([]string, len(cols))
		ok := make([]bool, len(cols))
		blank := true
		for i, v := range vals {
			rec[i], ok[i] = cellString(v)
			if ok[i] && strings.TrimSpace(rec[i]) != "" {
				blank = false
			}
		}
		// 全 NULL/空白行与文件来源一致地丢弃
		if blank {
			continue
		}
		records = append(records, rec)
		present = append(present, ok)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate rows")
	}

	t := table.FromRecords(cols, nil)
	for i, rec := range records {
		row := make(table.MapRow, len(cols))
		for j, h := range t.Headers {
			if present[i][j] {
				row[h] = rec[j]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func cellString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case []byte:
		return string(x), true
	case string:
		return x, true
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02"), true
		}
		return x.Format(time.RFC3339), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return fmt.Sprint(x), true
	}
}
