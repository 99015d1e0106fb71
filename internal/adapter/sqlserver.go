package adapter

import (
	"fmt"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"
)

type sqlServerDialect struct{}

// NewSQLServerAdapter 创建 SQL Server 表来源
func NewSQLServerAdapter(connStr string) (*SQLAdapter, error) {
	return openSQL(sqlServerDialect{}, connStr)
}

func (sqlServerDialect) driverName() string { return "sqlserver" }

func (sqlServerDialect) listTablesQuery() (string, []any) {
	return `
		SELECT TABLE_SCHEMA + '.' + TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_SCHEMA, TABLE_NAME
	`, nil
}

// selectTable 支持 schema.table 形式的表名
func (sqlServerDialect) selectTable(name string, limit int) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "[" + strings.ReplaceAll(p, "]", "]]") + "]"
	}
	if limit > 0 {
		return fmt.Sprintf("SELECT TOP (%d) * FROM %s", limit, strings.Join(parts, "."))
	}
	return "SELECT * FROM " + strings.Join(parts, ".")
}
