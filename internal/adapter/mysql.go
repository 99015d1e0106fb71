package adapter

import (
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

type mysqlDialect struct {
	schema string
}

// NewMySQLAdapter 创建 MySQL 表来源
func NewMySQLAdapter(connStr, schema string) (*SQLAdapter, error) {
	return openSQL(mysqlDialect{schema: schema}, connStr)
}

func (mysqlDialect) driverName() string { return "mysql" }

func (d mysqlDialect) listTablesQuery() (string, []any) {
	if d.schema == "" {
		return `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`, nil
	}
	return `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`, []any{d.schema}
}

func (d mysqlDialect) selectTable(name string, limit int) string {
	q := "SELECT * FROM " + quoteMySQL(name)
	if d.schema != "" {
		q = "SELECT * FROM " + quoteMySQL(d.schema) + "." + quoteMySQL(name)
	}
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return q
}

func quoteMySQL(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}
