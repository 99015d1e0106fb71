package adapter

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLLoadTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	a := &SQLAdapter{db: db, dialect: mysqlDialect{schema: "tariffs"}}
	defer a.Close()

	rows := sqlmock.NewRows([]string{"Origin", "Destination", "Base Rate"}).
		AddRow("Shanghai", "Rotterdam", []byte("2500")).
		AddRow("Busan", nil, int64(1800))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `tariffs`.`ocean` LIMIT 50")).WillReturnRows(rows)
	mock.ExpectClose()

	tbl, err := a.LoadTable(context.Background(), "ocean", 50)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())

	v, ok := tbl.Rows[0].Get("Base Rate")
	assert.True(t, ok)
	assert.Equal(t, "2500", v)

	_, ok = tbl.Rows[1].Get("Destination")
	assert.False(t, ok, "NULL is treated as absent")

	v, _ = tbl.Rows[1].Get("Base Rate")
	assert.Equal(t, "1800", v)
}

func TestLoadQueryDropsBlankRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	a := &SQLAdapter{db: db, dialect: mysqlDialect{schema: "tariffs"}}
	defer a.Close()

	rows := sqlmock.NewRows([]string{"Origin", "Destination", "Rate"}).
		AddRow(nil, nil, nil).
		AddRow("Shanghai", "Rotterdam", "2500").
		AddRow(" ", nil, "")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT origin, destination, rate FROM lanes")).WillReturnRows(rows)
	mock.ExpectClose()

	tbl, err := a.LoadQuery(context.Background(), "SELECT origin, destination, rate FROM lanes")
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	v, _ := tbl.Rows[0].Get("Origin")
	assert.Equal(t, "Shanghai", v)
}

func TestMySQLListTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	a := &SQLAdapter{db: db, dialect: mysqlDialect{schema: "tariffs"}}

	mock.ExpectQuery("FROM INFORMATION_SCHEMA.TABLES").
		WithArgs("tariffs").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("air").AddRow("ocean"))

	names, err := a.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"air", "ocean"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLServerSelectTable(t *testing.T) {
	d := sqlServerDialect{}
	assert.Equal(t, "SELECT TOP (10) * FROM [dbo].[rates]", d.selectTable("dbo.rates", 10))
	assert.Equal(t, "SELECT * FROM [odd]]name]", d.selectTable("odd]name", 0))
}

func TestMySQLQuoting(t *testing.T) {
	d := mysqlDialect{}
	assert.Equal(t, "SELECT * FROM `we``ird`", d.selectTable("we`ird", 0))
}

func TestNewSQLAdapterUnknownDriver(t *testing.T) {
	_, err := NewSQLAdapter("oracle", "", "")
	assert.Error(t, err)
}
