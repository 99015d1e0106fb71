package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"ratecard-converter/internal/convert"

	_ "modernc.org/sqlite"
)

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS rate_cards (
	id            TEXT PRIMARY KEY,
	filename      TEXT NOT NULL,
	provider_used TEXT NOT NULL DEFAULT '',
	row_count     INTEGER NOT NULL,
	rejected_rows INTEGER NOT NULL,
	result        TEXT NOT NULL,
	created_at    TEXT NOT NULL
)`

// sqliteTimeLayout 定长格式，按字符串排序即按时间排序
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteRepository 单文件 SQLite 实现，供 CLI 和单机部署使用
type SQLiteRepository struct{ db *sql.DB }

// OpenSQLite 打开（或创建）数据库文件并建表；path 可以是 ":memory:"
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, card *RateCard) error {
	result, err := json.Marshal(card.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO rate_cards (id, filename, provider_used, row_count, rejected_rows, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, card.ID, card.Filename, card.ProviderUsed, card.RowCount, card.RejectedRows,
		string(result), card.CreatedAt.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return fmt.Errorf("save rate card: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*RateCard, error) {
	c := &RateCard{}
	var result, created string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, filename, provider_used, row_count, rejected_rows, result, created_at
		FROM rate_cards
		WHERE id = ?
	`, id).Scan(&c.ID, &c.Filename, &c.ProviderUsed, &c.RowCount, &c.RejectedRows, &result, &created)
	if err == sql.ErrNoRows {
		return nil, ErrRateCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rate card: %w", err)
	}
	if c.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	c.Result = &convert.ConversionResult{}
	if err := json.Unmarshal([]byte(result), c.Result); err != nil {
		return nil, fmt.Errorf("decode rate card result: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) List(ctx context.Context, limit, offset int) ([]RateCard, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, provider_used, row_count, rejected_rows, created_at
		FROM rate_cards
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list rate cards: %w", err)
	}
	defer rows.Close()

	cards := []RateCard{}
	for rows.Next() {
		var c RateCard
		var created string
		if err := rows.Scan(&c.ID, &c.Filename, &c.ProviderUsed, &c.RowCount, &c.RejectedRows, &created); err != nil {
			return nil, fmt.Errorf("scan rate card: %w", err)
		}
		if c.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
			return nil, fmt.Errorf("decode created_at: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rate cards: %w", err)
	}
	return cards, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rate_cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rate card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRateCardNotFound
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
