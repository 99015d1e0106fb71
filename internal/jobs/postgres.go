package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ratecard-converter/internal/convert"

	_ "github.com/lib/pq"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS rate_cards (
	id            UUID PRIMARY KEY,
	filename      TEXT NOT NULL,
	provider_used TEXT NOT NULL DEFAULT '',
	row_count     INTEGER NOT NULL,
	rejected_rows INTEGER NOT NULL,
	result        JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresRepository PostgreSQL 实现
type PostgresRepository struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) *PostgresRepository { return &PostgresRepository{db: db} }

// OpenPostgres 打开连接并建表
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	r := NewPostgresRepository(db)
	if err := r.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Save(ctx context.Context, card *RateCard) error {
	result, err := json.Marshal(card.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO rate_cards (id, filename, provider_used, row_count, rejected_rows, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, card.ID, card.Filename, card.ProviderUsed, card.RowCount, card.RejectedRows, result, card.CreatedAt)
	if err != nil {
		return fmt.Errorf("save rate card: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*RateCard, error) {
	c := &RateCard{}
	var result []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, filename, provider_used, row_count, rejected_rows, result, created_at
		FROM rate_cards
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Filename, &c.ProviderUsed, &c.RowCount, &c.RejectedRows, &result, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRateCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rate card: %w", err)
	}
	c.Result = &convert.ConversionResult{}
	if err := json.Unmarshal(result, c.Result); err != nil {
		return nil, fmt.Errorf("decode rate card result: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]RateCard, error) {
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
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list rate cards: %w", err)
	}
	defer rows.Close()

	cards := []RateCard{}
	for rows.Next() {
		var c RateCard
		if err := rows.Scan(&c.ID, &c.Filename, &c.ProviderUsed, &c.RowCount, &c.RejectedRows, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rate card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rate cards: %w", err)
	}
	return cards, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rate_cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rate card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRateCardNotFound
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
