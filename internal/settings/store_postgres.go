// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/propmap/internal/platform/dberr"
)

// PostgresStore implements [Store] on the system.setting table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed settings store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
Get retrieves a setting row by key.

Parameters:
  - ctx: context.Context
  - key: Key

Returns:
  - *Setting: Stored row with raw JSON value
  - error: ErrNotFound or database errors
*/
func (store *PostgresStore) Get(ctx context.Context, key Key) (*Setting, error) {
	const query = `
		SELECT key, value, COALESCE(description, ''), COALESCE(updatedby::text, ''), updatedat
		FROM system.setting
		WHERE key = $1`

	setting := &Setting{}
	var rawKey string
	err := store.pool.QueryRow(ctx, query, string(key)).Scan(
		&rawKey,
		&setting.Value,
		&setting.Description,
		&setting.UpdatedBy,
		&setting.UpdatedAt,
	)

	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres_setting_store_get_failed: %w", err)
	}

	setting.Key = Key(rawKey)
	return setting, nil
}

/*
Put upserts a setting row. UpdatedAt is stamped server-side.

Parameters:
  - ctx: context.Context
  - setting: *Setting

Returns:
  - error: Persistence failures
*/
func (store *PostgresStore) Put(ctx context.Context, setting *Setting) error {
	const query = `
		INSERT INTO system.setting (key, value, description, updatedby, updatedat)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, '')::uuid, $5)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    description = COALESCE(EXCLUDED.description, system.setting.description),
		    updatedby = EXCLUDED.updatedby,
		    updatedat = EXCLUDED.updatedat`

	setting.UpdatedAt = time.Now()

	_, err := store.pool.Exec(ctx, query,
		string(setting.Key),
		[]byte(setting.Value),
		setting.Description,
		setting.UpdatedBy,
		setting.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_setting_store_put_failed: %w", err)
	}

	return nil
}

// List returns every stored row ordered by key.
func (store *PostgresStore) List(ctx context.Context) ([]Setting, error) {
	const query = `
		SELECT key, value, COALESCE(description, ''), COALESCE(updatedby::text, ''), updatedat
		FROM system.setting
		ORDER BY key`

	rows, err := store.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_setting_store_list_failed: %w", err)
	}
	defer rows.Close()

	result := make([]Setting, 0)
	for rows.Next() {
		var (
			setting Setting
			rawKey  string
		)
		if err := rows.Scan(&rawKey, &setting.Value, &setting.Description, &setting.UpdatedBy, &setting.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres_setting_store_scan_failed: %w", err)
		}
		setting.Key = Key(rawKey)
		result = append(result, setting)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_setting_store_rows_failed: %w", err)
	}

	return result, nil
}

// Delete removes a setting row.
func (store *PostgresStore) Delete(ctx context.Context, key Key) error {
	tag, err := store.pool.Exec(ctx, `DELETE FROM system.setting WHERE key = $1`, string(key))
	if err != nil {
		return fmt.Errorf("postgres_setting_store_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
