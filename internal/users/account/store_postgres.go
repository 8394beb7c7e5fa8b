// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/propmap/internal/identity"
	"github.com/taibuivan/propmap/internal/platform/apperr"
	"github.com/taibuivan/propmap/internal/platform/database/schema"
	"github.com/taibuivan/propmap/internal/platform/dberr"
	"github.com/taibuivan/propmap/internal/platform/sec"
	"github.com/taibuivan/propmap/internal/users/auth"
	"github.com/taibuivan/propmap/pkg/pagination"
)

// # Repository Implementations

// PostgresAccountRepository implements [AccountRepository] using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new Postgres implementation for account standing.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

func accountColumns() string {
	return strings.Join(schema.UserAccount.Columns(), ", ")
}

func scanAccount(row pgx.Row) (*auth.User, error) {
	user := &auth.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.Role,
		&user.Tier,
		&user.ApprovalStatus,
		&user.CanViewBlurred,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// # AccountRepository Methods

/*
FindByID retrieves an account from the users.account table.

Returns:
  - *auth.User: Hydrated identity entity
  - error: apperr.NotFound or database execution failure
*/
func (repository *PostgresAccountRepository) FindByID(ctx context.Context, id string) (*auth.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL`,
		accountColumns(),
		schema.UserAccount.Table, schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	)

	user, err := scanAccount(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

// ListByStatus returns one page of accounts in the given review state.
func (repository *PostgresAccountRepository) ListByStatus(ctx context.Context, status sec.ApprovalStatus, params pagination.Params) ([]*auth.User, int, error) {
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s IS NULL`,
		schema.UserAccount.Table, schema.UserAccount.ApprovalStatus, schema.UserAccount.DeletedAt,
	)

	var total int
	if err := repository.pool.QueryRow(ctx, countQuery, status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_count_failed: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND %s IS NULL
		ORDER BY %s ASC
		LIMIT $2 OFFSET $3`,
		accountColumns(), schema.UserAccount.Table,
		schema.UserAccount.ApprovalStatus, schema.UserAccount.DeletedAt,
		schema.UserAccount.CreatedAt,
	)

	rows, err := repository.pool.Query(ctx, listQuery, status, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_failed: %w", err)
	}
	defer rows.Close()

	users := make([]*auth.User, 0, params.Limit)
	for rows.Next() {
		user, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_account_repo_scan_failed: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_rows_failed: %w", err)
	}

	return users, total, nil
}

/*
SaveAccess writes the access-relevant columns of an account.

Description: Only role, tier, approval status and the blurred grant are
written; credentials and profile data are never touched here.
*/
func (repository *PostgresAccountRepository) SaveAccess(ctx context.Context, user *auth.User) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $1, %s = $2, %s = $3, %s = $4, %s = $5
		WHERE %s = $6 AND %s IS NULL`,
		schema.UserAccount.Table,
		schema.UserAccount.Role, schema.UserAccount.Tier, schema.UserAccount.ApprovalStatus,
		schema.UserAccount.CanViewBlurred, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	)

	user.UpdatedAt = time.Now()

	result, err := repository.pool.Exec(ctx, query,
		user.Role,
		user.Tier,
		user.ApprovalStatus,
		user.CanViewBlurred,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_save_access_failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}

// # Profile Store

// PostgresProfileStore implements [identity.ProfileStore] on users.account.
type PostgresProfileStore struct {
	pool *pgxpool.Pool
}

// NewProfileStore creates the profile source used by identity resolution.
func NewProfileStore(pool *pgxpool.Pool) *PostgresProfileStore {
	return &PostgresProfileStore{pool: pool}
}

/*
ProfileByID loads the access fields of a live account.

Returns:
  - *identity.Profile: Role, tier, approval, grant and display name
  - error: identity.ErrProfileNotFound for unknown, deleted or malformed ids
*/
func (store *PostgresProfileStore) ProfileByID(ctx context.Context, id string) (*identity.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL`,
		strings.Join(schema.UserAccount.AccessColumns(), ", "),
		schema.UserAccount.Table, schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	)

	profile := &identity.Profile{}
	err := store.pool.QueryRow(ctx, query, id).Scan(
		&profile.Role,
		&profile.Tier,
		&profile.ApprovalStatus,
		&profile.CanViewBlurred,
		&profile.DisplayName,
	)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, identity.ErrProfileNotFound
		}
		return nil, fmt.Errorf("postgres_profile_store_load_failed: %w", err)
	}

	return profile, nil
}
