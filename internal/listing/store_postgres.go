// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package listing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/propmap/internal/platform/apperr"
	"github.com/taibuivan/propmap/internal/platform/database/schema"
	"github.com/taibuivan/propmap/internal/platform/dberr"
)

// # PostgreSQL Repository

// PostgresRepository implements [Repository] on listing.property.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed listing store.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var propertyColumns = strings.Join(schema.ListingProperty.Columns(), ", ")

func scanProperty(row pgx.Row, extra ...any) (*Property, error) {
	property := &Property{}
	targets := []any{
		&property.ID,
		&property.Slug,
		&property.Title,
		&property.Description,
		&property.Category,
		&property.Address,
		&property.Latitude,
		&property.Longitude,
		&property.Deposit,
		&property.MonthlyRent,
		&property.KeyMoney,
		&property.AreaSqm,
		&property.Floor,
		&property.AgentID,
		&property.ContactName,
		&property.ContactPhone,
		&property.AvgRentPerSqm,
		&property.FootTraffic,
		&property.VacancyRate,
		&property.Status,
		&property.CreatedAt,
		&property.UpdatedAt,
	}

	if err := row.Scan(append(targets, extra...)...); err != nil {
		return nil, err
	}
	return property, nil
}

// where renders the filter of q starting at placeholder $1.
func where(q Query) (string, []any) {
	table := schema.ListingProperty

	var builder strings.Builder
	var args []any

	builder.WriteString(fmt.Sprintf(" WHERE %s IS NULL", table.DeletedAt))

	if !q.IncludeHidden {
		args = append(args, StatusActive)
		builder.WriteString(fmt.Sprintf(" AND %s = $%d", table.Status, len(args)))
	}

	if box := q.Bounds; box != nil {
		args = append(args, box.MinLatitude, box.MaxLatitude, box.MinLongitude, box.MaxLongitude)
		n := len(args)
		builder.WriteString(fmt.Sprintf(" AND %s BETWEEN $%d AND $%d AND %s BETWEEN $%d AND $%d",
			table.Latitude, n-3, n-2, table.Longitude, n-1, n))
	}

	if len(q.Categories) > 0 {
		categories := make([]string, 0, len(q.Categories))
		for _, category := range q.Categories {
			categories = append(categories, string(category))
		}
		args = append(args, categories)
		builder.WriteString(fmt.Sprintf(" AND %s = ANY($%d)", table.Category, len(args)))
	}

	if q.AgentID != "" {
		args = append(args, q.AgentID)
		builder.WriteString(fmt.Sprintf(" AND %s = $%d", table.AgentID, len(args)))
	}

	return builder.String(), args
}

/*
List returns a filtered page of listings and the total count.

Description: The total is taken with a window function, so a page costs a
single round-trip.
*/
func (repository *PostgresRepository) List(ctx context.Context, q Query) ([]*Property, int, error) {
	filter, args := where(q)
	args = append(args, q.Page.Limit, q.Page.Offset())

	query := fmt.Sprintf(`SELECT %s, COUNT(*) OVER() AS total FROM %s%s ORDER BY %s DESC LIMIT $%d OFFSET $%d`,
		propertyColumns, schema.ListingProperty.Table, filter,
		schema.ListingProperty.CreatedAt, len(args)-1, len(args),
	)

	rows, err := repository.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_listing_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var (
		properties []*Property
		total      int
	)
	for rows.Next() {
		property, err := scanProperty(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_listing_repo_scan_failed: %w", err)
		}
		properties = append(properties, property)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_listing_repo_rows_failed: %w", err)
	}

	return properties, total, nil
}

// Each streams matching listings to fn without buffering the result set.
func (repository *PostgresRepository) Each(ctx context.Context, q Query, limit int, fn func(*Property) error) error {
	filter, args := where(q)
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s DESC LIMIT $%d`,
		propertyColumns, schema.ListingProperty.Table, filter,
		schema.ListingProperty.CreatedAt, len(args),
	)

	rows, err := repository.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres_listing_repo_each_failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return fmt.Errorf("postgres_listing_repo_scan_failed: %w", err)
		}
		if err := fn(property); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (repository *PostgresRepository) findBy(ctx context.Context, column string, value string) (*Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL`,
		propertyColumns, schema.ListingProperty.Table, column, schema.ListingProperty.DeletedAt,
	)

	property, err := scanProperty(repository.pool.QueryRow(ctx, query, value))
	if err != nil {
		return nil, dberr.Wrap(err, "Property", "postgres_listing_repo_find_failed")
	}

	return property, nil
}

// FindByID retrieves a live listing by primary key.
func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Property, error) {
	return repository.findBy(ctx, schema.ListingProperty.ID, id)
}

// FindBySlug retrieves a live listing by its URL slug.
func (repository *PostgresRepository) FindBySlug(ctx context.Context, slug string) (*Property, error) {
	return repository.findBy(ctx, schema.ListingProperty.Slug, slug)
}

// Create inserts a new listing.
func (repository *PostgresRepository) Create(ctx context.Context, property *Property) error {
	columns := schema.ListingProperty.Columns()
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		schema.ListingProperty.Table, propertyColumns, strings.Join(placeholders, ", "),
	)

	now := time.Now()
	property.CreatedAt, property.UpdatedAt = now, now

	_, err := repository.pool.Exec(ctx, query,
		property.ID,
		property.Slug,
		property.Title,
		property.Description,
		property.Category,
		property.Address,
		property.Latitude,
		property.Longitude,
		property.Deposit,
		property.MonthlyRent,
		property.KeyMoney,
		property.AreaSqm,
		property.Floor,
		property.AgentID,
		property.ContactName,
		property.ContactPhone,
		property.AvgRentPerSqm,
		property.FootTraffic,
		property.VacancyRate,
		property.Status,
		property.CreatedAt,
		property.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("A listing with this slug already exists")
		}
		return fmt.Errorf("postgres_listing_repo_create_failed: %w", err)
	}

	return nil
}

// Update writes every mutable column of a live listing.
func (repository *PostgresRepository) Update(ctx context.Context, property *Property) error {
	table := schema.ListingProperty
	query := fmt.Sprintf(`
		UPDATE %s SET
			%s = $1, %s = $2, %s = $3, %s = $4, %s = $5, %s = $6,
			%s = $7, %s = $8, %s = $9, %s = $10, %s = $11,
			%s = $12, %s = $13, %s = $14, %s = $15, %s = $16,
			%s = $17, %s = $18
		WHERE %s = $19 AND %s IS NULL`,
		table.Table,
		table.Title, table.Description, table.Category, table.Address, table.Latitude, table.Longitude,
		table.Deposit, table.MonthlyRent, table.KeyMoney, table.AreaSqm, table.Floor,
		table.ContactName, table.ContactPhone, table.AvgRentPerSqm, table.FootTraffic, table.VacancyRate,
		table.Status, table.UpdatedAt,
		table.ID, table.DeletedAt,
	)

	property.UpdatedAt = time.Now()

	result, err := repository.pool.Exec(ctx, query,
		property.Title,
		property.Description,
		property.Category,
		property.Address,
		property.Latitude,
		property.Longitude,
		property.Deposit,
		property.MonthlyRent,
		property.KeyMoney,
		property.AreaSqm,
		property.Floor,
		property.ContactName,
		property.ContactPhone,
		property.AvgRentPerSqm,
		property.FootTraffic,
		property.VacancyRate,
		property.Status,
		property.UpdatedAt,
		property.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres_listing_repo_update_failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Property")
	}
	return nil
}

// SoftDelete flags a listing as deleted.
func (repository *PostgresRepository) SoftDelete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = NOW() WHERE %s = $1 AND %s IS NULL`,
		schema.ListingProperty.Table, schema.ListingProperty.DeletedAt,
		schema.ListingProperty.ID, schema.ListingProperty.DeletedAt,
	)

	result, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		if dberr.IsNotFound(err) {
			return apperr.NotFound("Property")
		}
		return fmt.Errorf("postgres_listing_repo_delete_failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Property")
	}
	return nil
}
