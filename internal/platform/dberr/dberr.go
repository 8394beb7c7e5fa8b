// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/propmap/internal/platform/apperr"
)

// PostgreSQL SQLSTATE codes the stores classify.
const (
	codeUniqueViolation           = "23505"
	codeInvalidTextRepresentation = "22P02"
)

// IsNotFound reports a lookup that matched no row. A malformed UUID key is
// treated the same way: it cannot name an existing row.
func IsNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	return hasCode(err, codeInvalidTextRepresentation)
}

// IsUniqueViolation reports a unique constraint failure.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// Wrap inspects a database error and wraps it into a meaningful error.
//
// Missing rows become apperr.NotFound(resource); anything else is wrapped
// with action for server-side logs and surfaces as an internal error.
func Wrap(err error, resource, action string) error {
	if err == nil {
		return nil
	}

	if IsNotFound(err) {
		return apperr.NotFound(resource)
	}

	return fmt.Errorf("%s: %w", action, err)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
