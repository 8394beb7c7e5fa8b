// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/propmap", "pgx5://u:p@localhost:5432/propmap"},
		{"postgresql://u:p@localhost/propmap?sslmode=disable", "pgx5://u:p@localhost/propmap?sslmode=disable"},
		{"pgx5://localhost/propmap", "pgx5://localhost/propmap"},
		{"host=localhost dbname=propmap", "host=localhost dbname=propmap"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, pgx5DSN(tt.in), tt.in)
	}
}

func TestInitialSchemaSeedsNoSettings(t *testing.T) {
	up, err := os.ReadFile(filepath.Join("..", "..", "..", "data", "migrations", "000001_init.up.sql"))
	require.NoError(t, err)

	assert.Contains(t, string(up), "CREATE TABLE system.setting")
	assert.NotContains(t, strings.ToLower(string(up)), "insert into system.setting")
}
