package loankit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrations tests the migration set shape
func TestMigrations(t *testing.T) {
	service := NewService(nil)
	migrations := service.Migrations()

	require.Len(t, migrations, 5)

	seen := make(map[string]bool)
	for _, m := range migrations {
		assert.NotEmpty(t, m.ID)
		assert.NotEmpty(t, m.Description)
		assert.NotEmpty(t, m.SQL)
		assert.False(t, seen[m.ID], "duplicate migration ID %s", m.ID)
		seen[m.ID] = true
	}

	assert.Equal(t, "loankit-001", migrations[0].ID)
	assert.Equal(t, "loankit-005", migrations[4].ID)
}

// TestMigrationsCarryUniquenessIndexes tests that the load-bearing
// partial indexes ship with the schema
func TestMigrationsCarryUniquenessIndexes(t *testing.T) {
	service := NewService(nil)

	var all strings.Builder
	for _, m := range service.Migrations() {
		all.WriteString(m.SQL)
	}

	sql := all.String()
	assert.Contains(t, sql, "loans_one_active_per_pair")
	assert.Contains(t, sql, "WHERE return_date IS NULL")
	assert.Contains(t, sql, "book_orders_one_waiting_per_pair")
	assert.Contains(t, sql, "WHERE status = 'waiting'")
}
