package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres/migrations"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://er:secret@db:5432/er?sslmode=disable", "pgx5://er:secret@db:5432/er?sslmode=disable"},
		{"postgresql://localhost/er", "pgx5://localhost/er"},
		{"pgx5://localhost/er", "pgx5://localhost/er"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MigrateURL(tt.in))
		})
	}
}

func TestMigrations_ArePaired(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrations_DeclarationUniqueness(t *testing.T) {
	sql, err := fs.ReadFile(migrations.FS, "0003_ledger.up.sql")
	require.NoError(t, err)

	assert.Contains(t, string(sql), "CREATE UNIQUE INDEX uq_lma_declarations_regular")
	assert.Contains(t, string(sql), "WHERE kind <> 'CORRECTION'")
}
