package ledger_repo

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
)

func TestTable_Columns(t *testing.T) {
	tbl := newTable[DeclarationRecord](nil, "lma_declarations", "declaration", "id")

	assert.Equal(t, "id", tbl.cols[0])
	assert.Contains(t, tbl.cols, "transporters")
	assert.Contains(t, tbl.cols, "version")
	assert.Contains(t, tbl.cols, "updated_by")
}

func TestTable_ParseOrderBy(t *testing.T) {
	tbl := newTable[WasteStreamRecord](nil, "waste_streams", "waste stream", "number")
	tbl.sortable["number"] = "number"

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "number ASC"},
		{in: "number", want: "number ASC"},
		{in: "-created_at", want: "created_at DESC"},
		{in: "number; DROP TABLE waste_streams", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := tbl.parseOrderBy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_MapError(t *testing.T) {
	tbl := newTable[DeclarationRecord](nil, "lma_declarations", "declaration", "id")

	dup := tbl.mapError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "uq_lma_declarations_regular"}, "x")
	assert.Equal(t, apperror.CodeDuplicate, apperror.CodeOf(dup))

	fk := tbl.mapError(&pgconn.PgError{Code: pgForeignKeyViolation}, "x")
	assert.Equal(t, apperror.CodeConflict, apperror.CodeOf(fk))

	other := tbl.mapError(errors.New("connection reset"), "x")
	assert.False(t, apperror.IsAppError(other))
	assert.ErrorContains(t, other, "write lma_declarations")
}

func TestTable_SelectAllSQL(t *testing.T) {
	tbl := newTable[ImportErrorRecord](nil, "import_errors", "import error", "id")

	sql, _, err := tbl.selectAll().ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, import_id, waste_stream_number, row_number, error_code, error_message, created_at FROM import_errors",
		sql)
}
