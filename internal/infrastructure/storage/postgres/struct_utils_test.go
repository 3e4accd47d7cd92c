package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type StampsRecord struct {
	Version   int       `db:"version"`
	CreatedAt time.Time `db:"created_at"`
}

type lineRecord struct {
	TicketID int64  `db:"weight_ticket_id"`
	LineNo   int    `db:"line_no"`
	Number   string `db:"waste_stream_number"`
	Scratch  string `db:"-"`
	internal string
	StampsRecord
}

func TestExtractDBColumns_FollowsFieldOrder(t *testing.T) {
	cols := ExtractDBColumns[lineRecord]()

	assert.Equal(t, []string{"weight_ticket_id", "line_no", "waste_stream_number", "version", "created_at"}, cols)
}

func TestStructToMap_IncludesEmbedded(t *testing.T) {
	now := time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC)
	rec := lineRecord{
		TicketID:     7,
		LineNo:       2,
		Number:       "198080000001",
		Scratch:      "ignored",
		internal:     "ignored",
		StampsRecord: StampsRecord{Version: 3, CreatedAt: now},
	}

	m := StructToMap(&rec)

	assert.Len(t, m, 5)
	assert.Equal(t, int64(7), m["weight_ticket_id"])
	assert.Equal(t, 2, m["line_no"])
	assert.Equal(t, "198080000001", m["waste_stream_number"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, now, m["created_at"])
	assert.NotContains(t, m, "-")
}

func TestStructValues_MatchesColumns(t *testing.T) {
	rec := lineRecord{TicketID: 1, LineNo: 1, Number: "198080000002", StampsRecord: StampsRecord{Version: 1}}

	values := StructValues(rec)
	cols := ExtractDBColumns[lineRecord]()

	assert.Len(t, values, len(cols))
	assert.Equal(t, []any{int64(1), 1, "198080000002", 1, time.Time{}}, values)
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructValues("x"))
}
