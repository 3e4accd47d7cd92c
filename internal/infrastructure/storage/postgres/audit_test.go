package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_CompressesLargeChanges(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)
	svc.WithCompressThreshold(64)

	large, err := json.Marshal(map[string]any{"note": strings.Repeat("x", 500)})
	require.NoError(t, err)

	entry := AuditEntry{Changes: large}
	svc.compress(&entry)

	assert.Equal(t, CompressionZstd, entry.CompressionAlgo)
	assert.Nil(t, entry.Changes)
	assert.Less(t, len(entry.ChangesCompressed), len(large))

	require.NoError(t, svc.decompress(&entry))
	assert.JSONEq(t, string(large), string(entry.Changes))
	assert.Nil(t, entry.ChangesCompressed)
}

func TestAuditService_KeepsSmallChangesInline(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	entry := AuditEntry{Changes: json.RawMessage(`{"status":"ACTIVE"}`)}
	svc.compress(&entry)

	assert.Equal(t, CompressionNone, entry.CompressionAlgo)
	assert.Nil(t, entry.ChangesCompressed)
	assert.JSONEq(t, `{"status":"ACTIVE"}`, string(entry.Changes))

	require.NoError(t, svc.decompress(&entry))
	assert.JSONEq(t, `{"status":"ACTIVE"}`, string(entry.Changes))
}

func TestAuditService_RejectsCorruptPayload(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	entry := AuditEntry{CompressionAlgo: CompressionZstd, ChangesCompressed: []byte("not zstd")}
	assert.Error(t, svc.decompress(&entry))
}
