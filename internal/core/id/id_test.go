package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsTimeOrderedV7(t *testing.T) {
	a, b := New(), New()

	assert.Equal(t, 7, int(a.Version()))
	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, a.String()[:8], b.String()[:8])
}

func TestParseOptional(t *testing.T) {
	got, err := ParseOptional("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	want := New()
	got, err = ParseOptional(want.String())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	_, err = ParseOptional("not-a-uuid")
	assert.Error(t, err)
}

func TestIsNil(t *testing.T) {
	assert.True(t, IsNil(Nil()))
	assert.False(t, IsNil(New()))
}
