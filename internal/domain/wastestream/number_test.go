package wastestream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
)

func numberPtr(n Number) *Number { return &n }

func TestGenerateNext(t *testing.T) {
	tests := []struct {
		name        string
		processorID string
		highest     *Number
		want        Number
		wantCode    string
	}{
		{"first number", "19808", nil, "198080000001", ""},
		{"increments", "19808", numberPtr("198080000004"), "198080000005", ""},
		{"carries digits", "19808", numberPtr("198080009999"), "198080010000", ""},
		{"last available", "19808", numberPtr("198089999998"), "198089999999", ""},
		{"exhausted", "19808", numberPtr("198089999999"), "", CodeExhaustedSequence},
		{"other processor", "19808", numberPtr("123450000001"), "", CodeNumberProcessorMismatch},
		{"bad processor id", "1980", nil, "", CodeInvalidProcessorID},
		{"non-numeric highest", "19808", numberPtr("19808000000x"), "", CodeInvalidNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateNext(tt.processorID, tt.highest)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, apperror.HasCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateNext_StrictlyIncreasingWithoutGaps(t *testing.T) {
	var highest *Number
	for want := int64(1); want <= 500; want++ {
		next, err := GenerateNext("54321", highest)
		require.NoError(t, err)
		assert.Equal(t, want, next.Sequence())
		assert.Equal(t, "54321", next.ProcessorID())
		highest = &next
	}
}

func TestGenerateNext_Deterministic(t *testing.T) {
	a, err := GenerateNext("19808", numberPtr("198080000041"))
	require.NoError(t, err)
	b, err := GenerateNext("19808", numberPtr("198080000041"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNumber_Parts(t *testing.T) {
	n, err := ParseNumber("198080000004")
	require.NoError(t, err)
	assert.Equal(t, "19808", n.ProcessorID())
	assert.Equal(t, int64(4), n.Sequence())

	_, err = ParseNumber("19808000004")
	assert.True(t, apperror.HasCode(err, CodeInvalidNumber))
}
