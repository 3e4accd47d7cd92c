package wastestream

import (
	"fmt"
	"strconv"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
)

const (
	numberLength      = 12
	processorIDLength = 5

	// MaxSequence is the highest sequence a processor can issue.
	MaxSequence int64 = 9_999_999
)

// Number is a 12-digit waste stream number (afvalstroomnummer):
// 5-digit processor id followed by a 7-digit zero-padded sequence.
type Number string

// ParseNumber validates s as a waste stream number.
func ParseNumber(s string) (Number, error) {
	if len(s) != numberLength || !isDigits(s) {
		return "", apperror.NewBusinessRule(CodeInvalidNumber, "waste stream number must be 12 digits").
			WithDetail("number", s)
	}
	return Number(s), nil
}

// ProcessorID returns the first 5 digits.
func (n Number) ProcessorID() string {
	if len(n) < processorIDLength {
		return string(n)
	}
	return string(n[:processorIDLength])
}

// Sequence returns the trailing 7 digits as an integer.
func (n Number) Sequence() int64 {
	if len(n) != numberLength {
		return 0
	}
	seq, err := strconv.ParseInt(string(n[processorIDLength:]), 10, 64)
	if err != nil {
		return 0
	}
	return seq
}

func (n Number) String() string { return string(n) }

// FormatNumber renders processorID and sequence into a Number.
func FormatNumber(processorID string, sequence int64) (Number, error) {
	if err := validateProcessorID(processorID); err != nil {
		return "", err
	}
	if sequence < 1 || sequence > MaxSequence {
		return "", exhausted(processorID)
	}
	return Number(fmt.Sprintf("%s%07d", processorID, sequence)), nil
}

// GenerateNext returns the number following highest for processorID.
// A nil highest starts the sequence at 1. The function is pure: the
// caller guarantees highest is read atomically (see SequenceName).
func GenerateNext(processorID string, highest *Number) (Number, error) {
	if err := validateProcessorID(processorID); err != nil {
		return "", err
	}
	if highest == nil {
		return FormatNumber(processorID, 1)
	}
	if _, err := ParseNumber(string(*highest)); err != nil {
		return "", err
	}
	if highest.ProcessorID() != processorID {
		return "", apperror.NewBusinessRule(CodeNumberProcessorMismatch, "highest number belongs to another processor").
			WithDetail("processorId", processorID).
			WithDetail("number", string(*highest))
	}
	next := highest.Sequence() + 1
	if next > MaxSequence {
		return "", exhausted(processorID)
	}
	return FormatNumber(processorID, next)
}

// SequenceName is the allocator counter holding the highest issued
// sequence for processorID.
func SequenceName(processorID string) string {
	return "waste_stream_" + processorID
}

func validateProcessorID(processorID string) error {
	if len(processorID) != processorIDLength || !isDigits(processorID) {
		return apperror.NewBusinessRule(CodeInvalidProcessorID, "processor id must be 5 digits").
			WithDetail("processorId", processorID)
	}
	return nil
}

func exhausted(processorID string) error {
	return apperror.NewBusinessRule(CodeExhaustedSequence, "no waste stream numbers left for processor").
		WithDetail("processorId", processorID).
		WithDetail("max", MaxSequence)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
