package wastestream

import (
	"strings"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
)

// CodeInvalidEuralCode is returned for codes that are not 6 digits.
const CodeInvalidEuralCode = "INVALID_EURAL_CODE"

// NormalizeEuralCode renders an eural code as "17 04 05", keeping the
// trailing "*" that marks hazardous waste.
func NormalizeEuralCode(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	hazardous := strings.HasSuffix(s, "*")
	s = strings.TrimSuffix(s, "*")
	s = strings.NewReplacer(" ", "", ".", "", "-", "").Replace(s)
	if len(s) != 6 || !isDigits(s) {
		return "", apperror.NewBusinessRule(CodeInvalidEuralCode, "eural code must have 6 digits").
			WithDetail("euralCode", raw)
	}
	code := s[0:2] + " " + s[2:4] + " " + s[4:6]
	if hazardous {
		code += "*"
	}
	return code, nil
}
