package services

import (
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"nhs-dashboard/internal/models"
)

// MaxModeLength bounds accepted filter values
const MaxModeLength = 256

// FilterByMode returns the entries of series whose mode equals mode exactly.
// An empty mode returns a copy of the whole series. A mode matching nothing
// returns an empty, non-nil series. series is never modified.
func FilterByMode(series models.MonthlySeries, mode string) models.MonthlySeries {
	if mode == "" {
		return slices.Clone(series)
	}
	return lo.Filter(series, func(p models.MonthlyPoint, _ int) bool {
		return p.Mode == mode
	})
}

// NormalizeMode validates a filter value received from a client. Malformed
// values (invalid UTF-8, control characters, over MaxModeLength bytes) are
// reported with ok=false and must be treated as "no filter". The value is
// otherwise returned verbatim since matching is exact.
func NormalizeMode(raw string) (mode string, ok bool) {
	if len(raw) > MaxModeLength || !utf8.ValidString(raw) {
		return "", false
	}
	for _, r := range raw {
		if unicode.IsControl(r) {
			return "", false
		}
	}
	return raw, true
}
