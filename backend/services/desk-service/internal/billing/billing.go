// Package billing contains the pure billing math. Duration in minutes is the
// source of truth for everything derived from it.
package billing

import (
	"fmt"
	"math"

	"gamedesk/backend/services/desk-service/internal/deskerr"
)

const minutesPerDay = 24 * 60

// DurationMinutes computes elapsed minutes between login and logout, both
// minutes since midnight. Sessions are same-day only: a logout at or before
// the login is rejected with a DurationError rather than interpreted as an
// overnight wraparound.
func DurationMinutes(loginMinutes, logoutMinutes int) (int, error) {
	if loginMinutes < 0 || loginMinutes >= minutesPerDay || logoutMinutes < 0 || logoutMinutes >= minutesPerDay {
		return 0, &deskerr.DurationError{LoginMinutes: loginMinutes, LogoutMinutes: logoutMinutes}
	}
	if logoutMinutes <= loginMinutes {
		return 0, &deskerr.DurationError{LoginMinutes: loginMinutes, LogoutMinutes: logoutMinutes}
	}
	return logoutMinutes - loginMinutes, nil
}

// TotalDue computes hourlyRate * (durationMinutes / 60) + extraCharges,
// rounded to 2 decimal places. Pure: identical inputs always yield the
// identical amount.
func TotalDue(hourlyRate float64, durationMinutes int, extraCharges float64) float64 {
	total := hourlyRate*(float64(durationMinutes)/60) + extraCharges
	return math.Round(total*100) / 100
}

// FormatDuration renders minutes as a short human string like "2h 15m".
func FormatDuration(durationMinutes int) string {
	hours := durationMinutes / 60
	minutes := durationMinutes % 60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", minutes)
	case minutes == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
}
