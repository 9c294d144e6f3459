package lifecycle

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the calendar-date rendering used for phase transitions.
const dateLayout = "2006-01-02"

// ParseAgeDays converts a lifecycle min_age such as "30d", "12h" or "90m"
// into fractional days. Anything else, including "0ms", parses to 0.
func ParseAgeDays(age string) float64 {
	var div float64
	switch {
	case strings.HasSuffix(age, "d"):
		div = 1
	case strings.HasSuffix(age, "h"):
		div = 24
	case strings.HasSuffix(age, "m"):
		div = 1440
	default:
		return 0
	}
	v, err := strconv.ParseFloat(age[:len(age)-1], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v / div
}

// transitionDate returns created plus days, rendered as YYYY-MM-DD in UTC.
func transitionDate(created time.Time, days float64) string {
	return created.Add(time.Duration(days * float64(24*time.Hour))).UTC().Format(dateLayout)
}
