package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// byteUnits are the binary multiples used by FormatBytes and ParseHumanBytes.
var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders a byte count with one decimal place and no space before
// the unit, dividing by 1024 until the value drops below 1024.
// Example: 1536 → "1.5KB". Values beyond the TB range are reported in PB.
func FormatBytes(bytes int64) string {
	v := float64(bytes)
	for _, unit := range byteUnits[:len(byteUnits)-1] {
		if math.Abs(v) < 1024 {
			return fmt.Sprintf("%.1f%s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.1f%s", v, byteUnits[len(byteUnits)-1])
}

// ParseHumanBytes parses a size such as "50gb" or "1.5TB" into bytes.
// A bare number is taken as bytes. Empty or unparseable input returns 0.
func ParseHumanBytes(s string) int64 {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	mult := 1.0
	for i := len(byteUnits) - 1; i >= 0; i-- {
		suffix := strings.ToLower(byteUnits[i])
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			mult = math.Pow(1024, float64(i))
			break
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return int64(math.Round(v * mult))
}

// FormatNumber formats an integer with locale-style comma separators.
// Example: 12345678 → "12,345,678".
// Uses strconv.FormatInt directly to avoid abs64 overflow for math.MinInt64.
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 0 {
		return "-" + insertCommas(s[1:])
	}
	return insertCommas(s)
}

// insertCommas inserts comma separators into a digit string every 3 digits from the right.
func insertCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var buf strings.Builder
	lead := n % 3
	if lead > 0 {
		buf.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(s[i : i+3])
	}
	return buf.String()
}
