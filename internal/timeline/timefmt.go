package timeline

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var clockRegex = regexp.MustCompile(`^\s*(\d+):(\d+)(?:\.(\d+))?\s*$`)

// MaxSeconds is the largest timestamp that renders exactly. Float64 holds
// every integer up to 2^53, so minutes always fit in an int64.
const MaxSeconds = 1 << 53

// FormatTimestamp renders seconds as M:SS using floor on both components.
// Negative and non-finite inputs render as 0:00; values past MaxSeconds
// are clamped to it.
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	if seconds > MaxSeconds {
		seconds = MaxSeconds
	}
	minutes := int64(math.Floor(seconds / 60))
	secs := int64(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// ParseTimestamp accepts M:SS, M:SS.fff or a plain number of seconds.
func ParseTimestamp(s string) (float64, error) {
	if m := clockRegex.FindStringSubmatch(s); m != nil {
		minutes, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse minutes %q: %w", m[1], err)
		}
		secs, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse seconds %q: %w", m[2], err)
		}
		total := float64(minutes*60 + secs)
		if m[3] != "" {
			frac, err := strconv.ParseFloat("0."+m[3], 64)
			if err != nil {
				return 0, fmt.Errorf("parse fraction %q: %w", m[3], err)
			}
			total += frac
		}
		return total, nil
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable time %q", s)
	}
	return v, nil
}
