package aggregate

import (
	"fmt"
	"math"
)

// FormatDuration renders seconds for display: "7.5s" under ten seconds,
// "42s" under a minute, then "2m" or "2m 5s".
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}

	if seconds < 10 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", int(math.Round(seconds)))
	}

	total := int(math.Round(seconds))
	minutes, rest := total/60, total%60
	if rest == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, rest)
}
