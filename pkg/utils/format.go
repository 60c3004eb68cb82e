package utils

import "fmt"

// FormatDuration renders a duration in seconds as "M:SS" for user-facing
// output, e.g. 83.4 -> "1:23".
func FormatDuration(seconds float64) string {
	minutes := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
