// internal/dashboard/format.go
package dashboard

import (
	"fmt"
	"time"
)

// FormatPrice formats a price as X.XX, or "-" for zero.
func FormatPrice(p float64) string {
	if p == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", p)
}

// FormatChange formats an absolute change with an explicit sign.
func FormatChange(c float64) string {
	return fmt.Sprintf("%+.2f", c)
}

// FormatPercent formats a change percentage as "+X.XX%".
// Drops decimals for values >= 100% to keep width compact.
func FormatPercent(p float64) string {
	if p >= 100 || p <= -100 {
		return fmt.Sprintf("%+.0f%%", p)
	}
	return fmt.Sprintf("%+.2f%%", p)
}

// FormatVolume formats a share count with B/M/K suffixes.
func FormatVolume(v int64) string {
	f := float64(v)
	switch {
	case f >= 1e9:
		return fmt.Sprintf("%.1fB", f/1e9)
	case f >= 1e6:
		return fmt.Sprintf("%.1fM", f/1e6)
	case f >= 1e3:
		return fmt.Sprintf("%.1fK", f/1e3)
	default:
		return fmt.Sprintf("%d", v)
	}
}

// FormatAge renders how long ago a timestamp was, coarsely.
func FormatAge(d time.Duration) string {
	switch {
	case d < 0:
		return "-"
	case d < time.Second:
		return "<1s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}

// FormatConfidence renders a 0..1 confidence as a percentage.
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.0f%%", c*100)
}
