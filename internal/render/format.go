package render

import (
	"fmt"
	"math"

	"github.com/mattn/go-runewidth"
)

const noValue = "—"

// Volume formats a USD amount: $1.2M, $340.0K, $88.
func Volume(usd float64) string {
	switch {
	case usd >= 1_000_000:
		return fmt.Sprintf("$%.1fM", usd/1_000_000)
	case usd >= 1_000:
		return fmt.Sprintf("$%.1fK", usd/1_000)
	default:
		return fmt.Sprintf("$%.0f", usd)
	}
}

// SignedVolume formats a 24h volume change with its sign, or a dash for zero.
func SignedVolume(usd float64) string {
	switch {
	case usd > 0:
		return "+" + Volume(usd)
	case usd < 0:
		return "-" + Volume(-usd)
	default:
		return noValue
	}
}

// Price formats a probability as cents: 94¢, <1¢, 100¢.
func Price(p float64) string {
	cents := p * 100
	switch {
	case cents < 1:
		return "<1¢"
	case cents >= 99.5:
		return "100¢"
	default:
		return fmt.Sprintf("%.0f¢", cents)
	}
}

// Delta formats a price delta in cents with a direction arrow. Moves under
// 0.05¢ render as a dash and an unknown delta renders empty.
func Delta(delta *float64) string {
	if delta == nil {
		return ""
	}
	cents := *delta * 100
	if math.Abs(cents) < 0.05 {
		return noValue
	}
	arrow := "▲"
	if cents < 0 {
		arrow = "▼"
	}
	return fmt.Sprintf("%s%.1f", arrow, math.Abs(cents))
}

// Truncate shortens s to at most width terminal cells, ending with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
