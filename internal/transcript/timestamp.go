package transcript

import (
	"fmt"
	"math"
)

// formatClock renders seconds as zero-padded HH:MM:SS, rounding to the
// nearest whole second (half away from zero). Negative inputs clamp to zero.
func formatClock(seconds float64) string {
	total := int(math.Round(seconds))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// formatMillis renders seconds as zero-padded HH:MM:SS<sep>mmm, where sep is
// ',' for SRT cues and '.' for WebVTT cues. The whole-second component uses
// floor division; the fractional part rounds to the nearest millisecond,
// carrying into the seconds when it rounds up to a full second. Negative
// inputs clamp to zero.
func formatMillis(seconds float64, sep byte) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	millis := int(math.Round((seconds - float64(total)) * 1000))
	if millis >= 1000 {
		millis -= 1000
		total++
	}
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", total/3600, (total%3600)/60, total%60, sep, millis)
}
