// Package timestamp converts between playback offsets in seconds and the
// "M:SS" text used in transcripts and assistant citations.
package timestamp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format renders seconds as "M:SS". Minutes are never padded or folded into
// hours, so 3661 renders as "61:01". Fractions are floored and negative
// offsets clamp to zero.
func Format(seconds float64) string {
	total := int64(math.Floor(seconds))
	if total < 0 || math.IsNaN(seconds) {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Parse converts "M:SS" back to whole seconds. The seconds part is not
// range checked: "1:99" yields 159.
func Parse(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("parse timestamp %q: want M:SS", s)
	}
	minutes, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: minutes: %w", s, err)
	}
	secs, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: seconds: %w", s, err)
	}
	return minutes*60 + secs, nil
}
