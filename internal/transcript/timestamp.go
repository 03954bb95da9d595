package transcript

import (
	"fmt"
	"regexp"
	"strconv"
)

var timestampPattern = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2}),(\d{3})$`)

// ParseTime converts an "HH:MM:SS,mmm" timestamp into milliseconds. Hours may
// run past two digits.
func ParseTime(value string) (int, error) {
	m := timestampPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("parse timestamp %q: expected HH:MM:SS,mmm", value)
	}
	parts := make([]int, 4)
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("parse timestamp %q: %w", value, err)
		}
		parts[i] = n
	}
	hours, minutes, seconds, millis := parts[0], parts[1], parts[2], parts[3]
	return hours*3600000 + minutes*60000 + seconds*1000 + millis, nil
}

// FormatTime renders milliseconds as "HH:MM:SS,mmm". Negative values clamp to zero.
func FormatTime(ms int) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3600000
	minutes := ms / 60000 % 60
	seconds := ms / 1000 % 60
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
