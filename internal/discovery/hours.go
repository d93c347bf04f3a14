package discovery

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

var closedMarkers = []string{"closed", "fermé", "ferme"}

// timeToken matches "3", "03:00", "3:00 PM", "11pm", "23h", "23h30", "3 a.m.".
var timeToken = regexp.MustCompile(`(?i)(\d{1,2})(?:\s*[:h.]\s*(\d{2}))?\s*(h\b|[ap]\.?\s?m\b\.?)?`)

// IsClosedMarker reports whether a day's hours text says the venue is closed.
func IsClosedMarker(day string) bool {
	lower := strings.ToLower(day)
	for _, m := range closedMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// ParseHours extracts the opening and closing minute-of-day from free text
// such as "11:00 PM – 3:00 AM" or "Friday: 11:00–03:00". Only the first two
// time tokens are considered.
func ParseHours(day string) (openMin, closeMin int, ok bool) {
	matches := timeToken.FindAllStringSubmatch(day, 2)
	if len(matches) < 2 {
		return 0, 0, false
	}

	openMin, ok = parseToken(matches[0])
	if !ok {
		return 0, 0, false
	}

	closeMin, ok = parseToken(matches[1])
	if !ok {
		return 0, 0, false
	}

	return openMin, closeMin, true
}

func parseToken(m []string) (int, bool) {
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil || minute > 59 {
			return 0, false
		}
	}

	suffix := strings.ToLower(strings.NewReplacer(".", "", " ", "").Replace(m[3]))
	switch suffix {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 24 || (hour == 24 && minute != 0) {
			return 0, false
		}
	}

	return hour*60 + minute, true
}

func formatClock(minute int) string {
	minute = ((minute % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
