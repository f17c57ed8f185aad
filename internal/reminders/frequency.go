package reminders

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockTime is a time-of-day a dose reminder should fire.
type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// defaultDoseTime is the fallback for frequency text we do not recognize.
// Dose reminders are best-effort: an unknown phrase degrades to one daily
// reminder instead of dropping the patient.
var defaultDoseTime = ClockTime{Hour: 9}

// ResolveFrequency maps a human-readable dosing frequency to daily clock
// times. Total over all inputs: the result is never empty.
func ResolveFrequency(text string) []ClockTime {
	normalized := strings.ToLower(strings.TrimSpace(text))

	switch {
	case normalized == "":
		return []ClockTime{defaultDoseTime}

	// Specific phrases first: "twice daily" also contains "daily".
	case contains(normalized, "twice daily", "twice a day", "2 times daily", "two times daily"):
		return []ClockTime{{Hour: 9}, {Hour: 21}}

	case contains(normalized, "3 times daily", "three times daily", "thrice daily", "3 times a day"):
		return []ClockTime{{Hour: 8}, {Hour: 14}, {Hour: 20}}

	case contains(normalized, "4 times daily", "four times daily", "4 times a day"):
		return []ClockTime{{Hour: 6}, {Hour: 12}, {Hour: 18}, {Hour: 22}}

	case contains(normalized, "before meals", "with meals", "after meals", "with food"):
		return []ClockTime{{Hour: 8}, {Hour: 13}, {Hour: 19}}

	case contains(normalized, "bedtime", "before bed", "at night"):
		return []ClockTime{{Hour: 22}}

	case contains(normalized, "in the morning", "every morning"):
		return []ClockTime{{Hour: 8}}

	case strings.Contains(normalized, "every") && strings.Contains(normalized, "hour"):
		if times := everyNHours(normalized); len(times) > 0 {
			return times
		}
		return []ClockTime{defaultDoseTime}

	case contains(normalized, "once daily", "once a day", "daily", "every day", "1 time daily"):
		return []ClockTime{{Hour: 9}}

	default:
		return []ClockTime{defaultDoseTime}
	}
}

// everyNHours expands "every N hours" into waking-hour dose times starting
// at 06:00 and stopping before midnight.
func everyNHours(text string) []ClockTime {
	n := 0
	for _, field := range strings.Fields(text) {
		if v, err := strconv.Atoi(field); err == nil && v > 0 {
			n = v
			break
		}
	}
	if n == 0 || n > 24 {
		return nil
	}

	var times []ClockTime
	for hour := 6; hour < 24; hour += n {
		times = append(times, ClockTime{Hour: hour})
	}
	return times
}

func contains(text string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
