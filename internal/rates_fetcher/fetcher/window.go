package fetcher

import "time"

// Window is one request range. Consecutive windows share their boundary date.
type Window struct {
	From time.Time
	To   time.Time
}

// PairDates splits [start, end] into month windows. The first window starts on the first
// of start's month and the last one is the first to end after end.
func PairDates(start, end time.Time) []Window {
	from := firstOfMonth(start)

	var windows []Window
	for {
		to := from.AddDate(0, 1, 0)
		windows = append(windows, Window{From: from, To: to})

		if to.After(end) {
			break
		}
		from = to
	}

	return windows
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
