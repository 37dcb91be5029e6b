package persistence

import "time"

// nowFunc is swapped in tests.
var nowFunc = time.Now

// journalMillis encodes an event time as Unix milliseconds. Events published
// without a timestamp are recorded at insert time so pruning still sees them.
func journalMillis(t time.Time) int64 {
	if t.IsZero() {
		t = nowFunc()
	}

	return t.UTC().UnixMilli()
}

// cutoffMillis encodes a prune boundary; a zero cutoff matches nothing.
func cutoffMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UTC().UnixMilli()
}

func journalTime(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}

	return time.UnixMilli(v)
}
