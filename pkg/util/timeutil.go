package util

import "time"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ISO8601 formats ts in UTC with sub-second precision.
func ISO8601(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}
