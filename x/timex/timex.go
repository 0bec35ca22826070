// Package timex holds time helpers shared by services and bus setup.
package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// HalfPeriod returns the edge-to-edge delay for a clock of freqHz. freqHz==0
// is coerced to 1 to avoid division by zero; the result is at least 1 ns.
func HalfPeriod(freqHz uint32) time.Duration {
	if freqHz == 0 {
		freqHz = 1
	}
	d := time.Second / time.Duration(2*uint64(freqHz))
	if d <= 0 {
		d = 1
	}
	return d
}

// Micros converts a microsecond count from config into a duration.
func Micros(us int) time.Duration { return time.Duration(us) * time.Microsecond }
