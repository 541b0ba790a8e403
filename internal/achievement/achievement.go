// Package achievement scores a finished job against its target duration.
//
// Timestamps carry no year ("DD/MM - HH:MM"). They are anchored in an
// explicit reference year and never roll over into the next one, so a job
// stamped 31/12 - 22:00 to 01/01 - 02:00 has a negative elapsed time. Any
// elapsed time up to the target, negative included, scores 100.
package achievement

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// StampLayout is the wire format for job start and finish times.
const StampLayout = "02/01 - 15:04"

// parseLayout accepts single-digit day, month and hour as well.
const parseLayout = "2/1 - 15:04"

// Calculator computes achievement percentages for one reference year.
type Calculator struct {
	Year int
}

// New returns a Calculator anchored in year. A zero year means the current
// calendar year.
func New(year int) Calculator {
	if year <= 0 {
		year = time.Now().Year()
	}
	return Calculator{Year: year}
}

// Calculate returns the achievement for the given stamps and target in the
// current calendar year.
func Calculate(start, finish, target string) float64 {
	return New(0).Calculate(start, finish, target)
}

// Calculate returns a percentage in [0, 100]. Missing or malformed input
// yields 0.
func (c Calculator) Calculate(start, finish, target string) float64 {
	if start == "" || finish == "" || target == "" {
		return 0
	}
	s, ok := c.ParseStamp(start)
	if !ok {
		return 0
	}
	f, ok := c.ParseStamp(finish)
	if !ok {
		return 0
	}
	targetHours, ok := ParseTarget(target)
	if !ok {
		return 0
	}
	return Score(f.Sub(s).Hours(), targetHours)
}

// Score applies the decay formula: 100 within target, then linear down to 0
// at twice the target. elapsedHours may be negative.
func Score(elapsedHours, targetHours float64) float64 {
	if targetHours <= 0 {
		return 0
	}
	if elapsedHours <= targetHours {
		return 100
	}
	return math.Max(0, 100-(elapsedHours-targetHours)/targetHours*100)
}

// ParseStamp parses a "DD/MM - HH:MM" stamp in the calculator's year.
func (c Calculator) ParseStamp(stamp string) (time.Time, bool) {
	t, err := time.Parse(parseLayout, strings.TrimSpace(stamp))
	if err != nil {
		return time.Time{}, false
	}
	// Re-anchor explicitly; Feb 29 must exist in the reference year.
	anchored := time.Date(c.Year, t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	if anchored.Month() != t.Month() || anchored.Day() != t.Day() {
		return time.Time{}, false
	}
	return anchored, true
}

// ParseTarget extracts the hour count from a target such as "4 H", "4H" or
// "2.5 H".
func ParseTarget(target string) (float64, bool) {
	s := strings.TrimSpace(target)
	s = strings.TrimSpace(strings.TrimSuffix(s, "H"))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// FormatStamp renders t in the job stamp format.
func FormatStamp(t time.Time) string {
	return t.Format(StampLayout)
}

// FormatTarget renders an hour count as a target label.
func FormatTarget(hours int) string {
	return strconv.Itoa(hours) + " H"
}
