package heuristics

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// UnknownAge is returned for posted-at strings that cannot be parsed; such
// leads sort after every dated lead.
const UnknownAge = math.MaxInt32

const unknownPostedAt = "unknown"

// FormatPostedAt renders a post time the way leads display it ("3 hours ago")
func FormatPostedAt(then, now time.Time) string {
	if then.IsZero() {
		return unknownPostedAt
	}
	return humanize.RelTime(then, now, "ago", "from now")
}

var (
	relativeAgePattern = regexp.MustCompile(`^(\d+|an?|one)\s+(second|minute|hour|day|week|month|year)s?\b`)

	minutesPerUnit = map[string]float64{
		"second": 1.0 / 60,
		"minute": 1,
		"hour":   60,
		"day":    24 * 60,
		"week":   7 * 24 * 60,
		"month":  30 * 24 * 60,
		"year":   365 * 24 * 60,
	}
)

// PostedAtMinutes converts a relative posted-at string back into an age in
// minutes. The parse is lossy (units are coarse) and only meant for ordering.
func PostedAtMinutes(postedAt string) int {
	return attempt("PostedAtMinutes", UnknownAge, func() int {
		s := strings.TrimSpace(strings.ToLower(postedAt))
		switch {
		case s == "now" || s == "just now":
			return 0
		case strings.HasSuffix(s, "from now"):
			return 0
		}

		match := relativeAgePattern.FindStringSubmatch(s)
		if len(match) < 3 {
			return UnknownAge
		}

		count := 1.0
		if n, err := strconv.Atoi(match[1]); err == nil {
			count = float64(n)
		}
		return int(count * minutesPerUnit[match[2]])
	})
}
