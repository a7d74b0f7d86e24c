// Package heuristics holds the pure text functions used to filter and score
// raw posts from third-party sources.
//
// Every exported function runs through attempt, so unexpected input (invalid
// UTF-8, pathological strings) yields the zero/default result instead of a panic.
package heuristics

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// attempt runs fn and returns fallback if fn panics
func attempt[T any](name string, fallback T, fn func() T) (result T) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Debugf("heuristics: %s recovered from %v", name, r)
			result = fallback
		}
	}()
	return fn()
}

// findSubmatch returns the first submatch set or nil
func findSubmatch(re *regexp.Regexp, text string) []string {
	return attempt("findSubmatch", nil, func() []string {
		return re.FindStringSubmatch(text)
	})
}

func matches(re *regexp.Regexp, text string) bool {
	return attempt("matches", false, func() bool {
		return re.MatchString(text)
	})
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// normalize lower-cases text and drops invalid UTF-8
func normalize(text string) string {
	return strings.ToLower(strings.ToValidUTF8(text, ""))
}
