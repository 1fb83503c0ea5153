package query

import (
	"regexp"
	"strings"
)

// HasAward reports whether a badge field counts as an award: non-null and
// non-empty after trimming spaces. Only ' ' is trimmed, matching SQL TRIM.
func HasAward(badges *string) bool {
	return badges != nil && strings.Trim(*badges, " ") != ""
}

// AwardCount is the number of comma-separated badge segments, or 0 when the
// field has no award. Segments are neither trimmed nor de-duplicated, so
// "Winner, Winner" and "a,,b" count 2 and 3.
func AwardCount(badges *string) int {
	if !HasAward(badges) {
		return 0
	}
	return strings.Count(*badges, ",") + 1
}

var themePattern = regexp.MustCompile(`\(([^)]+)\)\s*$`)

// Theme extracts the trailing parenthesized segment of a challenge
// description, e.g. "Build a rover (Robotics)" yields "Robotics".
func Theme(description string) (string, bool) {
	m := themePattern.FindStringSubmatch(description)
	if m == nil {
		return "", false
	}
	return m[1], true
}
