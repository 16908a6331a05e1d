package util

import (
	"regexp"
	"strconv"
	"strings"
)

func SafeAtoi(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

var nonNumericRegex = regexp.MustCompile(`[^\d]`)

func CleanNumericString(s string) string {
	return nonNumericRegex.ReplaceAllString(s, "")
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CleanWhitespace collapses runs of whitespace into single spaces.
func CleanWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

var discountRegex = regexp.MustCompile(`-\s*(\d+)\s*%`)

// ParseDiscountPercent extracts 50 from labels like "-50%". Labels without a
// negative percentage yield 0.
func ParseDiscountPercent(s string) int {
	m := discountRegex.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	return SafeAtoi(m[1])
}

// ParseLeadingID reads the first entry of a comma separated id list such as
// the data-ds-appid attribute on bundle rows ("1,2,3"). ok is false when the
// entry is not a positive integer.
func ParseLeadingID(s string) (id int, ok bool) {
	first, _, _ := strings.Cut(s, ",")
	first = strings.TrimSpace(first)
	if first == "" || CleanNumericString(first) != first {
		return 0, false
	}
	id = SafeAtoi(first)
	return id, id > 0
}
