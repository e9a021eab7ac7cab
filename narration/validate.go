package narration

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// RoundingTolerance is the relative distance at which an unlisted number is
// treated as a rounded form of an allowed one.
const RoundingTolerance = 0.01

var numberPattern = regexp.MustCompile(`\$?\d[\d,]*\.?\d*`)

// calculationPhrases signal that a narrative is re-deriving figures.
var calculationPhrases = []string{
	"calculated",
	"computed",
	"multiplied",
	"divided",
	"equals",
	"totals",
	"adds up to",
}

// ExtractNumbers scans text for numeric tokens. A leading "$" and trailing
// separators are stripped: "$1,234." -> "1,234".
func ExtractNumbers(text string) []string {
	matches := numberPattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimPrefix(m, "$")
		m = strings.TrimRight(m, ".,")
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

// Validate certifies a narrative against the numbers its input allowed.
// It never errors; every problem is a violation or a warning.
func Validate(n Narrative, in Input) ValidationResult {
	res := ValidationResult{Violations: []string{}, Warnings: []string{}}

	if strings.TrimSpace(n.FriendlySummary) == "" {
		res.Violations = append(res.Violations, "Missing or invalid friendlySummary")
	}
	if n.WhatDroveTheGap == nil {
		res.Violations = append(res.Violations, "whatDroveTheGap must be an array")
	}
	if n.ThingsToDoubleCheck == nil {
		res.Violations = append(res.Violations, "thingsToDoubleCheck must be an array")
	}

	text := narrativeText(n)
	allowed := in.AllowedNumbers.Values()

	for _, num := range ExtractNumbers(text) {
		if in.AllowedNumbers.Has(num) {
			continue
		}
		if source, ok := nearestAllowed(num, allowed); ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Number %s is rounded from %s", num, source))
			continue
		}
		res.Violations = append(res.Violations, "Unauthorized number: "+num)
	}

	lower := strings.ToLower(text)
	for _, phrase := range calculationPhrases {
		if strings.Contains(lower, phrase) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Contains calculation language: %q", phrase))
		}
	}

	res.Safe = len(res.Violations) == 0
	return res
}

// nearestAllowed returns the first allowed value (in insertion order) that
// num is within RoundingTolerance of. Zero never tolerates anything.
func nearestAllowed(num string, allowed []string) (string, bool) {
	value, ok := parseNumber(num)
	if !ok {
		return "", false
	}
	for _, candidate := range allowed {
		a, ok := parseNumber(candidate)
		if !ok || a == 0 {
			continue
		}
		if math.Abs(value-a)/math.Abs(a) < RoundingTolerance {
			return candidate, true
		}
	}
	return "", false
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// narrativeText joins every field so numbers spread across the summary and
// both lists are all checked against the same set.
func narrativeText(n Narrative) string {
	parts := make([]string, 0, 1+len(n.WhatDroveTheGap)+len(n.ThingsToDoubleCheck))
	parts = append(parts, n.FriendlySummary)
	parts = append(parts, n.WhatDroveTheGap...)
	parts = append(parts, n.ThingsToDoubleCheck...)
	return strings.Join(parts, "\n")
}
