// Package strings holds the list parsing shared by query strings and
// environment variables.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value, trimming each element and
// dropping empties and repeats. Order of first occurrence is kept.
//
//	SplitList(" broker-1:9092, ,broker-2:9092,broker-1:9092")
//	// []string{"broker-1:9092", "broker-2:9092"}
func SplitList(raw string) []string {
	return dedupe(strings.Split(raw, ","), false)
}

// SplitListLower is SplitList with each element lowercased first, so
// "Parent,parent" yields one entry.
func SplitListLower(raw string) []string {
	return dedupe(strings.Split(raw, ","), true)
}

func dedupe(values []string, lower bool) []string {
	seen := make(map[string]struct{}, len(values))
	var result []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
