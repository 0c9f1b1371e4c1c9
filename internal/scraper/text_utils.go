// Package scraper provides text processing utilities for ad extraction.
package scraper

import (
	"strings"
)

// CleanWhitespace collapses runs of whitespace into single spaces
func CleanWhitespace(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

// ContainsAny checks if a string contains any of the substrings (case-insensitive)
func ContainsAny(s string, substrings []string) bool {
	sLower := strings.ToLower(s)
	for _, substr := range substrings {
		if substr == "" {
			continue
		}
		if strings.Contains(sLower, strings.ToLower(substr)) {
			return true
		}
	}
	return false
}

// IsLoginWall checks if page text indicates a login or consent wall
func IsLoginWall(text string) bool {
	return ContainsAny(text, LoginWallPatterns)
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// runeLen returns the number of characters in s
func runeLen(s string) int {
	return len([]rune(s))
}
