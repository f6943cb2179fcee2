package content

import (
	"regexp"
	"strings"
)

var (
	yearPattern    = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	nonSlugPattern = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify lower-cases s and collapses every run of characters outside
// [a-z0-9] into a single dash, trimming dashes at either end.
func Slugify(s string) string {
	s = nonSlugPattern.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// Year returns the first four-digit 19xx/20xx year in date, or "na".
func Year(date string) string {
	if y := yearPattern.FindString(date); y != "" {
		return y
	}
	return "na"
}

// Slug identifies an experience in URLs: "{year}-{company}", e.g.
// "2023-target". It backs the #exp= deep link.
func Slug(e Experience) string {
	return Year(e.Date) + "-" + Slugify(e.Company)
}
