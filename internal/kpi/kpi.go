// Package kpi pulls headline metrics (percentages, money, user counts,
// timeline reductions) out of free-text achievement bullets.
package kpi

import (
	"regexp"
	"strings"
)

// MaxResults caps the number of KPIs returned for one list of achievements.
const MaxResults = 3

// KPI is one metric mention found in an achievement.
type KPI struct {
	Value        string `json:"value"`
	Context      string `json:"context"`
	OriginalText string `json:"original_text"`
}

// String renders the KPI as "<value> <context>".
func (k KPI) String() string { return Format(k) }

// Format renders a KPI for display.
func Format(k KPI) string {
	return k.Value + " " + k.Context
}

type rule struct {
	patterns []*regexp.Regexp
	context  func(text, value string) string
}

// rules are applied in order to every achievement; rule order decides which
// record comes first when several rules match the same text.
var rules = []rule{
	{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:by |increased?|improved?|raised?|boosted?|grew?).*?(\d+(?:\.\d+)?%)`),
		},
		context: percentContext,
	},
	{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\$(\d+(?:\.\d+)?[KMB]?)`),
		},
		context: currencyContext,
	},
	{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(\d+(?:\.\d+)?[KMB]?\+?)\s*(?:users?|customers?|people)\b`),
			regexp.MustCompile(`(?i)(?:users?|customers?)\s+from\s+\d+(?:\.\d+)?[KMB]?\+?\s+to\s+(\d+(?:\.\d+)?[KMB]?\+?)`),
		},
		context: fixed("user growth"),
	},
	{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:from )?(\d+(?:-\d+)?\s*months?)\s*to\s*(\d+\s*months?)`),
		},
		context: fixed("time reduction"),
	},
}

// Extract returns at most MaxResults KPIs across all achievements, without
// duplicate (value, context) pairs. It never panics; unexpected failures
// yield an empty result.
func Extract(achievements []string) (out []KPI) {
	if len(achievements) == 0 {
		return nil
	}
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()

	type key struct{ value, context string }
	seen := make(map[key]bool)

	for _, text := range achievements {
		for _, r := range rules {
			for _, re := range r.patterns {
				for _, m := range re.FindAllStringSubmatch(text, -1) {
					value := m[0]
					if len(m) > 1 && m[1] != "" {
						value = m[1]
					}
					k := key{value, r.context(text, value)}
					if seen[k] {
						continue
					}
					seen[k] = true
					out = append(out, KPI{Value: k.value, Context: k.context, OriginalText: text})
					if len(out) == MaxResults {
						return out
					}
				}
			}
		}
	}
	return out
}

// percentContext is the first four words of the text with the value removed.
func percentContext(text, value string) string {
	lower := strings.Replace(strings.ToLower(text), strings.ToLower(value), "", 1)
	words := strings.Fields(lower)
	if len(words) > 4 {
		words = words[:4]
	}
	return strings.Join(words, " ")
}

func currencyContext(text, value string) string {
	surrounding := text
	if i := strings.Index(text, value); i >= 0 {
		surrounding = text[:i] + text[i+len(value):]
	}
	surrounding = strings.ToLower(surrounding)

	switch {
	case strings.Contains(surrounding, "saving") || strings.Contains(surrounding, "cost"):
		return "cost savings"
	case strings.Contains(surrounding, "funding") || strings.Contains(surrounding, "secured"):
		return "funding secured"
	case strings.Contains(surrounding, "revenue") || strings.Contains(surrounding, "annual"):
		return "revenue"
	case strings.Contains(surrounding, "contract"):
		return "contract value"
	default:
		return "financial impact"
	}
}

func fixed(context string) func(string, string) string {
	return func(string, string) string { return context }
}
