package content

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidPeriod is returned for date ranges ParsePeriod cannot read.
var ErrInvalidPeriod = errors.New("content: invalid period")

var rangeSeparator = regexp.MustCompile(`\s+(?:-|to)\s+|\s*[–—]\s*`)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Point is one end of a Period.
type Point struct {
	Year     int
	Month    time.Month
	YearOnly bool
}

func (p Point) time() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (p Point) String() string {
	if p.YearOnly {
		return strconv.Itoa(p.Year)
	}
	return p.time().Format("Jan 2006")
}

// Period is a parsed experience date range.
type Period struct {
	Start   Point
	End     Point
	Current bool
	// Single is set when the source named one date only.
	Single bool
}

// ParsePeriod reads ranges such as "Jan 2022 - Present", "Sept 2019 - May
// 2023", "2021-03 – 2022-05" or a single date like "2024-02".
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Period{}, fmt.Errorf("%w: empty", ErrInvalidPeriod)
	}

	parts := rangeSeparator.Split(s, 2)
	start, current, err := parsePoint(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	if current {
		return Period{}, fmt.Errorf("%w: %q starts in the present", ErrInvalidPeriod, s)
	}
	if len(parts) == 1 {
		return Period{Start: start, End: start, Single: true}, nil
	}

	end, current, err := parsePoint(parts[1])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	if current {
		return Period{Start: start, Current: true}, nil
	}
	if end.time().Before(start.time()) {
		return Period{}, fmt.Errorf("%w: %q ends before it starts", ErrInvalidPeriod, s)
	}
	return Period{Start: start, End: end}, nil
}

func parsePoint(s string) (Point, bool, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "present", "current", "now":
		return Point{}, true, nil
	}

	if t, err := time.Parse("2006-01", s); err == nil {
		return Point{Year: t.Year(), Month: t.Month()}, false, nil
	}

	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	switch len(fields) {
	case 1:
		year, err := parseYear(fields[0])
		if err != nil {
			return Point{}, false, err
		}
		return Point{Year: year, Month: time.January, YearOnly: true}, false, nil
	case 2:
		name := strings.ToLower(strings.TrimSuffix(fields[0], "."))
		if len(name) < 3 {
			return Point{}, false, fmt.Errorf("unknown month %q", fields[0])
		}
		m, ok := months[name[:3]]
		if !ok {
			return Point{}, false, fmt.Errorf("unknown month %q", fields[0])
		}
		year, err := parseYear(fields[1])
		if err != nil {
			return Point{}, false, err
		}
		return Point{Year: year, Month: m}, false, nil
	}
	return Point{}, false, fmt.Errorf("unrecognised date %q", s)
}

func parseYear(s string) (int, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("bad year %q", s)
	}
	return strconv.Atoi(s)
}

// Label renders the period as "Jan 2022 - Present".
func (p Period) Label() string {
	switch {
	case p.Single:
		return p.Start.String()
	case p.Current:
		return p.Start.String() + " - Present"
	default:
		return p.Start.String() + " - " + p.End.String()
	}
}

// Months is the number of whole months covered, counting current periods
// up to now.
func (p Period) Months(now time.Time) int {
	end := p.End
	if p.Current {
		end = Point{Year: now.Year(), Month: now.Month()}
	}
	n := (end.Year-p.Start.Year)*12 + int(end.Month-p.Start.Month)
	if n < 0 {
		return 0
	}
	return n
}

// Tenure renders the length of the period, e.g. "2 yrs 3 mos".
func (p Period) Tenure(now time.Time) string {
	n := p.Months(now)
	if n == 0 {
		return "less than a month"
	}
	var parts []string
	if y := n / 12; y > 0 {
		parts = append(parts, plural(y, "yr"))
	}
	if m := n % 12; m > 0 {
		parts = append(parts, plural(m, "mo"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

// DateLabel formats an experience date string, falling back to the raw text
// when it cannot be parsed.
func DateLabel(date string) string {
	p, err := ParsePeriod(date)
	if err != nil {
		return date
	}
	return p.Label()
}
