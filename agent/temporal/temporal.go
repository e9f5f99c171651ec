package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxSpanDays is the longest date range kept as-is; longer ranges are truncated.
	MaxSpanDays = 14
	isoDate     = "2006-01-02"
)

// Result is what Extract found. Start and End are zero when no date was found;
// Month is 0 when no month applies.
type Result struct {
	Start       time.Time
	End         time.Time
	Month       int
	Approximate bool
}

func (r Result) Empty() bool {
	return r.Start.IsZero() && r.Month == 0
}

func (r Result) HasDates() bool {
	return !r.Start.IsZero()
}

func (r Result) StartISO() string { return formatISO(r.Start) }
func (r Result) EndISO() string   { return formatISO(r.End) }

func formatISO(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(isoDate)
}

const (
	monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`
	dayPattern   = `(\d{1,2})(?:st|nd|rd|th)?`
	rangeSep     = `\s*(?:to|until|till|through|thru|-|–|—|→)\s*`
)

var (
	isoRangeRe   = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})` + rangeSep + `(\d{4}-\d{2}-\d{2})`)
	isoSingleRe  = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	monthDayRng  = regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+` + dayPattern + rangeSep + `(?:` + monthPattern + `\.?\s+)?` + dayPattern + `\b`)
	dayMonthRng  = regexp.MustCompile(`(?i)\b` + dayPattern + `(?:\s+` + monthPattern + `)?` + rangeSep + dayPattern + `\s+(?:of\s+)?` + monthPattern + `\b`)
	monthDayOne  = regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+` + dayPattern + `\b`)
	dayMonthOne  = regexp.MustCompile(`(?i)\b` + dayPattern + `\s+(?:of\s+)?` + monthPattern + `\b`)
	weekendRe    = regexp.MustCompile(`(?i)\b(this|next)\s+weekend\b`)
	relativeRe   = regexp.MustCompile(`(?i)\b(today|tomorrow)\b`)
	weekdayRe    = regexp.MustCompile(`(?i)\b(?:(on|this|next)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)s?\b`)
	bareMonthRe  = regexp.MustCompile(`(?i)\b` + monthPattern + `\b`)
	fullMonthRe  = regexp.MustCompile(`^` + monthPattern + `$`)
	monthOrdinal = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
		"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
		"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
	}
	weekdays = map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
		"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	}
)

// Extract parses the first temporal expression in text relative to ref.
// Explicit dates win over bare month names; nothing found yields the empty Result.
func Extract(text string, ref time.Time) Result {
	today := dateOf(ref)

	if m := isoRangeRe.FindStringSubmatch(text); m != nil {
		start, err1 := time.Parse(isoDate, m[1])
		end, err2 := time.Parse(isoDate, m[2])
		if err1 == nil && err2 == nil && !end.Before(start) {
			return clamp(start, end)
		}
	}
	if m := isoSingleRe.FindStringSubmatch(text); m != nil {
		if d, err := time.Parse(isoDate, m[1]); err == nil {
			return Result{Start: d, End: d}
		}
	}

	if m := monthDayRng.FindStringSubmatch(text); m != nil {
		endMonth := m[1]
		if m[3] != "" {
			endMonth = m[3]
		}
		if r, ok := buildRange(today, m[1], m[2], endMonth, m[4]); ok {
			return r
		}
	}
	if m := dayMonthRng.FindStringSubmatch(text); m != nil && acceptBareMonth(m[4]) && (m[2] == "" || acceptBareMonth(m[2])) {
		startMonth := m[4]
		if m[2] != "" {
			startMonth = m[2]
		}
		if r, ok := buildRange(today, startMonth, m[1], m[4], m[3]); ok {
			return r
		}
	}
	if m := monthDayOne.FindStringSubmatch(text); m != nil {
		if d, ok := inferDate(today, m[1], m[2]); ok {
			return Result{Start: d, End: d}
		}
	}
	if m := dayMonthOne.FindStringSubmatch(text); m != nil && acceptBareMonth(m[2]) {
		if d, ok := inferDate(today, m[2], m[1]); ok {
			return Result{Start: d, End: d}
		}
	}

	if m := weekendRe.FindStringSubmatch(text); m != nil {
		sat := nextWeekday(today, time.Saturday, strings.EqualFold(m[1], "next"))
		return Result{Start: sat, End: sat.AddDate(0, 0, 1)}
	}
	if m := relativeRe.FindStringSubmatch(text); m != nil {
		d := today
		if strings.EqualFold(m[1], "tomorrow") {
			d = d.AddDate(0, 0, 1)
		}
		return Result{Start: d, End: d}
	}
	if m := weekdayRe.FindStringSubmatch(text); m != nil {
		wd := weekdays[strings.ToLower(m[2])]
		d := nextWeekday(today, wd, strings.EqualFold(m[1], "next"))
		return Result{Start: d, End: d}
	}

	for _, loc := range bareMonthRe.FindAllStringSubmatchIndex(text, -1) {
		word := text[loc[2]:loc[3]]
		if !acceptBareMonth(word) {
			continue
		}
		if month, ok := parseMonth(word); ok {
			return Result{Month: int(month)}
		}
	}
	return Result{}
}

// acceptBareMonth rejects lowercase words that are month names only by accident.
// It guards bare months and months written after the day ("3 may be fine").
func acceptBareMonth(word string) bool {
	switch strings.ToLower(word) {
	case "may", "mar", "march":
		return word[0] >= 'A' && word[0] <= 'Z'
	}
	return true
}

func buildRange(today time.Time, startMonth, startDay, endMonth, endDay string) (Result, bool) {
	start, ok := inferDate(today, startMonth, startDay)
	if !ok {
		return Result{}, false
	}
	em, ok := parseMonth(endMonth)
	if !ok {
		return Result{}, false
	}
	ed, err := strconv.Atoi(endDay)
	if err != nil {
		return Result{}, false
	}
	end, ok := makeDate(start.Year(), em, ed)
	if !ok {
		return Result{}, false
	}
	if end.Before(start) {
		end, ok = makeDate(start.Year()+1, em, ed)
		if !ok {
			return Result{}, false
		}
	}
	return clamp(start, end), true
}

// inferDate builds a date in the current year, rolling to next year if it has passed.
func inferDate(today time.Time, monthWord, dayWord string) (time.Time, bool) {
	month, ok := parseMonth(monthWord)
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayWord)
	if err != nil {
		return time.Time{}, false
	}
	d, ok := makeDate(today.Year(), month, day)
	if !ok {
		return time.Time{}, false
	}
	if d.Before(today) {
		d, ok = makeDate(today.Year()+1, month, day)
	}
	return d, ok
}

func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func clamp(start, end time.Time) Result {
	if end.Sub(start) > MaxSpanDays*24*time.Hour {
		return Result{
			Start:       start,
			End:         start.AddDate(0, 0, MaxSpanDays),
			Month:       int(start.Month()),
			Approximate: true,
		}
	}
	return Result{Start: start, End: end}
}

func nextWeekday(today time.Time, wd time.Weekday, skipThisWeek bool) time.Time {
	ahead := (int(wd) - int(today.Weekday()) + 7) % 7
	if skipThisWeek && ahead == 0 {
		ahead = 7
	}
	return today.AddDate(0, 0, ahead)
}

func parseMonth(word string) (time.Month, bool) {
	w := strings.ToLower(strings.TrimSuffix(word, "."))
	if len(w) < 3 {
		return 0, false
	}
	m, ok := monthOrdinal[w[:3]]
	return m, ok
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthName returns the English name of month m (1..12).
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return time.Month(m).String()
}

// IsCalendarWord reports whether word is a month or weekday name, so city
// extraction can skip it.
func IsCalendarWord(word string) bool {
	w := strings.ToLower(strings.Trim(word, ".,!?;:"))
	if _, ok := weekdays[strings.TrimSuffix(w, "s")]; ok {
		return true
	}
	return fullMonthRe.MatchString(w)
}

// RepresentativeWindow returns the days-long window used to approximate month:
// the next occurrence of the month, starting no earlier than today.
func RepresentativeWindow(month int, ref time.Time, days int) (time.Time, time.Time) {
	if days <= 0 {
		days = 7
	}
	today := dateOf(ref)
	year := today.Year()
	if time.Month(month) < today.Month() {
		year++
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	if start.Before(today) {
		start = today
	}
	return start, start.AddDate(0, 0, days-1)
}
