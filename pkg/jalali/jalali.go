// Package jalali renders Gregorian instants as solar Hijri (Jalali) dates
// and parses Jalali date input.
package jalali

import (
	"fmt"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// Layouts in go-persian-calendar's Format tokens.
const (
	LayoutDate     = "yyyy/MM/dd"
	LayoutDateTime = "yyyy/MM/dd HH:mm"
	LayoutLong     = "dd MMM yyyy"
	LayoutFull     = "E dd MMM yyyy"
)

// Date is a civil Jalali date.
type Date struct {
	Year  int
	Month int
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, d.Month, d.Day)
}

// FromTime converts t, in its own location, to a Jalali date.
func FromTime(t time.Time) Date {
	y, m, d := ptime.New(t).Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// ToTime returns midnight of d in loc.
func (d Date) ToTime(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return ptime.Date(d.Year, ptime.Month(d.Month), d.Day, 0, 0, 0, 0, loc).Time()
}

// Format renders t, in its own location, with one of the layouts above or
// any other go-persian-calendar format string.
func Format(t time.Time, layout string) string {
	return ptime.New(t).Format(layout)
}

// Parse reads a Y/m/d (or Y-m-d) Jalali date and returns midnight in loc.
// Persian and Arabic-Indic digits are accepted.
func Parse(s string, loc *time.Location) (time.Time, error) {
	s = strings.ReplaceAll(normalizeDigits(strings.TrimSpace(s)), "-", "/")
	var y, m, d int
	if n, err := fmt.Sscanf(s, "%d/%d/%d", &y, &m, &d); err != nil || n != 3 {
		return time.Time{}, fmt.Errorf("invalid jalali date %q", s)
	}
	if loc == nil {
		loc = time.UTC
	}
	// ptime.Date normalizes overflowing days and months, so anything out of
	// range comes back as a different date.
	p := ptime.Date(y, ptime.Month(m), d, 0, 0, 0, 0, loc)
	if py, pm, pd := p.Date(); py != y || int(pm) != m || pd != d {
		return time.Time{}, fmt.Errorf("jalali date %q out of range", s)
	}
	return p.Time(), nil
}

// LooksJalali reports whether a date string is most likely Jalali, judged by
// its year.
func LooksJalali(s string) bool {
	s = normalizeDigits(strings.TrimSpace(s))
	var y int
	if _, err := fmt.Sscanf(s, "%d", &y); err != nil {
		return false
	}
	return y >= 1200 && y < 1700
}

func normalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		}
		return r
	}, s)
}
