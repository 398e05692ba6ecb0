package slots

import (
	"slices"

	"github.com/samber/lo"

	"github.com/Alijeyrad/simorq_sessions/internal/repo"
)

// Interval is a half-open wall-clock range [Start, End).
type Interval struct {
	Start repo.TimeOfDay `json:"start"`
	End   repo.TimeOfDay `json:"end"`
}

func (i Interval) Minutes() int { return int(i.End - i.Start) }

func (i Interval) Empty() bool { return i.End <= i.Start }

// Overlaps reports whether the two ranges share at least one minute.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// Union merges overlapping and touching intervals into a sorted disjoint set.
func Union(in []Interval) []Interval {
	sorted := lo.Filter(in, func(i Interval, _ int) bool { return !i.Empty() })
	slices.SortFunc(sorted, func(a, b Interval) int {
		if a.Start != b.Start {
			return int(a.Start - b.Start)
		}
		return int(a.End - b.End)
	})

	out := make([]Interval, 0, len(sorted))
	for _, iv := range sorted {
		if n := len(out); n > 0 && iv.Start <= out[n-1].End {
			if iv.End > out[n-1].End {
				out[n-1].End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Subtract removes every busy minute from free.
func Subtract(free, busy []Interval) []Interval {
	busy = Union(busy)
	var out []Interval
	for _, f := range Union(free) {
		cur := f.Start
		for _, b := range busy {
			if b.End <= cur {
				continue
			}
			if b.Start >= f.End {
				break
			}
			if b.Start > cur {
				out = append(out, Interval{Start: cur, End: b.Start})
			}
			cur = b.End
			if cur >= f.End {
				break
			}
		}
		if cur < f.End {
			out = append(out, Interval{Start: cur, End: f.End})
		}
	}
	return out
}

// Discretize cuts each interval into consecutive slots of size minutes,
// anchored at the interval start. A trailing remainder shorter than size is dropped.
func Discretize(in []Interval, size int) []Interval {
	if size <= 0 {
		return nil
	}
	var out []Interval
	step := repo.TimeOfDay(size)
	for _, iv := range Union(in) {
		for t := iv.Start; t+step <= iv.End; t += step {
			out = append(out, Interval{Start: t, End: t + step})
		}
	}
	return out
}

// Contains reports whether iv lies entirely inside one interval of set.
func Contains(set []Interval, iv Interval) bool {
	if iv.Empty() {
		return false
	}
	return lo.ContainsBy(Union(set), func(s Interval) bool {
		return s.Start <= iv.Start && iv.End <= s.End
	})
}
