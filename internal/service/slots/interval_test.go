package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alijeyrad/simorq_sessions/internal/repo"
)

func iv(start, end string) Interval {
	s, _ := repo.ParseTimeOfDay(start)
	e, _ := repo.ParseTimeOfDay(end)
	return Interval{Start: s, End: e}
}

func TestUnion(t *testing.T) {
	tests := []struct {
		name string
		in   []Interval
		want []Interval
	}{
		{"empty", nil, []Interval{}},
		{"overlapping", []Interval{iv("10:00", "12:00"), iv("09:00", "11:00")}, []Interval{iv("09:00", "12:00")}},
		{"touching", []Interval{iv("09:00", "10:00"), iv("10:00", "11:00")}, []Interval{iv("09:00", "11:00")}},
		{"nested", []Interval{iv("09:00", "17:00"), iv("10:00", "11:00")}, []Interval{iv("09:00", "17:00")}},
		{"disjoint", []Interval{iv("14:00", "15:00"), iv("09:00", "10:00")}, []Interval{iv("09:00", "10:00"), iv("14:00", "15:00")}},
		{"drops empty", []Interval{iv("09:00", "09:00"), iv("11:00", "10:00")}, []Interval{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Union(tt.in))
		})
	}
}

func TestSubtract(t *testing.T) {
	tests := []struct {
		name       string
		free, busy []Interval
		want       []Interval
	}{
		{"no busy", []Interval{iv("09:00", "12:00")}, nil, []Interval{iv("09:00", "12:00")}},
		{"middle", []Interval{iv("09:00", "12:00")}, []Interval{iv("10:00", "11:00")}, []Interval{iv("09:00", "10:00"), iv("11:00", "12:00")}},
		{"head", []Interval{iv("09:00", "12:00")}, []Interval{iv("08:00", "10:00")}, []Interval{iv("10:00", "12:00")}},
		{"tail", []Interval{iv("09:00", "12:00")}, []Interval{iv("11:30", "13:00")}, []Interval{iv("09:00", "11:30")}},
		{"everything", []Interval{iv("09:00", "12:00")}, []Interval{iv("08:00", "13:00")}, nil},
		{"busy outside", []Interval{iv("09:00", "12:00")}, []Interval{iv("13:00", "14:00")}, []Interval{iv("09:00", "12:00")}},
		{
			"spanning two windows",
			[]Interval{iv("09:00", "11:00"), iv("13:00", "16:00")},
			[]Interval{iv("10:00", "14:00")},
			[]Interval{iv("09:00", "10:00"), iv("14:00", "16:00")},
		},
		{
			"adjacent bookings",
			[]Interval{iv("09:00", "12:00")},
			[]Interval{iv("09:00", "10:00"), iv("10:00", "11:00")},
			[]Interval{iv("11:00", "12:00")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Subtract(tt.free, tt.busy))
		})
	}
}

func TestDiscretize(t *testing.T) {
	tests := []struct {
		name string
		in   []Interval
		size int
		want []Interval
	}{
		{"exact hours", []Interval{iv("09:00", "12:00")}, 60, []Interval{iv("09:00", "10:00"), iv("10:00", "11:00"), iv("11:00", "12:00")}},
		{"drops remainder", []Interval{iv("09:00", "10:30")}, 60, []Interval{iv("09:00", "10:00")}},
		{"shorter than slot", []Interval{iv("11:30", "12:00")}, 60, nil},
		{"anchored at start", []Interval{iv("09:30", "11:30")}, 60, []Interval{iv("09:30", "10:30"), iv("10:30", "11:30")}},
		{"half hour", []Interval{iv("09:00", "10:00")}, 30, []Interval{iv("09:00", "09:30"), iv("09:30", "10:00")}},
		{"no overlap duplicates", []Interval{iv("09:00", "11:00"), iv("10:00", "12:00")}, 60, []Interval{iv("09:00", "10:00"), iv("10:00", "11:00"), iv("11:00", "12:00")}},
		{"invalid size", []Interval{iv("09:00", "10:00")}, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Discretize(tt.in, tt.size))
		})
	}
}

func TestContains(t *testing.T) {
	set := []Interval{iv("09:00", "10:30"), iv("10:30", "12:00"), iv("14:00", "15:00")}

	assert.True(t, Contains(set, iv("10:00", "11:00")), "spans touching intervals")
	assert.True(t, Contains(set, iv("14:00", "15:00")))
	assert.False(t, Contains(set, iv("11:30", "12:30")))
	assert.False(t, Contains(set, iv("12:00", "13:00")))
	assert.False(t, Contains(set, iv("10:00", "10:00")), "empty interval")
	assert.False(t, Contains(nil, iv("09:00", "10:00")))
}

func TestInterval_Overlaps(t *testing.T) {
	assert.True(t, iv("10:00", "11:00").Overlaps(iv("10:30", "11:30")))
	assert.False(t, iv("10:00", "11:00").Overlaps(iv("11:00", "12:00")))
	assert.Equal(t, 90, iv("09:00", "10:30").Minutes())
}
