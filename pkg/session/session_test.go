package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(weekday time.Weekday, hour, min int) time.Time {
	// 2024-01-07 is a Sunday
	base := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(weekday)).Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func TestParse(t *testing.T) {
	s, err := Parse("0930-1600:23456", "UTC")
	assert.NoError(t, err)
	assert.Len(t, s.Ranges, 1)
	assert.Equal(t, 9*60+30, s.Ranges[0].Start)
	assert.Equal(t, 16*60, s.Ranges[0].End)
	assert.False(t, s.Ranges[0].Days[1], "Sunday excluded")
	assert.True(t, s.Ranges[0].Days[2], "Monday included")

	_, err = Parse("930-1600", "UTC")
	assert.Error(t, err)

	_, err = Parse("0930-1600:", "UTC")
	assert.Error(t, err)

	_, err = Parse("0930-1600:89", "UTC")
	assert.Error(t, err)
}

func TestContains_RegularHours(t *testing.T) {
	s := MustParse("0930-1600:23456", "UTC")

	assert.True(t, s.Contains(at(time.Monday, 9, 30)))
	assert.True(t, s.Contains(at(time.Friday, 15, 59)))
	assert.False(t, s.Contains(at(time.Monday, 16, 0)), "end is exclusive")
	assert.False(t, s.Contains(at(time.Monday, 9, 29)))
	assert.False(t, s.Contains(at(time.Sunday, 12, 0)), "not a session day")
}

func TestContains_MultipleRanges(t *testing.T) {
	s := MustParse("0900-1200,1300-1700", "UTC")

	assert.True(t, s.Contains(at(time.Monday, 10, 0)))
	assert.False(t, s.Contains(at(time.Monday, 12, 30)), "lunch break")
	assert.True(t, s.Contains(at(time.Monday, 13, 0)))
}

func TestContains_Overnight(t *testing.T) {
	// mask applies to the day the session ends on: "2" means the session
	// that ends Monday morning, which starts Sunday evening.
	s := MustParse("1700-0200:23456", "UTC")

	assert.True(t, s.Contains(at(time.Sunday, 18, 0)), "Sunday evening belongs to Monday's session")
	assert.True(t, s.Contains(at(time.Monday, 1, 0)))
	assert.False(t, s.Contains(at(time.Monday, 2, 0)), "end is exclusive")
	assert.False(t, s.Contains(at(time.Monday, 12, 0)))
	assert.False(t, s.Contains(at(time.Friday, 18, 0)), "Saturday session excluded by mask")
}

func TestContains_24x7(t *testing.T) {
	s := MustParse("24x7", "UTC")
	assert.True(t, s.Contains(at(time.Sunday, 0, 0)))
	assert.True(t, s.Contains(at(time.Saturday, 23, 59)))
}

func TestContains_Timezone(t *testing.T) {
	s := MustParse("0930-1600:23456", "America/New_York")

	// 14:30 UTC on a January Monday is 09:30 in New York
	assert.True(t, s.Contains(at(time.Monday, 14, 30)))
	assert.False(t, s.Contains(at(time.Monday, 14, 29)))
}

func TestTracker(t *testing.T) {
	s := MustParse("0930-1600:23456", "UTC")
	tr := NewTracker(s)

	first, last := tr.Update(at(time.Monday, 9, 0))
	assert.False(t, first)
	assert.False(t, last)

	first, last = tr.Update(at(time.Monday, 9, 30))
	assert.True(t, first)
	assert.False(t, last)

	first, last = tr.Update(at(time.Monday, 10, 0))
	assert.False(t, first)
	assert.False(t, last)

	first, last = tr.Update(at(time.Monday, 16, 0))
	assert.False(t, first)
	assert.True(t, last, "previous bar was the last of the session")
}
