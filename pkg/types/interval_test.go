package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseInterval(t *testing.T) {
	for _, s := range []string{"1m", "1h", "1d", "1w", "1M"} {
		i, err := ParseInterval(s)
		assert.NoError(t, err)
		assert.Equal(t, s, i.String())
	}

	_, err := ParseInterval("7m")
	assert.Error(t, err)
}

func TestInterval_Truncate(t *testing.T) {
	ts := time.Date(2024, time.March, 17, 13, 47, 21, 0, time.UTC)

	assert.Equal(t,
		time.Date(2024, time.March, 17, 13, 45, 0, 0, time.UTC),
		Interval15m.Truncate(ts))

	assert.Equal(t,
		time.Date(2024, time.March, 17, 0, 0, 0, 0, time.UTC),
		Interval1d.Truncate(ts))

	// months align to the calendar, not to a fixed duration
	assert.Equal(t,
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Interval1M.Truncate(ts))
}
