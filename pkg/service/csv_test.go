package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvlab/tvlab/pkg/types"
)

func TestReadKLinesFromCSV(t *testing.T) {
	in := strings.Join([]string{
		"time,open,high,low,close,volume",
		"1709251200,100,101,99,100.5,12.5",
		"2024-03-01T01:00:00Z,100.5,102,100,101,8",
		"2024-03-01 02:00:00,101,103,100.5,102.5,9",
	}, "\n")

	klines, err := ReadKLinesFromCSV(strings.NewReader(in), "BTCUSDT", types.Interval1h)
	require.NoError(t, err)
	require.Len(t, klines, 3)

	assert.Equal(t, "BTCUSDT", klines[0].Symbol)
	assert.Equal(t, types.Interval1h, klines[0].Interval)
	assert.True(t, klines[0].StartTime.Time().Equal(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "100.5", klines[0].Close.String())
	assert.True(t, klines[1].StartTime.Time().Equal(time.Date(2024, time.March, 1, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, "102.5", klines[2].Close.String())
}

func TestReadKLinesFromCSV_Errors(t *testing.T) {
	_, err := ReadKLinesFromCSV(strings.NewReader("yesterday,1,2,3,4,5\n"), "BTCUSDT", types.Interval1h)
	assert.Error(t, err)

	_, err = ReadKLinesFromCSV(strings.NewReader("1709251200,1,2,3,abc,5\n"), "BTCUSDT", types.Interval1h)
	assert.Error(t, err)
}

func TestWriteKLinesToCSV_RoundTrip(t *testing.T) {
	t0 := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	bars := hourBars(t0, 3)

	var sb strings.Builder
	require.NoError(t, WriteKLinesToCSV(&sb, bars))

	back, err := ReadKLinesFromCSV(strings.NewReader(sb.String()), "BTCUSDT", types.Interval1h)
	require.NoError(t, err)
	require.Len(t, back, 3)

	for i := range bars {
		assert.True(t, back[i].StartTime.Time().Equal(bars[i].StartTime.Time()))
		assert.Equal(t, bars[i].Close.String(), back[i].Close.String())
	}
}
