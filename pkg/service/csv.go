package service

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
	"github.com/tvlab/tvlab/pkg/types"
)

var csvHeader = []string{"time", "open", "high", "low", "close", "volume"}

// ReadKLinesFromCSV parses a time,open,high,low,close,volume file into closed
// bars of the given symbol and interval. The time column accepts unix
// seconds, unix milliseconds or RFC 3339.
func ReadKLinesFromCSV(r io.Reader, symbol string, interval types.Interval) ([]types.KLine, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	var klines []types.KLine
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		line++
		if line == 1 && strings.EqualFold(record[0], "time") {
			continue
		}

		if len(record) < 6 {
			return nil, errors.Errorf("line %d: expected 6 columns, got %d", line, len(record))
		}

		startTime, err := parseCSVTime(record[0])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		values := make([]fixedpoint.Value, 5)
		for i := 0; i < 5; i++ {
			v, err := fixedpoint.NewFromString(record[i+1])
			if err != nil {
				return nil, errors.Wrapf(err, "line %d column %s", line, csvHeader[i+1])
			}
			values[i] = v
		}

		klines = append(klines, types.NewKLine(symbol, interval, startTime,
			values[0], values[1], values[2], values[3], values[4]))
	}

	return klines, nil
}

// ReadKLinesFromCSVFile is ReadKLinesFromCSV on a file path.
func ReadKLinesFromCSVFile(filename, symbol string, interval types.Interval) ([]types.KLine, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadKLinesFromCSV(f, symbol, interval)
}

func parseCSVTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		// heuristic: values this large are unix milliseconds
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC(), nil
	}

	return time.Time{}, errors.Errorf("unrecognized time %q", s)
}

// WriteKLinesToCSV writes bars with unix-second timestamps.
func WriteKLinesToCSV(w io.Writer, klines []types.KLine) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, k := range klines {
		record := []string{
			strconv.FormatInt(k.StartTime.Unix(), 10),
			k.Open.String(),
			k.High.String(),
			k.Low.String(),
			k.Close.String(),
			k.Volume.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ImportCSV loads a CSV file into the klines table and returns the number of
// imported bars.
func (s *KLineService) ImportCSV(filename, symbol string, interval types.Interval) (int, error) {
	klines, err := ReadKLinesFromCSVFile(filename, symbol, interval)
	if err != nil {
		return 0, err
	}

	if err := s.BatchInsert(klines); err != nil {
		return 0, err
	}

	return len(klines), nil
}
