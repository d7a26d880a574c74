package plotter

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/tvlab/tvlab/pkg/types"
)

// RenderEquityPNG draws the per-bar equity curve as a PNG time series.
func RenderEquityPNG(w io.Writer, times []time.Time, equity types.Float64Slice) error {
	if len(times) != equity.Length() {
		return errors.Errorf("equity curve has %d values but %d timestamps", equity.Length(), len(times))
	}

	if len(times) < 2 {
		return errors.New("equity curve needs at least two points")
	}

	graph := chart.Chart{
		Width:  1024,
		Height: 400,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "equity",
				XValues: times,
				YValues: equity,
			},
		},
	}

	return graph.Render(chart.PNG, w)
}

// WriteEquityPNGFile renders the equity curve into a file.
func WriteEquityPNGFile(filename string, times []time.Time, equity types.Float64Slice) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	return RenderEquityPNG(f, times, equity)
}
