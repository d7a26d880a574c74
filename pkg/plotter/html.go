package plotter

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML writes the candlestick chart with the plotted overlays, markers
// and levels as a standalone HTML page.
func (p *Plotter) RenderHTML(w io.Writer) error {
	x := make([]string, 0, len(p.klines))
	candles := make([]opts.KlineData, 0, len(p.klines))
	for _, k := range p.klines {
		x = append(x, k.StartTime.Time().Format("2006-01-02 15:04"))
		candles = append(candles, opts.KlineData{Value: [4]float64{
			k.Open.Float64(), k.Close.Float64(), k.Low.Float64(), k.High.Float64(),
		}})
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: p.Symbol}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	kline.SetXAxis(x).AddSeries(p.Symbol, candles)

	for _, name := range p.order {
		s := p.lines[name]
		data := make([]opts.LineData, 0, len(p.klines))
		for _, v := range s.padded(len(p.klines)) {
			if math.IsNaN(v) {
				data = append(data, opts.LineData{Value: nil})
			} else {
				data = append(data, opts.LineData{Value: v})
			}
		}

		line := charts.NewLine()
		line.SetXAxis(x).AddSeries(name, data)
		kline.Overlap(line)
	}

	// a band renders as a transparent base line plus a stacked delta with an
	// area style
	for i, f := range p.fills {
		upper, uok := p.lines[f.Upper]
		lower, lok := p.lines[f.Lower]
		if !uok || !lok {
			continue
		}

		uv := upper.padded(len(p.klines))
		lv := lower.padded(len(p.klines))

		base := make([]opts.LineData, 0, len(p.klines))
		band := make([]opts.LineData, 0, len(p.klines))
		for j := range uv {
			if math.IsNaN(uv[j]) || math.IsNaN(lv[j]) {
				base = append(base, opts.LineData{Value: nil})
				band = append(band, opts.LineData{Value: nil})
				continue
			}
			base = append(base, opts.LineData{Value: lv[j]})
			band = append(band, opts.LineData{Value: uv[j] - lv[j]})
		}

		stack := fmt.Sprintf("fill-%d", i)
		line := charts.NewLine()
		line.SetXAxis(x).
			AddSeries(f.Upper+"/"+f.Lower, base,
				charts.WithLineStyleOpts(opts.LineStyle{Opacity: opts.Float(0)}),
				charts.WithLineChartOpts(opts.LineChart{Stack: stack})).
			AddSeries("", band,
				charts.WithLineStyleOpts(opts.LineStyle{Opacity: opts.Float(0)}),
				charts.WithLineChartOpts(opts.LineChart{Stack: stack}),
				charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.2)}))
		kline.Overlap(line)
	}

	for _, hl := range p.hlines {
		data := make([]opts.LineData, 0, len(p.klines))
		for range p.klines {
			data = append(data, opts.LineData{Value: hl.Value})
		}
		line := charts.NewLine()
		line.SetXAxis(x).AddSeries(hl.Name, data)
		kline.Overlap(line)
	}

	if len(p.markers) > 0 {
		above := make([]opts.ScatterData, 0, len(p.klines))
		below := make([]opts.ScatterData, 0, len(p.klines))
		for range p.klines {
			above = append(above, opts.ScatterData{Value: nil})
			below = append(below, opts.ScatterData{Value: nil})
		}

		for _, m := range p.markers {
			d := opts.ScatterData{
				Value:      m.Price,
				Symbol:     "triangle",
				SymbolSize: 12,
			}
			if m.Position == AboveBar {
				d.SymbolRotate = 180
				above[m.BarIndex] = d
			} else {
				below[m.BarIndex] = d
			}
		}

		scatter := charts.NewScatter()
		scatter.SetXAxis(x).
			AddSeries("sell", above).
			AddSeries("buy", below)
		kline.Overlap(scatter)
	}

	page := components.NewPage()
	page.AddCharts(kline)
	return page.Render(w)
}

// WriteHTMLFile renders the chart into a file.
func (p *Plotter) WriteHTMLFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	return p.RenderHTML(f)
}
