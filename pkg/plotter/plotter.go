// Package plotter collects plot series, markers and levels during a backtest
// run and renders them as a candlestick HTML chart and an equity curve PNG.
package plotter

import (
	"math"

	"github.com/tvlab/tvlab/pkg/types"
)

// MarkerPosition places a marker relative to its bar.
type MarkerPosition string

const (
	AboveBar MarkerPosition = "abovebar"
	BelowBar MarkerPosition = "belowbar"
)

// Marker is a shape drawn on a specific bar.
type Marker struct {
	BarIndex int
	Price    float64
	Position MarkerPosition
	Text     string
	Color    string
}

// HLine is a horizontal level spanning the whole chart.
type HLine struct {
	Name  string
	Value float64
	Color string
}

type lineSeries struct {
	name   string
	values []float64 // NaN marks a gap
}

// Plotter accumulates one run's chart data. Call PushK once per bar, then
// Plot/Mark against the current bar.
type Plotter struct {
	Symbol string

	klines  types.KLineSlice
	order   []string
	lines   map[string]*lineSeries
	markers []Marker
	hlines  []HLine
	fills   []Fill
}

// Fill shades the band between two plotted lines.
type Fill struct {
	Upper string
	Lower string
	Color string
}

func New(symbol string) *Plotter {
	return &Plotter{
		Symbol: symbol,
		lines:  make(map[string]*lineSeries),
	}
}

// PushK starts a new bar. Plot values recorded before the next PushK belong
// to this bar.
func (p *Plotter) PushK(k types.KLine) {
	p.klines = append(p.klines, k)
	for _, s := range p.lines {
		// pad the series that were not plotted on previous bars
		for len(s.values) < len(p.klines)-1 {
			s.values = append(s.values, math.NaN())
		}
	}
}

// Plot records a named overlay value on the current bar. Bars without a value
// render as a gap.
func (p *Plotter) Plot(name string, value float64) {
	s, ok := p.lines[name]
	if !ok {
		s = &lineSeries{name: name}
		p.lines[name] = s
		p.order = append(p.order, name)
	}

	for len(s.values) < len(p.klines)-1 {
		s.values = append(s.values, math.NaN())
	}

	if len(s.values) < len(p.klines) {
		s.values = append(s.values, value)
	} else if len(p.klines) > 0 {
		s.values[len(p.klines)-1] = value
	}
}

// Mark draws a shape on the current bar. The price defaults to the bar high
// or low depending on the position.
func (p *Plotter) Mark(position MarkerPosition, text, color string) {
	if len(p.klines) == 0 {
		return
	}

	i := len(p.klines) - 1
	k := p.klines[i]

	price := k.High.Float64()
	if position == BelowBar {
		price = k.Low.Float64()
	}

	p.markers = append(p.markers, Marker{
		BarIndex: i,
		Price:    price,
		Position: position,
		Text:     text,
		Color:    color,
	})
}

// HLine adds a horizontal level.
func (p *Plotter) HLine(name string, value float64, color string) {
	p.hlines = append(p.hlines, HLine{Name: name, Value: value, Color: color})
}

// FillBetween shades the band between two plotted line names.
func (p *Plotter) FillBetween(upper, lower, color string) {
	p.fills = append(p.fills, Fill{Upper: upper, Lower: lower, Color: color})
}

func (p *Plotter) NumBars() int {
	return len(p.klines)
}

func (p *Plotter) Markers() []Marker {
	return p.markers
}

// series returns the line values padded to the bar count.
func (s *lineSeries) padded(n int) []float64 {
	out := make([]float64, n)
	copy(out, s.values)
	for i := len(s.values); i < n; i++ {
		out[i] = math.NaN()
	}
	return out
}
