// Package chart renders rating progressions as PNG images.
package chart

import (
	"bytes"
	"errors"

	"github.com/wcharczuk/go-chart/v2"
)

// ErrTooFewPoints is returned when a progression has fewer than two points;
// a line needs at least two.
var ErrTooFewPoints = errors.New("chart: need at least two points")

// Line renders values as a single line series over their 1-based contest
// index and returns the encoded PNG.
func Line(title string, values []float64) ([]byte, error) {
	if len(values) < 2 {
		return nil, ErrTooFewPoints
	}
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i + 1)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 500,
		XAxis: chart.XAxis{
			Name: "contest",
		},
		YAxis: chart.YAxis{
			Name: "rating",
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					FillColor:   chart.ColorBlue.WithAlpha(32),
				},
				XValues: xs,
				YValues: values,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
