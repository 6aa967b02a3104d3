package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrTooFewPoints is returned when the samples span fewer than two distinct
// instants, which leaves the time axis without a range.
var ErrTooFewPoints = errors.New("need samples at 2 distinct times")

// chartPoints orders samples by time and keeps the last sample of each
// instant.
func chartPoints(samples []Sample) []Sample {
	points := slices.Clone(samples)
	slices.SortStableFunc(points, func(a, b Sample) int { return a.At.Compare(b.At) })

	out := points[:0]
	for _, p := range points {
		if n := len(out); n > 0 && out[n-1].At.Equal(p.At) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// RenderClientsChart renders a PNG line chart of realtime clients over time.
func RenderClientsChart(samples []Sample) ([]byte, error) {
	samples = chartPoints(samples)
	if len(samples) < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrTooFewPoints, len(samples))
	}

	xValues := make([]time.Time, len(samples))
	yValues := make([]float64, len(samples))
	peak := 1.0
	for i, s := range samples {
		xValues[i] = s.At
		yValues[i] = float64(s.Clients)
		peak = max(peak, yValues[i])
	}

	graph := chart.Chart{
		Title:  "Realtime Clients",
		Width:  800,
		Height: 300,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("15:04:05")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			// A flat series would otherwise give a zero-height range.
			Range: &chart.ContinuousRange{Min: 0, Max: peak + 1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: "Clients",
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("16a34a"),
					StrokeWidth: 2,
				},
				XValues: xValues,
				YValues: yValues,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
