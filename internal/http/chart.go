package http

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"math"

	"finboard/internal/core"
	"finboard/internal/period"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	incomeColor  = drawing.ColorFromHex("22c55e")
	expenseColor = drawing.ColorFromHex("ef4444")
)

// maxChartLabels bounds how many x-axis labels are drawn.
const maxChartLabels = 12

// renderChart draws one income and one expense bar per bucket as SVG.
// Only every n-th day is labelled so long ranges stay legible.
func renderChart(w io.Writer, res period.Result, width, height int) error {
	if res.Empty() {
		return renderEmptyChart(w, res.Range.Label, width, height)
	}

	step := (len(res.Buckets) + maxChartLabels - 1) / maxChartLabels
	bars := make([]chart.Value, 0, 2*len(res.Buckets))
	top := 0.0
	for i, b := range res.Buckets {
		label := ""
		if i%step == 0 {
			label = b.Key
		}
		bars = append(bars,
			chart.Value{Label: label, Value: b.Income, Style: chart.Style{FillColor: incomeColor, StrokeColor: incomeColor}},
			chart.Value{Value: b.Expense, Style: chart.Style{FillColor: expenseColor, StrokeColor: expenseColor}},
		)
		top = math.Max(top, math.Max(b.Income, b.Expense))
	}
	if top <= 0 {
		top = 1
	}

	c := chart.BarChart{
		Title:    res.Range.Label,
		Width:    width,
		Height:   height,
		BarWidth: barWidth(len(bars), width),
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		XAxis: chart.Style{FontSize: 8},
		YAxis: chart.YAxis{
			Style: chart.Style{FontSize: 8},
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return core.FormatCurrency(f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := c.Render(chart.SVG, &buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func barWidth(bars, width int) int {
	w := (width - 120) / (bars + 1)
	switch {
	case w > 40:
		return 40
	case w < 2:
		return 2
	}
	return w
}

// renderEmptyChart writes a placeholder SVG; go-chart refuses to draw no bars.
func renderEmptyChart(w io.Writer, label string, width, height int) error {
	_, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
			`<rect width="100%%" height="100%%" fill="#ffffff"/>`+
			`<text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#64748b">No transactions in %s</text>`+
			`</svg>`,
		width, height, width, height, html.EscapeString(label))
	return err
}
