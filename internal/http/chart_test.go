package http

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"finboard/internal/core"
	"finboard/internal/period"
)

func TestRenderChartManyBuckets(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	var txs []core.Transaction
	for i := 0; i < 180; i++ {
		d := now.AddDate(0, 0, -i)
		txs = append(txs,
			core.Transaction{ID: "i", Date: core.At(d), Amount: core.AmountOf(float64(i)), Type: core.Income},
			core.Transaction{ID: "e", Date: core.At(d), Amount: core.AmountOf(10), Type: core.Expense},
		)
	}
	res := period.Aggregate(txs, period.Last6Months, now)

	var buf bytes.Buffer
	if err := renderChart(&buf, res, chartWidth, chartHeight); err != nil {
		t.Fatalf("renderChart: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "<svg") {
		t.Errorf("not an svg: %.60s", buf.String())
	}
}

func TestRenderChartAllZero(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{{ID: "z", Date: core.At(now), Amount: core.AmountOf("not a number"), Type: core.Income}}
	res := period.Aggregate(txs, period.LastMonth, now)

	var buf bytes.Buffer
	if err := renderChart(&buf, res, chartWidth, chartHeight); err != nil {
		t.Fatalf("renderChart: %v", err)
	}
}

func TestRenderEmptyChartEscapes(t *testing.T) {
	var buf bytes.Buffer
	if err := renderEmptyChart(&buf, "<All>", 100, 50); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<All>") || !strings.Contains(buf.String(), "&lt;All&gt;") {
		t.Errorf("label not escaped: %s", buf.String())
	}
}

func TestBarWidth(t *testing.T) {
	if w := barWidth(2, chartWidth); w != 40 {
		t.Errorf("few bars width = %d", w)
	}
	if w := barWidth(360, chartWidth); w != 2 {
		t.Errorf("many bars width = %d", w)
	}
}
