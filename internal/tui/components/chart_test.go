package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestNiceStep(t *testing.T) {
	tests := []struct {
		peak     float64
		maxTicks int
		want     float64
	}{
		{0, 5, 1},
		{100, 5, 20},
		{950, 5, 200},
		{4200, 4, 2000},
		{3, 2, 2},
	}
	for _, tt := range tests {
		if got := niceStep(tt.peak, tt.maxTicks); got != tt.want {
			t.Errorf("niceStep(%v, %d) = %v, want %v", tt.peak, tt.maxTicks, got, tt.want)
		}
	}
}

func TestAxisLabel(t *testing.T) {
	tests := map[float64]string{
		0.5:       "0.50",
		20:        "20",
		2000:      "2k",
		2500:      "2.5k",
		1_000_000: "1M",
	}
	for v, want := range tests {
		if got := axisLabel(v); got != want {
			t.Errorf("axisLabel(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestFitBarsSamplesKeepingEnds(t *testing.T) {
	values := make([]float64, 30)
	labels := make([]string, 30)
	for i := range values {
		values[i] = float64(i)
		labels[i] = string(rune('a' + i%26))
	}
	got, gotLabels := fitBars(values, labels, 11)
	if len(got) != 6 || len(gotLabels) != 6 {
		t.Fatalf("fitBars len = %d/%d, want 6", len(got), len(gotLabels))
	}
	if got[0] != 0 || got[len(got)-1] != 29 {
		t.Fatalf("fitBars dropped the ends: %v", got)
	}
}

func TestBarChartHeightAndSparklineFallback(t *testing.T) {
	vals := []float64{10, 40, 25, 0, 80}
	chart := BarChart(vals, []string{"1", "2", "3", "4", "5"}, "#ffffff", 40, 8)
	lines := strings.Split(chart, "\n")
	if len(lines) < 4 {
		t.Fatalf("chart too short: %d lines", len(lines))
	}
	if !strings.Contains(lines[len(lines)-2], "└") {
		t.Fatalf("missing x-axis line: %q", lines[len(lines)-2])
	}

	spark := BarChart(vals, nil, "#ffffff", 10, 8)
	if lipgloss.Height(spark) != 1 || lipgloss.Width(spark) != len(vals) {
		t.Fatalf("narrow chart should fall back to a sparkline, got %q", spark)
	}
}
