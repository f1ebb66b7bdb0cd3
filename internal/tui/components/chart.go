package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kanyini-os/kanyini/internal/tui/theme"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a one-line unicode sparkline scaled to the largest value.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(sparkBlocks)-1))
		idx = max(0, min(idx, len(sparkBlocks)-1))
		buf.WriteRune(sparkBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(buf.String())
}

// BarChart renders a vertical bar chart with a labelled y-axis.
// values are oldest-left; labels, when the same length, are printed below.
// Falls back to a sparkline when the area is too small.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	step := niceStep(peak, max(2, height/2))
	ceiling := step * math.Max(1, math.Ceil(peak/step))
	ticks := int(math.Round(ceiling / step))
	rowsPerTick := max(1, height/ticks)
	chartH := rowsPerTick * ticks

	axisW := max(4, len(axisLabel(ceiling))+1)
	plotW := max(5, width-axisW-1)

	values, labels = fitBars(values, labels, plotW)
	n := len(values)
	barW := min(6, max(1, (plotW-(n-1))/n))
	axisLen := n*barW + (n - 1)

	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	bar := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		top := ceiling * float64(row) / float64(chartH)
		bottom := ceiling * float64(row-1) / float64(chartH)

		label := ""
		if row%rowsPerTick == 0 {
			label = axisLabel(step * float64(row/rowsPerTick))
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", axisW, label)))

		for i, v := range values {
			if i > 0 {
				b.WriteString(blank.Render(" "))
			}
			switch {
			case v >= top:
				b.WriteString(bar.Render(strings.Repeat("█", barW)))
			case v > bottom:
				frac := (v - bottom) / (top - bottom)
				idx := max(0, min(int(frac*float64(len(sparkBlocks))), len(sparkBlocks)-1))
				b.WriteString(bar.Render(strings.Repeat(string(sparkBlocks[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", axisW, "0", strings.Repeat("─", axisLen))))

	if len(labels) == n {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", axisW+1)))
		b.WriteString(axis.Render(xAxisLabels(labels, barW, axisLen)))
	}
	return b.String()
}

// fitBars samples values down so each bar gets at least one column plus a gap.
func fitBars(values []float64, labels []string, plotW int) ([]float64, []string) {
	n := len(values)
	limit := max(2, (plotW+1)/2)
	if n <= limit {
		return values, labels
	}
	sampled := make([]float64, limit)
	var sampledLabels []string
	if len(labels) == n {
		sampledLabels = make([]string, limit)
	}
	for i := range sampled {
		src := i * (n - 1) / (limit - 1)
		sampled[i] = values[src]
		if sampledLabels != nil {
			sampledLabels[i] = labels[src]
		}
	}
	return sampled, sampledLabels
}

// xAxisLabels places labels under their bars, skipping any that would collide.
func xAxisLabels(labels []string, barW, axisLen int) string {
	buf := []rune(strings.Repeat(" ", axisLen))
	lastEnd := -1
	for i, lbl := range labels {
		pos := i * (barW + 1)
		r := []rune(lbl)
		if pos <= lastEnd || pos+len(r) > axisLen {
			continue
		}
		copy(buf[pos:], r)
		lastEnd = pos + len(r)
	}
	return strings.TrimRight(string(buf), " ")
}

// niceStep picks a 1/2/5 × 10^k tick step giving at most maxTicks intervals.
func niceStep(peak float64, maxTicks int) float64 {
	if peak <= 0 {
		return 1
	}
	base := math.Pow(10, math.Floor(math.Log10(peak/float64(maxTicks))))
	for _, m := range []float64{1, 2, 5, 10, 20, 50} {
		if step := base * m; math.Ceil(peak/step) <= float64(maxTicks) {
			return step
		}
	}
	return base * 100
}

func axisLabel(v float64) string {
	switch {
	case v >= 1e6:
		return trimZero(fmt.Sprintf("%.1f", v/1e6)) + "M"
	case v >= 1e3:
		return trimZero(fmt.Sprintf("%.1f", v/1e3)) + "k"
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}
