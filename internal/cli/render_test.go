package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/kanyini-os/kanyini/internal/model"
)

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Campaigns",
		Headers: []string{"Name", "Raised"},
		Rows: [][]string{
			{"Reef", "$800,000"},
			SeparatorRow,
			{"Total", "$1"},
		},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// title, top, header, header sep, row, sep, row, bottom
	assert.Len(t, lines, 8)

	width := lipgloss.Width(lines[1])
	for _, l := range lines[1:] {
		assert.Equal(t, width, lipgloss.Width(l), "line %q", l)
	}
	assert.Contains(t, out, "Reef")
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Equal(t, "", RenderTable(Table{}))
}

func TestRenderFundingBar(t *testing.T) {
	tests := []struct {
		pct    int
		filled int
	}{
		{0, 0},
		{50, 10},
		{80, 16},
		{150, 20},
	}
	for _, tt := range tests {
		out := RenderFundingBar(tt.pct, model.TierHigh, 20)
		assert.Equal(t, tt.filled, strings.Count(out, "█"), "pct %d", tt.pct)
		assert.Equal(t, 20-tt.filled, strings.Count(out, "░"), "pct %d", tt.pct)
		assert.Contains(t, out, FormatPercent(tt.pct))
	}
}

func TestTierColor(t *testing.T) {
	assert.Equal(t, ColorGreen, TierColor(model.TierHigh))
	assert.Equal(t, ColorYellow, TierColor(model.TierMid))
	assert.Equal(t, ColorOrange, TierColor(model.TierLow))
	assert.Equal(t, ColorRed, TierColor(model.TierCritical))
}

func TestRenderSparkline(t *testing.T) {
	assert.Equal(t, "", RenderSparkline(nil))
	assert.Equal(t, "▁█", RenderSparkline([]float64{0, 10}))
	assert.Len(t, []rune(RenderSparkline([]float64{0, 0, 0})), 3)
}
