package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/kanyini-os/kanyini/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToTotal(t *testing.T) {
	for _, tc := range []struct{ total, n int }{{100, 3}, {81, 4}, {7, 7}, {120, 5}} {
		widths := LayoutRow(tc.total, tc.n)
		sum := 0
		for _, w := range widths {
			sum += w
		}
		if sum != tc.total {
			t.Fatalf("LayoutRow(%d, %d) sums to %d", tc.total, tc.n, sum)
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Fatal("LayoutRow with n=0 should be nil")
	}
}

func TestCardRowPadsShortCards(t *testing.T) {
	theme.SetActive("kanyini-earth")

	short := ContentCard("Short", "Content", 22)
	tall := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)
	shortLines := lipgloss.Height(short)
	tallLines := lipgloss.Height(tall)
	if shortLines >= tallLines {
		t.Fatal("test setup: short card should be shorter than tall card")
	}

	lines := strings.Split(CardRow([]string{tall, short}), "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}
	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("line %d has no background styling: %q", i, lines[i])
		}
	}

	want := lipgloss.Width(lines[0])
	for i, line := range lines {
		if w := lipgloss.Width(line); w != want {
			t.Errorf("line %d width = %d, want %d", i, w, want)
		}
	}
}

func TestCardRowSkipsEmpty(t *testing.T) {
	card := ContentCard("Only", "x", 20)
	if got := CardRow([]string{"", card, ""}); got != card {
		t.Fatal("CardRow should ignore empty cards")
	}
	if CardRow(nil) != "" {
		t.Fatal("CardRow(nil) should be empty")
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Raised", Value: "$1.2M", Delta: "80% of goal"},
		{Label: "Donors", Value: "4,210"},
		{Label: "Active", Value: "4"},
	}, 90)
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 90 {
			t.Fatalf("line %d width = %d, want 90", i, w)
		}
	}
}
