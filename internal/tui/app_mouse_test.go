package tui

import (
	"testing"

	"github.com/kanyini-os/kanyini/internal/tui/components"
)

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0

		for i, tab := range components.Tabs {
			w := len(tab.Name) + 2 // one column of padding each side
			if got := a.tabAtX(pos + w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 1 // separator
		}
		if got := a.tabAtX(pos + 5); got != -1 {
			t.Fatalf("x past the last tab -> %d, want -1", got)
		}
	}
}
