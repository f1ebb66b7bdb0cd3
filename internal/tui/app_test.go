package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kanyini-os/kanyini/internal/config"
	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/pipeline"
)

var asOf = time.Date(2026, 10, 19, 12, 0, 0, 0, time.Local)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func loadedApp() App {
	a := App{
		opts:   Options{DataDir: "testdata", Days: 30, AsOf: asOf},
		days:   30,
		width:  140,
		height: 40,
	}
	a.applyData(DataLoadedMsg{
		Campaigns: []model.Campaign{
			{ID: "reef", Name: "Reef Restoration", Goal: 1000, Raised: 800, Donors: 4, EndDate: date(2026, 10, 24)},
			{ID: "koala", Name: "Koala Corridors", Goal: 1000, Raised: 300, Donors: 3, EndDate: date(2026, 12, 1)},
			{ID: "murray", Name: "Murray Wetlands", Goal: 500, Raised: 600, Donors: 9, EndDate: date(2026, 6, 30)},
		},
		Donations: []model.Donation{
			{ID: "d1", DonorID: "ava", CampaignID: "reef", Amount: 50, Date: date(2026, 10, 1), Method: "card"},
			{ID: "d2", DonorID: "liam", CampaignID: "koala", Amount: 20, Date: date(2026, 10, 12), Method: "paypal"},
			{ID: "d3", DonorID: "mia", ProjectID: "p-river", Amount: 10, Date: date(2026, 10, 15), Method: "cash"},
			{ID: "d4", DonorID: "old", CampaignID: "reef", Amount: 99, Date: date(2026, 8, 1), Method: "card"},
		},
	})
	a.loaded = true
	return a
}

func press(a App, keys ...string) App {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ := a.Update(msg)
		a = m.(App)
	}
	return a
}

func TestRecomputeUsesAsOfWindow(t *testing.T) {
	a := loadedApp()

	if len(a.partition.Active) != 2 || len(a.partition.Completed) != 1 {
		t.Fatalf("partition = %d active / %d completed, want 2/1", len(a.partition.Active), len(a.partition.Completed))
	}
	if a.totals.OverallProgress != 68 {
		t.Fatalf("OverallProgress = %d, want 68", a.totals.OverallProgress)
	}
	if a.summary.Count != 3 {
		t.Fatalf("window donations = %d, want 3 (d4 is outside 30d)", a.summary.Count)
	}
	if a.recent[0].ID != "d3" {
		t.Fatalf("recent[0] = %s, want newest d3", a.recent[0].ID)
	}
	if len(a.daily) != 31 {
		t.Fatalf("daily buckets = %d, want 31", len(a.daily))
	}
}

func TestTabKeys(t *testing.T) {
	a := loadedApp()
	for key, want := range map[string]int{"c": tabCampaigns, "d": tabDonations, "s": tabSettings, "o": tabOverview} {
		if got := press(a, key).activeTab; got != want {
			t.Errorf("key %q -> tab %d, want %d", key, got, want)
		}
	}
}

func TestCampaignsActiveToggleAndSort(t *testing.T) {
	a := press(loadedApp(), "c")
	if len(a.rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(a.rows))
	}

	a = press(a, "a")
	if !a.camp.activeOnly || len(a.rows) != 2 {
		t.Fatalf("after a: activeOnly=%v rows=%d, want true/2", a.camp.activeOnly, len(a.rows))
	}

	a = press(a, "a", "S")
	if a.camp.sortKey != pipeline.SortByProgress {
		t.Fatalf("sortKey = %q, want progress", a.camp.sortKey)
	}
	if a.rows[0].Campaign.ID != "murray" {
		t.Fatalf("first by progress = %s, want murray (120%%)", a.rows[0].Campaign.ID)
	}

	a = press(a, "j", "j", "j")
	if a.camp.cursor != 2 {
		t.Fatalf("cursor = %d, want clamped to 2", a.camp.cursor)
	}
	a = press(a, "enter")
	if !a.camp.detail {
		t.Fatal("enter should open detail")
	}
	a = press(a, "q")
	if a.camp.detail {
		t.Fatal("q in detail should close detail, not quit")
	}
}

func TestDonationSearch(t *testing.T) {
	a := press(loadedApp(), "d", "/")
	if !a.don.searching {
		t.Fatal("/ should start search")
	}
	a = press(a, "p", "a", "y", "enter")
	if a.don.searchQuery != "pay" {
		t.Fatalf("searchQuery = %q, want pay", a.don.searchQuery)
	}
	got := a.searchFilteredDonations()
	if len(got) != 1 || got[0].ID != "d2" {
		t.Fatalf("search results = %+v, want d2 only", got)
	}

	a = press(a, "esc")
	if a.don.searchQuery != "" {
		t.Fatal("esc should clear the search")
	}
}

func TestAttributionTarget(t *testing.T) {
	a := loadedApp()
	cases := map[string]string{
		"d1": "Reef Restoration",
		"d3": "project p-river",
	}
	for _, d := range a.donations {
		if want, ok := cases[d.ID]; ok {
			if got := a.attributionTarget(d); got != want {
				t.Errorf("attributionTarget(%s) = %q, want %q", d.ID, got, want)
			}
		}
	}
	if got := a.attributionTarget(model.Donation{}); got != "general fund" {
		t.Errorf("unattributed = %q", got)
	}
}

func TestViewMainRendersEveryTab(t *testing.T) {
	a := loadedApp()
	for tab := range 4 {
		a.activeTab = tab
		out := a.View()
		if lines := strings.Count(out, "\n") + 1; lines != a.height {
			t.Errorf("tab %d rendered %d lines, want %d", tab, lines, a.height)
		}
	}
}

func TestChartDateLabels(t *testing.T) {
	days := []model.DailyStats{
		{Date: date(2026, 10, 2)},
		{Date: date(2026, 10, 1)},
		{Date: date(2026, 9, 30)},
	}
	got := chartDateLabels(days)
	want := []string{"Sep", "Oct", "2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chartDateLabels = %v, want %v", got, want)
		}
	}
}

func TestApplySetup(t *testing.T) {
	cfg := config.DefaultConfig()
	ApplySetup(&cfg, SetupValues{DataDir: " /srv/fixtures ", Days: 90, Currency: "NZD", Theme: "nope"})

	if cfg.General.DataDir != "/srv/fixtures" {
		t.Errorf("DataDir = %q", cfg.General.DataDir)
	}
	if cfg.General.DefaultDays != 90 {
		t.Errorf("DefaultDays = %d", cfg.General.DefaultDays)
	}
	if cfg.General.Currency != "NZD" || cfg.General.Locale != "en-NZ" {
		t.Errorf("currency/locale = %s/%s, want NZD/en-NZ", cfg.General.Currency, cfg.General.Locale)
	}
	if cfg.Appearance.Theme != "kanyini-earth" {
		t.Errorf("unknown theme should fall back, got %q", cfg.Appearance.Theme)
	}
}

func TestNextSortKeyCycles(t *testing.T) {
	key := ""
	for range campaignSortKeys {
		key = nextSortKey(key)
	}
	if key != "" {
		t.Fatalf("cycle did not return to file order, got %q", key)
	}
}
