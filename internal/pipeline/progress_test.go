package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/kanyini-os/kanyini/internal/model"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func campaign(id string, goal, raised float64, donors int, end time.Time) model.Campaign {
	return model.Campaign{
		ID:      id,
		Name:    "Campaign " + id,
		Goal:    goal,
		Raised:  raised,
		Donors:  donors,
		EndDate: end,
	}
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name   string
		goal   float64
		raised float64
		want   int
	}{
		{"reef restoration", 1_000_000, 800_000, 80},
		{"rounds to nearest", 2000, 1005, 50},
		{"rounds up past half", 2000, 1015, 51},
		{"over funded", 1000, 1500, 150},
		{"nothing raised", 5000, 0, 0},
		{"zero goal", 0, 400, 0},
		{"negative goal", -10, 400, 0},
		{"negative raised", 100, -50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeProgress(campaign("c", tt.goal, tt.raised, 1, testNow))
			if got != tt.want {
				t.Fatalf("ComputeProgress() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeProgressMatchesRoundedRatio(t *testing.T) {
	for goal := 1.0; goal <= 2000; goal += 137 {
		for raised := 0.0; raised <= 3000; raised += 211 {
			got := ComputeProgress(campaign("c", goal, raised, 1, testNow))
			want := int(math.Round(raised / goal * 100))
			if got != want || got < 0 {
				t.Fatalf("ComputeProgress(goal=%v, raised=%v) = %d, want %d", goal, raised, got, want)
			}
		}
	}
}

func TestComputeDaysLeft(t *testing.T) {
	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"five days out", testNow.Add(5 * 24 * time.Hour), 5},
		{"partial day rounds up", testNow.Add(30 * time.Hour), 2},
		{"one hour left", testNow.Add(time.Hour), 1},
		{"ends now", testNow, 0},
		{"ended yesterday", testNow.Add(-24 * time.Hour), -1},
		{"ended a few hours ago", testNow.Add(-3 * time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDaysLeft(campaign("c", 1, 0, 0, tt.end), testNow)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want > 0, IsActive(campaign("c", 1, 0, 0, tt.end), testNow))
		})
	}
}

func TestIsActive_ZeroEndDateIsEnded(t *testing.T) {
	assert.False(t, IsActive(model.Campaign{ID: "x", Goal: 10}, testNow))
}

func TestPartitionCampaigns(t *testing.T) {
	in := []model.Campaign{
		campaign("a", 10, 1, 1, testNow.Add(48*time.Hour)),
		campaign("b", 10, 1, 1, testNow.Add(-48*time.Hour)),
		campaign("c", 10, 1, 1, testNow.Add(time.Hour)),
		campaign("d", 10, 1, 1, testNow),
		campaign("e", 10, 1, 1, testNow.Add(400*24*time.Hour)),
	}

	p := PartitionCampaigns(in, testNow)

	ids := func(cs []model.Campaign) []string {
		out := make([]string, 0, len(cs))
		for _, c := range cs {
			out = append(out, c.ID)
		}
		return out
	}
	if diff := cmp.Diff([]string{"a", "c", "e"}, ids(p.Active)); diff != "" {
		t.Errorf("active mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "d"}, ids(p.Completed)); diff != "" {
		t.Errorf("completed mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, append(p.Active, p.Completed...), len(in))
}

func TestPartitionCampaigns_Empty(t *testing.T) {
	p := PartitionCampaigns(nil, testNow)
	assert.Empty(t, p.Active)
	assert.Empty(t, p.Completed)
}

func TestAggregateCampaigns(t *testing.T) {
	totals := AggregateCampaigns([]model.Campaign{
		campaign("a", 1_000_000, 800_000, 120, testNow),
		campaign("b", 500_000, 100_000, 30, testNow),
	})

	want := model.CampaignTotals{
		Campaigns:       2,
		TotalGoal:       1_500_000,
		TotalRaised:     900_000,
		TotalDonors:     150,
		OverallProgress: 60,
	}
	if diff := cmp.Diff(want, totals); diff != "" {
		t.Errorf("AggregateCampaigns mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateCampaigns_ZeroGoalGuarded(t *testing.T) {
	totals := AggregateCampaigns([]model.Campaign{campaign("a", 0, 50, 2, testNow)})
	assert.Equal(t, 0, totals.OverallProgress)
	assert.Equal(t, 50.0, totals.TotalRaised)

	assert.Equal(t, model.CampaignTotals{}, AggregateCampaigns(nil))
}

func TestAverageGift(t *testing.T) {
	assert.InDelta(t, 250.0, AverageGift(campaign("a", 1000, 1000, 4, testNow)), 1e-9)
	assert.Equal(t, 0.0, AverageGift(campaign("a", 1000, 1000, 0, testNow)))
	assert.Equal(t, 0.0, AverageGift(campaign("a", 1000, 0, 0, testNow)))
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		pct  int
		want model.ProgressTier
	}{
		{0, model.TierCritical},
		{24, model.TierCritical},
		{25, model.TierLow},
		{49, model.TierLow},
		{50, model.TierMid},
		{79, model.TierMid},
		{80, model.TierHigh},
		{150, model.TierHigh},
	}
	for _, tt := range tests {
		if got := TierFor(tt.pct); got != tt.want {
			t.Errorf("TierFor(%d) = %s, want %s", tt.pct, got, tt.want)
		}
	}
}

func TestCampaignProgressFor(t *testing.T) {
	c := campaign("reef", 1_000_000, 800_000, 400, testNow.Add(5*24*time.Hour))
	got := CampaignProgressFor(c, testNow)

	want := model.CampaignProgress{
		Campaign:    c,
		Percent:     80,
		Tier:        model.TierHigh,
		DaysLeft:    5,
		Active:      true,
		AverageGift: 2000,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CampaignProgressFor mismatch (-want +got):\n%s", diff)
	}
}

func TestSortProgress_StableAndKeyed(t *testing.T) {
	cs := []model.Campaign{
		campaign("a", 100, 50, 1, testNow.Add(72*time.Hour)),
		campaign("b", 100, 90, 1, testNow.Add(24*time.Hour)),
		campaign("c", 100, 50, 1, testNow.Add(48*time.Hour)),
	}
	order := func(rows []model.CampaignProgress) []string {
		var out []string
		for _, r := range rows {
			out = append(out, r.Campaign.ID)
		}
		return out
	}

	rows := BuildProgress(cs, testNow)
	SortProgress(rows, SortByProgress)
	assert.Equal(t, []string{"b", "a", "c"}, order(rows))

	rows = BuildProgress(cs, testNow)
	SortProgress(rows, SortByEnding)
	assert.Equal(t, []string{"b", "c", "a"}, order(rows))

	rows = BuildProgress(cs, testNow)
	SortProgress(rows, "bogus")
	assert.Equal(t, []string{"a", "b", "c"}, order(rows))
}

func TestFilterByCategoryAndProject(t *testing.T) {
	cs := []model.Campaign{
		{ID: "a", Category: "Marine", ProjectID: "proj-reef"},
		{ID: "b", Category: "Forest"},
		{ID: "c", Category: "marine", ProjectID: "proj-kelp"},
	}
	assert.Len(t, FilterByCategory(cs, "MARINE"), 2)
	assert.Len(t, FilterByCategory(cs, ""), 3)
	assert.Len(t, FilterByProject(cs, "reef"), 1)
	assert.Len(t, FilterByProject(cs, "proj"), 2)

	got, ok := FindCampaign(cs, "b")
	assert.True(t, ok)
	assert.Equal(t, "Forest", got.Category)
	_, ok = FindCampaign(cs, "zzz")
	assert.False(t, ok)
}

func TestFilterScope(t *testing.T) {
	cs := []model.Campaign{
		{ID: "a", Category: "Marine", ProjectID: "proj-reef"},
		{ID: "b", Category: "Forest"},
		{ID: "c", Category: "marine", ProjectID: "proj-kelp"},
	}
	ds := []model.Donation{
		{ID: "d1", CampaignID: "a"},
		{ID: "d2", CampaignID: "b"},
		{ID: "d3"},
		{ID: "d4", ProjectID: "proj-reef"},
		{ID: "d5", CampaignID: "c"},
	}
	ids := func(ds []model.Donation) []string {
		out := []string{}
		for _, d := range ds {
			out = append(out, d.ID)
		}
		return out
	}

	tests := []struct {
		name, category, project string
		wantCampaigns           int
		wantDonations           []string
	}{
		{"no filters", "", "", 3, []string{"d1", "d2", "d3", "d4", "d5"}},
		{"category drops general and other categories", "marine", "", 2, []string{"d1", "d5"}},
		{"project keeps direct project gifts", "", "reef", 1, []string{"d1", "d4"}},
		{"category and project", "marine", "kelp", 1, []string{"d5"}},
		{"disjoint", "forest", "reef", 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campaigns, donations := FilterScope(cs, ds, tt.category, tt.project)
			assert.Len(t, campaigns, tt.wantCampaigns)
			if diff := cmp.Diff(tt.wantDonations, ids(donations)); diff != "" {
				t.Errorf("donations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
