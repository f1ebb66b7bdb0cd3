package pipeline

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kanyini-os/kanyini/internal/model"
)

// Tier thresholds in whole percent.
const (
	tierHighPct = 80
	tierMidPct  = 50
	tierLowPct  = 25
)

// ComputeProgress returns round(raised/goal*100).
// A campaign without a positive goal reports 0.
func ComputeProgress(c model.Campaign) int {
	if c.Goal <= 0 {
		return 0
	}
	pct := math.Round(c.Raised / c.Goal * 100)
	if pct < 0 || math.IsNaN(pct) {
		return 0
	}
	return int(pct)
}

// ComputeDaysLeft returns the ceiling of whole days from now until the campaign's end date.
// Zero or negative means the campaign has ended.
func ComputeDaysLeft(c model.Campaign, now time.Time) int {
	days := math.Ceil(c.EndDate.Sub(now).Hours() / 24)
	return int(days)
}

// IsActive reports whether the campaign still has days left.
func IsActive(c model.Campaign, now time.Time) bool {
	return ComputeDaysLeft(c, now) > 0
}

// PartitionCampaigns splits campaigns into active and completed, keeping input order.
func PartitionCampaigns(campaigns []model.Campaign, now time.Time) model.CampaignPartition {
	var p model.CampaignPartition
	for _, c := range campaigns {
		if IsActive(c, now) {
			p.Active = append(p.Active, c)
		} else {
			p.Completed = append(p.Completed, c)
		}
	}
	return p
}

// AggregateCampaigns sums goal, raised and donors across campaigns.
func AggregateCampaigns(campaigns []model.Campaign) model.CampaignTotals {
	var totals model.CampaignTotals
	for _, c := range campaigns {
		totals.Campaigns++
		totals.TotalGoal += c.Goal
		totals.TotalRaised += c.Raised
		totals.TotalDonors += c.Donors
	}

	if totals.TotalGoal > 0 {
		totals.OverallProgress = int(math.Round(totals.TotalRaised / totals.TotalGoal * 100))
	}
	return totals
}

// AverageGift returns raised/donors, or 0 for a campaign with no donors.
func AverageGift(c model.Campaign) float64 {
	if c.Donors <= 0 {
		return 0
	}
	return c.Raised / float64(c.Donors)
}

// TierFor maps a funding percentage to its display bucket.
func TierFor(pct int) model.ProgressTier {
	switch {
	case pct >= tierHighPct:
		return model.TierHigh
	case pct >= tierMidPct:
		return model.TierMid
	case pct >= tierLowPct:
		return model.TierLow
	default:
		return model.TierCritical
	}
}

// CampaignProgressFor bundles every derived figure for one campaign.
func CampaignProgressFor(c model.Campaign, now time.Time) model.CampaignProgress {
	pct := ComputeProgress(c)
	days := ComputeDaysLeft(c, now)
	return model.CampaignProgress{
		Campaign:    c,
		Percent:     pct,
		Tier:        TierFor(pct),
		DaysLeft:    days,
		Active:      days > 0,
		AverageGift: AverageGift(c),
	}
}

// BuildProgress computes CampaignProgress for each campaign in input order.
func BuildProgress(campaigns []model.Campaign, now time.Time) []model.CampaignProgress {
	out := make([]model.CampaignProgress, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, CampaignProgressFor(c, now))
	}
	return out
}

// Sort keys accepted by SortProgress.
const (
	SortByProgress = "progress"
	SortByRaised   = "raised"
	SortByEnding   = "ending"
	SortByName     = "name"
)

// SortProgress orders progress rows in place. Unknown keys leave input order.
// Ties keep their original relative order.
func SortProgress(rows []model.CampaignProgress, key string) {
	var less func(a, b model.CampaignProgress) bool
	switch key {
	case SortByProgress:
		less = func(a, b model.CampaignProgress) bool { return a.Percent > b.Percent }
	case SortByRaised:
		less = func(a, b model.CampaignProgress) bool { return a.Campaign.Raised > b.Campaign.Raised }
	case SortByEnding:
		less = func(a, b model.CampaignProgress) bool { return a.Campaign.EndDate.Before(b.Campaign.EndDate) }
	case SortByName:
		less = func(a, b model.CampaignProgress) bool {
			return strings.ToLower(a.Campaign.Name) < strings.ToLower(b.Campaign.Name)
		}
	default:
		return
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
}

// FilterByCategory returns campaigns whose category contains the substring.
func FilterByCategory(campaigns []model.Campaign, category string) []model.Campaign {
	if category == "" {
		return campaigns
	}
	var result []model.Campaign
	for _, c := range campaigns {
		if containsIgnoreCase(c.Category, category) {
			result = append(result, c)
		}
	}
	return result
}

// FilterByProject returns campaigns linked to a project matching the substring.
func FilterByProject(campaigns []model.Campaign, project string) []model.Campaign {
	if project == "" {
		return campaigns
	}
	var result []model.Campaign
	for _, c := range campaigns {
		if c.ProjectID != "" && containsIgnoreCase(c.ProjectID, project) {
			result = append(result, c)
		}
	}
	return result
}

// FilterScope narrows campaigns and donations to a category and project.
// With a category set, only donations attributed to a matching campaign remain.
func FilterScope(campaigns []model.Campaign, donations []model.Donation, category, project string) ([]model.Campaign, []model.Donation) {
	scoped := FilterByProject(FilterByCategory(campaigns, category), project)
	donations = FilterDonationsByProject(donations, campaigns, project)
	if category == "" {
		return scoped, donations
	}

	ids := make(map[string]struct{}, len(scoped))
	for _, c := range scoped {
		ids[c.ID] = struct{}{}
	}
	var kept []model.Donation
	for _, d := range donations {
		if _, ok := ids[d.CampaignID]; ok {
			kept = append(kept, d)
		}
	}
	return scoped, kept
}

// FindCampaign returns the campaign with the given ID.
func FindCampaign(campaigns []model.Campaign, id string) (model.Campaign, bool) {
	for _, c := range campaigns {
		if c.ID == id {
			return c, true
		}
	}
	return model.Campaign{}, false
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
