// Package pipeline loads campaign and donation fixtures and computes display metrics from them.
package pipeline

import (
	"sort"
	"time"

	"github.com/kanyini-os/kanyini/internal/model"
)

const dayLayout = "2006-01-02"

// AggregateDonations computes summary statistics for donations within [since, until).
func AggregateDonations(donations []model.Donation, since, until time.Time) model.DonationSummary {
	filtered := FilterDonationsByTime(donations, since, until)

	var stats model.DonationSummary
	donors := make(map[string]struct{})
	activeDays := make(map[string]struct{})

	for _, d := range filtered {
		stats.Count++
		stats.Total += d.Amount
		if d.Amount > stats.Largest {
			stats.Largest = d.Amount
		}
		if d.DonorID != "" {
			donors[d.DonorID] = struct{}{}
		}
		if !d.Date.IsZero() {
			activeDays[d.Date.Local().Format(dayLayout)] = struct{}{}
		}

		switch model.AttributionOf(d) {
		case model.AttributionCampaign:
			stats.CampaignTotal += d.Amount
		case model.AttributionProject:
			stats.ProjectTotal += d.Amount
		case model.AttributionConflict:
			// Counted toward the campaign, same as the dashboard's campaign pages.
			stats.CampaignTotal += d.Amount
			stats.ConflictCount++
		default:
			stats.GeneralTotal += d.Amount
		}
	}

	stats.UniqueDonors = len(donors)
	stats.ActiveDays = len(activeDays)
	if stats.Count > 0 {
		stats.Average = stats.Total / float64(stats.Count)
	}
	if stats.ActiveDays > 0 {
		stats.TotalPerDay = stats.Total / float64(stats.ActiveDays)
	}

	return stats
}

// ComparePeriods aggregates the window ending at until and the equally long window before it.
func ComparePeriods(donations []model.Donation, since, until time.Time) model.PeriodComparison {
	prevSince := since.Add(-until.Sub(since))
	return model.PeriodComparison{
		Current:  AggregateDonations(donations, since, until),
		Previous: AggregateDonations(donations, prevSince, since),
	}
}

// AggregateDonationDays computes per-day donation totals, newest first.
// Every day in the range is present so charts show gaps as zeros.
func AggregateDonationDays(donations []model.Donation, since, until time.Time) []model.DailyStats {
	filtered := FilterDonationsByTime(donations, since, until)

	dayMap := make(map[string]*model.DailyStats)
	dayDonors := make(map[string]map[string]struct{})

	for _, d := range filtered {
		if d.Date.IsZero() {
			continue
		}
		local := d.Date.Local()
		key := local.Format(dayLayout)
		ds, ok := dayMap[key]
		if !ok {
			ds = &model.DailyStats{Date: startOfDay(local)}
			dayMap[key] = ds
			dayDonors[key] = make(map[string]struct{})
		}
		ds.Donations++
		ds.Total += d.Amount
		if d.DonorID != "" {
			dayDonors[key][d.DonorID] = struct{}{}
		}
	}
	for key, set := range dayDonors {
		dayMap[key].Donors = len(set)
	}

	if !since.IsZero() && !until.IsZero() {
		day := startOfDay(since.Local())
		end := startOfDay(until.Local())
		if end.Equal(until) {
			// until is exclusive; a midnight bound owns none of its day.
			end = end.AddDate(0, 0, -1)
		}
		for !day.After(end) {
			key := day.Format(dayLayout)
			if _, ok := dayMap[key]; !ok {
				dayMap[key] = &model.DailyStats{Date: day}
			}
			day = day.AddDate(0, 0, 1)
		}
	}

	days := make([]model.DailyStats, 0, len(dayMap))
	for _, ds := range dayMap {
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})

	return days
}

// AggregateMethods computes per-payment-method totals, largest first.
func AggregateMethods(donations []model.Donation, since, until time.Time) []model.MethodStats {
	filtered := FilterDonationsByTime(donations, since, until)

	methodMap := make(map[string]*model.MethodStats)
	var grand float64

	for _, d := range filtered {
		method := d.Method
		if method == "" {
			method = "unknown"
		}
		ms, ok := methodMap[method]
		if !ok {
			ms = &model.MethodStats{Method: method}
			methodMap[method] = ms
		}
		ms.Donations++
		ms.Total += d.Amount
		grand += d.Amount
	}

	methods := make([]model.MethodStats, 0, len(methodMap))
	for _, ms := range methodMap {
		if grand > 0 {
			ms.SharePercent = ms.Total / grand * 100
		}
		methods = append(methods, *ms)
	}
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].Total == methods[j].Total {
			return methods[i].Method < methods[j].Method
		}
		return methods[i].Total > methods[j].Total
	})

	return methods
}

// AggregateProjects credits each linked project with its campaigns' raised amounts
// and with donations made directly to it. Sorted by total, largest first.
func AggregateProjects(donations []model.Donation, campaigns []model.Campaign, since, until time.Time) []model.ProjectStats {
	projMap := make(map[string]*model.ProjectStats)
	get := func(id string) *model.ProjectStats {
		ps, ok := projMap[id]
		if !ok {
			ps = &model.ProjectStats{ProjectID: id}
			projMap[id] = ps
		}
		return ps
	}

	for _, c := range campaigns {
		if c.ProjectID == "" {
			continue
		}
		ps := get(c.ProjectID)
		ps.Campaigns++
		ps.CampaignRaised += c.Raised
	}

	for _, d := range FilterDonationsByTime(donations, since, until) {
		if model.AttributionOf(d) != model.AttributionProject {
			continue
		}
		ps := get(d.ProjectID)
		ps.Donations++
		ps.DirectDonations += d.Amount
	}

	projects := make([]model.ProjectStats, 0, len(projMap))
	for _, ps := range projMap {
		ps.Total = ps.CampaignRaised + ps.DirectDonations
		projects = append(projects, *ps)
	}
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].Total == projects[j].Total {
			return projects[i].ProjectID < projects[j].ProjectID
		}
		return projects[i].Total > projects[j].Total
	})

	return projects
}

// FilterDonationsByTime returns donations dated within [since, until).
// A zero bound is open on that side.
func FilterDonationsByTime(donations []model.Donation, since, until time.Time) []model.Donation {
	if since.IsZero() && until.IsZero() {
		return donations
	}

	var result []model.Donation
	for _, d := range donations {
		if d.Date.IsZero() {
			continue
		}
		if !since.IsZero() && d.Date.Before(since) {
			continue
		}
		if !until.IsZero() && !d.Date.Before(until) {
			continue
		}
		result = append(result, d)
	}
	return result
}

// FilterDonationsByCampaign returns donations attributed to the given campaign ID.
func FilterDonationsByCampaign(donations []model.Donation, campaignID string) []model.Donation {
	if campaignID == "" {
		return donations
	}
	var result []model.Donation
	for _, d := range donations {
		if d.CampaignID == campaignID {
			result = append(result, d)
		}
	}
	return result
}

// FilterDonationsByMethod returns donations whose payment method contains the substring.
func FilterDonationsByMethod(donations []model.Donation, method string) []model.Donation {
	if method == "" {
		return donations
	}
	var result []model.Donation
	for _, d := range donations {
		if containsIgnoreCase(d.Method, method) {
			result = append(result, d)
		}
	}
	return result
}

// FilterDonationsByProject returns donations made directly to a project matching the substring,
// or to a campaign in the given campaign set.
func FilterDonationsByProject(donations []model.Donation, campaigns []model.Campaign, project string) []model.Donation {
	if project == "" {
		return donations
	}
	linked := make(map[string]struct{})
	for _, c := range FilterByProject(campaigns, project) {
		linked[c.ID] = struct{}{}
	}
	var result []model.Donation
	for _, d := range donations {
		if d.ProjectID != "" && containsIgnoreCase(d.ProjectID, project) {
			result = append(result, d)
			continue
		}
		if _, ok := linked[d.CampaignID]; ok && d.CampaignID != "" {
			result = append(result, d)
		}
	}
	return result
}

// SortDonationsByDate orders donations newest first.
func SortDonationsByDate(donations []model.Donation) {
	sort.SliceStable(donations, func(i, j int) bool {
		return donations[i].Date.After(donations[j].Date)
	})
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
