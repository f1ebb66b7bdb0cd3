package model

import "time"

// ProgressTier buckets a funding percentage for display.
type ProgressTier int

const (
	TierCritical ProgressTier = iota // below 25%
	TierLow                          // 25% and up
	TierMid                          // 50% and up
	TierHigh                         // 80% and up
)

func (t ProgressTier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMid:
		return "mid"
	case TierLow:
		return "low"
	default:
		return "critical"
	}
}

// CampaignProgress holds the derived, display-only figures for one campaign.
type CampaignProgress struct {
	Campaign    Campaign
	Percent     int
	Tier        ProgressTier
	DaysLeft    int
	Active      bool
	AverageGift float64
}

// CampaignPartition splits campaigns into running and finished, preserving input order.
type CampaignPartition struct {
	Active    []Campaign
	Completed []Campaign
}

// CampaignTotals holds sums across a set of campaigns.
type CampaignTotals struct {
	Campaigns       int
	TotalGoal       float64
	TotalRaised     float64
	TotalDonors     int
	OverallProgress int
}

// DonationSummary holds the top-level aggregate across donations in a window.
type DonationSummary struct {
	Count        int
	Total        float64
	Average      float64
	Largest      float64
	UniqueDonors int
	ActiveDays   int

	CampaignTotal float64
	ProjectTotal  float64
	GeneralTotal  float64
	ConflictCount int

	TotalPerDay float64
}

// DailyStats holds donation figures for a single calendar day.
type DailyStats struct {
	Date      time.Time
	Donations int
	Donors    int
	Total     float64
}

// MethodStats holds donation figures for one payment method.
type MethodStats struct {
	Method       string
	Donations    int
	Total        float64
	SharePercent float64
}

// ProjectStats holds money attributed to one linked project.
type ProjectStats struct {
	ProjectID       string
	Campaigns       int
	CampaignRaised  float64
	Donations       int
	DirectDonations float64
	Total           float64
}

// Reconciliation compares a campaign's recorded raised amount with its attributed donations.
type Reconciliation struct {
	CampaignID   string
	CampaignName string
	Recorded     float64
	Donated      float64
	Donations    int
	Delta        float64 // Recorded - Donated
}

// Issue is a data problem found while validating loaded records.
type Issue struct {
	RecordID string
	Field    string
	Message  string
}

// PeriodComparison holds current and previous window data for delta computation.
type PeriodComparison struct {
	Current  DonationSummary
	Previous DonationSummary
}
