package pipeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/kanyini-os/kanyini/internal/model"
)

// reconcileEpsilon absorbs float noise when comparing currency sums.
const reconcileEpsilon = 0.005

// ReconcileCampaigns compares each campaign's recorded Raised amount with the sum of
// donations attributed to it. Rows are sorted by absolute delta, largest first.
// Conflicting donations (campaign and project both set) count toward the campaign.
func ReconcileCampaigns(campaigns []model.Campaign, donations []model.Donation) []model.Reconciliation {
	type sum struct {
		total float64
		count int
	}
	byCampaign := make(map[string]*sum)
	for _, d := range donations {
		if d.CampaignID == "" {
			continue
		}
		s, ok := byCampaign[d.CampaignID]
		if !ok {
			s = &sum{}
			byCampaign[d.CampaignID] = s
		}
		s.total += d.Amount
		s.count++
	}

	rows := make([]model.Reconciliation, 0, len(campaigns))
	for _, c := range campaigns {
		r := model.Reconciliation{
			CampaignID:   c.ID,
			CampaignName: c.Name,
			Recorded:     c.Raised,
		}
		if s, ok := byCampaign[c.ID]; ok {
			r.Donated = s.total
			r.Donations = s.count
		}
		r.Delta = r.Recorded - r.Donated
		if math.Abs(r.Delta) < reconcileEpsilon {
			r.Delta = 0
		}
		rows = append(rows, r)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return math.Abs(rows[i].Delta) > math.Abs(rows[j].Delta)
	})
	return rows
}

// ValidateDonations reports data problems in the loaded donations. A nil campaign set
// skips the unknown-campaign check.
func ValidateDonations(donations []model.Donation, campaigns []model.Campaign) []model.Issue {
	var known map[string]struct{}
	if campaigns != nil {
		known = make(map[string]struct{}, len(campaigns))
		for _, c := range campaigns {
			known[c.ID] = struct{}{}
		}
	}

	var issues []model.Issue
	seen := make(map[string]struct{}, len(donations))
	for _, d := range donations {
		if d.ID != "" {
			if _, dup := seen[d.ID]; dup {
				issues = append(issues, model.Issue{RecordID: d.ID, Field: "id", Message: "duplicate donation id"})
			}
			seen[d.ID] = struct{}{}
		}
		if d.Amount <= 0 {
			issues = append(issues, model.Issue{
				RecordID: d.ID,
				Field:    "amount",
				Message:  fmt.Sprintf("amount must be positive, got %.2f", d.Amount),
			})
		}
		if model.AttributionOf(d) == model.AttributionConflict {
			issues = append(issues, model.Issue{
				RecordID: d.ID,
				Field:    "campaign_id",
				Message:  fmt.Sprintf("linked to both campaign %s and project %s", d.CampaignID, d.ProjectID),
			})
		}
		if known != nil && d.CampaignID != "" {
			if _, ok := known[d.CampaignID]; !ok {
				issues = append(issues, model.Issue{
					RecordID: d.ID,
					Field:    "campaign_id",
					Message:  "unknown campaign " + d.CampaignID,
				})
			}
		}
		if d.Method != "" && !model.IsKnownMethod(d.Method) {
			issues = append(issues, model.Issue{RecordID: d.ID, Field: "method", Message: "unknown payment method " + d.Method})
		}
	}
	return issues
}

// ValidateCampaigns reports campaigns whose figures the calculator would guard against.
func ValidateCampaigns(campaigns []model.Campaign) []model.Issue {
	var issues []model.Issue
	for _, c := range campaigns {
		if c.Goal <= 0 {
			issues = append(issues, model.Issue{RecordID: c.ID, Field: "goal", Message: "goal is not positive; progress reported as 0%"})
		}
		if c.Raised < 0 {
			issues = append(issues, model.Issue{RecordID: c.ID, Field: "raised", Message: "raised is negative"})
		}
		if c.Donors < 0 {
			issues = append(issues, model.Issue{RecordID: c.ID, Field: "donors", Message: "donor count is negative"})
		}
		if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
			issues = append(issues, model.Issue{RecordID: c.ID, Field: "end_date", Message: "ends before it starts"})
		}
	}
	return issues
}
