// Package model defines domain types for kanyini campaigns, donations, and metrics.
package model

import "time"

// Campaign is a time-boxed fundraising goal.
// Raised is never checked against Goal; a campaign may be funded past 100%.
type Campaign struct {
	ID        string
	Name      string
	Goal      float64
	Raised    float64
	Donors    int
	StartDate time.Time
	EndDate   time.Time
	Category  string
	ProjectID string // optional link to a conservation project
	Source    string // fixture file or "intake" the record was loaded from
}

// Donation is a single monetary contribution.
// CampaignID and ProjectID are both optional; at most one should be set.
type Donation struct {
	ID         string
	DonorID    string
	CampaignID string
	ProjectID  string
	Amount     float64
	Date       time.Time
	Method     string
	RecordedBy string
	Source     string
}

// Attribution reports where a donation's money is credited.
type Attribution int

const (
	AttributionGeneral Attribution = iota
	AttributionCampaign
	AttributionProject
	AttributionConflict // both campaign and project set
)

func (a Attribution) String() string {
	switch a {
	case AttributionCampaign:
		return "campaign"
	case AttributionProject:
		return "project"
	case AttributionConflict:
		return "conflict"
	default:
		return "general"
	}
}

// AttributionOf classifies a donation by its campaign/project links.
func AttributionOf(d Donation) Attribution {
	switch {
	case d.CampaignID != "" && d.ProjectID != "":
		return AttributionConflict
	case d.CampaignID != "":
		return AttributionCampaign
	case d.ProjectID != "":
		return AttributionProject
	default:
		return AttributionGeneral
	}
}

// Payment methods accepted by the donation intake.
const (
	MethodCard         = "card"
	MethodBankTransfer = "bank_transfer"
	MethodPayPal       = "paypal"
	MethodCash         = "cash"
	MethodCheque       = "cheque"
)

// PaymentMethods lists every known payment method in display order.
var PaymentMethods = []string{MethodCard, MethodBankTransfer, MethodPayPal, MethodCash, MethodCheque}

// IsKnownMethod reports whether m is one of PaymentMethods.
func IsKnownMethod(m string) bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}
