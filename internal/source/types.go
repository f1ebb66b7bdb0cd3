package source

import (
	"fmt"
	"time"

	"github.com/kanyini-os/kanyini/internal/model"
)

// FileKind identifies the layout of a fixture file.
type FileKind int

const (
	KindUnknown        FileKind = iota
	KindCampaigns               // campaigns*.json, campaigns*.yaml, campaigns*.yml
	KindDonationsJSONL          // donations*.jsonl, one record per line
	KindDonationsJSON           // donations*.json, a single array
)

func (k FileKind) String() string {
	switch k {
	case KindCampaigns:
		return "campaigns"
	case KindDonationsJSONL:
		return "donations-jsonl"
	case KindDonationsJSON:
		return "donations-json"
	default:
		return "unknown"
	}
}

// DiscoveredFile represents a fixture file found during directory scanning.
type DiscoveredFile struct {
	Path string
	Name string // base name, used as the record Source
	Kind FileKind
}

// CampaignRecord is the on-disk and on-wire shape of a campaign.
type CampaignRecord struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Goal      float64 `json:"goal" yaml:"goal"`
	Raised    float64 `json:"raised" yaml:"raised"`
	Donors    int     `json:"donors" yaml:"donors"`
	StartDate string  `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate   string  `json:"end_date" yaml:"end_date"`
	Category  string  `json:"category,omitempty" yaml:"category,omitempty"`
	ProjectID string  `json:"project_id,omitempty" yaml:"project_id,omitempty"`
}

// DonationRecord is the on-disk and on-wire shape of a donation.
type DonationRecord struct {
	ID         string  `json:"id"`
	DonorID    string  `json:"donor_id"`
	CampaignID string  `json:"campaign_id,omitempty"`
	ProjectID  string  `json:"project_id,omitempty"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"`
	Method     string  `json:"method,omitempty"`
	RecordedBy string  `json:"recorded_by,omitempty"`
}

// Accepted date layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate parses a fixture date. Bare dates are midnight local time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if layout == "2006-01-02" {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatDate renders t as a bare date when it falls on local midnight, else RFC3339.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	local := t.Local()
	if local.Hour() == 0 && local.Minute() == 0 && local.Second() == 0 && local.Nanosecond() == 0 {
		return local.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// ToModel converts the record, resolving dates.
func (r CampaignRecord) ToModel(source string) (model.Campaign, error) {
	start, err := ParseDate(r.StartDate)
	if err != nil {
		return model.Campaign{}, fmt.Errorf("campaign %s start_date: %w", r.ID, err)
	}
	end, err := ParseDate(r.EndDate)
	if err != nil {
		return model.Campaign{}, fmt.Errorf("campaign %s end_date: %w", r.ID, err)
	}
	return model.Campaign{
		ID:        r.ID,
		Name:      r.Name,
		Goal:      r.Goal,
		Raised:    r.Raised,
		Donors:    r.Donors,
		StartDate: start,
		EndDate:   end,
		Category:  r.Category,
		ProjectID: r.ProjectID,
		Source:    source,
	}, nil
}

// CampaignRecordFrom converts a model campaign to its record form.
func CampaignRecordFrom(c model.Campaign) CampaignRecord {
	return CampaignRecord{
		ID:        c.ID,
		Name:      c.Name,
		Goal:      c.Goal,
		Raised:    c.Raised,
		Donors:    c.Donors,
		StartDate: FormatDate(c.StartDate),
		EndDate:   FormatDate(c.EndDate),
		Category:  c.Category,
		ProjectID: c.ProjectID,
	}
}

// ToModel converts the record, resolving its date.
func (r DonationRecord) ToModel(source string) (model.Donation, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return model.Donation{}, fmt.Errorf("donation %s date: %w", r.ID, err)
	}
	return model.Donation{
		ID:         r.ID,
		DonorID:    r.DonorID,
		CampaignID: r.CampaignID,
		ProjectID:  r.ProjectID,
		Amount:     r.Amount,
		Date:       date,
		Method:     r.Method,
		RecordedBy: r.RecordedBy,
		Source:     source,
	}, nil
}

// DonationRecordFrom converts a model donation to its record form.
func DonationRecordFrom(d model.Donation) DonationRecord {
	return DonationRecord{
		ID:         d.ID,
		DonorID:    d.DonorID,
		CampaignID: d.CampaignID,
		ProjectID:  d.ProjectID,
		Amount:     d.Amount,
		Date:       FormatDate(d.Date),
		Method:     d.Method,
		RecordedBy: d.RecordedBy,
	}
}
