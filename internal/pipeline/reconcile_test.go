package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanyini-os/kanyini/internal/model"
)

func TestReconcileCampaigns(t *testing.T) {
	campaigns := []model.Campaign{
		{ID: "reef", Name: "Reef", Raised: 300},
		{ID: "forest", Name: "Forest", Raised: 500},
		{ID: "empty", Name: "Empty", Raised: 0},
	}
	rows := ReconcileCampaigns(campaigns, sampleDonations())
	require.Len(t, rows, 3)

	assert.Equal(t, "forest", rows[0].CampaignID)
	assert.InDelta(t, 490.0, rows[0].Delta, 1e-9)

	byID := map[string]model.Reconciliation{}
	for _, r := range rows {
		byID[r.CampaignID] = r
	}
	assert.Equal(t, 2, byID["reef"].Donations)
	assert.Equal(t, 0.0, byID["reef"].Delta)
	assert.Equal(t, 0.0, byID["empty"].Delta)
}

func TestValidateDonations(t *testing.T) {
	ds := append(sampleDonations(),
		model.Donation{ID: "d1", DonorID: "x", Amount: 5},
		model.Donation{ID: "bad", Amount: 0, Method: "barter", CampaignID: "ghost"},
	)
	campaigns := []model.Campaign{{ID: "reef"}, {ID: "forest"}}

	issues := ValidateDonations(ds, campaigns)

	fields := map[string]int{}
	for _, is := range issues {
		fields[is.Field]++
	}
	assert.Equal(t, 1, fields["id"])
	assert.Equal(t, 1, fields["amount"])
	assert.Equal(t, 1, fields["method"])
	assert.Equal(t, 2, fields["campaign_id"], "one conflict, one unknown campaign")

	assert.Len(t, ValidateDonations(ds[:1], nil), 0)
}

func TestValidateCampaigns(t *testing.T) {
	issues := ValidateCampaigns([]model.Campaign{
		{ID: "ok", Goal: 10, StartDate: day(1), EndDate: day(2)},
		{ID: "zero", Goal: 0},
		{ID: "backwards", Goal: 10, StartDate: day(5), EndDate: day(2)},
	})
	require.Len(t, issues, 2)
	assert.Equal(t, "zero", issues[0].RecordID)
	assert.Equal(t, "end_date", issues[1].Field)
}
