package remote

import (
	"encoding/json"
	"time"

	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/source"
)

// page is the list envelope returned by the platform API.
type page[T any] struct {
	Data       []T    `json:"data"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// wireCampaign accepts money fields as numbers or strings.
type wireCampaign struct {
	source.CampaignRecord
	Goal   json.RawMessage `json:"goal"`
	Raised json.RawMessage `json:"raised"`
}

// wireDonation accepts the amount as a number or string.
type wireDonation struct {
	source.DonationRecord
	Amount json.RawMessage `json:"amount"`
}

// apiError is the error body returned on 4xx responses.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SyncData holds everything fetched in one FetchAll call.
// Partial data is kept when one of the requests fails.
type SyncData struct {
	Campaigns []model.Campaign
	Donations []model.Donation
	Skipped   int // records dropped for bad dates or amounts
	FetchedAt time.Time
	Error     error
}
