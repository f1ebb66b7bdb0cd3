package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeFixture creates a temp fixture file and returns a DiscoveredFile for it.
func writeFixture(t *testing.T, name string, lines ...string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return DiscoveredFile{Path: path, Name: name, Kind: ClassifyName(name)}
}

func TestParseFile_DonationsJSONL(t *testing.T) {
	df := writeFixture(t, "donations.jsonl",
		`{"id":"d1","donor_id":"ava","campaign_id":"camp-reef","amount":250,"date":"2026-09-02","method":"card"}`,
		``,
		`# imported from the March appeal`,
		`{"id":"d2","donor_id":"liam","project_id":"proj-koala","amount":75.5,"date":"2026-09-04T10:30:00+10:00","method":"paypal"}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Donations) != 2 {
		t.Fatalf("Donations = %d, want 2", len(result.Donations))
	}
	if result.ParseErrors != 0 {
		t.Errorf("ParseErrors = %d, want 0", result.ParseErrors)
	}

	d := result.Donations[0]
	if d.CampaignID != "camp-reef" || d.Amount != 250 {
		t.Errorf("first donation = %+v", d)
	}
	if d.Source != "donations.jsonl" {
		t.Errorf("Source = %q, want donations.jsonl", d.Source)
	}
	want := time.Date(2026, 9, 2, 0, 0, 0, 0, time.Local)
	if !d.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", d.Date, want)
	}
	if result.Donations[1].Amount != 75.5 {
		t.Errorf("second Amount = %v, want 75.5", result.Donations[1].Amount)
	}
}

func TestParseFile_MalformedLinesCounted(t *testing.T) {
	df := writeFixture(t, "donations.jsonl",
		`{"id":"d1","donor_id":"ava","amount":10,"date":"2026-09-02"}`,
		`{not json`,
		`{"donor_id":"no-id","amount":10,"date":"2026-09-02"}`,
		`{"id":"d3","donor_id":"ava","amount":10,"date":"yesterday"}`,
		`{"id":"d4","donor_id":"ava","amount":10,"date":"2026-09-03"}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Donations) != 2 {
		t.Errorf("Donations = %d, want 2", len(result.Donations))
	}
	if result.ParseErrors != 3 {
		t.Errorf("ParseErrors = %d, want 3", result.ParseErrors)
	}
}

func TestParseFile_CampaignsYAML(t *testing.T) {
	df := writeFixture(t, "campaigns.yaml",
		`- id: camp-reef`,
		`  name: Reef Restoration`,
		`  goal: 1000000`,
		`  raised: 800000`,
		`  donors: 2140`,
		`  start_date: "2026-02-01"`,
		`  end_date: "2027-01-31"`,
		`  category: Marine`,
		`  project_id: proj-reef`,
		`- id: camp-bad`,
		`  end_date: "31/01/2027"`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Campaigns) != 1 {
		t.Fatalf("Campaigns = %d, want 1", len(result.Campaigns))
	}
	if result.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", result.ParseErrors)
	}

	c := result.Campaigns[0]
	if c.Goal != 1_000_000 || c.Raised != 800_000 || c.Donors != 2140 {
		t.Errorf("campaign figures = %+v", c)
	}
	if c.ProjectID != "proj-reef" {
		t.Errorf("ProjectID = %q, want proj-reef", c.ProjectID)
	}
	if c.EndDate.Year() != 2027 || c.EndDate.Month() != time.January {
		t.Errorf("EndDate = %v", c.EndDate)
	}
}

func TestParseFile_CampaignsJSON(t *testing.T) {
	df := writeFixture(t, "campaigns.json",
		`[{"id":"a","name":"A","goal":10,"raised":5,"donors":1,"end_date":"2026-12-01"}]`,
	)
	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Campaigns) != 1 || result.Campaigns[0].Name != "A" {
		t.Errorf("Campaigns = %+v", result.Campaigns)
	}
}

func TestParseFile_DonationsJSONArray(t *testing.T) {
	df := writeFixture(t, "donations-export.json",
		`[{"id":"a","donor_id":"x","amount":5,"date":"2026-01-01"},{"id":"","amount":1}]`,
	)
	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Donations) != 1 || result.ParseErrors != 1 {
		t.Errorf("Donations = %d ParseErrors = %d, want 1 and 1", len(result.Donations), result.ParseErrors)
	}
}

func TestParseFile_UndecodableFile(t *testing.T) {
	df := writeFixture(t, "campaigns.json", `{"this":"is not a list"}`)
	result := ParseFile(df)
	if result.Err == nil {
		t.Fatal("expected error for non-array campaigns file")
	}
}

func TestParseFile_MissingFile(t *testing.T) {
	result := ParseFile(DiscoveredFile{Path: "/nonexistent/donations.jsonl", Kind: KindDonationsJSONL})
	if result.Err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2026-03-01", false},
		{"2026-03-01T08:00:00Z", false},
		{"2026-03-01T08:00:00.123+10:00", false},
		{"", false},
		{"01/03/2026", true},
	}
	for _, tt := range tests {
		_, err := ParseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDate(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestFormatDateRoundTrip(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	if got := FormatDate(day); got != "2026-03-01" {
		t.Errorf("FormatDate(midnight) = %q, want 2026-03-01", got)
	}
	ts := time.Date(2026, 3, 1, 8, 15, 0, 0, time.UTC)
	back, err := ParseDate(FormatDate(ts))
	if err != nil || !back.Equal(ts) {
		t.Errorf("round trip = %v, %v; want %v", back, err, ts)
	}
}
