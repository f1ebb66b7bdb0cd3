package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kanyini-os/kanyini/internal/logging"
	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/session"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.Local)

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Campaigns:       5,
		Active:          4,
		TotalRaised:     1_000_000,
		TotalDonors:     3000,
		OverallProgress: 50,
		Donations:       10,
		DonationTotal:   10.5,
	}
	curr := Snapshot{
		Campaigns:       6,
		Active:          4,
		TotalRaised:     1_250_000,
		TotalDonors:     3012,
		OverallProgress: 55,
		Donations:       12,
		DonationTotal:   13.1,
	}

	delta := diffSnapshots(prev, curr)
	if delta.Campaigns != 1 {
		t.Fatalf("Campaigns delta = %d, want 1", delta.Campaigns)
	}
	if delta.Active != 0 {
		t.Fatalf("Active delta = %d, want 0", delta.Active)
	}
	if delta.TotalRaised != 250_000 {
		t.Fatalf("TotalRaised delta = %v, want 250000", delta.TotalRaised)
	}
	if delta.TotalDonors != 12 {
		t.Fatalf("TotalDonors delta = %d, want 12", delta.TotalDonors)
	}
	if delta.Donations != 2 {
		t.Fatalf("Donations delta = %d, want 2", delta.Donations)
	}
	if math.Abs(delta.DonationTotal-2.6) > 1e-9 {
		t.Fatalf("DonationTotal delta = %.2f, want 2.60", delta.DonationTotal)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a non-zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		DataDir:      ".",
		Interval:     10 * time.Second,
		EventsBuffer: 2,
		Logger:       logging.Nop(),
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

// writeFixtures seeds dir with two campaigns and three donations.
func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	campaigns := `[
		{"id":"camp-reef","name":"Reef","goal":1000000,"raised":800000,"donors":400,"end_date":"2026-10-24","category":"Marine"},
		{"id":"camp-old","name":"Old","goal":1000,"raised":100,"donors":0,"end_date":"2026-01-01","category":"Forest"}
	]`
	donations := strings.Join([]string{
		`{"id":"d1","donor_id":"ava","campaign_id":"camp-reef","amount":100,"date":"2026-10-01","method":"card"}`,
		`{"id":"d2","donor_id":"liam","campaign_id":"camp-reef","amount":50,"date":"2026-10-10","method":"cash"}`,
		`{"id":"d3","donor_id":"mia","amount":20,"date":"2026-10-12","method":"paypal"}`,
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "campaigns.json"), []byte(campaigns), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "donations.jsonl"), []byte(donations), 0o600))
}

type memSubmitter struct {
	got []model.Donation
}

func (m *memSubmitter) SubmitDonation(_ context.Context, d model.Donation) error {
	m.got = append(m.got, d)
	return nil
}

func newTestService(t *testing.T, sub *memSubmitter) *Service {
	t.Helper()
	dir := t.TempDir()
	writeFixtures(t, dir)
	cfg := Config{
		DataDir: dir,
		Days:    30,
		Logger:  logging.Nop(),
		Now:     func() time.Time { return testNow },
	}
	if sub != nil {
		cfg.Submitter = sub
	}
	s := New(cfg)
	s.pollOnce()
	return s
}

func TestPollOncePublishesSnapshotThenDeltas(t *testing.T) {
	s := newTestService(t, nil)

	st := s.snapshotStatus()
	assert.Equal(t, int64(1), st.PollCount)
	assert.Equal(t, 2, st.Summary.Campaigns)
	assert.Equal(t, 1, st.Summary.Active)
	assert.Equal(t, 1, st.Summary.Completed)
	assert.Equal(t, 80, st.Summary.OverallProgress)
	assert.Equal(t, 3, st.Summary.Donations)
	assert.InDelta(t, 170.0, st.Summary.DonationTotal, 1e-9)

	// Unchanged data: no new event
	s.pollOnce()
	require.Len(t, s.events, 1)
	assert.Equal(t, EventSnapshot, s.events[0].Type)

	more := `{"id":"d4","donor_id":"zoe","campaign_id":"camp-reef","amount":30,"date":"2026-10-18","method":"card"}` + "\n"
	f, err := os.OpenFile(filepath.Join(s.cfg.DataDir, "donations.jsonl"), os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(more)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s.pollOnce()
	require.Len(t, s.events, 2)
	ev := s.events[1]
	assert.Equal(t, EventMetricsDelta, ev.Type)
	assert.Equal(t, 1, ev.Delta.Donations)
	assert.InDelta(t, 30.0, ev.Delta.DonationTotal, 1e-9)
}

func TestHandlerCampaigns(t *testing.T) {
	s := newTestService(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/campaigns?active=true")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var views []CampaignView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.Equal(t, "camp-reef", views[0].ID)
	assert.Equal(t, 80, views[0].Progress)
	assert.Equal(t, "high", views[0].Tier)
	assert.Equal(t, 5, views[0].DaysLeft)
	assert.InDelta(t, 2000.0, views[0].AverageGift, 1e-9)

	bad, err := http.Get(srv.URL + "/v1/campaigns?active=maybe")
	require.NoError(t, err)
	_ = bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestHandlerCampaignDetail(t *testing.T) {
	s := newTestService(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/campaigns/camp-reef")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var detail CampaignDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Len(t, detail.Donations, 2)
	assert.InDelta(t, 150.0, detail.Reconciliation.Donated, 1e-9)

	missing, err := http.Get(srv.URL + "/v1/campaigns/nope")
	require.NoError(t, err)
	_ = missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestHandlerDonations(t *testing.T) {
	s := newTestService(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/donations?limit=2")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var views []DonationView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 2)
	assert.Equal(t, "d3", views[0].ID, "newest first")
	assert.Equal(t, "general", views[0].Attribution)
}

func TestCategoryScopesDonations(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	s := New(Config{
		DataDir:  dir,
		Days:     30,
		Category: "marine",
		Logger:   logging.Nop(),
		Now:      func() time.Time { return testNow },
	})
	s.pollOnce()

	st := s.snapshotStatus()
	assert.Equal(t, 1, st.Summary.Campaigns)
	assert.Equal(t, 2, st.Summary.Donations, "general-fund donation is outside the category")
	assert.InDelta(t, 150.0, st.Summary.DonationTotal, 1e-9)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/donations", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var views []DonationView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&views))
	require.Len(t, views, 2)
	assert.Equal(t, "d2", views[0].ID)
	assert.Equal(t, "d1", views[1].ID)
}

func TestHandlerSubmitDonation(t *testing.T) {
	sub := &memSubmitter{}
	s := newTestService(t, sub)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	post := func(body string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/donations", strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set(session.HeaderOperator, "front-desk")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	ok := post(`{"donor_id":"ava","amount":25,"campaign_id":"camp-reef","method":"card"}`)
	defer func() { _ = ok.Body.Close() }()
	require.Equal(t, http.StatusCreated, ok.StatusCode)
	assert.NotEmpty(t, ok.Header.Get(session.HeaderSession))

	var res intakeResponse
	require.NoError(t, json.NewDecoder(ok.Body).Decode(&res))
	assert.Equal(t, "success", res.Result)
	require.Len(t, sub.got, 1)
	assert.Equal(t, "front-desk", sub.got[0].RecordedBy)

	invalid := post(`{"donor_id":"","amount":-1,"method":"card"}`)
	defer func() { _ = invalid.Body.Close() }()
	assert.Equal(t, http.StatusUnprocessableEntity, invalid.StatusCode)

	unknown := post(`{"donor_id":"ava","amount":25,"campaign_id":"camp-ghost","method":"card"}`)
	defer func() { _ = unknown.Body.Close() }()
	assert.Equal(t, http.StatusUnprocessableEntity, unknown.StatusCode)
	var rejected intakeResponse
	require.NoError(t, json.NewDecoder(unknown.Body).Decode(&rejected))
	require.NotEmpty(t, rejected.Errors)
	assert.Equal(t, "campaign_id", rejected.Errors[0].Field)
	assert.Len(t, sub.got, 1, "unknown campaign must not reach the submitter")

	garbage := post(`{"donor":`)
	_ = garbage.Body.Close()
	assert.Equal(t, http.StatusBadRequest, garbage.StatusCode)
}

func TestHandlerSubmitDonation_DisabledWithoutSubmitter(t *testing.T) {
	s := newTestService(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/donations", strings.NewReader(`{}`))
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServeLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	writeFixtures(t, dir)
	s := New(Config{
		DataDir:  dir,
		Watch:    true,
		Interval: time.Hour,
		Logger:   logging.Nop(),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	base := "http://" + ln.Addr().String()

	require.Eventually(t, func() bool {
		resp, err := client.Get(base + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	// Open a stream and read the initial snapshot event.
	resp, err := client.Get(base + "/v1/stream")
	require.NoError(t, err)
	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: snapshot\n", line)

	// A fixture change is picked up by the watcher.
	more := `{"id":"d9","donor_id":"zoe","amount":5,"date":"2026-10-18","method":"card"}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "donations-extra.jsonl"), []byte(more), 0o600))
	require.Eventually(t, func() bool {
		return s.snapshotStatus().PollCount >= 2
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, s.snapshotStatus().Watching)

	cancel()
	require.NoError(t, <-done)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	client.CloseIdleConnections()
}
