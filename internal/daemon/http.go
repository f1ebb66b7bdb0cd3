package daemon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kanyini-os/kanyini/internal/intake"
	"github.com/kanyini-os/kanyini/internal/logging"
	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/pipeline"
	"github.com/kanyini-os/kanyini/internal/session"
)

const maxIntakeBody = 64 << 10

// CampaignView is the JSON shape of a campaign with its derived figures.
type CampaignView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category,omitempty"`
	ProjectID   string    `json:"project_id,omitempty"`
	Goal        float64   `json:"goal"`
	Raised      float64   `json:"raised"`
	Donors      int       `json:"donors"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Progress    int       `json:"progress"`
	Tier        string    `json:"tier"`
	DaysLeft    int       `json:"days_left"`
	Active      bool      `json:"active"`
	AverageGift float64   `json:"average_gift"`
}

// CampaignDetail adds attributed donations and reconciliation to a CampaignView.
type CampaignDetail struct {
	CampaignView
	Donations      []DonationView       `json:"donations"`
	Reconciliation model.Reconciliation `json:"reconciliation"`
}

// DonationView is the JSON shape of a donation.
type DonationView struct {
	ID          string    `json:"id"`
	DonorID     string    `json:"donor_id"`
	CampaignID  string    `json:"campaign_id,omitempty"`
	ProjectID   string    `json:"project_id,omitempty"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Method      string    `json:"method,omitempty"`
	RecordedBy  string    `json:"recorded_by,omitempty"`
	Attribution string    `json:"attribution"`
}

// intakeResponse is returned by POST /v1/donations.
type intakeResponse struct {
	Result   string              `json:"result"`
	Donation *DonationView       `json:"donation,omitempty"`
	Errors   []intake.FieldError `json:"errors,omitempty"`
	Message  string              `json:"message,omitempty"`
}

// Handler returns the daemon's HTTP routes.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(session.Middleware)
	r.Use(accessLog(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/campaigns", s.handleCampaigns)
		r.Get("/campaigns/{id}", s.handleCampaign)
		r.Get("/donations", s.handleDonations)
		r.Post("/donations", s.handleSubmitDonation)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
	})
	return r
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (rw *statusWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush lets SSE work through the access log wrapper.
func (rw *statusWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func accessLog(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			ev := l.Info()
			if sess, ok := session.FromContext(r.Context()); ok {
				ev = ev.Str("operator", sess.Operator)
			}
			ev.Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.status).
				Dur("took", time.Since(start)).
				Msg("request")
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func campaignView(p model.CampaignProgress) CampaignView {
	c := p.Campaign
	return CampaignView{
		ID:          c.ID,
		Name:        c.Name,
		Category:    c.Category,
		ProjectID:   c.ProjectID,
		Goal:        c.Goal,
		Raised:      c.Raised,
		Donors:      c.Donors,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Progress:    p.Percent,
		Tier:        p.Tier.String(),
		DaysLeft:    p.DaysLeft,
		Active:      p.Active,
		AverageGift: p.AverageGift,
	}
}

func donationView(d model.Donation) DonationView {
	return DonationView{
		ID:          d.ID,
		DonorID:     d.DonorID,
		CampaignID:  d.CampaignID,
		ProjectID:   d.ProjectID,
		Amount:      d.Amount,
		Date:        d.Date,
		Method:      d.Method,
		RecordedBy:  d.RecordedBy,
		Attribution: model.AttributionOf(d).String(),
	}
}

// handleCampaigns lists campaigns. Query: active=true|false, sort=progress|raised|ending|name.
func (s *Service) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, _, now := s.data()

	switch r.URL.Query().Get("active") {
	case "true":
		campaigns = pipeline.PartitionCampaigns(campaigns, now).Active
	case "false":
		campaigns = pipeline.PartitionCampaigns(campaigns, now).Completed
	case "":
	default:
		writeError(w, http.StatusBadRequest, "active must be true or false")
		return
	}

	rows := pipeline.BuildProgress(campaigns, now)
	pipeline.SortProgress(rows, r.URL.Query().Get("sort"))

	out := make([]CampaignView, 0, len(rows))
	for _, p := range rows {
		out = append(out, campaignView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	campaigns, donations, now := s.data()

	c, ok := pipeline.FindCampaign(campaigns, id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("campaign %q not found", id))
		return
	}

	attributed := pipeline.FilterDonationsByCampaign(donations, id)
	detail := CampaignDetail{
		CampaignView: campaignView(pipeline.CampaignProgressFor(c, now)),
		Donations:    make([]DonationView, 0, len(attributed)),
	}
	for _, d := range attributed {
		detail.Donations = append(detail.Donations, donationView(d))
	}
	if rec := pipeline.ReconcileCampaigns([]model.Campaign{c}, attributed); len(rec) == 1 {
		detail.Reconciliation = rec[0]
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleDonations lists donations newest first. Query: campaign, method, limit.
func (s *Service) handleDonations(w http.ResponseWriter, r *http.Request) {
	_, donations, _ := s.data()
	q := r.URL.Query()

	filtered := pipeline.FilterDonationsByCampaign(donations, q.Get("campaign"))
	filtered = pipeline.FilterDonationsByMethod(filtered, q.Get("method"))

	sorted := make([]model.Donation, len(filtered))
	copy(sorted, filtered)
	pipeline.SortDonationsByDate(sorted)

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < len(sorted) {
			sorted = sorted[:n]
		}
	}

	out := make([]DonationView, 0, len(sorted))
	for _, d := range sorted {
		out = append(out, donationView(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleSubmitDonation(w http.ResponseWriter, r *http.Request) {
	if s.intake == nil {
		writeError(w, http.StatusServiceUnavailable, "donation intake is disabled (no cache or remote configured)")
		return
	}

	var sub intake.Submission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIntakeBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	res := s.intake.Submit(r.Context(), sub)
	resp := intakeResponse{Result: res.Kind.String(), Errors: res.Errors}

	switch res.Kind {
	case intake.Success:
		dv := donationView(res.Donation)
		resp.Donation = &dv
		s.requestPoll()
		writeJSON(w, http.StatusCreated, resp)
	case intake.ValidationError:
		if res.Err != nil {
			resp.Message = res.Err.Error()
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	default:
		resp.Message = res.Err.Error()
		s.log.Error().Err(res.Err).Msg("intake submit failed")
		writeJSON(w, http.StatusBadGateway, resp)
	}
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: s.cfg.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
