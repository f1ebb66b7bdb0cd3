// Package daemon provides the long-running campaign metrics monitor service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/kanyini-os/kanyini/internal/intake"
	"github.com/kanyini-os/kanyini/internal/logging"
	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/pipeline"
	"github.com/kanyini-os/kanyini/internal/store"
)

// Event types published on /v1/events and /v1/stream.
const (
	EventSnapshot     = "snapshot"
	EventMetricsDelta = "metrics_delta"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DataDir      string
	Days         int
	Category     string
	Project      string
	UseCache     bool
	CachePath    string // defaults to pipeline.CachePath()
	Watch        bool   // re-poll when fixture files change
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Submitter    intake.Submitter // records POSTed donations; the cache when nil and UseCache is set
	Logger       logging.Logger
	Now          func() time.Time
}

// Snapshot is a compact metrics state for status/event payloads.
type Snapshot struct {
	At              time.Time `json:"at"`
	Campaigns       int       `json:"campaigns"`
	Active          int       `json:"active"`
	Completed       int       `json:"completed"`
	TotalGoal       float64   `json:"total_goal"`
	TotalRaised     float64   `json:"total_raised"`
	TotalDonors     int       `json:"total_donors"`
	OverallProgress int       `json:"overall_progress"`
	Donations       int       `json:"donations"`
	DonationTotal   float64   `json:"donation_total"`
	UniqueDonors    int       `json:"unique_donors"`
	AverageDonation float64   `json:"average_donation"`
	TotalPerDay     float64   `json:"total_per_day"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Campaigns       int     `json:"campaigns"`
	Active          int     `json:"active"`
	TotalRaised     float64 `json:"total_raised"`
	TotalDonors     int     `json:"total_donors"`
	OverallProgress int     `json:"overall_progress"`
	Donations       int     `json:"donations"`
	DonationTotal   float64 `json:"donation_total"`
}

func (d Delta) isZero() bool {
	return d.Campaigns == 0 &&
		d.Active == 0 &&
		d.TotalRaised == 0 &&
		d.TotalDonors == 0 &&
		d.OverallProgress == 0 &&
		d.Donations == 0 &&
		d.DonationTotal == 0
}

// Event is emitted whenever the metrics snapshot updates.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DataDir         string    `json:"data_dir"`
	Days            int       `json:"days"`
	Category        string    `json:"category,omitempty"`
	Project         string    `json:"project,omitempty"`
	UsingDefaults   bool      `json:"using_defaults"`
	Watching        bool      `json:"watching"`
	IntakeEnabled   bool      `json:"intake_enabled"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	log logging.Logger

	cache   *store.Cache
	intake  *intake.Service
	pollNow chan struct{}

	mu            sync.RWMutex
	startedAt     time.Time
	lastPollAt    time.Time
	pollCount     int64
	lastError     string
	hasSnapshot   bool
	snapshot      Snapshot
	campaigns     []model.Campaign
	donations     []model.Donation
	usingDefaults bool
	watching      bool
	nextEventID   int64
	events        []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8797"
	}
	if cfg.Days < 1 {
		cfg.Days = 30
	}
	if cfg.CachePath == "" {
		cfg.CachePath = pipeline.CachePath()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Service{
		cfg:       cfg,
		log:       cfg.Logger.With().Str("component", "daemon").Logger(),
		startedAt: cfg.Now(),
		pollNow:   make(chan struct{}, 1),
		subs:      make(map[int]chan Event),
	}
	if cfg.Submitter != nil {
		s.intake = intake.NewService(cfg.Submitter, intake.WithClock(cfg.Now), intake.WithCampaignLookup(s.knownCampaign))
	}
	return s
}

// Run listens on the configured address and serves until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("daemon listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve starts HTTP endpoints on ln and polls until ctx is canceled.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.UseCache {
		cache, err := store.Open(s.cfg.CachePath)
		if err != nil {
			s.log.Warn().Err(err).Msg("cache unavailable; intake disabled")
		} else {
			s.cache = cache
			if s.intake == nil {
				s.intake = intake.NewService(cache, intake.WithClock(s.cfg.Now), intake.WithCampaignLookup(s.knownCampaign))
			}
			defer func() { _ = cache.Close() }()
		}
	}

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info().Str("addr", ln.Addr().String()).Str("data_dir", s.cfg.DataDir).Msg("daemon listening")

	var changes <-chan struct{}
	if s.cfg.Watch {
		dw, err := newDataWatcher(s.cfg.DataDir, 500*time.Millisecond, s.log)
		if err != nil {
			s.log.Warn().Err(err).Str("dir", s.cfg.DataDir).Msg("not watching data dir")
		} else {
			watchCtx, cancelWatch := context.WithCancel(ctx)
			go dw.run(watchCtx)
			defer func() {
				cancelWatch()
				dw.stop()
			}()
			changes = dw.Changed()
			s.mu.Lock()
			s.watching = true
			s.mu.Unlock()
		}
	}

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.closeSubscribers()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce()
		case <-changes:
			s.log.Info().Msg("fixtures changed; reloading")
			s.pollOnce()
		case <-s.pollNow:
			s.pollOnce()
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// requestPoll schedules a poll on the run loop without blocking.
func (s *Service) requestPoll() {
	select {
	case s.pollNow <- struct{}{}:
	default:
	}
}

func (s *Service) pollOnce() {
	start := time.Now()
	campaigns, donations, usedDefaults, err := s.load()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = s.cfg.Now()
		s.pollCount++
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("poll failed")
		return
	}

	now := s.cfg.Now()
	snap := s.buildSnapshot(campaigns, donations, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.campaigns = campaigns
	s.donations = donations
	s.usingDefaults = usedDefaults
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventSnapshot,
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      EventMetricsDelta,
				Timestamp: now,
				Snapshot:  snap,
				Delta:     delta,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}

	s.log.Debug().
		Int("campaigns", len(campaigns)).
		Int("donations", len(donations)).
		Bool("published", publish).
		Dur("took", time.Since(start)).
		Msg("poll complete")
}

func (s *Service) load() (campaigns []model.Campaign, donations []model.Donation, usedDefaults bool, err error) {
	if s.cache != nil {
		cr, loadErr := pipeline.LoadWithCache(s.cfg.DataDir, s.cache, nil)
		if loadErr == nil {
			return cr.Campaigns, cr.Donations, cr.UsedDefaults, nil
		}
		s.log.Warn().Err(loadErr).Msg("cached load failed; falling back to full parse")
	}

	result, err := pipeline.Load(s.cfg.DataDir, nil)
	if err != nil {
		return nil, nil, false, err
	}
	return result.Campaigns, result.Donations, result.UsedDefaults, nil
}

// scope applies the configured category and project filters.
func (s *Service) scope(campaigns []model.Campaign, donations []model.Donation) ([]model.Campaign, []model.Donation) {
	return pipeline.FilterScope(campaigns, donations, s.cfg.Category, s.cfg.Project)
}

func (s *Service) buildSnapshot(campaigns []model.Campaign, donations []model.Donation, now time.Time) Snapshot {
	filtered, donations := s.scope(campaigns, donations)

	totals := pipeline.AggregateCampaigns(filtered)
	part := pipeline.PartitionCampaigns(filtered, now)
	since := now.AddDate(0, 0, -s.cfg.Days)
	ds := pipeline.AggregateDonations(donations, since, now)

	return Snapshot{
		At:              now,
		Campaigns:       totals.Campaigns,
		Active:          len(part.Active),
		Completed:       len(part.Completed),
		TotalGoal:       totals.TotalGoal,
		TotalRaised:     totals.TotalRaised,
		TotalDonors:     totals.TotalDonors,
		OverallProgress: totals.OverallProgress,
		Donations:       ds.Count,
		DonationTotal:   ds.Total,
		UniqueDonors:    ds.UniqueDonors,
		AverageDonation: ds.Average,
		TotalPerDay:     ds.TotalPerDay,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Campaigns:       curr.Campaigns - prev.Campaigns,
		Active:          curr.Active - prev.Active,
		TotalRaised:     curr.TotalRaised - prev.TotalRaised,
		TotalDonors:     curr.TotalDonors - prev.TotalDonors,
		OverallProgress: curr.OverallProgress - prev.OverallProgress,
		Donations:       curr.Donations - prev.Donations,
		DonationTotal:   curr.DonationTotal - prev.DonationTotal,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataDir:         s.cfg.DataDir,
		Days:            s.cfg.Days,
		Category:        s.cfg.Category,
		Project:         s.cfg.Project,
		UsingDefaults:   s.usingDefaults,
		Watching:        s.watching,
		IntakeEnabled:   s.intake != nil,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

// data returns the last loaded campaigns and donations, scoped by the configured filters.
func (s *Service) data() ([]model.Campaign, []model.Donation, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	campaigns, donations := s.scope(s.campaigns, s.donations)
	return campaigns, donations, s.cfg.Now()
}

// knownCampaign reports whether id names any loaded campaign, ignoring filters.
func (s *Service) knownCampaign(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := pipeline.FindCampaign(s.campaigns, id)
	return ok
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// closeSubscribers ends every open stream.
func (s *Service) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}
