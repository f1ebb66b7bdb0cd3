// Package remote provides a client for a donation platform's campaign and donation API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kanyini-os/kanyini/internal/intake"
	"github.com/kanyini-os/kanyini/internal/logging"
	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/source"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	maxPages       = 50
	userAgent      = "kanyini/1.0"
	sourceName     = "remote"
)

var (
	// ErrUnauthorized indicates the API key is missing, expired, or invalid.
	ErrUnauthorized = errors.New("remote: unauthorized (api key expired or invalid)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("remote: rate limited")
)

// Client talks to the donation platform API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the request logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client for baseURL authenticated with apiKey.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("remote: base URL is not configured")
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("remote: invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		http:    &http.Client{},
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchAll fetches campaigns and donations concurrently.
// Partial data is returned even if one request fails; Error holds the first failure.
func (c *Client) FetchAll(ctx context.Context) *SyncData {
	result := &SyncData{FetchedAt: time.Now()}

	var mu sync.Mutex
	var g errgroup.Group

	g.Go(func() error {
		campaigns, skipped, err := c.FetchCampaigns(ctx)
		mu.Lock()
		defer mu.Unlock()
		result.Campaigns = campaigns
		result.Skipped += skipped
		return err
	})
	g.Go(func() error {
		donations, skipped, err := c.FetchDonations(ctx, time.Time{})
		mu.Lock()
		defer mu.Unlock()
		result.Donations = donations
		result.Skipped += skipped
		return err
	})

	result.Error = g.Wait()
	return result
}

// FetchCampaigns returns every campaign, following pagination.
// skipped counts records dropped for unparseable fields.
func (c *Client) FetchCampaigns(ctx context.Context) (campaigns []model.Campaign, skipped int, err error) {
	err = paginate(ctx, c, "/campaigns", nil, func(items []wireCampaign) {
		for _, w := range items {
			rec := w.CampaignRecord
			goal, ok1 := parseAmount(w.Goal)
			raised, ok2 := parseAmount(w.Raised)
			if !ok1 || !ok2 {
				skipped++
				continue
			}
			rec.Goal, rec.Raised = goal, raised
			cp, err := rec.ToModel(sourceName)
			if err != nil || cp.ID == "" {
				skipped++
				continue
			}
			campaigns = append(campaigns, cp)
		}
	})
	return campaigns, skipped, err
}

// FetchDonations returns donations dated on or after since (all when zero).
func (c *Client) FetchDonations(ctx context.Context, since time.Time) (donations []model.Donation, skipped int, err error) {
	q := url.Values{}
	if !since.IsZero() {
		q.Set("since", since.UTC().Format(time.RFC3339))
	}
	err = paginate(ctx, c, "/donations", q, func(items []wireDonation) {
		for _, w := range items {
			rec := w.DonationRecord
			amount, ok := parseAmount(w.Amount)
			if !ok {
				skipped++
				continue
			}
			rec.Amount = amount
			d, err := rec.ToModel(sourceName)
			if err != nil || d.ID == "" {
				skipped++
				continue
			}
			donations = append(donations, d)
		}
	})
	return donations, skipped, err
}

// SubmitDonation posts a donation recorded through intake.
// 400 and 422 responses are reported as intake.ErrRejected.
func (c *Client) SubmitDonation(ctx context.Context, d model.Donation) error {
	body, err := json.Marshal(source.DonationRecordFrom(d))
	if err != nil {
		return fmt.Errorf("remote: encoding donation: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "/donations", nil, body)
	return err
}

func paginate[T any](ctx context.Context, c *Client, path string, q url.Values, each func([]T)) error {
	if q == nil {
		q = url.Values{}
	}
	for i := 0; i < maxPages; i++ {
		body, err := c.do(ctx, http.MethodGet, path, q, nil)
		if err != nil {
			return err
		}
		var p page[T]
		if err := json.Unmarshal(body, &p); err != nil {
			return fmt.Errorf("remote: parsing %s: %w", path, err)
		}
		each(p.Data)
		if p.NextCursor == "" {
			return nil
		}
		q.Set("cursor", p.NextCursor)
	}
	return fmt.Errorf("remote: %s: more than %d pages", path, maxPages)
}

// do performs an authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("remote: creating request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req) //nolint:gosec // URL is built from configured base URL
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, fmt.Errorf("remote: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("remote request")

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("remote: reading response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %s", intake.ErrRejected, errorMessage(body, resp.StatusCode))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("remote: unexpected status %d", resp.StatusCode)
	}
	return body, nil
}

func errorMessage(body []byte, status int) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return "status " + strconv.Itoa(status)
}

// parseAmount defensively parses a polymorphic money field.
// Handles numbers (1250, 1250.5) and strings ("1250.50", "$1,250.50").
func parseAmount(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, true
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		s = strings.TrimLeft(s, "$€£¥AUSDNZ ")
		s = strings.ReplaceAll(s, ",", "")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v, true
		}
	}

	return 0, false
}
