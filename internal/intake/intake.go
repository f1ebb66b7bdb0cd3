// Package intake validates and records donations submitted by an operator.
package intake

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/session"
)

// ErrRejected marks a submission the backing store refused as invalid.
// Submitters wrap it so the result is reported as a validation error.
var ErrRejected = errors.New("intake: submission rejected")

// Submitter records a validated donation.
type Submitter interface {
	SubmitDonation(ctx context.Context, d model.Donation) error
}

// Submission is an operator-entered donation before validation.
type Submission struct {
	DonorID    string    `json:"donor_id"`
	Amount     float64   `json:"amount"`
	CampaignID string    `json:"campaign_id,omitempty"`
	ProjectID  string    `json:"project_id,omitempty"`
	Method     string    `json:"method"`
	Date       time.Time `json:"date,omitempty"`
}

// ResultKind classifies the outcome of a submission.
type ResultKind int

const (
	Success ResultKind = iota
	ValidationError
	NetworkError
)

func (k ResultKind) String() string {
	switch k {
	case Success:
		return "success"
	case ValidationError:
		return "validation_error"
	default:
		return "network_error"
	}
}

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Result is the explicit outcome of Submit.
type Result struct {
	Kind     ResultKind
	Donation model.Donation // set on Success
	Errors   []FieldError   // set on ValidationError
	Err      error          // set on ValidationError from the store, and on NetworkError
}

// OK reports whether the donation was recorded.
func (r Result) OK() bool { return r.Kind == Success }

// Summary is a one-line description of the result for CLI and log output.
func (r Result) Summary() string {
	switch r.Kind {
	case Success:
		return fmt.Sprintf("recorded donation %s", r.Donation.ID)
	case ValidationError:
		if len(r.Errors) == 0 && r.Err != nil {
			return "rejected: " + r.Err.Error()
		}
		msgs := make([]string, 0, len(r.Errors))
		for _, e := range r.Errors {
			msgs = append(msgs, e.Error())
		}
		return "invalid submission: " + strings.Join(msgs, "; ")
	default:
		return "could not record donation: " + r.Err.Error()
	}
}

// Validate checks a submission against the intake rules. now bounds the date.
func Validate(s Submission, now time.Time) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(s.DonorID) == "" {
		errs = append(errs, FieldError{Field: "donor_id", Message: "is required"})
	}
	if math.IsNaN(s.Amount) || math.IsInf(s.Amount, 0) || s.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a positive amount"})
	}
	if s.CampaignID != "" && s.ProjectID != "" {
		errs = append(errs, FieldError{Field: "campaign_id", Message: "a donation may go to a campaign or a project, not both"})
	}
	if s.Method == "" {
		errs = append(errs, FieldError{Field: "method", Message: "is required"})
	} else if !model.IsKnownMethod(s.Method) {
		errs = append(errs, FieldError{
			Field:   "method",
			Message: fmt.Sprintf("unknown method %q (want one of %s)", s.Method, strings.Join(model.PaymentMethods, ", ")),
		})
	}
	if !s.Date.IsZero() && s.Date.After(now) {
		errs = append(errs, FieldError{Field: "date", Message: "cannot be in the future"})
	}

	return errs
}

// Service validates submissions and hands them to a Submitter.
type Service struct {
	submitter Submitter
	now       func() time.Time
	known     func(campaignID string) bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCampaigns restricts campaign IDs to the given set.
func WithCampaigns(campaigns []model.Campaign) Option {
	ids := make(map[string]struct{}, len(campaigns))
	for _, c := range campaigns {
		ids[c.ID] = struct{}{}
	}
	return WithCampaignLookup(func(id string) bool {
		_, ok := ids[id]
		return ok
	})
}

// WithCampaignLookup restricts campaign IDs to those known reports true for.
// known is called on every submission, so it may consult data that changes.
func WithCampaignLookup(known func(campaignID string) bool) Option {
	return func(s *Service) { s.known = known }
}

// NewService returns a Service that records through sub.
func NewService(sub Submitter, opts ...Option) *Service {
	s := &Service{submitter: sub, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates sub, assigns an ID, stamps the operator from the context
// session, and records it.
func (s *Service) Submit(ctx context.Context, sub Submission) Result {
	now := s.now()

	errs := Validate(sub, now)
	if s.known != nil && sub.CampaignID != "" && !s.known(sub.CampaignID) {
		errs = append(errs, FieldError{Field: "campaign_id", Message: "unknown campaign " + sub.CampaignID})
	}
	if len(errs) > 0 {
		return Result{Kind: ValidationError, Errors: errs}
	}

	date := sub.Date
	if date.IsZero() {
		date = now
	}

	d := model.Donation{
		ID:         uuid.NewString(),
		DonorID:    strings.TrimSpace(sub.DonorID),
		CampaignID: sub.CampaignID,
		ProjectID:  sub.ProjectID,
		Amount:     sub.Amount,
		Date:       date,
		Method:     sub.Method,
		RecordedBy: session.OperatorFromContext(ctx),
	}

	if err := s.submitter.SubmitDonation(ctx, d); err != nil {
		if errors.Is(err, ErrRejected) {
			return Result{Kind: ValidationError, Err: err}
		}
		return Result{Kind: NetworkError, Err: err}
	}

	return Result{Kind: Success, Donation: d}
}
