// Package session carries the operator session explicitly through context.
package session

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HeaderOperator names the operator making a daemon request.
const HeaderOperator = "X-Kanyini-Operator"

// HeaderSession echoes the per-request session ID back to the caller.
const HeaderSession = "X-Kanyini-Session"

// AnonymousOperator is used when no operator name is supplied.
const AnonymousOperator = "anonymous"

// Session identifies who is operating the dashboard. No credentials are checked.
type Session struct {
	ID        string
	Operator  string
	StartedAt time.Time

	closed atomic.Bool
}

// New starts a session for operator.
func New(operator string) *Session {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		operator = AnonymousOperator
	}
	return &Session{
		ID:        uuid.NewString(),
		Operator:  operator,
		StartedAt: time.Now(),
	}
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() {
	s.closed.Store(true)
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Duration reports how long the session has been open.
func (s *Session) Duration() time.Duration {
	return time.Since(s.StartedAt)
}

// Logger returns l annotated with the session fields.
func (s *Session) Logger(l zerolog.Logger) zerolog.Logger {
	return l.With().Str("session", s.ID).Str("operator", s.Operator).Logger()
}

type contextKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session carried by ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

// OperatorFromContext returns the operator name, or AnonymousOperator.
func OperatorFromContext(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.Operator
	}
	return AnonymousOperator
}

// Middleware opens a session per request from the operator header and closes
// it when the handler returns.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := New(r.Header.Get(HeaderOperator))
		defer s.Close()

		w.Header().Set(HeaderSession, s.ID)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
	})
}
