package session

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s := New("  jo  ")
	assert.Equal(t, "jo", s.Operator)
	_, err := uuid.Parse(s.ID)
	require.NoError(t, err)
	assert.False(t, s.StartedAt.IsZero())

	assert.Equal(t, AnonymousOperator, New("").Operator)
}

func TestClose(t *testing.T) {
	s := New("jo")
	assert.False(t, s.Closed())
	s.Close()
	s.Close()
	assert.True(t, s.Closed())
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Equal(t, AnonymousOperator, OperatorFromContext(context.Background()))

	s := New("ranger")
	ctx := NewContext(context.Background(), s)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, "ranger", OperatorFromContext(ctx))
}

func TestLoggerAddsFields(t *testing.T) {
	var buf bytes.Buffer
	s := New("ranger")
	l := s.Logger(zerolog.New(&buf))
	l.Info().Msg("x")
	assert.Contains(t, buf.String(), `"operator":"ranger"`)
	assert.Contains(t, buf.String(), s.ID)
}

func TestMiddleware(t *testing.T) {
	var seen *Session
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		assert.False(t, seen.Closed())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	req.Header.Set(HeaderOperator, "volunteer-desk")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.NotNil(t, seen)
	assert.Equal(t, "volunteer-desk", seen.Operator)
	assert.Equal(t, seen.ID, rec.Header().Get(HeaderSession))
	assert.True(t, seen.Closed(), "session closed after request")
}
