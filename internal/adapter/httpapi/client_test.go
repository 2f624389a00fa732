package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noWait() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
}

func newTestClient() *Client {
	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	return New("test", h, quietLogger(), WithBackOff(noWait))
}

func TestDoRetriesThrottledRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	t.Cleanup(srv.Close)

	var out struct {
		OK bool `json:"ok"`
	}
	err := newTestClient().Do(context.Background(), http.MethodGet, srv.URL, nil, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.EqualValues(t, 3, calls.Load())
}

func TestDoRetriesServerErrorsUntilExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	err := newTestClient().Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.EqualValues(t, 4, calls.Load())
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"bad filter"}`)
	}))
	t.Cleanup(srv.Close)

	err := newTestClient().Do(context.Background(), http.MethodPost, srv.URL+"/v1/x", map[string]int{"a": 1}, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Contains(t, se.Body, "bad filter")
	assert.Equal(t, "/v1/x", se.URL)
	assert.Contains(t, err.Error(), "unexpected status 400")
	assert.EqualValues(t, 1, calls.Load())
}

func TestDoResendsJSONBodyOnRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"x"}`, string(b))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	err := newTestClient().Do(context.Background(), http.MethodPatch, srv.URL, map[string]string{"name": "x"}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestDoMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data": [`)
	}))
	t.Cleanup(srv.Close)

	var out map[string]any
	err := newTestClient().Do(context.Background(), http.MethodGet, srv.URL, nil, &out)
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestDoNullBodyLeavesPointerNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "null")
	}))
	t.Cleanup(srv.Close)

	var out *struct{ ID int64 }
	require.NoError(t, newTestClient().Do(context.Background(), http.MethodGet, srv.URL, nil, &out))
	assert.Nil(t, out)
}

func TestDoStopsOnCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newTestClient().Do(ctx, http.MethodGet, srv.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRetryAfterHint(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))

	b := &retryAfterBackOff{BackOff: &backoff.ZeroBackOff{}, wait: 2 * time.Second}
	assert.Equal(t, 2*time.Second, b.NextBackOff())
	assert.Zero(t, b.NextBackOff())
}

func TestDoNoRetrySendsOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	err := newTestClient().Do(context.Background(), http.MethodPost, srv.URL, map[string]string{"name": "x"}, nil, NoRetry())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.True(t, Retryable(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.True(t, Retryable(errors.New("connection reset by peer")))
	assert.True(t, Retryable(&StatusError{StatusCode: http.StatusTooManyRequests}))
	assert.True(t, Retryable(&StatusError{StatusCode: http.StatusServiceUnavailable}))
	assert.False(t, Retryable(&StatusError{StatusCode: http.StatusBadRequest}))
	assert.False(t, Retryable(ErrMalformedResponse))
	assert.False(t, Retryable(context.Canceled))
}
