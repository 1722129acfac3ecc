package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/scoretree/internal/metrics"
)

func TestGetReturnsBodyAndSendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	m := metrics.New()
	f := New(Options{UserAgent: "scoretree-test", Timeout: time.Second, Metrics: m})

	body, err := f.Get(context.Background(), "score_tree", srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "scoretree-test", gotUA)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("score_tree", metrics.OutcomeOK)))
}

func TestGetTreatsNon2xxAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	m := metrics.New()
	f := New(Options{Timeout: time.Second, Metrics: m})

	_, err := f.Get(context.Background(), "comments", srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("comments", metrics.OutcomeError)))
}

func TestGetNeverDeduplicates(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := New(Options{Timeout: time.Second})
	for i := 0; i < 3; i++ {
		_, err := f.Get(context.Background(), "comments", srv.URL+"/same")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := metrics.New()
	f := New(Options{
		Timeout:         time.Second,
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
		Metrics:         m,
	})

	for i := 0; i < 2; i++ {
		_, err := f.Get(context.Background(), "sub_groups", srv.URL)
		require.ErrorIs(t, err, ErrStatus)
	}
	assert.Equal(t, gobreaker.StateOpen, f.BreakerState("sub_groups"))

	_, err := f.Get(context.Background(), "sub_groups", srv.URL)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("sub_groups", metrics.OutcomeRejected)))

	// other endpoint families keep their own breaker
	assert.Equal(t, gobreaker.StateClosed, f.BreakerState("comments"))
}

func TestGetHonoursContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(Options{Timeout: time.Second, RatePerSecond: 1, Burst: 1})
	_, err := f.Get(ctx, "score_tree", srv.URL)
	assert.Error(t, err)
}
