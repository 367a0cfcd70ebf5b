package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/evote/internal/handlers/clientip"
	"github.com/nkiryanov/evote/internal/ratelimit"
)

type limiterFunc func(ctx context.Context, key string) (bool, error)

func (f limiterFunc) Allow(ctx context.Context, key string) (bool, error) { return f(ctx, key) }

type warnFunc func(string, ...any)

func (f warnFunc) Warn(msg string, v ...any) { f(msg, v...) }

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rejected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	direct, err := clientip.NewResolver(nil)
	require.NoError(t, err)

	serve := func(l limiter, warned *int, r *http.Request) int {
		log := warnFunc(func(string, ...any) { *warned++ })
		rec := httptest.NewRecorder()
		RateLimit(l, direct.Key, log, rejected)(ok).ServeHTTP(rec, r)
		return rec.Code
	}

	t.Run("allowed", func(t *testing.T) {
		var key string
		l := limiterFunc(func(_ context.Context, k string) (bool, error) {
			key = k
			return true, nil
		})
		r := httptest.NewRequest("POST", "/vote/token", nil)
		r.RemoteAddr = "192.0.2.10:4000"
		warned := 0

		code := serve(l, &warned, r)

		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "192.0.2.10", key, "peer address has to be the key")
		require.Zero(t, warned)
	})

	t.Run("rotating forwarded for from one peer shares the limit", func(t *testing.T) {
		l := ratelimit.NewMemory(2, time.Minute)
		warned := 0

		passed := 0
		for i := range 50 {
			r := httptest.NewRequest("POST", "/vote/token", nil)
			r.RemoteAddr = "203.0.113.7:4000"
			r.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
			r.Header.Set("X-Real-IP", fmt.Sprintf("10.1.0.%d", i))

			if serve(l, &warned, r) == http.StatusOK {
				passed++
			}
		}

		require.Equal(t, 2, passed, "proxy headers from untrusted peer must not open new buckets")
		require.Equal(t, 48, warned)
	})

	t.Run("trusted proxy forwards distinct clients", func(t *testing.T) {
		behindProxy, err := clientip.NewResolver([]string{"10.0.0.0/8"})
		require.NoError(t, err)
		l := ratelimit.NewMemory(1, time.Minute)
		log := warnFunc(func(string, ...any) {})

		codes := make([]int, 0, 3)
		for _, client := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.1"} {
			r := httptest.NewRequest("POST", "/vote/token", nil)
			r.RemoteAddr = "10.0.0.2:4000"
			r.Header.Set("X-Forwarded-For", client)
			rec := httptest.NewRecorder()
			RateLimit(l, behindProxy.Key, log, rejected)(ok).ServeHTTP(rec, r)
			codes = append(codes, rec.Code)
		}

		require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("rejected", func(t *testing.T) {
		l := limiterFunc(func(context.Context, string) (bool, error) { return false, nil })
		warned := 0

		code := serve(l, &warned, httptest.NewRequest("POST", "/vote/token", nil))

		require.Equal(t, http.StatusTooManyRequests, code)
		require.Equal(t, 1, warned)
	})

	t.Run("limiter failure lets request through", func(t *testing.T) {
		l := limiterFunc(func(context.Context, string) (bool, error) { return false, errors.New("redis down") })
		warned := 0

		code := serve(l, &warned, httptest.NewRequest("POST", "/vote/token", nil))

		require.Equal(t, http.StatusOK, code)
		require.Equal(t, 1, warned)
	})
}
