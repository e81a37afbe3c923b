package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		Multiplier:   2,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestClient_Get_SucceedsAfterTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(testPolicy(), zap.NewNop().Sugar())

	body, err := client.Get(context.Background(), server.URL)

	assert.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestClient_Get_ExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(testPolicy(), zap.NewNop().Sugar())

	body, err := client.Get(context.Background(), server.URL)

	assert.ErrorIs(t, err, ErrExhausted)
	assert.Nil(t, body)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestClient_Get_RetriesOnNon2xx(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(testPolicy(), zap.NewNop().Sugar())

	_, err := client.Get(context.Background(), server.URL)

	assert.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Put_Succeeds(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(testPolicy(), zap.NewNop().Sugar())

	err := client.Put(context.Background(), server.URL)

	assert.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
}

func TestClient_Put_ExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testPolicy(), zap.NewNop().Sugar())

	err := client.Put(context.Background(), server.URL)

	assert.ErrorIs(t, err, ErrExhausted)
}

func TestClient_Get_StopsOnCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	policy := testPolicy()
	policy.InitialDelay = time.Second

	client := NewClient(policy, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, server.URL)

	assert.ErrorIs(t, err, context.Canceled)
}
