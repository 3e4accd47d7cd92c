package lma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/declaration"
)

func testMessage() declaration.Message {
	return declaration.Message{
		DeclarationID:     "0190f2c4-6c7e-7a1b-9a55-2f1e8c3b4d5e",
		Kind:              declaration.KindFirstReceival,
		WasteStreamNumber: "198080000001",
		Period:            "2025-11",
		TotalWeight:       1520,
		TotalShipments:    2,
	}
}

func TestClient_SubmitAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/declarations", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var msg declaration.Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "198080000001", msg.WasteStreamNumber)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accepted":true,"reference":"LMA-42"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "secret"})
	ack, err := c.Submit(context.Background(), testMessage())

	require.NoError(t, err)
	assert.True(t, ack.Accepted)
	assert.Equal(t, "LMA-42", ack.Reference)
}

func TestClient_RejectionIsNotAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"accepted":true,"reasons":["unknown eural code"]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, FailureThreshold: 1})
	for i := 0; i < 3; i++ {
		ack, err := c.Submit(context.Background(), testMessage())
		require.NoError(t, err)
		assert.False(t, ack.Accepted)
		assert.Equal(t, []string{"unknown eural code"}, ack.Reasons)
	}
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, FailureThreshold: 2, OpenTimeout: time.Hour})
	ctx := context.Background()

	_, err := c.Submit(ctx, testMessage())
	assert.ErrorContains(t, err, "status 503")
	_, err = c.Submit(ctx, testMessage())
	assert.ErrorContains(t, err, "maintenance")

	_, err = c.Submit(ctx, testMessage())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, gobreaker.StateOpen, c.State())
}
