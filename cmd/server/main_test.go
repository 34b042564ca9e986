package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/storage/memory"
)

func newObservationsServer(t *testing.T) (*Server, *memory.PriceObservationStore) {
	t.Helper()
	store := memory.NewPriceObservationStore()
	return &Server{
		observations: store,
		logger:       log.New(io.Discard, "", 0),
	}, store
}

func TestHandleObservations(t *testing.T) {
	server, store := newObservationsServer(t)

	require.NoError(t, store.InsertBulk(context.Background(), []*domain.PriceObservation{
		{Symbol: "ETH", PriceUSD: 2500, Source: "coinmarketcap", TimestampMs: 1000},
		{Symbol: "ETH", PriceUSD: 2510, Source: "coingecko", TimestampMs: 2000},
		{Symbol: "BTC", PriceUSD: 64000, Source: "coinmarketcap", TimestampMs: 1500},
	}))

	rec := httptest.NewRecorder()
	server.handleObservations(rec, httptest.NewRequest(http.MethodGet, "/observations?symbol=eth", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got []*domain.PriceObservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "ETH", got[0].Symbol)
	assert.Equal(t, int64(1000), got[0].TimestampMs)
	assert.Equal(t, int64(2000), got[1].TimestampMs)
}

func TestHandleObservations_WindowFilters(t *testing.T) {
	server, store := newObservationsServer(t)

	require.NoError(t, store.InsertBulk(context.Background(), []*domain.PriceObservation{
		{Symbol: "ETH", PriceUSD: 2500, Source: "coinmarketcap", TimestampMs: 1000},
		{Symbol: "ETH", PriceUSD: 2510, Source: "coinmarketcap", TimestampMs: 2000},
		{Symbol: "ETH", PriceUSD: 2520, Source: "coinmarketcap", TimestampMs: 3000},
	}))

	rec := httptest.NewRecorder()
	server.handleObservations(rec, httptest.NewRequest(http.MethodGet,
		"/observations?symbol=ETH&from=1500&to=2500", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got []*domain.PriceObservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, int64(2000), got[0].TimestampMs)
}

func TestHandleObservations_EmptyResultIsArray(t *testing.T) {
	server, _ := newObservationsServer(t)

	rec := httptest.NewRecorder()
	server.handleObservations(rec, httptest.NewRequest(http.MethodGet, "/observations?symbol=ETH", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandleObservations_BadInputs(t *testing.T) {
	server, _ := newObservationsServer(t)

	for _, target := range []string{
		"/observations",
		"/observations?symbol=not%20a%20ticker",
		"/observations?symbol=ETH&from=yesterday",
		"/observations?symbol=ETH&to=-5",
	} {
		rec := httptest.NewRecorder()
		server.handleObservations(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}
