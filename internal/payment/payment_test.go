package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargeSuccess(t *testing.T) {
	var got chargeReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chargeResp{Ref: "txn-42"})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	ref, err := p.Charge(context.Background(), 5140, "KES", "c1:1")
	require.NoError(t, err)
	assert.Equal(t, "txn-42", ref)
	assert.Equal(t, int64(5140), got.AmountCents)
	assert.Equal(t, "KES", got.Currency)
	assert.Equal(t, "c1:1", got.IdempotencyKey)
}

func TestChargeDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	_, err := p.Charge(context.Background(), 100, "KES", "c1:1")
	assert.ErrorIs(t, err, ErrDeclined)
}

func TestChargeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	_, err := p.Charge(context.Background(), 100, "KES", "c1:1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDeclined)
}
