package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cambiopix/backend/internal/domain"
)

func TestComputeQuote(t *testing.T) {
	tests := []struct {
		name        string
		fixed       float64
		pct         float64
		spot        string
		wantDisplay string
		wantFinal   string
	}{
		{
			name:        "default markup",
			fixed:       0.10,
			pct:         0.03,
			spot:        "5.40",
			wantDisplay: "5.5",
			wantFinal:   "5.665",
		},
		{
			name:        "zero markup passthrough",
			fixed:       0,
			pct:         0,
			spot:        "5.4321",
			wantDisplay: "5.4321",
			wantFinal:   "5.4321",
		},
		{
			name:        "fixed only",
			fixed:       0.25,
			pct:         0,
			spot:        "5.00",
			wantDisplay: "5.25",
			wantFinal:   "5.25",
		},
		{
			name:        "percentage only",
			fixed:       0,
			pct:         0.05,
			spot:        "6.00",
			wantDisplay: "6",
			wantFinal:   "6.3",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService("http://unused", "USDTBRL", tc.fixed, tc.pct)
			q := svc.ComputeQuote(decimal.RequireFromString(tc.spot))

			assert.True(t, q.DisplayRate.Equal(decimal.RequireFromString(tc.wantDisplay)),
				"display: got %s, want %s", q.DisplayRate, tc.wantDisplay)
			assert.True(t, q.FinalRate.Equal(decimal.RequireFromString(tc.wantFinal)),
				"final: got %s, want %s", q.FinalRate, tc.wantFinal)
			assert.True(t, q.SpotRate.Equal(decimal.RequireFromString(tc.spot)))
		})
	}
}

func TestQuoteConversionsInverse(t *testing.T) {
	svc := NewService("http://unused", "USDTBRL", 0.10, 0.03)
	q := svc.ComputeQuote(decimal.RequireFromString("5.43"))

	tolerance := decimal.RequireFromString("0.02")
	for _, amount := range []string{"1", "50", "199.99", "1234.56", "100000", "1000000"} {
		brl := decimal.RequireFromString(amount)
		roundTrip := q.AssetToFiat(q.FiatToAsset(brl))
		diff := roundTrip.Sub(brl).Abs()
		assert.True(t, diff.LessThan(tolerance),
			"round trip of %s drifted by %s", amount, diff)
	}
}

func TestFiatToAssetRounding(t *testing.T) {
	svc := NewService("http://unused", "USDTBRL", 0, 0)
	q := svc.ComputeQuote(decimal.RequireFromString("5.00"))

	// 100 / 5 = 20 exactly; 101 / 5 = 20.2
	assert.True(t, q.FiatToAsset(decimal.NewFromInt(100)).Equal(decimal.NewFromInt(20)))
	assert.True(t, q.FiatToAsset(decimal.NewFromInt(101)).Equal(decimal.RequireFromString("20.2")))
}

func TestFetchSpotRate(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantRate string
		wantErr  error
	}{
		{
			name: "valid ticker",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"code":"00000","data":[{"lastPr":"5.4321"}]}`))
			},
			wantRate: "5.4321",
		},
		{
			name: "empty data array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"code":"00000","data":[]}`))
			},
			wantErr: domain.ErrInvalidQuote,
		},
		{
			name: "negative price",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data":[{"lastPr":"-1"}]}`))
			},
			wantErr: domain.ErrInvalidQuote,
		},
		{
			name: "zero price",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data":[{"lastPr":"0"}]}`))
			},
			wantErr: domain.ErrInvalidQuote,
		},
		{
			name: "unparseable price",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data":[{"lastPr":"not-a-number"}]}`))
			},
			wantErr: domain.ErrInvalidQuote,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{`))
			},
			wantErr: domain.ErrInvalidQuote,
		},
		{
			name: "upstream 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: domain.ErrRateUnavailable,
		},
		{
			name: "upstream 429",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantErr: domain.ErrRateUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			upstream := httptest.NewServer(tc.handler)
			defer upstream.Close()

			svc := NewService(upstream.URL, "USDTBRL", 0.10, 0.03)
			rate, err := svc.FetchSpotRate(context.Background())

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.True(t, rate.Equal(decimal.RequireFromString(tc.wantRate)),
				"rate: got %s, want %s", rate, tc.wantRate)
		})
	}
}

func TestFetchSpotRate_ConnectionRefused(t *testing.T) {
	svc := NewService("http://127.0.0.1:1", "USDTBRL", 0.10, 0.03)
	_, err := svc.FetchSpotRate(context.Background())
	require.ErrorIs(t, err, domain.ErrRateUnavailable)
}

func TestFetchSpotRate_SendsSymbol(t *testing.T) {
	var gotSymbol string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSymbol = r.URL.Query().Get("symbol")
		w.Write([]byte(`{"data":[{"lastPr":"5.43"}]}`))
	}))
	defer upstream.Close()

	svc := NewService(upstream.URL, "USDTBRL", 0.10, 0.03)
	_, err := svc.FetchSpotRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USDTBRL", gotSymbol)
}
