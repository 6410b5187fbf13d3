package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cambiopix/backend/internal/domain"
)

// Quote is the marked-up price of one USDT in BRL, computed per request and
// never persisted. DisplayRate is what pricing pages show; FinalRate is what
// conversions use.
type Quote struct {
	SpotRate    decimal.Decimal
	DisplayRate decimal.Decimal
	FinalRate   decimal.Decimal
	MarkupFixed decimal.Decimal
	MarkupPct   decimal.Decimal
}

type Service struct {
	httpClient  *http.Client
	tickerURL   string
	symbol      string
	markupFixed decimal.Decimal
	markupPct   decimal.Decimal
}

func NewService(tickerURL, symbol string, markupFixed, markupPct float64) *Service {
	return &Service{
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		tickerURL:   tickerURL,
		symbol:      symbol,
		markupFixed: decimal.NewFromFloat(markupFixed),
		markupPct:   decimal.NewFromFloat(markupPct),
	}
}

type tickerEntry struct {
	LastPr string `json:"lastPr"`
}

type tickerResponse struct {
	Data []tickerEntry `json:"data"`
}

// FetchSpotRate reads the pair's last price from the market-data endpoint.
// Transport failures and non-2xx responses wrap domain.ErrRateUnavailable;
// an empty ticker list or a price that is not a positive decimal wraps
// domain.ErrInvalidQuote. No retry is performed here.
func (s *Service) FetchSpotRate(ctx context.Context) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s?symbol=%s", s.tickerURL, s.symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("FetchSpotRate: build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("FetchSpotRate: %w: %w", domain.ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decimal.Zero, fmt.Errorf("FetchSpotRate: %w: status %d", domain.ErrRateUnavailable, resp.StatusCode)
	}

	var body tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("FetchSpotRate: %w: decode: %w", domain.ErrInvalidQuote, err)
	}

	if len(body.Data) == 0 {
		return decimal.Zero, fmt.Errorf("FetchSpotRate: %w: empty ticker data", domain.ErrInvalidQuote)
	}

	spot, err := decimal.NewFromString(body.Data[0].LastPr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("FetchSpotRate: %w: lastPr %q", domain.ErrInvalidQuote, body.Data[0].LastPr)
	}
	if !spot.IsPositive() {
		return decimal.Zero, fmt.Errorf("FetchSpotRate: %w: non-positive rate %s", domain.ErrInvalidQuote, spot)
	}

	return spot, nil
}

// ComputeQuote applies the platform markup to a spot rate. Pure, no I/O:
// display = spot + fixed, final = (spot + fixed) * (1 + pct).
func (s *Service) ComputeQuote(spot decimal.Decimal) *Quote {
	display := spot.Add(s.markupFixed)
	final := display.Mul(decimal.NewFromInt(1).Add(s.markupPct))

	return &Quote{
		SpotRate:    spot,
		DisplayRate: display,
		FinalRate:   final,
		MarkupFixed: s.markupFixed,
		MarkupPct:   s.markupPct,
	}
}

func (s *Service) GetQuote(ctx context.Context) (*Quote, error) {
	spot, err := s.FetchSpotRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetQuote: %w", err)
	}
	return s.ComputeQuote(spot), nil
}

// FiatToAsset converts a BRL amount into USDT at the final rate, rounded to
// 2 decimal places half away from zero.
func (q *Quote) FiatToAsset(amountBRL decimal.Decimal) decimal.Decimal {
	return amountBRL.Div(q.FinalRate).Round(2)
}

// AssetToFiat converts a USDT amount into BRL at the final rate, rounded the
// same way as FiatToAsset.
func (q *Quote) AssetToFiat(amountUSDT decimal.Decimal) decimal.Decimal {
	return amountUSDT.Mul(q.FinalRate).Round(2)
}
