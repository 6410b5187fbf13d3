package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cambiopix/backend/internal/logging"
	"github.com/cambiopix/backend/internal/rates"
)

type RatesHandler struct {
	quoter rates.Quoter
}

func NewRatesHandler(quoter rates.Quoter) *RatesHandler {
	return &RatesHandler{quoter: quoter}
}

type quoteResponse struct {
	SpotRate    string `json:"spot_rate"`
	DisplayRate string `json:"display_rate"`
	FinalRate   string `json:"final_rate"`
	AmountBRL   string `json:"amount_brl,omitempty"`
	AmountUSDT  string `json:"amount_usdt,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// GetQuote returns the current marked-up rate; with ?amount_brl= it also
// returns the USDT the caller would receive for that amount.
func (h *RatesHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var amount *decimal.Decimal
	if raw := r.URL.Query().Get("amount_brl"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || !parsed.IsPositive() {
			RespondValidationError(w, []FieldError{{Field: "amount_brl", Message: "must be a positive decimal"}})
			return
		}
		amount = &parsed
	}

	quote, err := h.quoter.GetQuote(r.Context())
	if err != nil {
		log.Warn("rate quote failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	resp := quoteResponse{
		SpotRate:    quote.SpotRate.String(),
		DisplayRate: quote.DisplayRate.String(),
		FinalRate:   quote.FinalRate.String(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if amount != nil {
		resp.AmountBRL = amount.String()
		resp.AmountUSDT = quote.FiatToAsset(*amount).String()
	}

	RespondSuccess(w, http.StatusOK, resp)
}
