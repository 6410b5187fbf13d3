package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/cambiopix/backend/internal/logging"
)

type Quoter interface {
	GetQuote(ctx context.Context) (*Quote, error)
}

// CachedQuoter wraps a Quoter with a short Redis TTL so pricing pages do not
// hit the upstream ticker on every render. The quoter itself stays
// cache-free; this decorator is only wired when REDIS_URL is configured.
type CachedQuoter struct {
	inner Quoter
	rdb   *redis.Client
	key   string
	ttl   time.Duration
}

func NewCachedQuoter(inner Quoter, rdb *redis.Client, symbol string, ttl time.Duration) *CachedQuoter {
	return &CachedQuoter{
		inner: inner,
		rdb:   rdb,
		key:   "rates:quote:" + symbol,
		ttl:   ttl,
	}
}

type cachedQuote struct {
	SpotRate    string `json:"spot_rate"`
	DisplayRate string `json:"display_rate"`
	FinalRate   string `json:"final_rate"`
	MarkupFixed string `json:"markup_fixed"`
	MarkupPct   string `json:"markup_pct"`
}

func (c *CachedQuoter) GetQuote(ctx context.Context) (*Quote, error) {
	log := logging.FromContext(ctx)

	raw, err := c.rdb.Get(ctx, c.key).Result()
	if err == nil {
		if q, err := decodeCachedQuote(raw); err == nil {
			return q, nil
		}
		log.Warn("discarding malformed cached quote", "key", c.key)
	} else if err != redis.Nil {
		log.Warn("quote cache read failed", "error", err)
	}

	quote, err := c.inner.GetQuote(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(cachedQuote{
		SpotRate:    quote.SpotRate.String(),
		DisplayRate: quote.DisplayRate.String(),
		FinalRate:   quote.FinalRate.String(),
		MarkupFixed: quote.MarkupFixed.String(),
		MarkupPct:   quote.MarkupPct.String(),
	})
	if err == nil {
		if err := c.rdb.Set(ctx, c.key, encoded, c.ttl).Err(); err != nil {
			log.Warn("quote cache write failed", "error", err)
		}
	}

	return quote, nil
}

func decodeCachedQuote(raw string) (*Quote, error) {
	var c cachedQuote
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decodeCachedQuote: %w", err)
	}

	var q Quote
	var err error
	if q.SpotRate, err = decimal.NewFromString(c.SpotRate); err != nil {
		return nil, fmt.Errorf("decodeCachedQuote: spot_rate: %w", err)
	}
	if q.DisplayRate, err = decimal.NewFromString(c.DisplayRate); err != nil {
		return nil, fmt.Errorf("decodeCachedQuote: display_rate: %w", err)
	}
	if q.FinalRate, err = decimal.NewFromString(c.FinalRate); err != nil {
		return nil, fmt.Errorf("decodeCachedQuote: final_rate: %w", err)
	}
	if q.MarkupFixed, err = decimal.NewFromString(c.MarkupFixed); err != nil {
		return nil, fmt.Errorf("decodeCachedQuote: markup_fixed: %w", err)
	}
	if q.MarkupPct, err = decimal.NewFromString(c.MarkupPct); err != nil {
		return nil, fmt.Errorf("decodeCachedQuote: markup_pct: %w", err)
	}
	return &q, nil
}
