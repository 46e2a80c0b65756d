package arbitrage

import (
	"sort"
	"strings"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// Fixed fallback prices for when the snapshot carries no stablecoin pair
// for a token. Reference-store overrides are layered on top at wiring time.
var fallbackPricesUSD = map[string]float64{
	"BTC":   50000.0,
	"ETH":   3000.0,
	"BNB":   300.0,
	"ADA":   0.5,
	"SOL":   100.0,
	"ALGO":  0.18,
	"WETH":  3000.0,
	"WBTC":  50000.0,
	"WBNB":  300.0,
	"LINK":  15.0,
	"MATIC": 0.85,
	"CAKE":  3.5,
	"DAI":   1.0,
	"USDT":  1.0,
	"USDC":  1.0,
}

// PriceResolver resolves a token's USD price from a snapshot with the fixed
// table as the last tier.
type PriceResolver struct {
	overrides map[string]float64
}

// NewPriceResolver creates a resolver. overrides take precedence over the
// built-in fallback table (not over live snapshot prices).
func NewPriceResolver(overrides map[string]float64) *PriceResolver {
	normalized := make(map[string]float64, len(overrides))
	for token, price := range overrides {
		normalized[strings.ToUpper(token)] = price
	}
	return &PriceResolver{overrides: normalized}
}

// PriceUSD resolves in three tiers: stablecoins are exactly one dollar, a
// token/stablecoin mid from any venue comes next, and the fixed table backs
// everything else. ok is false only when all three tiers miss.
func (r *PriceResolver) PriceUSD(snap *domain.PriceSnapshot, token string) (float64, bool) {
	token = strings.ToUpper(token)
	if domain.IsStablecoin(token) {
		return 1.0, true
	}
	// Venue iteration is ordered so repeated runs against the same
	// snapshot resolve the same price.
	if snap != nil {
		for _, kind := range []domain.VenueKind{domain.VenueCentralized, domain.VenueDecentralized} {
			byVenue := snap.Prices[kind]
			venues := make([]string, 0, len(byVenue))
			for venue := range byVenue {
				venues = append(venues, venue)
			}
			sort.Strings(venues)
			for _, venue := range venues {
				prices := byVenue[venue]
				for _, stable := range []string{"USDT", "USDC", "DAI", "BUSD"} {
					if raw, found := prices[token+"/"+stable]; found {
						if info, valid := raw.Normalized(); valid && info.Mid() > 0 {
							return info.Mid(), true
						}
					}
				}
			}
		}
	}
	if price, ok := r.overrides[token]; ok && price > 0 {
		return price, true
	}
	if price, ok := fallbackPricesUSD[token]; ok {
		return price, true
	}
	return 0, false
}
