package domain

import (
	"math"
	"strings"
	"time"
)

// VenueKind distinguishes centralized exchanges from on-chain protocols.
type VenueKind string

const (
	VenueCentralized   VenueKind = "centralized"
	VenueDecentralized VenueKind = "decentralized"
)

// PriceInfo is the quote for one trading pair on one venue.
// Fee is the venue's taker fee as a fraction; zero means "use the default".
type PriceInfo struct {
	Bid       float64
	Ask       float64
	Fee       float64
	Liquidity float64
	Timestamp time.Time
}

// Normalized returns a copy with bid/ask swapped when the feed delivered
// them inverted. ok is false when either side is non-finite or non-positive,
// in which case the entry must be skipped.
func (p PriceInfo) Normalized() (PriceInfo, bool) {
	if !isFinitePositive(p.Bid) || !isFinitePositive(p.Ask) {
		return p, false
	}
	if p.Bid > p.Ask {
		p.Bid, p.Ask = p.Ask, p.Bid
	}
	return p, true
}

// Mid returns the bid/ask midpoint.
func (p PriceInfo) Mid() float64 {
	return (p.Bid + p.Ask) / 2
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// VenuePrices maps pair strings ("BASE/QUOTE") to quotes.
type VenuePrices map[string]PriceInfo

// PriceSnapshot is one scan's view of all venue prices, as delivered by the
// data layer. Prices is keyed venue kind, then venue name, then pair.
type PriceSnapshot struct {
	Prices     map[VenueKind]map[string]VenuePrices
	Tokens     []string
	Pairs      []string
	CapturedAt time.Time
}

// Venues returns the venue names of the given kind, in map order.
func (s *PriceSnapshot) Venues(kind VenueKind) []string {
	byKind := s.Prices[kind]
	names := make([]string, 0, len(byKind))
	for name := range byKind {
		names = append(names, name)
	}
	return names
}

// VenuePrices returns the pair quotes for one venue, nil if absent.
func (s *PriceSnapshot) VenuePrices(kind VenueKind, venue string) VenuePrices {
	return s.Prices[kind][venue]
}

// KindOf reports which kind a venue name belongs to.
func (s *PriceSnapshot) KindOf(venue string) (VenueKind, bool) {
	for kind, byVenue := range s.Prices {
		if _, ok := byVenue[venue]; ok {
			return kind, true
		}
	}
	return "", false
}

// SplitPair splits "BASE/QUOTE" into its tokens.
func SplitPair(pair string) (base, quote string, ok bool) {
	i := strings.IndexByte(pair, '/')
	if i <= 0 || i >= len(pair)-1 {
		return "", "", false
	}
	return pair[:i], pair[i+1:], true
}

// Stablecoins treated as worth exactly one USD during simulation.
var stablecoins = map[string]bool{
	"USDT": true,
	"USDC": true,
	"DAI":  true,
	"BUSD": true,
}

// IsStablecoin reports whether the token is a USD stablecoin.
func IsStablecoin(token string) bool {
	return stablecoins[strings.ToUpper(token)]
}
