package domain

import "context"

// VenueFee is a per-venue fee row from the reference database.
type VenueFee struct {
	Venue    string
	Kind     VenueKind
	TakerFee float64
	GasUSD   float64
}

// TransferCost describes moving one token between centralized venues.
type TransferCost struct {
	Token      string
	FeePct     float64
	TimeMin    float64
	Volatility float64
}

// PriceOverride pins a token's fallback USD price.
type PriceOverride struct {
	Token    string
	PriceUSD float64
}

// RefStore serves slow-moving reference data. It is read at startup and on
// demand; it never holds scan output.
type RefStore interface {
	VenueFees(ctx context.Context) ([]VenueFee, error)
	TransferCosts(ctx context.Context) ([]TransferCost, error)
	PriceOverrides(ctx context.Context) ([]PriceOverride, error)
	UpsertPriceOverride(ctx context.Context, o PriceOverride) error
}
