package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// RefStore implements domain.RefStore using PostgreSQL. All reads return the
// full table; the datasets are small and change rarely.
type RefStore struct {
	pool *pgxpool.Pool
}

// NewRefStore creates a RefStore backed by the given connection pool.
func NewRefStore(pool *pgxpool.Pool) *RefStore {
	return &RefStore{pool: pool}
}

// VenueFees returns the per-venue taker fee and gas cost table.
func (s *RefStore) VenueFees(ctx context.Context) ([]domain.VenueFee, error) {
	const query = `
		SELECT venue, kind, taker_fee, gas_usd
		FROM venue_fees
		ORDER BY venue`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: query venue fees: %w", err)
	}
	defer rows.Close()

	var fees []domain.VenueFee
	for rows.Next() {
		var f domain.VenueFee
		var kind string
		if err := rows.Scan(&f.Venue, &kind, &f.TakerFee, &f.GasUSD); err != nil {
			return nil, fmt.Errorf("postgres: scan venue fee: %w", err)
		}
		f.Kind = domain.VenueKind(kind)
		fees = append(fees, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate venue fees: %w", err)
	}
	return fees, nil
}

// TransferCosts returns the per-token withdrawal cost table.
func (s *RefStore) TransferCosts(ctx context.Context) ([]domain.TransferCost, error) {
	const query = `
		SELECT token, fee_pct, time_min, volatility
		FROM transfer_costs
		ORDER BY token`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: query transfer costs: %w", err)
	}
	defer rows.Close()

	var costs []domain.TransferCost
	for rows.Next() {
		var c domain.TransferCost
		if err := rows.Scan(&c.Token, &c.FeePct, &c.TimeMin, &c.Volatility); err != nil {
			return nil, fmt.Errorf("postgres: scan transfer cost: %w", err)
		}
		costs = append(costs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate transfer costs: %w", err)
	}
	return costs, nil
}

// PriceOverrides returns the operator-pinned USD price table.
func (s *RefStore) PriceOverrides(ctx context.Context) ([]domain.PriceOverride, error) {
	const query = `
		SELECT token, price_usd
		FROM price_overrides
		ORDER BY token`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: query price overrides: %w", err)
	}
	defer rows.Close()

	var overrides []domain.PriceOverride
	for rows.Next() {
		var o domain.PriceOverride
		if err := rows.Scan(&o.Token, &o.PriceUSD); err != nil {
			return nil, fmt.Errorf("postgres: scan price override: %w", err)
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate price overrides: %w", err)
	}
	return overrides, nil
}

// UpsertPriceOverride inserts or updates one pinned price.
func (s *RefStore) UpsertPriceOverride(ctx context.Context, o domain.PriceOverride) error {
	const query = `
		INSERT INTO price_overrides (token, price_usd, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (token) DO UPDATE SET
			price_usd  = EXCLUDED.price_usd,
			updated_at = NOW()`

	if _, err := s.pool.Exec(ctx, query, o.Token, o.PriceUSD); err != nil {
		return fmt.Errorf("postgres: upsert price override %s: %w", o.Token, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.RefStore = (*RefStore)(nil)
