// Package uniswap reads spot prices straight from Uniswap pool contracts
// over an Ethereum JSON-RPC endpoint. V3 pools are read via slot0; V2-style
// pools (Sushiswap, Pancakeswap forks) via getReserves.
package uniswap

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// Function selectors, derived from the canonical signatures.
var (
	slot0Selector       = ethcrypto.Keccak256([]byte("slot0()"))[:4]
	getReservesSelector = ethcrypto.Keccak256([]byte("getReserves()"))[:4]
)

// spreadFraction is the synthetic bid/ask spread applied around the pool
// mid price. Pools quote a single marginal price; the spread stands in for
// price impact on small trades.
const spreadFraction = 0.003

// PoolKind selects the contract ABI used to read the price.
type PoolKind int

const (
	// PoolV3 reads sqrtPriceX96 from slot0().
	PoolV3 PoolKind = iota
	// PoolV2 reads reserves from getReserves().
	PoolV2
)

// Pool describes one on-chain pool to quote.
type Pool struct {
	// Pair is the "BASE/QUOTE" name the quote is published under.
	Pair string

	Address common.Address
	Kind    PoolKind

	// Token0Decimals and Token1Decimals are the ERC-20 decimals of the
	// pool's token0 and token1.
	Token0Decimals uint8
	Token1Decimals uint8

	// BaseIsToken0 is true when the pair's base token is the pool's token0.
	BaseIsToken0 bool

	// Fee is the pool fee as a fraction, e.g. 0.003 for a 30 bps pool.
	Fee float64
}

// ContractCaller is the subset of the ethclient interface the reader needs.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

var _ ContractCaller = (*ethclient.Client)(nil)

// Reader quotes a fixed set of pools against one RPC endpoint.
type Reader struct {
	caller ContractCaller
	pools  []Pool
	logger *slog.Logger
}

// ReaderConfig holds the reader's collaborators.
type ReaderConfig struct {
	Caller ContractCaller
	Pools  []Pool
	Logger *slog.Logger
}

// NewReader creates a Reader from an existing contract caller.
func NewReader(cfg ReaderConfig) *Reader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pools := cfg.Pools
	if len(pools) == 0 {
		pools = DefaultPools()
	}
	return &Reader{
		caller: cfg.Caller,
		pools:  pools,
		logger: logger.With(slog.String("component", "uniswap_reader")),
	}
}

// Dial connects to the RPC endpoint and returns a Reader over the default
// pool set.
func Dial(ctx context.Context, rpcURL string, logger *slog.Logger) (*Reader, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("uniswap: dial %s: %w", rpcURL, err)
	}
	return NewReader(ReaderConfig{Caller: client, Logger: logger}), nil
}

// DefaultPools returns the mainnet pools quoted when no explicit set is
// configured.
func DefaultPools() []Pool {
	return []Pool{
		{
			Pair:           "WETH/USDT",
			Address:        common.HexToAddress("0x4e68Ccd3E89f51C3074ca5072bbAC773960dFa36"),
			Kind:           PoolV3,
			Token0Decimals: 18, // WETH
			Token1Decimals: 6,  // USDT
			BaseIsToken0:   true,
			Fee:            0.003,
		},
		{
			Pair:           "WBTC/WETH",
			Address:        common.HexToAddress("0xCBCdF9626bC03E24f779434178A73a0B4bad62eD"),
			Kind:           PoolV3,
			Token0Decimals: 8,  // WBTC
			Token1Decimals: 18, // WETH
			BaseIsToken0:   true,
			Fee:            0.003,
		},
		{
			Pair:           "WETH/USDC",
			Address:        common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"),
			Kind:           PoolV3,
			Token0Decimals: 6,  // USDC
			Token1Decimals: 18, // WETH
			BaseIsToken0:   false,
			Fee:            0.0005,
		},
	}
}

// Prices quotes every configured pool. A pool that fails to quote is logged
// and skipped; the error return is reserved for a completely empty result.
func (r *Reader) Prices(ctx context.Context) (domain.VenuePrices, error) {
	out := make(domain.VenuePrices, len(r.pools))

	for _, pool := range r.pools {
		mid, err := r.poolPrice(ctx, pool)
		if err != nil {
			r.logger.Warn("pool quote failed",
				slog.String("pair", pool.Pair),
				slog.String("address", pool.Address.Hex()),
				slog.String("error", err.Error()))
			continue
		}

		half := mid * spreadFraction / 2
		out[pool.Pair] = domain.PriceInfo{
			Bid:       mid - half,
			Ask:       mid + half,
			Fee:       pool.Fee,
			Timestamp: time.Now(),
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("uniswap: no pool produced a quote")
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// poolPrice returns the pool's marginal price in quote tokens per base token.
func (r *Reader) poolPrice(ctx context.Context, pool Pool) (float64, error) {
	var price float64
	var err error

	switch pool.Kind {
	case PoolV3:
		price, err = r.slot0Price(ctx, pool)
	case PoolV2:
		price, err = r.reservesPrice(ctx, pool)
	default:
		return 0, fmt.Errorf("unknown pool kind %d", pool.Kind)
	}
	if err != nil {
		return 0, err
	}

	// price is token1 per token0; invert when the base is token1.
	if !pool.BaseIsToken0 {
		if price == 0 {
			return 0, fmt.Errorf("zero price cannot be inverted")
		}
		price = 1 / price
	}

	if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return 0, fmt.Errorf("degenerate price %v", price)
	}
	return price, nil
}

// slot0Price reads sqrtPriceX96 and converts it to a token1-per-token0
// price adjusted for decimals.
func (r *Reader) slot0Price(ctx context.Context, pool Pool) (float64, error) {
	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &pool.Address,
		Data: slot0Selector,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("slot0 call: %w", err)
	}
	if len(out) < 32 {
		return 0, fmt.Errorf("slot0 returned %d bytes", len(out))
	}

	// First return word is the uint160 sqrtPriceX96.
	sqrtPriceX96 := new(big.Int).SetBytes(out[:32])
	if sqrtPriceX96.Sign() == 0 {
		return 0, fmt.Errorf("pool reports zero sqrt price")
	}

	q96 := new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))
	ratio := new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceX96), q96)
	ratio.Mul(ratio, ratio)

	price, _ := ratio.Float64()
	return price * decimalsFactor(pool.Token0Decimals, pool.Token1Decimals), nil
}

// reservesPrice reads the V2 reserves and returns the token1-per-token0
// price adjusted for decimals.
func (r *Reader) reservesPrice(ctx context.Context, pool Pool) (float64, error) {
	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &pool.Address,
		Data: getReservesSelector,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("getReserves call: %w", err)
	}
	if len(out) < 64 {
		return 0, fmt.Errorf("getReserves returned %d bytes", len(out))
	}

	reserve0 := new(big.Int).SetBytes(out[:32])
	reserve1 := new(big.Int).SetBytes(out[32:64])
	if reserve0.Sign() == 0 {
		return 0, fmt.Errorf("pool has zero token0 reserves")
	}

	ratio := new(big.Float).Quo(
		new(big.Float).SetInt(reserve1),
		new(big.Float).SetInt(reserve0),
	)
	price, _ := ratio.Float64()
	return price * decimalsFactor(pool.Token0Decimals, pool.Token1Decimals), nil
}

// decimalsFactor scales a raw token1/token0 ratio into human units.
func decimalsFactor(dec0, dec1 uint8) float64 {
	return math.Pow10(int(dec0) - int(dec1))
}
