package uniswap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// fakeCaller maps pool address to a canned return value.
type fakeCaller struct {
	returns map[common.Address][]byte
	errs    map[common.Address]error
}

func (f *fakeCaller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if err := f.errs[*call.To]; err != nil {
		return nil, err
	}
	out, ok := f.returns[*call.To]
	if !ok {
		return nil, fmt.Errorf("no contract at %s", call.To.Hex())
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// word left-pads b to a 32-byte ABI word.
func word(v *big.Int) []byte {
	out := make([]byte, 32)
	v.FillBytes(out)
	return out
}

// sqrtPriceX96For encodes a raw token1/token0 ratio as a slot0 return value.
func sqrtPriceX96For(rawRatio float64) []byte {
	ratio := new(big.Float).SetFloat64(rawRatio)
	sqrt := new(big.Float).Sqrt(ratio)
	q96 := new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))
	sqrt.Mul(sqrt, q96)
	v, _ := sqrt.Int(nil)
	// slot0 returns seven words; only the first matters here.
	return bytes.Join([][]byte{word(v), make([]byte, 6*32)}, nil)
}

func TestPricesFromSlot0(t *testing.T) {
	pool := Pool{
		Pair:           "WETH/USDT",
		Address:        common.HexToAddress("0x01"),
		Kind:           PoolV3,
		Token0Decimals: 18,
		Token1Decimals: 6,
		BaseIsToken0:   true,
		Fee:            0.003,
	}

	// 3000 USDT per WETH in human units is a raw ratio of 3000e-12.
	caller := &fakeCaller{returns: map[common.Address][]byte{
		pool.Address: sqrtPriceX96For(3000e-12),
	}}

	r := NewReader(ReaderConfig{Caller: caller, Pools: []Pool{pool}, Logger: testLogger()})

	prices, err := r.Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}

	info, ok := prices["WETH/USDT"]
	if !ok {
		t.Fatalf("missing WETH/USDT quote: %v", prices)
	}
	mid := info.Mid()
	if math.Abs(mid-3000) > 1.0 {
		t.Errorf("mid = %v, want ~3000", mid)
	}
	if info.Bid >= info.Ask {
		t.Errorf("bid %v not below ask %v", info.Bid, info.Ask)
	}
	wantSpread := mid * spreadFraction
	if math.Abs((info.Ask-info.Bid)-wantSpread) > 0.01 {
		t.Errorf("spread = %v, want %v", info.Ask-info.Bid, wantSpread)
	}
	if info.Fee != 0.003 {
		t.Errorf("fee = %v, want 0.003", info.Fee)
	}
}

func TestPricesFromReserves(t *testing.T) {
	pool := Pool{
		Pair:           "WETH/USDT",
		Address:        common.HexToAddress("0x02"),
		Kind:           PoolV2,
		Token0Decimals: 18,
		Token1Decimals: 6,
		BaseIsToken0:   true,
		Fee:            0.003,
	}

	// 100 WETH against 300,000 USDT prices WETH at exactly 3000.
	reserve0 := new(big.Int).Mul(big.NewInt(100), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	reserve1 := new(big.Int).Mul(big.NewInt(300_000), new(big.Int).Exp(big.NewInt(10), big.NewInt(6), nil))
	ret := append(word(reserve0), word(reserve1)...)
	ret = append(ret, word(big.NewInt(0))...) // blockTimestampLast

	caller := &fakeCaller{returns: map[common.Address][]byte{pool.Address: ret}}
	r := NewReader(ReaderConfig{Caller: caller, Pools: []Pool{pool}, Logger: testLogger()})

	prices, err := r.Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	mid := prices["WETH/USDT"].Mid()
	if math.Abs(mid-3000) > 0.01 {
		t.Errorf("mid = %v, want 3000", mid)
	}
}

func TestPricesInvertsForToken1Base(t *testing.T) {
	pool := Pool{
		Pair:           "WETH/USDC",
		Address:        common.HexToAddress("0x03"),
		Kind:           PoolV2,
		Token0Decimals: 6,  // USDC
		Token1Decimals: 18, // WETH
		BaseIsToken0:   false,
		Fee:            0.0005,
	}

	// 300,000 USDC against 100 WETH: token1/token0 is 1/3000, so the WETH
	// base price must come out at 3000.
	reserve0 := new(big.Int).Mul(big.NewInt(300_000), new(big.Int).Exp(big.NewInt(10), big.NewInt(6), nil))
	reserve1 := new(big.Int).Mul(big.NewInt(100), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	ret := append(word(reserve0), word(reserve1)...)

	caller := &fakeCaller{returns: map[common.Address][]byte{pool.Address: ret}}
	r := NewReader(ReaderConfig{Caller: caller, Pools: []Pool{pool}, Logger: testLogger()})

	prices, err := r.Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	mid := prices["WETH/USDC"].Mid()
	if math.Abs(mid-3000) > 0.01 {
		t.Errorf("mid = %v, want 3000", mid)
	}
}

func TestPricesSkipsFailingPools(t *testing.T) {
	good := DefaultPools()[0]
	bad := Pool{
		Pair:    "WBTC/WETH",
		Address: common.HexToAddress("0x04"),
		Kind:    PoolV3,
	}

	caller := &fakeCaller{
		returns: map[common.Address][]byte{good.Address: sqrtPriceX96For(3000e-12)},
		errs:    map[common.Address]error{bad.Address: fmt.Errorf("rpc timeout")},
	}
	r := NewReader(ReaderConfig{Caller: caller, Pools: []Pool{good, bad}, Logger: testLogger()})

	prices, err := r.Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if len(prices) != 1 {
		t.Errorf("got %d quotes, want 1", len(prices))
	}

	// Every pool failing is an error, not an empty result.
	allBad := NewReader(ReaderConfig{Caller: &fakeCaller{}, Pools: []Pool{bad}, Logger: testLogger()})
	if _, err := allBad.Prices(context.Background()); err == nil {
		t.Error("all pools failing should return an error")
	}
}
