package binance

import (
	"encoding/json"
	"math"
	"testing"
)

func TestBookTickerDecoding(t *testing.T) {
	raw := []byte(`{"symbol":"BTCUSDT","bidPrice":"48000.50","bidQty":"2.5","askPrice":"48100.00","askQty":"1.0"}`)

	var j bookTickerJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	ticker, err := j.toBookTicker()
	if err != nil {
		t.Fatalf("toBookTicker: %v", err)
	}
	if ticker.Symbol != "BTCUSDT" {
		t.Errorf("symbol = %q", ticker.Symbol)
	}
	if ticker.BidPrice != 48000.50 || ticker.AskPrice != 48100.00 {
		t.Errorf("prices = %v/%v", ticker.BidPrice, ticker.AskPrice)
	}

	info := ticker.ToPriceInfo()
	if info.Bid != ticker.BidPrice || info.Ask != ticker.AskPrice {
		t.Errorf("price info = %v/%v", info.Bid, info.Ask)
	}
	wantLiq := 2.5 * 48000.50
	if math.Abs(info.Liquidity-wantLiq) > 1e-9 {
		t.Errorf("liquidity = %v, want %v", info.Liquidity, wantLiq)
	}
}

func TestBookTickerRejectsBadNumbers(t *testing.T) {
	j := bookTickerJSON{Symbol: "BTCUSDT", BidPrice: "garbage", AskPrice: "48100"}
	if _, err := j.toBookTicker(); err == nil {
		t.Error("unparsable bid accepted")
	}
}

func TestStreamBookTickerDecoding(t *testing.T) {
	raw := []byte(`{"u":400900217,"s":"ETHUSDT","b":"2999.50","B":"31.2","a":"3000.10","A":"40.6"}`)

	var j streamBookTicker
	if err := json.Unmarshal(raw, &j); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	ticker, err := j.toBookTicker()
	if err != nil {
		t.Fatalf("toBookTicker: %v", err)
	}
	if ticker.Symbol != "ETHUSDT" || ticker.BidPrice != 2999.50 || ticker.AskPrice != 3000.10 {
		t.Errorf("ticker = %+v", ticker)
	}
}

func TestSymbol(t *testing.T) {
	cases := map[string]string{
		"BTC/USDT":   "BTCUSDT",
		"eth/usdt":   "ETHUSDT",
		"MATIC/USDT": "MATICUSDT",
	}
	for pair, want := range cases {
		if got := Symbol(pair); got != want {
			t.Errorf("Symbol(%q) = %q, want %q", pair, got, want)
		}
	}
}
