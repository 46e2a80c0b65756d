package binance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// BookTicker is the best bid/ask for one symbol as returned by the
// /api/v3/ticker/bookTicker endpoint and the @bookTicker stream.
type BookTicker struct {
	Symbol    string
	BidPrice  float64
	BidQty    float64
	AskPrice  float64
	AskQty    float64
	Timestamp time.Time
}

// bookTickerJSON is the wire shape; Binance encodes all numbers as strings.
type bookTickerJSON struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	BidQty   string `json:"bidQty"`
	AskPrice string `json:"askPrice"`
	AskQty   string `json:"askQty"`
}

func (j bookTickerJSON) toBookTicker() (BookTicker, error) {
	bid, err := strconv.ParseFloat(j.BidPrice, 64)
	if err != nil {
		return BookTicker{}, fmt.Errorf("parse bidPrice %q: %w", j.BidPrice, err)
	}
	ask, err := strconv.ParseFloat(j.AskPrice, 64)
	if err != nil {
		return BookTicker{}, fmt.Errorf("parse askPrice %q: %w", j.AskPrice, err)
	}
	bidQty, _ := strconv.ParseFloat(j.BidQty, 64)
	askQty, _ := strconv.ParseFloat(j.AskQty, 64)

	return BookTicker{
		Symbol:    j.Symbol,
		BidPrice:  bid,
		BidQty:    bidQty,
		AskPrice:  ask,
		AskQty:    askQty,
		Timestamp: time.Now(),
	}, nil
}

// streamBookTicker is the @bookTicker stream payload (single-letter keys).
type streamBookTicker struct {
	UpdateID int64  `json:"u"`
	Symbol   string `json:"s"`
	BidPrice string `json:"b"`
	BidQty   string `json:"B"`
	AskPrice string `json:"a"`
	AskQty   string `json:"A"`
}

func (j streamBookTicker) toBookTicker() (BookTicker, error) {
	return bookTickerJSON{
		Symbol:   j.Symbol,
		BidPrice: j.BidPrice,
		BidQty:   j.BidQty,
		AskPrice: j.AskPrice,
		AskQty:   j.AskQty,
	}.toBookTicker()
}

// Balance is one asset balance from the /api/v3/account endpoint.
type Balance struct {
	Asset  string  `json:"asset"`
	Free   float64 `json:"free,string"`
	Locked float64 `json:"locked,string"`
}

// errorResponse is the Binance API error body.
type errorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Symbol converts a "BASE/QUOTE" pair to the Binance symbol format.
func Symbol(pair string) string {
	return strings.ToUpper(strings.ReplaceAll(pair, "/", ""))
}

// ToPriceInfo converts the ticker to the snapshot quote shape. The quantity
// at the best bid, priced at the bid, stands in for available liquidity.
func (t BookTicker) ToPriceInfo() domain.PriceInfo {
	return domain.PriceInfo{
		Bid:       t.BidPrice,
		Ask:       t.AskPrice,
		Liquidity: t.BidQty * t.BidPrice,
		Timestamp: t.Timestamp,
	}
}
