package domain

// HopAction records which side of the matched pair a hop trades.
// SellBase converts base into quote at the bid; BuyBase converts quote into
// base at the reciprocal of the ask. The action is fixed when the edge is
// built from the literal pair string and is never inferred from hop position.
type HopAction string

const (
	ActionSellBase HopAction = "sell_base"
	ActionBuyBase  HopAction = "buy_base"
)

// EdgeData is the minimal per-hop record a cycle carries. It is sufficient
// to recompute the cycle's profit independently of the graph that produced
// it, which is the consistency contract the simulator is tested against.
type EdgeData struct {
	Rate     float64   `json:"rate"`
	Fee      float64   `json:"fee"`
	Slippage float64   `json:"slippage"`
	Weight   float64   `json:"weight"`
	Pair     string    `json:"pair"`
	Action   HopAction `json:"action"`
	Strategy string    `json:"strategy"`
}

// Cycle is one closed sequence of trades found by the detector. Path holds
// node keys ("TOKEN@venue") with the first repeated at the end. EdgeData is
// keyed "from->to" using those node keys.
type Cycle struct {
	Path           []string            `json:"path"`
	EdgeData       map[string]EdgeData `json:"edge_data"`
	TotalWeight    float64             `json:"total_weight"`
	ProfitEstimate float64             `json:"profit_estimate"`
	Hops           int                 `json:"hops"`
	Venues         []string            `json:"venues"`
	StrategyType   string              `json:"strategy_type"`
}

// HopKey builds the edge_data key for a from->to hop.
func HopKey(from, to string) string {
	return from + "->" + to
}
