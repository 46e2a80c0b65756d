package domain

import "time"

// RiskLevel is the coarse risk bucket assigned by the risk scorer.
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskUnknown RiskLevel = "UNKNOWN"
)

// HopResult is the audit trail for one simulated hop.
type HopResult struct {
	From        string    `json:"from"`
	To          string    `json:"to"`
	Pair        string    `json:"pair"`
	Action      HopAction `json:"action"`
	Rate        float64   `json:"rate"`
	Fee         float64   `json:"fee"`
	Slippage    float64   `json:"slippage"`
	QuantityIn  float64   `json:"quantity_in"`
	QuantityOut float64   `json:"quantity_out"`
	FeeUSD      float64   `json:"fee_usd"`
}

// ProfitBreakdown is the simulator's output for one cycle. Quantities are in
// token units; only the entry and exit legs are converted through USD.
type ProfitBreakdown struct {
	ProfitPct        float64     `json:"profit_pct"`
	ProfitUSD        float64     `json:"profit_usd"`
	TotalFeesUSD     float64     `json:"total_fees_usd"`
	StartCapitalUSD  float64     `json:"start_capital_usd"`
	StartTokenAmount float64     `json:"start_token_amount"`
	FinalTokenAmount float64     `json:"final_token_amount"`
	StartPriceUSD    float64     `json:"start_price_usd"`
	FinalPriceUSD    float64     `json:"final_price_usd"`
	Hops             []HopResult `json:"hops"`
}

// RiskAssessment is what the risk scorer returns for one opportunity.
type RiskAssessment struct {
	Confidence       float64   `json:"confidence"`
	RiskLevel        RiskLevel `json:"risk_level"`
	ExecutionTimeSec float64   `json:"execution_time_sec"`
}

// Opportunity is one ranked, scan-scoped arbitrage finding. It is built
// fresh each scan and never mutated afterwards.
type Opportunity struct {
	ID                 string    `json:"id"`
	ScanID             string    `json:"scan_id"`
	Strategy           string    `json:"strategy"`
	Token              string    `json:"token"`
	Path               []string  `json:"path"`
	PathSummary        string    `json:"path_summary"`
	ProfitPct          float64   `json:"profit_pct"`
	ProfitUSD          float64   `json:"profit_usd"`
	FeesTotalUSD       float64   `json:"fees_total_usd"`
	RequiredCapitalUSD float64   `json:"required_capital_usd"`
	Confidence         float64   `json:"ai_confidence"`
	RiskLevel          RiskLevel `json:"risk_level"`
	ExecutionTimeSec   float64   `json:"execution_time_estimate"`
	Status             string    `json:"status"`
	DetectedAt         time.Time `json:"detected_at"`
	Cycle              Cycle     `json:"cycle_data"`
}
