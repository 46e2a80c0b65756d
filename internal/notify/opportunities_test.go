package notify

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

type captureSender struct {
	titles   []string
	messages []string
}

func (c *captureSender) Send(_ context.Context, title, message string) error {
	c.titles = append(c.titles, title)
	c.messages = append(c.messages, message)
	return nil
}

func (c *captureSender) Name() string { return "capture" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func opp(token string, profitPct float64) domain.Opportunity {
	return domain.Opportunity{
		Token:       token,
		Strategy:    "cross_exchange",
		ProfitPct:   profitPct,
		ProfitUSD:   profitPct * 10,
		RiskLevel:   domain.RiskLow,
		PathSummary: "binance:" + token + " -> kraken:" + token,
	}
}

func TestPublishFiltersAndCaps(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier([]Sender{sender}, nil, discardLogger())
	on := NewOpportunityNotifier(n, OpportunityNotifierConfig{
		MinProfitPct: 0.5,
		TopN:         2,
		Logger:       discardLogger(),
	})

	opps := []domain.Opportunity{
		opp("BTC", 2.4),
		opp("ETH", 1.1),
		opp("SOL", 0.9), // beyond TopN
		opp("ADA", 0.1), // below floor
	}

	if err := on.Publish(context.Background(), opps); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(sender.messages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.messages))
	}
	if sender.titles[0] != "2 arbitrage opportunities" {
		t.Errorf("title = %q", sender.titles[0])
	}
	msg := sender.messages[0]
	for _, want := range []string{"BTC", "ETH", "+2.40%", "binance:BTC -> kraken:BTC"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	for _, absent := range []string{"SOL", "ADA"} {
		if strings.Contains(msg, absent) {
			t.Errorf("message should not mention %s:\n%s", absent, msg)
		}
	}
}

func TestPublishStaysQuietBelowFloor(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier([]Sender{sender}, nil, discardLogger())
	on := NewOpportunityNotifier(n, OpportunityNotifierConfig{
		MinProfitPct: 1.0,
		Logger:       discardLogger(),
	})

	if err := on.Publish(context.Background(), []domain.Opportunity{opp("BTC", 0.3)}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(sender.messages) != 0 {
		t.Errorf("sent %d messages, want 0", len(sender.messages))
	}
}

func TestNotifierEventFilter(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier([]Sender{sender}, []string{"other"}, discardLogger())
	on := NewOpportunityNotifier(n, OpportunityNotifierConfig{Logger: discardLogger()})

	if err := on.Publish(context.Background(), []domain.Opportunity{opp("BTC", 5)}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(sender.messages) != 0 {
		t.Error("event filter should have suppressed the message")
	}
}
