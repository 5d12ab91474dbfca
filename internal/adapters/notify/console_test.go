package notify_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/pairlock/internal/adapters/notify"
	"github.com/alejandrodnm/pairlock/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeOpp(question string, sumBestAsk float64) domain.Opportunity {
	gap := 1.0 - sumBestAsk - sumBestAsk*0.01
	return domain.Opportunity{
		Market: domain.Market{
			ConditionID: "0xtest",
			Question:    question,
		},
		ScannedAt:    time.Now(),
		YesAsk:       sumBestAsk / 2,
		NoAsk:        sumBestAsk / 2,
		SumBestAsk:   sumBestAsk,
		SpreadTotal:  sumBestAsk - 1.0,
		ArbitrageGap: gap,
		HasArbitrage: gap > 0,
		BelowPairCap: sumBestAsk < 0.98,
		Arbitrage: domain.ArbitrageResult{
			BestAskYES:   sumBestAsk / 2,
			BestAskNO:    sumBestAsk / 2,
			SumBestAsk:   sumBestAsk,
			ArbitrageGap: gap,
			HasArbitrage: gap > 0,
			MaxFillable:  250,
		},
		EntryCostPerPair: -gap,
		EntryCostUSDC:    -gap * 100,
		Competition:      3000,
		CombinedScore:    gap * 100,
		Category:         domain.CategoryGold,
	}
}

func TestConsole_Notify_WithCandidates(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false, false)

	opps := []domain.Opportunity{
		makeOpp("Will Trump win?", 0.95),
		makeOpp("Will BTC hit 100k?", 0.97),
	}

	err := n.Notify(context.Background(), opps)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Will Trump win?")
	assert.Contains(t, out, "0.95")
}

func TestConsole_Notify_EmptyList(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false, false)

	err := n.Notify(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no candidates found")
}

func TestConsole_Notify_LongQuestionTruncated(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false, false)

	longQ := strings.Repeat("A", 50)
	opps := []domain.Opportunity{makeOpp(longQ, 0.95)}

	err := n.Notify(context.Background(), opps)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "…")
}

func TestConsole_Notify_TableMode(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, false)

	opps := []domain.Opportunity{makeOpp("Will Trump win?", 0.95)}

	err := n.Notify(context.Background(), opps)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "candidates")
	assert.Contains(t, out, "LOCK=NOW")
}

func TestConsole_PrintBacktest(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false, false)

	n.PrintBacktest([]domain.BacktestResult{
		{
			Market:              domain.Market{ConditionID: "0xbt", Question: "Will it rain?"},
			SimBidYes:           0.47,
			SimBidNo:            0.45,
			SimPairCost:         0.92,
			FillsYes:            2,
			FillsNo:             2,
			PairsPerDay:         2,
			LockedProfitPerPair: 0.06,
			DailyLockedProfit:   12.0,
			Period:              24 * time.Hour,
			Verdict:             "LOCKABLE",
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Will it rain?")
	assert.Contains(t, out, "LOCKABLE")
	assert.Contains(t, out, "STRATEGY VALIDATED")
}
