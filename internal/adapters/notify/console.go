package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier: imprime los candidatos de acumulación
// del último ciclo de escaneo.
type Console struct {
	out       io.Writer
	orderSize float64
	table     bool
	validate  bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(orderSize float64, table, validate bool) *Console {
	return &Console{out: os.Stdout, orderSize: orderSize, table: table, validate: validate}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table, validate bool) *Console {
	return &Console{out: w, orderSize: 100, table: table, validate: validate}
}

// Notify imprime el output en el modo configurado.
func (c *Console) Notify(_ context.Context, opportunities []domain.Opportunity) error {
	if len(opportunities) == 0 {
		fmt.Fprintf(c.out, "[%s] no candidates found\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(opportunities)
	} else {
		c.printCompact(opportunities)
	}

	if c.validate {
		c.printValidation(opportunities)
	}

	return nil
}

// printCompact imprime lo esencial en 1-2 líneas.
func (c *Console) printCompact(opps []domain.Opportunity) {
	now := time.Now().Format("15:04:05")
	gold, silver, _ := countByCategory(opps)
	arb := countWithArbitrage(opps)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d mkts → G:%d S:%d lock:%d", now, len(opps), gold, silver, arb)

	shown := 0
	for _, opp := range opps {
		if shown >= 4 {
			break
		}
		if opp.Category == domain.CategoryBronze || opp.Category == domain.CategoryAvoid {
			break
		}

		name := compactName(opp.Market.Question, 25)
		if opp.HasArbitrage {
			fmt.Fprintf(&sb, " | [G*]%s pair%.4f gap%.4f %s",
				name, opp.SumBestAsk, opp.ArbitrageGap, opp.Verdict())
		} else {
			fmt.Fprintf(&sb, " | %s %s pair%.4f entry$%.2f %s",
				opp.Category.Icon(), name,
				opp.SumBestAsk, opp.EntryCostUSDC, opp.Verdict())
		}
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa de candidatos.
func (c *Console) printFull(opps []domain.Opportunity) {
	now := time.Now().Format("15:04:05")
	gold, silver, bronze := countByCategory(opps)
	arb := countWithArbitrage(opps)

	fmt.Fprintf(c.out, "\n[%s] %d candidates — G:%d S:%d B:%d lockable:%d\n",
		now, len(opps), gold, silver, bronze, arb)

	c.printTable(opps)
	c.printPortfolio(opps)
}

// printTable imprime la tabla con las métricas de pair cost.
func (c *Console) printTable(opps []domain.Opportunity) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Cat", "Market", "YES ask", "NO ask", "Pair", "Gap", "Entry$", "Fillable$", "Verdict")

	for i, opp := range opps {
		label := marketLabel(opp.Market)

		table.Append(
			fmt.Sprintf("%d", i+1),
			opp.Category.Icon(),
			label,
			fmt.Sprintf("%.4f", opp.YesAsk),
			fmt.Sprintf("%.4f", opp.NoAsk),
			fmt.Sprintf("%.4f", opp.SumBestAsk),
			fmt.Sprintf("%+.4f", opp.ArbitrageGap),
			fmt.Sprintf("$%.2f", opp.EntryCostUSDC),
			fmt.Sprintf("$%.0f", opp.Arbitrage.MaxFillable),
			opp.Verdict(),
		)
	}

	table.Render()

	fmt.Fprintln(c.out, "  Pair = YES ask + NO ask | Gap = 1 - pair - fees (positivo = lock inmediato)")
	fmt.Fprintln(c.out, "  Entry$ = coste de tomar el par entero ya | Fillable$ = profundidad al tope del book")
	fmt.Fprintln(c.out, "  Verdict: LOCK=NOW > ACCUMULATE > WATCH > AVOID")
}

// printPortfolio imprime el resumen de lo bloqueable ahora mismo.
func (c *Console) printPortfolio(opps []domain.Opportunity) {
	golds := filterCat(opps, domain.CategoryGold)
	silvers := filterCat(opps, domain.CategorySilver)

	top := selectTop(golds, silvers, nil, 5)
	if len(top) == 0 {
		fmt.Fprintf(c.out, "\n  ⚠ No hay candidatos Gold o Silver ahora mismo\n\n")
		return
	}

	fmt.Fprintf(c.out, "\n=== LOCK PORTFOLIO (top %d, order $%.0f/side) ===\n", len(top), c.orderSize)

	var totLocked, totFillable float64
	for _, opp := range top {
		name := truncate(opp.Market.Question, 40)
		fmt.Fprintf(c.out, "  %s %-40s pair:%.4f  gap:%+.4f  fillable:$%.0f\n",
			opp.Category.Icon(), name, opp.SumBestAsk, opp.ArbitrageGap, opp.Arbitrage.MaxFillable)
		if opp.CombinedScore > 0 {
			totLocked += opp.CombinedScore
		}
		totFillable += math.Min(opp.Arbitrage.MaxFillable, c.orderSize)
	}

	capital := c.orderSize * float64(len(top))

	fmt.Fprintf(c.out, "\n  Capital: $%.0f (%d markets × $%.0f per pair)\n",
		capital, len(top), c.orderSize)
	fmt.Fprintf(c.out, "  ─────────────────────────────────────────────\n")
	fmt.Fprintf(c.out, "  Lockable now at top of book: $%.4f (deploying $%.0f)\n",
		totLocked, totFillable)

	if totLocked > 0 {
		fmt.Fprintf(c.out, "\n  VEREDICTO: hay gap bloqueable — el motor de acumulación tiene trabajo\n\n")
	} else {
		fmt.Fprintf(c.out, "\n  VEREDICTO: sin gap inmediato — solo acumulación paciente bajo el cap\n\n")
	}
}

// printValidation imprime el cálculo detallado de los top 3.
func (c *Console) printValidation(opps []domain.Opportunity) {
	top := opps
	if len(top) > 3 {
		top = opps[:3]
	}

	fmt.Fprintln(c.out, "=== VALIDATION — pair cost step-by-step ===")

	for i, opp := range top {
		m := opp.Market
		slug := m.Slug
		if slug == "" {
			slug = m.ConditionID
		}

		fmt.Fprintf(c.out, "\n--- #%d: %s  [%s] [%s] ---\n",
			i+1, marketLabel(m), opp.Category.String(), opp.Verdict())
		fmt.Fprintf(c.out, "  URL: https://polymarket.com/event/%s\n", slug)
		if !m.EndDate.IsZero() {
			fmt.Fprintf(c.out, "  End: %s (%.0fh left)\n",
				m.EndDate.Format("2006-01-02"), m.HoursToResolution())
		}

		arb := opp.Arbitrage
		fmt.Fprintf(c.out, "\n  1. BOOK STATE:\n")
		fmt.Fprintf(c.out, "     best_ask YES=%.4f  NO=%.4f\n",
			arb.BestAskYES, arb.BestAskNO)
		fmt.Fprintf(c.out, "     best_bid YES=%.4f  NO=%.4f\n",
			opp.YesBook.BestBid(), opp.NoBook.BestBid())
		fmt.Fprintf(c.out, "     competition=$%.0f\n", opp.Competition)

		fmt.Fprintf(c.out, "\n  2. PAIR COST:\n")
		fmt.Fprintf(c.out, "     sum(ask) = %.4f + %.4f = %.4f\n",
			arb.BestAskYES, arb.BestAskNO, arb.SumBestAsk)
		fmt.Fprintf(c.out, "     fees: $%.4f\n", arb.FeesTotal)
		fmt.Fprintf(c.out, "     >>> GAP: %.4f (1.00 - pair - fees)\n", arb.ArbitrageGap)

		fmt.Fprintf(c.out, "\n  3. ENTRY COST AT $%.0f/SIDE:\n", c.orderSize)
		fmt.Fprintf(c.out, "     cost_per_share_pair: $%.4f\n", opp.EntryCostPerPair)
		fmt.Fprintf(c.out, "     >>> ENTRY COST: $%.4f (negativo = ganancia bloqueada)\n", opp.EntryCostUSDC)
		fmt.Fprintf(c.out, "     fillable at top: $%.0f\n", arb.MaxFillable)

		if len(arb.AtDepth) > 0 {
			fmt.Fprintf(c.out, "\n  4. PAIR COST BY DEPTH:\n")
			for _, d := range arb.AtDepth {
				mark := "✗"
				if d.Profitable {
					mark = "✓"
				}
				fmt.Fprintf(c.out, "     $%5.0f: YES=%.4f NO=%.4f gap=%.4f %s\n",
					d.DepthUSDC, d.AvgPriceYES, d.AvgPriceNO, d.GapAfterFees, mark)
			}
		}
	}
	fmt.Fprintln(c.out)
}

// PrintBacktest imprime los resultados del backtest de trades reales.
func (c *Console) PrintBacktest(results []domain.BacktestResult) {
	if len(results) == 0 {
		fmt.Fprintln(c.out, "\n  No backtest results available.")
		return
	}

	fmt.Fprintf(c.out, "\n╔══════════════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(c.out, "║  BACKTEST — patient bids vs real trades                          ║\n")
	fmt.Fprintf(c.out, "╚══════════════════════════════════════════════════════════════════╝\n\n")

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "SimPair", "Trades(Y/N)", "Fills@Bid", "Pairs/d", "Lock/pair", "Verdict")

	for i, r := range results {
		name := truncate(r.Market.Question, 30)
		if name == "" {
			name = r.Market.ConditionID[:12] + "..."
		}

		fillsLabel := fmt.Sprintf("%d/%d", r.FillsYes, r.FillsNo)
		tradesLabel := fmt.Sprintf("%d/%d", r.TotalTradesYes, r.TotalTradesNo)
		period := fmt.Sprintf("%.0fh", r.Period.Hours())

		table.Append(
			fmt.Sprintf("%d", i+1),
			name,
			fmt.Sprintf("%.4f", r.SimPairCost),
			fmt.Sprintf("%s (%s)", tradesLabel, period),
			fillsLabel,
			fmt.Sprintf("%.1f", r.PairsPerDay),
			fmt.Sprintf("$%.4f", r.LockedProfitPerPair),
			r.Verdict,
		)
	}
	table.Render()

	fmt.Fprintln(c.out)
	for i, r := range results {
		name := truncate(r.Market.Question, 50)
		if name == "" {
			name = r.Market.ConditionID[:14]
		}
		fmt.Fprintf(c.out, "  #%d %s\n", i+1, name)
		fmt.Fprintf(c.out, "     Period:     %.0f hours of trade data\n", r.Period.Hours())
		fmt.Fprintf(c.out, "     Sim BIDs:   YES=%.4f  NO=%.4f (pair %.4f)\n",
			r.SimBidYes, r.SimBidNo, r.SimPairCost)
		fmt.Fprintf(c.out, "     YES trades: %d total, %d would fill your bid\n",
			r.TotalTradesYes, r.FillsYes)
		fmt.Fprintf(c.out, "     NO trades:  %d total, %d would fill your bid\n",
			r.TotalTradesNo, r.FillsNo)
		fmt.Fprintf(c.out, "     Complete pairs/day: %.1f (min of both sides)\n", r.PairsPerDay)
		fmt.Fprintf(c.out, "     Locked/pair: $%.4f\n", r.LockedProfitPerPair)
		fmt.Fprintf(c.out, "     DAILY LOCK: $%.4f/day  ($%.2f/month)\n",
			r.DailyLockedProfit, r.DailyLockedProfit*30)

		icon := "x"
		switch r.Verdict {
		case "LOCKABLE":
			icon = "OK"
		case "MARGINAL":
			icon = "~"
		}
		fmt.Fprintf(c.out, "     VERDICT:    [%s] %s\n\n", icon, r.Verdict)
	}

	// Resumen final
	var totalLocked float64
	lockable := 0
	for _, r := range results {
		totalLocked += r.DailyLockedProfit
		if r.Verdict == "LOCKABLE" {
			lockable++
		}
	}

	fmt.Fprintf(c.out, "  ═══════════════════════════════════════════\n")
	fmt.Fprintf(c.out, "  TOTAL locked profit (with REAL fill rates): $%.4f/day ($%.2f/month)\n",
		totalLocked, totalLocked*30)
	fmt.Fprintf(c.out, "  Lockable markets: %d/%d\n", lockable, len(results))

	if totalLocked > 0 {
		fmt.Fprintf(c.out, "  >>> STRATEGY VALIDATED: patient bids lock pairs below $1\n")
	} else {
		fmt.Fprintf(c.out, "  >>> STRATEGY NOT VALIDATED: no lockable flow in real trade data\n")
	}
	fmt.Fprintln(c.out)
}

// --- helpers ---

func countByCategory(opps []domain.Opportunity) (gold, silver, bronze int) {
	for _, o := range opps {
		switch o.Category {
		case domain.CategoryGold:
			gold++
		case domain.CategorySilver:
			silver++
		case domain.CategoryBronze:
			bronze++
		}
	}
	return
}

func countWithArbitrage(opps []domain.Opportunity) int {
	n := 0
	for _, o := range opps {
		if o.HasArbitrage {
			n++
		}
	}
	return n
}

func filterCat(opps []domain.Opportunity, cat domain.OpportunityCategory) []domain.Opportunity {
	var out []domain.Opportunity
	for _, o := range opps {
		if o.Category == cat {
			out = append(out, o)
		}
	}
	return out
}

func selectTop(golds, silvers, bronzes []domain.Opportunity, n int) []domain.Opportunity {
	var top []domain.Opportunity
	for _, list := range [][]domain.Opportunity{golds, silvers, bronzes} {
		for _, o := range list {
			if len(top) >= n {
				return top
			}
			top = append(top, o)
		}
	}
	return top
}

func marketLabel(m domain.Market) string {
	if m.Question != "" {
		return truncate(m.Question, 38)
	}
	if len(m.ConditionID) > 14 {
		return m.ConditionID[:12] + "..."
	}
	return m.ConditionID
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
