package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Simulation Report\n\n")
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s (%s)\n\n", r.GeneratedAt.Format(time.RFC3339), r.ReportID))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Trades | %d |\n", r.Stats.Trades))
	sb.WriteString(fmt.Sprintf("| Wins | %d |\n", r.Stats.Wins))
	sb.WriteString(fmt.Sprintf("| Losses | %d |\n", r.Stats.Losses))
	sb.WriteString(fmt.Sprintf("| Scratches | %d |\n", r.Stats.Scratches))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.4f |\n", r.Stats.WinRate))
	sb.WriteString(fmt.Sprintf("| Net PnL (points) | %.2f |\n", r.Stats.NetPnL))
	sb.WriteString(fmt.Sprintf("| Gross Profit | %.2f |\n", r.Stats.GrossProfit))
	sb.WriteString(fmt.Sprintf("| Gross Loss | %.2f |\n", r.Stats.GrossLoss))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %.4f |\n", r.Stats.ProfitFactor))
	sb.WriteString(fmt.Sprintf("| Trading Days | %d |\n", r.Stats.TradingDays))
	sb.WriteString(fmt.Sprintf("| Winning Days | %d |\n", r.Stats.WinningDays))
	sb.WriteString(fmt.Sprintf("| Losing Days | %d |\n", r.Stats.LosingDays))
	sb.WriteString(fmt.Sprintf("| Target Days | %d |\n", r.Stats.TargetDays))
	sb.WriteString("\n")

	// Exit reasons
	sb.WriteString("## Exit Reasons\n\n")
	if len(r.ExitReasons) > 0 {
		sb.WriteString("| Reason | Count | Wins | PnL |\n")
		sb.WriteString("|--------|-------|------|-----|\n")
		for _, row := range r.ExitReasons {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f |\n",
				row.Reason, row.Count, row.Wins, row.PnL))
		}
	} else {
		sb.WriteString("No trades recorded.\n")
	}
	sb.WriteString("\n")

	// Levels
	sb.WriteString("## Levels\n\n")
	if len(r.Levels) > 0 {
		sb.WriteString("| Level | Count | Wins | PnL |\n")
		sb.WriteString("|-------|-------|------|-----|\n")
		for _, row := range r.Levels {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f |\n",
				row.Level, row.Count, row.Wins, row.PnL))
		}
	} else {
		sb.WriteString("No trades recorded.\n")
	}
	sb.WriteString("\n")

	// Days
	sb.WriteString("## Trading Days\n\n")
	if len(r.Days) > 0 {
		sb.WriteString("| Day | PnL | Trades | Done | Target | Holiday |\n")
		sb.WriteString("|-----|-----|--------|------|--------|--------|\n")
		for _, d := range r.Days {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %d | %s | %s | %s |\n",
				d.Day, d.PnL, d.Trades, yn(d.Done), yn(d.TargetHit), yn(d.Holiday)))
		}
	} else {
		sb.WriteString("No day summaries recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func yn(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
