package reporting

import (
	"fmt"
	"strings"

	"intraday-level-lab/internal/domain"
)

// RenderTradesCSV renders the trade list as CSV string.
func RenderTradesCSV(trades []*domain.Trade) string {
	var sb strings.Builder

	sb.WriteString("trade_id,run_id,symbol,side,level,trading_day,")
	sb.WriteString("entry_time_ms,exit_time_ms,entry_price,exit_price,")
	sb.WriteString("pnl_points,exit_reason,bars_held,mfe,mae,sprint\n")

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%d,%d,%.6f,%.6f,%.6f,%s,%d,%.6f,%.6f,%t\n",
			t.TradeID,
			t.RunID,
			t.Symbol,
			t.Side,
			t.Level,
			t.TradingDay,
			t.EntryTimeMs,
			t.ExitTimeMs,
			t.EntryPrice,
			t.ExitPrice,
			t.PnLPoints,
			t.ExitReason,
			t.BarsHeld,
			t.MFE,
			t.MAE,
			t.Sprint,
		))
	}

	return sb.String()
}

// RenderDaysCSV renders the day summaries as CSV string.
func RenderDaysCSV(days []*domain.DaySummary) string {
	var sb strings.Builder

	sb.WriteString("run_id,day,pnl,trades,done,target_hit,holiday\n")

	for _, d := range days {
		sb.WriteString(fmt.Sprintf("%s,%s,%.6f,%d,%t,%t,%t\n",
			d.RunID, d.Day, d.PnL, d.Trades, d.Done, d.TargetHit, d.Holiday))
	}

	return sb.String()
}
