package insights

import (
	"sort"

	"github.com/brainonstrategy/bos-dashboard/internal/cache"
)

// StatusSucceeded is the only payment status that counts as revenue.
const StatusSucceeded = "succeeded"

// ProductStats is one row of the per-product revenue breakdown.
type ProductStats struct {
	Product string  `json:"product"`
	Count   int     `json:"count"`
	Amount  float64 `json:"amount"`
}

// TransactionsBundle is the payments aggregate for one window.
type TransactionsBundle struct {
	Count        int               `json:"count"`
	Amount       float64           `json:"amount"`
	DailyRevenue []TimeSeriesPoint `json:"daily_revenue"`
	Products     []ProductStats    `json:"products"`
}

// TransactionAnalyzer aggregates succeeded payments into per-window
// revenue bundles.
type TransactionAnalyzer struct {
	Windows WindowPair
}

func (a TransactionAnalyzer) Analyze(rows []cache.TransactionRow) (current, comparison TransactionsBundle) {
	return a.aggregate(a.filter(rows, a.Windows.Current), a.Windows.Current),
		a.aggregate(a.filter(rows, a.Windows.Comparison), a.Windows.Comparison)
}

func (a TransactionAnalyzer) filter(rows []cache.TransactionRow, w Window) []cache.TransactionRow {
	out := make([]cache.TransactionRow, 0, len(rows))
	for _, r := range rows {
		if r.Status != StatusSucceeded {
			continue
		}
		if !w.Contains(r.Date) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (a TransactionAnalyzer) aggregate(rows []cache.TransactionRow, w Window) TransactionsBundle {
	bundle := TransactionsBundle{}
	revenueByDate := map[string]float64{}
	byProduct := map[string]*ProductStats{}

	for _, r := range rows {
		bundle.Count++
		bundle.Amount += r.Amount
		revenueByDate[r.Date] += r.Amount

		stats := byProduct[r.ProductName]
		if stats == nil {
			stats = &ProductStats{Product: r.ProductName}
			byProduct[r.ProductName] = stats
		}
		stats.Count++
		stats.Amount += r.Amount
	}

	bundle.DailyRevenue = BuildDailySeries(w, revenueByDate)
	bundle.Products = make([]ProductStats, 0, len(byProduct))
	for _, stats := range byProduct {
		bundle.Products = append(bundle.Products, *stats)
	}
	sort.Slice(bundle.Products, func(i, j int) bool {
		if bundle.Products[i].Amount != bundle.Products[j].Amount {
			return bundle.Products[i].Amount > bundle.Products[j].Amount
		}
		return bundle.Products[i].Product < bundle.Products[j].Product
	})
	return bundle
}
