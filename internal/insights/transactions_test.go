package insights

import (
	"testing"

	"github.com/brainonstrategy/bos-dashboard/internal/cache"
)

func payment(id, date, product, status string, amount float64) cache.TransactionRow {
	return cache.TransactionRow{
		ID:          id,
		Date:        date,
		ProductName: product,
		Amount:      amount,
		Currency:    "eur",
		Status:      status,
	}
}

func TestTransactionsOnlySucceededCount(t *testing.T) {
	pair := mustPair(t, "2024-01-08", "2024-01-14")
	analyzer := TransactionAnalyzer{Windows: pair}

	rows := []cache.TransactionRow{
		payment("1", "2024-01-08", "Mensile", StatusSucceeded, 100),
		payment("2", "2024-01-09", "Annuale", StatusSucceeded, 500),
		payment("3", "2024-01-09", "Mensile", "failed", 100),
		payment("4", "2024-01-10", "Mensile", "pending", 100),
		payment("5", "2024-02-10", "Mensile", StatusSucceeded, 100), // outside window
	}
	current, _ := analyzer.Analyze(rows)

	if current.Count != 2 || !approx(current.Amount, 600) {
		t.Fatalf("expected 2 succeeded totalling 600, got %+v", current)
	}
}

func TestTransactionsDailyRevenueAndProducts(t *testing.T) {
	pair := mustPair(t, "2024-01-08", "2024-01-14")
	analyzer := TransactionAnalyzer{Windows: pair}

	rows := []cache.TransactionRow{
		payment("1", "2024-01-08", "Mensile", StatusSucceeded, 100),
		payment("2", "2024-01-08", "Mensile", StatusSucceeded, 100),
		payment("3", "2024-01-10", "Annuale", StatusSucceeded, 900),
	}
	current, _ := analyzer.Analyze(rows)

	if len(current.DailyRevenue) != 7 {
		t.Fatalf("expected 7 daily points, got %d", len(current.DailyRevenue))
	}
	if current.DailyRevenue[0].Value != 200 || current.DailyRevenue[2].Value != 900 {
		t.Fatalf("unexpected daily revenue %+v", current.DailyRevenue)
	}

	if len(current.Products) != 2 {
		t.Fatalf("expected 2 products, got %+v", current.Products)
	}
	if current.Products[0].Product != "Annuale" || current.Products[0].Count != 1 {
		t.Fatalf("expected Annuale first by amount, got %+v", current.Products[0])
	}
	if current.Products[1].Count != 2 || !approx(current.Products[1].Amount, 200) {
		t.Fatalf("unexpected Mensile stats %+v", current.Products[1])
	}
}

func TestTransactionsComparisonWindow(t *testing.T) {
	pair := mustPair(t, "2024-01-08", "2024-01-14")
	analyzer := TransactionAnalyzer{Windows: pair}

	rows := []cache.TransactionRow{
		payment("1", "2024-01-10", "Mensile", StatusSucceeded, 100),
		payment("2", "2024-01-03", "Mensile", StatusSucceeded, 40),
	}
	current, comparison := analyzer.Analyze(rows)

	if !approx(current.Amount, 100) || !approx(comparison.Amount, 40) {
		t.Fatalf("windows mixed up: current %v comparison %v", current.Amount, comparison.Amount)
	}
}
