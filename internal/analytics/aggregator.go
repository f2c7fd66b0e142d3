package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/ArchanSureja/QuickCredit/internal/models"
	"github.com/shopspring/decimal"
)

// monthKey buckets transactions by calendar month. Keying by (year, month)
// keeps multi-year feeds from colliding buckets that share a month name.
type monthKey struct {
	year  int
	month time.Month
}

type monthBucket struct {
	inflow     decimal.Decimal
	outflow    decimal.Decimal
	balanceSum float64
	count      int
}

// Aggregate computes the full analytics record from a non-empty transaction
// sequence. It is a pure function: same input, same output, no I/O. The only
// failure mode is ErrUndefinedStatistic when the balance series has a zero
// mean, which would make balance volatility a division by zero.
func Aggregate(txns []models.Transaction) (*models.AnalyticsRecord, error) {
	if len(txns) == 0 {
		return nil, fmt.Errorf("%w: no transactions to aggregate", ErrMalformedFeed)
	}

	rec := &models.AnalyticsRecord{}

	totalCredit := decimal.Zero
	totalDebit := decimal.Zero
	amountSum := decimal.Zero
	cashCount := 0
	minBalance := txns[0].CurrentBalance
	balances := make([]float64, 0, len(txns))
	buckets := make(map[monthKey]*monthBucket)

	for _, t := range txns {
		amountSum = amountSum.Add(t.Amount)
		if t.Type == models.TxCredit {
			totalCredit = totalCredit.Add(t.Amount)
		} else {
			totalDebit = totalDebit.Add(t.Amount)
		}
		if t.IsCash() {
			cashCount++
		}
		if t.CurrentBalance.LessThan(minBalance) {
			minBalance = t.CurrentBalance
		}
		balances = append(balances, t.CurrentBalance.InexactFloat64())

		key := monthKey{year: t.Timestamp.Year(), month: t.Timestamp.Month()}
		b := buckets[key]
		if b == nil {
			b = &monthBucket{inflow: decimal.Zero, outflow: decimal.Zero}
			buckets[key] = b
		}
		if t.Type == models.TxCredit {
			b.inflow = b.inflow.Add(t.Amount)
		} else {
			b.outflow = b.outflow.Add(t.Amount)
		}
		b.balanceSum += t.CurrentBalance.InexactFloat64()
		b.count++
	}

	rec.TotalCredit = totalCredit
	rec.TotalDebit = totalDebit

	// Ratio defined as 0 with no credit history; this masks debit-only
	// feeds, a documented limitation of the source metric.
	if totalCredit.IsZero() {
		rec.DebitToCreditRatio = 0
	} else {
		rec.DebitToCreditRatio = totalDebit.InexactFloat64() / totalCredit.InexactFloat64()
	}

	rec.AverageTxAmount = amountSum.InexactFloat64() / float64(len(txns))

	// Chronological bucket order keeps monthly_data deterministic.
	keys := make([]monthKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	var (
		inflows   []float64
		outflows  []float64
		cashflows []float64
	)
	for _, k := range keys {
		b := buckets[k]
		row := models.MonthlyData{
			MonthName:      k.month.String(),
			MonthlyInflow:  b.inflow,
			MonthlyOutflow: b.outflow,
			MonthlyBalance: b.balanceSum / float64(b.count),
		}
		rec.MonthlyData = append(rec.MonthlyData, row)
		inflows = append(inflows, b.inflow.InexactFloat64())
		outflows = append(outflows, b.outflow.InexactFloat64())
		cashflows = append(cashflows, b.inflow.Sub(b.outflow).InexactFloat64())
	}

	rec.AverageMonthlyInflow = mean(inflows)
	rec.AverageMonthlyOutflow = mean(outflows)
	rec.AverageMonthlyCashflow = mean(cashflows)

	// Inverse coefficient of variation of monthly net cashflow. A negative
	// or zero mean cashflow yields no meaningful stability signal.
	if meanCF := mean(cashflows); meanCF > 0 {
		rec.CashFlowStability = 1 - sampleStdDev(cashflows)/meanCF
	} else {
		rec.CashFlowStability = 0
	}

	rec.MinimumMaintainedBalance = minBalance

	meanBalance := mean(balances)
	if meanBalance == 0 {
		return nil, fmt.Errorf("%w: balance volatility over zero-mean balance series",
			ErrUndefinedStatistic)
	}
	rec.BalanceVolatility = sampleStdDev(balances) / meanBalance
	rec.AverageMaintainedBalance = meanBalance

	rec.CashTxRatio = float64(cashCount) / float64(len(txns))

	return rec, nil
}
