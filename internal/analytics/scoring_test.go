package analytics

import (
	"testing"

	"github.com/ArchanSureja/QuickCredit/internal/models"
	"github.com/shopspring/decimal"
)

// record builds an analytics record with neutral defaults: every ladder rule
// that can stay silent does.
func record() *models.AnalyticsRecord {
	return &models.AnalyticsRecord{
		TotalCredit:              decimal.NewFromInt(100000),
		TotalDebit:               decimal.NewFromInt(100000),
		DebitToCreditRatio:       1.0,
		AverageTxAmount:          5000,
		CashFlowStability:        0.6,
		BalanceVolatility:        0.8,
		MinimumMaintainedBalance: decimal.NewFromInt(2000),
		AverageMaintainedBalance: 10000,
	}
}

// positiveMonths builds n monthly rows with positive net cashflow.
func positiveMonths(n int) []models.MonthlyData {
	months := make([]models.MonthlyData, n)
	for i := range months {
		months[i] = models.MonthlyData{
			MonthlyInflow:  decimal.NewFromInt(2000),
			MonthlyOutflow: decimal.NewFromInt(1000),
		}
	}
	return months
}

func TestScore_WorkedScenario(t *testing.T) {
	rec := record()
	rec.TotalCredit = decimal.NewFromInt(600000)
	rec.TotalDebit = decimal.NewFromInt(400000)
	rec.DebitToCreditRatio = 0.67
	rec.AverageTxAmount = 12000
	rec.CashFlowStability = 0.8
	rec.BalanceVolatility = 0.5
	rec.MinimumMaintainedBalance = decimal.NewFromInt(500)
	rec.MonthlyData = positiveMonths(7)
	rec.AverageMaintainedBalance = 50000

	risk := Score(rec)

	// 300 +100 +100 +50 +100 +150 +150 -50 = 900
	if risk.CreditScore != 900 {
		t.Errorf("credit_score = %d, want 900", risk.CreditScore)
	}
	if risk.RiskCategory != models.RiskLow {
		t.Errorf("risk_category = %s, want LOW", risk.RiskCategory)
	}
	if risk.CreditLimit != 250000 {
		t.Errorf("credit_limit = %v, want 250000 (5x balance)", risk.CreditLimit)
	}
}

func TestScore_ClampedAtCeiling(t *testing.T) {
	rec := record()
	rec.TotalCredit = decimal.NewFromInt(600000)
	rec.TotalDebit = decimal.NewFromInt(100000)
	rec.DebitToCreditRatio = 0.2
	rec.AverageTxAmount = 20000
	rec.CashFlowStability = 0.9
	rec.BalanceVolatility = 0.2
	rec.MinimumMaintainedBalance = decimal.NewFromInt(5000)
	rec.MonthlyData = positiveMonths(8)

	risk := Score(rec)

	// Raw ladder total is 950; the score must clamp to 900.
	if risk.CreditScore != 900 {
		t.Errorf("credit_score = %d, want 900", risk.CreditScore)
	}
}

func TestScore_ClampedAtFloor(t *testing.T) {
	rec := record()
	rec.TotalDebit = decimal.NewFromInt(600000)
	rec.DebitToCreditRatio = 1.5
	rec.AverageTxAmount = 500
	rec.CashFlowStability = 0.3
	rec.BalanceVolatility = 1.2
	rec.MinimumMaintainedBalance = decimal.NewFromInt(100)

	risk := Score(rec)

	// Raw ladder total is -50; the score must clamp to 300.
	if risk.CreditScore != 300 {
		t.Errorf("credit_score = %d, want 300", risk.CreditScore)
	}
	if risk.RiskCategory != models.RiskHigh {
		t.Errorf("risk_category = %s, want HIGH", risk.RiskCategory)
	}
}

func TestScore_RatioBands(t *testing.T) {
	// Stability fixed at 0.8 (+100) keeps the penalty tier visible above
	// the clamp floor.
	tests := []struct {
		name  string
		ratio float64
		want  int
	}{
		{"well below one", 0.5, 500},
		{"middle band", 0.9, 450},
		{"exactly threshold of middle band", 0.75, 450},
		{"exactly one", 1.0, 400},
		{"above one", 1.5, 350},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record()
			rec.CashFlowStability = 0.8
			rec.DebitToCreditRatio = tt.ratio
			risk := Score(rec)
			if risk.CreditScore != tt.want {
				t.Errorf("ratio %v: credit_score = %d, want %d", tt.ratio, risk.CreditScore, tt.want)
			}
		})
	}
}

func TestScore_StrictThresholdsStaySilentAtBoundary(t *testing.T) {
	// Every strict-inequality rule sits exactly at its threshold: average
	// amount 10000, stability 0.7, volatility 0.7, minimum balance 1000,
	// six positive-cashflow months. None may fire.
	rec := record()
	rec.AverageTxAmount = 10000
	rec.CashFlowStability = 0.7
	rec.BalanceVolatility = 0.7
	rec.MinimumMaintainedBalance = decimal.NewFromInt(1000)
	rec.MonthlyData = positiveMonths(6)

	risk := Score(rec)
	if risk.CreditScore != 300 {
		t.Errorf("credit_score = %d, want 300 with every rule at its boundary", risk.CreditScore)
	}
}

func TestScore_LimitAndCategoryBands(t *testing.T) {
	// +100 ratio, +100 stability, +150 volatility, +100 credit volume = 750.
	high := record()
	high.TotalCredit = decimal.NewFromInt(600000)
	high.DebitToCreditRatio = 0.5
	high.CashFlowStability = 0.8
	high.BalanceVolatility = 0.5
	risk := Score(high)
	if risk.CreditScore != 750 {
		t.Fatalf("credit_score = %d, want 750", risk.CreditScore)
	}
	if risk.RiskCategory != models.RiskLow {
		t.Errorf("risk_category = %s, want LOW at 750", risk.RiskCategory)
	}
	if risk.CreditLimit != 50000 {
		t.Errorf("credit_limit = %v, want 50000 (5x)", risk.CreditLimit)
	}

	// +100 ratio, +150 volatility, +150 positive months = 700.
	mid := record()
	mid.DebitToCreditRatio = 0.5
	mid.BalanceVolatility = 0.5
	mid.MonthlyData = positiveMonths(7)
	risk = Score(mid)
	if risk.CreditScore != 700 {
		t.Fatalf("credit_score = %d, want 700", risk.CreditScore)
	}
	if risk.RiskCategory != models.RiskMedium {
		t.Errorf("risk_category = %s, want MEDIUM at 700", risk.RiskCategory)
	}
	if risk.CreditLimit != 30000 {
		t.Errorf("credit_limit = %v, want 30000 (3x)", risk.CreditLimit)
	}

	// Nothing fires: base score 300.
	low := record()
	risk = Score(low)
	if risk.CreditScore != 300 {
		t.Fatalf("credit_score = %d, want 300", risk.CreditScore)
	}
	if risk.RiskCategory != models.RiskHigh {
		t.Errorf("risk_category = %s, want HIGH at 300", risk.RiskCategory)
	}
	if risk.CreditLimit != 15000 {
		t.Errorf("credit_limit = %v, want 15000 (1.5x)", risk.CreditLimit)
	}
}

func TestScore_NegativeBalanceNeverYieldsNegativeLimit(t *testing.T) {
	rec := record()
	rec.AverageMaintainedBalance = -4000
	risk := Score(rec)
	if risk.CreditLimit != 0 {
		t.Errorf("credit_limit = %v, want 0 for overdraft-dominated balance", risk.CreditLimit)
	}
}

func TestScore_EqualInflowOutflowMonthNotPositive(t *testing.T) {
	rec := record()
	months := positiveMonths(7)
	months[0].MonthlyOutflow = months[0].MonthlyInflow
	rec.MonthlyData = months
	risk := Score(rec)
	if risk.CreditScore != 300 {
		t.Errorf("credit_score = %d, want 300 with only 6 positive months", risk.CreditScore)
	}
}
