package analytics

import (
	"github.com/ArchanSureja/QuickCredit/internal/models"
	"github.com/shopspring/decimal"
)

const (
	scoreFloor = 300
	scoreCeil  = 900
)

var volumeThreshold = decimal.NewFromInt(500000)
var minBalanceThreshold = decimal.NewFromInt(1000)

// Score maps an analytics record to a credit score, a recommended credit
// limit, and a risk category via a deterministic rule ladder over a base
// score of 300, clamped to [300, 900].
func Score(rec *models.AnalyticsRecord) models.RiskRecord {
	score := creditScore(rec)
	return models.RiskRecord{
		UserID:       rec.UserID,
		AnalyticsID:  rec.ID,
		CreditScore:  score,
		CreditLimit:  creditLimit(score, rec.AverageMaintainedBalance),
		RiskCategory: riskCategory(score),
	}
}

func creditScore(rec *models.AnalyticsRecord) int {
	score := scoreFloor

	if rec.TotalCredit.GreaterThan(volumeThreshold) {
		score += 100
	}
	if rec.TotalDebit.GreaterThan(volumeThreshold) {
		score -= 50
	}

	// Three-tier ratio band. The source checked <1 before <0.75, leaving
	// the middle tier unreachable; the band order here is the intended one.
	switch {
	case rec.DebitToCreditRatio < 0.75:
		score += 100
	case rec.DebitToCreditRatio < 1:
		score += 50
	case rec.DebitToCreditRatio > 1:
		score -= 50
	}

	switch {
	case rec.AverageTxAmount > 10000:
		score += 50
	case rec.AverageTxAmount < 1000:
		score -= 50
	}

	switch {
	case rec.CashFlowStability > 0.7:
		score += 100
	case rec.CashFlowStability < 0.5:
		score -= 100
	}

	switch {
	case rec.BalanceVolatility < 0.7:
		score += 150
	case rec.BalanceVolatility > 1:
		score -= 50
	}

	if positiveCashflowMonths(rec.MonthlyData) > 6 {
		score += 150
	}

	if rec.MinimumMaintainedBalance.LessThan(minBalanceThreshold) {
		score -= 50
	}

	if score > scoreCeil {
		return scoreCeil
	}
	if score < scoreFloor {
		return scoreFloor
	}
	return score
}

func positiveCashflowMonths(months []models.MonthlyData) int {
	n := 0
	for _, m := range months {
		if m.MonthlyInflow.GreaterThan(m.MonthlyOutflow) {
			n++
		}
	}
	return n
}

func creditLimit(score int, avgBalance float64) float64 {
	var limit float64
	switch {
	case score >= 750:
		limit = avgBalance * 5
	case score >= 600:
		limit = avgBalance * 3
	default:
		limit = avgBalance * 1.5
	}
	// An overdraft-dominated balance series must not produce a negative limit.
	if limit < 0 {
		return 0
	}
	return limit
}

func riskCategory(score int) models.RiskCategory {
	switch {
	case score >= 750:
		return models.RiskLow
	case score >= 600:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}
