package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyData represents one calendar-month bucket of the analytics record.
// Buckets are keyed by (year, month) internally; MonthName carries the
// calendar month name for downstream consumers.
type MonthlyData struct {
	MonthName      string          `json:"month_name"`
	MonthlyInflow  decimal.Decimal `json:"monthly_inflow"`
	MonthlyOutflow decimal.Decimal `json:"monthly_outflow"`
	MonthlyBalance float64         `json:"monthly_balance"`
}

// AnalyticsRecord holds the derived creditworthiness signals for one user's
// transaction history. All derived fields are write-once: the record is
// computed in full and persisted as an append-only history entry, never
// updated in place.
type AnalyticsRecord struct {
	ID                       string          `json:"id,omitempty"`
	UserID                   string          `json:"user_id,omitempty"`
	TotalCredit              decimal.Decimal `json:"total_credit"`
	TotalDebit               decimal.Decimal `json:"total_debit"`
	DebitToCreditRatio       float64         `json:"debit_to_credit_ratio"`
	AverageTxAmount          float64         `json:"average_tx_amount"`
	MonthlyData              []MonthlyData   `json:"monthly_data"`
	AverageMonthlyInflow     float64         `json:"average_monthly_inflow"`
	AverageMonthlyOutflow    float64         `json:"average_monthly_outflow"`
	AverageMonthlyCashflow   float64         `json:"average_monthly_cashflow"`
	CashFlowStability        float64         `json:"cash_flow_stability"`
	MinimumMaintainedBalance decimal.Decimal `json:"minimum_maintained_balance"`
	BalanceVolatility        float64         `json:"balance_volatility"`
	AverageMaintainedBalance float64         `json:"average_maintained_balance"`
	CashTxRatio              float64         `json:"cash_tx_ratio"`
	CreatedAt                time.Time       `json:"created_at,omitempty"`
}
