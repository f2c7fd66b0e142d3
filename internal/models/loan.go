package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanProduct is a catalog entry maintained by a lender admin. Read-only to
// the analytics core.
type LoanProduct struct {
	ID                string          `json:"id,omitempty"`
	AdminID           string          `json:"admin_id,omitempty"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	LoanType          string          `json:"loan_type"`
	TargetSegment     string          `json:"target_segment,omitempty"`
	MinTenureMonths   int             `json:"min_tenure_months"`
	MaxTenureMonths   int             `json:"max_tenure_months"`
	MinAmount         decimal.Decimal `json:"min_amount"`
	MaxAmount         decimal.Decimal `json:"max_amount"`
	InterestRate      float64         `json:"interest_rate"`
	ProcessingFeePct  float64         `json:"processing_fee_percent,omitempty"`
	PrepaymentPenalty float64         `json:"prepayment_penalty,omitempty"`
	GracePeriodDays   int             `json:"grace_period_days,omitempty"`
	CreatedAt         time.Time       `json:"created_at,omitempty"`
}

// LoanOffer is a LoanProduct as returned to an applicant: the catalog entry
// with internal identifiers stripped.
type LoanOffer struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	LoanType         string          `json:"loan_type"`
	TargetSegment    string          `json:"target_segment,omitempty"`
	MinTenureMonths  int             `json:"min_tenure_months"`
	MaxTenureMonths  int             `json:"max_tenure_months"`
	MinAmount        decimal.Decimal `json:"min_amount"`
	MaxAmount        decimal.Decimal `json:"max_amount"`
	InterestRate     float64         `json:"interest_rate"`
	ProcessingFeePct float64         `json:"processing_fee_percent,omitempty"`
}

// Offer converts a catalog product into its applicant-facing form.
func (p LoanProduct) Offer() LoanOffer {
	return LoanOffer{
		Name:             p.Name,
		Description:      p.Description,
		LoanType:         p.LoanType,
		TargetSegment:    p.TargetSegment,
		MinTenureMonths:  p.MinTenureMonths,
		MaxTenureMonths:  p.MaxTenureMonths,
		MinAmount:        p.MinAmount,
		MaxAmount:        p.MaxAmount,
		InterestRate:     p.InterestRate,
		ProcessingFeePct: p.ProcessingFeePct,
	}
}

// LenderParams holds a product's eligibility thresholds used by the matcher.
type LenderParams struct {
	ID                    string    `json:"id,omitempty"`
	AdminID               string    `json:"admin_id,omitempty"`
	LoanProductID         string    `json:"loan_product_id"`
	MinMaintainedBalance  float64   `json:"min_maintained_balance"`
	MaxDebitToCreditRatio float64   `json:"max_debit_to_credit_ratio"`
	MinMonthlyInflow      float64   `json:"min_monthly_inflow"`
	MinRecommendedLimit   float64   `json:"min_recommended_limit"`
	MaxRecommendedLimit   float64   `json:"max_recommended_limit"`
	MinCreditScore        int       `json:"min_credit_score"`
	MaxCreditScore        int       `json:"max_credit_score"`
	CreatedAt             time.Time `json:"created_at,omitempty"`
	UpdatedAt             time.Time `json:"updated_at,omitempty"`
}

// ApplicationStatus is the lifecycle state of a loan application.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationDisbursed ApplicationStatus = "disbursed"
)

// LoanApplication records one user's application against a catalog product.
type LoanApplication struct {
	ID              string            `json:"id,omitempty"`
	UserID          string            `json:"user_id"`
	LoanProductID   string            `json:"loan_product_id"`
	Limit           decimal.Decimal   `json:"limit"`
	TenureMonths    int               `json:"tenure_months"`
	Status          ApplicationStatus `json:"application_status"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	Applied         time.Time         `json:"applied"`
	ProcessedAt     *time.Time        `json:"processed_at,omitempty"`
	DisbursedAt     *time.Time        `json:"disbursed_at,omitempty"`
}

// ApplicationSummary is the applicant-facing view of an application joined
// with its product.
type ApplicationSummary struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Tenure       int               `json:"tenure"`
	Amount       decimal.Decimal   `json:"amount"`
	InterestRate float64           `json:"interest_rate"`
	Applied      time.Time         `json:"applied"`
	Updated      *time.Time        `json:"updated,omitempty"`
	Status       ApplicationStatus `json:"status"`
}
