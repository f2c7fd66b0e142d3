package models

import "time"

// RiskCategory buckets a credit score into an underwriting band.
type RiskCategory string

const (
	RiskLow    RiskCategory = "LOW"
	RiskMedium RiskCategory = "MEDIUM"
	RiskHigh   RiskCategory = "HIGH"
)

// RiskRecord is the scoring engine's output for one analytics record.
// CreditScore is always within [300, 900].
type RiskRecord struct {
	ID           string       `json:"id,omitempty"`
	UserID       string       `json:"user_id,omitempty"`
	AnalyticsID  string       `json:"analytics_id,omitempty"`
	CreditScore  int          `json:"credit_score"`
	CreditLimit  float64      `json:"credit_limit"`
	RiskCategory RiskCategory `json:"risk_category"`
	CreatedAt    time.Time    `json:"created_at,omitempty"`
}
