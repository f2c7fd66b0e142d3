// Package matching scores a user's analytics and risk profile against each
// loan product's eligibility parameters and returns the qualifying offers.
package matching

import (
	"github.com/ArchanSureja/QuickCredit/internal/models"
)

// DefaultThreshold is the number of eligibility rules that must hold for a
// product to match, carried over from the source ruleset.
const DefaultThreshold = 2

// Matcher applies a product's lender parameters to a user's analytics and
// risk records. Match is binary per product; no partial-credit ranking is
// surfaced beyond the filter.
type Matcher struct {
	threshold int
}

// NewMatcher returns a matcher requiring at least threshold rules to hold.
// A threshold below 1 falls back to DefaultThreshold.
func NewMatcher(threshold int) *Matcher {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Match reports whether the user qualifies for a product with the given
// lender parameters. Five independent rules are evaluated: balance floor,
// debit/credit ratio ceiling, inflow floor, recommended-limit band, and
// credit-score band.
func (m *Matcher) Match(params models.LenderParams, a *models.AnalyticsRecord, r *models.RiskRecord) bool {
	score := 0
	if params.MinMaintainedBalance <= a.AverageMaintainedBalance {
		score++
	}
	if a.DebitToCreditRatio <= params.MaxDebitToCreditRatio {
		score++
	}
	if params.MinMonthlyInflow <= a.AverageMonthlyInflow {
		score++
	}
	if params.MinRecommendedLimit <= r.CreditLimit && r.CreditLimit <= params.MaxRecommendedLimit {
		score++
	}
	if params.MinCreditScore <= r.CreditScore && r.CreditScore <= params.MaxCreditScore {
		score++
	}
	return score >= m.threshold
}

// MatchedOffers filters the catalog down to the products the user qualifies
// for, preserving catalog order. Products without lender parameters cannot be
// evaluated and never match. Internal identifiers are stripped from each
// returned offer.
func (m *Matcher) MatchedOffers(
	catalog []models.LoanProduct,
	paramsByProduct map[string]models.LenderParams,
	a *models.AnalyticsRecord,
	r *models.RiskRecord,
) []models.LoanOffer {
	offers := make([]models.LoanOffer, 0, len(catalog))
	for _, product := range catalog {
		params, ok := paramsByProduct[product.ID]
		if !ok {
			continue
		}
		if m.Match(params, a, r) {
			offers = append(offers, product.Offer())
		}
	}
	return offers
}
