package matching

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ArchanSureja/QuickCredit/internal/models"
	"github.com/shopspring/decimal"
)

func analyticsFixture() *models.AnalyticsRecord {
	return &models.AnalyticsRecord{
		DebitToCreditRatio:       0.6,
		AverageMonthlyInflow:     40000,
		AverageMaintainedBalance: 25000,
	}
}

func riskFixture() *models.RiskRecord {
	return &models.RiskRecord{
		CreditScore: 720,
		CreditLimit: 75000,
	}
}

// passingParams satisfies all five eligibility rules for the fixtures above.
func passingParams(productID string) models.LenderParams {
	return models.LenderParams{
		LoanProductID:         productID,
		MinMaintainedBalance:  10000,
		MaxDebitToCreditRatio: 1.0,
		MinMonthlyInflow:      20000,
		MinRecommendedLimit:   50000,
		MaxRecommendedLimit:   100000,
		MinCreditScore:        600,
		MaxCreditScore:        900,
	}
}

// failingParams satisfies none of the rules.
func failingParams(productID string) models.LenderParams {
	return models.LenderParams{
		LoanProductID:         productID,
		MinMaintainedBalance:  100000,
		MaxDebitToCreditRatio: 0.1,
		MinMonthlyInflow:      500000,
		MinRecommendedLimit:   200000,
		MaxRecommendedLimit:   300000,
		MinCreditScore:        800,
		MaxCreditScore:        900,
	}
}

func product(id, name string) models.LoanProduct {
	return models.LoanProduct{
		ID:              id,
		AdminID:         "admin-1",
		Name:            name,
		LoanType:        "working-capital",
		MinTenureMonths: 6,
		MaxTenureMonths: 24,
		MinAmount:       decimal.NewFromInt(10000),
		MaxAmount:       decimal.NewFromInt(500000),
		InterestRate:    14.5,
	}
}

func TestMatch_ThresholdCounting(t *testing.T) {
	m := NewMatcher(2)
	a := analyticsFixture()
	r := riskFixture()

	// Only the balance-floor rule holds: below threshold.
	one := failingParams("p")
	one.MinMaintainedBalance = 10000
	if m.Match(one, a, r) {
		t.Errorf("Match = true with 1 rule holding, want false at threshold 2")
	}

	// Balance floor and ratio ceiling hold: exactly at threshold.
	two := one
	two.MaxDebitToCreditRatio = 1.0
	if !m.Match(two, a, r) {
		t.Errorf("Match = false with 2 rules holding, want true at threshold 2")
	}
}

func TestMatch_BandRules(t *testing.T) {
	m := NewMatcher(5)
	a := analyticsFixture()
	r := riskFixture()

	all := passingParams("p")
	if !m.Match(all, a, r) {
		t.Fatalf("Match = false with all rules holding")
	}

	// Limit above the band breaks the limit rule.
	outOfBand := passingParams("p")
	outOfBand.MaxRecommendedLimit = 60000
	if m.Match(outOfBand, a, r) {
		t.Errorf("Match = true with credit limit outside the recommended band")
	}

	// Score below the band breaks the score rule.
	lowScore := passingParams("p")
	lowScore.MinCreditScore = 750
	if m.Match(lowScore, a, r) {
		t.Errorf("Match = true with credit score outside the band")
	}
}

func TestMatchedOffers_PreservesCatalogOrder(t *testing.T) {
	m := NewMatcher(2)
	catalog := []models.LoanProduct{
		product("p1", "Working Capital"),
		product("p2", "Term Loan"),
		product("p3", "Overdraft"),
	}
	params := map[string]models.LenderParams{
		"p1": passingParams("p1"),
		"p2": failingParams("p2"),
		"p3": passingParams("p3"),
	}

	offers := m.MatchedOffers(catalog, params, analyticsFixture(), riskFixture())

	want := []string{"Working Capital", "Overdraft"}
	if len(offers) != len(want) {
		t.Fatalf("got %d offers, want %d", len(offers), len(want))
	}
	for i, name := range want {
		if offers[i].Name != name {
			t.Errorf("offers[%d] = %q, want %q", i, offers[i].Name, name)
		}
	}
}

func TestMatchedOffers_StripsInternalIdentifiers(t *testing.T) {
	m := NewMatcher(2)
	catalog := []models.LoanProduct{product("p1", "Working Capital")}
	params := map[string]models.LenderParams{"p1": passingParams("p1")}

	offers := m.MatchedOffers(catalog, params, analyticsFixture(), riskFixture())
	if len(offers) != 1 {
		t.Fatalf("got %d offers, want 1", len(offers))
	}

	encoded, err := json.Marshal(offers[0])
	if err != nil {
		t.Fatalf("marshal offer: %v", err)
	}
	body := string(encoded)
	for _, internal := range []string{"p1", "admin-1", `"id"`, `"admin_id"`} {
		if strings.Contains(body, internal) {
			t.Errorf("offer payload contains internal identifier %q: %s", internal, body)
		}
	}
}

func TestMatchedOffers_SkipsProductsWithoutParams(t *testing.T) {
	m := NewMatcher(1)
	catalog := []models.LoanProduct{product("p1", "Working Capital")}

	offers := m.MatchedOffers(catalog, map[string]models.LenderParams{}, analyticsFixture(), riskFixture())
	if len(offers) != 0 {
		t.Errorf("got %d offers for a product without lender params, want 0", len(offers))
	}
}
