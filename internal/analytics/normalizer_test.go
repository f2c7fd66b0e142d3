package analytics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ArchanSureja/QuickCredit/internal/models"
	"github.com/shopspring/decimal"
)

// sampleFeed is a two-provider consent-data payload in the shape FIPs
// deliver: amounts as strings, one holder, two transactions on the target
// account.
const sampleFeed = `{
	"fips": [
		{
			"fipID": "other-fip",
			"accounts": [
				{
					"linkRefNumber": "ref-0",
					"data": {
						"account": {
							"profile": {"holders": {"holder": [{"name": "Someone Else"}]}},
							"transactions": {"transaction": [
								{"amount": "1", "currentBalance": "1", "type": "CREDIT", "mode": "UPI", "transactionTimestamp": "2024-01-01T00:00:00Z"}
							]}
						}
					}
				}
			]
		},
		{
			"fipID": "setu-fip-2",
			"accounts": [
				{
					"linkRefNumber": "ref-1",
					"data": {
						"account": {
							"profile": {
								"holders": {
									"holder": [
										{
											"name": "Asha Rao",
											"dob": "1990-04-02",
											"mobile": "9999999999",
											"email": "asha@example.com",
											"pan": "ABCDE1234F",
											"ckycCompliance": true
										}
									]
								}
							},
							"transactions": {
								"transaction": [
									{"amount": "1500.50", "currentBalance": "2500.50", "type": "CREDIT", "mode": "CASH", "transactionTimestamp": "2024-03-05T10:30:00Z"},
									{"amount": 400, "currentBalance": 2100.50, "type": "DEBIT", "mode": "UPI", "transactionTimestamp": "2024-03-08T09:00:00Z"}
								]
							}
						}
					}
				}
			]
		}
	]
}`

func TestParseFeed_SelectsProviderByFIPID(t *testing.T) {
	profile, txns, err := ParseFeed([]byte(sampleFeed), FeedSelector{FIPID: "setu-fip-2"})
	if err != nil {
		t.Fatalf("ParseFeed failed: %v", err)
	}

	if profile.Name != "Asha Rao" {
		t.Errorf("profile name = %q, want %q", profile.Name, "Asha Rao")
	}
	if profile.Email != "asha@example.com" {
		t.Errorf("profile email = %q, want %q", profile.Email, "asha@example.com")
	}
	if !profile.CKYCCompliance {
		t.Errorf("profile ckycCompliance = false, want true")
	}

	if len(txns) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txns))
	}
	if !txns[0].Amount.Equal(decimal.RequireFromString("1500.50")) {
		t.Errorf("txns[0] amount = %s, want 1500.50", txns[0].Amount)
	}
	if txns[0].Type != models.TxCredit || !txns[0].IsCash() {
		t.Errorf("txns[0] = %+v, want CASH CREDIT", txns[0])
	}
	// Numbers arrive quoted or bare; both must coerce.
	if !txns[1].CurrentBalance.Equal(decimal.RequireFromString("2100.50")) {
		t.Errorf("txns[1] balance = %s, want 2100.50", txns[1].CurrentBalance)
	}
	wantTS := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)
	if !txns[0].Timestamp.Equal(wantTS) {
		t.Errorf("txns[0] timestamp = %s, want %s", txns[0].Timestamp, wantTS)
	}
}

func TestParseFeed_EmptySelectorTakesFirstBlock(t *testing.T) {
	profile, txns, err := ParseFeed([]byte(sampleFeed), FeedSelector{})
	if err != nil {
		t.Fatalf("ParseFeed failed: %v", err)
	}
	if profile.Name != "Someone Else" {
		t.Errorf("profile name = %q, want first block's holder", profile.Name)
	}
	if len(txns) != 1 {
		t.Errorf("got %d transactions, want 1", len(txns))
	}
}

func TestParseFeed_UnknownFIPIDIsMalformed(t *testing.T) {
	_, _, err := ParseFeed([]byte(sampleFeed), FeedSelector{FIPID: "missing-fip"})
	if !errors.Is(err, ErrMalformedFeed) {
		t.Fatalf("err = %v, want ErrMalformedFeed", err)
	}
}

func TestParseFeed_PayloadNestedFIPs(t *testing.T) {
	nested := `{"id": "session-1", "status": "COMPLETED", "payload": ` + sampleFeed + `}`
	_, txns, err := ParseFeed([]byte(nested), FeedSelector{FIPID: "setu-fip-2"})
	if err != nil {
		t.Fatalf("ParseFeed failed: %v", err)
	}
	if len(txns) != 2 {
		t.Errorf("got %d transactions, want 2", len(txns))
	}
}

func TestParseFeed_MalformedInputs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `{{{`, ErrMalformedFeed},
		{"no provider blocks", `{"fips": []}`, ErrMalformedFeed},
		{
			"empty transaction list",
			strings.Replace(sampleFeed,
				`{"amount": "1", "currentBalance": "1", "type": "CREDIT", "mode": "UPI", "transactionTimestamp": "2024-01-01T00:00:00Z"}`,
				``, 1),
			ErrMalformedFeed,
		},
		{
			"non-numeric amount",
			strings.Replace(sampleFeed, `"amount": "1"`, `"amount": "N/A"`, 1),
			ErrNumericCoercion,
		},
		{
			"missing amount key",
			strings.Replace(sampleFeed, `"amount": "1", `, ``, 1),
			ErrMalformedFeed,
		},
		{
			"null balance",
			strings.Replace(sampleFeed, `"currentBalance": "1"`, `"currentBalance": null`, 1),
			ErrMalformedFeed,
		},
		{
			"negative amount",
			strings.Replace(sampleFeed, `"amount": "1"`, `"amount": "-5"`, 1),
			ErrMalformedFeed,
		},
		{
			"unknown transaction type",
			strings.Replace(sampleFeed, `"type": "CREDIT", "mode": "UPI"`, `"type": "HOLD", "mode": "UPI"`, 1),
			ErrMalformedFeed,
		},
		{
			"unparseable timestamp",
			strings.Replace(sampleFeed, `"transactionTimestamp": "2024-01-01T00:00:00Z"`, `"transactionTimestamp": "yesterday"`, 1),
			ErrMalformedFeed,
		},
		{
			"no holders",
			strings.Replace(sampleFeed, `"holder": [{"name": "Someone Else"}]`, `"holder": []`, 1),
			ErrMalformedFeed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseFeed([]byte(tt.raw), FeedSelector{FIPID: "other-fip"})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseFeed_AccountIndexOutOfRange(t *testing.T) {
	_, _, err := ParseFeed([]byte(sampleFeed), FeedSelector{FIPID: "setu-fip-2", AccountIndex: 3})
	if !errors.Is(err, ErrMalformedFeed) {
		t.Fatalf("err = %v, want ErrMalformedFeed", err)
	}
}
