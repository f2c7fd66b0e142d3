package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ArchanSureja/QuickCredit/internal/models"
	"github.com/shopspring/decimal"
)

// FeedSelector names the account-selection policy applied to a multi-provider
// feed. The provider block is selected by its FIP identifier rather than by
// position; AccountIndex picks the account within the selected block.
type FeedSelector struct {
	FIPID        string
	AccountIndex int
}

// rawNumber captures an amount-like field that FIPs serialize either as a
// JSON number or as a quoted string. Coercion to decimal happens explicitly
// so a bad value fails the whole parse instead of being dropped.
type rawNumber string

func (n *rawNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = rawNumber(s)
		return nil
	}
	*n = rawNumber(b)
	return nil
}

func (n rawNumber) decimal(field string) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: missing %s", ErrMalformedFeed, field)
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s=%q", ErrNumericCoercion, field, string(n))
	}
	return d, nil
}

type rawFeed struct {
	FIPs    []rawFIPBlock `json:"fips"`
	Payload *struct {
		FIPs []rawFIPBlock `json:"fips"`
	} `json:"payload"`
}

type rawFIPBlock struct {
	FIPID    string       `json:"fipID"`
	Accounts []rawAccount `json:"accounts"`
}

type rawAccount struct {
	LinkRefNumber string `json:"linkRefNumber"`
	Data          struct {
		Account rawAccountDetail `json:"account"`
	} `json:"data"`
}

type rawAccountDetail struct {
	Profile struct {
		Holders struct {
			Holder []rawHolder `json:"holder"`
		} `json:"holders"`
	} `json:"profile"`
	Transactions struct {
		Transaction []rawTransaction `json:"transaction"`
	} `json:"transactions"`
}

type rawHolder struct {
	Name           string `json:"name"`
	DOB            string `json:"dob"`
	Mobile         string `json:"mobile"`
	Email          string `json:"email"`
	PAN            string `json:"pan"`
	Address        string `json:"address"`
	Nominee        string `json:"nominee"`
	CKYCCompliance bool   `json:"ckycCompliance"`
}

type rawTransaction struct {
	Amount               rawNumber `json:"amount"`
	CurrentBalance       rawNumber `json:"currentBalance"`
	Type                 string    `json:"type"`
	Mode                 string    `json:"mode"`
	TransactionTimestamp string    `json:"transactionTimestamp"`
}

// timestampLayouts covers the formats FIPs emit for transaction timestamps.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseFeed normalizes a raw consent-data payload into the holder profile and
// the ordered transaction list of the selected account. Structural problems
// fail with ErrMalformedFeed; unparseable amounts with ErrNumericCoercion.
func ParseFeed(raw []byte, sel FeedSelector) (*models.UserProfile, []models.Transaction, error) {
	var feed rawFeed
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	blocks := feed.FIPs
	if len(blocks) == 0 && feed.Payload != nil {
		blocks = feed.Payload.FIPs
	}
	if len(blocks) == 0 {
		return nil, nil, fmt.Errorf("%w: no provider blocks", ErrMalformedFeed)
	}

	block, err := selectBlock(blocks, sel)
	if err != nil {
		return nil, nil, err
	}
	if sel.AccountIndex < 0 || sel.AccountIndex >= len(block.Accounts) {
		return nil, nil, fmt.Errorf("%w: account index %d out of range (%d accounts)",
			ErrMalformedFeed, sel.AccountIndex, len(block.Accounts))
	}
	account := block.Accounts[sel.AccountIndex].Data.Account

	holders := account.Profile.Holders.Holder
	if len(holders) == 0 {
		return nil, nil, fmt.Errorf("%w: no account holders", ErrMalformedFeed)
	}
	holder := holders[0]
	profile := &models.UserProfile{
		Name:           holder.Name,
		DOB:            holder.DOB,
		Mobile:         holder.Mobile,
		Email:          holder.Email,
		PAN:            holder.PAN,
		Address:        holder.Address,
		Nominee:        holder.Nominee,
		CKYCCompliance: holder.CKYCCompliance,
	}

	rawTxns := account.Transactions.Transaction
	if len(rawTxns) == 0 {
		return nil, nil, fmt.Errorf("%w: empty transaction list", ErrMalformedFeed)
	}

	txns := make([]models.Transaction, 0, len(rawTxns))
	for i, rt := range rawTxns {
		txn, err := normalizeTransaction(rt, i)
		if err != nil {
			return nil, nil, err
		}
		txns = append(txns, txn)
	}
	return profile, txns, nil
}

func selectBlock(blocks []rawFIPBlock, sel FeedSelector) (*rawFIPBlock, error) {
	if sel.FIPID == "" {
		return &blocks[0], nil
	}
	for i := range blocks {
		if blocks[i].FIPID == sel.FIPID {
			return &blocks[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no provider block with fipID %q", ErrMalformedFeed, sel.FIPID)
}

func normalizeTransaction(rt rawTransaction, idx int) (models.Transaction, error) {
	var txn models.Transaction

	amount, err := rt.Amount.decimal("amount")
	if err != nil {
		return txn, fmt.Errorf("transaction %d: %w", idx, err)
	}
	if amount.IsNegative() {
		return txn, fmt.Errorf("%w: transaction %d has negative amount %s",
			ErrMalformedFeed, idx, amount)
	}
	balance, err := rt.CurrentBalance.decimal("currentBalance")
	if err != nil {
		return txn, fmt.Errorf("transaction %d: %w", idx, err)
	}

	txType := models.TxType(rt.Type)
	if txType != models.TxCredit && txType != models.TxDebit {
		return txn, fmt.Errorf("%w: transaction %d has unknown type %q",
			ErrMalformedFeed, idx, rt.Type)
	}

	ts, err := parseTimestamp(rt.TransactionTimestamp)
	if err != nil {
		return txn, fmt.Errorf("%w: transaction %d: %v", ErrMalformedFeed, idx, err)
	}

	txn = models.Transaction{
		Amount:         amount,
		Type:           txType,
		Mode:           rt.Mode,
		CurrentBalance: balance,
		Timestamp:      ts,
	}
	return txn, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
