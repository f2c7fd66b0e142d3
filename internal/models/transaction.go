package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxType indicates the ledger direction of a transaction.
type TxType string

const (
	TxCredit TxType = "CREDIT"
	TxDebit  TxType = "DEBIT"
)

// ModeCash is the only transaction mode distinguished downstream; every other
// mode is carried through opaquely.
const ModeCash = "CASH"

// Transaction represents a single bank ledger entry from the consent-data feed.
// Amount is a non-negative magnitude; CurrentBalance is the account balance
// snapshot after this transaction was applied.
type Transaction struct {
	Amount         decimal.Decimal `json:"amount"`
	Type           TxType          `json:"type"`
	Mode           string          `json:"mode"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Timestamp      time.Time       `json:"timestamp"`
}

// IsCash reports whether the transaction was settled in cash.
func (t Transaction) IsCash() bool {
	return t.Mode == ModeCash
}
