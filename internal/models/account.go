package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account. Accounts are
// never hard-deleted; CLOSED is terminal.
type AccountStatus string

const (
	AccountActive  AccountStatus = "ACTIVE"
	AccountFrozen  AccountStatus = "FROZEN"
	AccountDormant AccountStatus = "DORMANT"
	AccountClosed  AccountStatus = "CLOSED"
)

// AccountType determines the minimum-balance rule applied to debits.
type AccountType string

const (
	AccountSavings AccountType = "SAVINGS"
	AccountCurrent AccountType = "CURRENT"
)

// Account holds customer money. Balance and AvailableBalance are owned
// exclusively by the ledger; no other component writes them.
// AvailableBalance <= Balance always; the difference is held by
// in-flight EFTs.
type Account struct {
	ID                  int64           `json:"id"`
	AccountNumber       string          `json:"account_number"`
	CustomerID          int64           `json:"customer_id"`
	AccountType         AccountType     `json:"account_type"`
	Balance             decimal.Decimal `json:"balance"`
	AvailableBalance    decimal.Decimal `json:"available_balance"`
	MinimumBalance      decimal.Decimal `json:"minimum_balance"`
	Currency            string          `json:"currency"`
	Status              AccountStatus   `json:"status"`
	LastTransactionDate *time.Time      `json:"last_transaction_date,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	ModifiedAt          time.Time       `json:"modified_at"`
}
