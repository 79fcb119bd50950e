package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a journal row.
type TransactionType string

const (
	TxnDebit      TransactionType = "DEBIT"
	TxnCredit     TransactionType = "CREDIT"
	TxnTransfer   TransactionType = "TRANSFER"
	TxnWithdrawal TransactionType = "WITHDRAWAL"
	TxnFee        TransactionType = "FEE"
	TxnRefund     TransactionType = "REFUND"
)

// TransactionStatus is the journal row state. COMPLETED and FAILED are
// terminal; a PROCESSING row (an EFT hold) transitions exactly once.
type TransactionStatus string

const (
	TxnPending    TransactionStatus = "PENDING"
	TxnProcessing TransactionStatus = "PROCESSING"
	TxnCompleted  TransactionStatus = "COMPLETED"
	TxnFailed     TransactionStatus = "FAILED"
)

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TxnPending:    {TxnProcessing, TxnCompleted, TxnFailed},
	TxnProcessing: {TxnCompleted, TxnFailed},
}

// CanTransitionTo reports whether the status edge is legal.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, t := range transactionTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Transaction is one journal row. Rows are append-only once terminal.
// Paired transfer legs share ExternalReference, have equal amounts and
// currencies, and sum to zero across the two accounts.
type Transaction struct {
	ID                   int64             `json:"id"`
	TransactionReference string            `json:"transaction_reference"`
	ExternalReference    string            `json:"external_reference,omitempty"`
	AccountID            int64             `json:"account_id"`
	DestinationAccountID *int64            `json:"destination_account_id,omitempty"`
	Type                 TransactionType   `json:"type"`
	Amount               decimal.Decimal   `json:"amount"`
	Currency             string            `json:"currency"`
	BalanceBefore        decimal.Decimal   `json:"balance_before"`
	BalanceAfter         decimal.Decimal   `json:"balance_after"`
	Status               TransactionStatus `json:"status"`
	Description          string            `json:"description,omitempty"`
	Category             string            `json:"category,omitempty"`
	InitiatedBy          string            `json:"initiated_by"`
	ApprovedBy           string            `json:"approved_by,omitempty"`
	BulkBatchID          string            `json:"bulk_batch_id,omitempty"`
	FailureReason        string            `json:"failure_reason,omitempty"`
	TransactionDate      time.Time         `json:"transaction_date"`
	CreatedAt            time.Time         `json:"created_at"`
	ModifiedAt           time.Time         `json:"modified_at"`
}

// JournalQuery filters a transaction history read.
type JournalQuery struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// BulkUploadRow is one parsed row of a bulk transaction file.
type BulkUploadRow struct {
	Line          int             `json:"line"`
	AccountNumber string          `json:"account_number"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
}

// BulkRowError records a failed row; failures do not abort the batch.
type BulkRowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// BulkUploadResult summarizes a processed bulk batch.
type BulkUploadResult struct {
	BatchID    string         `json:"batch_id"`
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Errors     []BulkRowError `json:"errors,omitempty"`
}
