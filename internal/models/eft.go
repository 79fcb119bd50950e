package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EFTType selects the settlement rail.
type EFTType string

const (
	EFTNEFT EFTType = "NEFT"
	EFTRTGS EFTType = "RTGS"
)

// EFTStatus is the transfer lifecycle state. Each edge is taken at
// most once; COMPLETED and FAILED are terminal.
type EFTStatus string

const (
	EFTPending    EFTStatus = "PENDING"
	EFTQueued     EFTStatus = "QUEUED"
	EFTProcessing EFTStatus = "PROCESSING"
	EFTCompleted  EFTStatus = "COMPLETED"
	EFTFailed     EFTStatus = "FAILED"
)

var eftTransitions = map[EFTStatus][]EFTStatus{
	EFTPending:    {EFTQueued, EFTProcessing, EFTFailed},
	EFTQueued:     {EFTProcessing, EFTFailed},
	EFTProcessing: {EFTCompleted, EFTFailed},
}

// CanTransitionTo reports whether the status edge is legal.
func (s EFTStatus) CanTransitionTo(next EFTStatus) bool {
	for _, t := range eftTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// EFTTransaction is one external transfer. Beneficiary fields are
// snapshotted at submit so later beneficiary edits cannot change an
// in-flight transfer. TransactionID links the hold journal row that
// reduced the source available balance.
type EFTTransaction struct {
	ID                       int64           `json:"id"`
	EFTReference             string          `json:"eft_reference"`
	EFTType                  EFTType         `json:"eft_type"`
	SourceAccountID          int64           `json:"source_account_id"`
	BeneficiaryID            int64           `json:"beneficiary_id"`
	BeneficiaryName          string          `json:"beneficiary_name"`
	BeneficiaryAccountNumber string          `json:"beneficiary_account_number"`
	BeneficiaryIFSC          string          `json:"beneficiary_ifsc"`
	BeneficiaryBank          string          `json:"beneficiary_bank"`
	Amount                   decimal.Decimal `json:"amount"`
	Charges                  decimal.Decimal `json:"charges"`
	TotalAmount              decimal.Decimal `json:"total_amount"`
	Status                   EFTStatus       `json:"status"`
	BatchID                  string          `json:"batch_id,omitempty"`
	BatchTime                *time.Time      `json:"batch_time,omitempty"`
	EstimatedCompletion      *time.Time      `json:"estimated_completion,omitempty"`
	ActualCompletion         *time.Time      `json:"actual_completion,omitempty"`
	TransactionID            int64           `json:"transaction_id"`
	ProcessedBy              string          `json:"processed_by,omitempty"`
	FailureReason            string          `json:"failure_reason,omitempty"`
	CreatedAt                time.Time       `json:"created_at"`
	ModifiedAt               time.Time       `json:"modified_at"`
}

// BatchStatus summarizes one NEFT batch run.
type BatchStatus string

const (
	BatchProcessing         BatchStatus = "PROCESSING"
	BatchCompleted          BatchStatus = "COMPLETED"
	BatchPartiallyCompleted BatchStatus = "PARTIALLY_COMPLETED"
)

// EFTBatch records one batch tick: which hour, how many legs, outcome.
type EFTBatch struct {
	ID          int64       `json:"id"`
	BatchID     string      `json:"batch_id"`
	EFTType     EFTType     `json:"eft_type"`
	Total       int         `json:"total"`
	Succeeded   int         `json:"succeeded"`
	Failed      int         `json:"failed"`
	Status      BatchStatus `json:"status"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}
