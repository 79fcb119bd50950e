package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QRRequestStatus is the one-shot payment intent state.
type QRRequestStatus string

const (
	QRActive    QRRequestStatus = "ACTIVE"
	QRPaid      QRRequestStatus = "PAID"
	QRExpired   QRRequestStatus = "EXPIRED"
	QRCancelled QRRequestStatus = "CANCELLED"
)

// QRPaymentRequest is a one-shot in-network payment intent with expiry.
// It can be satisfied at most once; satisfaction links the paired
// journal legs.
type QRPaymentRequest struct {
	ID                  int64           `json:"id"`
	RequestID           string          `json:"request_id"`
	ReceiverCustomerID  int64           `json:"receiver_customer_id"`
	ReceiverAccountID   int64           `json:"receiver_account_id"`
	Amount              decimal.Decimal `json:"amount"`
	Description         string          `json:"description,omitempty"`
	Status              QRRequestStatus `json:"status"`
	ExpiresAt           time.Time       `json:"expires_at"`
	PaidBy              string          `json:"paid_by,omitempty"`
	PaidAt              *time.Time      `json:"paid_at,omitempty"`
	DebitTransactionID  *int64          `json:"debit_transaction_id,omitempty"`
	CreditTransactionID *int64          `json:"credit_transaction_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// UPIStatus is the alias registration state.
type UPIStatus string

const (
	UPIActive   UPIStatus = "ACTIVE"
	UPIInactive UPIStatus = "INACTIVE"
)

// UPIAddress is an injective alias for a (user, account) pair.
// Deregistering sets it INACTIVE; the alias string is never reused
// while any registration row exists.
type UPIAddress struct {
	ID         int64     `json:"id"`
	UPIID      string    `json:"upi_id"`
	UserID     int64     `json:"user_id"`
	CustomerID int64     `json:"customer_id"`
	AccountID  int64     `json:"account_id"`
	Status     UPIStatus `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}
