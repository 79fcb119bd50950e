// Package interfaces defines service and storage contracts for corebank
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/corebank/internal/models"
	"github.com/shopspring/decimal"
)

// Store is the persistence boundary. InTx runs fn inside one
// serializable transaction and hands it a Store bound to that
// transaction; every accessor on the bound Store reads and writes
// through the same unit of work. Calling InTx on an already bound
// Store is an error.
type Store interface {
	Users() UserStore
	Customers() CustomerStore
	Accounts() AccountStore
	Transactions() TransactionStore
	Beneficiaries() BeneficiaryStore
	EFTs() EFTStore
	Payments() PaymentStore

	InTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
	Close() error
}

// UserStore manages users, role assignments and the seeded RBAC tables.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByMobile(ctx context.Context, mobile string) (*models.User, error)
	UpdateStatus(ctx context.Context, id int64, status models.UserStatus) error
	LinkCustomer(ctx context.Context, userID, customerID int64) error
	ListByStatus(ctx context.Context, status models.UserStatus) ([]*models.User, error)

	// RBAC
	SeedRBAC(ctx context.Context, permissions map[models.Permission]string, rolePermissions map[string][]models.Permission) error
	RolePermissions(ctx context.Context) (map[string][]models.Permission, error)
	AssignRole(ctx context.Context, userID int64, role string) error
}

// CustomerStore manages KYC profiles.
type CustomerStore interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	GetByNumber(ctx context.Context, customerNumber string) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
}

// AccountStore manages accounts. Balance columns are written only by
// the ledger via UpdateBalances inside a serializable transaction.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]*models.Account, error)
	UpdateBalances(ctx context.Context, id int64, balance, available decimal.Decimal, lastTxn time.Time) error
	UpdateStatus(ctx context.Context, id int64, status models.AccountStatus) error
}

// TransactionStore manages the append-only journal.
type TransactionStore interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus, failureReason string) error
	SetBalances(ctx context.Context, id int64, before, after decimal.Decimal) error
	ListByAccount(ctx context.Context, accountID int64, q models.JournalQuery) ([]*models.Transaction, error)
}

// BeneficiaryStore manages external payees.
type BeneficiaryStore interface {
	Create(ctx context.Context, b *models.Beneficiary) error
	GetByID(ctx context.Context, id int64) (*models.Beneficiary, error)
	ListByCustomer(ctx context.Context, customerID int64, includeInactive bool) ([]*models.Beneficiary, error)
	Update(ctx context.Context, b *models.Beneficiary) error
	// FindDuplicate returns a non-INACTIVE beneficiary matching the
	// uniqueness key (customer, account number, IFSC), or nil.
	FindDuplicate(ctx context.Context, customerID int64, accountNumber, ifsc string) (*models.Beneficiary, error)
	MarkUsed(ctx context.Context, id int64, at time.Time) error
}

// EFTStore manages external transfers and batch records.
type EFTStore interface {
	Create(ctx context.Context, eft *models.EFTTransaction) error
	GetByID(ctx context.Context, id int64) (*models.EFTTransaction, error)
	GetByReference(ctx context.Context, reference string) (*models.EFTTransaction, error)
	Update(ctx context.Context, eft *models.EFTTransaction) error
	// ListForBatch returns NEFT rows in PENDING or QUEUED ordered by
	// submission time ascending.
	ListForBatch(ctx context.Context) ([]*models.EFTTransaction, error)
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.EFTTransaction, error)
	PendingCount(ctx context.Context) (int, error)

	CreateBatch(ctx context.Context, batch *models.EFTBatch) error
	GetBatch(ctx context.Context, batchID string) (*models.EFTBatch, error)
	UpdateBatch(ctx context.Context, batch *models.EFTBatch) error
}

// PaymentStore manages QR payment requests and UPI aliases.
type PaymentStore interface {
	CreateQRRequest(ctx context.Context, req *models.QRPaymentRequest) error
	GetQRRequest(ctx context.Context, requestID string) (*models.QRPaymentRequest, error)
	UpdateQRRequest(ctx context.Context, req *models.QRPaymentRequest) error
	// ExpireQRRequests flips ACTIVE requests past their expiry to
	// EXPIRED, returning the number flipped.
	ExpireQRRequests(ctx context.Context, now time.Time) (int, error)

	CreateUPI(ctx context.Context, addr *models.UPIAddress) error
	GetUPI(ctx context.Context, upiID string) (*models.UPIAddress, error)
	ListUPIByCustomer(ctx context.Context, customerID int64) ([]*models.UPIAddress, error)
	UpdateUPIStatus(ctx context.Context, id int64, status models.UPIStatus) error
}
