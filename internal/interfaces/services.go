package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/corebank/internal/models"
	"github.com/shopspring/decimal"
)

// LedgerRequest describes a single-account ledger operation.
type LedgerRequest struct {
	AccountNumber string
	Amount        decimal.Decimal
	Category      string
	Description   string
	// HoldOnly reduces available balance without touching the posted
	// balance, creating a PROCESSING journal row (EFT holds).
	HoldOnly bool
}

// LedgerService is the sole authority over account balances and the
// transaction journal.
type LedgerService interface {
	Debit(ctx context.Context, authz *models.AuthzContext, req LedgerRequest) (*models.Transaction, error)
	Credit(ctx context.Context, authz *models.AuthzContext, req LedgerRequest) (*models.Transaction, error)
	Transfer(ctx context.Context, authz *models.AuthzContext, fromAccount, toAccount string, amount decimal.Decimal, description string) (*models.Transaction, *models.Transaction, error)
	History(ctx context.Context, authz *models.AuthzContext, accountNumber string, q models.JournalQuery) ([]*models.Transaction, error)
	BulkUpload(ctx context.Context, authz *models.AuthzContext, rows []models.BulkUploadRow) (*models.BulkUploadResult, error)
}

// LedgerEngine exposes transaction-scoped ledger primitives so the
// transfer engines can compose balance mutations with their own rows
// inside one unit of work. Implemented by the ledger service.
type LedgerEngine interface {
	PlaceHold(ctx context.Context, tx Store, acct *models.Account, amount decimal.Decimal, category, description, initiatedBy string) (*models.Transaction, error)
	SettleHold(ctx context.Context, tx Store, holdTxnID int64) (*models.Transaction, error)
	ReleaseHold(ctx context.Context, tx Store, holdTxnID int64, reason string) error
	PostRefund(ctx context.Context, tx Store, originalDebit *models.Transaction) (*models.Transaction, error)
	ApplyTransfer(ctx context.Context, tx Store, fromAccount, toAccount string, amount decimal.Decimal, description, category, initiatedBy string) (*models.Transaction, *models.Transaction, error)
	PostCredit(ctx context.Context, tx Store, acct *models.Account, amount decimal.Decimal, typ models.TransactionType, category, description, initiatedBy, bulkBatchID string) (*models.Transaction, error)
	OpenAccount(ctx context.Context, tx Store, customerID int64, accountType models.AccountType, minimumBalance decimal.Decimal) (*models.Account, error)
}

// RegisterRequest creates a new PENDING_DETAILS user.
type RegisterRequest struct {
	Username string
	Email    string
	Mobile   string
	Password string
}

// CustomerDetailsRequest carries the KYC submission.
type CustomerDetailsRequest struct {
	FirstName    string
	LastName     string
	Mobile       string
	NationalID   string
	DateOfBirth  string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Occupation   string
	AnnualIncome string
}

// IdentityService owns users, customers, onboarding and authorization.
type IdentityService interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	// Login resolves the principal by username, then email, then
	// mobile, verifies the password and returns the user.
	Login(ctx context.Context, usernameOrEmailOrMobile, password string) (*models.User, error)
	// Authorize loads the user with roles and the derived permission
	// union in one shot; nothing is lazily loaded afterwards.
	Authorize(ctx context.Context, userID int64) (*models.AuthzContext, error)
	SubmitCustomerDetails(ctx context.Context, authz *models.AuthzContext, req CustomerDetailsRequest) (*models.Customer, error)
	ListUsersByStatus(ctx context.Context, authz *models.AuthzContext, status models.UserStatus) ([]*models.User, error)
	ApproveUser(ctx context.Context, authz *models.AuthzContext, userID int64) (*models.User, error)
	RejectUser(ctx context.Context, authz *models.AuthzContext, userID int64, reason string) (*models.User, error)
	GetCustomer(ctx context.Context, authz *models.AuthzContext, customerID int64) (*models.Customer, error)
	ListAccounts(ctx context.Context, authz *models.AuthzContext) ([]*models.Account, error)
}

// BeneficiaryRequest carries payee details for add/update.
type BeneficiaryRequest struct {
	Name          string
	AccountNumber string
	IFSCCode      string
	BankName      string
	Email         string
	Mobile        string
}

// BeneficiaryService owns the external-payee registry and its
// verification state machine.
type BeneficiaryService interface {
	Add(ctx context.Context, authz *models.AuthzContext, req BeneficiaryRequest) (*models.Beneficiary, error)
	Update(ctx context.Context, authz *models.AuthzContext, id int64, req BeneficiaryRequest) (*models.Beneficiary, error)
	Delete(ctx context.Context, authz *models.AuthzContext, id int64) error
	Get(ctx context.Context, authz *models.AuthzContext, id int64) (*models.Beneficiary, error)
	List(ctx context.Context, authz *models.AuthzContext) ([]*models.Beneficiary, error)
	Approve(ctx context.Context, authz *models.AuthzContext, id int64) (*models.Beneficiary, error)
	Reject(ctx context.Context, authz *models.AuthzContext, id int64) (*models.Beneficiary, error)
	Block(ctx context.Context, authz *models.AuthzContext, id int64) (*models.Beneficiary, error)
}

// EFTSubmitRequest initiates an external transfer.
type EFTSubmitRequest struct {
	SourceAccountNumber string
	BeneficiaryID       int64
	Amount              decimal.Decimal
	Remarks             string
}

// EFTService owns NEFT and RTGS submission and the batch pipeline.
type EFTService interface {
	SubmitNEFT(ctx context.Context, authz *models.AuthzContext, req EFTSubmitRequest) (*models.EFTTransaction, error)
	SubmitRTGS(ctx context.Context, authz *models.AuthzContext, req EFTSubmitRequest) (*models.EFTTransaction, error)
	GetStatus(ctx context.Context, authz *models.AuthzContext, reference string) (*models.EFTTransaction, error)
	// ProcessBatch runs one NEFT batch tick. Safe to invoke from the
	// scheduler and the admin endpoint; overlapping invocations no-op.
	ProcessBatch(ctx context.Context) (*models.EFTBatch, error)
}

// QRCreateRequest opens a one-shot payment intent.
type QRCreateRequest struct {
	ReceiverAccountNumber string
	Amount                decimal.Decimal
	Description           string
	ExpiresIn             time.Duration
}

// PaymentService owns in-network transfers and the QR/UPI surface.
type PaymentService interface {
	Send(ctx context.Context, authz *models.AuthzContext, fromAccount, toAccount string, amount decimal.Decimal, description string) (*models.Transaction, *models.Transaction, error)
	CreateQRRequest(ctx context.Context, authz *models.AuthzContext, req QRCreateRequest) (*models.QRPaymentRequest, error)
	PayQRRequest(ctx context.Context, authz *models.AuthzContext, requestID, payerAccountNumber string) (*models.QRPaymentRequest, error)
	GetQRRequest(ctx context.Context, authz *models.AuthzContext, requestID string) (*models.QRPaymentRequest, error)
	RegisterUPI(ctx context.Context, authz *models.AuthzContext, upiID, accountNumber string) (*models.UPIAddress, error)
	DeactivateUPI(ctx context.Context, authz *models.AuthzContext, upiID string) error
	ListUPI(ctx context.Context, authz *models.AuthzContext) ([]*models.UPIAddress, error)
	PayToUPI(ctx context.Context, authz *models.AuthzContext, upiID, payerAccountNumber string, amount decimal.Decimal, description string) (*models.Transaction, *models.Transaction, error)
	ExpireQRRequests(ctx context.Context) (int, error)
}
