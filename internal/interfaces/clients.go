package interfaces

import (
	"context"

	"github.com/shopspring/decimal"
)

// BankBranch is the metadata an IFSC lookup returns.
type BankBranch struct {
	IFSC       string `json:"ifsc"`
	BankName   string `json:"bank_name"`
	BranchName string `json:"branch_name"`
	City       string `json:"city,omitempty"`
}

// IFSCClient validates bank-branch identifiers. Injected so tests and
// offline deployments can swap the directory.
type IFSCClient interface {
	Validate(ctx context.Context, ifsc string) (*BankBranch, error)
}

// ExternalTransferRequest is the payload sent to the partner rail.
type ExternalTransferRequest struct {
	Reference       string
	BeneficiaryName string
	BeneficiaryACNo string
	BeneficiaryIFSC string
	Amount          decimal.Decimal
	Currency        string
	Remarks         string
}

// ExternalBankClient settles the external leg of an EFT. The production
// adapter is a partner integration; the shipped simulator fails a
// configurable fraction of calls.
type ExternalBankClient interface {
	// Transfer returns the partner reference on success, or an error
	// describing the failed leg. Calls carry a bounded timeout.
	Transfer(ctx context.Context, req ExternalTransferRequest) (string, error)
}

// PasswordHasher is the opaque credential primitive.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) error
}
