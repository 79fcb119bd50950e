package models

import "time"

// BeneficiaryStatus is the verification state of an external payee.
// Only ACTIVE beneficiaries may receive EFTs.
type BeneficiaryStatus string

const (
	BeneficiaryPendingVerification BeneficiaryStatus = "PENDING_VERIFICATION"
	BeneficiaryActive              BeneficiaryStatus = "ACTIVE"
	BeneficiaryBlocked             BeneficiaryStatus = "BLOCKED"
	BeneficiaryInactive            BeneficiaryStatus = "INACTIVE"
)

var beneficiaryTransitions = map[BeneficiaryStatus][]BeneficiaryStatus{
	BeneficiaryPendingVerification: {BeneficiaryActive, BeneficiaryBlocked, BeneficiaryInactive},
	BeneficiaryActive:              {BeneficiaryBlocked, BeneficiaryInactive, BeneficiaryPendingVerification},
	BeneficiaryBlocked:             {BeneficiaryInactive},
}

// CanTransitionTo reports whether the status edge is legal.
func (s BeneficiaryStatus) CanTransitionTo(next BeneficiaryStatus) bool {
	for _, t := range beneficiaryTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Beneficiary is an external payee registered against a customer.
// Owner edits reset the record to PENDING_VERIFICATION; customer
// deletion is a soft INACTIVE.
type Beneficiary struct {
	ID            int64             `json:"id"`
	CustomerID    int64             `json:"customer_id"`
	Name          string            `json:"name"`
	AccountNumber string            `json:"account_number"`
	IFSCCode      string            `json:"ifsc_code"`
	BankName      string            `json:"bank_name"`
	BranchName    string            `json:"branch_name,omitempty"`
	Email         string            `json:"email,omitempty"`
	Mobile        string            `json:"mobile,omitempty"`
	IsVerified    bool              `json:"is_verified"`
	Status        BeneficiaryStatus `json:"status"`
	VerifiedBy    string            `json:"verified_by,omitempty"`
	VerifiedAt    *time.Time        `json:"verified_at,omitempty"`
	LastUsedAt    *time.Time        `json:"last_used_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	ModifiedAt    time.Time         `json:"modified_at"`
}
