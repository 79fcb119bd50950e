// Package beneficiary owns the external-payee registry and its
// verification state machine. Only ACTIVE beneficiaries can receive
// EFTs; owner edits always reset verification.
package beneficiary

import (
	"context"
	"strings"

	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
)

// Service implements interfaces.BeneficiaryService.
type Service struct {
	store  interfaces.Store
	ifsc   interfaces.IFSCClient
	clock  common.Clock
	logger *common.Logger
}

var _ interfaces.BeneficiaryService = (*Service)(nil)

// NewService creates the beneficiary service.
func NewService(store interfaces.Store, ifsc interfaces.IFSCClient, clock common.Clock, logger *common.Logger) *Service {
	return &Service{store: store, ifsc: ifsc, clock: clock, logger: logger}
}

func (s *Service) requireCustomer(authz *models.AuthzContext) (int64, error) {
	customerID := authz.CustomerID()
	if customerID == 0 {
		return 0, models.ErrValidation("caller has no customer profile")
	}
	if authz.User.Status != models.UserActive {
		return 0, models.NewError(models.CodeInvalidUserState, "user is %s", authz.User.Status)
	}
	return customerID, nil
}

func (s *Service) validate(ctx context.Context, req *interfaces.BeneficiaryRequest) (*interfaces.BankBranch, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	req.IFSCCode = strings.ToUpper(strings.TrimSpace(req.IFSCCode))
	if req.Name == "" {
		return nil, models.ErrValidation("beneficiary name is required")
	}
	if len(req.AccountNumber) < 6 || len(req.AccountNumber) > 20 {
		return nil, models.ErrValidation("account number must be 6-20 characters")
	}
	return s.ifsc.Validate(ctx, req.IFSCCode)
}

// Add registers a payee in PENDING_VERIFICATION. A duplicate of a
// live registration (same account and IFSC) is rejected.
func (s *Service) Add(ctx context.Context, authz *models.AuthzContext, req interfaces.BeneficiaryRequest) (*models.Beneficiary, error) {
	customerID, err := s.requireCustomer(authz)
	if err != nil {
		return nil, err
	}
	branch, err := s.validate(ctx, &req)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	ben := &models.Beneficiary{
		CustomerID:    customerID,
		Name:          req.Name,
		AccountNumber: req.AccountNumber,
		IFSCCode:      req.IFSCCode,
		BankName:      branch.BankName,
		BranchName:    branch.BranchName,
		Email:         strings.TrimSpace(req.Email),
		Mobile:        strings.TrimSpace(req.Mobile),
		Status:        models.BeneficiaryPendingVerification,
		CreatedAt:     now,
		ModifiedAt:    now,
	}
	err = s.store.InTx(ctx, func(tx interfaces.Store) error {
		dup, err := tx.Beneficiaries().FindDuplicate(ctx, customerID, req.AccountNumber, req.IFSCCode)
		if err != nil {
			return err
		}
		if dup != nil {
			return models.ErrConflict("beneficiary %s/%s already registered", req.AccountNumber, req.IFSCCode)
		}
		return tx.Beneficiaries().Create(ctx, ben)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("beneficiary_id", ben.ID).
		Int64("customer_id", customerID).
		Msg("Beneficiary added")
	return ben, nil
}

// Update edits a payee owned by the caller. Any edit drops the record
// back to PENDING_VERIFICATION.
func (s *Service) Update(ctx context.Context, authz *models.AuthzContext, id int64, req interfaces.BeneficiaryRequest) (*models.Beneficiary, error) {
	customerID, err := s.requireCustomer(authz)
	if err != nil {
		return nil, err
	}
	branch, err := s.validate(ctx, &req)
	if err != nil {
		return nil, err
	}

	var ben *models.Beneficiary
	err = s.store.InTx(ctx, func(tx interfaces.Store) error {
		var err error
		ben, err = tx.Beneficiaries().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if ben.CustomerID != customerID {
			return models.ErrForbidden("not your beneficiary")
		}
		if ben.Status == models.BeneficiaryInactive || ben.Status == models.BeneficiaryBlocked {
			return models.NewError(models.CodeInvalidBeneficiaryState,
				"cannot edit a %s beneficiary", ben.Status)
		}
		if ben.AccountNumber != req.AccountNumber || ben.IFSCCode != req.IFSCCode {
			dup, err := tx.Beneficiaries().FindDuplicate(ctx, customerID, req.AccountNumber, req.IFSCCode)
			if err != nil {
				return err
			}
			if dup != nil && dup.ID != id {
				return models.ErrConflict("beneficiary %s/%s already registered", req.AccountNumber, req.IFSCCode)
			}
		}
		ben.Name = req.Name
		ben.AccountNumber = req.AccountNumber
		ben.IFSCCode = req.IFSCCode
		ben.BankName = branch.BankName
		ben.BranchName = branch.BranchName
		ben.Email = strings.TrimSpace(req.Email)
		ben.Mobile = strings.TrimSpace(req.Mobile)
		ben.Status = models.BeneficiaryPendingVerification
		ben.IsVerified = false
		ben.VerifiedBy = ""
		ben.VerifiedAt = nil
		return tx.Beneficiaries().Update(ctx, ben)
	})
	if err != nil {
		return nil, err
	}
	return ben, nil
}

// Delete soft-deletes a payee: the row goes INACTIVE and stops
// appearing in default listings. EFT snapshots keep their copy.
func (s *Service) Delete(ctx context.Context, authz *models.AuthzContext, id int64) error {
	customerID, err := s.requireCustomer(authz)
	if err != nil {
		return err
	}
	return s.store.InTx(ctx, func(tx interfaces.Store) error {
		ben, err := tx.Beneficiaries().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if ben.CustomerID != customerID {
			return models.ErrForbidden("not your beneficiary")
		}
		if !ben.Status.CanTransitionTo(models.BeneficiaryInactive) {
			return models.NewError(models.CodeInvalidBeneficiaryState,
				"cannot delete a %s beneficiary", ben.Status)
		}
		ben.Status = models.BeneficiaryInactive
		return tx.Beneficiaries().Update(ctx, ben)
	})
}

// Get returns a payee to its owner or to staff with customer read.
func (s *Service) Get(ctx context.Context, authz *models.AuthzContext, id int64) (*models.Beneficiary, error) {
	ben, err := s.store.Beneficiaries().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.OwnsCustomer(ben.CustomerID) && !authz.Has(models.PermCustomerRead) {
		return nil, models.ErrForbidden("not your beneficiary")
	}
	return ben, nil
}

// List returns the caller's live beneficiaries.
func (s *Service) List(ctx context.Context, authz *models.AuthzContext) ([]*models.Beneficiary, error) {
	customerID := authz.CustomerID()
	if customerID == 0 {
		return nil, models.ErrValidation("caller has no customer profile")
	}
	return s.store.Beneficiaries().ListByCustomer(ctx, customerID, false)
}

// Approve verifies a PENDING_VERIFICATION payee. Staff only.
func (s *Service) Approve(ctx context.Context, authz *models.AuthzContext, id int64) (*models.Beneficiary, error) {
	return s.verify(ctx, authz, id, models.BeneficiaryActive)
}

// Reject declines a PENDING_VERIFICATION payee, leaving it BLOCKED.
func (s *Service) Reject(ctx context.Context, authz *models.AuthzContext, id int64) (*models.Beneficiary, error) {
	return s.verify(ctx, authz, id, models.BeneficiaryBlocked)
}

// Block freezes a payee so it can no longer receive transfers.
func (s *Service) Block(ctx context.Context, authz *models.AuthzContext, id int64) (*models.Beneficiary, error) {
	return s.verify(ctx, authz, id, models.BeneficiaryBlocked)
}

func (s *Service) verify(ctx context.Context, authz *models.AuthzContext, id int64, next models.BeneficiaryStatus) (*models.Beneficiary, error) {
	if !authz.Has(models.PermAccountWrite) {
		return nil, models.ErrForbidden("account write permission required")
	}
	var ben *models.Beneficiary
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		var err error
		ben, err = tx.Beneficiaries().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !ben.Status.CanTransitionTo(next) {
			return models.NewError(models.CodeInvalidBeneficiaryState,
				"cannot move beneficiary from %s to %s", ben.Status, next)
		}
		ben.Status = next
		if next == models.BeneficiaryActive {
			now := s.clock.Now().UTC()
			ben.IsVerified = true
			ben.VerifiedBy = authz.User.Username
			ben.VerifiedAt = &now
		}
		return tx.Beneficiaries().Update(ctx, ben)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("beneficiary_id", id).
		Str("status", string(next)).
		Str("by", authz.User.Username).
		Msg("Beneficiary verification updated")
	return ben, nil
}
