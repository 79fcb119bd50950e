// Package identity owns users, customer profiles, the onboarding state
// machine and per-request authorization.
package identity

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	mobilePattern   = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

// Service implements interfaces.IdentityService.
type Service struct {
	store  interfaces.Store
	ledger interfaces.LedgerEngine
	hasher interfaces.PasswordHasher
	clock  common.Clock
	logger *common.Logger
	config *common.Config
}

var _ interfaces.IdentityService = (*Service)(nil)

// NewService creates the identity service.
func NewService(store interfaces.Store, ledger interfaces.LedgerEngine, hasher interfaces.PasswordHasher, clock common.Clock, logger *common.Logger, config *common.Config) *Service {
	return &Service{
		store:  store,
		ledger: ledger,
		hasher: hasher,
		clock:  clock,
		logger: logger,
		config: config,
	}
}

// Register creates a PENDING_DETAILS user with the CUSTOMER role.
func (s *Service) Register(ctx context.Context, req interfaces.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Mobile = strings.TrimSpace(req.Mobile)

	if !usernamePattern.MatchString(req.Username) {
		return nil, models.ErrValidation("username must be 3-50 characters of letters, digits, '_', '.', '-'")
	}
	if !emailPattern.MatchString(req.Email) {
		return nil, models.ErrValidation("invalid email address")
	}
	if req.Mobile != "" && !mobilePattern.MatchString(req.Mobile) {
		return nil, models.ErrValidation("invalid mobile number")
	}
	if len(req.Password) < 8 {
		return nil, models.ErrValidation("password must be at least 8 characters")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now().UTC()
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		Mobile:       req.Mobile,
		PasswordHash: hash,
		Status:       models.UserPendingDetails,
		Roles:        []string{models.RoleCustomer},
		CreatedAt:    now,
		ModifiedAt:   now,
	}
	err = s.store.InTx(ctx, func(tx interfaces.Store) error {
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("username", user.Username).Int64("user_id", user.ID).Msg("User registered")
	return user, nil
}

// Login resolves the principal by username, then email, then mobile,
// and verifies the password. REJECTED and SUSPENDED users cannot log
// in; users mid-onboarding can, so they can finish their submission.
func (s *Service) Login(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	user, err := s.resolve(ctx, identifier)
	if err != nil {
		// Same error whether the principal or the password is wrong.
		return nil, models.NewError(models.CodeUnauthenticated, "invalid credentials")
	}
	if err := s.hasher.Verify(password, user.PasswordHash); err != nil {
		return nil, models.NewError(models.CodeUnauthenticated, "invalid credentials")
	}
	if user.Status == models.UserSuspended {
		return nil, models.NewError(models.CodeInvalidUserState, "user is suspended")
	}
	return user, nil
}

func (s *Service) resolve(ctx context.Context, identifier string) (*models.User, error) {
	users := s.store.Users()
	if user, err := users.GetByUsername(ctx, identifier); err == nil {
		return user, nil
	}
	if user, err := users.GetByEmail(ctx, strings.ToLower(identifier)); err == nil {
		return user, nil
	}
	return users.GetByMobile(ctx, identifier)
}

// Authorize materializes the caller's authorization context: the user,
// its roles and the union of role permissions, loaded in one shot.
func (s *Service) Authorize(ctx context.Context, userID int64) (*models.AuthzContext, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, models.WrapError(models.CodeUnauthenticated, err, "unknown principal")
	}
	if user.Status == models.UserSuspended {
		return nil, models.NewError(models.CodeInvalidUserState, "user is suspended")
	}
	rolePerms, err := s.store.Users().RolePermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}
	return &models.AuthzContext{
		User:        user,
		Permissions: models.NewPermissionSet(user.Roles, rolePerms),
	}, nil
}

// SubmitCustomerDetails files the KYC submission and moves the user to
// PENDING_REVIEW. A rejected user resubmits through the same path.
func (s *Service) SubmitCustomerDetails(ctx context.Context, authz *models.AuthzContext, req interfaces.CustomerDetailsRequest) (*models.Customer, error) {
	user := authz.User
	if user.Status != models.UserPendingDetails && user.Status != models.UserRejected {
		return nil, models.NewError(models.CodeInvalidUserState,
			"cannot submit details while %s", user.Status)
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, models.ErrValidation("first and last name are required")
	}
	if strings.TrimSpace(req.NationalID) == "" {
		return nil, models.ErrValidation("national id is required")
	}
	mobile := strings.TrimSpace(req.Mobile)
	if mobile == "" {
		mobile = user.Mobile
	}
	if !mobilePattern.MatchString(mobile) {
		return nil, models.ErrValidation("invalid mobile number")
	}

	now := s.clock.Now().UTC()
	var customer *models.Customer
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		if user.CustomerID != nil {
			// Resubmission after a reject: update in place.
			existing, err := tx.Customers().GetByID(ctx, *user.CustomerID)
			if err != nil {
				return err
			}
			if !existing.Status.CanTransitionTo(models.CustomerPendingReview) && existing.Status != models.CustomerPendingReview {
				return models.NewError(models.CodeInvalidUserState,
					"customer profile is %s", existing.Status)
			}
			applyDetails(existing, req, mobile)
			existing.Status = models.CustomerPendingReview
			if err := tx.Customers().Update(ctx, existing); err != nil {
				return err
			}
			customer = existing
		} else {
			customer = &models.Customer{
				CustomerNumber: common.NewCustomerNumber(),
				Email:          user.Email,
				Status:         models.CustomerPendingReview,
				CreatedAt:      now,
				ModifiedAt:     now,
			}
			applyDetails(customer, req, mobile)
			if err := tx.Customers().Create(ctx, customer); err != nil {
				return err
			}
			if err := tx.Users().LinkCustomer(ctx, user.ID, customer.ID); err != nil {
				return err
			}
		}
		return tx.Users().UpdateStatus(ctx, user.ID, models.UserPendingReview)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("user_id", user.ID).
		Str("customer_number", customer.CustomerNumber).
		Msg("Customer details submitted")
	return customer, nil
}

func applyDetails(c *models.Customer, req interfaces.CustomerDetailsRequest, mobile string) {
	c.FirstName = strings.TrimSpace(req.FirstName)
	c.LastName = strings.TrimSpace(req.LastName)
	c.Mobile = mobile
	c.NationalID = strings.TrimSpace(req.NationalID)
	c.DateOfBirth = strings.TrimSpace(req.DateOfBirth)
	c.AddressLine1 = strings.TrimSpace(req.AddressLine1)
	c.AddressLine2 = strings.TrimSpace(req.AddressLine2)
	c.City = strings.TrimSpace(req.City)
	c.State = strings.TrimSpace(req.State)
	c.PostalCode = strings.TrimSpace(req.PostalCode)
	c.OtherInfo.Occupation = strings.TrimSpace(req.Occupation)
	c.OtherInfo.AnnualIncome = strings.TrimSpace(req.AnnualIncome)
}

// ListUsersByStatus returns the review queue for staff.
func (s *Service) ListUsersByStatus(ctx context.Context, authz *models.AuthzContext, status models.UserStatus) ([]*models.User, error) {
	if !authz.Has(models.PermUserRead) {
		return nil, models.ErrForbidden("user read permission required")
	}
	return s.store.Users().ListByStatus(ctx, status)
}

// ApproveUser activates a PENDING_REVIEW user, activates the customer
// profile and opens the first account.
func (s *Service) ApproveUser(ctx context.Context, authz *models.AuthzContext, userID int64) (*models.User, error) {
	if !authz.Has(models.PermUserWrite) {
		return nil, models.ErrForbidden("user write permission required")
	}
	var user *models.User
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		var err error
		user, err = tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !user.Status.CanTransitionTo(models.UserActive) {
			return models.NewError(models.CodeInvalidUserState,
				"cannot approve user in %s", user.Status)
		}
		if user.CustomerID == nil {
			return models.NewError(models.CodeInvalidUserState, "user has no customer profile")
		}
		customer, err := tx.Customers().GetByID(ctx, *user.CustomerID)
		if err != nil {
			return err
		}
		if !customer.Status.CanTransitionTo(models.CustomerActive) {
			return models.NewError(models.CodeInvalidUserState,
				"customer profile is %s", customer.Status)
		}
		customer.Status = models.CustomerActive
		customer.OtherInfo.RejectionReason = ""
		customer.OtherInfo.RejectedBy = ""
		customer.OtherInfo.RejectedAt = ""
		if err := tx.Customers().Update(ctx, customer); err != nil {
			return err
		}
		if err := tx.Users().UpdateStatus(ctx, user.ID, models.UserActive); err != nil {
			return err
		}
		minBalance := s.config.Accounts.MinimumBalanceFor(string(models.AccountSavings))
		if _, err := s.ledger.OpenAccount(ctx, tx, customer.ID, models.AccountSavings, minBalance); err != nil {
			return err
		}
		user.Status = models.UserActive
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("user_id", userID).
		Str("approved_by", authz.User.Username).
		Msg("User approved")
	return user, nil
}

// RejectUser moves a PENDING_REVIEW user to REJECTED, recording the
// reason on the customer profile for the resubmission flow.
func (s *Service) RejectUser(ctx context.Context, authz *models.AuthzContext, userID int64, reason string) (*models.User, error) {
	if !authz.Has(models.PermUserWrite) {
		return nil, models.ErrForbidden("user write permission required")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, models.ErrValidation("rejection reason is required")
	}
	var user *models.User
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		var err error
		user, err = tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !user.Status.CanTransitionTo(models.UserRejected) {
			return models.NewError(models.CodeInvalidUserState,
				"cannot reject user in %s", user.Status)
		}
		if user.CustomerID != nil {
			customer, err := tx.Customers().GetByID(ctx, *user.CustomerID)
			if err != nil {
				return err
			}
			customer.Status = models.CustomerRejected
			customer.OtherInfo.RejectionReason = reason
			customer.OtherInfo.RejectedBy = authz.User.Username
			customer.OtherInfo.RejectedAt = s.clock.Now().UTC().Format(time.RFC3339)
			if err := tx.Customers().Update(ctx, customer); err != nil {
				return err
			}
		}
		if err := tx.Users().UpdateStatus(ctx, user.ID, models.UserRejected); err != nil {
			return err
		}
		user.Status = models.UserRejected
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("user_id", userID).
		Str("rejected_by", authz.User.Username).
		Msg("User rejected")
	return user, nil
}

// GetCustomer returns a customer profile to its owner or to staff with
// customer read.
func (s *Service) GetCustomer(ctx context.Context, authz *models.AuthzContext, customerID int64) (*models.Customer, error) {
	if !authz.OwnsCustomer(customerID) && !authz.Has(models.PermCustomerRead) {
		return nil, models.ErrForbidden("not authorized for customer %d", customerID)
	}
	return s.store.Customers().GetByID(ctx, customerID)
}

// ListAccounts returns the caller's accounts.
func (s *Service) ListAccounts(ctx context.Context, authz *models.AuthzContext) ([]*models.Account, error) {
	customerID := authz.CustomerID()
	if customerID == 0 {
		return nil, models.ErrValidation("caller has no customer profile")
	}
	return s.store.Accounts().ListByCustomer(ctx, customerID)
}
