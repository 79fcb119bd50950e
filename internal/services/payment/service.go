// Package payment implements in-network peer-to-peer payments: direct
// transfers, one-shot QR payment requests and UPI aliases. Everything
// settles through the ledger's paired-leg transfer; there is no
// external rail and no charge.
package payment

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
	"github.com/shopspring/decimal"
)

// upiPattern matches "name@handle" aliases.
var upiPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,50}@[a-zA-Z]{2,20}$`)

const defaultQRExpiry = 15 * time.Minute

// Service implements interfaces.PaymentService.
type Service struct {
	store  interfaces.Store
	ledger interfaces.LedgerEngine
	clock  common.Clock
	logger *common.Logger
}

var _ interfaces.PaymentService = (*Service)(nil)

// NewService creates the payment service.
func NewService(store interfaces.Store, ledger interfaces.LedgerEngine, clock common.Clock, logger *common.Logger) *Service {
	return &Service{store: store, ledger: ledger, clock: clock, logger: logger}
}

// Send moves money between two in-network accounts. The caller must
// own the source account.
func (s *Service) Send(ctx context.Context, authz *models.AuthzContext, fromAccount, toAccount string, amount decimal.Decimal, description string) (*models.Transaction, *models.Transaction, error) {
	var debit, credit *models.Transaction
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		from, err := tx.Accounts().GetByNumber(ctx, fromAccount)
		if err != nil {
			return err
		}
		if !authz.OwnsCustomer(from.CustomerID) {
			return models.ErrForbidden("not authorized for account %s", fromAccount)
		}
		debit, credit, err = s.ledger.ApplyTransfer(ctx, tx, fromAccount, toAccount, amount, description, "PAYMENT", authz.User.Username)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return debit, credit, nil
}

// CreateQRRequest opens a one-shot payment intent against one of the
// caller's accounts.
func (s *Service) CreateQRRequest(ctx context.Context, authz *models.AuthzContext, req interfaces.QRCreateRequest) (*models.QRPaymentRequest, error) {
	if !req.Amount.IsPositive() {
		return nil, models.ErrValidation("amount must be positive")
	}
	expiry := req.ExpiresIn
	if expiry <= 0 {
		expiry = defaultQRExpiry
	}
	acct, err := s.store.Accounts().GetByNumber(ctx, req.ReceiverAccountNumber)
	if err != nil {
		return nil, err
	}
	if !authz.OwnsCustomer(acct.CustomerID) {
		return nil, models.ErrForbidden("not authorized for account %s", req.ReceiverAccountNumber)
	}
	if acct.Status != models.AccountActive {
		return nil, models.NewError(models.CodeAccountNotActive,
			"account %s is %s", acct.AccountNumber, acct.Status)
	}

	now := s.clock.Now().UTC()
	qr := &models.QRPaymentRequest{
		RequestID:          common.NewQRRequestID(),
		ReceiverCustomerID: acct.CustomerID,
		ReceiverAccountID:  acct.ID,
		Amount:             req.Amount,
		Description:        strings.TrimSpace(req.Description),
		Status:             models.QRActive,
		ExpiresAt:          now.Add(expiry),
		CreatedAt:          now,
	}
	err = s.store.InTx(ctx, func(tx interfaces.Store) error {
		return tx.Payments().CreateQRRequest(ctx, qr)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("request_id", qr.RequestID).
		Str("amount", qr.Amount.String()).
		Msg("QR payment request created")
	return qr, nil
}

// PayQRRequest satisfies an ACTIVE, unexpired intent exactly once,
// linking the paired journal legs to the request.
func (s *Service) PayQRRequest(ctx context.Context, authz *models.AuthzContext, requestID, payerAccountNumber string) (*models.QRPaymentRequest, error) {
	var qr *models.QRPaymentRequest
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		var err error
		qr, err = tx.Payments().GetQRRequest(ctx, requestID)
		if err != nil {
			return err
		}
		now := s.clock.Now().UTC()
		if qr.Status != models.QRActive {
			return models.ErrConflict("payment request is %s", qr.Status)
		}
		if !now.Before(qr.ExpiresAt) {
			qr.Status = models.QRExpired
			if err := tx.Payments().UpdateQRRequest(ctx, qr); err != nil {
				return err
			}
			return models.ErrConflict("payment request has expired")
		}

		payer, err := tx.Accounts().GetByNumber(ctx, payerAccountNumber)
		if err != nil {
			return err
		}
		if !authz.OwnsCustomer(payer.CustomerID) {
			return models.ErrForbidden("not authorized for account %s", payerAccountNumber)
		}
		receiver, err := tx.Accounts().GetByID(ctx, qr.ReceiverAccountID)
		if err != nil {
			return err
		}

		desc := qr.Description
		if desc == "" {
			desc = "QR payment " + qr.RequestID
		}
		debit, credit, err := s.ledger.ApplyTransfer(ctx, tx, payer.AccountNumber, receiver.AccountNumber, qr.Amount, desc, "QR_PAYMENT", authz.User.Username)
		if err != nil {
			return err
		}
		qr.Status = models.QRPaid
		qr.PaidBy = authz.User.Username
		qr.PaidAt = &now
		qr.DebitTransactionID = &debit.ID
		qr.CreditTransactionID = &credit.ID
		return tx.Payments().UpdateQRRequest(ctx, qr)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("request_id", qr.RequestID).
		Str("paid_by", qr.PaidBy).
		Msg("QR payment request paid")
	return qr, nil
}

// GetQRRequest returns the intent, reporting EXPIRED for a stale
// ACTIVE row without waiting for the sweep.
func (s *Service) GetQRRequest(ctx context.Context, authz *models.AuthzContext, requestID string) (*models.QRPaymentRequest, error) {
	qr, err := s.store.Payments().GetQRRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if qr.Status == models.QRActive && !s.clock.Now().UTC().Before(qr.ExpiresAt) {
		qr.Status = models.QRExpired
	}
	return qr, nil
}

// RegisterUPI registers an alias for one of the caller's accounts. The
// alias is unique across all registrations, active or not.
func (s *Service) RegisterUPI(ctx context.Context, authz *models.AuthzContext, upiID, accountNumber string) (*models.UPIAddress, error) {
	upiID = strings.ToLower(strings.TrimSpace(upiID))
	if !upiPattern.MatchString(upiID) {
		return nil, models.ErrValidation("UPI id must look like name@handle")
	}
	acct, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if !authz.OwnsCustomer(acct.CustomerID) {
		return nil, models.ErrForbidden("not authorized for account %s", accountNumber)
	}

	now := s.clock.Now().UTC()
	addr := &models.UPIAddress{
		UPIID:      upiID,
		UserID:     authz.User.ID,
		CustomerID: acct.CustomerID,
		AccountID:  acct.ID,
		Status:     models.UPIActive,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	err = s.store.InTx(ctx, func(tx interfaces.Store) error {
		return tx.Payments().CreateUPI(ctx, addr)
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// DeactivateUPI retires an alias. The row stays so the alias string is
// never reassigned.
func (s *Service) DeactivateUPI(ctx context.Context, authz *models.AuthzContext, upiID string) error {
	return s.store.InTx(ctx, func(tx interfaces.Store) error {
		addr, err := tx.Payments().GetUPI(ctx, strings.ToLower(strings.TrimSpace(upiID)))
		if err != nil {
			return err
		}
		if !authz.OwnsCustomer(addr.CustomerID) {
			return models.ErrForbidden("not your UPI address")
		}
		if addr.Status != models.UPIActive {
			return models.ErrConflict("UPI address is already %s", addr.Status)
		}
		return tx.Payments().UpdateUPIStatus(ctx, addr.ID, models.UPIInactive)
	})
}

// ListUPI returns the caller's aliases.
func (s *Service) ListUPI(ctx context.Context, authz *models.AuthzContext) ([]*models.UPIAddress, error) {
	customerID := authz.CustomerID()
	if customerID == 0 {
		return nil, models.ErrValidation("caller has no customer profile")
	}
	return s.store.Payments().ListUPIByCustomer(ctx, customerID)
}

// PayToUPI resolves an ACTIVE alias and transfers to its account.
func (s *Service) PayToUPI(ctx context.Context, authz *models.AuthzContext, upiID, payerAccountNumber string, amount decimal.Decimal, description string) (*models.Transaction, *models.Transaction, error) {
	var debit, credit *models.Transaction
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		addr, err := tx.Payments().GetUPI(ctx, strings.ToLower(strings.TrimSpace(upiID)))
		if err != nil {
			return err
		}
		if addr.Status != models.UPIActive {
			return models.ErrConflict("UPI address %s is %s", upiID, addr.Status)
		}
		payer, err := tx.Accounts().GetByNumber(ctx, payerAccountNumber)
		if err != nil {
			return err
		}
		if !authz.OwnsCustomer(payer.CustomerID) {
			return models.ErrForbidden("not authorized for account %s", payerAccountNumber)
		}
		receiver, err := tx.Accounts().GetByID(ctx, addr.AccountID)
		if err != nil {
			return err
		}
		if description == "" {
			description = "UPI payment to " + addr.UPIID
		}
		debit, credit, err = s.ledger.ApplyTransfer(ctx, tx, payer.AccountNumber, receiver.AccountNumber, amount, description, "UPI_PAYMENT", authz.User.Username)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return debit, credit, nil
}

// ExpireQRRequests sweeps stale ACTIVE intents to EXPIRED. Called by
// the scheduler.
func (s *Service) ExpireQRRequests(ctx context.Context) (int, error) {
	var n int
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		var err error
		n, err = tx.Payments().ExpireQRRequests(ctx, s.clock.Now().UTC())
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug().Int("expired", n).Msg("QR payment requests expired")
	}
	return n, nil
}
