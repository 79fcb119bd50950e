// Package ledger is the sole authority over account balances and the
// transaction journal. Every mutation runs inside one serializable
// store transaction; no other package writes balance columns.
package ledger

import (
	"context"
	"fmt"

	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
	"github.com/shopspring/decimal"
)

// Service implements interfaces.LedgerService.
type Service struct {
	store    interfaces.Store
	clock    common.Clock
	logger   *common.Logger
	currency string
}

var (
	_ interfaces.LedgerService = (*Service)(nil)
	_ interfaces.LedgerEngine  = (*Service)(nil)
)

// NewService creates the ledger service.
func NewService(store interfaces.Store, clock common.Clock, logger *common.Logger, config *common.Config) *Service {
	return &Service{
		store:    store,
		clock:    clock,
		logger:   logger,
		currency: config.Accounts.DefaultCurrency,
	}
}

// Debit posts a debit against an account. Staff-only; customer-facing
// flows debit through transfers and EFT holds instead.
func (s *Service) Debit(ctx context.Context, authz *models.AuthzContext, req interfaces.LedgerRequest) (*models.Transaction, error) {
	if !authz.Has(models.PermTransactionWrite) {
		return nil, models.ErrForbidden("transaction write permission required")
	}
	var txn *models.Transaction
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		acct, err := tx.Accounts().GetByNumber(ctx, req.AccountNumber)
		if err != nil {
			return err
		}
		if req.HoldOnly {
			txn, err = s.PlaceHold(ctx, tx, acct, req.Amount, req.Category, req.Description, authz.User.Username)
		} else {
			txn, err = s.postDebit(ctx, tx, acct, req.Amount, models.TxnDebit, req.Category, req.Description, authz.User.Username, "")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Credit posts a credit to an account. Staff-only.
func (s *Service) Credit(ctx context.Context, authz *models.AuthzContext, req interfaces.LedgerRequest) (*models.Transaction, error) {
	if !authz.Has(models.PermTransactionWrite) {
		return nil, models.ErrForbidden("transaction write permission required")
	}
	var txn *models.Transaction
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		acct, err := tx.Accounts().GetByNumber(ctx, req.AccountNumber)
		if err != nil {
			return err
		}
		var txnErr error
		txn, txnErr = s.PostCredit(ctx, tx, acct, req.Amount, models.TxnCredit, req.Category, req.Description, authz.User.Username, "")
		return txnErr
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Transfer moves money between two in-network accounts atomically. The
// caller must own the source account or hold transaction write.
func (s *Service) Transfer(ctx context.Context, authz *models.AuthzContext, fromAccount, toAccount string, amount decimal.Decimal, description string) (*models.Transaction, *models.Transaction, error) {
	var debit, credit *models.Transaction
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		from, err := tx.Accounts().GetByNumber(ctx, fromAccount)
		if err != nil {
			return err
		}
		if !authz.OwnsCustomer(from.CustomerID) && !authz.Has(models.PermTransactionWrite) {
			return models.ErrForbidden("not authorized for account %s", fromAccount)
		}
		debit, credit, err = s.ApplyTransfer(ctx, tx, fromAccount, toAccount, amount, description, "TRANSFER", authz.User.Username)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return debit, credit, nil
}

// History returns journal rows for an account, newest first.
func (s *Service) History(ctx context.Context, authz *models.AuthzContext, accountNumber string, q models.JournalQuery) ([]*models.Transaction, error) {
	acct, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if !authz.OwnsCustomer(acct.CustomerID) && !authz.Has(models.PermTransactionRead) {
		return nil, models.ErrForbidden("not authorized for account %s", accountNumber)
	}
	return s.store.Transactions().ListByAccount(ctx, acct.ID, q)
}

// BulkUpload posts parsed rows one transaction each. A failed row is
// recorded and skipped; it never aborts the rest of the batch.
func (s *Service) BulkUpload(ctx context.Context, authz *models.AuthzContext, rows []models.BulkUploadRow) (*models.BulkUploadResult, error) {
	if !authz.Has(models.PermTransactionWrite) {
		return nil, models.ErrForbidden("transaction write permission required")
	}
	result := &models.BulkUploadResult{
		BatchID: common.NewBulkBatchID(s.clock),
		Total:   len(rows),
	}
	for _, row := range rows {
		err := s.store.InTx(ctx, func(tx interfaces.Store) error {
			acct, err := tx.Accounts().GetByNumber(ctx, row.AccountNumber)
			if err != nil {
				return err
			}
			switch row.Type {
			case models.TxnDebit, models.TxnWithdrawal, models.TxnFee:
				_, err = s.postDebit(ctx, tx, acct, row.Amount, row.Type, row.Category, row.Description, authz.User.Username, result.BatchID)
			case models.TxnCredit, models.TxnRefund:
				_, err = s.PostCredit(ctx, tx, acct, row.Amount, row.Type, row.Category, row.Description, authz.User.Username, result.BatchID)
			default:
				err = models.ErrValidation("unsupported transaction type: %s", row.Type)
			}
			return err
		})
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.BulkRowError{Line: row.Line, Message: err.Error()})
			continue
		}
		result.Successful++
	}
	s.logger.Info().
		Str("batch_id", result.BatchID).
		Int("total", result.Total).
		Int("failed", result.Failed).
		Msg("Bulk upload processed")
	return result, nil
}

// --- transaction-scoped primitives ---
//
// The methods below take a tx-bound Store so the EFT and payment
// engines can compose ledger mutations with their own rows inside one
// unit of work.

// checkDebit verifies an account can lose amount from its available
// balance without breaching its floor.
func (s *Service) checkDebit(acct *models.Account, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return models.ErrValidation("amount must be positive")
	}
	if acct.Status != models.AccountActive {
		return models.NewError(models.CodeAccountNotActive, "account %s is %s", acct.AccountNumber, acct.Status)
	}
	if acct.AvailableBalance.LessThan(amount) {
		return models.NewError(models.CodeInsufficientFunds,
			"account %s has %s available, needs %s", acct.AccountNumber, acct.AvailableBalance, amount)
	}
	if acct.Balance.Sub(amount).LessThan(acct.MinimumBalance) {
		return models.NewError(models.CodeMinBalanceBreach,
			"debit would leave %s below minimum balance %s", acct.Balance.Sub(amount), acct.MinimumBalance)
	}
	return nil
}

// postDebit reduces both balances and writes a COMPLETED journal row.
func (s *Service) postDebit(ctx context.Context, tx interfaces.Store, acct *models.Account, amount decimal.Decimal, typ models.TransactionType, category, description, initiatedBy, bulkBatchID string) (*models.Transaction, error) {
	if err := s.checkDebit(acct, amount); err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	balanceAfter := acct.Balance.Sub(amount)
	txn := &models.Transaction{
		TransactionReference: common.NewTransactionReference(s.clock),
		AccountID:            acct.ID,
		Type:                 typ,
		Amount:               amount,
		Currency:             acct.Currency,
		BalanceBefore:        acct.Balance,
		BalanceAfter:         balanceAfter,
		Status:               models.TxnCompleted,
		Description:          description,
		Category:             category,
		InitiatedBy:          initiatedBy,
		BulkBatchID:          bulkBatchID,
		TransactionDate:      now,
		CreatedAt:            now,
		ModifiedAt:           now,
	}
	if err := tx.Transactions().Create(ctx, txn); err != nil {
		return nil, err
	}
	if err := tx.Accounts().UpdateBalances(ctx, acct.ID, balanceAfter, acct.AvailableBalance.Sub(amount), now); err != nil {
		return nil, err
	}
	acct.Balance = balanceAfter
	acct.AvailableBalance = acct.AvailableBalance.Sub(amount)
	return txn, nil
}

// PostCredit increases both balances and writes a COMPLETED journal row.
func (s *Service) PostCredit(ctx context.Context, tx interfaces.Store, acct *models.Account, amount decimal.Decimal, typ models.TransactionType, category, description, initiatedBy, bulkBatchID string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, models.ErrValidation("amount must be positive")
	}
	if acct.Status != models.AccountActive {
		return nil, models.NewError(models.CodeAccountNotActive, "account %s is %s", acct.AccountNumber, acct.Status)
	}
	now := s.clock.Now().UTC()
	balanceAfter := acct.Balance.Add(amount)
	txn := &models.Transaction{
		TransactionReference: common.NewTransactionReference(s.clock),
		AccountID:            acct.ID,
		Type:                 typ,
		Amount:               amount,
		Currency:             acct.Currency,
		BalanceBefore:        acct.Balance,
		BalanceAfter:         balanceAfter,
		Status:               models.TxnCompleted,
		Description:          description,
		Category:             category,
		InitiatedBy:          initiatedBy,
		BulkBatchID:          bulkBatchID,
		TransactionDate:      now,
		CreatedAt:            now,
		ModifiedAt:           now,
	}
	if err := tx.Transactions().Create(ctx, txn); err != nil {
		return nil, err
	}
	if err := tx.Accounts().UpdateBalances(ctx, acct.ID, balanceAfter, acct.AvailableBalance.Add(amount), now); err != nil {
		return nil, err
	}
	acct.Balance = balanceAfter
	acct.AvailableBalance = acct.AvailableBalance.Add(amount)
	return txn, nil
}

// PlaceHold reserves amount on the available balance without touching
// the posted balance. The PROCESSING journal row it returns settles or
// releases exactly once.
func (s *Service) PlaceHold(ctx context.Context, tx interfaces.Store, acct *models.Account, amount decimal.Decimal, category, description, initiatedBy string) (*models.Transaction, error) {
	if err := s.checkDebit(acct, amount); err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	txn := &models.Transaction{
		TransactionReference: common.NewTransactionReference(s.clock),
		AccountID:            acct.ID,
		Type:                 models.TxnDebit,
		Amount:               amount,
		Currency:             acct.Currency,
		BalanceBefore:        acct.Balance,
		BalanceAfter:         acct.Balance,
		Status:               models.TxnProcessing,
		Description:          description,
		Category:             category,
		InitiatedBy:          initiatedBy,
		TransactionDate:      now,
		CreatedAt:            now,
		ModifiedAt:           now,
	}
	if err := tx.Transactions().Create(ctx, txn); err != nil {
		return nil, err
	}
	if err := tx.Accounts().UpdateBalances(ctx, acct.ID, acct.Balance, acct.AvailableBalance.Sub(amount), now); err != nil {
		return nil, err
	}
	acct.AvailableBalance = acct.AvailableBalance.Sub(amount)
	return txn, nil
}

// SettleHold converts a PROCESSING hold into a posted debit: the posted
// balance drops by the held amount and the row completes.
func (s *Service) SettleHold(ctx context.Context, tx interfaces.Store, holdTxnID int64) (*models.Transaction, error) {
	txn, err := tx.Transactions().GetByID(ctx, holdTxnID)
	if err != nil {
		return nil, err
	}
	if txn.Status != models.TxnProcessing {
		return nil, models.NewError(models.CodeInvalidEFTState,
			"hold %s is %s, expected PROCESSING", txn.TransactionReference, txn.Status)
	}
	acct, err := tx.Accounts().GetByID(ctx, txn.AccountID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	balanceAfter := acct.Balance.Sub(txn.Amount)
	if err := tx.Transactions().SetBalances(ctx, txn.ID, acct.Balance, balanceAfter); err != nil {
		return nil, err
	}
	if err := tx.Transactions().UpdateStatus(ctx, txn.ID, models.TxnCompleted, ""); err != nil {
		return nil, err
	}
	if err := tx.Accounts().UpdateBalances(ctx, acct.ID, balanceAfter, acct.AvailableBalance, now); err != nil {
		return nil, err
	}
	txn.BalanceBefore = acct.Balance
	txn.BalanceAfter = balanceAfter
	txn.Status = models.TxnCompleted
	return txn, nil
}

// ReleaseHold fails a PROCESSING hold and restores the reserved amount
// to the available balance. The posted balance was never touched.
func (s *Service) ReleaseHold(ctx context.Context, tx interfaces.Store, holdTxnID int64, reason string) error {
	txn, err := tx.Transactions().GetByID(ctx, holdTxnID)
	if err != nil {
		return err
	}
	if txn.Status != models.TxnProcessing {
		return models.NewError(models.CodeInvalidEFTState,
			"hold %s is %s, expected PROCESSING", txn.TransactionReference, txn.Status)
	}
	acct, err := tx.Accounts().GetByID(ctx, txn.AccountID)
	if err != nil {
		return err
	}
	if err := tx.Transactions().UpdateStatus(ctx, txn.ID, models.TxnFailed, reason); err != nil {
		return err
	}
	return tx.Accounts().UpdateBalances(ctx, acct.ID, acct.Balance,
		acct.AvailableBalance.Add(txn.Amount), s.clock.Now().UTC())
}

// PostRefund credits the source of a committed debit for its full
// amount, citing the original reference. Used by the EFT engines to
// compensate a failed external leg.
func (s *Service) PostRefund(ctx context.Context, tx interfaces.Store, originalDebit *models.Transaction) (*models.Transaction, error) {
	acct, err := tx.Accounts().GetByID(ctx, originalDebit.AccountID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	balanceAfter := acct.Balance.Add(originalDebit.Amount)
	txn := &models.Transaction{
		TransactionReference: common.NewTransactionReference(s.clock),
		ExternalReference:    originalDebit.ExternalReference,
		AccountID:            acct.ID,
		Type:                 models.TxnRefund,
		Amount:               originalDebit.Amount,
		Currency:             acct.Currency,
		BalanceBefore:        acct.Balance,
		BalanceAfter:         balanceAfter,
		Status:               models.TxnCompleted,
		Description:          fmt.Sprintf("Refund for %s", originalDebit.TransactionReference),
		Category:             "REFUND",
		InitiatedBy:          originalDebit.InitiatedBy,
		TransactionDate:      now,
		CreatedAt:            now,
		ModifiedAt:           now,
	}
	if err := tx.Transactions().Create(ctx, txn); err != nil {
		return nil, err
	}
	if err := tx.Accounts().UpdateBalances(ctx, acct.ID, balanceAfter, acct.AvailableBalance.Add(originalDebit.Amount), now); err != nil {
		return nil, err
	}
	return txn, nil
}

// ApplyTransfer moves amount between two accounts, writing paired legs
// that share an external reference and sum to zero. Accounts are read
// in ascending id order so concurrent transfers always acquire rows in
// the same sequence.
func (s *Service) ApplyTransfer(ctx context.Context, tx interfaces.Store, fromAccount, toAccount string, amount decimal.Decimal, description, category, initiatedBy string) (*models.Transaction, *models.Transaction, error) {
	if fromAccount == toAccount {
		return nil, nil, models.ErrValidation("source and destination accounts must differ")
	}
	from, err := tx.Accounts().GetByNumber(ctx, fromAccount)
	if err != nil {
		return nil, nil, err
	}
	to, err := tx.Accounts().GetByNumber(ctx, toAccount)
	if err != nil {
		return nil, nil, err
	}
	if from.ID > to.ID {
		// Re-read in ascending id order.
		if to, err = tx.Accounts().GetByID(ctx, to.ID); err != nil {
			return nil, nil, err
		}
		if from, err = tx.Accounts().GetByID(ctx, from.ID); err != nil {
			return nil, nil, err
		}
	}
	if err := s.checkDebit(from, amount); err != nil {
		return nil, nil, err
	}
	if to.Status != models.AccountActive {
		return nil, nil, models.NewError(models.CodeAccountNotActive,
			"account %s is %s", to.AccountNumber, to.Status)
	}
	if from.Currency != to.Currency {
		return nil, nil, models.ErrValidation("currency mismatch: %s vs %s", from.Currency, to.Currency)
	}

	now := s.clock.Now().UTC()
	externalRef := common.NewExternalReference()

	debitAfter := from.Balance.Sub(amount)
	debit := &models.Transaction{
		TransactionReference: common.NewTransactionReference(s.clock),
		ExternalReference:    externalRef,
		AccountID:            from.ID,
		DestinationAccountID: &to.ID,
		Type:                 models.TxnTransfer,
		Amount:               amount,
		Currency:             from.Currency,
		BalanceBefore:        from.Balance,
		BalanceAfter:         debitAfter,
		Status:               models.TxnCompleted,
		Description:          description,
		Category:             category,
		InitiatedBy:          initiatedBy,
		TransactionDate:      now,
		CreatedAt:            now,
		ModifiedAt:           now,
	}
	creditAfter := to.Balance.Add(amount)
	credit := &models.Transaction{
		TransactionReference: common.NewTransactionReference(s.clock),
		ExternalReference:    externalRef,
		AccountID:            to.ID,
		DestinationAccountID: &from.ID,
		Type:                 models.TxnTransfer,
		Amount:               amount,
		Currency:             to.Currency,
		BalanceBefore:        to.Balance,
		BalanceAfter:         creditAfter,
		Status:               models.TxnCompleted,
		Description:          description,
		Category:             category,
		InitiatedBy:          initiatedBy,
		TransactionDate:      now,
		CreatedAt:            now,
		ModifiedAt:           now,
	}
	if err := tx.Transactions().Create(ctx, debit); err != nil {
		return nil, nil, err
	}
	if err := tx.Transactions().Create(ctx, credit); err != nil {
		return nil, nil, err
	}
	if err := tx.Accounts().UpdateBalances(ctx, from.ID, debitAfter, from.AvailableBalance.Sub(amount), now); err != nil {
		return nil, nil, err
	}
	if err := tx.Accounts().UpdateBalances(ctx, to.ID, creditAfter, to.AvailableBalance.Add(amount), now); err != nil {
		return nil, nil, err
	}
	s.logger.Debug().
		Str("external_reference", externalRef).
		Str("from", fromAccount).
		Str("to", toAccount).
		Str("amount", amount.String()).
		Msg("Transfer applied")
	return debit, credit, nil
}

// OpenAccount creates an ACTIVE account for a customer with a zero
// balance and the configured minimum for its type.
func (s *Service) OpenAccount(ctx context.Context, tx interfaces.Store, customerID int64, accountType models.AccountType, minimumBalance decimal.Decimal) (*models.Account, error) {
	now := s.clock.Now().UTC()
	acct := &models.Account{
		AccountNumber:    common.NewAccountNumber(),
		CustomerID:       customerID,
		AccountType:      accountType,
		Balance:          decimal.Zero,
		AvailableBalance: decimal.Zero,
		MinimumBalance:   minimumBalance,
		Currency:         s.currency,
		Status:           models.AccountActive,
		CreatedAt:        now,
		ModifiedAt:       now,
	}
	// Retry once on a number collision.
	if err := tx.Accounts().Create(ctx, acct); err != nil {
		if models.IsCode(err, models.CodeConflict) {
			acct.AccountNumber = common.NewAccountNumber()
			if err := tx.Accounts().Create(ctx, acct); err != nil {
				return nil, err
			}
			return acct, nil
		}
		return nil, fmt.Errorf("failed to open account: %w", err)
	}
	return acct, nil
}
