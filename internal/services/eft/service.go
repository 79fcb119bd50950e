// Package eft implements the NEFT and RTGS transfer engines. NEFT is
// two-phase: a synchronous submit that places a ledger hold, and an
// hourly batch tick that settles queued transfers against the external
// rail. RTGS settles inline during submit.
package eft

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
	"github.com/shopspring/decimal"
)

const batchProcessor = "NEFT_BATCH_PROCESSOR"

// Service implements interfaces.EFTService.
type Service struct {
	store    interfaces.Store
	ledger   interfaces.LedgerEngine
	external interfaces.ExternalBankClient
	clock    common.Clock
	logger   *common.Logger
	config   *common.Config

	// batchMu keeps batch ticks non-overlapping; a tick that cannot
	// take it immediately no-ops.
	batchMu sync.Mutex
}

var _ interfaces.EFTService = (*Service)(nil)

// NewService creates the EFT engine.
func NewService(store interfaces.Store, ledger interfaces.LedgerEngine, external interfaces.ExternalBankClient, clock common.Clock, logger *common.Logger, config *common.Config) *Service {
	return &Service{
		store:    store,
		ledger:   ledger,
		external: external,
		clock:    clock,
		logger:   logger,
		config:   config,
	}
}

// SubmitNEFT places the hold and queues the transfer for the next
// batch slot. Submissions outside the operating window are accepted
// and scheduled for the next window's first batch.
func (s *Service) SubmitNEFT(ctx context.Context, authz *models.AuthzContext, req interfaces.EFTSubmitRequest) (*models.EFTTransaction, error) {
	charge := chargeFor(s.config.NEFT.Tariff, req.Amount)
	now := s.clock.Now()
	batchTime := nextBatchTime(now, s.config.NEFT.WindowStartHour, s.config.NEFT.WindowEndHour)
	estimated := batchTime.Add(s.config.NEFT.GetSettlementDelay())

	eft, err := s.submit(ctx, authz, req, submitParams{
		eftType:             models.EFTNEFT,
		charge:              charge,
		initialStatus:       models.EFTPending,
		batchTime:           &batchTime,
		estimatedCompletion: &estimated,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("eft_reference", eft.EFTReference).
		Str("amount", eft.Amount.String()).
		Time("batch_time", batchTime).
		Msg("NEFT submitted")
	return eft, nil
}

// SubmitRTGS settles a high-value transfer inline. The window and the
// amount floor are enforced before any ledger effect.
func (s *Service) SubmitRTGS(ctx context.Context, authz *models.AuthzContext, req interfaces.EFTSubmitRequest) (*models.EFTTransaction, error) {
	now := s.clock.Now()
	if !inClockWindow(now, s.config.RTGS.WindowStart, s.config.RTGS.WindowEnd) {
		return nil, models.NewError(models.CodeRTGSClosed,
			"RTGS operates Monday-Friday %s-%s", s.config.RTGS.WindowStart, s.config.RTGS.WindowEnd)
	}
	if req.Amount.LessThan(s.config.RTGS.GetMinimumAmount()) {
		return nil, models.NewError(models.CodeRTGSBelowMin,
			"RTGS minimum amount is %s", s.config.RTGS.GetMinimumAmount())
	}

	charge := chargeFor(s.config.RTGS.Tariff, req.Amount)
	eft, err := s.submit(ctx, authz, req, submitParams{
		eftType:       models.EFTRTGS,
		charge:        charge,
		initialStatus: models.EFTProcessing,
	})
	if err != nil {
		return nil, err
	}

	partnerRef, extErr := s.external.Transfer(ctx, interfaces.ExternalTransferRequest{
		Reference:       eft.EFTReference,
		BeneficiaryName: eft.BeneficiaryName,
		BeneficiaryACNo: eft.BeneficiaryAccountNumber,
		BeneficiaryIFSC: eft.BeneficiaryIFSC,
		Amount:          eft.Amount,
		Currency:        s.config.Accounts.DefaultCurrency,
		Remarks:         req.Remarks,
	})
	if extErr != nil {
		if err := s.failTransfer(ctx, eft, authz.User.Username, extErr.Error()); err != nil {
			s.logger.Error().Err(err).Str("eft_reference", eft.EFTReference).Msg("RTGS compensation failed")
			return nil, err
		}
		return nil, models.WrapError(models.CodeExternalFailure, extErr,
			"RTGS transfer %s failed", eft.EFTReference)
	}
	if err := s.completeTransfer(ctx, eft, authz.User.Username); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("eft_reference", eft.EFTReference).
		Str("partner_reference", partnerRef).
		Msg("RTGS completed")
	return eft, nil
}

type submitParams struct {
	eftType             models.EFTType
	charge              decimal.Decimal
	initialStatus       models.EFTStatus
	batchTime           *time.Time
	estimatedCompletion *time.Time
}

// submit runs the shared NEFT/RTGS submit path: authorize, validate
// the beneficiary, place the hold and create the EFT row, all in one
// unit of work.
func (s *Service) submit(ctx context.Context, authz *models.AuthzContext, req interfaces.EFTSubmitRequest, p submitParams) (*models.EFTTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, models.ErrValidation("amount must be positive")
	}
	total := req.Amount.Add(p.charge)
	now := s.clock.Now().UTC()

	var eft *models.EFTTransaction
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		acct, err := tx.Accounts().GetByNumber(ctx, req.SourceAccountNumber)
		if err != nil {
			return err
		}
		if !authz.OwnsCustomer(acct.CustomerID) && !authz.Has(models.PermTransactionWrite) {
			return models.ErrForbidden("not authorized for account %s", req.SourceAccountNumber)
		}
		ben, err := tx.Beneficiaries().GetByID(ctx, req.BeneficiaryID)
		if err != nil {
			return err
		}
		if ben.CustomerID != acct.CustomerID {
			return models.ErrForbidden("beneficiary does not belong to account owner")
		}
		if ben.Status != models.BeneficiaryActive {
			return models.NewError(models.CodeInvalidBeneficiaryState,
				"beneficiary is %s, must be ACTIVE", ben.Status)
		}

		hold, err := s.ledger.PlaceHold(ctx, tx, acct, total,
			string(p.eftType), describeTransfer(p.eftType, ben.Name), authz.User.Username)
		if err != nil {
			return err
		}
		if err := tx.Beneficiaries().MarkUsed(ctx, ben.ID, now); err != nil {
			return err
		}

		eft = &models.EFTTransaction{
			EFTReference:             common.NewEFTReference(),
			EFTType:                  p.eftType,
			SourceAccountID:          acct.ID,
			BeneficiaryID:            ben.ID,
			BeneficiaryName:          ben.Name,
			BeneficiaryAccountNumber: ben.AccountNumber,
			BeneficiaryIFSC:          ben.IFSCCode,
			BeneficiaryBank:          ben.BankName,
			Amount:                   req.Amount,
			Charges:                  p.charge,
			TotalAmount:              total,
			Status:                   p.initialStatus,
			BatchTime:                p.batchTime,
			EstimatedCompletion:      p.estimatedCompletion,
			TransactionID:            hold.ID,
			CreatedAt:                now,
			ModifiedAt:               now,
		}
		return tx.EFTs().Create(ctx, eft)
	})
	if err != nil {
		return nil, err
	}
	return eft, nil
}

func describeTransfer(t models.EFTType, beneficiaryName string) string {
	return string(t) + " transfer to " + beneficiaryName
}

// GetStatus returns the transfer for polling, to the source account
// owner or staff.
func (s *Service) GetStatus(ctx context.Context, authz *models.AuthzContext, reference string) (*models.EFTTransaction, error) {
	eft, err := s.store.EFTs().GetByReference(ctx, strings.TrimSpace(reference))
	if err != nil {
		return nil, err
	}
	acct, err := s.store.Accounts().GetByID(ctx, eft.SourceAccountID)
	if err != nil {
		return nil, err
	}
	if !authz.OwnsCustomer(acct.CustomerID) && !authz.Has(models.PermTransactionRead) {
		return nil, models.ErrForbidden("not authorized for transfer %s", reference)
	}
	return eft, nil
}

// ProcessBatch runs one NEFT batch tick. Overlapping invocations and
// ticks outside the operating window no-op, as does a rerun for an
// hour whose batch already exists.
func (s *Service) ProcessBatch(ctx context.Context) (*models.EFTBatch, error) {
	if !s.batchMu.TryLock() {
		s.logger.Warn().Msg("Batch tick skipped, previous batch still in flight")
		return nil, nil
	}
	defer s.batchMu.Unlock()

	now := s.clock.Now()
	if !inBatchWindow(now, s.config.NEFT.WindowStartHour, s.config.NEFT.WindowEndHour) {
		s.logger.Debug().Int("hour", now.Hour()).Msg("Batch tick outside operating window")
		return nil, nil
	}

	batchID := common.NEFTBatchID(now)
	if existing, err := s.store.EFTs().GetBatch(ctx, batchID); err == nil {
		s.logger.Debug().Str("batch_id", batchID).Msg("Batch already processed for this hour")
		return existing, nil
	}

	pending, err := s.store.EFTs().ListForBatch(ctx)
	if err != nil {
		return nil, err
	}

	batch := &models.EFTBatch{
		BatchID:   batchID,
		EFTType:   models.EFTNEFT,
		Total:     len(pending),
		Status:    models.BatchProcessing,
		StartedAt: now.UTC(),
	}
	if err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		return tx.EFTs().CreateBatch(ctx, batch)
	}); err != nil {
		if models.IsCode(err, models.CodeConflict) {
			return s.store.EFTs().GetBatch(ctx, batchID)
		}
		return nil, err
	}

	for _, eft := range pending {
		if err := s.processLeg(ctx, eft, batchID); err != nil {
			s.logger.Error().Err(err).
				Str("eft_reference", eft.EFTReference).
				Msg("Batch leg processing error")
			batch.Failed++
			continue
		}
		if eft.Status == models.EFTCompleted {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}

	completed := s.clock.Now().UTC()
	batch.CompletedAt = &completed
	if batch.Failed == 0 {
		batch.Status = models.BatchCompleted
	} else {
		batch.Status = models.BatchPartiallyCompleted
	}
	if err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		return tx.EFTs().UpdateBatch(ctx, batch)
	}); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("batch_id", batchID).
		Int("total", batch.Total).
		Int("succeeded", batch.Succeeded).
		Int("failed", batch.Failed).
		Msg("NEFT batch processed")
	return batch, nil
}

// processLeg drives one queued transfer through the external rail. The
// external call happens between two units of work so a slow partner
// never holds the write lock.
func (s *Service) processLeg(ctx context.Context, eft *models.EFTTransaction, batchID string) error {
	err := s.store.InTx(ctx, func(tx interfaces.Store) error {
		fresh, err := tx.EFTs().GetByID(ctx, eft.ID)
		if err != nil {
			return err
		}
		if fresh.Status != models.EFTPending && fresh.Status != models.EFTQueued {
			return models.NewError(models.CodeInvalidEFTState,
				"transfer %s is %s", fresh.EFTReference, fresh.Status)
		}
		fresh.Status = models.EFTProcessing
		fresh.BatchID = batchID
		*eft = *fresh
		return tx.EFTs().Update(ctx, fresh)
	})
	if err != nil {
		return err
	}

	_, extErr := s.external.Transfer(ctx, interfaces.ExternalTransferRequest{
		Reference:       eft.EFTReference,
		BeneficiaryName: eft.BeneficiaryName,
		BeneficiaryACNo: eft.BeneficiaryAccountNumber,
		BeneficiaryIFSC: eft.BeneficiaryIFSC,
		Amount:          eft.Amount,
		Currency:        s.config.Accounts.DefaultCurrency,
	})
	if extErr != nil {
		return s.failTransfer(ctx, eft, batchProcessor, extErr.Error())
	}
	return s.completeTransfer(ctx, eft, batchProcessor)
}

// completeTransfer settles the hold into the posted balance and marks
// the transfer COMPLETED.
func (s *Service) completeTransfer(ctx context.Context, eft *models.EFTTransaction, processedBy string) error {
	return s.store.InTx(ctx, func(tx interfaces.Store) error {
		if _, err := s.ledger.SettleHold(ctx, tx, eft.TransactionID); err != nil {
			return err
		}
		now := s.clock.Now().UTC()
		eft.Status = models.EFTCompleted
		eft.ActualCompletion = &now
		eft.ProcessedBy = processedBy
		return tx.EFTs().Update(ctx, eft)
	})
}

// failTransfer compensates a failed external leg: the hold commits to
// the posted balance and an offsetting REFUND credit restores it, so
// the journal shows both movements and the net effect is zero.
func (s *Service) failTransfer(ctx context.Context, eft *models.EFTTransaction, processedBy, reason string) error {
	return s.store.InTx(ctx, func(tx interfaces.Store) error {
		debit, err := s.ledger.SettleHold(ctx, tx, eft.TransactionID)
		if err != nil {
			return err
		}
		if _, err := s.ledger.PostRefund(ctx, tx, debit); err != nil {
			return err
		}
		now := s.clock.Now().UTC()
		eft.Status = models.EFTFailed
		eft.FailureReason = reason
		eft.ActualCompletion = &now
		eft.ProcessedBy = processedBy
		return tx.EFTs().Update(ctx, eft)
	})
}
