package eft

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/corebank/internal/clients/extbank"
	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
	"github.com/bobmcallan/corebank/internal/services/ledger"
	"github.com/bobmcallan/corebank/internal/storage/sqlite"
)

type env struct {
	store  *sqlite.Store
	svc    *Service
	ledger *ledger.Service
	clock  *common.FixedClock
	config *common.Config
}

// newEnv builds an engine over an in-memory store. failureRate controls
// the simulated partner: 0 always settles, 1 always rejects.
func newEnv(t *testing.T, failureRate float64) *env {
	t.Helper()
	logger := common.NewSilentLogger()
	store, err := sqlite.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// Monday 10:00, inside both operating windows.
	clock := &common.FixedClock{Current: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)}
	config := common.NewDefaultConfig()
	ledgerSvc := ledger.NewService(store, clock, logger, config)
	external := extbank.NewClientWithSeed(logger, failureRate, 1)
	svc := NewService(store, ledgerSvc, external, clock, logger, config)
	return &env{store: store, svc: svc, ledger: ledgerSvc, clock: clock, config: config}
}

type fixture struct {
	customer    *models.Customer
	account     *models.Account
	beneficiary *models.Beneficiary
	authz       *models.AuthzContext
}

func (e *env) seed(t *testing.T, balance string) *fixture {
	t.Helper()
	ctx := context.Background()
	now := e.clock.Now().UTC()

	customer := &models.Customer{
		CustomerNumber: "CUS00000001",
		FirstName:      "Asha",
		LastName:       "Rao",
		Email:          "asha@example.com",
		Mobile:         "9000000001",
		NationalID:     "NID1",
		Status:         models.CustomerActive,
		CreatedAt:      now,
		ModifiedAt:     now,
	}
	require.NoError(t, e.store.Customers().Create(ctx, customer))

	bal, err := decimal.NewFromString(balance)
	require.NoError(t, err)
	account := &models.Account{
		AccountNumber:    "100000000001",
		CustomerID:       customer.ID,
		AccountType:      models.AccountSavings,
		Balance:          bal,
		AvailableBalance: bal,
		MinimumBalance:   decimal.Zero,
		Currency:         "INR",
		Status:           models.AccountActive,
		CreatedAt:        now,
		ModifiedAt:       now,
	}
	require.NoError(t, e.store.Accounts().Create(ctx, account))

	verifiedAt := now
	beneficiary := &models.Beneficiary{
		CustomerID:    customer.ID,
		Name:          "Ravi Kumar",
		AccountNumber: "500100200300",
		IFSCCode:      "HDFC0001234",
		BankName:      "HDFC Bank",
		IsVerified:    true,
		Status:        models.BeneficiaryActive,
		VerifiedBy:    "admin",
		VerifiedAt:    &verifiedAt,
		CreatedAt:     now,
		ModifiedAt:    now,
	}
	require.NoError(t, e.store.Beneficiaries().Create(ctx, beneficiary))

	return &fixture{
		customer:    customer,
		account:     account,
		beneficiary: beneficiary,
		authz: &models.AuthzContext{
			User: &models.User{
				ID:         2,
				Username:   "asha",
				Status:     models.UserActive,
				CustomerID: &customer.ID,
			},
			Permissions: models.NewPermissionSet([]string{models.RoleCustomer}, models.RolePermissions),
		},
	}
}

func (e *env) balance(t *testing.T, number string) (posted, available string) {
	t.Helper()
	acct, err := e.store.Accounts().GetByNumber(context.Background(), number)
	require.NoError(t, err)
	return acct.Balance.String(), acct.AvailableBalance.String()
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestSubmitNEFTPlacesHoldAndSchedules(t *testing.T) {
	e := newEnv(t, 0)
	f := e.seed(t, "50000")

	eft, err := e.svc.SubmitNEFT(context.Background(), f.authz, interfaces.EFTSubmitRequest{
		SourceAccountNumber: "100000000001",
		BeneficiaryID:       f.beneficiary.ID,
		Amount:              dec(t, "5000"),
		Remarks:             "rent",
	})
	require.NoError(t, err)

	assert.Equal(t, models.EFTPending, eft.Status)
	assert.Equal(t, "2.5", eft.Charges.String())
	assert.Equal(t, "5002.5", eft.TotalAmount.String())
	require.NotNil(t, eft.BatchTime)
	assert.Equal(t, 11, eft.BatchTime.Hour())
	require.NotNil(t, eft.EstimatedCompletion)
	assert.True(t, eft.EstimatedCompletion.After(*eft.BatchTime))

	// Beneficiary details are snapshotted on the transfer.
	assert.Equal(t, "Ravi Kumar", eft.BeneficiaryName)
	assert.Equal(t, "HDFC0001234", eft.BeneficiaryIFSC)

	// Hold: posted balance intact, available reduced by amount + charge.
	posted, available := e.balance(t, "100000000001")
	assert.Equal(t, "50000", posted)
	assert.Equal(t, "44997.5", available)
}

func TestSubmitNEFTAfterWindowSchedulesNextDay(t *testing.T) {
	e := newEnv(t, 0)
	f := e.seed(t, "50000")
	e.clock.Current = time.Date(2025, 6, 2, 21, 15, 0, 0, time.UTC)

	eft, err := e.svc.SubmitNEFT(context.Background(), f.authz, interfaces.EFTSubmitRequest{
		SourceAccountNumber: "100000000001",
		BeneficiaryID:       f.beneficiary.ID,
		Amount:              dec(t, "5000"),
	})
	require.NoError(t, err)
	require.NotNil(t, eft.BatchTime)
	assert.Equal(t, 3, eft.BatchTime.Day())
	assert.Equal(t, 8, eft.BatchTime.Hour())
}

func TestSubmitNEFTUnverifiedBeneficiary(t *testing.T) {
	e := newEnv(t, 0)
	f := e.seed(t, "50000")
	f.beneficiary.Status = models.BeneficiaryPendingVerification
	require.NoError(t, e.store.Beneficiaries().Update(context.Background(), f.beneficiary))

	_, err := e.svc.SubmitNEFT(context.Background(), f.authz, interfaces.EFTSubmitRequest{
		SourceAccountNumber: "100000000001",
		BeneficiaryID:       f.beneficiary.ID,
		Amount:              dec(t, "5000"),
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeInvalidBeneficiaryState, models.CodeOf(err))

	// No hold was placed.
	_, available := e.balance(t, "100000000001")
	assert.Equal(t, "50000", available)
}

func TestSubmitNEFTInsufficientFundsCoversCharge(t *testing.T) {
	e := newEnv(t, 0)
	f := e.seed(t, "5000")

	// Amount fits but amount + charge does not.
	_, err := e.svc.SubmitNEFT(context.Background(), f.authz, interfaces.EFTSubmitRequest{
		SourceAccountNumber: "100000000001",
		BeneficiaryID:       f.beneficiary.ID,
		Amount:              dec(t, "4999"),
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeInsufficientFunds, models.CodeOf(err))
}

func TestProcessBatchSettlesPendingTransfers(t *testing.T) {
	e := newEnv(t, 0)
	f := e.seed(t, "50000")

	eft, err := e.svc.SubmitNEFT(context.Background(), f.authz, interfaces.EFTSubmitRequest{
		SourceAccountNumber: "100000000001",
		BeneficiaryID:       f.beneficiary.ID,
		Amount:              dec(t, "5000"),
	})
	require.NoError(t, err)

	e.clock.Advance(time.Hour)
	batch, err := e.svc.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, batch)

	assert.Equal(t, "NEFT2025060211", batch.BatchID)
	assert.Equal(t, 1, batch.Total)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 0, batch.Failed)
	assert.Equal(t, models.BatchCompleted, batch.Status)

	settled, err := e.svc.GetStatus(context.Background(), f.authz, eft.EFTReference)
	require.NoError(t, err)
	assert.Equal(t, models.EFTCompleted, settled.Status)
	assert.Equal(t, batch.BatchID, settled.BatchID)
	assert.Equal(t, "NEFT_BATCH_PROCESSOR", settled.ProcessedBy)
	require.NotNil(t, settled.ActualCompletion)

	// The hold settled into the posted balance.
	posted, available := e.balance(t, "100000000001")
	assert.Equal(t, "44997.5", posted)
	assert.Equal(t, "44997.5", available)
}

func TestProcessBatchFailureRefunds(t *testing.T) {
	e := newEnv(t, 1)
	f := e.seed(t, "50000")

	eft, err := e.svc.SubmitNEFT(context.Background(), f.authz, interfaces.EFTSubmitRequest{
		SourceAccountNumber: "100000000001",
		BeneficiaryID:       f.beneficiary.ID,
		Amount:              dec(t, "5000"),
	})
	require.NoError(t, err)

	e.clock.Advance(time.Hour)
	batch, err := e.svc.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, batch)

	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, models.BatchPartiallyCompleted, batch.Status)

	failed, err := e.svc.GetStatus(context.Background(), f.authz, eft.EFTReference)
	require.NoError(t, err)
	assert.Equal(t, models.EFTFailed, failed.Status)
	assert.NotEmpty(t, failed.FailureReason)

	// Debit and refund cancel out.
	posted, available := e.balance(t, "100000000001")
	assert.Equal(t, "50000", posted)
	assert.Equal(t, "50000", available)

	// The journal keeps both movements.
	txns, err := e.store.Transactions().ListByAccount(context.Background(), f.account.ID, models.JournalQuery{})
	require.NoError(t, err)
	var sawRefund, sawDebit bool
	for _, txn := range txns {
		if txn.Type == models.TxnRefund && txn.Status == models.TxnCompleted {
			sawRefund = true
		}
		if txn.ID == eft.TransactionID && txn.Status == models.TxnCompleted {
			sawDebit = true
		}
	}
	assert.True(t, sawRefund, "expected a completed refund row")
	assert.True(t, sawDebit, "expected the settled debit row")
}

func TestProcessBatchRerunIsNoOp(t *testing.T) {
	e := newEnv(t, 0)
	f := e.seed(t, "50000")

	_, err := e.svc.SubmitNEFT(context.Background(), f.authz, interfaces.EFTSubmitRequest{
		SourceAccountNumber: "100000000001",
		BeneficiaryID:       f.beneficiary.ID,
		Amount:              dec(t, "5000"),
	})
	require.NoError(t, err)

	e.clock.Advance(time.Hour)
	first, err := e.svc.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := e.svc.ProcessBatch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.BatchID, second.BatchID)

	// Balances did not move twice.
	posted, _ := e.balance(t, "100000000001")
	assert.Equal(t, "44997.5", posted)
}

func TestProcessBatchOutsideWindowSkips(t *testing.T) {
	e := newEnv(t, 0)
	e.seed(t, "50000")
	e.clock.Current = time.Date(2025, 6, 2, 22, 0, 0, 0, time.UTC)

	batch, err := e.svc.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, batch)
}

func TestSubmitRTGSInlineSettlement(t *testing.T) {
	e := newEnv(t, 0)
	f := e.seed(t, "600000")

	eft, err := e.svc.SubmitRTGS(context.Background(), f.authz, interfaces.EFTSubmitRequest{
		SourceAccountNumber: "100000000001",
		BeneficiaryID:       f.beneficiary.ID,
		Amount:              dec(t, "250000"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.EFTCompleted, eft.Status)
	assert.Equal(t, "30", eft.Charges.String())
	require.NotNil(t, eft.ActualCompletion)

	posted, available := e.balance(t, "100000000001")
	assert.Equal(t, "349970", posted)
	assert.Equal(t, "349970", available)
}

func TestSubmitRTGSBelowMinimum(t *testing.T) {
	e := newEnv(t, 0)
	f := e.seed(t, "600000")

	_, err := e.svc.SubmitRTGS(context.Background(), f.authz, interfaces.EFTSubmitRequest{
		SourceAccountNumber: "100000000001",
		BeneficiaryID:       f.beneficiary.ID,
		Amount:              dec(t, "199999.99"),
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeRTGSBelowMin, models.CodeOf(err))
}

func TestSubmitRTGSOutsideWindow(t *testing.T) {
	e := newEnv(t, 0)
	f := e.seed(t, "600000")
	// Saturday.
	e.clock.Current = time.Date(2025, 6, 7, 10, 0, 0, 0, time.UTC)

	_, err := e.svc.SubmitRTGS(context.Background(), f.authz, interfaces.EFTSubmitRequest{
		SourceAccountNumber: "100000000001",
		BeneficiaryID:       f.beneficiary.ID,
		Amount:              dec(t, "250000"),
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeRTGSClosed, models.CodeOf(err))
}

func TestSubmitRTGSFailureCompensates(t *testing.T) {
	e := newEnv(t, 1)
	f := e.seed(t, "600000")

	_, err := e.svc.SubmitRTGS(context.Background(), f.authz, interfaces.EFTSubmitRequest{
		SourceAccountNumber: "100000000001",
		BeneficiaryID:       f.beneficiary.ID,
		Amount:              dec(t, "250000"),
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeExternalFailure, models.CodeOf(err))

	// The refund restored both balances.
	posted, available := e.balance(t, "100000000001")
	assert.Equal(t, "600000", posted)
	assert.Equal(t, "600000", available)
}

func TestGetStatusOwnerOnly(t *testing.T) {
	e := newEnv(t, 0)
	f := e.seed(t, "50000")

	eft, err := e.svc.SubmitNEFT(context.Background(), f.authz, interfaces.EFTSubmitRequest{
		SourceAccountNumber: "100000000001",
		BeneficiaryID:       f.beneficiary.ID,
		Amount:              dec(t, "5000"),
	})
	require.NoError(t, err)

	otherCustomer := int64(999)
	stranger := &models.AuthzContext{
		User: &models.User{
			ID:         9,
			Username:   "mallory",
			Status:     models.UserActive,
			CustomerID: &otherCustomer,
		},
		Permissions: models.NewPermissionSet([]string{models.RoleCustomer}, models.RolePermissions),
	}
	_, err = e.svc.GetStatus(context.Background(), stranger, eft.EFTReference)
	require.Error(t, err)
	assert.Equal(t, models.CodeForbidden, models.CodeOf(err))

	staff := &models.AuthzContext{
		User:        &models.User{ID: 1, Username: "admin", Status: models.UserActive},
		Permissions: models.NewPermissionSet([]string{models.RoleAdmin}, models.RolePermissions),
	}
	got, err := e.svc.GetStatus(context.Background(), staff, eft.EFTReference)
	require.NoError(t, err)
	assert.Equal(t, eft.EFTReference, got.EFTReference)
}
