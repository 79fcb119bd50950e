package payment

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
	"github.com/bobmcallan/corebank/internal/services/ledger"
	"github.com/bobmcallan/corebank/internal/storage/sqlite"
)

type env struct {
	store *sqlite.Store
	svc   *Service
	clock *common.FixedClock
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := common.NewSilentLogger()
	store, err := sqlite.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := &common.FixedClock{Current: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)}
	ledgerSvc := ledger.NewService(store, clock, logger, common.NewDefaultConfig())
	svc := NewService(store, ledgerSvc, clock, logger)
	return &env{store: store, svc: svc, clock: clock}
}

type party struct {
	customer *models.Customer
	account  *models.Account
	authz    *models.AuthzContext
}

func (e *env) seedParty(t *testing.T, userID int64, name, accountNumber, balance string) *party {
	t.Helper()
	ctx := context.Background()
	now := e.clock.Now().UTC()

	customer := &models.Customer{
		CustomerNumber: "CUS-" + name,
		FirstName:      name,
		LastName:       "Test",
		Email:          name + "@example.com",
		Mobile:         "9000000001",
		NationalID:     "NID-" + name,
		Status:         models.CustomerActive,
		CreatedAt:      now,
		ModifiedAt:     now,
	}
	require.NoError(t, e.store.Customers().Create(ctx, customer))

	bal, err := decimal.NewFromString(balance)
	require.NoError(t, err)
	account := &models.Account{
		AccountNumber:    accountNumber,
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

	return &party{
		customer: customer,
		account:  account,
		authz: &models.AuthzContext{
			User: &models.User{
				ID:         userID,
				Username:   name,
				Status:     models.UserActive,
				CustomerID: &customer.ID,
			},
			Permissions: models.NewPermissionSet([]string{models.RoleCustomer}, models.RolePermissions),
		},
	}
}

func (e *env) balance(t *testing.T, number string) string {
	t.Helper()
	acct, err := e.store.Accounts().GetByNumber(context.Background(), number)
	require.NoError(t, err)
	return acct.Balance.String()
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestSendMovesMoney(t *testing.T) {
	e := newEnv(t)
	asha := e.seedParty(t, 2, "asha", "100000000001", "5000")
	ravi := e.seedParty(t, 3, "ravi", "100000000002", "1000")

	debit, credit, err := e.svc.Send(context.Background(), asha.authz,
		asha.account.AccountNumber, ravi.account.AccountNumber, dec(t, "750"), "lunch")
	require.NoError(t, err)

	assert.Equal(t, debit.ExternalReference, credit.ExternalReference)
	assert.Equal(t, "PAYMENT", debit.Category)
	assert.Equal(t, "4250", e.balance(t, asha.account.AccountNumber))
	assert.Equal(t, "1750", e.balance(t, ravi.account.AccountNumber))
}

func TestSendRequiresOwnership(t *testing.T) {
	e := newEnv(t)
	asha := e.seedParty(t, 2, "asha", "100000000001", "5000")
	ravi := e.seedParty(t, 3, "ravi", "100000000002", "1000")

	_, _, err := e.svc.Send(context.Background(), ravi.authz,
		asha.account.AccountNumber, ravi.account.AccountNumber, dec(t, "750"), "")
	require.Error(t, err)
	assert.Equal(t, models.CodeForbidden, models.CodeOf(err))
}

func TestQRRequestLifecycle(t *testing.T) {
	e := newEnv(t)
	asha := e.seedParty(t, 2, "asha", "100000000001", "5000")
	ravi := e.seedParty(t, 3, "ravi", "100000000002", "1000")

	qr, err := e.svc.CreateQRRequest(context.Background(), ravi.authz, interfaces.QRCreateRequest{
		ReceiverAccountNumber: ravi.account.AccountNumber,
		Amount:                dec(t, "300"),
		Description:           "chai",
	})
	require.NoError(t, err)
	assert.Equal(t, models.QRActive, qr.Status)
	assert.NotEmpty(t, qr.RequestID)
	assert.True(t, qr.ExpiresAt.After(e.clock.Now().UTC()))

	paid, err := e.svc.PayQRRequest(context.Background(), asha.authz, qr.RequestID, asha.account.AccountNumber)
	require.NoError(t, err)
	assert.Equal(t, models.QRPaid, paid.Status)
	assert.Equal(t, "asha", paid.PaidBy)
	require.NotNil(t, paid.PaidAt)
	require.NotNil(t, paid.DebitTransactionID)
	require.NotNil(t, paid.CreditTransactionID)

	assert.Equal(t, "4700", e.balance(t, asha.account.AccountNumber))
	assert.Equal(t, "1300", e.balance(t, ravi.account.AccountNumber))

	// The linked legs are a regular paired transfer.
	debit, err := e.store.Transactions().GetByID(context.Background(), *paid.DebitTransactionID)
	require.NoError(t, err)
	credit, err := e.store.Transactions().GetByID(context.Background(), *paid.CreditTransactionID)
	require.NoError(t, err)
	assert.Equal(t, debit.ExternalReference, credit.ExternalReference)
	assert.Equal(t, "QR_PAYMENT", debit.Category)
}

func TestQRRequestIsOneShot(t *testing.T) {
	e := newEnv(t)
	asha := e.seedParty(t, 2, "asha", "100000000001", "5000")
	ravi := e.seedParty(t, 3, "ravi", "100000000002", "1000")

	qr, err := e.svc.CreateQRRequest(context.Background(), ravi.authz, interfaces.QRCreateRequest{
		ReceiverAccountNumber: ravi.account.AccountNumber,
		Amount:                dec(t, "300"),
	})
	require.NoError(t, err)

	_, err = e.svc.PayQRRequest(context.Background(), asha.authz, qr.RequestID, asha.account.AccountNumber)
	require.NoError(t, err)

	_, err = e.svc.PayQRRequest(context.Background(), asha.authz, qr.RequestID, asha.account.AccountNumber)
	require.Error(t, err)
	assert.Equal(t, models.CodeConflict, models.CodeOf(err))

	// Only one payment landed.
	assert.Equal(t, "4700", e.balance(t, asha.account.AccountNumber))
}

func TestQRRequestExpiry(t *testing.T) {
	e := newEnv(t)
	asha := e.seedParty(t, 2, "asha", "100000000001", "5000")
	ravi := e.seedParty(t, 3, "ravi", "100000000002", "1000")

	qr, err := e.svc.CreateQRRequest(context.Background(), ravi.authz, interfaces.QRCreateRequest{
		ReceiverAccountNumber: ravi.account.AccountNumber,
		Amount:                dec(t, "300"),
		ExpiresIn:             time.Minute,
	})
	require.NoError(t, err)

	e.clock.Advance(2 * time.Minute)

	// A read reports the expiry before any sweep runs.
	got, err := e.svc.GetQRRequest(context.Background(), asha.authz, qr.RequestID)
	require.NoError(t, err)
	assert.Equal(t, models.QRExpired, got.Status)

	_, err = e.svc.PayQRRequest(context.Background(), asha.authz, qr.RequestID, asha.account.AccountNumber)
	require.Error(t, err)
	assert.Equal(t, models.CodeConflict, models.CodeOf(err))
	assert.Equal(t, "5000", e.balance(t, asha.account.AccountNumber))
}

func TestExpireQRRequestsSweep(t *testing.T) {
	e := newEnv(t)
	ravi := e.seedParty(t, 3, "ravi", "100000000002", "1000")

	_, err := e.svc.CreateQRRequest(context.Background(), ravi.authz, interfaces.QRCreateRequest{
		ReceiverAccountNumber: ravi.account.AccountNumber,
		Amount:                dec(t, "300"),
		ExpiresIn:             time.Minute,
	})
	require.NoError(t, err)

	n, err := e.svc.ExpireQRRequests(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	e.clock.Advance(2 * time.Minute)
	n, err = e.svc.ExpireQRRequests(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUPILifecycle(t *testing.T) {
	e := newEnv(t)
	asha := e.seedParty(t, 2, "asha", "100000000001", "5000")
	ravi := e.seedParty(t, 3, "ravi", "100000000002", "1000")

	addr, err := e.svc.RegisterUPI(context.Background(), ravi.authz, "Ravi@corebank", ravi.account.AccountNumber)
	require.NoError(t, err)
	// Aliases are normalized to lower case.
	assert.Equal(t, "ravi@corebank", addr.UPIID)
	assert.Equal(t, models.UPIActive, addr.Status)

	debit, credit, err := e.svc.PayToUPI(context.Background(), asha.authz,
		"ravi@corebank", asha.account.AccountNumber, dec(t, "400"), "")
	require.NoError(t, err)
	assert.Equal(t, "UPI_PAYMENT", debit.Category)
	assert.Equal(t, debit.ExternalReference, credit.ExternalReference)
	assert.Equal(t, "1400", e.balance(t, ravi.account.AccountNumber))

	require.NoError(t, e.svc.DeactivateUPI(context.Background(), ravi.authz, "ravi@corebank"))

	// Paying a deactivated alias fails; the row survives.
	_, _, err = e.svc.PayToUPI(context.Background(), asha.authz,
		"ravi@corebank", asha.account.AccountNumber, dec(t, "100"), "")
	require.Error(t, err)
	assert.Equal(t, models.CodeConflict, models.CodeOf(err))

	list, err := e.svc.ListUPI(context.Background(), ravi.authz)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.UPIInactive, list[0].Status)
}

func TestRegisterUPIValidation(t *testing.T) {
	e := newEnv(t)
	ravi := e.seedParty(t, 3, "ravi", "100000000002", "1000")

	for _, alias := range []string{"no-handle", "@corebank", "x@y", "spaces in@here"} {
		_, err := e.svc.RegisterUPI(context.Background(), ravi.authz, alias, ravi.account.AccountNumber)
		require.Error(t, err, "alias %q", alias)
		assert.Equal(t, models.CodeValidation, models.CodeOf(err))
	}
}

func TestRegisterUPIAliasUnique(t *testing.T) {
	e := newEnv(t)
	asha := e.seedParty(t, 2, "asha", "100000000001", "5000")
	ravi := e.seedParty(t, 3, "ravi", "100000000002", "1000")

	_, err := e.svc.RegisterUPI(context.Background(), ravi.authz, "pay@corebank", ravi.account.AccountNumber)
	require.NoError(t, err)

	_, err = e.svc.RegisterUPI(context.Background(), asha.authz, "pay@corebank", asha.account.AccountNumber)
	require.Error(t, err)
	assert.Equal(t, models.CodeConflict, models.CodeOf(err))
}

func TestRegisterUPIRequiresOwnership(t *testing.T) {
	e := newEnv(t)
	asha := e.seedParty(t, 2, "asha", "100000000001", "5000")
	ravi := e.seedParty(t, 3, "ravi", "100000000002", "1000")

	_, err := e.svc.RegisterUPI(context.Background(), ravi.authz, "steal@corebank", asha.account.AccountNumber)
	require.Error(t, err)
	assert.Equal(t, models.CodeForbidden, models.CodeOf(err))
}
