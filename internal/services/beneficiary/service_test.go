package beneficiary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/corebank/internal/clients/ifsc"
	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
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
	svc := NewService(store, ifsc.NewClient(logger), clock, logger)
	return &env{store: store, svc: svc, clock: clock}
}

func (e *env) seedCustomer(t *testing.T, number string) *models.Customer {
	t.Helper()
	now := e.clock.Now().UTC()
	customer := &models.Customer{
		CustomerNumber: number,
		FirstName:      "Asha",
		LastName:       "Rao",
		Email:          number + "@example.com",
		Mobile:         "9000000001",
		NationalID:     "NID-" + number,
		Status:         models.CustomerActive,
		CreatedAt:      now,
		ModifiedAt:     now,
	}
	require.NoError(t, e.store.Customers().Create(context.Background(), customer))
	return customer
}

func ownerAuthz(userID, customerID int64, username string) *models.AuthzContext {
	return &models.AuthzContext{
		User: &models.User{
			ID:         userID,
			Username:   username,
			Status:     models.UserActive,
			CustomerID: &customerID,
		},
		Permissions: models.NewPermissionSet([]string{models.RoleCustomer}, models.RolePermissions),
	}
}

func adminAuthz() *models.AuthzContext {
	return &models.AuthzContext{
		User:        &models.User{ID: 1, Username: "admin", Status: models.UserActive},
		Permissions: models.NewPermissionSet([]string{models.RoleAdmin}, models.RolePermissions),
	}
}

func payeeRequest() interfaces.BeneficiaryRequest {
	return interfaces.BeneficiaryRequest{
		Name:          "Ravi Kumar",
		AccountNumber: "500100200300",
		IFSCCode:      "hdfc0001234",
	}
}

func TestAddStartsPendingVerification(t *testing.T) {
	e := newEnv(t)
	c := e.seedCustomer(t, "CUS00000001")
	owner := ownerAuthz(2, c.ID, "asha")

	ben, err := e.svc.Add(context.Background(), owner, payeeRequest())
	require.NoError(t, err)

	assert.Equal(t, models.BeneficiaryPendingVerification, ben.Status)
	assert.False(t, ben.IsVerified)
	// IFSC is normalized and the bank name resolved from the directory.
	assert.Equal(t, "HDFC0001234", ben.IFSCCode)
	assert.Equal(t, "HDFC Bank", ben.BankName)
}

func TestAddInvalidIFSC(t *testing.T) {
	e := newEnv(t)
	c := e.seedCustomer(t, "CUS00000001")
	owner := ownerAuthz(2, c.ID, "asha")

	req := payeeRequest()
	req.IFSCCode = "NOTANIFSC"
	_, err := e.svc.Add(context.Background(), owner, req)
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.CodeOf(err))
}

func TestAddDuplicateRejected(t *testing.T) {
	e := newEnv(t)
	c := e.seedCustomer(t, "CUS00000001")
	owner := ownerAuthz(2, c.ID, "asha")

	_, err := e.svc.Add(context.Background(), owner, payeeRequest())
	require.NoError(t, err)

	_, err = e.svc.Add(context.Background(), owner, payeeRequest())
	require.Error(t, err)
	assert.Equal(t, models.CodeConflict, models.CodeOf(err))
}

func TestAddDuplicateAllowedAfterDelete(t *testing.T) {
	e := newEnv(t)
	c := e.seedCustomer(t, "CUS00000001")
	owner := ownerAuthz(2, c.ID, "asha")

	ben, err := e.svc.Add(context.Background(), owner, payeeRequest())
	require.NoError(t, err)
	require.NoError(t, e.svc.Delete(context.Background(), owner, ben.ID))

	// INACTIVE rows do not count toward the uniqueness key.
	_, err = e.svc.Add(context.Background(), owner, payeeRequest())
	require.NoError(t, err)
}

func TestApproveActivates(t *testing.T) {
	e := newEnv(t)
	c := e.seedCustomer(t, "CUS00000001")
	owner := ownerAuthz(2, c.ID, "asha")

	ben, err := e.svc.Add(context.Background(), owner, payeeRequest())
	require.NoError(t, err)

	approved, err := e.svc.Approve(context.Background(), adminAuthz(), ben.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BeneficiaryActive, approved.Status)
	assert.True(t, approved.IsVerified)
	assert.Equal(t, "admin", approved.VerifiedBy)
	require.NotNil(t, approved.VerifiedAt)
}

func TestRejectBlocks(t *testing.T) {
	e := newEnv(t)
	c := e.seedCustomer(t, "CUS00000001")
	owner := ownerAuthz(2, c.ID, "asha")

	ben, err := e.svc.Add(context.Background(), owner, payeeRequest())
	require.NoError(t, err)

	rejected, err := e.svc.Reject(context.Background(), adminAuthz(), ben.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BeneficiaryBlocked, rejected.Status)
	assert.False(t, rejected.IsVerified)
}

func TestVerifyRequiresStaff(t *testing.T) {
	e := newEnv(t)
	c := e.seedCustomer(t, "CUS00000001")
	owner := ownerAuthz(2, c.ID, "asha")

	ben, err := e.svc.Add(context.Background(), owner, payeeRequest())
	require.NoError(t, err)

	// The owner cannot verify their own payee.
	_, err = e.svc.Approve(context.Background(), owner, ben.ID)
	require.Error(t, err)
	assert.Equal(t, models.CodeForbidden, models.CodeOf(err))
}

func TestUpdateResetsVerification(t *testing.T) {
	e := newEnv(t)
	c := e.seedCustomer(t, "CUS00000001")
	owner := ownerAuthz(2, c.ID, "asha")

	ben, err := e.svc.Add(context.Background(), owner, payeeRequest())
	require.NoError(t, err)
	_, err = e.svc.Approve(context.Background(), adminAuthz(), ben.ID)
	require.NoError(t, err)

	req := payeeRequest()
	req.AccountNumber = "500100200399"
	updated, err := e.svc.Update(context.Background(), owner, ben.ID, req)
	require.NoError(t, err)

	assert.Equal(t, models.BeneficiaryPendingVerification, updated.Status)
	assert.False(t, updated.IsVerified)
	assert.Empty(t, updated.VerifiedBy)
	assert.Nil(t, updated.VerifiedAt)
	assert.Equal(t, "500100200399", updated.AccountNumber)
}

func TestUpdateNotOwnerForbidden(t *testing.T) {
	e := newEnv(t)
	c1 := e.seedCustomer(t, "CUS00000001")
	c2 := e.seedCustomer(t, "CUS00000002")

	ben, err := e.svc.Add(context.Background(), ownerAuthz(2, c1.ID, "asha"), payeeRequest())
	require.NoError(t, err)

	_, err = e.svc.Update(context.Background(), ownerAuthz(3, c2.ID, "ravi"), ben.ID, payeeRequest())
	require.Error(t, err)
	assert.Equal(t, models.CodeForbidden, models.CodeOf(err))
}

func TestDeleteSoft(t *testing.T) {
	e := newEnv(t)
	c := e.seedCustomer(t, "CUS00000001")
	owner := ownerAuthz(2, c.ID, "asha")

	ben, err := e.svc.Add(context.Background(), owner, payeeRequest())
	require.NoError(t, err)
	require.NoError(t, e.svc.Delete(context.Background(), owner, ben.ID))

	// The row survives but stops appearing in default listings.
	got, err := e.svc.Get(context.Background(), owner, ben.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BeneficiaryInactive, got.Status)

	list, err := e.svc.List(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteBlockedBeneficiary(t *testing.T) {
	e := newEnv(t)
	c := e.seedCustomer(t, "CUS00000001")
	owner := ownerAuthz(2, c.ID, "asha")

	ben, err := e.svc.Add(context.Background(), owner, payeeRequest())
	require.NoError(t, err)
	_, err = e.svc.Block(context.Background(), adminAuthz(), ben.ID)
	require.NoError(t, err)

	// BLOCKED can still be retired, but not edited.
	_, err = e.svc.Update(context.Background(), owner, ben.ID, payeeRequest())
	require.Error(t, err)
	assert.Equal(t, models.CodeInvalidBeneficiaryState, models.CodeOf(err))

	require.NoError(t, e.svc.Delete(context.Background(), owner, ben.ID))
}

func TestListScopedToOwner(t *testing.T) {
	e := newEnv(t)
	c1 := e.seedCustomer(t, "CUS00000001")
	c2 := e.seedCustomer(t, "CUS00000002")

	_, err := e.svc.Add(context.Background(), ownerAuthz(2, c1.ID, "asha"), payeeRequest())
	require.NoError(t, err)

	list, err := e.svc.List(context.Background(), ownerAuthz(3, c2.ID, "ravi"))
	require.NoError(t, err)
	assert.Empty(t, list)
}
