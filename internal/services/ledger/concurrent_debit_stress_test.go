package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
)

// ============================================================================
// Concurrent balance mutation
// ============================================================================

func TestLedgerStress_ConcurrentDebitsHoldFloor(t *testing.T) {
	// 40 goroutines race to debit 500 from an account holding 10000
	// with a 1000 minimum. Only 18 debits fit; no interleaving may
	// drive the balance below the floor or lose a journal row.
	e := newEnv(t)
	c := e.seedCustomer(t, "CUS00000001")
	e.seedAccount(t, c.ID, "100000000001", "10000", "1000")
	authz := staffAuthz("teller1")

	const goroutines = 40
	amount := mustDec(t, "500")
	var wg sync.WaitGroup
	errCh := make(chan error, goroutines)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.svc.Debit(context.Background(), authz, interfaces.LedgerRequest{
				AccountNumber: "100000000001",
				Amount:        amount,
				Category:      "WITHDRAWAL",
				Description:   "stress debit",
			})
			if err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)

	failures := 0
	for err := range errCh {
		failures++
		code := models.CodeOf(err)
		assert.Contains(t, []models.ErrorCode{
			models.CodeInsufficientFunds,
			models.CodeMinBalanceBreach,
		}, code, "unexpected failure: %v", err)
	}
	successes := goroutines - failures
	assert.Equal(t, 18, successes)

	acct := e.reload(t, "100000000001")
	assert.Equal(t, "1000", acct.Balance.String())
	assert.Equal(t, "1000", acct.AvailableBalance.String())
	assert.True(t, acct.Balance.GreaterThanOrEqual(acct.MinimumBalance))

	// Every committed debit left exactly one completed journal row.
	txns, err := e.store.Transactions().ListByAccount(context.Background(), acct.ID, models.JournalQuery{Limit: goroutines})
	require.NoError(t, err)
	completed := 0
	for _, txn := range txns {
		require.Equal(t, models.TxnCompleted, txn.Status)
		completed++
	}
	assert.Equal(t, successes, completed)
}

func TestLedgerStress_ConcurrentTransfersConserveTotal(t *testing.T) {
	// Goroutines shuttle 100 back and forth between two accounts.
	// Whatever the interleaving, the two balances must sum to the
	// seeded total and the journal legs must stay paired.
	e := newEnv(t)
	c := e.seedCustomer(t, "CUS00000001")
	a := e.seedAccount(t, c.ID, "100000000001", "5000", "0")
	b := e.seedAccount(t, c.ID, "100000000002", "5000", "0")
	authz := customerAuthz(2, c.ID, "asha")

	const perDirection = 10
	amount := mustDec(t, "100")
	var wg sync.WaitGroup
	errCh := make(chan error, 2*perDirection)

	send := func(from, to string) {
		defer wg.Done()
		_, _, err := e.svc.Transfer(context.Background(), authz, from, to, amount, "stress transfer")
		if err != nil {
			errCh <- err
		}
	}
	for i := 0; i < perDirection; i++ {
		wg.Add(2)
		go send("100000000001", "100000000002")
		go send("100000000002", "100000000001")
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Errorf("transfer failed: %v", err)
	}

	aAfter := e.reload(t, "100000000001")
	bAfter := e.reload(t, "100000000002")
	total := aAfter.Balance.Add(bAfter.Balance)
	assert.Equal(t, "10000", total.String())
	assert.Equal(t, "10000", aAfter.AvailableBalance.Add(bAfter.AvailableBalance).String())
	assert.False(t, aAfter.Balance.IsNegative())
	assert.False(t, bAfter.Balance.IsNegative())

	// Equal and opposite legs: each account saw perDirection outgoing
	// and perDirection incoming transfer rows, all terminal and paired.
	for _, acct := range []int64{a.ID, b.ID} {
		txns, err := e.store.Transactions().ListByAccount(context.Background(), acct, models.JournalQuery{Limit: 4 * perDirection})
		require.NoError(t, err)
		require.Len(t, txns, 2*perDirection)
		outgoing, incoming := 0, 0
		for _, txn := range txns {
			require.Equal(t, models.TxnCompleted, txn.Status)
			require.Equal(t, models.TxnTransfer, txn.Type)
			require.NotEmpty(t, txn.ExternalReference)
			if txn.BalanceAfter.LessThan(txn.BalanceBefore) {
				outgoing++
			} else {
				incoming++
			}
		}
		assert.Equal(t, perDirection, outgoing)
		assert.Equal(t, perDirection, incoming)
	}
}
