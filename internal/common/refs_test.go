package common

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedClock(t *testing.T) {
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	clock := &FixedClock{Current: start}

	assert.Equal(t, start, clock.Now())
	clock.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), clock.Now())
}

func TestReferencePrefixes(t *testing.T) {
	clock := &FixedClock{Current: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)}

	assert.True(t, strings.HasPrefix(NewTransactionReference(clock), "TXN"))
	assert.True(t, strings.HasPrefix(NewEFTReference(), "EFT"))
	assert.True(t, strings.HasPrefix(NewExternalReference(), "XFR"))
	assert.True(t, strings.HasPrefix(NewQRRequestID(), "QR"))
	assert.True(t, strings.HasPrefix(NewBulkBatchID(clock), "BULK20250602100000"))
}

func TestReferencesAreUnique(t *testing.T) {
	clock := &FixedClock{Current: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := NewTransactionReference(clock)
		require.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestNEFTBatchID(t *testing.T) {
	at := time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, "NEFT2025060211", NEFTBatchID(at))

	at = time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "NEFT2025123108", NEFTBatchID(at))
}

func TestCustomerAndAccountNumbers(t *testing.T) {
	customer := NewCustomerNumber()
	require.Len(t, customer, 11)
	assert.True(t, strings.HasPrefix(customer, "CUS"))

	account := NewAccountNumber()
	require.Len(t, account, 12)
	assert.NotEqual(t, byte('0'), account[0])
	for i := 0; i < len(account); i++ {
		assert.True(t, account[i] >= '0' && account[i] <= '9')
	}
}
