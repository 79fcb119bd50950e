package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts "now" so the engines and their tests can control time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock is a Clock pinned to a settable instant, for tests.
type FixedClock struct {
	Current time.Time
}

// Now returns the pinned instant.
func (c *FixedClock) Now() time.Time { return c.Current }

// Advance moves the pinned instant forward.
func (c *FixedClock) Advance(d time.Duration) { c.Current = c.Current.Add(d) }

// randomHex returns n random bytes hex-encoded.
func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return strings.Repeat("0", n*2)
	}
	return hex.EncodeToString(b)
}

// NewTransactionReference mints a globally unique journal reference:
// "TXN" + monotonic nanos + 8 hex chars.
func NewTransactionReference(clock Clock) string {
	return fmt.Sprintf("TXN%d%s", clock.Now().UnixNano(), randomHex(4))
}

// NewEFTReference mints an opaque unique EFT reference.
func NewEFTReference() string {
	return "EFT" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:20])
}

// NewExternalReference mints the shared reference linking paired
// transfer legs.
func NewExternalReference() string {
	return "XFR" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:20])
}

// NEFTBatchID derives the batch identifier for the batch hour:
// "NEFT" + YYYYMMDDHH.
func NEFTBatchID(batchTime time.Time) string {
	return "NEFT" + batchTime.Format("2006010215")
}

// NewCustomerNumber mints an assigned customer number: "CUS" + 8 digits.
func NewCustomerNumber() string {
	return "CUS" + randomDigits(8)
}

// NewAccountNumber mints a 12-digit account number.
func NewAccountNumber() string {
	return randomDigits(12)
}

// NewQRRequestID mints a QR payment request identifier.
func NewQRRequestID() string {
	return "QR" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:16])
}

// NewBulkBatchID mints a bulk upload batch identifier.
func NewBulkBatchID(clock Clock) string {
	return "BULK" + clock.Now().Format("20060102150405") + randomHex(3)
}

// randomDigits returns n uniformly random decimal digits with no
// leading-zero restriction on the first digit.
func randomDigits(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			sb.WriteByte('0')
			continue
		}
		d := byte('0' + v.Int64())
		if i == 0 && d == '0' {
			d = '9'
		}
		sb.WriteByte(d)
	}
	return sb.String()
}
