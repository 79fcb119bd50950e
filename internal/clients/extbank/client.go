// Package extbank is the settlement adapter for the external leg of an
// EFT. The shipped implementation simulates a partner rail: it fails a
// configurable fraction of transfers so the compensation paths stay
// exercised outside production.
package extbank

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
)

// Client simulates the partner bank integration.
type Client struct {
	logger      *common.Logger
	failureRate float64
	timeout     time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

var _ interfaces.ExternalBankClient = (*Client)(nil)

// NewClient creates a simulator from the external adapter config.
func NewClient(logger *common.Logger, cfg common.ExternalConfig) *Client {
	return &Client{
		logger:      logger,
		failureRate: cfg.FailureRate,
		timeout:     cfg.GetTimeout(),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewClientWithSeed creates a simulator with a deterministic outcome
// sequence, for tests.
func NewClientWithSeed(logger *common.Logger, failureRate float64, seed int64) *Client {
	return &Client{
		logger:      logger,
		failureRate: failureRate,
		timeout:     10 * time.Second,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Transfer settles one external leg, returning the partner reference.
func (c *Client) Transfer(ctx context.Context, req interfaces.ExternalTransferRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return "", models.WrapError(models.CodeExternalFailure, err, "external transfer aborted")
	}

	c.mu.Lock()
	failed := c.rng.Float64() < c.failureRate
	c.mu.Unlock()

	if failed {
		c.logger.Warn().
			Str("reference", req.Reference).
			Str("beneficiary_ifsc", req.BeneficiaryIFSC).
			Msg("External transfer rejected by partner")
		return "", models.NewError(models.CodeExternalFailure,
			"transfer %s rejected by beneficiary bank", req.Reference)
	}

	partnerRef := common.NewExternalReference()
	c.logger.Debug().
		Str("reference", req.Reference).
		Str("partner_reference", partnerRef).
		Str("amount", req.Amount.String()).
		Msg("External transfer settled")
	return partnerRef, nil
}
