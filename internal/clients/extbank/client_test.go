package extbank

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
)

func transferRequest() interfaces.ExternalTransferRequest {
	return interfaces.ExternalTransferRequest{
		Reference:       "EFTTEST00000000000001",
		BeneficiaryName: "Ravi Kumar",
		BeneficiaryACNo: "500100200300",
		BeneficiaryIFSC: "HDFC0001234",
		Amount:          decimal.NewFromInt(5000),
		Currency:        "INR",
	}
}

func TestTransferAlwaysSucceeds(t *testing.T) {
	c := NewClientWithSeed(common.NewSilentLogger(), 0, 1)

	ref, err := c.Transfer(context.Background(), transferRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, ref)
}

func TestTransferAlwaysFails(t *testing.T) {
	c := NewClientWithSeed(common.NewSilentLogger(), 1, 1)

	_, err := c.Transfer(context.Background(), transferRequest())
	require.Error(t, err)
	assert.Equal(t, models.CodeExternalFailure, models.CodeOf(err))
}

func TestTransferCancelledContext(t *testing.T) {
	c := NewClientWithSeed(common.NewSilentLogger(), 0, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Transfer(ctx, transferRequest())
	require.Error(t, err)
	assert.Equal(t, models.CodeExternalFailure, models.CodeOf(err))
}
