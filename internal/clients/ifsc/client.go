// Package ifsc resolves bank-branch identifiers. The shipped directory
// is static; deployments with a live lookup swap the client behind the
// interface.
package ifsc

import (
	"context"
	"regexp"
	"strings"

	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
)

// IFSC format: four bank letters, a reserved zero, six branch characters.
var ifscPattern = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

// bankNames maps the four-letter bank prefix to its display name.
var bankNames = map[string]string{
	"SBIN": "State Bank of India",
	"HDFC": "HDFC Bank",
	"ICIC": "ICICI Bank",
	"UTIB": "Axis Bank",
	"PUNB": "Punjab National Bank",
	"KKBK": "Kotak Mahindra Bank",
	"YESB": "Yes Bank",
	"IDIB": "Indian Bank",
	"CNRB": "Canara Bank",
	"BARB": "Bank of Baroda",
	"UBIN": "Union Bank of India",
	"IOBA": "Indian Overseas Bank",
}

// Client validates IFSC codes against the embedded directory.
type Client struct {
	logger *common.Logger
}

var _ interfaces.IFSCClient = (*Client)(nil)

// NewClient creates an IFSC directory client.
func NewClient(logger *common.Logger) *Client {
	return &Client{logger: logger}
}

// Validate checks the code format and resolves the owning bank. Unknown
// bank prefixes fail validation so transfers cannot target a bank the
// partner rail does not route to.
func (c *Client) Validate(ctx context.Context, code string) (*interfaces.BankBranch, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !ifscPattern.MatchString(code) {
		return nil, models.ErrValidation("invalid IFSC code format: %s", code)
	}
	bank, ok := bankNames[code[:4]]
	if !ok {
		return nil, models.ErrValidation("unknown bank code: %s", code[:4])
	}
	return &interfaces.BankBranch{
		IFSC:       code,
		BankName:   bank,
		BranchName: "Branch " + code[5:],
	}, nil
}
