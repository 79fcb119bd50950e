// Package app wires configuration, storage, clients and services into
// one shared core used by cmd/corebank-server.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bobmcallan/corebank/internal/clients/extbank"
	"github.com/bobmcallan/corebank/internal/clients/ifsc"
	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/services/beneficiary"
	"github.com/bobmcallan/corebank/internal/services/eft"
	"github.com/bobmcallan/corebank/internal/services/identity"
	"github.com/bobmcallan/corebank/internal/services/ledger"
	"github.com/bobmcallan/corebank/internal/services/payment"
	"github.com/bobmcallan/corebank/internal/storage/sqlite"
)

// App holds all initialized services and storage.
type App struct {
	Config             *common.Config
	Logger             *common.Logger
	Store              interfaces.Store
	Clock              common.Clock
	LedgerService      interfaces.LedgerService
	IdentityService    interfaces.IdentityService
	BeneficiaryService interfaces.BeneficiaryService
	EFTService         interfaces.EFTService
	PaymentService     interfaces.PaymentService
	StartupTime        time.Time

	schedulerCancel context.CancelFunc
}

// NewApp initializes storage, clients and services.
// configPath may be empty, in which case COREBANK_CONFIG and the
// default path are tried in order.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	if configPath == "" {
		configPath = os.Getenv("COREBANK_CONFIG")
	}
	if configPath == "" {
		configPath = "config/corebank.toml"
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	store, err := sqlite.Open(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	clock := common.SystemClock{}

	ifscClient := ifsc.NewClient(logger)
	externalClient := extbank.NewClient(logger, config.External)

	ledgerService := ledger.NewService(store, clock, logger, config)
	identityService := identity.NewService(store, ledgerService, identity.NewBcryptHasher(), clock, logger, config)
	beneficiaryService := beneficiary.NewService(store, ifscClient, clock, logger)
	eftService := eft.NewService(store, ledgerService, externalClient, clock, logger, config)
	paymentService := payment.NewService(store, ledgerService, clock, logger)

	a := &App{
		Config:             config,
		Logger:             logger,
		Store:              store,
		Clock:              clock,
		LedgerService:      ledgerService,
		IdentityService:    identityService,
		BeneficiaryService: beneficiaryService,
		EFTService:         eftService,
		PaymentService:     paymentService,
		StartupTime:        startupStart,
	}

	if err := a.seed(context.Background()); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to seed baseline data: %w", err)
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.Store != nil {
		a.Store.Close()
		a.Store = nil
	}
}

// StartScheduler launches the background NEFT batch tick and the QR
// expiry sweep.
func (a *App) StartScheduler() {
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	go runScheduler(ctx, a.EFTService, a.PaymentService, a.Clock, a.Logger)
}
