package services

import (
	portsrepo "github.com/SscSPs/vault_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/vault_ledger/internal/core/ports/services"
	"github.com/SscSPs/vault_ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// opts are applied to every service.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, opts ...ServiceOption) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Leaf services first: rates and accounts have no service dependencies.
	container.FXRate = NewFXRateService(repos.TxManager, repos.FXRateRepo, cfg.SystemBaseCurrency, cfg.FXCacheTTL, opts...)
	container.Account = NewAccountService(repos.AccountRepo, repos.LedgerRepo, opts...)

	ledger := newLedgerService(repos.TxManager, repos.LedgerRepo, repos.AccountRepo, container.FXRate, opts...)
	vault := newVaultService(
		repos.TxManager,
		repos.VaultRepo,
		repos.LedgerRepo,
		container.Account,
		ledger,
		container.FXRate,
		opts...,
	)
	// Reversed vault movements must restore the positions they changed.
	ledger.onReversal(vault)
	container.Ledger = ledger
	container.Vault = vault
	container.Revaluation = NewRevaluationService(
		repos.TxManager,
		repos.VaultRepo,
		repos.LedgerRepo,
		container.FXRate,
		cfg.RevaluationWorkers,
		opts...,
	)
	container.Reporting = NewReportingService(repos.AccountRepo, repos.LedgerRepo, opts...)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade = (*accountService)(nil)
	_ portssvc.FXRateSvcFacade  = (*fxRateService)(nil)
	_ portssvc.LedgerSvcFacade  = (*ledgerService)(nil)
	_ portssvc.VaultSvcFacade   = (*vaultService)(nil)
	_ portssvc.RevaluationSvc   = (*revaluationService)(nil)
	_ portssvc.ReversalHook     = (*vaultService)(nil)
	_ portssvc.ReportingSvc     = (*reportingService)(nil)
)
