package memory

import (
	portsrepo "github.com/SscSPs/vault_ledger/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every repository port to store.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:   store,
		AccountRepo: &accountRepository{store: store},
		LedgerRepo:  &ledgerRepository{store: store},
		FXRateRepo:  &fxRateRepository{store: store},
		VaultRepo:   &vaultRepository{store: store},
	}
}
