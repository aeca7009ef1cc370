package pgsql

import (
	portsrepo "github.com/SscSPs/vault_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:   &TxManager{BaseRepository: BaseRepository{Pool: dbPool}},
		AccountRepo: newPgxAccountRepository(dbPool),
		LedgerRepo:  newPgxLedgerRepository(dbPool),
		FXRateRepo:  newPgxFXRateRepository(dbPool),
		VaultRepo:   newPgxVaultRepository(dbPool),
	}
}
