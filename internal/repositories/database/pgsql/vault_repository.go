package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/vault_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/vault_ledger/internal/models"
	"github.com/SscSPs/vault_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const vaultColumns = `vault_id, name, owner_type, owner_id, base_currency, multi_currency, auto_revaluation,
	is_locked, lock_reason, root_account_id, external_in_account_id, external_out_account_id,
	realized_fx_account_id, created_at, created_by, last_updated_at, last_updated_by`

const positionColumns = `position_id, vault_id, currency_code, account_id, cost_basis_rate, cost_basis_amount,
	last_rate, last_rate_date, cumulative_realized_gain, cumulative_unrealized_gain, version,
	created_at, created_by, last_updated_at, last_updated_by`

const snapshotColumns = `snapshot_id, position_id, vault_id, currency_code, base_currency, balance,
	cost_basis_rate, original_rate, original_value, current_rate, current_value, delta,
	snapshot_date, created_by`

// PgxVaultRepository stores vaults, their currency positions and revaluation snapshots.
type PgxVaultRepository struct {
	BaseRepository
}

func newPgxVaultRepository(pool *pgxpool.Pool) *PgxVaultRepository {
	return &PgxVaultRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.VaultRepositoryFacade = (*PgxVaultRepository)(nil)

func (r *PgxVaultRepository) SaveVault(ctx context.Context, vault domain.Vault) error {
	m := mapping.ToModelVault(vault)
	query := `
		INSERT INTO vaults (` + vaultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := r.db(ctx).Exec(ctx, query,
		m.VaultID, m.Name, m.OwnerType, m.OwnerID, m.BaseCurrency, m.MultiCurrency, m.AutoRevaluation,
		m.IsLocked, m.LockReason, m.RootAccountID, m.ExternalInAccountID, m.ExternalOutAccountID,
		m.RealizedFxAccountID, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return mapError(err, "insert vault")
}

func (r *PgxVaultRepository) FindVaultByID(ctx context.Context, vaultID string) (*domain.Vault, error) {
	return r.findVault(ctx, vaultID, "")
}

func (r *PgxVaultRepository) FindVaultByIDForUpdate(ctx context.Context, vaultID string) (*domain.Vault, error) {
	return r.findVault(ctx, vaultID, " FOR UPDATE")
}

func (r *PgxVaultRepository) findVault(ctx context.Context, vaultID, lock string) (*domain.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults WHERE vault_id = $1` + lock + `;`
	m, err := collectOne[models.Vault](ctx, r.db(ctx), query, vaultID)
	if err != nil {
		return nil, mapError(err, "find vault")
	}
	v := mapping.ToDomainVault(m)
	return &v, nil
}

func (r *PgxVaultRepository) ListVaults(ctx context.Context, filter domain.VaultFilter) ([]domain.Vault, error) {
	query := `
		SELECT ` + vaultColumns + ` FROM vaults
		WHERE (NOT $1::bool OR auto_revaluation)
		  AND (NOT $2::bool OR NOT is_locked)
		ORDER BY vault_id;
	`
	rows, err := collectAll[models.Vault](ctx, r.db(ctx), query, filter.AutoRevaluationOnly, filter.UnlockedOnly)
	if err != nil {
		return nil, mapError(err, "list vaults")
	}
	out := make([]domain.Vault, 0, len(rows))
	for _, m := range rows {
		out = append(out, mapping.ToDomainVault(m))
	}
	return out, nil
}

func (r *PgxVaultRepository) UpdateVaultLock(ctx context.Context, vaultID string, locked bool, reason string, userID string, now time.Time) error {
	query := `
		UPDATE vaults
		SET is_locked = $2, lock_reason = $3, last_updated_at = $4, last_updated_by = $5
		WHERE vault_id = $1;
	`
	tag, err := r.db(ctx).Exec(ctx, query, vaultID, locked, mapping.NullableString(reason), now, userID)
	if err != nil {
		return mapError(err, "update vault lock")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vault %s: %w", vaultID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxVaultRepository) SavePosition(ctx context.Context, position domain.CurrencyPosition) error {
	m := mapping.ToModelPosition(position)
	query := `
		INSERT INTO currency_positions (` + positionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.db(ctx).Exec(ctx, query,
		m.PositionID, m.VaultID, m.CurrencyCode, m.AccountID, m.CostBasisRate, m.CostBasisAmount,
		m.LastRate, m.LastRateDate, m.CumulativeRealizedGain, m.CumulativeUnrealizedGain, m.Version,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return mapError(err, "insert currency position")
}

func (r *PgxVaultRepository) FindPosition(ctx context.Context, vaultID, currency string) (*domain.CurrencyPosition, error) {
	return r.findPosition(ctx, vaultID, currency, "")
}

func (r *PgxVaultRepository) FindPositionForUpdate(ctx context.Context, vaultID, currency string) (*domain.CurrencyPosition, error) {
	return r.findPosition(ctx, vaultID, currency, " FOR UPDATE")
}

func (r *PgxVaultRepository) findPosition(ctx context.Context, vaultID, currency, lock string) (*domain.CurrencyPosition, error) {
	query := `SELECT ` + positionColumns + ` FROM currency_positions WHERE vault_id = $1 AND currency_code = $2` + lock + `;`
	m, err := collectOne[models.CurrencyPosition](ctx, r.db(ctx), query, vaultID, currency)
	if err != nil {
		return nil, mapError(err, "find currency position")
	}
	p := mapping.ToDomainPosition(m)
	return &p, nil
}

func (r *PgxVaultRepository) ListPositions(ctx context.Context, vaultID string) ([]domain.CurrencyPosition, error) {
	query := `SELECT ` + positionColumns + ` FROM currency_positions WHERE vault_id = $1 ORDER BY currency_code;`
	rows, err := collectAll[models.CurrencyPosition](ctx, r.db(ctx), query, vaultID)
	if err != nil {
		return nil, mapError(err, "list currency positions")
	}
	out := make([]domain.CurrencyPosition, 0, len(rows))
	for _, m := range rows {
		out = append(out, mapping.ToDomainPosition(m))
	}
	return out, nil
}

// UpdatePosition is an optimistic write: it only lands when the stored version still matches.
func (r *PgxVaultRepository) UpdatePosition(ctx context.Context, position domain.CurrencyPosition) error {
	m := mapping.ToModelPosition(position)
	query := `
		UPDATE currency_positions
		SET cost_basis_rate = $3, cost_basis_amount = $4, last_rate = $5, last_rate_date = $6,
			cumulative_realized_gain = $7, cumulative_unrealized_gain = $8,
			last_updated_at = $9, last_updated_by = $10, version = version + 1
		WHERE vault_id = $1 AND currency_code = $2 AND version = $11;
	`
	tag, err := r.db(ctx).Exec(ctx, query,
		m.VaultID, m.CurrencyCode, m.CostBasisRate, m.CostBasisAmount, m.LastRate, m.LastRateDate,
		m.CumulativeRealizedGain, m.CumulativeUnrealizedGain, m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return mapError(err, "update currency position")
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var stored int64
	err = r.db(ctx).QueryRow(ctx,
		`SELECT version FROM currency_positions WHERE vault_id = $1 AND currency_code = $2;`,
		m.VaultID, m.CurrencyCode,
	).Scan(&stored)
	if err != nil {
		return mapError(err, "find currency position "+m.VaultID+"/"+m.CurrencyCode)
	}
	return fmt.Errorf("position %s/%s version %d, stored %d: %w",
		m.VaultID, m.CurrencyCode, m.Version, stored, apperrors.ErrConflict)
}

func (r *PgxVaultRepository) SaveSnapshots(ctx context.Context, snapshots []domain.FXValuationSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	query := `
		INSERT INTO fx_valuation_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	batch := &pgx.Batch{}
	for _, s := range snapshots {
		m := mapping.ToModelSnapshot(s)
		batch.Queue(query,
			m.SnapshotID, m.PositionID, m.VaultID, m.CurrencyCode, m.BaseCurrency, m.Balance,
			m.CostBasisRate, m.OriginalRate, m.OriginalValue, m.CurrentRate, m.CurrentValue, m.Delta,
			m.SnapshotDate, m.CreatedBy,
		)
	}
	br := r.db(ctx).SendBatch(ctx, batch)
	defer br.Close()
	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return mapError(err, "insert fx valuation snapshot")
		}
	}
	return nil
}

// ListSnapshots returns the newest snapshots first. A limit of zero returns all of them.
func (r *PgxVaultRepository) ListSnapshots(ctx context.Context, vaultID string, limit int) ([]domain.FXValuationSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + ` FROM fx_valuation_snapshots
		WHERE vault_id = $1
		ORDER BY snapshot_date DESC, currency_code
		LIMIT NULLIF($2::int, 0);
	`
	rows, err := collectAll[models.FXValuationSnapshot](ctx, r.db(ctx), query, vaultID, limit)
	if err != nil {
		return nil, mapError(err, "list fx valuation snapshots")
	}
	out := make([]domain.FXValuationSnapshot, 0, len(rows))
	for _, m := range rows {
		out = append(out, mapping.ToDomainSnapshot(m))
	}
	return out, nil
}
