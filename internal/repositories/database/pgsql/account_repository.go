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
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `account_id, code, name, account_type, currency_code, parent_account_id,
	entity_type, entity_id, is_active, is_system, non_negative,
	created_at, created_by, last_updated_at, last_updated_by`

// PgxAccountRepository implements the account repository interfaces using pgx.
type PgxAccountRepository struct {
	BaseRepository
}

func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

// SaveAccount inserts a new account. The unique code constraint makes concurrent creators
// of the same code race safely: the loser sees ErrDuplicate.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (code) DO NOTHING;
	`
	tag, err := r.db(ctx).Exec(ctx, query,
		m.AccountID, m.Code, m.Name, m.AccountType, m.CurrencyCode, m.ParentAccountID,
		m.EntityType, m.EntityID, m.IsActive, m.IsSystem, m.NonNegative,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, "insert account")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account code %s: %w", m.Code, apperrors.ErrDuplicate)
	}
	return nil
}

func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	m, err := collectOne[models.Account](ctx, r.db(ctx), query, accountID)
	if err != nil {
		return nil, mapError(err, "find account by id")
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = $1;`
	m, err := collectOne[models.Account](ctx, r.db(ctx), query, code)
	if err != nil {
		return nil, mapError(err, "find account by code")
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	if len(accountIDs) == 0 {
		return out, nil
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1);`
	rows, err := collectAll[models.Account](ctx, r.db(ctx), query, accountIDs)
	if err != nil {
		return nil, mapError(err, "find accounts by ids")
	}
	for _, m := range rows {
		out[m.AccountID] = mapping.ToDomainAccount(m)
	}
	return out, nil
}

// ListAccounts applies every non-empty filter field; empty strings match all rows.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE ($1::text = '' OR entity_type = $1)
		  AND ($2::text = '' OR entity_id = $2)
		  AND ($3::text = '' OR parent_account_id = $3)
		  AND (NOT $4::bool OR is_active)
		ORDER BY code;
	`
	rows, err := collectAll[models.Account](ctx, r.db(ctx), query,
		filter.EntityType, filter.EntityID, filter.ParentAccountID, filter.ActiveOnly)
	if err != nil {
		return nil, mapError(err, "list accounts")
	}
	return mapping.ToDomainAccountSlice(rows), nil
}

func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $1;
	`
	tag, err := r.db(ctx).Exec(ctx, query, accountID, now, userID)
	if err != nil {
		return mapError(err, "deactivate account")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	return nil
}
