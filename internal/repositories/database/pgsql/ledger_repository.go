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

const transactionColumns = `transaction_id, transaction_type, base_currency, base_amount, description,
	source_type, source_id, entry_date, reversed, reversal_id, reverses_id, created_by, created_at`

const entryColumns = `entry_id, seq, transaction_id, account_id, direction, amount, currency_code,
	base_amount, base_currency, fx_rate, memo, entry_date, created_at`

// PgxLedgerRepository stores transactions and their append-only entries.
type PgxLedgerRepository struct {
	BaseRepository
}

func newPgxLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// SaveTransaction inserts the header and queues every entry in one batch. The seq column
// is a bigserial, so sequence numbers follow insertion order.
func (r *PgxLedgerRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.Entry) error {
	m := mapping.ToModelTransaction(txn)
	q := r.db(ctx)

	headerQuery := `
		INSERT INTO ledger_transactions (transaction_id, transaction_type, base_currency, base_amount,
			description, source_type, source_id, entry_date, reversed, reversal_id, reverses_id,
			created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	if _, err := q.Exec(ctx, headerQuery,
		m.TransactionID, m.Type, m.BaseCurrency, m.BaseAmount, m.Description, m.SourceType, m.SourceID,
		m.EntryDate, m.Reversed, m.ReversalID, m.ReversesID, m.CreatedBy, m.CreatedAt,
	); err != nil {
		return mapError(err, "insert transaction")
	}

	if len(entries) == 0 {
		return nil
	}

	entryQuery := `
		INSERT INTO ledger_entries (entry_id, transaction_id, account_id, direction, amount, currency_code,
			base_amount, base_currency, fx_rate, memo, entry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	batch := &pgx.Batch{}
	for _, e := range entries {
		em := mapping.ToModelEntry(e)
		batch.Queue(entryQuery,
			em.EntryID, em.TransactionID, em.AccountID, em.Direction, em.Amount, em.CurrencyCode,
			em.BaseAmount, em.BaseCurrency, em.FxRate, em.Memo, em.EntryDate, em.CreatedAt,
		)
	}

	br := q.SendBatch(ctx, batch)
	for range entries {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return mapError(err, "insert ledger entry")
		}
	}
	if err := br.Close(); err != nil {
		return mapError(err, "close entry batch")
	}
	return nil
}

// MarkTransactionReversed sets the reversal link once. A second attempt finds no unreversed row.
func (r *PgxLedgerRepository) MarkTransactionReversed(ctx context.Context, transactionID string, reversalID string) error {
	query := `
		UPDATE ledger_transactions
		SET reversed = TRUE, reversal_id = $2
		WHERE transaction_id = $1 AND NOT reversed;
	`
	tag, err := r.db(ctx).Exec(ctx, query, transactionID, reversalID)
	if err != nil {
		return mapError(err, "mark transaction reversed")
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_transactions WHERE transaction_id = $1);`, transactionID,
	).Scan(&exists); err != nil {
		return mapError(err, "check transaction")
	}
	if exists {
		return fmt.Errorf("transaction %s: %w", transactionID, apperrors.ErrAlreadyReversed)
	}
	return fmt.Errorf("transaction %s: %w", transactionID, apperrors.ErrNotFound)
}

func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return r.findTransaction(ctx, transactionID, "")
}

func (r *PgxLedgerRepository) FindTransactionByIDForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return r.findTransaction(ctx, transactionID, " FOR UPDATE")
}

func (r *PgxLedgerRepository) findTransaction(ctx context.Context, transactionID, lock string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE transaction_id = $1` + lock + `;`
	m, err := collectOne[models.Transaction](ctx, r.db(ctx), query, transactionID)
	if err != nil {
		return nil, mapError(err, "find transaction")
	}
	txn := mapping.ToDomainTransaction(m)
	return &txn, nil
}

func (r *PgxLedgerRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE transaction_id = $1 ORDER BY seq;`
	rows, err := collectAll[models.Entry](ctx, r.db(ctx), query, transactionID)
	if err != nil {
		return nil, mapError(err, "find entries by transaction")
	}
	return mapping.ToDomainEntrySlice(rows), nil
}

// sumArgs flattens a sum filter into positional parameters. Unset bounds become NULL.
func sumArgs(accountIDs []string, filter domain.EntrySumFilter) []any {
	var upToDate *time.Time
	var upToSeq *int64
	if filter.UpTo != nil {
		d, s := filter.UpTo.EntryDate, filter.UpTo.Sequence
		upToDate, upToSeq = &d, &s
	}
	var beforeSeq *int64
	if filter.BeforeSequence > 0 {
		s := filter.BeforeSequence
		beforeSeq = &s
	}
	// A nil slice encodes as NULL and disables the account bound.
	return []any{accountIDs, filter.AsOf, filter.Before, upToDate, upToSeq, beforeSeq, filter.BaseCurrency}
}

func (r *PgxLedgerRepository) SumEntriesByAccount(ctx context.Context, accountIDs []string, filter domain.EntrySumFilter) (map[string]domain.EntryTotals, error) {
	if accountIDs != nil && len(accountIDs) == 0 {
		return map[string]domain.EntryTotals{}, nil
	}
	query := `
		SELECT account_id,
			COALESCE(SUM(amount) FILTER (WHERE direction = 'DEBIT'), 0) AS debit,
			COALESCE(SUM(amount) FILTER (WHERE direction = 'CREDIT'), 0) AS credit,
			COALESCE(SUM(base_amount) FILTER (WHERE direction = 'DEBIT'), 0) AS base_debit,
			COALESCE(SUM(base_amount) FILTER (WHERE direction = 'CREDIT'), 0) AS base_credit
		FROM ledger_entries
		WHERE ($1::text[] IS NULL OR account_id = ANY($1))
		  AND ($2::timestamptz IS NULL OR entry_date <= $2)
		  AND ($3::timestamptz IS NULL OR entry_date < $3)
		  AND ($4::timestamptz IS NULL OR (entry_date, seq) <= ($4, $5::bigint))
		  AND ($6::bigint IS NULL OR seq < $6)
		  AND ($7::text = '' OR base_currency = $7)
		GROUP BY account_id;
	`
	rows, err := collectAll[models.EntryTotals](ctx, r.db(ctx), query, sumArgs(accountIDs, filter)...)
	if err != nil {
		return nil, mapError(err, "sum entries by account")
	}
	return mapping.ToDomainEntryTotals(rows), nil
}

func (r *PgxLedgerRepository) ListEntriesByAccount(ctx context.Context, accountID string, query domain.EntryQuery) ([]domain.Entry, error) {
	var afterDate *time.Time
	var afterSeq *int64
	if query.After != nil {
		d, s := query.After.EntryDate, query.After.Sequence
		afterDate, afterSeq = &d, &s
	}
	sql := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE account_id = $1
		  AND ($2::timestamptz IS NULL OR entry_date >= $2)
		  AND ($3::timestamptz IS NULL OR entry_date <= $3)
		  AND ($4::timestamptz IS NULL OR (entry_date, seq) > ($4, $5::bigint))
		ORDER BY entry_date, seq
		LIMIT NULLIF($6::int, 0);
	`
	rows, err := collectAll[models.Entry](ctx, r.db(ctx), sql,
		accountID, query.From, query.To, afterDate, afterSeq, query.Limit)
	if err != nil {
		return nil, mapError(err, "list entries by account")
	}
	return mapping.ToDomainEntrySlice(rows), nil
}
