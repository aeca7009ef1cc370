package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/vault_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/vault_ledger/internal/models"
	"github.com/SscSPs/vault_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

const fxRateColumns = `fx_rate_id, from_currency, to_currency, rate, rate_date, source, is_current,
	created_at, created_by, last_updated_at, last_updated_by`

// PgxFXRateRepository implements the FX rate repository interfaces using pgx.
type PgxFXRateRepository struct {
	BaseRepository
}

func newPgxFXRateRepository(pool *pgxpool.Pool) *PgxFXRateRepository {
	return &PgxFXRateRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.FXRateRepositoryFacade = (*PgxFXRateRepository)(nil)

// SaveRate upserts on (from, to, rate date). The original row keeps its id and creator.
func (r *PgxFXRateRepository) SaveRate(ctx context.Context, rate domain.FXRate) error {
	m := mapping.ToModelFXRate(rate)
	query := `
		INSERT INTO fx_rates (` + fxRateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (from_currency, to_currency, rate_date) DO UPDATE
		SET rate = EXCLUDED.rate,
			source = EXCLUDED.source,
			is_current = EXCLUDED.is_current,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.db(ctx).Exec(ctx, query,
		m.FXRateID, m.FromCurrency, m.ToCurrency, m.Rate, m.RateDate, m.Source, m.IsCurrent,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return mapError(err, "upsert fx rate")
}

func (r *PgxFXRateRepository) ClearCurrentRates(ctx context.Context, from, to string) error {
	query := `
		UPDATE fx_rates SET is_current = FALSE
		WHERE from_currency = $1 AND to_currency = $2 AND is_current;
	`
	_, err := r.db(ctx).Exec(ctx, query, from, to)
	return mapError(err, "clear current fx rates")
}

func (r *PgxFXRateRepository) FindRate(ctx context.Context, from, to string, asOf *time.Time) (*domain.FXRate, error) {
	var query string
	args := []any{from, to}
	if asOf == nil {
		query = `
			SELECT ` + fxRateColumns + ` FROM fx_rates
			WHERE from_currency = $1 AND to_currency = $2
			ORDER BY is_current DESC, rate_date DESC
			LIMIT 1;
		`
	} else {
		query = `
			SELECT ` + fxRateColumns + ` FROM fx_rates
			WHERE from_currency = $1 AND to_currency = $2 AND rate_date <= $3
			ORDER BY rate_date DESC
			LIMIT 1;
		`
		args = append(args, *asOf)
	}

	m, err := collectOne[models.FXRate](ctx, r.db(ctx), query, args...)
	if err != nil {
		return nil, mapError(err, "find fx rate "+from+"/"+to)
	}
	rate := mapping.ToDomainFXRate(m)
	return &rate, nil
}

func (r *PgxFXRateRepository) ListCurrentRates(ctx context.Context) ([]domain.FXRate, error) {
	query := `
		SELECT ` + fxRateColumns + ` FROM fx_rates
		WHERE is_current
		ORDER BY from_currency, to_currency;
	`
	rows, err := collectAll[models.FXRate](ctx, r.db(ctx), query)
	if err != nil {
		return nil, mapError(err, "list current fx rates")
	}
	out := make([]domain.FXRate, 0, len(rows))
	for _, m := range rows {
		out = append(out, mapping.ToDomainFXRate(m))
	}
	return out, nil
}
