// README: Pricing store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ozra/internal/modules/entity"
)

var ErrNoRate = errors.New("no rate configured")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetRate(ctx context.Context, f entity.Family) (Rate, error) {
	row := s.db.QueryRow(ctx, `
		SELECT family, base_fare, per_km, currency
		FROM pricing_rates
		WHERE family = $1`, string(f),
	)
	var r Rate
	var fam string
	err := row.Scan(&fam, &r.BaseFare, &r.PerKm, &r.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rate{}, ErrNoRate
	}
	if err != nil {
		return Rate{}, err
	}
	r.Family = entity.Family(fam)
	return r, nil
}
