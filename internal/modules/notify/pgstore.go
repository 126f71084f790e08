// README: Durable event audit log backed by PostgreSQL.
package notify

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"ozra/internal/modules/entity"
	"ozra/internal/types"
)

type PGEventStore struct {
	db *pgxpool.Pool
}

func NewPGEventStore(db *pgxpool.Pool) *PGEventStore {
	return &PGEventStore{db: db}
}

func (s *PGEventStore) Append(ctx context.Context, ev *entity.Event) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO entity_events (
			entity_id, family, kind, from_status, to_status, version, actor_id, at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		string(ev.EntityID),
		string(ev.Family),
		ev.Kind,
		string(ev.FromStatus),
		string(ev.ToStatus),
		ev.Version,
		string(ev.ActorID),
		ev.At,
	).Scan(&ev.ID)
}

// History returns the ordered event trail for one entity, oldest first.
func (s *PGEventStore) History(ctx context.Context, entityID string) ([]entity.Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, entity_id, family, kind, from_status, to_status, version, actor_id, at
		FROM entity_events
		WHERE entity_id = $1
		ORDER BY id`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Event
	for rows.Next() {
		var (
			ev                       entity.Event
			id, fam, from, to, actor string
		)
		if err := rows.Scan(&ev.ID, &id, &fam, &ev.Kind, &from, &to, &ev.Version, &actor, &ev.At); err != nil {
			return nil, err
		}
		ev.EntityID = types.ID(id)
		ev.Family = entity.Family(fam)
		ev.FromStatus = entity.Status(from)
		ev.ToStatus = entity.Status(to)
		ev.ActorID = types.ID(actor)
		out = append(out, ev)
	}
	return out, rows.Err()
}
