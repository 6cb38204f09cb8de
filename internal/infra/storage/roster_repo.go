package storage

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

// Listas auxiliares de membresía, independientes de cualquier team.
const (
	ListLFT  = "lft"  // looking-for-team
	ListClan = "clan" // clan member
)

// RosterRepo persiste los sets auxiliares. Son sets de verdad:
// AddMany es unión, nunca append, para que repetir la operación no
// acumule duplicados.
type RosterRepo struct{ db *sql.DB }

func NewRosterRepo(db *sql.DB) *RosterRepo { return &RosterRepo{db: db} }

func (r *RosterRepo) List(ctx context.Context, list string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT member_id
  FROM roster_sets
 WHERE list_name = $1
`, list)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (r *RosterRepo) AddMany(ctx context.Context, list string, memberIDs []string) error {
	if len(memberIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO roster_sets (list_name, member_id)
SELECT $1, unnest($2::text[])
ON CONFLICT (list_name, member_id) DO NOTHING
`, list, pq.Array(memberIDs))
	return err
}

func (r *RosterRepo) RemoveMany(ctx context.Context, list string, memberIDs []string) error {
	if len(memberIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
DELETE FROM roster_sets
 WHERE list_name = $1
   AND member_id = ANY($2)
`, list, pq.Array(memberIDs))
	return err
}

// ReplaceAll pisa el set entero con el derivado en vivo (reconciliación).
func (r *RosterRepo) ReplaceAll(ctx context.Context, list string, memberIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
DELETE FROM roster_sets
 WHERE list_name = $1
`, list); err != nil {
		return err
	}
	if len(memberIDs) > 0 {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO roster_sets (list_name, member_id)
SELECT $1, unnest($2::text[])
`, list, pq.Array(memberIDs)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
