package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mmhelfer/teambot/internal/domain"
)

var ErrNotFound = errors.New("not found")

// TeamRepo es el registro durable de teams, particionado por team_type.
// El repo es dueño exclusivo del estado persistido; el orquestador sólo
// maneja copias de trabajo en memoria durante una operación.
type TeamRepo struct{ db *sql.DB }

func NewTeamRepo(db *sql.DB) *TeamRepo { return &TeamRepo{db: db} }

const teamCols = `team_type, name, role_id, text_channel_id, voice_channel_id, private_voice_channel_id, captain_id, member_ids`

func scanTeam(row interface{ Scan(...any) error }) (domain.Team, error) {
	var (
		t       domain.Team
		private sql.NullString
		captain sql.NullString
	)
	err := row.Scan(&t.Type, &t.Name, &t.RoleID, &t.TextChannelID, &t.VoiceChannelID,
		&private, &captain, pq.Array(&t.MemberIDs))
	if err != nil {
		return domain.Team{}, err
	}
	t.PrivateVoiceChannelID = private.String
	t.CaptainID = captain.String
	return t, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *TeamRepo) Get(ctx context.Context, tt domain.TeamType, name string) (domain.Team, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+teamCols+`
  FROM teams
 WHERE team_type = $1 AND name = $2
`, tt, name)
	t, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Team{}, ErrNotFound
	}
	return t, err
}

// Upsert escribe el registro completo: last-writer-wins, sin merge.
func (r *TeamRepo) Upsert(ctx context.Context, t domain.Team) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO teams (`+teamCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (team_type, name) DO UPDATE SET
  role_id                  = EXCLUDED.role_id,
  text_channel_id          = EXCLUDED.text_channel_id,
  voice_channel_id         = EXCLUDED.voice_channel_id,
  private_voice_channel_id = EXCLUDED.private_voice_channel_id,
  captain_id               = EXCLUDED.captain_id,
  member_ids               = EXCLUDED.member_ids,
  updated_at               = now()
`, t.Type, t.Name, t.RoleID, t.TextChannelID, t.VoiceChannelID,
		nullable(t.PrivateVoiceChannelID), nullable(t.CaptainID), pq.Array(t.MemberIDs))
	return err
}

// Remove es idempotente: borrar una key ausente no es error.
func (r *TeamRepo) Remove(ctx context.Context, tt domain.TeamType, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM teams
 WHERE team_type = $1 AND name = $2
`, tt, name)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// RenameOrRetype migra el registro a otra key (rename y/o cambio de
// partición) en una sola transacción: o se mueve entero o no se mueve.
func (r *TeamRepo) RenameOrRetype(ctx context.Context, oldType domain.TeamType, oldName string, t domain.Team) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
DELETE FROM teams
 WHERE team_type = $1 AND name = $2
`, oldType, oldName); err != nil {
		return fmt.Errorf("rename: delete key vieja: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO teams (`+teamCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, t.Type, t.Name, t.RoleID, t.TextChannelID, t.VoiceChannelID,
		nullable(t.PrivateVoiceChannelID), nullable(t.CaptainID), pq.Array(t.MemberIDs)); err != nil {
		return fmt.Errorf("rename: insert key nueva: %w", err)
	}
	return tx.Commit()
}

// ListAll devuelve la partición completa de un tipo, por nombre.
func (r *TeamRepo) ListAll(ctx context.Context, tt domain.TeamType) (map[string]domain.Team, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+teamCols+`
  FROM teams
 WHERE team_type = $1
 ORDER BY name ASC
`, tt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.Team)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out[t.Name] = t
	}
	return out, rows.Err()
}
