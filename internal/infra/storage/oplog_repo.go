package storage

import (
	"context"
	"database/sql"

	"github.com/mmhelfer/teambot/internal/domain"
)

// OpLogRepo guarda el resultado por etapa de cada workflow terminado.
// Es la pista de auditoría para remediar a mano cuando un rollback falla.
type OpLogRepo struct{ db *sql.DB }

func NewOpLogRepo(db *sql.DB) *OpLogRepo { return &OpLogRepo{db: db} }

func (r *OpLogRepo) Insert(ctx context.Context, kind string, tt domain.TeamType, name string, success bool, reportJSON []byte) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO op_log (kind, team_type, team_name, success, report)
VALUES ($1,$2,$3,$4,$5)
`, kind, tt, name, success, reportJSON)
	return err
}
