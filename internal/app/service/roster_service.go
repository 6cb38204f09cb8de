package service

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/mmhelfer/teambot/internal/infra/storage"
)

// RosterService maneja las dos listas auxiliares (looking-for-team y
// clan-member): cada alta/baja toca primero Discord y después el set local,
// así el directorio externo nunca queda detrás del registro.
type RosterService struct {
	dir    Directory
	roster RosterRepo
	cfg    ConfigSource
}

func NewRosterService(dir Directory, roster RosterRepo, cfg ConfigSource) *RosterService {
	return &RosterService{dir: dir, roster: roster, cfg: cfg}
}

func (s *RosterService) roleFor(list string) (string, error) {
	snap := s.cfg.Snapshot()
	if snap == nil {
		return "", ErrNoConfig
	}
	switch list {
	case storage.ListLFT:
		return snap.LFTRoleID, nil
	case storage.ListClan:
		return snap.ClanMemberRoleID, nil
	default:
		return "", fmt.Errorf("lista desconocida: %s", list)
	}
}

// Add otorga el rol de la lista y suma los ids al set. Miembros que ya
// estaban son no-ops.
func (s *RosterService) Add(ctx context.Context, list string, memberIDs []string) error {
	roleID, err := s.roleFor(list)
	if err != nil {
		return err
	}
	for _, id := range memberIDs {
		current, err := s.dir.MemberRoles(ctx, id)
		if err != nil {
			return fmt.Errorf("miembro %s: %w", id, err)
		}
		if hasRole(current, roleID) {
			continue
		}
		if err := s.dir.GrantRole(ctx, id, roleID); err != nil {
			return fmt.Errorf("grant a %s: %w", id, err)
		}
	}
	if err := s.roster.AddMany(ctx, list, memberIDs); err != nil {
		return err
	}
	log.Printf("[roster] %s: +%d miembros", list, len(memberIDs))
	return nil
}

// Remove quita el rol y saca los ids del set. Ausencias son no-ops.
func (s *RosterService) Remove(ctx context.Context, list string, memberIDs []string) error {
	roleID, err := s.roleFor(list)
	if err != nil {
		return err
	}
	for _, id := range memberIDs {
		if err := s.dir.RevokeRole(ctx, id, roleID); err != nil {
			return fmt.Errorf("revoke a %s: %w", id, err)
		}
	}
	if err := s.roster.RemoveMany(ctx, list, memberIDs); err != nil {
		return err
	}
	log.Printf("[roster] %s: -%d miembros", list, len(memberIDs))
	return nil
}

// List devuelve el set local ordenado, para el front-end.
func (s *RosterService) List(ctx context.Context, list string) ([]string, error) {
	if _, err := s.roleFor(list); err != nil {
		return nil, err
	}
	set, err := s.roster.List(ctx, list)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
