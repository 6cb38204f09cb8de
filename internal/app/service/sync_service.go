package service

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/mmhelfer/teambot/internal/infra/storage"
)

// SyncService reconcilia los sets auxiliares contra Discord. La membresía
// de roles en el servidor es la fuente de verdad: la reconciliación es
// one-way (externo → local) y convergente; corrida dos veces seguidas la
// segunda no escribe nada.
type SyncService struct {
	dir    Directory
	roster RosterRepo
	cfg    ConfigSource
}

func NewSyncService(dir Directory, roster RosterRepo, cfg ConfigSource) *SyncService {
	return &SyncService{dir: dir, roster: roster, cfg: cfg}
}

// Run reconcilia ambas listas. Un error en una lista no frena la otra; se
// devuelve el primero para que el caller lo loguee.
func (s *SyncService) Run(ctx context.Context) error {
	snap := s.cfg.Snapshot()
	if snap == nil {
		return ErrNoConfig
	}
	pairs := []struct {
		list   string
		roleID string
	}{
		{storage.ListLFT, snap.LFTRoleID},
		{storage.ListClan, snap.ClanMemberRoleID},
	}
	var firstErr error
	for _, p := range pairs {
		if err := s.syncList(ctx, p.list, p.roleID); err != nil {
			log.Printf("[sync] lista %s: %v", p.list, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("lista %s: %w", p.list, err)
			}
		}
	}
	return firstErr
}

func (s *SyncService) syncList(ctx context.Context, list, roleID string) error {
	live, err := s.dir.MembersWithRole(ctx, roleID)
	if err != nil {
		return err
	}
	stored, err := s.roster.List(ctx, list)
	if err != nil {
		return err
	}
	if sameSet(live, stored) {
		return nil
	}
	ids := make([]string, 0, len(live))
	for id := range live {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if err := s.roster.ReplaceAll(ctx, list, ids); err != nil {
		return err
	}
	log.Printf("[sync] lista %s reconciliada: %d → %d miembros", list, len(stored), len(live))
	return nil
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
