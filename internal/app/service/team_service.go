package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/mmhelfer/teambot/internal/domain"
	"github.com/mmhelfer/teambot/internal/infra/rolecfg"
	"github.com/mmhelfer/teambot/internal/infra/storage"
)

var (
	ErrTeamExists   = errors.New("ya existe un team con ese nombre")
	ErrTeamNotFound = errors.New("team no encontrado")
	ErrNoConfig     = errors.New("documento de roles no cargado")
)

// TeamService orquesta los tres workflows (create/edit/delete) sobre el
// Directory y el registro. Create es todo-o-nada con compensación; delete y
// edit son best-effort por diseño: el Report le dice al caller exactamente
// qué cambió y qué no.
type TeamService struct {
	dir    Directory
	teams  TeamRepo
	roster RosterRepo
	oplog  OpLog
	cfg    ConfigSource
	locks  *lockTable
}

func NewTeamService(dir Directory, teams TeamRepo, roster RosterRepo, oplog OpLog, cfg ConfigSource) *TeamService {
	return &TeamService{
		dir:    dir,
		teams:  teams,
		roster: roster,
		oplog:  oplog,
		cfg:    cfg,
		locks:  newLockTable(),
	}
}

func hasRole(roles []string, id string) bool {
	for _, r := range roles {
		if r == id {
			return true
		}
	}
	return false
}

// logOutcome persiste el Report; si falla sólo lo logueamos, el workflow
// ya terminó y su resultado no depende de la auditoría.
func (s *TeamService) logOutcome(ctx context.Context, rep *Report) {
	if s.oplog == nil {
		return
	}
	raw, err := json.Marshal(rep)
	if err != nil {
		log.Printf("[teams] marshal report: %v", err)
		return
	}
	if err := s.oplog.Insert(ctx, rep.Kind, rep.TeamType, rep.TeamName, rep.Success, raw); err != nil {
		log.Printf("[teams] op_log insert: %v", err)
	}
}

// ---------- create ----------

// Create ejecuta el workflow de alta: RoleCreate → ChannelsCreate →
// MemberRoleAssignment → ConfigPersist. Si una etapa falla se compensan las
// ya completadas en orden inverso y la operación se reporta como fallida.
func (s *TeamService) Create(ctx context.Context, in domain.CreateIntent) (*Report, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	snap := s.cfg.Snapshot()
	if snap == nil {
		return nil, ErrNoConfig
	}

	// El nombre se reserva en ambas particiones: el chequeo de duplicados
	// cubre las dos y un rename concurrente hacia este nombre debe esperar.
	unlock := s.locks.acquireKeys(
		lockKey(domain.TypeCommunity, in.Name),
		lockKey(domain.TypeCompetitive, in.Name),
	)
	defer unlock()

	// Precondición: el nombre debe estar libre en ambas particiones.
	// Falla rápido, sin efectos externos.
	for _, tt := range []domain.TeamType{domain.TypeCommunity, domain.TypeCompetitive} {
		_, err := s.teams.Get(ctx, tt, in.Name)
		if err == nil {
			return nil, ErrTeamExists
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("consultando registro: %w", err)
		}
	}

	rep := newReport("create", in.Type, in.Name)
	team := domain.Team{
		Name:      in.Name,
		Type:      in.Type,
		CaptainID: in.CaptainID,
		MemberIDs: append([]string(nil), in.MemberIDs...),
	}

	// Etapa 1: rol exclusivo del team. Hoist sólo para Competitive
	// (agrupa a los miembros en la lista lateral).
	roleID, err := s.dir.CreateRole(ctx, in.Name, in.Type == domain.TypeCompetitive)
	if err != nil {
		rep.fail("RoleCreate", err.Error())
		s.logOutcome(ctx, rep)
		return rep, err
	}
	team.RoleID = roleID
	rep.ok("RoleCreate", "rol "+roleID)

	// Etapa 2: canales por clase, cada uno con sus overwrites resueltos.
	pol := snap.Policy()
	category := snap.CategoryFor(in.Type)
	var createdChannels []string
	for _, class := range domain.Classes(in.Type) {
		id, err := s.dir.CreateChannel(ctx, domain.ChannelSpec{
			Name:       domain.ChannelNameFor(class, in.Name),
			Class:      class,
			CategoryID: category,
			Overwrites: domain.ResolveOverwrites(in.Type, class, roleID, pol),
		})
		if err != nil {
			rep.fail("ChannelsCreate", fmt.Sprintf("canal %s: %v", class, err))
			s.rollbackCreate(ctx, rep, roleID, createdChannels, in)
			s.logOutcome(ctx, rep)
			return rep, err
		}
		createdChannels = append(createdChannels, id)
		switch class {
		case domain.ClassText:
			team.TextChannelID = id
		case domain.ClassVoice:
			team.VoiceChannelID = id
		case domain.ClassPrivateVoice:
			team.PrivateVoiceChannelID = id
		}
	}
	rep.ok("ChannelsCreate", fmt.Sprintf("%d canales creados", len(createdChannels)))

	// Etapa 3: membresías. Sin compensación propia: al borrar el rol del
	// team en el rollback ese grant desaparece solo; los grants genéricos y
	// de captain quedan — limitación conocida y documentada.
	if err := s.assignMemberRoles(ctx, snap, &team); err != nil {
		rep.fail("MemberRoleAssignment", err.Error())
		s.rollbackCreate(ctx, rep, roleID, createdChannels, in)
		s.logOutcome(ctx, rep)
		return rep, err
	}
	rep.ok("MemberRoleAssignment", fmt.Sprintf("%d miembros", len(team.MemberIDs)))

	// Etapa 4: recién acá la operación se vuelve durable.
	if err := s.teams.Upsert(ctx, team); err != nil {
		rep.fail("ConfigPersist", err.Error())
		s.rollbackCreate(ctx, rep, roleID, createdChannels, in)
		s.logOutcome(ctx, rep)
		return rep, err
	}
	rep.ok("ConfigPersist", "registro guardado")

	rep.Success = true
	s.logOutcome(ctx, rep)
	log.Printf("[teams] team '%s' (%s) creado", in.Name, in.Type)
	return rep, nil
}

func (s *TeamService) assignMemberRoles(ctx context.Context, snap *rolecfg.Snapshot, team *domain.Team) error {
	generic := snap.GenericRoleFor(team.Type)
	for _, memberID := range team.MemberIDs {
		current, err := s.dir.MemberRoles(ctx, memberID)
		if err != nil {
			return fmt.Errorf("miembro %s: %w", memberID, err)
		}
		for _, roleID := range []string{team.RoleID, generic} {
			if roleID == "" || hasRole(current, roleID) {
				continue
			}
			if err := s.dir.GrantRole(ctx, memberID, roleID); err != nil {
				return fmt.Errorf("grant a %s: %w", memberID, err)
			}
		}
		// El que entra a un team deja de buscar team.
		if hasRole(current, snap.LFTRoleID) {
			if err := s.dir.RevokeRole(ctx, memberID, snap.LFTRoleID); err != nil {
				return fmt.Errorf("revoke LFT a %s: %w", memberID, err)
			}
			if err := s.roster.RemoveMany(ctx, storage.ListLFT, []string{memberID}); err != nil {
				return fmt.Errorf("roster LFT: %w", err)
			}
		}
		if memberID == team.CaptainID && !hasRole(current, snap.CaptainRoleID) {
			if err := s.dir.GrantRole(ctx, memberID, snap.CaptainRoleID); err != nil {
				return fmt.Errorf("grant captain a %s: %w", memberID, err)
			}
		}
	}
	return nil
}

// rollbackCreate compensa las etapas completadas en orden inverso. Las
// compensaciones que fallan se loguean y se reportan, pero no detienen el
// resto del rollback.
func (s *TeamService) rollbackCreate(ctx context.Context, rep *Report, roleID string, channelIDs []string, in domain.CreateIntent) {
	rep.RolledBack = true
	for i := len(channelIDs) - 1; i >= 0; i-- {
		if err := s.dir.DeleteChannel(ctx, channelIDs[i]); err != nil {
			log.Printf("[teams] rollback canal %s: %v", channelIDs[i], err)
			rep.fail("Rollback/Channel", fmt.Sprintf("%s: %v", channelIDs[i], err))
		}
	}
	if roleID != "" {
		if err := s.dir.DeleteRole(ctx, roleID); err != nil {
			log.Printf("[teams] rollback rol %s: %v", roleID, err)
			rep.fail("Rollback/Role", err.Error())
		}
	}
	// Por si el persist llegó a escribir parcialmente.
	if _, err := s.teams.Remove(ctx, in.Type, in.Name); err != nil {
		log.Printf("[teams] rollback registro '%s': %v", in.Name, err)
		rep.fail("Rollback/Registry", err.Error())
	}
}

// ---------- delete ----------

// Delete es best-effort y sin rollback por diseño: borra lo que pueda,
// siempre intenta las cuatro etapas, y el agregado es false si cualquier
// sub-paso falló. Repetir un delete parcialmente fallido es seguro.
func (s *TeamService) Delete(ctx context.Context, tt domain.TeamType, name string) (*Report, error) {
	snap := s.cfg.Snapshot()
	if snap == nil {
		return nil, ErrNoConfig
	}

	unlock := s.locks.acquire(tt, name)
	defer unlock()

	team, err := s.teams.Get(ctx, tt, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consultando registro: %w", err)
	}

	rep := newReport("delete", tt, name)
	allOK := true

	// Etapa 1: sacar roles a los miembros. Fallas por miembro se loguean
	// y no frenan las etapas siguientes.
	stripped, failed := 0, 0
	generic := snap.GenericRoleFor(tt)
	for _, memberID := range team.MemberIDs {
		current, err := s.dir.MemberRoles(ctx, memberID)
		if err != nil {
			log.Printf("[teams] delete '%s': roles de %s: %v", name, memberID, err)
			failed++
			continue
		}
		toStrip := []string{team.RoleID, generic}
		if memberID == team.CaptainID {
			toStrip = append(toStrip, snap.CaptainRoleID)
		}
		memberFailed := false
		for _, roleID := range toStrip {
			if roleID == "" || !hasRole(current, roleID) {
				continue
			}
			if err := s.dir.RevokeRole(ctx, memberID, roleID); err != nil {
				log.Printf("[teams] delete '%s': revoke %s de %s: %v", name, roleID, memberID, err)
				memberFailed = true
			}
		}
		if memberFailed {
			failed++
		} else {
			stripped++
		}
	}
	if failed > 0 {
		allOK = false
		rep.fail("MemberRoleStrip", fmt.Sprintf("%d ok, %d con errores", stripped, failed))
	} else {
		rep.ok("MemberRoleStrip", fmt.Sprintf("%d miembros", stripped))
	}

	// Etapa 2: canales. IDs ausentes se saltean; 404 cuenta como hecho.
	deleted := 0
	chanOK := true
	for _, id := range team.ChannelIDs() {
		if err := s.dir.DeleteChannel(ctx, id); err != nil {
			log.Printf("[teams] delete '%s': canal %s: %v", name, id, err)
			chanOK = false
			continue
		}
		deleted++
	}
	if chanOK {
		rep.ok("ChannelsDelete", fmt.Sprintf("%d canales", deleted))
	} else {
		allOK = false
		rep.fail("ChannelsDelete", fmt.Sprintf("%d borrados, hubo errores", deleted))
	}

	// Etapa 3: el rol del team, si todavía existe. Que lo hayan borrado a
	// mano no es un error: el objetivo ya está cumplido.
	exists, err := s.dir.RoleExists(ctx, team.RoleID)
	switch {
	case err != nil:
		allOK = false
		rep.fail("RoleDelete", err.Error())
	case !exists:
		rep.ok("RoleDelete", "el rol ya no existía")
	default:
		if err := s.dir.DeleteRole(ctx, team.RoleID); err != nil {
			allOK = false
			rep.fail("RoleDelete", err.Error())
		} else {
			rep.ok("RoleDelete", "rol borrado")
		}
	}

	// Etapa 4: registro. Ausencia no es error.
	removed, err := s.teams.Remove(ctx, tt, name)
	switch {
	case err != nil:
		allOK = false
		rep.fail("ConfigRemove", err.Error())
	case removed:
		rep.ok("ConfigRemove", "registro eliminado")
	default:
		rep.ok("ConfigRemove", "el registro ya no estaba")
	}

	rep.Success = allOK
	s.logOutcome(ctx, rep)
	if allOK {
		log.Printf("[teams] team '%s' (%s) eliminado", name, tt)
	} else {
		log.Printf("[teams] team '%s' (%s) eliminado con errores", name, tt)
	}
	return rep, nil
}

// ---------- edit ----------

// Edit aplica un changeset en orden fijo: rename → retype → captain →
// add-members → remove-members. No hay rollback entre etapas: si una falla,
// lo externo queda parcialmente cambiado y el registro sin persistir; el
// Report lo dice en vez de disimularlo. La persistencia final usa
// RenameOrRetype cuando cambió la identidad.
func (s *TeamService) Edit(ctx context.Context, tt domain.TeamType, name string, ch domain.Changeset) (*Report, error) {
	if ch.Empty() {
		return nil, errors.New("changeset vacío")
	}
	snap := s.cfg.Snapshot()
	if snap == nil {
		return nil, ErrNoConfig
	}

	// Un rename reserva también el nombre destino en ambas particiones,
	// para no correr contra un create concurrente del mismo nombre.
	keys := []string{lockKey(tt, name)}
	if ch.Rename != nil {
		keys = append(keys,
			lockKey(domain.TypeCommunity, *ch.Rename),
			lockKey(domain.TypeCompetitive, *ch.Rename))
	}
	unlock := s.locks.acquireKeys(keys...)
	defer unlock()

	team, err := s.teams.Get(ctx, tt, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consultando registro: %w", err)
	}

	rep := newReport("edit", tt, name)
	working := team
	working.MemberIDs = append([]string(nil), team.MemberIDs...)
	pol := snap.Policy()

	fail := func(stage string, err error) (*Report, error) {
		rep.fail(stage, err.Error())
		s.logOutcome(ctx, rep)
		return rep, err
	}

	// 1. Rename: rol + canales; la key del registro cambia recién al final.
	if ch.Rename != nil && *ch.Rename != team.Name {
		newName := *ch.Rename
		if dup, err := s.nameTaken(ctx, newName); err != nil {
			return fail("Rename", err)
		} else if dup {
			return fail("Rename", ErrTeamExists)
		}
		if err := s.dir.EditRole(ctx, working.RoleID, domain.RolePatch{Name: &newName}); err != nil {
			return fail("Rename", err)
		}
		renames := []struct {
			id    string
			class domain.ChannelClass
		}{
			{working.TextChannelID, domain.ClassText},
			{working.VoiceChannelID, domain.ClassVoice},
			{working.PrivateVoiceChannelID, domain.ClassPrivateVoice},
		}
		for _, r := range renames {
			if r.id == "" {
				continue
			}
			chName := domain.ChannelNameFor(r.class, newName)
			if err := s.dir.EditChannel(ctx, r.id, r.class, domain.ChannelPatch{Name: &chName}); err != nil {
				return fail("Rename", err)
			}
		}
		working.Name = newName
		rep.ok("Rename", fmt.Sprintf("'%s' → '%s'", team.Name, newName))
	}

	// 2. Retype: hoist del rol, swap de rol genérico, mover canales de
	// categoría y crear/borrar/mover el voice privado.
	if ch.Retype != nil && *ch.Retype != team.Type {
		newType := *ch.Retype
		hoist := newType == domain.TypeCompetitive
		if err := s.dir.EditRole(ctx, working.RoleID, domain.RolePatch{Hoist: &hoist}); err != nil {
			return fail("Retype", err)
		}

		oldGeneric := snap.GenericRoleFor(team.Type)
		newGeneric := snap.GenericRoleFor(newType)
		for _, memberID := range working.MemberIDs {
			current, err := s.dir.MemberRoles(ctx, memberID)
			if err != nil {
				return fail("Retype", fmt.Errorf("miembro %s: %w", memberID, err))
			}
			if oldGeneric != "" && hasRole(current, oldGeneric) {
				if err := s.dir.RevokeRole(ctx, memberID, oldGeneric); err != nil {
					return fail("Retype", err)
				}
			}
			if newGeneric != "" && !hasRole(current, newGeneric) {
				if err := s.dir.GrantRole(ctx, memberID, newGeneric); err != nil {
					return fail("Retype", err)
				}
			}
		}

		category := snap.CategoryFor(newType)
		moves := []struct {
			id    string
			class domain.ChannelClass
		}{
			{working.TextChannelID, domain.ClassText},
			{working.VoiceChannelID, domain.ClassVoice},
		}
		for _, m := range moves {
			if m.id == "" {
				continue
			}
			if err := s.dir.EditChannel(ctx, m.id, m.class, domain.ChannelPatch{CategoryID: &category}); err != nil {
				return fail("Retype", err)
			}
		}

		switch {
		case newType == domain.TypeCompetitive && working.PrivateVoiceChannelID == "":
			id, err := s.dir.CreateChannel(ctx, domain.ChannelSpec{
				Name:       domain.PrivateVoiceChannelName(working.Name),
				Class:      domain.ClassPrivateVoice,
				CategoryID: category,
				Overwrites: domain.ResolveOverwrites(domain.TypeCompetitive, domain.ClassPrivateVoice, working.RoleID, pol),
			})
			if err != nil {
				return fail("Retype", err)
			}
			working.PrivateVoiceChannelID = id
		case newType == domain.TypeCommunity && working.PrivateVoiceChannelID != "":
			if err := s.dir.DeleteChannel(ctx, working.PrivateVoiceChannelID); err != nil {
				return fail("Retype", err)
			}
			working.PrivateVoiceChannelID = ""
		case working.PrivateVoiceChannelID != "":
			if err := s.dir.EditChannel(ctx, working.PrivateVoiceChannelID, domain.ClassPrivateVoice, domain.ChannelPatch{CategoryID: &category}); err != nil {
				return fail("Retype", err)
			}
		}

		working.Type = newType
		rep.ok("Retype", fmt.Sprintf("%s → %s", team.Type, newType))
	}

	// 3. Captain: revocar al saliente, otorgar al entrante. Un captain
	// totalmente nuevo entra también al team.
	if ch.CaptainChange != nil && *ch.CaptainChange != working.CaptainID {
		newCaptain := *ch.CaptainChange
		if working.CaptainID != "" {
			current, err := s.dir.MemberRoles(ctx, working.CaptainID)
			if err != nil {
				return fail("CaptainChange", err)
			}
			if hasRole(current, snap.CaptainRoleID) {
				if err := s.dir.RevokeRole(ctx, working.CaptainID, snap.CaptainRoleID); err != nil {
					return fail("CaptainChange", err)
				}
			}
		}
		if newCaptain != "" {
			if !working.HasMember(newCaptain) {
				if len(working.MemberIDs) >= domain.MaxMembers {
					return fail("CaptainChange", errors.New("team lleno: el nuevo captain no entra"))
				}
				if err := s.grantTeamRoles(ctx, snap, &working, newCaptain); err != nil {
					return fail("CaptainChange", err)
				}
				working.MemberIDs = append(working.MemberIDs, newCaptain)
			}
			current, err := s.dir.MemberRoles(ctx, newCaptain)
			if err != nil {
				return fail("CaptainChange", err)
			}
			if !hasRole(current, snap.CaptainRoleID) {
				if err := s.dir.GrantRole(ctx, newCaptain, snap.CaptainRoleID); err != nil {
					return fail("CaptainChange", err)
				}
			}
		}
		working.CaptainID = newCaptain
		rep.ok("CaptainChange", "captain actualizado")
	}

	// 4. Altas de miembros.
	if len(ch.AddMembers) > 0 {
		added := 0
		for _, memberID := range ch.AddMembers {
			if working.HasMember(memberID) {
				continue
			}
			if len(working.MemberIDs) >= domain.MaxMembers {
				return fail("AddMembers", errors.New("máximo 7 miembros por team"))
			}
			if err := s.grantTeamRoles(ctx, snap, &working, memberID); err != nil {
				return fail("AddMembers", err)
			}
			working.MemberIDs = append(working.MemberIDs, memberID)
			added++
		}
		rep.ok("AddMembers", fmt.Sprintf("%d altas", added))
	}

	// 5. Bajas de miembros. Si se va el captain, el team queda sin captain.
	if len(ch.RemoveMembers) > 0 {
		removed := 0
		for _, memberID := range ch.RemoveMembers {
			if !working.HasMember(memberID) {
				continue
			}
			current, err := s.dir.MemberRoles(ctx, memberID)
			if err != nil {
				return fail("RemoveMembers", err)
			}
			toStrip := []string{working.RoleID, snap.GenericRoleFor(working.Type)}
			if memberID == working.CaptainID {
				toStrip = append(toStrip, snap.CaptainRoleID)
			}
			for _, roleID := range toStrip {
				if roleID == "" || !hasRole(current, roleID) {
					continue
				}
				if err := s.dir.RevokeRole(ctx, memberID, roleID); err != nil {
					return fail("RemoveMembers", err)
				}
			}
			kept := working.MemberIDs[:0]
			for _, id := range working.MemberIDs {
				if id != memberID {
					kept = append(kept, id)
				}
			}
			working.MemberIDs = kept
			if memberID == working.CaptainID {
				working.CaptainID = ""
			}
			removed++
		}
		rep.ok("RemoveMembers", fmt.Sprintf("%d bajas", removed))
	}

	// Persistencia final: una sola escritura, transaccional si cambió la key.
	if working.Name != team.Name || working.Type != team.Type {
		if err := s.teams.RenameOrRetype(ctx, team.Type, team.Name, working); err != nil {
			return fail("ConfigPersist", err)
		}
	} else {
		if err := s.teams.Upsert(ctx, working); err != nil {
			return fail("ConfigPersist", err)
		}
	}
	rep.ok("ConfigPersist", "registro guardado")

	rep.Success = true
	s.logOutcome(ctx, rep)
	log.Printf("[teams] team '%s' (%s) editado → '%s' (%s)", team.Name, team.Type, working.Name, working.Type)
	return rep, nil
}

// grantTeamRoles da de alta a un miembro nuevo: rol del team + genérico,
// y limpieza de looking-for-team si la tenía.
func (s *TeamService) grantTeamRoles(ctx context.Context, snap *rolecfg.Snapshot, team *domain.Team, memberID string) error {
	current, err := s.dir.MemberRoles(ctx, memberID)
	if err != nil {
		return fmt.Errorf("miembro %s: %w", memberID, err)
	}
	for _, roleID := range []string{team.RoleID, snap.GenericRoleFor(team.Type)} {
		if roleID == "" || hasRole(current, roleID) {
			continue
		}
		if err := s.dir.GrantRole(ctx, memberID, roleID); err != nil {
			return err
		}
	}
	if hasRole(current, snap.LFTRoleID) {
		if err := s.dir.RevokeRole(ctx, memberID, snap.LFTRoleID); err != nil {
			return err
		}
		if err := s.roster.RemoveMany(ctx, storage.ListLFT, []string{memberID}); err != nil {
			return err
		}
	}
	return nil
}

func (s *TeamService) nameTaken(ctx context.Context, name string) (bool, error) {
	for _, tt := range []domain.TeamType{domain.TypeCommunity, domain.TypeCompetitive} {
		_, err := s.teams.Get(ctx, tt, name)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return false, err
		}
	}
	return false, nil
}

// ListAll expone la partición para el front-end (/team list).
func (s *TeamService) ListAll(ctx context.Context, tt domain.TeamType) (map[string]domain.Team, error) {
	return s.teams.ListAll(ctx, tt)
}
