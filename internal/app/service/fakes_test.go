package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/mmhelfer/teambot/internal/domain"
	"github.com/mmhelfer/teambot/internal/infra/rolecfg"
	"github.com/mmhelfer/teambot/internal/infra/storage"
)

// Fakes in-memory para los workflows: el Directory simula el estado del
// servidor (roles, canales, membresías) y permite inyectar fallas por
// método y por número de llamada.

type fakeRole struct {
	name  string
	hoist bool
}

type fakeDirectory struct {
	roles       map[string]fakeRole
	channels    map[string]domain.ChannelSpec
	memberRoles map[string]map[string]struct{}
	seq         int

	// falla en la N-ésima llamada (1-based) del método; 0 = nunca
	failCreateChannelAt int
	failGrantAt         int
	failRevokeAt        int
	failDeleteChannelAt int
	errRoleCreate       error
	errRoleDelete       error

	createChannelCalls int
	grantCalls         int
	revokeCalls        int
	deleteChannelCalls int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		roles:       map[string]fakeRole{},
		channels:    map[string]domain.ChannelSpec{},
		memberRoles: map[string]map[string]struct{}{},
	}
}

func (f *fakeDirectory) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeDirectory) CreateRole(ctx context.Context, name string, hoist bool) (string, error) {
	if f.errRoleCreate != nil {
		return "", f.errRoleCreate
	}
	id := f.nextID("role")
	f.roles[id] = fakeRole{name: name, hoist: hoist}
	return id, nil
}

func (f *fakeDirectory) EditRole(ctx context.Context, roleID string, p domain.RolePatch) error {
	r, ok := f.roles[roleID]
	if !ok {
		return fmt.Errorf("rol %s no existe", roleID)
	}
	if p.Name != nil {
		r.name = *p.Name
	}
	if p.Hoist != nil {
		r.hoist = *p.Hoist
	}
	f.roles[roleID] = r
	return nil
}

func (f *fakeDirectory) DeleteRole(ctx context.Context, roleID string) error {
	if f.errRoleDelete != nil {
		return f.errRoleDelete
	}
	delete(f.roles, roleID)
	for _, set := range f.memberRoles {
		delete(set, roleID)
	}
	return nil
}

func (f *fakeDirectory) RoleExists(ctx context.Context, roleID string) (bool, error) {
	_, ok := f.roles[roleID]
	return ok, nil
}

func (f *fakeDirectory) CreateChannel(ctx context.Context, spec domain.ChannelSpec) (string, error) {
	f.createChannelCalls++
	if f.failCreateChannelAt != 0 && f.createChannelCalls == f.failCreateChannelAt {
		return "", fmt.Errorf("api caída creando %q", spec.Name)
	}
	id := f.nextID("chan")
	f.channels[id] = spec
	return id, nil
}

func (f *fakeDirectory) EditChannel(ctx context.Context, channelID string, class domain.ChannelClass, p domain.ChannelPatch) error {
	spec, ok := f.channels[channelID]
	if !ok {
		return fmt.Errorf("canal %s no existe", channelID)
	}
	if p.Name != nil {
		spec.Name = *p.Name
	}
	if p.CategoryID != nil {
		spec.CategoryID = *p.CategoryID
	}
	if p.Overwrites != nil {
		spec.Overwrites = p.Overwrites
	}
	f.channels[channelID] = spec
	return nil
}

func (f *fakeDirectory) DeleteChannel(ctx context.Context, channelID string) error {
	f.deleteChannelCalls++
	if f.failDeleteChannelAt != 0 && f.deleteChannelCalls == f.failDeleteChannelAt {
		return fmt.Errorf("api caída borrando %s", channelID)
	}
	// borrar lo inexistente es no-op, como un 404 tragado por el adapter
	delete(f.channels, channelID)
	return nil
}

func (f *fakeDirectory) GrantRole(ctx context.Context, memberID, roleID string) error {
	f.grantCalls++
	if f.failGrantAt != 0 && f.grantCalls == f.failGrantAt {
		return fmt.Errorf("api caída otorgando %s a %s", roleID, memberID)
	}
	if f.memberRoles[memberID] == nil {
		f.memberRoles[memberID] = map[string]struct{}{}
	}
	f.memberRoles[memberID][roleID] = struct{}{}
	return nil
}

func (f *fakeDirectory) RevokeRole(ctx context.Context, memberID, roleID string) error {
	f.revokeCalls++
	if f.failRevokeAt != 0 && f.revokeCalls == f.failRevokeAt {
		return fmt.Errorf("api caída revocando %s a %s", roleID, memberID)
	}
	delete(f.memberRoles[memberID], roleID)
	return nil
}

func (f *fakeDirectory) MemberRoles(ctx context.Context, memberID string) ([]string, error) {
	out := make([]string, 0, len(f.memberRoles[memberID]))
	for id := range f.memberRoles[memberID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeDirectory) MembersWithRole(ctx context.Context, roleID string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for member, set := range f.memberRoles {
		if _, ok := set[roleID]; ok {
			out[member] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeDirectory) memberHas(memberID, roleID string) bool {
	_, ok := f.memberRoles[memberID][roleID]
	return ok
}

// ---------- repos ----------

type fakeTeamRepo struct {
	teams     map[string]domain.Team
	upsertErr error
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: map[string]domain.Team{}}
}

func teamKey(tt domain.TeamType, name string) string {
	return string(tt) + "/" + name
}

func (f *fakeTeamRepo) Get(ctx context.Context, tt domain.TeamType, name string) (domain.Team, error) {
	t, ok := f.teams[teamKey(tt, name)]
	if !ok {
		return domain.Team{}, storage.ErrNotFound
	}
	return t, nil
}

func (f *fakeTeamRepo) Upsert(ctx context.Context, t domain.Team) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.teams[teamKey(t.Type, t.Name)] = t
	return nil
}

func (f *fakeTeamRepo) Remove(ctx context.Context, tt domain.TeamType, name string) (bool, error) {
	k := teamKey(tt, name)
	_, ok := f.teams[k]
	delete(f.teams, k)
	return ok, nil
}

func (f *fakeTeamRepo) RenameOrRetype(ctx context.Context, oldType domain.TeamType, oldName string, t domain.Team) error {
	delete(f.teams, teamKey(oldType, oldName))
	f.teams[teamKey(t.Type, t.Name)] = t
	return nil
}

func (f *fakeTeamRepo) ListAll(ctx context.Context, tt domain.TeamType) (map[string]domain.Team, error) {
	out := map[string]domain.Team{}
	for _, t := range f.teams {
		if t.Type == tt {
			out[t.Name] = t
		}
	}
	return out, nil
}

type fakeRosterRepo struct {
	lists       map[string]map[string]struct{}
	replaceAlls int
}

func newFakeRosterRepo() *fakeRosterRepo {
	return &fakeRosterRepo{lists: map[string]map[string]struct{}{}}
}

func (f *fakeRosterRepo) set(list string) map[string]struct{} {
	if f.lists[list] == nil {
		f.lists[list] = map[string]struct{}{}
	}
	return f.lists[list]
}

func (f *fakeRosterRepo) List(ctx context.Context, list string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for id := range f.lists[list] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (f *fakeRosterRepo) AddMany(ctx context.Context, list string, memberIDs []string) error {
	s := f.set(list)
	for _, id := range memberIDs {
		s[id] = struct{}{}
	}
	return nil
}

func (f *fakeRosterRepo) RemoveMany(ctx context.Context, list string, memberIDs []string) error {
	s := f.set(list)
	for _, id := range memberIDs {
		delete(s, id)
	}
	return nil
}

func (f *fakeRosterRepo) ReplaceAll(ctx context.Context, list string, memberIDs []string) error {
	f.replaceAlls++
	s := map[string]struct{}{}
	for _, id := range memberIDs {
		s[id] = struct{}{}
	}
	f.lists[list] = s
	return nil
}

type loggedOp struct {
	kind    string
	name    string
	success bool
}

type fakeOpLog struct {
	entries []loggedOp
}

func (f *fakeOpLog) Insert(ctx context.Context, kind string, tt domain.TeamType, name string, success bool, reportJSON []byte) error {
	f.entries = append(f.entries, loggedOp{kind: kind, name: name, success: success})
	return nil
}

// ---------- config ----------

type fakeConfig struct {
	snap *rolecfg.Snapshot
}

func (f *fakeConfig) Snapshot() *rolecfg.Snapshot { return f.snap }

func testSnapshot() *rolecfg.Snapshot {
	var s rolecfg.Snapshot
	s.Roles.CommunityTeam = "g-community"
	s.Roles.CompetitiveTeam = "g-competitive"
	s.Roles.DiscordAdmin = "g-admin"
	s.Roles.MemberManagement = "g-mgmt"
	s.Roles.CoLead = "g-colead"
	s.Roles.NoConnect = "g-noconnect"
	s.CommunityCategoryID = "cat-community"
	s.CompetitiveCategoryID = "cat-competitive"
	s.LFTRoleID = "g-lft"
	s.ClanMemberRoleID = "g-clan"
	s.CaptainRoleID = "g-captain"
	return &s
}
