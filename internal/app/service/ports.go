package service

import (
	"context"

	"github.com/mmhelfer/teambot/internal/domain"
	"github.com/mmhelfer/teambot/internal/infra/rolecfg"
)

// Lo implementa internal/adapters/discord.Directory. Es la única vía hacia
// el servicio externo: el orquestador jamás toca la sesión directamente.
type Directory interface {
	CreateRole(ctx context.Context, name string, hoist bool) (string, error)
	EditRole(ctx context.Context, roleID string, p domain.RolePatch) error
	DeleteRole(ctx context.Context, roleID string) error
	RoleExists(ctx context.Context, roleID string) (bool, error)

	CreateChannel(ctx context.Context, spec domain.ChannelSpec) (string, error)
	EditChannel(ctx context.Context, channelID string, class domain.ChannelClass, p domain.ChannelPatch) error
	DeleteChannel(ctx context.Context, channelID string) error

	GrantRole(ctx context.Context, memberID, roleID string) error
	RevokeRole(ctx context.Context, memberID, roleID string) error
	MemberRoles(ctx context.Context, memberID string) ([]string, error)
	MembersWithRole(ctx context.Context, roleID string) (map[string]struct{}, error)
}

// Lo implementa internal/infra/storage.TeamRepo
type TeamRepo interface {
	Get(ctx context.Context, tt domain.TeamType, name string) (domain.Team, error)
	Upsert(ctx context.Context, t domain.Team) error
	Remove(ctx context.Context, tt domain.TeamType, name string) (bool, error)
	RenameOrRetype(ctx context.Context, oldType domain.TeamType, oldName string, t domain.Team) error
	ListAll(ctx context.Context, tt domain.TeamType) (map[string]domain.Team, error)
}

// Lo implementa internal/infra/storage.RosterRepo
type RosterRepo interface {
	List(ctx context.Context, list string) (map[string]struct{}, error)
	AddMany(ctx context.Context, list string, memberIDs []string) error
	RemoveMany(ctx context.Context, list string, memberIDs []string) error
	ReplaceAll(ctx context.Context, list string, memberIDs []string) error
}

// Lo implementa internal/infra/storage.OpLogRepo
type OpLog interface {
	Insert(ctx context.Context, kind string, tt domain.TeamType, name string, success bool, reportJSON []byte) error
}

// ConfigSource entrega el snapshot vigente del documento de roles.
type ConfigSource interface {
	Snapshot() *rolecfg.Snapshot
}
