package rolecfg

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mmhelfer/teambot/internal/domain"
)

// Snapshot es el documento de roles/categorías ya tipado y validado.
// Es inmutable desde el punto de vista de los workflows: cada operación
// toma un snapshot y trabaja con él hasta terminar.
type Snapshot struct {
	Roles struct {
		CommunityTeam    string `json:"community_team"`
		CompetitiveTeam  string `json:"competitive_team"`
		DiscordAdmin     string `json:"discord_admin"`
		MemberManagement string `json:"member_management"`
		CoLead           string `json:"co_lead"`
		Coach            string `json:"coach"`
		Caster           string `json:"caster"`
		CoCaster         string `json:"co_caster"`
		RookieCaster     string `json:"rookie_caster"`
		TeamCreator      string `json:"team_creator"`
		Honorary         string `json:"honorary"`
		Mafia            string `json:"mafia"`
		NoConnect        string `json:"no_connect"`
	} `json:"roles"`
	AdditionalRoles map[string][]string `json:"additional_roles"`

	CommunityCategoryID   string `json:"community_category_id"`
	CompetitiveCategoryID string `json:"competitive_category_id"`

	LFTRoleID        string `json:"lft_role_id"`
	ClanMemberRoleID string `json:"clan_member_role_id"`
	CaptainRoleID    string `json:"captain_role_id"`
}

// Validate falla rápido en carga: mejor un error acá que un rol nil
// descubierto a mitad de un workflow.
func (s *Snapshot) Validate() error {
	var missing []string
	req := map[string]string{
		"roles.community_team":    s.Roles.CommunityTeam,
		"roles.competitive_team":  s.Roles.CompetitiveTeam,
		"community_category_id":   s.CommunityCategoryID,
		"competitive_category_id": s.CompetitiveCategoryID,
		"lft_role_id":             s.LFTRoleID,
		"clan_member_role_id":     s.ClanMemberRoleID,
		"captain_role_id":         s.CaptainRoleID,
	}
	for k, v := range req {
		if v == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("rolecfg: faltan claves requeridas: %s", strings.Join(missing, ", "))
	}
	for class := range s.AdditionalRoles {
		switch domain.ChannelClass(class) {
		case domain.ClassText, domain.ClassVoice, domain.ClassPrivateVoice:
		default:
			return fmt.Errorf("rolecfg: clase de canal desconocida en additional_roles: %q", class)
		}
	}
	return nil
}

// CategoryFor devuelve la categoría destino del tipo de team.
func (s *Snapshot) CategoryFor(tt domain.TeamType) string {
	if tt == domain.TypeCompetitive {
		return s.CompetitiveCategoryID
	}
	return s.CommunityCategoryID
}

// GenericRoleFor devuelve el rol genérico del tipo ("Community Team" / "Competitive Team").
func (s *Snapshot) GenericRoleFor(tt domain.TeamType) string {
	if tt == domain.TypeCompetitive {
		return s.Roles.CompetitiveTeam
	}
	return s.Roles.CommunityTeam
}

// Policy arma el input del resolver de overwrites.
func (s *Snapshot) Policy() domain.OverwritePolicy {
	add := make(map[domain.ChannelClass][]string, len(s.AdditionalRoles))
	for class, ids := range s.AdditionalRoles {
		add[domain.ChannelClass(class)] = ids
	}
	return domain.OverwritePolicy{
		Staff: domain.StaffRoles{
			CommunityTeam:    s.Roles.CommunityTeam,
			CompetitiveTeam:  s.Roles.CompetitiveTeam,
			DiscordAdmin:     s.Roles.DiscordAdmin,
			MemberManagement: s.Roles.MemberManagement,
			CoLead:           s.Roles.CoLead,
			Coach:            s.Roles.Coach,
			Caster:           s.Roles.Caster,
			CoCaster:         s.Roles.CoCaster,
			RookieCaster:     s.Roles.RookieCaster,
			TeamCreator:      s.Roles.TeamCreator,
			Honorary:         s.Roles.Honorary,
			Mafia:            s.Roles.Mafia,
			NoConnect:        s.Roles.NoConnect,
		},
		AdditionalRoles: add,
	}
}

// Store carga el documento desde disco y lo recarga bajo demanda.
// El archivo lo edita gente, no el bot: acá sólo se lee.
type Store struct {
	path string

	mu   sync.RWMutex
	snap *Snapshot
}

func NewStore(path string) *Store { return &Store{path: path} }

func (st *Store) Load() error {
	raw, err := os.ReadFile(st.path)
	if err != nil {
		return fmt.Errorf("rolecfg: leyendo %s: %w", st.path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("rolecfg: parseando %s: %w", st.path, err)
	}
	if err := snap.Validate(); err != nil {
		return err
	}
	st.mu.Lock()
	st.snap = &snap
	st.mu.Unlock()
	return nil
}

// Snapshot devuelve el último documento válido cargado.
func (st *Store) Snapshot() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.snap
}
