package domain

import "errors"

// TeamType particiona el registro: cada team vive bajo exactamente un tipo.
type TeamType string

const (
	TypeCommunity   TeamType = "Community"
	TypeCompetitive TeamType = "Competitive"
)

func ParseTeamType(s string) (TeamType, error) {
	switch TeamType(s) {
	case TypeCommunity:
		return TypeCommunity, nil
	case TypeCompetitive:
		return TypeCompetitive, nil
	}
	return "", errors.New("team type inválido: " + s)
}

// MaxMembers incluye al captain si está seteado.
const MaxMembers = 7

// Team es el registro durable de un team: identidad + bindings externos.
// Los IDs son snowflakes de Discord en formato string.
type Team struct {
	Name                  string
	Type                  TeamType
	RoleID                string
	TextChannelID         string
	VoiceChannelID        string
	PrivateVoiceChannelID string // sólo Competitive
	CaptainID             string // vacío si no hay captain
	MemberIDs             []string
}

// HasMember no asume orden en MemberIDs.
func (t *Team) HasMember(id string) bool {
	for _, m := range t.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// ChannelIDs devuelve los IDs de canal presentes (omite vacíos).
func (t *Team) ChannelIDs() []string {
	var out []string
	for _, id := range []string{t.TextChannelID, t.VoiceChannelID, t.PrivateVoiceChannelID} {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// CreateIntent llega validada desde el front-end (nombre, tipo, ≤7 miembros,
// captain incluido en members si está seteado). El orquestador no la muta.
type CreateIntent struct {
	Name      string
	Type      TeamType
	MemberIDs []string
	CaptainID string
}

func (in CreateIntent) Validate() error {
	if in.Name == "" {
		return errors.New("falta el nombre del team")
	}
	if in.Type != TypeCommunity && in.Type != TypeCompetitive {
		return errors.New("team type inválido")
	}
	if len(in.MemberIDs) > MaxMembers {
		return errors.New("máximo 7 miembros por team")
	}
	if in.CaptainID != "" {
		found := false
		for _, m := range in.MemberIDs {
			if m == in.CaptainID {
				found = true
				break
			}
		}
		if !found {
			return errors.New("el captain debe estar entre los miembros")
		}
	}
	return nil
}

// Changeset describe una edición: cada campo es opcional e independiente.
// El orden de aplicación es fijo: rename → retype → captain → add → remove.
type Changeset struct {
	Rename        *string
	Retype        *TeamType
	CaptainChange *string // puntero no-nil con "" limpia el captain
	AddMembers    []string
	RemoveMembers []string
}

func (c Changeset) Empty() bool {
	return c.Rename == nil && c.Retype == nil && c.CaptainChange == nil &&
		len(c.AddMembers) == 0 && len(c.RemoveMembers) == 0
}
