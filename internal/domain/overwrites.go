package domain

// ChannelClass distingue los tres canales que respalda un team.
type ChannelClass string

const (
	ClassText         ChannelClass = "text"
	ClassVoice        ChannelClass = "voice"
	ClassPrivateVoice ChannelClass = "private_voice"
)

// Classes devuelve las clases de canal requeridas por un tipo de team.
func Classes(tt TeamType) []ChannelClass {
	if tt == TypeCompetitive {
		return []ChannelClass{ClassText, ClassVoice, ClassPrivateVoice}
	}
	return []ChannelClass{ClassText, ClassVoice}
}

// EveryonePrincipal es el key del rol @everyone dentro de un OverwriteSet.
// El adapter lo traduce al ID real del guild.
const EveryonePrincipal = "@everyone"

// Grant es la tupla de capacidades de un principal sobre un canal.
// DenyView/DenyConnect son denegaciones explícitas (pesan más que un allow
// heredado de otro rol).
type Grant struct {
	View        bool
	Chat        bool // enviar mensajes (text)
	Connect     bool // conectar (voice)
	Move        bool
	Manage      bool
	DenyView    bool
	DenyConnect bool
}

// merge suma capacidades sin degradar lo ya otorgado.
func (g Grant) merge(o Grant) Grant {
	g.View = g.View || o.View
	g.Chat = g.Chat || o.Chat
	g.Connect = g.Connect || o.Connect
	g.Move = g.Move || o.Move
	g.Manage = g.Manage || o.Manage
	g.DenyView = g.DenyView || o.DenyView
	g.DenyConnect = g.DenyConnect || o.DenyConnect
	return g
}

// OverwriteSet mapea principal (role ID o EveryonePrincipal) → Grant.
// Es transitorio: se recalcula en cada creación/retype, nunca se persiste.
type OverwriteSet map[string]Grant

// StaffRoles son los roles semánticos que participan en los overwrites.
// IDs vacíos significan "no configurado" y se omiten del set.
type StaffRoles struct {
	CommunityTeam    string
	CompetitiveTeam  string
	DiscordAdmin     string
	MemberManagement string
	CoLead           string
	Coach            string
	Caster           string
	CoCaster         string
	RookieCaster     string
	TeamCreator      string
	Honorary         string
	Mafia            string
	NoConnect        string // override: puede ver, jamás conectar
}

// OverwritePolicy es el snapshot de configuración que consume el resolver.
type OverwritePolicy struct {
	Staff           StaffRoles
	AdditionalRoles map[ChannelClass][]string
}

// ResolveOverwrites computa los grants de un canal. Función pura: mismo
// input → mismo output, se invoca igual en la creación y en cada retype.
// El principal @everyone siempre queda con view denegado, y el rol NoConnect
// se aplica al final para que su denegación de connect gane siempre.
func ResolveOverwrites(tt TeamType, class ChannelClass, teamRoleID string, pol OverwritePolicy) OverwriteSet {
	ow := OverwriteSet{
		EveryonePrincipal: {DenyView: true},
	}

	grant := func(roleID string, g Grant) {
		if roleID == "" {
			return
		}
		ow[roleID] = ow[roleID].merge(g)
	}

	switch class {
	case ClassText:
		grant(teamRoleID, Grant{View: true, Chat: true})
		grant(pol.Staff.CoLead, Grant{View: true, Chat: true})
		grant(pol.Staff.DiscordAdmin, Grant{View: true, Chat: true, Manage: true})
		grant(pol.Staff.MemberManagement, Grant{View: true, Chat: true, Manage: true})
		grant(pol.Staff.TeamCreator, Grant{View: true, Chat: true})

	case ClassVoice:
		grant(teamRoleID, Grant{View: true, Connect: true, Move: true})
		// Co-Lead administra sólo los voices competitivos
		coLead := Grant{View: true, Connect: true}
		if tt == TypeCompetitive {
			coLead.Manage = true
		}
		grant(pol.Staff.CoLead, coLead)
		grant(pol.Staff.DiscordAdmin, Grant{View: true, Connect: true, Manage: true})
		grant(pol.Staff.MemberManagement, Grant{View: true, Connect: true, Manage: true})
		grant(pol.Staff.Coach, Grant{View: true, Connect: true})
		grant(pol.Staff.Caster, Grant{View: true, Connect: true})
		grant(pol.Staff.CoCaster, Grant{View: true, Connect: true})
		grant(pol.Staff.RookieCaster, Grant{View: true, Connect: true})
		grant(pol.Staff.TeamCreator, Grant{View: true, Connect: true, Move: true})
		grant(pol.Staff.CompetitiveTeam, Grant{View: true, Connect: true})
		grant(pol.Staff.CommunityTeam, Grant{View: true, Connect: true})
		grant(pol.Staff.Honorary, Grant{View: true, Connect: true})
		grant(pol.Staff.Mafia, Grant{View: true, Connect: true})

	case ClassPrivateVoice:
		grant(teamRoleID, Grant{View: true, Connect: true, Move: true})
		grant(pol.Staff.CoLead, Grant{View: true, Connect: true, Manage: true})
		grant(pol.Staff.DiscordAdmin, Grant{View: true, Connect: true, Manage: true})
		grant(pol.Staff.MemberManagement, Grant{View: true, Connect: true, Manage: true})
		grant(pol.Staff.Caster, Grant{View: true, Connect: true})
		grant(pol.Staff.CoCaster, Grant{View: true, Connect: true})
		grant(pol.Staff.RookieCaster, Grant{View: true, DenyConnect: true})
		grant(pol.Staff.Mafia, Grant{View: true, Connect: true})
		grant(pol.Staff.TeamCreator, Grant{View: true, Connect: true, Move: true})
	}

	// Roles ad-hoc de configuración: capacidad base de la clase, sin degradar.
	for _, roleID := range pol.AdditionalRoles[class] {
		if class == ClassText {
			grant(roleID, Grant{View: true, Chat: true})
		} else {
			grant(roleID, Grant{View: true, Connect: true})
		}
	}

	// El override NoConnect va último y gana siempre en los voices.
	if class != ClassText && pol.Staff.NoConnect != "" {
		g := ow[pol.Staff.NoConnect]
		g.View = true
		g.Connect = false
		g.DenyConnect = true
		ow[pol.Staff.NoConnect] = g
	}

	return ow
}
