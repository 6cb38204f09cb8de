package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() OverwritePolicy {
	return OverwritePolicy{
		Staff: StaffRoles{
			CommunityTeam:    "r-community",
			CompetitiveTeam:  "r-competitive",
			DiscordAdmin:     "r-admin",
			MemberManagement: "r-mgmt",
			CoLead:           "r-colead",
			Coach:            "r-coach",
			Caster:           "r-caster",
			CoCaster:         "r-cocaster",
			RookieCaster:     "r-rookie",
			TeamCreator:      "r-creator",
			Honorary:         "r-honorary",
			Mafia:            "r-mafia",
			NoConnect:        "r-noconnect",
		},
	}
}

func TestResolveOverwrites(t *testing.T) {
	pol := testPolicy()

	t.Run("everyone siempre con view denegado", func(t *testing.T) {
		for _, tt := range []TeamType{TypeCommunity, TypeCompetitive} {
			for _, class := range Classes(tt) {
				ow := ResolveOverwrites(tt, class, "team-role", pol)
				g, ok := ow[EveryonePrincipal]
				require.True(t, ok, "%s/%s sin entrada para everyone", tt, class)
				assert.True(t, g.DenyView)
				assert.False(t, g.View)
			}
		}
	})

	t.Run("canal de texto: team chatea, admins administran", func(t *testing.T) {
		ow := ResolveOverwrites(TypeCommunity, ClassText, "team-role", pol)

		assert.Equal(t, Grant{View: true, Chat: true}, ow["team-role"])
		assert.Equal(t, Grant{View: true, Chat: true, Manage: true}, ow["r-admin"])
		assert.Equal(t, Grant{View: true, Chat: true, Manage: true}, ow["r-mgmt"])
		assert.Equal(t, Grant{View: true, Chat: true}, ow["r-colead"])
		// staff de voz no aparece en texto
		assert.NotContains(t, ow, "r-caster")
		assert.NotContains(t, ow, "r-noconnect")
	})

	t.Run("voice: co-lead administra sólo en competitive", func(t *testing.T) {
		community := ResolveOverwrites(TypeCommunity, ClassVoice, "team-role", pol)
		competitive := ResolveOverwrites(TypeCompetitive, ClassVoice, "team-role", pol)

		assert.False(t, community["r-colead"].Manage)
		assert.True(t, competitive["r-colead"].Manage)
		for _, ow := range []OverwriteSet{community, competitive} {
			assert.True(t, ow["team-role"].Move)
			assert.True(t, ow["r-creator"].Move)
			assert.True(t, ow["r-honorary"].Connect)
		}
	})

	t.Run("voice privado: subset restringido y rookie caster sin connect", func(t *testing.T) {
		ow := ResolveOverwrites(TypeCompetitive, ClassPrivateVoice, "team-role", pol)

		assert.NotContains(t, ow, "r-coach")
		assert.NotContains(t, ow, "r-honorary")
		assert.NotContains(t, ow, "r-community")
		g := ow["r-rookie"]
		assert.True(t, g.View)
		assert.True(t, g.DenyConnect)
		assert.False(t, g.Connect)
	})

	t.Run("no-connect gana aunque el rol tenga otro grant de voz", func(t *testing.T) {
		p := testPolicy()
		// mismo rol como caster y como no-connect: la denegación final manda
		p.Staff.Caster = "r-noconnect"
		ow := ResolveOverwrites(TypeCompetitive, ClassVoice, "team-role", p)

		g := ow["r-noconnect"]
		assert.True(t, g.View)
		assert.False(t, g.Connect)
		assert.True(t, g.DenyConnect)
	})

	t.Run("no-connect presente en todos los canales de voz", func(t *testing.T) {
		for _, class := range []ChannelClass{ClassVoice, ClassPrivateVoice} {
			ow := ResolveOverwrites(TypeCompetitive, class, "team-role", pol)
			g, ok := ow[pol.Staff.NoConnect]
			require.True(t, ok, "clase %s sin override no-connect", class)
			assert.True(t, g.DenyConnect)
		}
	})

	t.Run("roles adicionales suman sin degradar", func(t *testing.T) {
		p := testPolicy()
		p.AdditionalRoles = map[ChannelClass][]string{
			ClassVoice: {"r-extra", "r-admin"}, // r-admin ya tiene manage
		}
		ow := ResolveOverwrites(TypeCommunity, ClassVoice, "team-role", p)

		assert.Equal(t, Grant{View: true, Connect: true}, ow["r-extra"])
		assert.True(t, ow["r-admin"].Manage, "el grant de staff no se degrada")
	})

	t.Run("roles sin configurar se omiten", func(t *testing.T) {
		ow := ResolveOverwrites(TypeCommunity, ClassText, "team-role", OverwritePolicy{})
		assert.Len(t, ow, 2) // everyone + team role
		assert.Contains(t, ow, "team-role")
	})

	t.Run("determinista: dos corridas dan lo mismo", func(t *testing.T) {
		a := ResolveOverwrites(TypeCompetitive, ClassPrivateVoice, "team-role", pol)
		b := ResolveOverwrites(TypeCompetitive, ClassPrivateVoice, "team-role", pol)
		assert.Equal(t, a, b)
	})
}

func TestClasses(t *testing.T) {
	assert.Equal(t, []ChannelClass{ClassText, ClassVoice}, Classes(TypeCommunity))
	assert.Equal(t, []ChannelClass{ClassText, ClassVoice, ClassPrivateVoice}, Classes(TypeCompetitive))
}
