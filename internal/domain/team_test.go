package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIntentValidate(t *testing.T) {
	valid := CreateIntent{
		Name:      "Falcons",
		Type:      TypeCompetitive,
		MemberIDs: []string{"1", "2", "3"},
		CaptainID: "1",
	}
	require.NoError(t, valid.Validate())

	t.Run("nombre obligatorio", func(t *testing.T) {
		in := valid
		in.Name = ""
		assert.Error(t, in.Validate())
	})

	t.Run("tipo inválido", func(t *testing.T) {
		in := valid
		in.Type = "Casual"
		assert.Error(t, in.Validate())
	})

	t.Run("máximo 7 miembros", func(t *testing.T) {
		in := valid
		in.MemberIDs = []string{"1", "2", "3", "4", "5", "6", "7", "8"}
		assert.Error(t, in.Validate())

		in.MemberIDs = in.MemberIDs[:7]
		assert.NoError(t, in.Validate())
	})

	t.Run("captain debe ser miembro", func(t *testing.T) {
		in := valid
		in.CaptainID = "99"
		assert.Error(t, in.Validate())

		in.CaptainID = "" // sin captain vale
		assert.NoError(t, in.Validate())
	})
}

func TestParseTeamType(t *testing.T) {
	tt, err := ParseTeamType("Community")
	require.NoError(t, err)
	assert.Equal(t, TypeCommunity, tt)

	tt, err = ParseTeamType("Competitive")
	require.NoError(t, err)
	assert.Equal(t, TypeCompetitive, tt)

	_, err = ParseTeamType("community") // case-sensitive a propósito
	assert.Error(t, err)
}

func TestChannelIDs(t *testing.T) {
	team := Team{TextChannelID: "t", VoiceChannelID: "v"}
	assert.Equal(t, []string{"t", "v"}, team.ChannelIDs())

	team.PrivateVoiceChannelID = "p"
	assert.Equal(t, []string{"t", "v", "p"}, team.ChannelIDs())
}

func TestChangesetEmpty(t *testing.T) {
	assert.True(t, Changeset{}.Empty())

	empty := ""
	assert.False(t, Changeset{CaptainChange: &empty}.Empty(), "limpiar captain es un cambio")
	assert.False(t, Changeset{AddMembers: []string{"1"}}.Empty())
}

func TestChannelNames(t *testing.T) {
	t.Run("texto: espacios a guiones", func(t *testing.T) {
		assert.Equal(t, "night-owls", TextChannelName("night owls"))
	})

	t.Run("voice: prefijo y sin espacios", func(t *testing.T) {
		assert.Equal(t, "🔸NightOwls", VoiceChannelName("Night Owls"))
	})

	t.Run("voice privado: prefijo candado, espacios intactos", func(t *testing.T) {
		assert.Equal(t, "🔒 Night Owls", PrivateVoiceChannelName("Night Owls"))
	})

	t.Run("clamp a 100 bytes sin partir runas", func(t *testing.T) {
		long := strings.Repeat("ñ", 120)
		got := VoiceChannelName(long)
		assert.LessOrEqual(t, len(got), 100)
		assert.True(t, strings.HasPrefix(got, "🔸"))
		// sigue siendo utf-8 válido
		assert.Equal(t, got, string([]rune(got)))
	})

	t.Run("dispatch por clase", func(t *testing.T) {
		assert.Equal(t, TextChannelName("x y"), ChannelNameFor(ClassText, "x y"))
		assert.Equal(t, VoiceChannelName("x y"), ChannelNameFor(ClassVoice, "x y"))
		assert.Equal(t, PrivateVoiceChannelName("x y"), ChannelNameFor(ClassPrivateVoice, "x y"))
	})
}
