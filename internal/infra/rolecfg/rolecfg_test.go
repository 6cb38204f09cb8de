package rolecfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmhelfer/teambot/internal/domain"
)

const validDoc = `{
  "roles": {
    "community_team": "r-community",
    "competitive_team": "r-competitive",
    "discord_admin": "r-admin",
    "co_lead": "r-colead",
    "no_connect": "r-noconnect"
  },
  "additional_roles": {
    "voice": ["r-extra"]
  },
  "community_category_id": "cat-c",
  "competitive_category_id": "cat-x",
  "lft_role_id": "r-lft",
  "clan_member_role_id": "r-clan",
  "captain_role_id": "r-captain"
}`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "role_config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStoreLoad(t *testing.T) {
	t.Run("documento válido", func(t *testing.T) {
		st := NewStore(writeDoc(t, validDoc))
		require.NoError(t, st.Load())

		snap := st.Snapshot()
		require.NotNil(t, snap)
		assert.Equal(t, "r-community", snap.GenericRoleFor(domain.TypeCommunity))
		assert.Equal(t, "r-competitive", snap.GenericRoleFor(domain.TypeCompetitive))
		assert.Equal(t, "cat-x", snap.CategoryFor(domain.TypeCompetitive))
		assert.Equal(t, "r-lft", snap.LFTRoleID)

		pol := snap.Policy()
		assert.Equal(t, "r-noconnect", pol.Staff.NoConnect)
		assert.Equal(t, []string{"r-extra"}, pol.AdditionalRoles[domain.ClassVoice])
	})

	t.Run("claves faltantes: falla en la carga, no en runtime", func(t *testing.T) {
		st := NewStore(writeDoc(t, `{"roles": {"community_team": "x"}}`))
		err := st.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "competitive_team")
		assert.Contains(t, err.Error(), "captain_role_id")
		assert.Nil(t, st.Snapshot())
	})

	t.Run("clase desconocida en additional_roles", func(t *testing.T) {
		bad := writeDoc(t, `{
  "roles": {"community_team": "a", "competitive_team": "b"},
  "additional_roles": {"stage": ["r-x"]},
  "community_category_id": "c", "competitive_category_id": "d",
  "lft_role_id": "e", "clan_member_role_id": "f", "captain_role_id": "g"
}`)
		assert.Error(t, NewStore(bad).Load())
	})

	t.Run("json roto", func(t *testing.T) {
		assert.Error(t, NewStore(writeDoc(t, "{nope")).Load())
	})

	t.Run("archivo inexistente", func(t *testing.T) {
		assert.Error(t, NewStore("/no/existe.json").Load())
	})

	t.Run("recarga inválida conserva el snapshot anterior", func(t *testing.T) {
		path := writeDoc(t, validDoc)
		st := NewStore(path)
		require.NoError(t, st.Load())

		require.NoError(t, os.WriteFile(path, []byte("{roto"), 0o644))
		assert.Error(t, st.Load())
		assert.NotNil(t, st.Snapshot(), "la config vigente sigue sirviendo")
	})
}
