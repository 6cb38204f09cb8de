package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMemberIDs(t *testing.T) {
	t.Run("menciones e IDs mezclados", func(t *testing.T) {
		got := parseMemberIDs("<@111> <@!222>, 333")
		assert.Equal(t, []string{"111", "222", "333"}, got)
	})

	t.Run("deduplica preservando orden", func(t *testing.T) {
		got := parseMemberIDs("222 <@111> 222 <@!111>")
		assert.Equal(t, []string{"222", "111"}, got)
	})

	t.Run("descarta lo que no es snowflake", func(t *testing.T) {
		got := parseMemberIDs("pepe 123 @rol <#456>")
		assert.Equal(t, []string{"123"}, got)
	})

	t.Run("vacío", func(t *testing.T) {
		assert.Empty(t, parseMemberIDs(""))
		assert.Empty(t, parseMemberIDs("  ,  "))
	})
}
