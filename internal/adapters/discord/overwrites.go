package discord

import (
	"sort"

	"github.com/bwmarrin/discordgo"

	"github.com/mmhelfer/teambot/internal/domain"
)

// buildOverwrites traduce el set abstracto del resolver a los overwrites de
// Discord. El principal @everyone es el propio guild ID. Orden determinista
// para que dos resoluciones idénticas produzcan el mismo payload.
func buildOverwrites(guildID string, set domain.OverwriteSet, class domain.ChannelClass) []*discordgo.PermissionOverwrite {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*discordgo.PermissionOverwrite, 0, len(set))
	for _, id := range ids {
		g := set[id]
		principal := id
		if id == domain.EveryonePrincipal {
			principal = guildID
		}
		var allow, deny int64
		if g.View {
			allow |= discordgo.PermissionViewChannel
		}
		if g.Chat && class == domain.ClassText {
			allow |= discordgo.PermissionSendMessages
		}
		if g.Connect && class != domain.ClassText {
			allow |= discordgo.PermissionVoiceConnect
		}
		if g.Move && class != domain.ClassText {
			allow |= discordgo.PermissionVoiceMoveMembers
		}
		if g.Manage {
			allow |= discordgo.PermissionManageChannels
		}
		if g.DenyView {
			deny |= discordgo.PermissionViewChannel
			allow &^= discordgo.PermissionViewChannel
		}
		if g.DenyConnect && class != domain.ClassText {
			deny |= discordgo.PermissionVoiceConnect
			allow &^= discordgo.PermissionVoiceConnect
		}
		out = append(out, &discordgo.PermissionOverwrite{
			ID:    principal,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: allow,
			Deny:  deny,
		})
	}
	return out
}
