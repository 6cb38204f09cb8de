package discord

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mmhelfer/teambot/internal/app/service"
	"github.com/mmhelfer/teambot/internal/domain"
	"github.com/mmhelfer/teambot/internal/infra/storage"
)

// Los workflows de team encadenan muchas llamadas pacificadas contra la API,
// así que el deadline es generoso; el token del defer dura 15 minutos.
const workflowTimeout = 10 * time.Minute

type Router struct {
	s       *discordgo.Session
	guildID string

	adminRoleIDs []string
	limiter      *userLimiter

	teams  *service.TeamService
	roster *service.RosterService
}

func NewRouter(
	s *discordgo.Session,
	guildID string,
	adminRoleIDs []string,
	teams *service.TeamService,
	roster *service.RosterService,
) *Router {
	return &Router{
		s:            s,
		guildID:      guildID,
		adminRoleIDs: adminRoleIDs,
		limiter:      newUserLimiter(5 * time.Second),
		teams:        teams,
		roster:       roster,
	}
}

func (r *Router) Register() error {
	appID := r.s.State.User.ID
	for _, cmd := range Commands {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic.Type != discordgo.InteractionApplicationCommand {
			return
		}
		data := ic.ApplicationCommandData()
		log.Printf("slash: /%s by=%s guild=%s", data.Name, ic.Member.User.ID, ic.GuildID)

		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic in slash /%s: %v", data.Name, rec)
				ReplyEphemeral(s, ic, "⚠️ Ocurrió un error inesperado.")
			}
		}()

		// Todos los comandos del bot son de administración.
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
		if !r.limiter.Allow(ic.Member.User.ID) {
			_ = SendEphemeral(s, ic, "⏳ Esperá unos segundos antes del próximo comando.")
			return
		}

		_ = DeferEphemeral(s, ic)
		ctx, cancel := context.WithTimeout(context.Background(), workflowTimeout)
		defer cancel()

		switch data.Name {
		case "team":
			r.handleTeam(ctx, s, ic, data)
		case "roster":
			r.handleRoster(ctx, s, ic, data)
		}
	})
}

// ---------- /team ----------

func (r *Router) handleTeam(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if len(data.Options) == 0 {
		ReplyEphemeral(s, ic, "Usa `/team create`, `/team edit`, `/team delete` o `/team list`.")
		return
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)

	tt, err := domain.ParseTeamType(stringOpt(opts, "type"))
	if err != nil {
		ReplyEphemeral(s, ic, "⚠️ "+err.Error())
		return
	}

	switch sub.Name {
	case "create":
		in := domain.CreateIntent{
			Name:      stringOpt(opts, "name"),
			Type:      tt,
			MemberIDs: parseMemberIDs(stringOpt(opts, "members")),
		}
		if u := userOpt(opts, "captain"); u != "" {
			in.CaptainID = u
			if !contains(in.MemberIDs, u) {
				in.MemberIDs = append(in.MemberIDs, u)
			}
		}
		rep, err := r.teams.Create(ctx, in)
		r.replyReport(s, ic, rep, err)

	case "delete":
		rep, err := r.teams.Delete(ctx, tt, stringOpt(opts, "name"))
		r.replyReport(s, ic, rep, err)

	case "edit":
		var ch domain.Changeset
		if v := stringOpt(opts, "new_name"); v != "" {
			ch.Rename = &v
		}
		if v := stringOpt(opts, "new_type"); v != "" {
			nt, err := domain.ParseTeamType(v)
			if err != nil {
				ReplyEphemeral(s, ic, "⚠️ "+err.Error())
				return
			}
			ch.Retype = &nt
		}
		if u := userOpt(opts, "captain"); u != "" {
			ch.CaptainChange = &u
		} else if o, ok := opts["clear_captain"]; ok && o.BoolValue() {
			empty := ""
			ch.CaptainChange = &empty
		}
		ch.AddMembers = parseMemberIDs(stringOpt(opts, "add_members"))
		ch.RemoveMembers = parseMemberIDs(stringOpt(opts, "remove_members"))
		rep, err := r.teams.Edit(ctx, tt, stringOpt(opts, "name"), ch)
		r.replyReport(s, ic, rep, err)

	case "list":
		teams, err := r.teams.ListAll(ctx, tt)
		if err != nil {
			ReplyEphemeral(s, ic, "⚠️ No pude listar los teams: "+err.Error())
			return
		}
		if len(teams) == 0 {
			ReplyEphemeral(s, ic, fmt.Sprintf("No hay teams **%s** registrados.", tt))
			return
		}
		names := make([]string, 0, len(teams))
		for name := range teams {
			names = append(names, name)
		}
		sort.Strings(names)
		var b strings.Builder
		fmt.Fprintf(&b, "**Teams %s (%d):**\n", tt, len(teams))
		for _, name := range names {
			t := teams[name]
			fmt.Fprintf(&b, "• **%s** — %d miembros", t.Name, len(t.MemberIDs))
			if t.CaptainID != "" {
				fmt.Fprintf(&b, ", captain <@%s>", t.CaptainID)
			}
			b.WriteString("\n")
		}
		ReplyEphemeral(s, ic, b.String())
	}
}

// ---------- /roster ----------

func (r *Router) handleRoster(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if len(data.Options) == 0 || len(data.Options[0].Options) == 0 {
		ReplyEphemeral(s, ic, "Usa `/roster lft|clan add|remove|list`.")
		return
	}
	group := data.Options[0]
	sub := group.Options[0]

	list := storage.ListLFT
	if group.Name == "clan" {
		list = storage.ListClan
	}

	switch sub.Name {
	case "add", "remove":
		ids := parseMemberIDs(stringOpt(optionMap(sub.Options), "members"))
		if len(ids) == 0 {
			ReplyEphemeral(s, ic, "⚠️ No reconocí ningún miembro.")
			return
		}
		var err error
		if sub.Name == "add" {
			err = r.roster.Add(ctx, list, ids)
		} else {
			err = r.roster.Remove(ctx, list, ids)
		}
		if err != nil {
			ReplyEphemeral(s, ic, "⚠️ No se pudo actualizar la lista: "+err.Error())
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ Lista **%s** actualizada (%d miembros tocados).", group.Name, len(ids)))

	case "list":
		ids, err := r.roster.List(ctx, list)
		if err != nil {
			ReplyEphemeral(s, ic, "⚠️ No pude leer la lista: "+err.Error())
			return
		}
		if len(ids) == 0 {
			ReplyEphemeral(s, ic, fmt.Sprintf("La lista **%s** está vacía.", group.Name))
			return
		}
		mentions := make([]string, len(ids))
		for i, id := range ids {
			mentions[i] = "<@" + id + ">"
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("**%s (%d):** %s", group.Name, len(ids), strings.Join(mentions, ", ")))
	}
}

// ---------- helpers ----------

func (r *Router) replyReport(s *discordgo.Session, ic *discordgo.InteractionCreate, rep *service.Report, err error) {
	if rep == nil {
		msg := "⚠️ No se pudo ejecutar la operación."
		if err != nil {
			msg = "⚠️ " + err.Error()
		}
		ReplyEphemeral(s, ic, msg)
		return
	}
	ReplyEphemeral(s, ic, rep.Summary())
}

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func stringOpt(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if o, ok := m[name]; ok {
		return o.StringValue()
	}
	return ""
}

func userOpt(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if o, ok := m[name]; ok {
		if v, isStr := o.Value.(string); isStr {
			return v
		}
	}
	return ""
}

// parseMemberIDs acepta menciones (<@id>, <@!id>) o IDs pelados, separados
// por espacios o comas, y deduplica preservando el orden.
func parseMemberIDs(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\n'
	})
	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		id := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(f, "<@!"), "<@"), ">")
		id = strings.TrimSpace(id)
		if id == "" || !isSnowflake(id) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func isSnowflake(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
