package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mmhelfer/teambot/internal/domain"
)

// DefaultPace es la pausa fija tras cada llamada exitosa: mejor quedarse
// abajo del rate limit proactivamente que comerse 429s.
const (
	DefaultPace       = 1600 * time.Millisecond
	defaultBaseDelay  = 1 * time.Second
	defaultMaxRetries = 5
)

// ErrRetriesExhausted: el rate limit persistió más allá del techo de reintentos.
var ErrRetriesExhausted = errors.New("rate limit: reintentos agotados")

type Option func(*Directory)

func WithPace(d time.Duration) Option      { return func(dir *Directory) { dir.pace = d } }
func WithMaxRetries(n int) Option          { return func(dir *Directory) { dir.maxRetries = n } }
func WithBaseDelay(d time.Duration) Option { return func(dir *Directory) { dir.baseDelay = d } }
func withSleep(fn sleepFunc) Option        { return func(dir *Directory) { dir.sleep = fn } }

type sleepFunc func(ctx context.Context, d time.Duration) error

// Directory es el único punto por donde pasan las mutaciones al servicio de
// directorio (Discord): serializa, marca el paso y reintenta en 429 usando
// el hint del server o backoff exponencial. Cualquier otro error sube directo.
type Directory struct {
	s       *discordgo.Session
	guildID string

	pace       time.Duration
	baseDelay  time.Duration
	maxRetries int
	sleep      sleepFunc
}

func NewDirectory(s *discordgo.Session, guildID string, opts ...Option) *Directory {
	d := &Directory{
		s:          s,
		guildID:    guildID,
		pace:       DefaultPace,
		baseDelay:  defaultBaseDelay,
		maxRetries: defaultMaxRetries,
		sleep:      sleepCtx,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// invoke envuelve una llamada externa con la política de rate limit.
func (d *Directory) invoke(ctx context.Context, label string, call func() error) error {
	for attempt := 0; ; attempt++ {
		err := call()
		if err == nil {
			return d.sleep(ctx, d.pace)
		}

		var rl *discordgo.RateLimitError
		if !errors.As(err, &rl) {
			return fmt.Errorf("%s: %w", label, err)
		}
		if attempt+1 >= d.maxRetries {
			log.Printf("[directory] %s: rate limit tras %d intentos, abandono", label, d.maxRetries)
			return fmt.Errorf("%s: %w", label, ErrRetriesExhausted)
		}
		wait := rl.RetryAfter
		if wait <= 0 {
			wait = d.baseDelay << attempt
		}
		log.Printf("[directory] rate limit en %s, reintento en %s (%d/%d)", label, wait, attempt+1, d.maxRetries)
		if err := d.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// isUnknown detecta los 404 de Discord (rol/canal/miembro ya no existe).
func isUnknown(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) || rest.Message == nil {
		return false
	}
	switch rest.Message.Code {
	case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownRole, discordgo.ErrCodeUnknownMember:
		return true
	}
	return false
}

// ---------- roles ----------

func (d *Directory) CreateRole(ctx context.Context, name string, hoist bool) (string, error) {
	var created *discordgo.Role
	color := 0xE67E22 // naranja, el color de los teams
	mentionable := true
	err := d.invoke(ctx, "role.create "+name, func() error {
		var err error
		created, err = d.s.GuildRoleCreate(d.guildID, &discordgo.RoleParams{
			Name:        name,
			Color:       &color,
			Hoist:       &hoist,
			Mentionable: &mentionable,
		})
		return err
	})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (d *Directory) EditRole(ctx context.Context, roleID string, p domain.RolePatch) error {
	params := &discordgo.RoleParams{}
	if p.Name != nil {
		params.Name = *p.Name
	}
	params.Hoist = p.Hoist
	return d.invoke(ctx, "role.edit "+roleID, func() error {
		_, err := d.s.GuildRoleEdit(d.guildID, roleID, params)
		return err
	})
}

func (d *Directory) DeleteRole(ctx context.Context, roleID string) error {
	return d.invoke(ctx, "role.delete "+roleID, func() error {
		return d.s.GuildRoleDelete(d.guildID, roleID)
	})
}

// RoleExists consulta si el rol todavía resuelve a un objeto vivo.
func (d *Directory) RoleExists(ctx context.Context, roleID string) (bool, error) {
	var roles []*discordgo.Role
	err := d.invoke(ctx, "role.list", func() error {
		var err error
		roles, err = d.s.GuildRoles(d.guildID)
		return err
	})
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if r.ID == roleID {
			return true, nil
		}
	}
	return false, nil
}

// ---------- canales ----------

func (d *Directory) CreateChannel(ctx context.Context, spec domain.ChannelSpec) (string, error) {
	data := discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		ParentID:             spec.CategoryID,
		PermissionOverwrites: buildOverwrites(d.guildID, spec.Overwrites, spec.Class),
	}
	if spec.Class == domain.ClassText {
		data.Type = discordgo.ChannelTypeGuildText
	} else {
		data.Type = discordgo.ChannelTypeGuildVoice
		data.Bitrate = 64000
	}
	var ch *discordgo.Channel
	err := d.invoke(ctx, "channel.create "+spec.Name, func() error {
		var err error
		ch, err = d.s.GuildChannelCreateComplex(d.guildID, data)
		return err
	})
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

func (d *Directory) EditChannel(ctx context.Context, channelID string, class domain.ChannelClass, p domain.ChannelPatch) error {
	edit := &discordgo.ChannelEdit{}
	if p.Name != nil {
		edit.Name = *p.Name
	}
	if p.CategoryID != nil {
		edit.ParentID = *p.CategoryID
	}
	if p.Overwrites != nil {
		edit.PermissionOverwrites = buildOverwrites(d.guildID, p.Overwrites, class)
	}
	return d.invoke(ctx, "channel.edit "+channelID, func() error {
		_, err := d.s.ChannelEdit(channelID, edit)
		return err
	})
}

// DeleteChannel trata el 404 como "ya satisfecho".
func (d *Directory) DeleteChannel(ctx context.Context, channelID string) error {
	err := d.invoke(ctx, "channel.delete "+channelID, func() error {
		_, err := d.s.ChannelDelete(channelID)
		return err
	})
	if err != nil && isUnknown(err) {
		return nil
	}
	return err
}

// ---------- membresías ----------

func (d *Directory) GrantRole(ctx context.Context, memberID, roleID string) error {
	return d.invoke(ctx, "member.grant "+memberID, func() error {
		return d.s.GuildMemberRoleAdd(d.guildID, memberID, roleID)
	})
}

func (d *Directory) RevokeRole(ctx context.Context, memberID, roleID string) error {
	err := d.invoke(ctx, "member.revoke "+memberID, func() error {
		return d.s.GuildMemberRoleRemove(d.guildID, memberID, roleID)
	})
	if err != nil && isUnknown(err) {
		return nil
	}
	return err
}

// MemberRoles devuelve los roles actuales del miembro (state primero,
// REST como fallback — mismo patrón que para canales).
func (d *Directory) MemberRoles(ctx context.Context, memberID string) ([]string, error) {
	if m, err := d.s.State.Member(d.guildID, memberID); err == nil && m != nil {
		return m.Roles, nil
	}
	var m *discordgo.Member
	err := d.invoke(ctx, "member.get "+memberID, func() error {
		var err error
		m, err = d.s.GuildMember(d.guildID, memberID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m.Roles, nil
}

// MembersWithRole enumera el guild completo por páginas y filtra por rol.
// Es la fuente de verdad de la reconciliación.
func (d *Directory) MembersWithRole(ctx context.Context, roleID string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	after := ""
	for {
		var page []*discordgo.Member
		err := d.invoke(ctx, "member.list", func() error {
			var err error
			page, err = d.s.GuildMembers(d.guildID, after, 1000)
			return err
		})
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return out, nil
		}
		for _, m := range page {
			for _, r := range m.Roles {
				if r == roleID {
					out[m.User.ID] = struct{}{}
					break
				}
			}
		}
		if len(page) < 1000 {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}
