// internal/infra/discord/client.go
package discord

import (
	"errors"
	"fmt"
	"net/http"

	"birthday_card_bot/internal/domain/platform"

	"github.com/bwmarrin/discordgo"
)

const guildPageSize = 100

// SessionAdapter implements the platform.Client interface using the
// github.com/bwmarrin/discordgo library. All methods are plain REST calls, so
// the adapter works both from the long-running bot and from the one-shot
// scheduler binary without an open gateway connection.
type SessionAdapter struct {
	session *discordgo.Session
}

func NewSessionAdapter(s *discordgo.Session) *SessionAdapter {
	return &SessionAdapter{session: s}
}

// isNotFound reports whether err is a Discord 404, which the engine treats as
// an absence condition rather than a failure.
func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

func (a *SessionAdapter) Guilds() ([]platform.Guild, error) {
	guilds := make([]platform.Guild, 0)
	afterID := ""
	for {
		page, err := a.session.UserGuilds(guildPageSize, "", afterID, false)
		if err != nil {
			return nil, fmt.Errorf("error listing guilds: %w", err)
		}
		for _, g := range page {
			guilds = append(guilds, platform.Guild{ID: g.ID, Name: g.Name})
		}
		if len(page) < guildPageSize {
			return guilds, nil
		}
		afterID = page[len(page)-1].ID
	}
}

func (a *SessionAdapter) Member(guildID, userID string) (*platform.Member, error) {
	m, err := a.session.GuildMember(guildID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, platform.ErrNotFound
		}
		return nil, fmt.Errorf("error fetching member %s in guild %s: %w", userID, guildID, err)
	}

	displayName := m.Nick
	if displayName == "" && m.User != nil {
		displayName = m.User.GlobalName
	}
	username := ""
	if m.User != nil {
		username = m.User.Username
	}
	if displayName == "" {
		displayName = username
	}
	return &platform.Member{
		UserID:      userID,
		Username:    username,
		DisplayName: displayName,
	}, nil
}

func (a *SessionAdapter) TextChannels(guildID string) ([]platform.Channel, error) {
	channels, err := a.session.GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("error listing channels in guild %s: %w", guildID, err)
	}
	result := make([]platform.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		result = append(result, platform.Channel{
			ID:      ch.ID,
			GuildID: guildID,
			Name:    ch.Name,
			Topic:   ch.Topic,
		})
	}
	return result, nil
}

// CreateHiddenChannel creates a text channel every guild member can see and
// write to except hiddenUserID. The @everyone role ID equals the guild ID.
func (a *SessionAdapter) CreateHiddenChannel(guildID, name, topic, hiddenUserID string) (*platform.Channel, error) {
	ch, err := a.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:  name,
		Type:  discordgo.ChannelTypeGuildText,
		Topic: topic,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				ID:    guildID,
				Type:  discordgo.PermissionOverwriteTypeRole,
				Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
			},
			{
				ID:   hiddenUserID,
				Type: discordgo.PermissionOverwriteTypeMember,
				Deny: discordgo.PermissionViewChannel,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating channel %s in guild %s: %w", name, guildID, err)
	}
	return &platform.Channel{ID: ch.ID, GuildID: guildID, Name: ch.Name, Topic: ch.Topic}, nil
}

func (a *SessionAdapter) SendMessage(channelID, content string) error {
	_, err := a.session.ChannelMessageSend(channelID, content)
	if err != nil {
		if isNotFound(err) {
			return platform.ErrNotFound
		}
		return fmt.Errorf("error sending message to channel %s: %w", channelID, err)
	}
	return nil
}

func (a *SessionAdapter) RenameChannel(channelID, name string) error {
	_, err := a.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: name})
	if err != nil {
		if isNotFound(err) {
			return platform.ErrNotFound
		}
		return fmt.Errorf("error renaming channel %s: %w", channelID, err)
	}
	return nil
}

func (a *SessionAdapter) UpdateChannelTopic(channelID, topic string) error {
	_, err := a.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Topic: topic})
	if err != nil {
		if isNotFound(err) {
			return platform.ErrNotFound
		}
		return fmt.Errorf("error updating topic of channel %s: %w", channelID, err)
	}
	return nil
}

func (a *SessionAdapter) DeleteChannel(channelID, reason string) error {
	_, err := a.session.ChannelDelete(channelID, discordgo.WithAuditLogReason(reason))
	if err != nil {
		if isNotFound(err) {
			return platform.ErrNotFound
		}
		return fmt.Errorf("error deleting channel %s: %w", channelID, err)
	}
	return nil
}

func (a *SessionAdapter) RoleByName(guildID, name string) (*platform.Role, error) {
	roles, err := a.session.GuildRoles(guildID)
	if err != nil {
		return nil, fmt.Errorf("error listing roles in guild %s: %w", guildID, err)
	}
	for _, r := range roles {
		if r.Name == name {
			return &platform.Role{ID: r.ID, Name: r.Name}, nil
		}
	}
	return nil, platform.ErrNotFound
}

func (a *SessionAdapter) AddRole(guildID, userID, roleID string) error {
	if err := a.session.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		if isNotFound(err) {
			return platform.ErrNotFound
		}
		return fmt.Errorf("error adding role %s to member %s: %w", roleID, userID, err)
	}
	return nil
}

func (a *SessionAdapter) RemoveRole(guildID, userID, roleID string) error {
	if err := a.session.GuildMemberRoleRemove(guildID, userID, roleID); err != nil {
		if isNotFound(err) {
			return platform.ErrNotFound
		}
		return fmt.Errorf("error removing role %s from member %s: %w", roleID, userID, err)
	}
	return nil
}
