package platform

import "errors"

// ErrNotFound is returned by Client implementations for absence conditions:
// the subject is not a guild member, a channel or role does not exist. The
// engine treats these as normal control flow, not failures.
var ErrNotFound = errors.New("platform: not found")

// Guild is a server the bot participates in.
type Guild struct {
	ID   string
	Name string
}

// Channel is a text channel inside a guild.
type Channel struct {
	ID      string
	GuildID string
	Name    string
	Topic   string
}

// Role is a guild role.
type Role struct {
	ID   string
	Name string
}

// Member is a subject's membership in one guild.
type Member struct {
	UserID      string
	Username    string
	DisplayName string
}

// Client defines the messaging-platform operations the coordination engine
// consumes. This decouples the engine from the concrete bot library and makes
// the lifecycle testable against an in-memory fake.
type Client interface {
	// Guilds enumerates the guilds the bot participates in.
	Guilds() ([]Guild, error)
	// Member fetches the subject's membership in a guild, or ErrNotFound.
	Member(guildID, userID string) (*Member, error)
	// TextChannels lists the text channels of a guild.
	TextChannels(guildID string) ([]Channel, error)
	// CreateHiddenChannel creates a text channel visible to everyone in the
	// guild except hiddenUserID.
	CreateHiddenChannel(guildID, name, topic, hiddenUserID string) (*Channel, error)
	SendMessage(channelID, content string) error
	RenameChannel(channelID, name string) error
	UpdateChannelTopic(channelID, topic string) error
	// DeleteChannel removes a channel, recording reason in the audit log.
	DeleteChannel(channelID, reason string) error
	// RoleByName finds a guild role by exact name, or ErrNotFound.
	RoleByName(guildID, name string) (*Role, error)
	AddRole(guildID, userID, roleID string) error
	RemoveRole(guildID, userID, roleID string) error
}
