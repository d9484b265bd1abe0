// internal/app/resolver.go
package app

import (
	"fmt"
	"strings"

	"birthday_card_bot/internal/domain/platform"

	"github.com/sirupsen/logrus"
)

const (
	coordinationChannelSuffix = "-birthday-card"
	topicMarkerPrefix         = "Birthday card for user ID: "
)

func coordinationChannelName(username string) string {
	return username + coordinationChannelSuffix
}

func coordinationChannelTopic(subjectID, username string) string {
	return fmt.Sprintf("🎂 %s%s (%s) - DO NOT invite them to this channel!", topicMarkerPrefix, subjectID, username)
}

// subjectIDFromTopic extracts the subject ID from a channel topic carrying the
// structured marker. Returns false when the marker is absent.
func subjectIDFromTopic(topic string) (string, bool) {
	idx := strings.Index(topic, topicMarkerPrefix)
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimSpace(topic[idx+len(topicMarkerPrefix):])
	if rest == "" {
		return "", false
	}
	if sp := strings.IndexByte(rest, ' '); sp >= 0 {
		rest = rest[:sp]
	}
	return rest, true
}

// ChannelResolver locates the coordination channel of a subject inside a
// guild, tolerant of display-name drift.
type ChannelResolver struct {
	client platform.Client
	logger *logrus.Entry
}

func NewChannelResolver(client platform.Client, logger *logrus.Entry) *ChannelResolver {
	return &ChannelResolver{client: client, logger: logger}
}

// Find resolves the coordination channel for subjectID, or nil when none
// exists. Match policy, in priority order:
//
//  1. topic marker encodes subjectID — authoritative, survives renames;
//  2. channel name equals the canonical pattern for currentUsername — covers
//     channels created before the marker was written;
//  3. any channel with the coordination suffix — low-confidence fallback, the
//     next Reconcile stamps the marker so later runs hit tier 1.
//
// The fallback exists because old channels can carry a stale username in
// their name and no marker; callers must not trust a tier-3 match for
// destructive operations without verifying the marker themselves.
func (r *ChannelResolver) Find(guildID, subjectID, currentUsername string) (*platform.Channel, error) {
	channels, err := r.client.TextChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels in guild %s: %w", guildID, err)
	}

	for i := range channels {
		if id, ok := subjectIDFromTopic(channels[i].Topic); ok && id == subjectID {
			return &channels[i], nil
		}
	}

	if currentUsername != "" {
		expected := coordinationChannelName(currentUsername)
		for i := range channels {
			if channels[i].Name == expected {
				return &channels[i], nil
			}
		}
	}

	for i := range channels {
		if strings.HasSuffix(channels[i].Name, coordinationChannelSuffix) {
			return &channels[i], nil
		}
	}

	return nil, nil
}

// FindByMarker resolves strictly through the topic marker. Destructive
// callers use this instead of Find: a name or suffix match is not proof of
// identity, and deleting on it could tear down another subject's channel.
func (r *ChannelResolver) FindByMarker(guildID, subjectID string) (*platform.Channel, error) {
	channels, err := r.client.TextChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels in guild %s: %w", guildID, err)
	}
	for i := range channels {
		if id, ok := subjectIDFromTopic(channels[i].Topic); ok && id == subjectID {
			return &channels[i], nil
		}
	}
	return nil, nil
}

// Reconcile updates the channel's name and topic when they are stale relative
// to the subject's current username, making identity resolution self-healing
// across username changes. Failures are logged and swallowed; a stale name is
// not worth aborting the caller's broader run.
func (r *ChannelResolver) Reconcile(ch *platform.Channel, subjectID, currentUsername string) {
	logCtx := r.logger.WithFields(logrus.Fields{
		"guild_id":   ch.GuildID,
		"channel_id": ch.ID,
		"subject_id": subjectID,
	})

	expectedName := coordinationChannelName(currentUsername)
	if ch.Name != expectedName {
		if err := r.client.RenameChannel(ch.ID, expectedName); err != nil {
			logCtx.WithError(err).Warn("Failed to rename coordination channel after username change")
		} else {
			logCtx.Infof("Renamed coordination channel from %s to %s", ch.Name, expectedName)
			ch.Name = expectedName
		}
	}

	// Always bring the topic up to date so the marker is stamped even on
	// channels matched through the name or suffix tiers.
	expectedTopic := coordinationChannelTopic(subjectID, currentUsername)
	if ch.Topic != expectedTopic {
		if err := r.client.UpdateChannelTopic(ch.ID, expectedTopic); err != nil {
			logCtx.WithError(err).Warn("Failed to update coordination channel topic")
		} else {
			logCtx.Info("Updated coordination channel topic")
			ch.Topic = expectedTopic
		}
	}
}
