// internal/app/handlers.go
package app

import (
	"context"
	"errors"
	"fmt"

	"birthday_card_bot/internal/domain/event"
	"birthday_card_bot/internal/domain/platform"

	"github.com/sirupsen/logrus"
)

// Payload keys shared by the lifecycle's scheduled events.
const (
	payloadKeyGuildID   = "guild_id"
	payloadKeySubjectID = "subject_id"
	payloadKeyRoleID    = "role_id"
	payloadKeyRoleName  = "role_name"
	payloadKeyChannelID = "channel_id"
	payloadKeyMessage   = "message"
)

func payloadField(ev *event.ScheduledEvent, key string) (string, error) {
	v, ok := ev.Payload[key]
	if !ok || v == "" {
		return "", fmt.Errorf("event %d payload is missing %q", ev.ID, key)
	}
	return v, nil
}

// RegisterLifecycleHandlers binds the three lifecycle event kinds to the
// queue. Each handler is a thin adapter over the platform client; absence of
// the target (member left, channel or role already gone) counts as success,
// since the desired end state already holds.
func RegisterLifecycleHandlers(q *EventQueue, client platform.Client, resolver *ChannelResolver, logger *logrus.Entry) {
	q.Register(event.KindRoleRevoke, func(ctx context.Context, ev *event.ScheduledEvent) error {
		guildID, err := payloadField(ev, payloadKeyGuildID)
		if err != nil {
			return err
		}
		subjectID, err := payloadField(ev, payloadKeySubjectID)
		if err != nil {
			return err
		}
		roleID, err := payloadField(ev, payloadKeyRoleID)
		if err != nil {
			return err
		}

		if err := client.RemoveRole(guildID, subjectID, roleID); err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				logger.Infof("Role or member already gone for event %d, nothing to revoke", ev.ID)
				return nil
			}
			return fmt.Errorf("removing role: %w", err)
		}
		logger.Infof("Removed role %s from subject %s in guild %s", ev.Payload[payloadKeyRoleName], subjectID, guildID)
		return nil
	})

	q.Register(event.KindSendReminder, func(ctx context.Context, ev *event.ScheduledEvent) error {
		channelID, err := payloadField(ev, payloadKeyChannelID)
		if err != nil {
			return err
		}
		message, err := payloadField(ev, payloadKeyMessage)
		if err != nil {
			return err
		}

		if err := client.SendMessage(channelID, message); err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				logger.Infof("Channel for reminder event %d no longer exists, dropping reminder", ev.ID)
				return nil
			}
			return fmt.Errorf("sending reminder: %w", err)
		}
		return nil
	})

	q.Register(event.KindCleanupChannel, func(ctx context.Context, ev *event.ScheduledEvent) error {
		guildID, err := payloadField(ev, payloadKeyGuildID)
		if err != nil {
			return err
		}
		subjectID, err := payloadField(ev, payloadKeySubjectID)
		if err != nil {
			return err
		}

		// Resolve by marker only: at cleanup time the username may have
		// drifted, and deletion must never act on a name or suffix match
		// that could belong to another subject.
		channel, err := resolver.FindByMarker(guildID, subjectID)
		if err != nil {
			return err
		}
		if channel == nil {
			logger.Infof("No coordination channel left for subject %s in guild %s, cleanup already done", subjectID, guildID)
			return nil
		}
		if err := client.DeleteChannel(channel.ID, channelDeleteReason); err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("deleting channel: %w", err)
		}
		logger.Infof("Deleted coordination channel %s in guild %s via cleanup event", channel.Name, guildID)
		return nil
	})
}
