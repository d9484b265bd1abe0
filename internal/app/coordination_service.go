// internal/app/coordination_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"birthday_card_bot/internal/domain/birthday"
	"birthday_card_bot/internal/domain/event"
	"birthday_card_bot/internal/domain/platform"

	"github.com/sirupsen/logrus"
)

const roleRevokeDelay = 24 * time.Hour

// Action describes what StartCoordination or Reveal did in one guild.
type Action string

const (
	ActionSkipped    Action = "SKIPPED"    // subject is not a member of the guild
	ActionCreated    Action = "CREATED"    // coordination channel created, kickoff posted
	ActionReconciled Action = "RECONCILED" // channel already existed, identity refreshed
	ActionRevealed   Action = "REVEALED"   // celebration posted / channel torn down
	ActionFailed     Action = "FAILED"     // platform failure, see Err
)

// GuildOutcome records the result of processing one subject in one guild.
// Failures are captured here instead of aborting the run, so one guild's
// outage never blocks the others.
type GuildOutcome struct {
	GuildID string
	Action  Action
	Err     error
}

// RunReport aggregates per-guild outcomes of one lifecycle operation for one
// subject.
type RunReport struct {
	SubjectID string
	Outcomes  []GuildOutcome
}

// Failures returns the outcomes that recorded an error.
func (r *RunReport) Failures() []GuildOutcome {
	var failed []GuildOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// OrphanedChannel is a marker-bearing coordination channel whose subject has
// left the guild.
type OrphanedChannel struct {
	GuildID     string
	ChannelID   string
	ChannelName string
	SubjectID   string
}

// CoordinationService drives the per-subject coordination lifecycle. The
// state machine (no coordination → active → revealed) is never persisted: it
// is inferred each run from the presence or absence of the coordination
// channel, which makes every operation idempotent and crash-resumable.
type CoordinationService struct {
	birthdayRepo       birthday.Repository
	queue              *EventQueue
	client             platform.Client
	resolver           *ChannelResolver
	logger             *logrus.Entry
	celebrationChannel string
	birthdayRoleName   string
	leadDays           int
	now                func() time.Time
}

func NewCoordinationService(
	br birthday.Repository,
	queue *EventQueue,
	client platform.Client,
	resolver *ChannelResolver,
	logger *logrus.Entry,
	celebrationChannel string,
	birthdayRoleName string,
	leadDays int,
) *CoordinationService {
	return &CoordinationService{
		birthdayRepo:       br,
		queue:              queue,
		client:             client,
		resolver:           resolver,
		logger:             logger,
		celebrationChannel: celebrationChannel,
		birthdayRoleName:   birthdayRoleName,
		leadDays:           leadDays,
		now:                time.Now,
	}
}

// RunCoordinationScan finds subjects whose birthday is exactly leadDays from
// today and starts coordination for each. A failing subject is logged and
// skipped; the returned error is non-nil only when the birthday query itself
// fails.
func (s *CoordinationService) RunCoordinationScan(ctx context.Context, today time.Time) ([]*RunReport, error) {
	subjects, err := s.birthdayRepo.ScanMatchingOffset(ctx, today, s.leadDays)
	if err != nil {
		return nil, fmt.Errorf("failed to scan upcoming birthdays: %w", err)
	}
	if len(subjects) == 0 {
		s.logger.Infof("No birthdays found %d days from %s", s.leadDays, today.Format("2006-01-02"))
		return nil, nil
	}
	s.logger.Infof("Found %d upcoming birthdays", len(subjects))

	reports := make([]*RunReport, 0, len(subjects))
	for _, subjectID := range subjects {
		report, err := s.StartCoordination(ctx, subjectID)
		if err != nil {
			s.logger.WithError(err).Errorf("Error starting coordination for subject %s", subjectID)
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// RunRevealScan finds subjects whose birthday is today and reveals their
// cards.
func (s *CoordinationService) RunRevealScan(ctx context.Context, today time.Time) ([]*RunReport, error) {
	subjects, err := s.birthdayRepo.ScanMatchingExact(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to scan today's birthdays: %w", err)
	}
	if len(subjects) == 0 {
		s.logger.Infof("No birthdays to reveal on %s", today.Format("2006-01-02"))
		return nil, nil
	}
	s.logger.Infof("Found %d birthdays to reveal today", len(subjects))

	reports := make([]*RunReport, 0, len(subjects))
	for _, subjectID := range subjects {
		report, err := s.Reveal(ctx, subjectID)
		if err != nil {
			s.logger.WithError(err).Errorf("Error revealing card for subject %s", subjectID)
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// StartCoordination ensures a coordination channel exists for the subject in
// every guild where they are a member. Re-entry is idempotent: an existing
// channel is reconciled, never duplicated, and the kickoff message is only
// posted on creation.
func (s *CoordinationService) StartCoordination(ctx context.Context, subjectID string) (*RunReport, error) {
	guilds, err := s.client.Guilds()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate guilds: %w", err)
	}

	report := &RunReport{SubjectID: subjectID}
	for _, g := range guilds {
		outcome := s.startInGuild(g, subjectID)
		report.Outcomes = append(report.Outcomes, outcome)
		s.logOutcome("start coordination", subjectID, g, outcome)
	}
	return report, nil
}

func (s *CoordinationService) startInGuild(g platform.Guild, subjectID string) GuildOutcome {
	member, err := s.client.Member(g.ID, subjectID)
	if errors.Is(err, platform.ErrNotFound) {
		return GuildOutcome{GuildID: g.ID, Action: ActionSkipped}
	}
	if err != nil {
		return GuildOutcome{GuildID: g.ID, Action: ActionFailed, Err: fmt.Errorf("fetching member: %w", err)}
	}

	existing, err := s.resolver.Find(g.ID, subjectID, member.Username)
	if err != nil {
		return GuildOutcome{GuildID: g.ID, Action: ActionFailed, Err: err}
	}
	if existing != nil {
		s.resolver.Reconcile(existing, subjectID, member.Username)
		return GuildOutcome{GuildID: g.ID, Action: ActionReconciled}
	}

	name := coordinationChannelName(member.Username)
	topic := coordinationChannelTopic(subjectID, member.Username)
	channel, err := s.client.CreateHiddenChannel(g.ID, name, topic, subjectID)
	if err != nil {
		return GuildOutcome{GuildID: g.ID, Action: ActionFailed, Err: fmt.Errorf("creating channel: %w", err)}
	}

	if err := s.client.SendMessage(channel.ID, kickoffMessage(member.DisplayName, s.leadDays)); err != nil {
		// The channel exists, so a re-run will reconcile rather than retry
		// the kickoff. Surface the failure in the outcome.
		return GuildOutcome{GuildID: g.ID, Action: ActionFailed, Err: fmt.Errorf("sending kickoff message: %w", err)}
	}
	return GuildOutcome{GuildID: g.ID, Action: ActionCreated}
}

// Reveal posts the celebration message, grants the temporary birthday role
// (scheduling its revocation for 24 hours later), and deletes the
// coordination channel in every guild where the subject is a member. Absence
// of the celebration channel, the role, or the coordination channel is
// tolerated. If the triggering scan fires twice the celebration message may
// be posted twice; that is a documented limitation, but a re-run never
// crashes on the already-deleted channel.
func (s *CoordinationService) Reveal(ctx context.Context, subjectID string) (*RunReport, error) {
	guilds, err := s.client.Guilds()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate guilds: %w", err)
	}

	report := &RunReport{SubjectID: subjectID}
	for _, g := range guilds {
		outcome := s.revealInGuild(ctx, g, subjectID)
		report.Outcomes = append(report.Outcomes, outcome)
		s.logOutcome("reveal", subjectID, g, outcome)
	}
	return report, nil
}

func (s *CoordinationService) revealInGuild(ctx context.Context, g platform.Guild, subjectID string) GuildOutcome {
	member, err := s.client.Member(g.ID, subjectID)
	if errors.Is(err, platform.ErrNotFound) {
		return GuildOutcome{GuildID: g.ID, Action: ActionSkipped}
	}
	if err != nil {
		return GuildOutcome{GuildID: g.ID, Action: ActionFailed, Err: fmt.Errorf("fetching member: %w", err)}
	}

	coordChannel, err := s.resolver.Find(g.ID, subjectID, member.Username)
	if err != nil {
		return GuildOutcome{GuildID: g.ID, Action: ActionFailed, Err: err}
	}

	celebration, err := s.findChannelByName(g.ID, s.celebrationChannel)
	if err != nil {
		return GuildOutcome{GuildID: g.ID, Action: ActionFailed, Err: err}
	}
	if celebration == nil {
		s.logger.Warnf("Celebration channel %q not found in guild %s, skipping announcement", s.celebrationChannel, g.ID)
	} else {
		if err := s.client.SendMessage(celebration.ID, celebrationMessage(subjectID)); err != nil {
			return GuildOutcome{GuildID: g.ID, Action: ActionFailed, Err: fmt.Errorf("sending celebration message: %w", err)}
		}

		if err := s.grantBirthdayRole(ctx, g, subjectID); err != nil {
			return GuildOutcome{GuildID: g.ID, Action: ActionFailed, Err: err}
		}
	}

	if coordChannel != nil {
		// Only a confirming topic marker authorizes deletion. A name or
		// suffix match may be another subject's channel.
		if id, ok := subjectIDFromTopic(coordChannel.Topic); !ok || id != subjectID {
			s.logger.Warnf("Channel %s matched for subject %s without a confirming marker, leaving it in place", coordChannel.Name, subjectID)
		} else {
			if err := s.client.DeleteChannel(coordChannel.ID, channelDeleteReason); err != nil {
				return GuildOutcome{GuildID: g.ID, Action: ActionFailed, Err: fmt.Errorf("deleting coordination channel: %w", err)}
			}
			s.logger.Infof("Deleted coordination channel %s in guild %s", coordChannel.Name, g.ID)
		}
	}

	return GuildOutcome{GuildID: g.ID, Action: ActionRevealed}
}

// grantBirthdayRole assigns the configured temporary role and schedules its
// revocation. Removal is deliberately deferred through the event queue
// instead of an in-process timer, so it survives a restart.
func (s *CoordinationService) grantBirthdayRole(ctx context.Context, g platform.Guild, subjectID string) error {
	role, err := s.client.RoleByName(g.ID, s.birthdayRoleName)
	if errors.Is(err, platform.ErrNotFound) {
		return nil // guild has no birthday role configured, nothing to do
	}
	if err != nil {
		return fmt.Errorf("looking up role %q: %w", s.birthdayRoleName, err)
	}

	if err := s.client.AddRole(g.ID, subjectID, role.ID); err != nil {
		return fmt.Errorf("assigning role %q: %w", role.Name, err)
	}
	s.logger.Infof("Added %s role to subject %s in guild %s", role.Name, subjectID, g.ID)

	_, err = s.queue.Schedule(ctx, event.KindRoleRevoke, s.now().Add(roleRevokeDelay), event.Payload{
		payloadKeyGuildID:   g.ID,
		payloadKeySubjectID: subjectID,
		payloadKeyRoleID:    role.ID,
		payloadKeyRoleName:  role.Name,
	})
	if err != nil {
		return fmt.Errorf("scheduling role revocation: %w", err)
	}
	return nil
}

func (s *CoordinationService) findChannelByName(guildID, name string) (*platform.Channel, error) {
	channels, err := s.client.TextChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels in guild %s: %w", guildID, err)
	}
	for i := range channels {
		if channels[i].Name == name {
			return &channels[i], nil
		}
	}
	return nil, nil
}

// ScanOrphanedChannels enumerates marker-bearing coordination channels whose
// subject is no longer a guild member. Orphans are reported, not deleted;
// destructive cleanup stays a manual decision.
func (s *CoordinationService) ScanOrphanedChannels(ctx context.Context) ([]OrphanedChannel, error) {
	guilds, err := s.client.Guilds()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate guilds: %w", err)
	}

	var orphans []OrphanedChannel
	for _, g := range guilds {
		channels, err := s.client.TextChannels(g.ID)
		if err != nil {
			s.logger.WithError(err).Errorf("Error listing channels in guild %s during orphan scan", g.ID)
			continue
		}
		for _, ch := range channels {
			subjectID, ok := subjectIDFromTopic(ch.Topic)
			if !ok {
				continue
			}
			_, err := s.client.Member(g.ID, subjectID)
			if errors.Is(err, platform.ErrNotFound) {
				s.logger.Warnf("Found orphaned channel %s for subject %s who left guild %s", ch.Name, subjectID, g.ID)
				orphans = append(orphans, OrphanedChannel{
					GuildID:     g.ID,
					ChannelID:   ch.ID,
					ChannelName: ch.Name,
					SubjectID:   subjectID,
				})
			} else if err != nil {
				s.logger.WithError(err).Errorf("Error checking membership of subject %s in guild %s", subjectID, g.ID)
			}
		}
	}
	return orphans, nil
}

func (s *CoordinationService) logOutcome(op, subjectID string, g platform.Guild, outcome GuildOutcome) {
	logCtx := s.logger.WithFields(logrus.Fields{
		"operation":  op,
		"subject_id": subjectID,
		"guild_id":   g.ID,
		"guild_name": g.Name,
		"action":     outcome.Action,
	})
	if outcome.Err != nil {
		logCtx.WithError(outcome.Err).Error("Guild processing failed")
		return
	}
	logCtx.Info("Guild processed")
}
