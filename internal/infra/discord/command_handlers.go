// internal/infra/discord/command_handlers.go
package discord

import (
	"context"
	"fmt"
	"time"

	"birthday_card_bot/internal/app"
	idb "birthday_card_bot/internal/infra/database" // For ErrBirthdayNotFound

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

var commandDefinitions = []*discordgo.ApplicationCommand{
	{
		Name:        "set-birthday",
		Description: "Set a user's birthday",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "user",
				Description: "The user whose birthday to set",
				Type:        discordgo.ApplicationCommandOptionUser,
				Required:    true,
			},
			{
				Name:        "date",
				Description: "Birthday date in MM-DD format (e.g. 12-25)",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
			},
		},
	},
	{
		Name:        "get-birthday",
		Description: "Look up a user's birthday",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "user",
				Description: "The user whose birthday to look up",
				Type:        discordgo.ApplicationCommandOptionUser,
				Required:    true,
			},
		},
	},
}

// RegisterCommands registers the slash commands and their interaction
// handlers. Must be called after the session is opened, since the
// application ID comes from session state.
func RegisterCommands(
	ctx context.Context,
	s *discordgo.Session,
	birthdayService *app.BirthdayService,
	baseLogger *logrus.Entry,
) error {
	appID := s.State.User.ID
	for _, cmd := range commandDefinitions {
		if _, err := s.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
	}
	baseLogger.Infof("Registered %d application commands", len(commandDefinitions))

	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}

		data := i.ApplicationCommandData()
		logCtx := baseLogger.WithFields(logrus.Fields{
			"command":   data.Name,
			"sender_id": interactionUserID(i),
		})

		switch data.Name {
		case "set-birthday":
			handleSetBirthday(ctx, s, i, birthdayService, logCtx)
		case "get-birthday":
			handleGetBirthday(ctx, s, i, birthdayService, logCtx)
		}
	})
	return nil
}

func handleSetBirthday(
	ctx context.Context,
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	birthdayService *app.BirthdayService,
	logCtx *logrus.Entry,
) {
	data := i.ApplicationCommandData()
	subject := data.Options[0].UserValue(s)
	dateStr := data.Options[1].StringValue()
	logCtx = logCtx.WithFields(logrus.Fields{"subject_id": subject.ID, "date": dateStr})
	logCtx.Info("Command received")

	record, err := birthdayService.SetBirthday(ctx, interactionUserID(i), subject.ID, dateStr)
	if err != nil {
		if err == app.ErrSelfSet {
			respond(s, i, "❌ You cannot set your own birthday! Ask a friend to do it for you.", true)
			return
		}
		logCtx.WithError(err).Error("Failed to set birthday")
		respond(s, i, fmt.Sprintf("❌ Could not set the birthday: %s", err.Error()), true)
		return
	}

	startDate := birthdayService.CoordinationStartDate(record.MonthDay, time.Now())
	respond(s, i, fmt.Sprintf("🎂 **Birthday set for %s!**\n"+
		"📅 Birthday: %s\n"+
		"🎉 Card coordination will start on: %s\n\n"+
		"*The bot will automatically create a private channel and start the card flow before the birthday.*",
		displayName(subject), formatMonthDay(record.MonthDay.Month, record.MonthDay.Day),
		startDate.Format("January 2, 2006")), false)
	logCtx.Info("Birthday set successfully")
}

func handleGetBirthday(
	ctx context.Context,
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	birthdayService *app.BirthdayService,
	logCtx *logrus.Entry,
) {
	data := i.ApplicationCommandData()
	subject := data.Options[0].UserValue(s)
	logCtx = logCtx.WithField("subject_id", subject.ID)
	logCtx.Info("Command received")

	record, err := birthdayService.GetBirthday(ctx, subject.ID)
	if err != nil {
		if err == idb.ErrBirthdayNotFound {
			respond(s, i, fmt.Sprintf("🤷 **%s doesn't have a birthday set yet.**\n\n"+
				"Use `/set-birthday` to set it!", displayName(subject)), true)
			return
		}
		logCtx.WithError(err).Error("Failed to look up birthday")
		respond(s, i, "❌ An error occurred while retrieving the birthday. Please try again later.", true)
		return
	}

	respond(s, i, fmt.Sprintf("🎂 **%s's Birthday: %s**\n📅 Date: %s\n\n"+
		"*Card coordination starts automatically before their birthday.*",
		displayName(subject), formatMonthDay(record.MonthDay.Month, record.MonthDay.Day),
		record.MonthDay.String()), true)
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func displayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func formatMonthDay(month time.Month, day int) string {
	return time.Date(2000, month, day, 0, 0, 0, 0, time.UTC).Format("January 2")
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to respond to interaction")
	}
}
