// Standalone one-shot trigger for external cron jobs (CI schedules, cloud
// schedulers). Each run executes one task selector and exits; non-zero exit
// signals an unhandled failure to the external trigger.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"birthday_card_bot/internal/app"
	"birthday_card_bot/internal/infra/config"
	idb "birthday_card_bot/internal/infra/database"
	"birthday_card_bot/internal/infra/discord"
	"birthday_card_bot/internal/infra/logger"

	"github.com/bwmarrin/discordgo"
)

func main() {
	mainLogger := log.New(os.Stdout, "SCHEDULER: ", log.LstdFlags)

	taskType := "daily"
	if len(os.Args) > 1 {
		taskType = os.Args[1]
	}
	mainLogger.Printf("Starting birthday scheduler run, task=%s", taskType)

	cfg, err := config.Load()
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()

	// REST-only session: the one-shot scans never need the gateway.
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not create Discord session: %v", err)
	}
	platformClient := discord.NewSessionAdapter(session)

	birthdayRepo := idb.NewPostgresBirthdayRepository(db)
	eventRepo := idb.NewPostgresEventRepository(db)
	resolver := app.NewChannelResolver(platformClient, logger.Component("channel_resolver"))
	queue := app.NewEventQueue(eventRepo, logger.Component("event_queue"))
	app.RegisterLifecycleHandlers(queue, platformClient, resolver, logger.Component("event_handlers"))
	coordinationService := app.NewCoordinationService(
		birthdayRepo,
		queue,
		platformClient,
		resolver,
		logger.Component("coordination_service"),
		cfg.CelebrationChannelName,
		cfg.BirthdayRoleName,
		cfg.CoordinationLeadDays,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()
	now := time.Now()

	if err := runTask(ctx, taskType, coordinationService, queue, now, cfg.QueuePollLimit); err != nil {
		mainLogger.Printf("ERROR: Scheduler run failed: %v", err)
		os.Exit(1)
	}
	mainLogger.Printf("Scheduler run completed successfully at %s", time.Now().Format(time.RFC3339))
}

func runTask(
	ctx context.Context,
	taskType string,
	coordination *app.CoordinationService,
	queue *app.EventQueue,
	now time.Time,
	pollLimit int,
) error {
	switch taskType {
	case "daily":
		_, err := coordination.RunCoordinationScan(ctx, now)
		return err
	case "hourly":
		return queue.Poll(ctx, now, pollLimit)
	case "reveals":
		_, err := coordination.RunRevealScan(ctx, now)
		return err
	case "orphans":
		_, err := coordination.ScanOrphanedChannels(ctx)
		return err
	case "all":
		if _, err := coordination.RunCoordinationScan(ctx, now); err != nil {
			return err
		}
		if err := queue.Poll(ctx, now, pollLimit); err != nil {
			return err
		}
		_, err := coordination.RunRevealScan(ctx, now)
		return err
	default:
		return fmt.Errorf("unknown task type %q (available: daily, hourly, reveals, orphans, all)", taskType)
	}
}
