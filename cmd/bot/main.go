package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"birthday_card_bot/internal/app"
	"birthday_card_bot/internal/infra/config"
	idb "birthday_card_bot/internal/infra/database"
	"birthday_card_bot/internal/infra/discord"
	"birthday_card_bot/internal/infra/logger"
	"birthday_card_bot/internal/infra/scheduler"

	"github.com/bwmarrin/discordgo"
)

func main() {
	fmt.Println("Birthday Card Bot starting...")

	mainLogger := log.New(os.Stdout, "MAIN: ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	appLogger := logger.Get()
	appLogger.Infof("Configuration loaded. LogLevel: %s, Environment: %s, LeadDays: %d", cfg.LogLevel, cfg.Environment, cfg.CoordinationLeadDays)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	appLogger.Info("Database connection established successfully.")

	// Initialize Repositories
	birthdayRepo := idb.NewPostgresBirthdayRepository(db)
	eventRepo := idb.NewPostgresEventRepository(db)
	appLogger.Info("Repositories initialized.")

	// Initialize Discord Session
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not create Discord session: %v", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	platformClient := discord.NewSessionAdapter(session)

	// Initialize Services
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
	birthdayService := app.NewBirthdayService(birthdayRepo, logger.Component("birthday_service"), cfg.CoordinationLeadDays)
	appLogger.Info("Services initialized.")

	// Initialize Scheduler
	coordScheduler := scheduler.NewCoordinationScheduler(
		coordinationService,
		queue,
		logger.Component("scheduler"),
		cfg.CronSpecCoordination,
		cfg.CronSpecReveal,
		cfg.CronSpecQueuePoll,
		cfg.QueuePollLimit,
	)

	// Open the gateway connection and register slash commands
	if err := session.Open(); err != nil {
		mainLogger.Fatalf("FATAL: Could not open Discord session: %v", err)
	}
	defer session.Close()
	appLogger.Infof("Discord session opened. Logged in as %s", session.State.User.Username)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := discord.RegisterCommands(ctx, session, birthdayService, logger.Component("commands")); err != nil {
		mainLogger.Fatalf("FATAL: Could not register application commands: %v", err)
	}

	coordScheduler.Start()
	appLogger.Info("Application setup complete. Bot and scheduler are running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	appLogger.Info("Shutting down application...")
	coordScheduler.Stop()
	// session.Close() and db.Close() are handled by defer
	appLogger.Info("Application shut down gracefully.")
}
