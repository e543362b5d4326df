package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"rcb-go/cogs"
	"rcb-go/models"
	"rcb-go/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
)

var session *discordgo.Session
var botStatus = "starting"

func main() {
	// Local development convenience; the hosted env sets real variables.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Start HTTP server for hosting platform health checks
	go startHealthServer()

	// Initialize database
	if err := utils.SetupDatabase(); err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}
	if utils.DB != nil {
		log.Println("Database connected successfully")
		defer utils.CloseDatabase()
	} else {
		log.Println("DATABASE_URL not set - running with in-memory stores")
	}

	// Load the challenge configuration. Malformed rules are fatal: awarding
	// against wrong rules is worse than not starting.
	configPath := os.Getenv("CHALLENGE_CONFIG")
	if configPath == "" {
		configPath = "challenges.yaml"
	}
	configData, err := os.ReadFile(configPath)
	if err != nil {
		log.Fatalf("Failed to read challenge config %s: %v", configPath, err)
	}
	catalog, err := utils.ParseCatalog(configData)
	if err != nil {
		log.Fatalf("Invalid challenge config: %v", err)
	}
	shadow, err := utils.ParseShadowGame(configData, catalog)
	if err != nil {
		log.Fatalf("Invalid shadow game config: %v", err)
	}

	// Pick the persistence implementations based on database availability.
	var (
		ledger  utils.AwardLedger
		stats   utils.StatsStore
		users   utils.UserDirectory
		arcade  *utils.ArcadeStore
		monthly utils.MonthlyTotaler
		yearly  utils.YearlyTotaler
	)
	if utils.DB != nil {
		pgLedger := utils.NewPGAwardLedger(utils.DB)
		pgStats := utils.NewPGStatsStore(utils.DB, pgLedger)
		ledger, stats = pgLedger, pgStats
		monthly, yearly = pgLedger, pgStats
		users = utils.NewPGUserDirectory(utils.DB)
		arcade = utils.NewArcadeStore(utils.DB)
	} else {
		memLedger := utils.NewMemoryAwardLedger()
		memStats := utils.NewMemoryStatsStore(memLedger)
		ledger, stats = memLedger, memStats
		monthly, yearly = memLedger, memStats
		users = utils.NewMemoryUserDirectory()
	}

	// Create Discord session early so the announcer can hold it; it only
	// sends once the gateway is open.
	token := os.Getenv("BOT_TOKEN")
	if token != "" {
		session, err = discordgo.New("Bot " + token)
		if err != nil {
			log.Fatalf("Failed to create Discord session: %v", err)
		}
	}

	announceChannelID := os.Getenv("ANNOUNCE_CHANNEL_ID")
	var announcer utils.AwardAnnouncer = utils.NopAnnouncer{}
	if session != nil && announceChannelID != "" {
		announcer = utils.NewDiscordAnnouncer(session, announceChannelID)
	}

	engine := utils.NewPointsEngine(catalog, ledger, stats, announcer)
	queue := utils.NewIngestionQueue(engine.ProcessAchievements)
	leaderboards := utils.NewLeaderboardService(monthly, yearly)
	defer leaderboards.Close()

	raClient := utils.NewRAClient(os.Getenv("RA_API_USER"), os.Getenv("RA_API_KEY"))
	mobyClient := utils.NewMobyClient(os.Getenv("MOBY_API_KEY"))
	defer mobyClient.Close()

	if shadow != nil {
		shadow.SetSolvedHandler(func(revealed []*models.GameRule) {
			for _, rule := range revealed {
				log.Printf("shadow game solved: revealed challenge %s (%s)", rule.GameID, rule.DisplayName)
			}
			if session != nil && announceChannelID != "" {
				_, err := session.ChannelMessageSend(announceChannelID,
					"🌘 The shadow game has been solved! A hidden challenge is now live.")
				if err != nil {
					log.Printf("Failed to announce shadow reveal: %v", err)
				}
			}
		})
	}

	cogs.Setup(&cogs.Services{
		Engine:       engine,
		Queue:        queue,
		Catalog:      catalog,
		Leaderboards: leaderboards,
		Users:        users,
		Fetcher:      raClient,
		Arcade:       arcade,
		Shadow:       shadow,
		Moby:         mobyClient,
	})

	// Start the achievement poller when we have a source to poll.
	var poller *utils.Poller
	if raClient != nil {
		interval := 15 * time.Minute
		if raw := os.Getenv("POLL_INTERVAL_MINUTES"); raw != "" {
			if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
				interval = time.Duration(minutes) * time.Minute
			}
		}
		poller = utils.NewPoller(raClient, catalog, users, queue, interval)
		poller.Start()
		defer poller.Stop()
	} else {
		log.Println("RA_API_KEY not set - achievement polling disabled")
	}

	if session == nil {
		log.Println("BOT_TOKEN not set - Discord bot will not connect")
		botStatus = "no_token"
		// Keep HTTP server running
		select {}
	}

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	session.AddHandler(onReady)
	session.AddHandler(onInteractionCreate)

	if err := session.Open(); err != nil {
		log.Fatalf("Failed to open Discord connection: %v", err)
	}
	defer session.Close()

	log.Println("Bot is now running. Press CTRL+C to exit.")
	botStatus = "running"

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	log.Println("Gracefully shutting down...")
	botStatus = "shutting_down"

	// Let in-flight award processing finish before the stores close.
	queue.Wait()
}

func onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("Discord bot logged in as %s (ID: %s)", event.User.Username, event.User.ID)
	botStatus = "online"

	if err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name: "the monthly challenge",
				Type: discordgo.ActivityTypeGame,
			},
		},
		Status: "online",
	}); err != nil {
		log.Printf("Failed to update status: %v", err)
	}

	if err := registerSlashCommands(s); err != nil {
		log.Printf("Failed to register slash commands: %v", err)
	}
}

func registerSlashCommands(s *discordgo.Session) error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Check bot latency and status",
		},
		cogs.RegisterLeaderboardCommand(),
		cogs.RegisterShadowCommand(),
	}
	commands = append(commands, cogs.RegisterPointsCommands()...)
	commands = append(commands, cogs.RegisterArcadeCommands()...)

	for _, command := range commands {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", command); err != nil {
			return fmt.Errorf("failed to create command %s: %w", command.Name, err)
		}
	}

	log.Printf("Successfully registered %d slash commands", len(commands))
	return nil
}

func onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "ping":
		handlePingCommand(s, i)
	case "register":
		cogs.HandleRegisterCommand(s, i)
	case "profile":
		cogs.HandleProfileCommand(s, i)
	case "leaderboard":
		cogs.HandleLeaderboardCommand(s, i)
	case "award":
		cogs.HandleAwardCommand(s, i)
	case "removeaward":
		cogs.HandleRemoveAwardCommand(s, i)
	case "rebuildstats":
		cogs.HandleRebuildStatsCommand(s, i)
	case "highscores":
		cogs.HandleHighScoresCommand(s, i)
	case "setscore":
		cogs.HandleSetScoreCommand(s, i)
	case "gameinfo":
		cogs.HandleGameInfoCommand(s, i)
	case "shadow":
		cogs.HandleShadowCommand(s, i)
	}
}

func handlePingCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	latency := s.HeartbeatLatency()

	embed := &discordgo.MessageEmbed{
		Title: "🏓 Pong!",
		Color: utils.ColorDefault,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Latency",
				Value:  fmt.Sprintf("%dms", latency.Milliseconds()),
				Inline: true,
			},
			{
				Name:   "Status",
				Value:  "✅ Online",
				Inline: true,
			},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func startHealthServer() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(fmt.Sprintf("Discord Bot Status: %s", botStatus)))
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		response := fmt.Sprintf(`{"status":"healthy","service":"discord-bot","bot_status":"%s"}`, botStatus)
		w.Write([]byte(response))
	})

	log.Printf("Health server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Printf("Health server error: %v", err)
	}
}
