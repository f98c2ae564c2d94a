package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"patabol/bot"
	"patabol/database"
	"patabol/session"
	"patabol/telegram"
	"patabol/utils"
	"patabol/web"
	"patabol/whatsapp"
)

func main() {
	cliMode := flag.Bool("cli", false, "run the interactive terminal client instead of the server")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	log.Printf("⚽ Starting PATABOL at: %s", time.Now().Format("Monday, January 2, 2006 at 3:04:05 PM MST"))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "./patabol.db"
	}
	db, err := sqlx.Connect("sqlite3", dbURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)
	if err := repo.EnsureSchema(); err != nil {
		log.Fatal("Failed to prepare schema:", err)
	}

	rng := utils.NewSeededRNG(utils.ClockSeed(time.Now()))
	sessions := session.NewManager(nil, rng)
	processor := bot.NewProcessor(sessions, rng)
	greeter := &bot.Greeter{Store: repo}
	broadcaster := web.NewMatchBroadcaster()
	runner := bot.NewRunner(sessions, repo, broadcaster, func() int64 {
		return utils.ClockSeed(time.Now())
	})

	if *cliMode {
		runCLI(processor, runner, greeter)
		return
	}

	latency := os.Getenv("EVENT_LATENCY")
	if latency != "" {
		if d, err := time.ParseDuration(latency); err == nil {
			runner.Latency = d
		} else {
			log.Printf("Warning: invalid EVENT_LATENCY %q: %v", latency, err)
		}
	}

	tgClient := telegram.NewClient(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if webhookURL := os.Getenv("TELEGRAM_WEBHOOK_URL"); webhookURL != "" {
		if err := tgClient.SetWebhook(webhookURL); err != nil {
			log.Printf("Warning: could not set telegram webhook: %v", err)
		}
	}
	waClient := whatsapp.NewClient(
		os.Getenv("TWILIO_ACCOUNT_SID"),
		os.Getenv("TWILIO_AUTH_TOKEN"),
		os.Getenv("TWILIO_WHATSAPP_NUMBER"),
	)
	dispatch := &web.Dispatcher{Telegram: tgClient, WhatsApp: waClient}

	cookieSecret := os.Getenv("SESSION_SECRET")
	if cookieSecret == "" {
		log.Fatal("SESSION_SECRET environment variable is required")
	}

	server := web.NewServer(repo, sessions, processor, runner, greeter, broadcaster, dispatch, cookieSecret)

	// expire abandoned lobbies in the background
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if n := sessions.SweepExpired(session.DefaultTTL); n > 0 {
				log.Printf("🧹 swept %d expired sessions", n)
			}
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Fatal(server.Start(port))
}
