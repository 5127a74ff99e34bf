package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/rawblock/honeypot-engine/internal/api"
	"github.com/rawblock/honeypot-engine/internal/callback"
	"github.com/rawblock/honeypot-engine/internal/db"
	"github.com/rawblock/honeypot-engine/internal/detect"
	"github.com/rawblock/honeypot-engine/internal/engage"
	"github.com/rawblock/honeypot-engine/internal/intel"
	"github.com/rawblock/honeypot-engine/internal/quality"
	"github.com/rawblock/honeypot-engine/internal/session"
	"github.com/rawblock/honeypot-engine/pkg/models"
)

func main() {
	log.Println("Starting RawBlock Honeypot Engine (Microservice: scam-honeypot-analytics)...")

	// Local development convenience; real deployments set env directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// ─── Required Environment Variables ─────────────────────────────────
	// All credentials MUST come from environment variables. No fallback
	// defaults for security-sensitive values. Use a .env file for local
	// development: cp .env.example .env && edit .env
	// ────────────────────────────────────────────────────────────────────

	apiKey := requireEnv("API_KEY")
	callbackURL := getEnvOrDefault("CALLBACK_URL", "https://hackathon.guvi.in/api/updateHoneyPotFinalResult")
	auditPath := getEnvOrDefault("CALLBACK_AUDIT_PATH", "callback_history.json")

	var dbConn *db.PostgresStore
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		conn, err := db.Connect(dbURL)
		if err != nil {
			log.Printf("Warning: Failed to connect to PostgreSQL, continuing without persisting reports. Error: %v", err)
		} else {
			dbConn = conn
			defer dbConn.Close()
			if err := dbConn.InitSchema(); err != nil {
				log.Printf("Warning: DB schema init failed: %v", err)
			}
		}
	} else {
		log.Println("DATABASE_URL not set; running with in-memory state only")
	}

	// Setup WebSocket Hub
	wsHub := api.NewHub()
	go wsHub.Run()

	// Process-wide subsystems, wired once here.
	sessions := session.NewStore()
	scorer := detect.NewScorer()
	extractor := intel.NewExtractor()
	watchlist := intel.NewWatchlist()
	tracker := quality.NewTracker()
	controller := engage.NewController(tracker)
	audit := callback.NewAuditor(auditPath)

	broadcast := func(rec models.CallbackRecord) {
		wsHub.BroadcastEvent("callback_dispatched", rec)
	}

	var sink callback.ReportSink
	if dbConn != nil {
		sink = dbConn
	}
	dispatcher := callback.NewDispatcher(callbackURL, audit, sink, broadcast)

	r := api.SetupRouter(api.Deps{
		APIKey:     apiKey,
		Sessions:   sessions,
		Scorer:     scorer,
		Extractor:  extractor,
		Watchlist:  watchlist,
		Tracker:    tracker,
		Controller: controller,
		Dispatcher: dispatcher,
		Audit:      audit,
		DBStore:    dbConn,
		WSHub:      wsHub,
	})

	port := getEnvOrDefault("PORT", "5340")

	log.Printf("Engine running on :%s (callback → %s)\n", port, callbackURL)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// requireEnv reads a required environment variable and exits if it is not set.
// This prevents the binary from starting with missing critical configuration.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set. "+
			"Copy .env.example to .env and fill in your values: cp .env.example .env", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
