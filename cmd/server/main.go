package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	_ "modernc.org/sqlite"

	emailPkg "slate/internal/adapters/email"
	web "slate/internal/adapters/http"
	"slate/internal/adapters/http/perf"
	"slate/internal/adapters/storage"
	accountStore "slate/internal/adapters/storage/account"
	homeworkStore "slate/internal/adapters/storage/homework"
	"slate/internal/application/orchestrators"

	"github.com/google/uuid"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Initialize database with WAL mode, foreign keys, and busy timeout
	dbPath := envOrDefault("SLATE_DB_PATH", "slate.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	if err := storage.MigrateDB(db, dbPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	acctStore := accountStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		AccountStore:  acctStore,
		HomeworkStore: homeworkStore.NewSQLiteStore(timedDB),
	}

	// Seed the admin account on first run
	seedInput := orchestrators.SeedAdminInput{
		Email:    os.Getenv("SLATE_ADMIN_EMAIL"),
		Password: os.Getenv("SLATE_ADMIN_PASSWORD"),
	}
	seedDeps := orchestrators.SeedAdminDeps{
		AccountStore: acctStore,
		GenerateID:   func() string { return uuid.New().String() },
		Now:          time.Now,
	}
	if err := orchestrators.ExecuteSeedAdmin(context.Background(), seedInput, seedDeps); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	// Configure email sender
	resendKey := os.Getenv("SLATE_RESEND_KEY")
	emailFrom := envOrDefault("SLATE_RESEND_FROM", "Slate <noreply@example.com>")
	notifyTo := os.Getenv("SLATE_NOTIFY_TO")
	if resendKey != "" {
		web.SetEmailSender(emailPkg.NewResendSender(resendKey, emailFrom), notifyTo)
		log.Println("Email sender configured (Resend)")
	} else {
		web.SetEmailSender(emailPkg.NewNoopSender(), notifyTo)
		if os.Getenv("SLATE_ENV") == "production" {
			log.Println("WARNING: SLATE_RESEND_KEY is not set — email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop — set SLATE_RESEND_KEY for real delivery)")
		}
	}

	mux := web.NewMux("static", stores, collector)

	addr := envOrDefault("SLATE_ADDR", ":8080")
	log.Printf("Slate %s starting on %s (env=%s, schema=%d)", version, addr, envOrDefault("SLATE_ENV", "development"), storage.LatestSchemaVersion())

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
