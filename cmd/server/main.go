/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the booking engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store
  3. Wire the booking service with the standard policy
  4. Configure HTTP router and start the reminder scanner
  5. Start server with graceful shutdown

CONFIGURATION:
  Flags override environment variables:
    -port / PORT      HTTP server port (default: 8080)
    -db   / DB_PATH   SQLite database path (default: booking.db)
                      Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the reminder scanner and close the database
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - booking/service.go: Booking operations
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/warp/booking-engine/api"
	"github.com/warp/booking-engine/booking"
	"github.com/warp/booking-engine/schedule"
	"github.com/warp/booking-engine/store/sqlite"
)

// logNotifier is the default reminder sink until a real channel (email,
// chat webhook) is configured. It only logs.
type logNotifier struct {
	log *zap.Logger
}

func (n *logNotifier) SendReminder(_ context.Context, appt schedule.Appointment) error {
	n.log.Info("reminder due",
		zap.String("appointment_id", string(appt.ID)),
		zap.String("client_ref", string(appt.ClientRef)),
		zap.String("date", appt.Date.String()),
		zap.String("time", appt.Time.String()),
	)
	return nil
}

func main() {
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "booking.db"), "SQLite database path")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	svc := booking.NewService(store, store.Blocks(), schedule.SystemClock{}, booking.StandardPolicy())

	scanner := booking.NewReminderScanner(svc, &logNotifier{log: logger}, logger)
	scanner.Start()
	defer scanner.Stop()

	handler := api.NewHandler(svc, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.Int("port", *port), zap.String("db", *dbPath))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
