package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kunden-service/internal/app"
	"kunden-service/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}

	srv, err := app.NewServer(config.Load())
	if err != nil {
		log.Fatalf("❌ Server setup failed: %v", err)
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
