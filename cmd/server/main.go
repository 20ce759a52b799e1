package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/agenthands/lineage/internal/config"
	"github.com/agenthands/lineage/internal/logger"
	"github.com/agenthands/lineage/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Warning: %v. Using default config", err)
		cfg = config.Default()
	}
	cfg.ApplyEnv()

	lg, err := logger.New(cfg.Server.Mode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer lg.Sync()

	srv, err := server.NewServer(context.Background(), cfg, lg)
	if err != nil {
		lg.Fatal("failed to initialize server", "error", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			lg.Warn("failed to close backends", "error", err)
		}
	}()

	r := srv.SetupRouter()
	lg.Info("starting server", "port", cfg.Server.Port, "store", cfg.Store.Backend)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		lg.Error("server stopped", "error", err)
	}
}
