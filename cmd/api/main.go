package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/agentdash/backend/internal/activity"
	"github.com/agentdash/backend/internal/agents"
	"github.com/agentdash/backend/internal/router"
	"github.com/agentdash/backend/internal/store"
	"github.com/agentdash/backend/internal/tasks"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	var (
		taskStore     store.TaskStore
		agentStore    store.AgentStore
		activityStore store.ActivityStore
	)

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			slog.Error("Unable to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			slog.Error("Cannot reach PostgreSQL (connection refused or invalid). Ensure Postgres is running, or unset DATABASE_URL to use the file store", "error", err)
			os.Exit(1)
		}

		pg, err := store.NewPostgresStore(ctx, pool)
		if err != nil {
			slog.Error("Failed to initialize PostgreSQL store", "error", err)
			os.Exit(1)
		}
		taskStore, agentStore, activityStore = pg.Tasks(), pg.Agents(), pg.Activity()
		slog.Info("Using PostgreSQL store")
	} else {
		dataDir := os.Getenv("DATA_DIR")
		if dataDir == "" {
			dataDir = "data"
		}
		fs, err := store.NewFileStore(dataDir)
		if err != nil {
			slog.Error("Failed to initialize file store", "error", err)
			os.Exit(1)
		}
		taskStore, agentStore, activityStore = fs.Tasks(), fs.Agents(), fs.Activity()
		slog.Info("Using file store", "dir", dataDir)
	}

	logbook := activity.NewLogger(activityStore)
	taskSvc := tasks.NewService(taskStore, logbook)
	agentSvc := agents.NewService(agentStore, logbook)

	mux := router.New(
		tasks.NewHandler(taskSvc, logger),
		agents.NewHandler(agentSvc, logger),
		activity.NewHandler(logbook, logger),
	)

	origins := []string{"http://localhost:3000"}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(mux)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // Fallback for local development
	}
	serverAddr := "0.0.0.0:" + port

	slog.Info("Starting HTTP server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
