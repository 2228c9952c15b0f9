package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"agenda/api/internal/app"
	"agenda/api/internal/archive"
	"agenda/api/internal/authpw"
	"agenda/api/internal/config"
	"agenda/api/internal/email"
	"agenda/api/internal/export"
	"agenda/api/internal/realtime"
	"agenda/api/internal/search"
	"agenda/api/internal/session"
	"agenda/api/internal/store"
	"agenda/api/internal/summary"
)

// searchIndexer adapts the search service to the summary generator's indexer.
type searchIndexer struct {
	svc *search.Service
}

func (s searchIndexer) IndexNote(note store.Note) {
	s.svc.IndexNote(search.NoteRecord{
		ID:          note.ID,
		UserID:      note.UserID,
		Title:       note.Title,
		Description: note.Description,
		Day:         note.Day,
		Kind:        note.Kind,
	})
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	if err := os.MkdirAll(cfg.ArchiveDir, 0o755); err != nil {
		log.Fatalf("failed to create archive dir: %v", err)
	}

	dataStore := store.NewPostgresStore(db)
	archiveService := archive.New(cfg.ArchiveDir)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
	}

	hub := realtime.NewHub()

	emailService := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})

	summaryService := summary.NewService(dataStore, hub, archiveService, searchIndexer{svc: searchService})

	var uploader export.Uploader
	if strings.TrimSpace(cfg.S3Endpoint) != "" {
		objectStore, err := export.NewObjectStore(ctx, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL)
		if err != nil {
			log.Printf("WARNING: object storage unavailable, exports will be download-only: %v", err)
		} else {
			uploader = objectStore
		}
	}
	exportService := export.NewService(archiveService, uploader)

	deps := app.Deps{
		AuthPassword: authpw.NewService(dataStore),
		Email:        emailService,
		Summaries:    summaryService,
		Search:       searchService,
		Exporter:     exportService,
		Archive:      archiveService,
	}

	// Refresh tokens live in Redis when configured, Postgres otherwise
	var service *app.Service
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for refresh token storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		service = app.New(cfg, dataStore, redisStore, deps)
	} else {
		log.Printf("Using PostgreSQL for refresh token storage")
		service = app.New(cfg, dataStore, nil, deps)
	}
	if err := service.Bootstrap(ctx); err != nil {
		log.Printf("WARNING: bootstrap error (will retry on next restart): %v", err)
	}

	httpServer := app.NewHTTPServer(service, hub, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Agenda API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
