package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/codebuildervaibhav/shorts-vault/internal/cleanup"
	"github.com/codebuildervaibhav/shorts-vault/internal/config"
	"github.com/codebuildervaibhav/shorts-vault/internal/handlers"
	"github.com/codebuildervaibhav/shorts-vault/internal/media"
	"github.com/codebuildervaibhav/shorts-vault/internal/metadata"
	"github.com/codebuildervaibhav/shorts-vault/internal/service"
	"github.com/codebuildervaibhav/shorts-vault/internal/storage"
	"github.com/codebuildervaibhav/shorts-vault/internal/summarize"
	"github.com/codebuildervaibhav/shorts-vault/internal/transcription"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARNING: failed to read .env: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Custom logger setup
	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	multiWriter := io.MultiWriter(os.Stdout, logBuffer)
	log.SetOutput(multiWriter)

	ctx := context.Background()

	if err := cleanup.EnsureTempDirExists(cfg.Storage.TempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}

	log.Println("Initializing components...")

	// Cache store
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize cache store: %v", err)
	}
	defer store.Close()

	// Audio artifacts
	files, err := storage.NewAudioStore(cfg.Storage.AudioDir, cfg.Storage.TempDir)
	if err != nil {
		log.Fatalf("Failed to initialize audio store: %v", err)
	}

	// Metadata clients
	youtubeClient, err := metadata.NewYouTubeClient(ctx, cfg.YouTube.APIKey, cfg.YouTube.RequestsPerSecond)
	if err != nil {
		log.Fatalf("Failed to initialize YouTube client: %v", err)
	}
	renderer := metadata.NewChromeRenderer(!cfg.TikTok.ShowBrowser, cfg.TikTok.UserAgent)
	defer renderer.Close()
	tiktokClient := metadata.NewTikTokClient(renderer, storage.NewMediaIndex(store, files), cfg.TikTok.UserAgent,
		config.Seconds(cfg.TikTok.TimeoutSeconds))

	// Media pipeline
	transcriber := newTranscriber(cfg)
	pipeline := media.NewPipeline(
		store,
		files,
		media.NewYtDlpDownloader(cfg.YouTube.YtDlpPath, cfg.YouTube.Cookies, cfg.Storage.TempDir),
		tiktokClient,
		transcription.NewFFmpegExtractor(cfg.Transcription.FFmpegPath),
		transcriber,
	)

	// Summarizer
	var summaryClient summarize.Client
	if cfg.Summarization.APIKey != "" {
		summaryClient = summarize.NewOpenAIClient(
			cfg.Summarization.APIKey,
			cfg.Summarization.BaseURL,
			cfg.Summarization.Model,
			config.Seconds(cfg.Summarization.TimeoutSeconds),
		)
	} else {
		log.Println("WARNING: no summarization API key, summaries will be null")
	}

	svc := service.New(
		store,
		metadata.NewFetcher(store, youtubeClient, tiktokClient),
		pipeline,
		summarize.NewAdapter(store, summaryClient),
	)

	// Google Drive archive (optional)
	if cfg.GoogleDrive.Enabled {
		driveClient, err := storage.NewDriveClient(ctx,
			cfg.GoogleDrive.CredentialsFile,
			cfg.GoogleDrive.TokenFile,
			cfg.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Printf("WARNING: Google Drive not available: %v", err)
		} else {
			svc.SetArchiver(driveClient)
			log.Println("Google Drive archive enabled")
		}
	}
	defer svc.Wait()

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(
		cfg.Storage.TempDir,
		cfg.Storage.AudioDir,
		config.Minutes(cfg.Cleanup.IntervalMinutes),
		config.Hours(cfg.Cleanup.MaxAgeHours),
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "shorts-vault",
		ReadTimeout:  config.Seconds(30),
		WriteTimeout: config.Seconds(cfg.YouTube.TimeoutSeconds + cfg.Transcription.TimeoutSeconds),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
			"storage": cfg.Storage.Driver,
		})
	})

	handlers.Register(app, svc)

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   GET  /lookup?url=            - Look up any supported video")
	log.Println("   GET  /youtube?video_url=     - Look up a YouTube video")
	log.Println("   GET  /tiktok?tiktok_url=     - Look up a TikTok video")
	log.Println("   GET  /videos                 - List cached videos")
	log.Println("   GET  /videos/:id             - Get one cached video")
	log.Println("   GET  /ws/lookup              - WebSocket lookup with progress")
	log.Println("   GET  /logs                   - View server logs")
	log.Println("   GET  /health                 - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		log.Println("Using Postgres cache store")
		return storage.NewPostgresStore(ctx, cfg.Storage.PostgresDSN)
	case "redis":
		log.Println("Using Redis cache store")
		return storage.NewRedisStore(ctx, cfg.Storage.RedisURL)
	}
	log.Printf("Using SQLite cache store at %s", cfg.Storage.Database)
	return storage.NewSQLiteStore(cfg.Storage.Database)
}

func newTranscriber(cfg *config.Config) media.Transcriber {
	switch cfg.Transcription.Provider {
	case "openai":
		log.Printf("Transcription via OpenAI (%s)", cfg.Transcription.OpenAIModel)
		return transcription.NewOpenAITranscriber(cfg.Transcription.OpenAIKey, "", cfg.Transcription.OpenAIModel)
	case "local":
		return transcription.NewWhisperTranscriber(cfg.Transcription.WhisperModel, cfg.Storage.TempDir)
	}
	log.Printf("Transcription via %s", cfg.Transcription.APIURL)
	return transcription.NewRemoteTranscriber(cfg.Transcription.APIURL,
		config.Seconds(cfg.Transcription.TimeoutSeconds))
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

// GetLogs returns a copy of the buffered lines
func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}
