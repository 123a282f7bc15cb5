package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ai-hub/internal/cache"
	"ai-hub/internal/config"
	"ai-hub/internal/ingest"
	httphandler "ai-hub/internal/http"
	"ai-hub/internal/middleware"
	"ai-hub/internal/repo"
	"ai-hub/internal/services/auth"
	"ai-hub/internal/services/extract"
	"ai-hub/internal/services/janitor"
	"ai-hub/internal/services/llm"
	"ai-hub/internal/services/mail"
	"ai-hub/internal/services/tools"
	"ai-hub/internal/services/transcript"
)

func main() {
	port := flag.String("port", "", "Port to run the server on (overrides PORT)")
	seed := flag.String("seed", "", `Seed data before serving: "demo" or a path to a JSON file or directory`)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	setupLogging(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := repo.NewDB(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	repository := repo.NewRepository(db)

	redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisCache.Close()

	dispatcher := llm.NewDispatcher(map[llm.Service]llm.Provider{
		llm.ServiceGemini:     llm.NewGeminiClient(cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel, ""),
		llm.ServiceLlama:      llm.NewLlamaClient("", cfg.LLM.HFToken),
		llm.ServiceOllama:     llm.NewOllamaClient(cfg.LLM.OllamaURL),
		llm.ServiceOpenRouter: llm.NewOpenRouterClient("", cfg.LLM.OpenRouterAPIKey, cfg.Server.FrontendURL),
		llm.ServiceCerebras:   llm.NewCerebrasClient("", cfg.LLM.CerebrasAPIKey),
	}, cfg.LLM.Timeout)

	if err := os.MkdirAll(cfg.Upload.Dir, 0o700); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Upload.Dir).Msg("Failed to create upload directory")
	}
	uploadJanitor := janitor.New(cfg.Upload.Dir, cfg.Upload.MaxAge)
	uploadJanitor.Start(ctx, cfg.Upload.SweepInterval)
	defer uploadJanitor.Stop()

	fetcher := transcript.NewFetcher(transcript.NewYouTubeSource(cfg.LLM.TranscriptLang), redisCache)
	toolService := tools.NewService(dispatcher, extract.NewExtractor(), fetcher)

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	accounts := auth.NewService(repository, tokens)
	google := auth.NewGoogleLogin(auth.GoogleOptions{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURI:  cfg.Google.RedirectURI,
		FrontendURL:  cfg.Server.FrontendURL,
	}, redisCache, repository, tokens)

	if *seed != "" {
		if err := runSeed(ctx, ingest.NewLoader(accounts, repository), *seed); err != nil {
			log.Fatal().Err(err).Str("seed", *seed).Msg("Failed to seed data")
		}
	}

	mailer := newMailer(cfg.Mail)

	router := httphandler.NewRouter(httphandler.RouterConfig{
		RequestTimeout: cfg.Server.WriteTimeout,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			BurstSize:         cfg.RateLimit.BurstSize,
		},
	})
	router.RegisterHealthRoutes(
		httphandler.HealthCheck{Name: "postgres", Check: db.Ping},
		httphandler.HealthCheck{Name: "redis", Check: redisCache.Ping},
	)
	router.RegisterAPIRoutes(httphandler.NewHandlers(httphandler.Deps{
		Dispatcher: dispatcher,
		Tools:      toolService,
		Accounts:   accounts,
		Google:     google,
		Notes:      repository,
		Roadmap:    repository,
		Mailer:     mailer,
		Upload: httphandler.UploadConfig{
			Dir:      cfg.Upload.Dir,
			MaxBytes: cfg.Upload.MaxBytes,
		},
	}), tokens)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout + 5*time.Second,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
}

func setupLogging(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func runSeed(ctx context.Context, loader *ingest.Loader, source string) error {
	if source == "demo" {
		loader.LoadDemo(ctx)
		return nil
	}
	info, err := os.Stat(source)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return loader.LoadFromDirectory(ctx, source)
	}
	return loader.LoadFromFile(ctx, source)
}

// newMailer returns a mailer that reports ErrNotConfigured when no SMTP
// account is set.
func newMailer(cfg config.MailConfig) *mail.Mailer {
	if cfg.User == "" {
		log.Warn().Msg("MAIL_USER not set; contact form disabled")
		return mail.NewMailer(nil, "")
	}

	sender, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create mail client")
	}
	return mail.NewMailer(sender, cfg.User)
}
