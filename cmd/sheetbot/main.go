package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jonny/sheetbot/internal/adapter/inbound/webhook"
	"github.com/jonny/sheetbot/internal/adapter/inbound/webhook/middleware"
	"github.com/jonny/sheetbot/internal/adapter/outbound/background"
	"github.com/jonny/sheetbot/internal/adapter/outbound/discord"
	"github.com/jonny/sheetbot/internal/adapter/outbound/persistence/sqlite"
	"github.com/jonny/sheetbot/internal/adapter/outbound/sheets"
	"github.com/jonny/sheetbot/internal/config"
	"github.com/jonny/sheetbot/internal/domain/model"
	"github.com/jonny/sheetbot/internal/domain/port/outbound"
	"github.com/jonny/sheetbot/internal/domain/service"
	"github.com/jonny/sheetbot/internal/telemetry"
	"github.com/jonny/sheetbot/pkg/health"
	"github.com/jonny/sheetbot/pkg/version"
)

const backgroundTaskLimit = 32

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the environment is read")
	printVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *printVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load env file", "path", *envFile, "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = buildLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("sheetbot stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if cfg.Telemetry.Enabled {
		shutdownTracer, err := telemetry.InitTracer(cfg.Telemetry.ServiceName, version.Version, nil, logger)
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracer(shutdownCtx)
		}()
		httpClient.Transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	// --- Database ---
	store, err := sqlite.NewStore(ctx, sqlite.Config{
		Path:              cfg.Database.SQLite.Path,
		MaxOpenConns:      cfg.Database.SQLite.MaxOpenConns,
		PragmaJournalMode: cfg.Database.SQLite.PragmaJournalMode,
		PragmaBusyTimeout: cfg.Database.SQLite.PragmaBusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening sqlite store: %w", err)
	}
	defer store.Close()

	auditor := service.NewAuditor(sqlite.NewAuditRepo(store), logger)

	// --- Discord ---
	discordClient, err := discord.NewClient(discord.Config{
		BotToken:   cfg.Discord.BotToken,
		PageSize:   cfg.Discord.MemberPageSize,
		HTTPClient: httpClient,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating discord client: %w", err)
	}
	if cfg.Discord.BotToken == "" {
		logger.Warn("discord bot token not configured; /sync will fail")
	}

	// --- Sheets ---
	var sheetStore outbound.SheetStore = sheets.Unconfigured{}
	if cfg.Sheets.ServiceAccountEmail != "" && cfg.Sheets.PrivateKey != "" && cfg.Sheets.SpreadsheetID != "" {
		sheetStore, err = sheets.New(ctx, sheets.Config{
			SpreadsheetID:       cfg.Sheets.SpreadsheetID,
			MembersRange:        cfg.Sheets.MembersRange,
			RegistrationsRange:  cfg.Sheets.RegistrationsRange,
			ServiceAccountEmail: cfg.Sheets.ServiceAccountEmail,
			PrivateKey:          cfg.Sheets.PrivateKey,
			Timeout:             cfg.Sheets.Timeout,
			HTTPClient:          httpClient,
		}, logger)
		if err != nil {
			return fmt.Errorf("creating sheets client: %w", err)
		}
	} else {
		logger.Warn("google sheets credentials not configured; commands writing to sheets will fail")
	}

	// --- Domain services ---
	settings := service.Settings{
		Environment:       cfg.Environment,
		SpreadsheetID:     cfg.Sheets.SpreadsheetID,
		RegisterChannelID: cfg.Access.RegisterChannelID,
		TestChannelID:     cfg.Access.TestChannelID,
		AdminChannelID:    cfg.Access.AdminChannelID,
		PrivilegedUserID:  cfg.Access.PrivilegedUserID,
	}

	responder := service.NewDeferredResponder(discordClient, auditor, logger)
	dispatcher := service.NewDispatcher(logger,
		service.NewRegisterCommand(sheetStore, settings, auditor, logger),
		service.NewSyncCommand(discordClient, sheetStore, responder, settings, auditor, logger),
	)
	dispatcher.Register(service.NewHelpCommand(dispatcher))
	interactions := service.NewInteractionService(dispatcher, auditor, logger)

	// --- Webhook ---
	runner := background.NewRunner(backgroundTaskLimit, logger)

	handler := webhook.NewHandler(webhook.HandlerConfig{
		PublicKey:     cfg.Discord.PublicKey,
		VerifyTimeout: cfg.Server.VerifyTimeout,
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
	}, interactions, webhook.NewSignatureVerifier(nil), runner, auditor, logger)

	var rateLimit func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		table := middleware.NewRateLimitTable(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.MaxKeys)
		rateLimit = middleware.RateLimit(table, middleware.RateLimitOptions{
			PruneChance: cfg.RateLimit.PruneChance,
			OnLimited: func(r *http.Request) {
				auditor.Record(r.Context(), model.NewAuditLog(model.AuditRateLimited, model.CorrelationID(r.Context()), "rate limit exceeded").
					WithMetadata("client_ip", middleware.ClientIP(r)))
			},
		})
	}

	// --- Health checker ---
	checker := health.NewChecker(version.Name, version.Version)
	checker.Register("database", store.Ping)

	server := webhook.NewServer(webhook.ServerConfig{
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Development:     cfg.IsDevelopment(),
		Tracing:         cfg.Telemetry.Enabled,
		ServiceName:     cfg.Telemetry.ServiceName,
	}, handler, checker.StatusHandler(), rateLimit, logger)

	// --- Startup ---
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start(gCtx)
	})

	if cfg.Server.MetricsPort > 0 {
		metricsMux := http.NewServeMux()
		metricsMux.HandleFunc("/healthz", checker.LivenessHandler())
		metricsMux.HandleFunc("/readyz", checker.ReadinessHandler())
		metricsMux.HandleFunc("GET /audit", webhook.NewAuditHandler(auditor, logger))
		metricsServer := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("starting metrics server", "port", cfg.Server.MetricsPort)
			errCh := make(chan error, 1)
			go func() {
				if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()
			select {
			case <-gCtx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				return metricsServer.Shutdown(shutdownCtx)
			case err := <-errCh:
				return err
			}
		})
	}

	logger.Info("sheetbot started",
		"version", version.String(),
		"environment", cfg.Environment,
	)

	err = g.Wait()

	// Deferred commands still patching back get the shutdown window to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if serr := runner.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("background tasks did not finish", "error", serr)
	}
	return err
}

// buildLogger constructs a slog.Logger based on config.
func buildLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
