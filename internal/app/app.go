package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/rando-league/external/gsheets"
	"github.com/riskibarqy/rando-league/external/orirando"
	"github.com/riskibarqy/rando-league/internal/config"
	"github.com/riskibarqy/rando-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/rando-league/internal/domain/leaguesettings"
	"github.com/riskibarqy/rando-league/internal/domain/leagueweek"
	"github.com/riskibarqy/rando-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/rando-league/internal/infrastructure/repository/sqlstore"
	"github.com/riskibarqy/rando-league/internal/interfaces/discordbot"
	"github.com/riskibarqy/rando-league/internal/interfaces/httpapi"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
	"github.com/riskibarqy/rando-league/internal/platform/resilience"
	"github.com/riskibarqy/rando-league/internal/usecase"
	"github.com/sourcegraph/conc"
)

const shutdownTimeout = 10 * time.Second

// App owns every long-lived component of the bot.
type App struct {
	cfg    config.Config
	logger *logging.Logger

	db        *sqlx.DB
	ledger    *gsheets.Repository
	session   *discordgo.Session
	bot       *discordbot.Bot
	scheduler *usecase.WeekScheduler
	server    *http.Server
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	a := &App{cfg: cfg, logger: logger}

	settingsRepo, runRepo, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	ledgerRepo, err := gsheets.New(ctx, gsheets.Config{
		CredentialsFile:  cfg.GoogleCredentialsFile,
		SpreadsheetID:    cfg.SpreadsheetID,
		SpreadsheetTitle: cfg.SpreadsheetTitle,
		Workers:          cfg.SheetsWorkers,
		Timeout:          cfg.SheetsTimeout,
		Logger:           logger,
	})
	if err != nil {
		a.closeDB()
		return nil, fmt.Errorf("create spreadsheet ledger: %w", err)
	}
	a.ledger = ledgerRepo

	generator, err := orirando.NewClient(orirando.ClientConfig{
		BaseURL: cfg.SeedgenBaseURL,
		Timeout: cfg.SeedgenTimeout,
		Logger:  logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SeedgenCircuitEnabled,
			FailureThreshold: cfg.SeedgenCircuitFailureCount,
			OpenTimeout:      cfg.SeedgenCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SeedgenCircuitHalfOpenMaxReq,
		},
	})
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("create seed generator client: %w", err)
	}

	session, err := discordbot.NewSession(cfg.DiscordToken)
	if err != nil {
		a.closeAll()
		return nil, err
	}
	a.session = session

	clock := leagueweek.NewClock(cfg.LeagueLocation)
	seeds := usecase.NewSeedService(settingsRepo, generator, clock, usecase.SeedServiceConfig{
		DailyLocation: cfg.DailyLocation,
		DailyCacheTTL: cfg.DailyCacheTTL,
	}, logger)
	reconciler := usecase.NewReconcilerService(
		ledgerRepo,
		discordbot.NewChannelNotifier(session, cfg.LeagueChannelID),
		logger,
	)
	league := usecase.NewLeagueService(seeds, reconciler, ledgerRepo, clock, usecase.LeagueServiceConfig{
		ReadyTimeout: cfg.LeagueReadyTimeout,
	}, logger)
	a.scheduler = usecase.NewWeekScheduler(league, seeds, reconciler, runRepo, clock, usecase.WeekSchedulerConfig{
		FireDelay:    cfg.LeagueFireDelay,
		RetryBackoff: cfg.LeagueRetryBackoff,
	}, logger)
	settings := usecase.NewSettingsService(settingsRepo, clock, a.scheduler, logger)

	handler := discordbot.NewHandler(
		settings,
		seeds,
		league,
		discordbot.NewRoleAuthorizer(cfg.DiscordOwnerIDs, cfg.LeagueAdminRoleID),
		discordbot.HandlerConfig{CommandTimeout: cfg.CommandTimeout},
		logger,
	)
	a.bot = discordbot.New(session, handler, discordbot.Config{
		Token:   cfg.DiscordToken,
		GuildID: cfg.DiscordGuildID,
	}, logger)

	if cfg.HTTPEnabled {
		router := httpapi.NewRouter(
			httpapi.NewHandler(league, a.scheduler, runRepo, logger),
			logger,
			cfg.CORSAllowedOrigins,
			cfg.InternalJobToken,
		)
		a.server = &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		}
	}

	return a, nil
}

func (a *App) openStores(ctx context.Context) (leaguesettings.Repository, jobscheduler.Repository, error) {
	target, err := parseDBURL(a.cfg.DBURL, a.cfg.DBDisablePreparedBinary)
	if err != nil {
		return nil, nil, err
	}
	if target.Memory {
		a.logger.WarnContext(ctx, "using in-memory settings store, settings are lost on restart")
		return memory.NewSettingsRepository(), memory.NewJobRunRepository(), nil
	}

	conn, err := openDB(ctx, target, a.logger)
	if err != nil {
		return nil, nil, err
	}
	if a.cfg.DBAutoMigrate {
		if err := migrateDB(ctx, conn, target, a.logger); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
	}
	a.db = conn

	return sqlstore.NewSettingsRepository(conn), sqlstore.NewJobRunRepository(conn), nil
}

// Run connects the bot and blocks until ctx is done. The scheduler and the
// admin server stop with ctx.
func (a *App) Run(ctx context.Context) error {
	if err := a.bot.Start(ctx); err != nil {
		return err
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		if err := a.scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.ErrorContext(ctx, "week scheduler stopped", "error", err)
		}
	})
	if a.server != nil {
		wg.Go(func() {
			a.logger.InfoContext(ctx, "admin http server starting", "addr", a.server.Addr)
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.ErrorContext(ctx, "admin http server failed", "error", err)
			}
		})
		wg.Go(func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("admin http server shutdown failed", "error", err)
			}
		})
	}

	<-ctx.Done()
	wg.Wait()
	return nil
}

// Close disconnects from Discord and releases storage handles.
func (a *App) Close() error {
	var errs []error
	if a.bot != nil {
		if err := a.bot.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closeAll()
	return errors.Join(errs...)
}

func (a *App) closeAll() {
	if a.ledger != nil {
		a.ledger.Close()
	}
	a.closeDB()
}

func (a *App) closeDB() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close database failed", "error", err)
	}
}
