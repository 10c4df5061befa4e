package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/demogen/internal/config"
	"github.com/MrSnakeDoc/demogen/internal/demo"
	"github.com/MrSnakeDoc/demogen/internal/httpserver"
	"github.com/MrSnakeDoc/demogen/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demogen/internal/install"
	"github.com/MrSnakeDoc/demogen/internal/integration"
	"github.com/MrSnakeDoc/demogen/internal/llm"
	"github.com/MrSnakeDoc/demogen/internal/logger"
	"github.com/MrSnakeDoc/demogen/internal/notify"
	"github.com/MrSnakeDoc/demogen/internal/player"
	"github.com/MrSnakeDoc/demogen/internal/redis"
	"github.com/MrSnakeDoc/demogen/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/demogen/internal/store/redis"
	"github.com/MrSnakeDoc/demogen/internal/utils"
	"github.com/MrSnakeDoc/demogen/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	cloner      *Cloner
	reloader    *scheduler.StrategyReloader
}

// New wires every collaborator. Unrecoverable startup errors are returned,
// optional collaborators degrade with a warning.
func New(ctx context.Context) (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(ctx, redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	store := redisstore.NewStore(redisClient)

	llmClient, err := NewLLM(ctx, cfg, loggerClient)
	if err != nil {
		_ = redisClient.Close()
		return nil, err
	}

	suggester, err := NewSuggester(cfg, llmClient, loggerClient)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to load placement strategy: %w", err)
	}

	// Strategy file hot reload, only when the embedded defaults are overridden
	var reloader *scheduler.StrategyReloader
	var reloadTrigger chan struct{}
	if cfg.PlacementStrategyFile != "" {
		reloadTrigger = make(chan struct{}, 1)
		reloader = scheduler.NewStrategyReloader(
			cfg.PlacementStrategyFile,
			cfg.PlacementStrategy,
			suggester,
			loggerClient,
			cfg.StrategyReloadInterval,
			reloadTrigger,
		)
	}

	cloner := NewCloner(ctx, cfg, llmClient, loggerClient)

	mailer, err := notify.NewMailer(notify.SMTPSettings{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}, loggerClient)
	if err != nil {
		loggerClient.Warn("smtp relay misconfigured, install emails disabled", logger.Error(err))
		mailer = notify.NopMailer{}
	}

	tracker, err := notify.NewTracker(ctx, notify.SheetsSettings{
		SpreadsheetID:   cfg.SheetsSpreadsheetID,
		CredentialsFile: cfg.SheetsCredentialsFile,
		Tab:             cfg.SheetsTab,
	}, loggerClient)
	if err != nil {
		loggerClient.Warn("spreadsheet unavailable, status mirror disabled", logger.Error(err))
		tracker = notify.NopTracker{}
	}

	builder, err := integration.NewGitHubBuilder(integration.GitHubSettings{
		Token:      cfg.GitHubToken,
		Owner:      cfg.GitHubOwner,
		Repo:       cfg.GitHubRepo,
		BaseBranch: cfg.GitHubBaseBranch,
		Workflow:   cfg.GitHubWorkflow,
	}, &http.Client{Timeout: 30 * time.Second}, loggerClient)
	if err != nil {
		loggerClient.Warn("github pipeline misconfigured, plugin builds disabled", logger.Error(err))
		builder = integration.OfflineBuilder{}
	}

	script, err := player.NewScript(cfg.PublicBaseURL, cfg.PlayerOrigin)
	if err != nil {
		utils.Close(cloner)
		utils.Close(redisClient)
		return nil, fmt.Errorf("failed to render player script: %w", err)
	}

	_, noMail := mailer.(notify.NopMailer)
	_, noSheets := tracker.(notify.NopTracker)
	_, noBuilds := builder.(integration.OfflineBuilder)
	llmProvider := cfg.LLMProvider
	if !llm.Enabled(llmClient) {
		llmProvider = "none"
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		AllowedHosts:      cfg.AllowedHosts,
		AllowedCIDRS:      cfg.AllowedCIDRS,
		TrustProxy:        cfg.TrustProxy,
		InstallRateBurst:  cfg.InstallRateBurst,
		InstallRatePerMin: cfg.InstallRatePerMin,
		PublicBaseURL:     cfg.PublicBaseURL,
		Demos: demo.NewService(demo.Deps{
			Store:         store,
			Cloner:        cloner,
			Suggester:     suggester,
			Tracker:       tracker,
			Builder:       builder,
			PublicBaseURL: cfg.PublicBaseURL,
			Log:           loggerClient,
		}),
		Installs: install.NewService(store, mailer, tracker, install.Options{
			NotifyTo:      cfg.MailTo,
			PublicBaseURL: cfg.PublicBaseURL,
		}, loggerClient),
		Player:        script,
		Store:         store,
		ReloadTrigger: reloadTrigger,
		Components: deps.Components{
			LLMProvider:     llmProvider,
			Strategy:        cfg.PlacementStrategy,
			AIPlacement:     suggester.AIEnabled(),
			InlineCSS:       cfg.CloneInlineCSS && llm.Enabled(llmClient),
			BrowserFallback: cloner.BrowserEnabled(),
			Mail:            !noMail,
			Sheets:          !noSheets,
			PluginBuilds:    !noBuilds,
		},
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		cloner:      cloner,
		reloader:    reloader,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting demogen %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start strategy reloader: %w", err)
		}
		a.logger.Info("strategy reloader started",
			logger.Duration("interval", a.cfg.StrategyReloadInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if a.reloader != nil {
		a.reloader.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	utils.CloseLogged(a.cloner, a.logger, "headless browser")

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ demogen stopped cleanly")
	return nil
}
