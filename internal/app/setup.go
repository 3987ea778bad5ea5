package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	coreapi "github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attuneapp/attune/db"
	"github.com/attuneapp/attune/internal/api"
	"github.com/attuneapp/attune/internal/audio"
	"github.com/attuneapp/attune/internal/auth"
	"github.com/attuneapp/attune/internal/chat"
	"github.com/attuneapp/attune/internal/config"
	"github.com/attuneapp/attune/internal/flights"
	"github.com/attuneapp/attune/internal/log"
	"github.com/attuneapp/attune/internal/store"
	"github.com/attuneapp/attune/internal/tools"
	"github.com/attuneapp/attune/internal/weather"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, dbCleanup, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	registered, err := provideTools(g, cfg, pool, embedder, logger)
	if err != nil {
		return nil, err
	}

	agent, err := chat.New(chat.Config{
		Genkit:    g,
		Logger:    logger,
		Tools:     registered,
		ModelName: qualifiedModelName(cfg),
		MaxTurns:  cfg.MaxTurns,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat agent: %w", err)
	}
	a.Agent = agent

	server, err := provideServer(cfg, agent, pool, logger)
	if err != nil {
		return nil, err
	}
	a.Server = server

	return a, nil
}

// provideDBPool runs migrations and creates a PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresURL())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports gemini (default), ollama, and openai providers.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = "gemini"
	}

	var g *genkit.Genkit

	switch provider {
	case "ollama":
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery).
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case "openai":
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized Genkit with openai provider", "model", cfg.ModelName)

	default: // "gemini"
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the provider plugin.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	provider := cfg.Provider
	if provider == "" {
		provider = "gemini"
	}

	switch provider {
	case "ollama":
		return ollama.Embedder(g, cfg.OllamaHost)
	case "openai":
		return genkit.LookupEmbedder(g, coreapi.NewName("openai", cfg.EmbedderModel))
	default: // "gemini"
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// qualifiedModelName returns the provider-qualified model name Genkit
// expects in ai.WithModelName.
func qualifiedModelName(cfg *config.Config) string {
	provider := cfg.Provider
	if provider == "" {
		provider = "gemini"
	}
	switch provider {
	case "ollama":
		return "ollama/" + cfg.ModelName
	case "openai":
		return "openai/" + cfg.ModelName
	default:
		return "googleai/" + cfg.ModelName
	}
}

// provideTools builds the stores and domain services and registers every
// toolset with Genkit.
func provideTools(g *genkit.Genkit, cfg *config.Config, pool *pgxpool.Pool, embedder ai.Embedder, logger log.Logger) ([]ai.Tool, error) {
	taskStore, err := store.NewTaskStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating task store: %w", err)
	}
	memoryStore, err := store.NewMemoryStore(pool, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("creating memory store: %w", err)
	}
	meditationStore, err := store.NewMeditationStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating meditation store: %w", err)
	}
	reservationStore, err := store.NewReservationStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating reservation store: %w", err)
	}

	weatherClient, err := weather.NewClient(cfg.Weather.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating weather client: %w", err)
	}
	audioClient, err := audio.NewClient(cfg.Audio.BaseURL, cfg.Audio.VoiceName)
	if err != nil {
		return nil, fmt.Errorf("creating audio client: %w", err)
	}
	flightSvc := flights.New(4)

	system, err := tools.NewSystem(logger)
	if err != nil {
		return nil, err
	}
	tasks, err := tools.NewTasks(taskStore, logger)
	if err != nil {
		return nil, err
	}
	memories, err := tools.NewMemories(memoryStore, logger)
	if err != nil {
		return nil, err
	}
	meditations, err := tools.NewMeditations(g, qualifiedModelName(cfg), meditationStore, audioClient, logger)
	if err != nil {
		return nil, err
	}
	flightTools, err := tools.NewFlights(flightSvc, reservationStore, logger)
	if err != nil {
		return nil, err
	}
	weatherTools, err := tools.NewWeather(weatherClient, logger)
	if err != nil {
		return nil, err
	}

	var registered []ai.Tool
	for _, register := range []func() ([]ai.Tool, error){
		func() ([]ai.Tool, error) { return tools.RegisterSystem(g, system) },
		func() ([]ai.Tool, error) { return tools.RegisterTasks(g, tasks) },
		func() ([]ai.Tool, error) { return tools.RegisterMemories(g, memories) },
		func() ([]ai.Tool, error) { return tools.RegisterMeditations(g, meditations) },
		func() ([]ai.Tool, error) { return tools.RegisterFlights(g, flightTools) },
		func() ([]ai.Tool, error) { return tools.RegisterWeather(g, weatherTools) },
	} {
		ts, err := register()
		if err != nil {
			return nil, fmt.Errorf("registering tools: %w", err)
		}
		registered = append(registered, ts...)
	}

	logger.Info("registered tools", "count", len(registered))
	return registered, nil
}

// provideServer assembles the HTTP server with the identity gate.
func provideServer(cfg *config.Config, agent *chat.Agent, pool *pgxpool.Pool, logger log.Logger) (*api.Server, error) {
	var verifier auth.Verifier
	var bypassSubject string

	if cfg.BypassActive() {
		bypassSubject = cfg.Auth.DevSubject
		logger.Warn("development auth bypass active", "subject", bypassSubject)
	} else {
		v, err := auth.NewHTTPVerifier(cfg.Auth.VerifyURL, logger)
		if err != nil {
			return nil, fmt.Errorf("creating verifier: %w", err)
		}
		verifier = v
	}

	server, err := api.NewServer(api.Config{
		Logger:         logger,
		Agent:          agent,
		Verifier:       verifier,
		BypassSubject:  bypassSubject,
		AllowedOrigins: cfg.CORSOrigins,
		TrustProxy:     cfg.TrustProxy,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		Ready:          pool.Ping,
	})
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	return server, nil
}
