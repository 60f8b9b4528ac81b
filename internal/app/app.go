package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/predictions-league/external/footballdata"
	"github.com/riskibarqy/predictions-league/external/resultsfeed"
	"github.com/riskibarqy/predictions-league/external/soccerview"
	"github.com/riskibarqy/predictions-league/external/webpush"
	"github.com/riskibarqy/predictions-league/internal/config"
	"github.com/riskibarqy/predictions-league/internal/domain/document"
	"github.com/riskibarqy/predictions-league/internal/domain/event"
	"github.com/riskibarqy/predictions-league/internal/domain/fixtureset"
	"github.com/riskibarqy/predictions-league/internal/domain/player"
	"github.com/riskibarqy/predictions-league/internal/domain/prediction"
	"github.com/riskibarqy/predictions-league/internal/domain/privateleague"
	"github.com/riskibarqy/predictions-league/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/predictions-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/predictions-league/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/predictions-league/internal/platform/cache"
	idgen "github.com/riskibarqy/predictions-league/internal/platform/id"
	"github.com/riskibarqy/predictions-league/internal/platform/logging"
	"github.com/riskibarqy/predictions-league/internal/platform/resilience"
	"github.com/riskibarqy/predictions-league/internal/usecase"
	"github.com/sourcegraph/conc/pool"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

type stores struct {
	events      event.Store
	documents   document.Store
	fixtureSets fixtureset.Repository
	predictions prediction.Repository
	leagues     privateleague.Repository
	players     player.Repository
}

// Engine wires stores, services and background loops for one process. Callers
// command and query through the exposed services; Run owns the loops.
type Engine struct {
	cfg    config.Config
	logger *logging.Logger
	db     *sqlx.DB

	Commands       *usecase.CommandService
	Queries        *usecase.QueryService
	Projections    *usecase.ProjectionService
	Notifications  *usecase.NotificationService
	Reconciliation *usecase.ReconciliationService

	listener *resultsfeed.Listener
}

func NewEngine(cfg config.Config, logger *logging.Logger) (*Engine, error) {
	if logger == nil {
		logger = logging.Default()
	}

	st, db, err := buildStores(cfg, logger)
	if err != nil {
		return nil, err
	}

	documents := st.documents
	if cfg.CacheEnabled {
		documents = cache.NewDocumentStore(documents, basecache.NewStore(cfg.CacheTTL))
	}

	commands := usecase.NewCommandService(st.events, logger)
	notifications := usecase.NewNotificationService(
		buildNotifier(cfg, logger),
		st.players,
		cfg.NotifyWorkers,
		logger,
	)
	projections := usecase.NewProjectionService(
		st.events,
		documents,
		st.fixtureSets,
		st.predictions,
		st.leagues,
		st.players,
		notifications,
		logger,
	)
	queries := usecase.NewQueryService(documents)
	reconciliation := usecase.NewReconciliationService(
		commands,
		st.fixtureSets,
		buildResultsProvider(cfg, logger),
		cfg.ReconcileFetchWorkers,
		logger,
	)

	engine := &Engine{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		Commands:       commands,
		Queries:        queries,
		Projections:    projections,
		Notifications:  notifications,
		Reconciliation: reconciliation,
	}

	if cfg.ResultsFeedEnabled {
		engine.listener = resultsfeed.NewListener(resultsfeed.ListenerConfig{
			URL:    cfg.ResultsFeedURL,
			Queue:  cfg.ResultsFeedQueue,
			Logger: logger,
		}, reconciliation)
	}

	return engine, nil
}

// Run drives the projection loop, the reconciliation ticker and, when
// configured, the results feed listener until ctx ends. A failed loop cancels
// its siblings so the process restarts as a unit.
func (e *Engine) Run(ctx context.Context) error {
	runners := pool.New().WithContext(ctx).WithCancelOnError()
	runners.Go(func(ctx context.Context) error {
		return e.Projections.Run(ctx)
	})
	runners.Go(func(ctx context.Context) error {
		return e.Reconciliation.Run(ctx, e.cfg.ReconcileInterval)
	})
	if e.listener != nil {
		runners.Go(func(ctx context.Context) error {
			return e.listener.Run(ctx)
		})
	}
	return runners.Wait()
}

// Close releases held connections. Run must have returned first.
func (e *Engine) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// buildStores connects the configured backend. The memory backend keeps the
// event log and every projection in process, which is enough for dev and for
// tests; postgres is the durable deployment.
func buildStores(cfg config.Config, logger *logging.Logger) (stores, *sqlx.DB, error) {
	if cfg.StoreBackend == config.StoreMemory {
		logger.Info("using in-memory stores", "backend", cfg.StoreBackend)
		return stores{
			events:      memory.NewEventStore(),
			documents:   memory.NewDocumentStore(),
			fixtureSets: memory.NewFixtureSetRepository(),
			predictions: memory.NewPredictionRepository(),
			leagues:     memory.NewLeagueRepository(),
			players:     memory.NewPlayerRepository(),
		}, nil, nil
	}

	db, err := otelsqlx.Connect("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return stores{}, nil, fmt.Errorf("connect postgres: %w", err)
	}

	logger.Info("using postgres stores", "database", dbNameFromURL(cfg.DBURL))
	return stores{
		events:      postgres.NewEventStore(db),
		documents:   postgres.NewDocumentStore(db),
		fixtureSets: postgres.NewFixtureSetRepository(db),
		predictions: postgres.NewPredictionRepository(db),
		leagues:     postgres.NewLeagueRepository(db),
		players:     postgres.NewPlayerRepository(db),
	}, db, nil
}

// buildResultsProvider returns nil when no provider is configured; the
// reconciliation service then runs kickoff and conclusion alone.
func buildResultsProvider(cfg config.Config, logger *logging.Logger) usecase.ResultsProvider {
	if cfg.FootballDataEnabled {
		logger.Info("results provider enabled", "provider", "footballdata")
		return footballdata.NewClient(footballdata.ClientConfig{
			BaseURL:    cfg.FootballDataBaseURL,
			Token:      cfg.FootballDataToken,
			Timeout:    cfg.FootballDataTimeout,
			MaxRetries: cfg.FootballDataMaxRetries,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.FootballDataCircuitEnabled,
				FailureThreshold: cfg.FootballDataCircuitFailureCount,
				OpenTimeout:      cfg.FootballDataCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.FootballDataCircuitHalfOpenMaxReq,
			},
		})
	}
	if cfg.SoccerViewEnabled {
		logger.Info("results provider enabled", "provider", "soccerview")
		return soccerview.NewClient(soccerview.ClientConfig{
			BaseURL: cfg.SoccerViewBaseURL,
			Timeout: cfg.SoccerViewTimeout,
			Logger:  logger,
		})
	}

	logger.Info("results provider disabled")
	return nil
}

// buildNotifier returns nil when webpush is off; broadcasts then fall through
// to the no-op notifier.
func buildNotifier(cfg config.Config, logger *logging.Logger) usecase.Notifier {
	if !cfg.WebPushEnabled {
		logger.Info("webpush disabled", "reason", "WEBPUSH_ENABLED=false")
		return nil
	}

	logger.Info("webpush enabled")
	return webpush.NewClient(webpush.ClientConfig{
		BaseURL: cfg.WebPushBaseURL,
		Token:   cfg.WebPushToken,
		Timeout: cfg.WebPushTimeout,
		Logger:  logger,
		IDs:     idgen.NewRandomGenerator(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.WebPushCircuitEnabled,
			FailureThreshold: cfg.WebPushCircuitFailureCount,
			OpenTimeout:      cfg.WebPushCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.WebPushCircuitHalfOpenMaxReq,
		},
	})
}
