package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/scoretree/internal/cache"
	"github.com/fortuna/scoretree/internal/config"
	"github.com/fortuna/scoretree/internal/discovery"
	"github.com/fortuna/scoretree/internal/fetch"
	"github.com/fortuna/scoretree/internal/harvest"
	"github.com/fortuna/scoretree/internal/hupu"
	"github.com/fortuna/scoretree/internal/jobs"
	"github.com/fortuna/scoretree/internal/logging"
	"github.com/fortuna/scoretree/internal/metrics"
	"github.com/fortuna/scoretree/internal/publisher"
	"github.com/fortuna/scoretree/internal/registry"
	"github.com/fortuna/scoretree/internal/sink"
	"github.com/fortuna/scoretree/internal/store"
	"github.com/fortuna/scoretree/internal/store/repository"
)

const (
	redisRetries    = 5
	redisRetryDelay = 2 * time.Second
	streamMaxLen    = 10000
)

// app holds the process-wide dependencies shared by every command.
type app struct {
	cfg     config.Config
	log     *logrus.Logger
	metrics *metrics.Metrics
	client  *hupu.Client

	// optional backends; nil when not configured
	db      *store.Database
	nodes   *repository.NodeRepository
	records *repository.RecordRepository
	redis   *cache.RedisCache
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	m := metrics.New()

	fetcher := fetch.New(fetch.Options{
		UserAgent:       cfg.Fetch.UserAgent,
		Timeout:         cfg.Fetch.Timeout(),
		RatePerSecond:   cfg.Fetch.RatePerSecond,
		Burst:           cfg.Fetch.Burst,
		Retries:         cfg.Fetch.Retries,
		BreakerFailures: uint32(max(cfg.Fetch.BreakerFailures, 0)),
		BreakerCooldown: cfg.Fetch.BreakerCooldown(),
		Metrics:         m,
		Logger:          logger,
	})

	a := &app{
		cfg:     cfg,
		log:     logger,
		metrics: m,
		client:  hupu.NewClient(cfg.Fetch.BaseURL, fetcher),
	}

	if err := a.openBackends(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openBackends(ctx context.Context) error {
	if dsn := a.cfg.Storage.AtlasDSN; dsn != "" {
		db, err := store.NewDatabase(ctx, dsn, a.log)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		a.db = db
		if err := db.RunMigrations(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		a.nodes = repository.NewNodeRepository(db)
		a.records = repository.NewRecordRepository(db)
		a.log.Info("connected to postgres")
	}

	if url := a.cfg.Storage.RedisURL; url != "" {
		rc, err := connectRedis(ctx, url, a.log)
		if err != nil {
			return err
		}
		a.redis = rc
		a.log.Info("connected to redis")
	}
	return nil
}

func connectRedis(ctx context.Context, url string, log logrus.FieldLogger) (*cache.RedisCache, error) {
	var lastErr error
	for i := 0; i < redisRetries; i++ {
		rc, err := cache.NewRedisCache(ctx, url)
		if err == nil {
			return rc, nil
		}
		lastErr = err

		if i < redisRetries-1 {
			log.WithError(err).Warnf("redis connection attempt %d/%d failed, retrying in %v", i+1, redisRetries, redisRetryDelay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(redisRetryDelay):
			}
		}
	}
	return nil, fmt.Errorf("connect redis after %d attempts: %w", redisRetries, lastErr)
}

// Close releases the optional backends.
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("close redis")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("close database")
		}
	}
}

// backendSinks returns the Postgres and Redis stream sinks that are configured.
func (a *app) backendSinks() sink.Multi {
	var sinks sink.Multi
	if a.db != nil {
		sinks = append(sinks, sink.NewPostgresSink(a.nodes, a.records))
	}
	if a.redis != nil {
		pub := publisher.NewRedisStreamPublisher(a.redis.Client(), streamMaxLen)
		sinks = append(sinks, sink.NewStreamSink(pub))
	}
	return sinks
}

// nodeSource reads harvest input from Postgres when configured, else from
// the registry file at path.
func (a *app) nodeSource(path string) jobs.NodeSource {
	return func(ctx context.Context) []hupu.NodeEntry {
		if a.cfg.Harvest.NodesFromDB && a.nodes != nil {
			return registry.LoadRepository(ctx, a.nodes, a.log)
		}
		return registry.LoadFile(path, a.log)
	}
}

// statusCache returns the job status mirror, or nil without Redis.
func (a *app) statusCache() jobs.StatusCache {
	if a.redis == nil {
		return nil
	}
	return a.redis
}

// discoverJob runs one walker pass, writing nodes to the registry file at
// out plus any backend and extra sinks.
type discoverJob struct {
	app   *app
	out   string
	extra sink.Multi
}

func (d discoverJob) Run(ctx context.Context, minID, maxID int64) discovery.Result {
	sinks := append(sink.Multi{sink.NewJSONNodeSink(d.out)}, d.app.backendSinks()...)
	sinks = append(sinks, d.extra...)

	walker := discovery.NewWalker(d.app.client, sinks, discovery.Options{
		Teams:       hupu.NewTeamSet(d.app.cfg.Discovery.Teams),
		Concurrency: d.app.cfg.Fetch.Concurrency,
		Metrics:     d.app.metrics,
		Logger:      d.app.log,
	})
	res := walker.Run(ctx, minID, maxID)

	if err := sinks.Close(); err != nil {
		d.app.log.WithError(err).WithField("path", d.out).Error("failed to save node registry")
	}
	return res
}

// harvestJob runs one pipeline pass into a fresh CSV at out plus any
// backend and extra sinks.
type harvestJob struct {
	app   *app
	out   string
	extra sink.Multi
}

func (h harvestJob) Run(ctx context.Context, entries []hupu.NodeEntry) harvest.Summary {
	csvSink, err := sink.CreateCSV(h.out)
	if err != nil {
		h.app.log.WithError(err).Error("failed to open record output")
		return harvest.Summary{Entries: len(entries), EntriesFailed: len(entries)}
	}

	sinks := append(sink.Multi{csvSink}, h.app.backendSinks()...)
	sinks = append(sinks, h.extra...)

	pipeline := harvest.NewPipeline(h.app.client, sinks, harvest.Options{
		Concurrency: h.app.cfg.Fetch.Concurrency,
		StripMarkup: h.app.cfg.Harvest.StripMarkup,
		Metrics:     h.app.metrics,
		Logger:      h.app.log,
	})
	summary := pipeline.Run(ctx, entries)

	if err := sinks.Close(); err != nil {
		h.app.log.WithError(err).WithField("path", h.out).Error("failed to close record output")
	}
	return summary
}
