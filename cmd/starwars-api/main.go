// Command starwars-api serves the Star Wars REST facade over SWAPI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gusttavosants/StarWars/internal/server"
	"github.com/gusttavosants/StarWars/pkg/analytics"
	"github.com/gusttavosants/StarWars/pkg/audit"
	"github.com/gusttavosants/StarWars/pkg/auth"
	"github.com/gusttavosants/StarWars/pkg/cache"
	"github.com/gusttavosants/StarWars/pkg/client"
	"github.com/gusttavosants/StarWars/pkg/config"
	"github.com/gusttavosants/StarWars/pkg/logging"
	"github.com/gusttavosants/StarWars/pkg/pagination"
	"github.com/gusttavosants/StarWars/pkg/ratelimit"
	"github.com/gusttavosants/StarWars/pkg/repository"
	"github.com/gusttavosants/StarWars/pkg/service"
)

// maintenanceInterval is how often old analytics and audit records are
// pruned.
const maintenanceInterval = time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("starwars-api failed")
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("starwars-api", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to a YAML config file (default: $CONFIG_PATH or ./config.yaml)")
	issueToken := flags.String("issue-token", "", "print a signed token for the given subject and exit")
	showVersion := flags.Bool("version", false, "print the version and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	if *showVersion {
		_, err := fmt.Fprintf(stdout, "%s %s\n", cfg.App.Name, cfg.App.Version)
		return err
	}

	logger := logging.Setup(logging.Config{
		Level:       logging.LogLevel(cfg.Logging.Level),
		Pretty:      cfg.Logging.Pretty,
		Service:     "starwars-api",
		Environment: cfg.App.Environment,
	})

	if *issueToken != "" {
		jwt, err := newJWTManager(cfg)
		if err != nil {
			return err
		}
		token, err := jwt.CreateToken(*issueToken)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		_, err = fmt.Fprintln(stdout, token)
		return err
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	return a.serve(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func newJWTManager(cfg *config.Config) (*auth.JWTManager, error) {
	return auth.NewJWTManager(auth.Config{
		Secret:     cfg.JWT.SecretKey,
		Expiration: cfg.JWT.Expiration(),
	})
}

// app holds everything built at startup.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	cache     cache.Cache
	client    *client.Client
	server    *server.Server
	analytics *analytics.Tracker
	audit     *audit.Log

	characters *repository.CharacterRepository
	films      *repository.FilmRepository
	planets    *repository.PlanetRepository
	starships  *repository.StarshipRepository
}

// newApp constructs every dependency explicitly: cache, client,
// repositories, services, security and the router.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cache.Config{RedisURL: cfg.Cache.RedisURL, DialTimeout: 5 * time.Second}, logger)
		if err != nil {
			return nil, fmt.Errorf("create cache: %w", err)
		}
		a.cache = c
	} else {
		logger.Info().Msg("Cache disabled")
	}

	swapi, err := client.New(client.Config{
		BaseURL:   cfg.SWAPI.BaseURL,
		UserAgent: cfg.SWAPI.UserAgent,
		Timeout:   cfg.SWAPI.Timeout(),
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create swapi client: %w", err)
	}
	a.client = swapi

	opts := repository.Options{CacheEnabled: cfg.Cache.Enabled, TTL: cfg.Cache.TTL()}
	a.characters = repository.NewCharacterRepository(swapi, a.cache, opts)
	a.films = repository.NewFilmRepository(swapi, a.cache, opts)
	a.planets = repository.NewPlanetRepository(swapi, a.cache, opts)
	a.starships = repository.NewStarshipRepository(swapi, a.cache, opts)

	svcOpts := service.Options{TraversalConcurrency: cfg.Cache.WarmConcurrency}

	jwt, err := newJWTManager(cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create jwt manager: %w", err)
	}

	limiter, err := a.newLimiter()
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}

	a.analytics = analytics.NewTracker(logging.NewLogger("analytics"))
	a.audit = audit.NewLog(cfg.Audit.MaxEvents, logging.NewLogger("audit"))

	a.server = server.New(server.Deps{
		Config:     cfg,
		Characters: service.NewCharacterService(a.characters, svcOpts),
		Films:      service.NewFilmService(a.films, svcOpts),
		Planets:    service.NewPlanetService(a.planets, svcOpts),
		Starships:  service.NewStarshipService(a.starships, svcOpts),
		Cache:      a.cache,
		JWT:        jwt,
		Limiter:    limiter,
		Analytics:  a.analytics,
		Audit:      a.audit,
		Logger:     logging.NewLogger("http"),
	})

	return a, nil
}

// newLimiter shares counters through Redis when the cache runs on Redis.
func (a *app) newLimiter() (*ratelimit.Limiter, error) {
	rl := a.cfg.RateLimit
	if !rl.Enabled {
		a.logger.Info().Msg("Rate limiting disabled")
		return nil, nil
	}

	cfg := ratelimit.Config{PerMinute: rl.PerMinute, Requests: rl.Requests, Period: rl.Period()}
	logger := logging.NewLogger("ratelimit")

	if rc, ok := a.cache.(*cache.RedisCache); ok {
		return ratelimit.NewRedisLimiter(cfg, rc.Client(), logger)
	}
	return ratelimit.NewLimiter(cfg, logger)
}

// serve runs the HTTP server, cache warming and maintenance until ctx is
// cancelled, then shuts the server down gracefully.
func (a *app) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      a.server,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	if a.cfg.Cache.WarmOnStartup && a.cache != nil {
		go a.warm(ctx)
	}
	go a.maintain(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().
			Str("addr", srv.Addr).
			Str("version", a.cfg.App.Version).
			Str("swapi", a.cfg.SWAPI.BaseURL).
			Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// warm fills the by-id cache for every collection. Failures are logged;
// warming never blocks serving.
func (a *app) warm(ctx context.Context) {
	start := time.Now()
	fetcher := pagination.NewBatchFetcher(a.client, pagination.Config{
		MaxConcurrency: a.cfg.Cache.WarmConcurrency,
		Timeout:        a.cfg.SWAPI.Timeout(),
	})

	warmers := map[string]func(context.Context, repository.PageSource) (int, error){
		repository.ResourcePeople:    a.characters.Warm,
		repository.ResourceFilms:     a.films.Warm,
		repository.ResourcePlanets:   a.planets.Warm,
		repository.ResourceStarships: a.starships.Warm,
	}

	var g errgroup.Group
	for resource, warm := range warmers {
		resource, warm := resource, warm
		g.Go(func() error {
			n, err := warm(ctx, fetcher)
			if err != nil {
				a.logger.Warn().Err(err).Str("resource", resource).Int("items", n).Msg("Cache warm-up incomplete")
			}
			return nil
		})
	}
	_ = g.Wait()

	a.logger.Info().Dur("duration", time.Since(start)).Msg("Cache warm-up finished")
}

// maintain prunes analytics and audit records past the retention period.
func (a *app) maintain(ctx context.Context) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.prune()
		}
	}
}

func (a *app) prune() {
	retention := a.cfg.Audit.Retention
	records := a.analytics.Prune(retention)
	events := a.audit.Cleanup(retention)
	a.logger.Debug().Int("records", records).Int("events", events).Msg("Maintenance pass")
}

func (a *app) close() {
	if a.client != nil {
		_ = a.client.Close()
	}
	if closer, ok := a.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close cache")
		}
	}
}
