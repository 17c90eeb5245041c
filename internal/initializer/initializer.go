package initializer

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	ccxt "github.com/milkywaybrain/goccxt"
	"github.com/milkywaybrain/goccxt/exchange"
	"github.com/milkywaybrain/goccxt/internal/config"
	"github.com/milkywaybrain/goccxt/internal/recorder"
	"github.com/milkywaybrain/goccxt/internal/storage"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"golang.org/x/sync/errgroup"
)

// Start will initialize various required systems and then execute the app.
func Start(mainCtx context.Context, cfg *config.Config) error {

	// Setting up logger.
	// If the path given in the config for logging ends with .log then create a log file with the same name and
	// write log messages to it. Otherwise, create a new log file with a timestamp attached to it's name in the given path.
	var (
		logFile *os.File
		err     error
	)
	if strings.HasSuffix(cfg.Log.FilePath, ".log") {
		logFile, err = os.OpenFile(cfg.Log.FilePath, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0666)
		if err != nil {
			return errors.Wrapf(err, "not able to open or create log file: %v", cfg.Log.FilePath)
		}
	} else {
		path := cfg.Log.FilePath + "_" + strconv.Itoa(int(time.Now().Unix())) + ".log"
		logFile, err = os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "not able to create log file: %v", path)
		}
	}
	defer logFile.Close()

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	switch cfg.Log.Level {
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	fileLogger := zerolog.New(logFile).With().Timestamp().Logger()
	log.Logger = fileLogger
	log.Info().Msg("logger setup is done")

	// Establish connections to the storage systems used by any market channel.
	stores, closeStores, err := initStorages(mainCtx, cfg)
	if err != nil {
		log.Error().Stack().Err(errors.WithStack(err)).Msg("")
		return err
	}
	defer closeStores()

	// Create every exchange client before starting, so a bad exchange config fails fast.
	exchanges := make([]exchange.Exchange, len(cfg.Exchanges))
	for i := range cfg.Exchanges {
		exch := &cfg.Exchanges[i]
		ex, err := ccxt.New(exch.Name, ExchangeConfig(exch, &cfg.Connection))
		if err != nil {
			err = errors.Wrapf(err, "%s exchange", exch.Name)
			log.Error().Stack().Err(errors.WithStack(err)).Msg("")
			return err
		}
		exchanges[i] = ex
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Address != "" {
		metricsSrv = &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           NewMetricsRouter(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Stack().Err(errors.WithStack(err)).Str("address", cfg.Metrics.Address).Msg("metrics server")
			}
		}()
		log.Info().Str("address", cfg.Metrics.Address).Msg("metrics server started")
	}

	// Start each exchange function. If any exchange fails after retry, force all the other exchanges to stop and
	// exit the app.
	appErrGroup, appCtx := errgroup.WithContext(mainCtx)
	for i := range cfg.Exchanges {
		ex := exchanges[i]
		markets := cfg.Exchanges[i].Markets
		retry := cfg.Exchanges[i].Retry
		appErrGroup.Go(func() error {
			return recorder.Start(appCtx, ex, markets, &retry, &cfg.Connection, stores)
		})
	}

	err = appErrGroup.Wait()

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if shutdownErr := metricsSrv.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Stack().Err(errors.WithStack(shutdownErr)).Msg("metrics server shutdown")
		}
		cancel()
	}

	if err != nil {
		log.Error().Msg("exiting the app")
		return err
	}
	return nil
}

// initStorages connects every storage system referenced by a market channel.
// The returned func closes the opened connections.
func initStorages(ctx context.Context, cfg *config.Config) (map[string]storage.Store, func(), error) {
	stores := make(map[string]storage.Store)
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.UsesStorage(storage.TerminalName) {
		stores[storage.TerminalName] = storage.NewTerminal(os.Stdout)
		log.Info().Msg("terminal connected")
	}
	if cfg.UsesStorage(storage.MySQLName) {
		m, err := storage.NewMySQL(ctx, &cfg.Connection.MySQL)
		if err != nil {
			closeAll()
			return nil, nil, errors.Wrap(err, "mysql connection")
		}
		stores[storage.MySQLName] = m
		closers = append(closers, func() { m.DB.Close() })
		log.Info().Msg("mysql connected")
	}
	if cfg.UsesStorage(storage.ElasticSearchName) {
		es, err := storage.NewElasticSearch(ctx, &cfg.Connection.ES)
		if err != nil {
			closeAll()
			return nil, nil, errors.Wrap(err, "elastic search connection")
		}
		stores[storage.ElasticSearchName] = es
		log.Info().Msg("elastic search connected")
	}
	if cfg.UsesStorage(storage.PostgresName) {
		p, err := storage.NewPostgres(ctx, &cfg.Connection.Postgres)
		if err != nil {
			closeAll()
			return nil, nil, errors.Wrap(err, "postgres connection")
		}
		stores[storage.PostgresName] = p
		closers = append(closers, p.Pool.Close)
		log.Info().Msg("postgres connected")
	}
	return stores, closeAll, nil
}

// ExchangeConfig maps the recorder config of an exchange to the client config.
func ExchangeConfig(exch *config.Exchange, conn *config.Connection) exchange.Config {
	return exchange.Config{
		APIKey:              exch.Credentials.APIKey,
		Secret:              exch.Credentials.Secret,
		Password:            exch.Credentials.Password,
		UID:                 exch.Credentials.UID,
		Timeout:             conn.REST.ReqTimeoutMs,
		RateLimit:           exch.Options.RateLimitMs,
		EnableRateLimit:     exch.Options.EnableRateLimit,
		Verbose:             exch.Options.Verbose,
		Proxy:               exch.Options.Proxy,
		URLs:                exch.Options.URLs,
		MaxIdleConns:        conn.REST.MaxIdleConns,
		MaxIdleConnsPerHost: conn.REST.MaxIdleConnsPerHost,
		WSConnTimeoutSec:    conn.WS.ConnTimeoutSec,
		WSReadTimeoutSec:    conn.WS.ReadTimeoutSec,
	}
}

// NewMetricsRouter serves prometheus metrics and a health check.
func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}
