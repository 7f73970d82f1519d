package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	edgecache "github.com/otogaleri/edge-cache"
	"github.com/otogaleri/edge-cache/cache"
	"github.com/otogaleri/edge-cache/metrics"
)

var (
	// CLI flags
	configFilenameFlag string
	portFlag           int
	originFlag         string
	providerFlag       string
	dbFilenameFlag     string
	versionFlag        string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.StringVar(&originFlag, "origin", "", "Origin URL to proxy to (overrides config)")
	flag.IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	flag.StringVar(&providerFlag, "provider", "", "Bucket provider: memory, sqlite or leveldb (overrides config)")
	flag.StringVar(&dbFilenameFlag, "db", "", "Provider db path (overrides config)")
	flag.StringVar(&versionFlag, "bucket-version", "", "Bucket version suffix (overrides config)")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	var fileConfig edgecache.FileConfig
	if configFilenameFlag != "" {
		var err error
		fileConfig, err = edgecache.LoadConfig(configFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not load config")
		}
	}

	if originFlag != "" {
		fileConfig.Origin = originFlag
	}
	if portFlag != 0 {
		fileConfig.Port = portFlag
	}
	if fileConfig.Port == 0 {
		fileConfig.Port = 8080
	}
	if providerFlag != "" {
		fileConfig.Provider = providerFlag
	}
	if fileConfig.Provider == "" {
		fileConfig.Provider = "sqlite"
	}
	if dbFilenameFlag != "" {
		fileConfig.DBPath = dbFilenameFlag
	}
	if versionFlag != "" {
		fileConfig.Version = versionFlag
	}
	if fileConfig.Origin == "" {
		log.Fatal().Msg("Please specify origin")
	}

	originURL, err := url.Parse(fileConfig.Origin)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not parse origin url")
	}

	var provider cache.Provider
	switch fileConfig.Provider {
	case "memory":
		provider = cache.NewMemCache()
	case "sqlite":
		provider = cache.NewSQLiteCache(fileConfig.DBPath)
	case "leveldb":
		path := fileConfig.DBPath
		if path == "" {
			path = "./data/buckets"
		}
		ldb, err := cache.NewLevelDBCache(path)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not open leveldb")
		}
		defer ldb.Close()
		provider = ldb
	default:
		log.Fatal().Msgf("Unsupported provider: %s", fileConfig.Provider)
	}

	registry := prometheus.NewRegistry()

	ec := edgecache.New(edgecache.Config{
		Cache:         provider,
		OriginURL:     *originURL,
		Version:       fileConfig.Version,
		Precache:      fileConfig.Precache,
		OfflinePath:   fileConfig.OfflinePath,
		OriginTimeout: fileConfig.OriginTimeoutDuration(),
		Rules:         fileConfig.Rules,
		Logger:        &log.Logger,
		Metrics:       metrics.New(registry),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ec.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("Could not initialize edge cache")
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})
	r.Handle("/*", ec)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", fileConfig.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Msgf("Proxying port %d to %s", fileConfig.Port, originURL.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server error")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}
