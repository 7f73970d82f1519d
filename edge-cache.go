// Package edgecache composes the offline gateway with the cache-header
// policy middleware into a single http.Handler that fronts a storefront
// origin. Responses flow origin → gateway (bucket storage) → policy
// (Cache-Control, validators) → conditional (304) → client.
package edgecache

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/otogaleri/edge-cache/cache"
	"github.com/otogaleri/edge-cache/gateway"
	"github.com/otogaleri/edge-cache/metrics"
	"github.com/otogaleri/edge-cache/policy"
)

type Config struct {
	// Storage for cache buckets.
	Cache cache.Provider
	// URL of the origin server.
	OriginURL url.URL
	// Version suffix for bucket names. Bump on deploy to invalidate.
	Version string
	// Precache manifest installed into the static bucket.
	// gateway.DefaultPrecache if nil.
	Precache []string
	// OfflinePath is the fallback page for failed navigations.
	OfflinePath string
	// OriginTimeout bounds origin fetches.
	OriginTimeout time.Duration
	// Rules override the built-in per-path Cache-Control dispatch.
	// Must be compiled (see policy.Rules.Compile).
	Rules policy.Rules
	// Logger to use. A disabled logger is used if nil.
	Logger *zerolog.Logger
	// Metrics sink, optional.
	Metrics *metrics.Metrics
}

type EdgeCache struct {
	gateway *gateway.Gateway
	handler http.Handler
	log     zerolog.Logger
}

// New creates the edge cache. Call Init before serving to run the
// install/activate lifecycle.
func New(config Config) *EdgeCache {
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}
	gw := gateway.New(gateway.Config{
		Cache:         config.Cache,
		OriginURL:     config.OriginURL,
		Version:       config.Version,
		Precache:      config.Precache,
		OfflinePath:   config.OfflinePath,
		OriginTimeout: config.OriginTimeout,
		Logger:        config.Logger,
		Metrics:       config.Metrics,
	})
	return &EdgeCache{
		gateway: gw,
		handler: policy.ConditionalWithMetrics(
			policy.DynamicCacheWithRules(gw, config.Rules), config.Metrics),
		log: logger,
	}
}

// Init precaches the manifest and drops buckets from previous versions.
// Precache failures are logged but not fatal: an unreachable origin at
// startup must not keep the cache from serving what it already has.
func (e *EdgeCache) Init(ctx context.Context) error {
	if err := e.gateway.Install(ctx); err != nil {
		e.log.Warn().Err(err).Msg("Install incomplete, continuing with partial precache")
	}
	e.gateway.Activate()
	return nil
}

// Gateway exposes the underlying gateway, e.g. for Sync hooks.
func (e *EdgeCache) Gateway() *gateway.Gateway {
	return e.gateway
}

// ServeHTTP implements the http.Handler interface.
func (e *EdgeCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.handler.ServeHTTP(w, r)
}
