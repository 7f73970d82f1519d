// Package gateway keeps the storefront answering when the origin is slow or
// down. It intercepts GET requests, serves and stores responses in named,
// versioned cache buckets with a per-route strategy, and falls back to a
// precached offline page for navigations. It is the HTTP equivalent of the
// storefront's browser service worker.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/otogaleri/edge-cache/cache"
	"github.com/otogaleri/edge-cache/metrics"
	serializer "github.com/otogaleri/edge-cache/pkg/response-serializer"
)

const (
	bucketStatic  = "static"
	bucketDynamic = "dynamic"
	bucketImages  = "images"
)

// DefaultPrecache lists the URLs installed into the static bucket: the
// locale roots, the offline fallback page and the web manifest. Build
// tooling must keep this in sync with deployed routes.
var DefaultPrecache = []string{
	"/", "/tr", "/en", "/ar", "/ru",
	"/offline.html", "/manifest.json",
}

type Config struct {
	// Storage for cache buckets.
	Cache cache.Provider
	// URL of the origin server.
	OriginURL url.URL
	// Version suffix for bucket names, e.g. "v1.0.0". Bumping it
	// invalidates all buckets on the next Activate.
	Version string
	// Precache is the install-time manifest. DefaultPrecache if nil.
	Precache []string
	// OfflinePath is the precached page served to failed navigations.
	OfflinePath string
	// OriginTimeout bounds every origin fetch. Defaults to 30 seconds.
	OriginTimeout time.Duration
	// Logger to use. A disabled logger is used if nil.
	Logger *zerolog.Logger
	// Metrics sink, optional.
	Metrics *metrics.Metrics
}

type Gateway struct {
	cache       cache.Provider
	originURL   url.URL
	version     string
	precache    []string
	offlinePath string
	log         zerolog.Logger
	metrics     *metrics.Metrics
	httpClient  *http.Client
	timeout     time.Duration
}

func New(config Config) *Gateway {
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "gateway").Logger()
	}
	if config.Version == "" {
		config.Version = "v1.0.0"
	}
	if config.Precache == nil {
		config.Precache = DefaultPrecache
	}
	if config.OfflinePath == "" {
		config.OfflinePath = "/offline.html"
	}
	if config.OriginTimeout <= 0 {
		config.OriginTimeout = 30 * time.Second
	}
	return &Gateway{
		cache:       config.Cache,
		originURL:   config.OriginURL,
		version:     config.Version,
		precache:    config.Precache,
		offlinePath: config.OfflinePath,
		log:         logger,
		metrics:     config.Metrics,
		httpClient: &http.Client{
			// do not follow redirects, they are cached as-is
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: config.OriginTimeout,
	}
}

// bucketName returns the versioned name of a bucket kind,
// e.g. "static-v1.0.0".
func (g *Gateway) bucketName(kind string) string {
	return kind + "-" + g.version
}

// key builds the storage key for a URI within a bucket.
func (g *Gateway) key(kind, uri string) string {
	return g.bucketName(kind) + "|" + uri
}

// Install pre-populates the static bucket with the precache manifest.
// It fails if any manifest URL cannot be fetched, leaving already stored
// entries in place.
func (g *Gateway) Install(ctx context.Context) error {
	for _, path := range g.precache {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		res, err := g.fetchOrigin(req)
		if err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		if !successful(res) {
			res.Body.Close()
			return fmt.Errorf("precache %s: status %d", path, res.StatusCode)
		}
		if err := g.store(g.key(bucketStatic, path), res); err != nil {
			res.Body.Close()
			return fmt.Errorf("precache %s: %w", path, err)
		}
		res.Body.Close()
		g.log.Debug().Str("path", path).Msg("Precached")
	}
	g.log.Info().Int("urls", len(g.precache)).Str("version", g.version).Msg("Install complete")
	return nil
}

// Activate deletes every bucket whose versioned name is not in the current
// set. This is the only eviction the buckets have; bumping the configured
// version on deploy is the invalidation mechanism.
func (g *Gateway) Activate() {
	current := map[string]bool{
		g.bucketName(bucketStatic):  true,
		g.bucketName(bucketDynamic): true,
		g.bucketName(bucketImages):  true,
	}
	stale := map[string]bool{}
	g.cache.Keys("", func(key string) {
		name, _, found := strings.Cut(key, "|")
		if found && !current[name] {
			stale[name] = true
		}
	})
	for name := range stale {
		g.cache.PurgePrefix(name + "|")
		g.log.Info().Str("bucket", name).Msg("Purged stale bucket")
	}
}

// Sync is an extension point for deferred re-synchronization (e.g. queued
// form posts). It currently only logs the request.
func (g *Gateway) Sync(tag string) {
	g.log.Debug().Str("tag", tag).Msg("Background sync requested")
}

// Notify is an extension point for pushing storefront notifications
// (price drops, new listings) to clients. It currently only logs the
// request.
func (g *Gateway) Notify(title, body string) {
	g.log.Debug().Str("title", title).Str("body", body).Msg("Notification requested")
}

// fetchOrigin forwards the request to the origin, bounded by the configured
// timeout. The caller owns the response body.
func (g *Gateway) fetchOrigin(r *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	uri := g.originURL.String() + r.URL.RequestURI()
	body := r.Body
	if r.ContentLength == 0 {
		body = nil
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, uri, body)
	if err != nil {
		cancel()
		return nil, err
	}
	copyHeader(req.Header, r.Header)
	// do not forward hop-by-hop headers
	req.Header.Del("Connection")

	res, err := g.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	res.Body = &cancelOnClose{ReadCloser: res.Body, cancel: cancel}
	return res, nil
}

// cancelOnClose ties a request's timeout context to its response body, so
// the context lives until the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// store serializes res into the bucket under key. The response body remains
// readable afterwards.
func (g *Gateway) store(key string, res *http.Response) error {
	bts, err := serializer.ToBytes(serializer.StoredResponse{
		Response: res,
		StoredAt: time.Now(),
	})
	if err != nil {
		return err
	}
	if err := g.cache.Put(key, bts); err != nil {
		return err
	}
	g.log.Trace().Str("key", key).Msg("Bucket write")
	return nil
}

func successful(res *http.Response) bool {
	return res.StatusCode >= 200 && res.StatusCode < 300
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
