package gateway

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	serializer "github.com/otogaleri/edge-cache/pkg/response-serializer"
)

// Route classes, in evaluation priority order.
const (
	routeStatic  = "static"
	routeAPI     = "api"
	routeImage   = "image"
	routeDynamic = "dynamic"
)

// staticExtensions the gateway serves cache-first from the static bucket.
var staticExtensions = []string{
	"js", "css", "json", "ico", "png", "jpg", "jpeg",
	"webp", "svg", "woff", "woff2", "ttf", "eot",
}

// imagePathMarkers route a request to the images bucket.
var imagePathMarkers = []string{"/uploads/", "/brands/", "/cars/", "/blog/"}

func classify(path string) string {
	for _, ext := range staticExtensions {
		if strings.HasSuffix(path, "."+ext) {
			return routeStatic
		}
	}
	if strings.HasPrefix(path, "/api/") {
		return routeAPI
	}
	for _, marker := range imagePathMarkers {
		if strings.Contains(path, marker) {
			return routeImage
		}
	}
	return routeDynamic
}

// ServeHTTP implements the http.Handler interface. Non-GET requests pass
// through to the origin untouched; GET requests are dispatched to one of
// the four routes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer g.recover(w, r)

	if r.Method != http.MethodGet {
		g.passthrough(w, r)
		return
	}

	switch classify(r.URL.Path) {
	case routeStatic:
		g.cacheFirst(w, r, routeStatic, bucketStatic)
	case routeAPI:
		g.networkFirst(w, r)
	case routeImage:
		g.cacheFirst(w, r, routeImage, bucketImages)
	default:
		g.dynamic(w, r)
	}
}

// recover turns a panic in a route handler into a synthetic 503. An
// unhandled panic here would tear down the whole request path, which the
// gateway must never do.
func (g *Gateway) recover(w http.ResponseWriter, r *http.Request) {
	if err := recover(); err != nil {
		g.log.Error().Interface("error", err).Str("path", r.URL.Path).Msg("Panic in gateway handler")
		g.errorResponse(w, http.StatusServiceUnavailable, "temporarily unavailable")
	}
}

// cacheFirst serves from the bucket when possible and fills it from the
// origin on a miss. With no cached copy and no origin, it answers 404.
func (g *Gateway) cacheFirst(w http.ResponseWriter, r *http.Request, route, kind string) {
	key := g.key(kind, r.URL.RequestURI())
	if bts, ok, err := g.cache.Get(key); err == nil && ok {
		if g.sendStored(w, bts, "hit") == nil {
			g.metrics.Hit(route)
			return
		}
	}

	g.metrics.Miss(route)
	res, err := g.fetchOrigin(r)
	if err != nil {
		g.log.Warn().Err(err).Str("path", r.URL.Path).Msg("Origin unreachable, no cached copy")
		g.errorResponse(w, http.StatusNotFound, "not available offline")
		return
	}
	defer res.Body.Close()

	if successful(res) {
		if err := g.store(key, res); err != nil {
			g.log.Error().Err(err).Str("key", key).Msg("Could not write to bucket")
		}
	}
	g.send(w, res, "fwd=miss")
}

// networkFirst always tries the origin and keeps the dynamic bucket as a
// fallback for when it is unreachable. With neither, it answers 503.
func (g *Gateway) networkFirst(w http.ResponseWriter, r *http.Request) {
	key := g.key(bucketDynamic, r.URL.RequestURI())
	res, err := g.fetchOrigin(r)
	if err == nil {
		defer res.Body.Close()
		if successful(res) {
			if err := g.store(key, res); err != nil {
				g.log.Error().Err(err).Str("key", key).Msg("Could not write to bucket")
			}
		}
		g.metrics.Miss(routeAPI)
		g.send(w, res, "fwd=miss")
		return
	}

	g.log.Warn().Err(err).Str("path", r.URL.Path).Msg("Origin unreachable, trying dynamic bucket")
	if bts, ok, err := g.cache.Get(key); err == nil && ok {
		if g.sendStored(w, bts, "hit; detail=fallback") == nil {
			g.metrics.Fallback(routeAPI)
			return
		}
	}
	g.errorResponse(w, http.StatusServiceUnavailable, "service unavailable")
}

// dynamic is network-first with no caching of successes. Failed navigations
// get the precached offline page; everything else gets a 503.
func (g *Gateway) dynamic(w http.ResponseWriter, r *http.Request) {
	res, err := g.fetchOrigin(r)
	if err == nil {
		defer res.Body.Close()
		g.metrics.Miss(routeDynamic)
		g.send(w, res, "fwd=miss")
		return
	}

	if isNavigation(r) {
		offlineKey := g.key(bucketStatic, g.offlinePath)
		if bts, ok, err := g.cache.Get(offlineKey); err == nil && ok {
			g.log.Debug().Str("path", r.URL.Path).Msg("Serving offline fallback page")
			if g.sendStored(w, bts, "hit; detail=offline") == nil {
				g.metrics.Fallback(routeDynamic)
				return
			}
		}
	}
	g.errorResponse(w, http.StatusServiceUnavailable, "offline")
}

// passthrough forwards the request to the origin without touching any
// bucket. Used for all non-GET methods.
func (g *Gateway) passthrough(w http.ResponseWriter, r *http.Request) {
	res, err := g.fetchOrigin(r)
	if err != nil {
		g.log.Error().Err(err).Msg("Error connecting to origin")
		http.Error(w, "could not connect to origin", http.StatusBadGateway)
		return
	}
	defer res.Body.Close()
	copyHeader(w.Header(), res.Header)
	w.WriteHeader(res.StatusCode)
	if _, err := io.Copy(w, res.Body); err != nil {
		g.log.Error().Err(err).Msg("Error writing to client")
	}
}

// isNavigation reports whether the request looks like a page navigation.
// Browsers mark these with Sec-Fetch-Mode; an Accept of text/html is the
// fallback signal for clients that do not send fetch metadata.
func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// send writes an origin response to the client, tagging it with a
// Cache-Status header.
func (g *Gateway) send(w http.ResponseWriter, res *http.Response, status string) {
	copyHeader(w.Header(), res.Header)
	w.Header().Add("Cache-Status", "edge-cache; "+status)
	w.WriteHeader(res.StatusCode)
	if _, err := io.Copy(w, res.Body); err != nil {
		g.log.Error().Err(err).Msg("Could not write response body to client")
	}
}

// sendStored writes a serialized bucket entry to the client.
func (g *Gateway) sendStored(w http.ResponseWriter, bts []byte, status string) error {
	sRes, err := serializer.FromBytes(bts)
	if err != nil {
		g.log.Error().Err(err).Msg("Could not deserialize stored response")
		return err
	}
	defer sRes.Response.Body.Close()
	copyHeader(w.Header(), sRes.Response.Header)
	w.Header().Add("Cache-Status", "edge-cache; "+status)
	w.WriteHeader(sRes.Response.StatusCode)
	if _, err := io.Copy(w, sRes.Response.Body); err != nil {
		g.log.Error().Err(err).Msg("Could not write stored body to client")
	}
	return nil
}

// errorResponse is the single place synthetic error responses are built,
// keeping the status taxonomy (404 static/image, 503 api/dynamic) auditable.
func (g *Gateway) errorResponse(w http.ResponseWriter, status int, message string) {
	g.metrics.Synthetic(strconv.Itoa(status))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	io.WriteString(w, message)
}
