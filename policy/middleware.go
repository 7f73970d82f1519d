package policy

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"

	"github.com/otogaleri/edge-cache/metrics"
	tee "github.com/otogaleri/edge-cache/pkg/response-writer-tee"
)

// startTime is the Last-Modified fallback for responses that do not carry
// one. Content served by a deploy does not change within that deploy, so
// process start is a usable modification time.
var startTime = time.Now()

// CacheHeaders returns a middleware that stamps responses with the given
// Cache-Control profile and synthesizes validators for GET responses that
// lack them. The ETag is a hash of the response body, so a resource keeps
// its ETag until its content changes.
func CacheHeaders(opts Options) func(http.Handler) http.Handler {
	value := opts.Build()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := tee.NewRecorder()
			next.ServeHTTP(rec, r)
			stampHeaders(rec, r, value)
			if err := rec.WriteTo(w); err != nil {
				log.Error().Err(err).Msg("Could not write response to client")
			}
		})
	}
}

// DynamicCache is a middleware that selects the Cache-Control profile per
// request based on the request path (see SelectOptions).
func DynamicCache(next http.Handler) http.Handler {
	return DynamicCacheWithRules(next, nil)
}

// DynamicCacheWithRules is DynamicCache with operator-configured path
// rules consulted before the built-in dispatch. Rules must be compiled.
func DynamicCacheWithRules(next http.Handler, rules Rules) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := tee.NewRecorder()
		next.ServeHTTP(rec, r)
		value, ok := rules.CacheControl(r.URL.Path)
		if !ok {
			value = SelectOptions(r.URL.Path).Build()
		}
		stampHeaders(rec, r, value)
		if err := rec.WriteTo(w); err != nil {
			log.Error().Err(err).Msg("Could not write response to client")
		}
	})
}

func stampHeaders(rec *tee.Recorder, r *http.Request, cacheControl string) {
	// error responses keep whatever caching headers the handler set,
	// a synthetic 404 must not inherit an asset profile
	if rec.Status() < 200 || rec.Status() >= 300 {
		return
	}
	header := rec.Header()
	if cacheControl != "" {
		header.Set("Cache-Control", cacheControl)
	}
	if r.Method == http.MethodGet {
		if header.Get("ETag") == "" {
			header.Set("ETag", ContentETag(rec.Body()))
		}
		if header.Get("Last-Modified") == "" {
			header.Set("Last-Modified", startTime.UTC().Format(http.TimeFormat))
		}
	}
	addVary(header, "Accept-Encoding")
}

// ContentETag computes a strong ETag from response content.
func ContentETag(body []byte) string {
	return fmt.Sprintf("\"%x\"", xxhash.Sum64(body))
}

// addVary adds name to the Vary header unless some existing value already
// lists it. Existing values are kept as-is.
func addVary(header http.Header, name string) {
	for _, value := range header.Values("Vary") {
		for _, member := range strings.Split(value, ",") {
			if strings.EqualFold(strings.TrimSpace(member), name) {
				return
			}
		}
	}
	header.Add("Vary", name)
}

// Conditional returns a middleware that turns matching conditional requests
// into 304 responses. If-None-Match is compared against the outgoing ETag,
// and If-Modified-Since against the outgoing Last-Modified; either match is
// sufficient. A 304 carries the headers of the full response but no body.
func Conditional(next http.Handler) http.Handler {
	return ConditionalWithMetrics(next, nil)
}

// ConditionalWithMetrics is Conditional with every 304 counted on m.
func ConditionalWithMetrics(next http.Handler, m *metrics.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := tee.NewRecorder()
		next.ServeHTTP(rec, r)
		if rec.Status() == http.StatusOK && notModified(r, rec.Header()) {
			log.Trace().Str("path", r.URL.Path).Msg("Conditional request matched, sending 304")
			m.NotModified()
			rec.WriteHeadersTo(w, http.StatusNotModified)
			return
		}
		if err := rec.WriteTo(w); err != nil {
			log.Error().Err(err).Msg("Could not write response to client")
		}
	})
}

func notModified(r *http.Request, header http.Header) bool {
	if match := r.Header.Get("If-None-Match"); match != "" {
		if etag := header.Get("ETag"); etag != "" && match == etag {
			return true
		}
	}
	if since := r.Header.Get("If-Modified-Since"); since != "" {
		if lastModified := header.Get("Last-Modified"); lastModified != "" {
			sinceTime, err := http.ParseTime(since)
			if err != nil {
				return false
			}
			modTime, err := http.ParseTime(lastModified)
			if err != nil {
				return false
			}
			if !modTime.After(sinceTime) {
				return true
			}
		}
	}
	return false
}

// WarmURLs is an extension point for pre-fetching a list of URLs into
// downstream caches. It currently only logs the request.
func WarmURLs(urls []string) {
	for _, url := range urls {
		log.Debug().Str("url", url).Msg("Cache warming requested")
	}
}
