// Package policy attaches caching semantics to outgoing HTTP responses:
// Cache-Control profiles, validator (ETag / Last-Modified) synthesis, and
// conditional-request (304) handling.
package policy

import (
	"fmt"
	"strings"
	"time"
)

// Options describes a Cache-Control profile. The zero value of every field
// means "omit that directive"; an all-zero Options produces no header at all.
type Options struct {
	NoCache              bool
	NoStore              bool
	Private              bool
	Public               bool
	MaxAge               time.Duration
	SMaxAge              time.Duration
	MustRevalidate       bool
	Immutable            bool
	StaleWhileRevalidate time.Duration
	StaleIfError         time.Duration
}

// Build produces the Cache-Control header value. Directives appear in a
// fixed order regardless of how the options were populated.
func (o Options) Build() string {
	directives := make([]string, 0, 10)
	if o.NoCache {
		directives = append(directives, "no-cache")
	}
	if o.NoStore {
		directives = append(directives, "no-store")
	}
	if o.Private {
		directives = append(directives, "private")
	}
	if o.Public {
		directives = append(directives, "public")
	}
	if o.MaxAge > 0 {
		directives = append(directives, fmt.Sprintf("max-age=%d", int(o.MaxAge.Seconds())))
	}
	if o.SMaxAge > 0 {
		directives = append(directives, fmt.Sprintf("s-maxage=%d", int(o.SMaxAge.Seconds())))
	}
	if o.MustRevalidate {
		directives = append(directives, "must-revalidate")
	}
	if o.Immutable {
		directives = append(directives, "immutable")
	}
	if o.StaleWhileRevalidate > 0 {
		directives = append(directives, fmt.Sprintf("stale-while-revalidate=%d", int(o.StaleWhileRevalidate.Seconds())))
	}
	if o.StaleIfError > 0 {
		directives = append(directives, fmt.Sprintf("stale-if-error=%d", int(o.StaleIfError.Seconds())))
	}
	return strings.Join(directives, ", ")
}

// The four stock profiles.
var (
	// Static is for content-addressed or versioned assets that never
	// change after a deploy.
	Static = Options{
		MaxAge:    365 * 24 * time.Hour,
		Immutable: true,
		Public:    true,
	}
	// API is for public read endpoints, allowing shared caches to serve
	// slightly stale data while revalidating.
	API = Options{
		MaxAge:               5 * time.Minute,
		SMaxAge:              10 * time.Minute,
		MustRevalidate:       true,
		Public:               true,
		StaleWhileRevalidate: time.Minute,
		StaleIfError:         5 * time.Minute,
	}
	// Private is for per-user data that must not land in shared caches.
	Private = Options{
		MaxAge:         time.Minute,
		Private:        true,
		MustRevalidate: true,
	}
	// NoCache is for responses that must never be reused.
	NoCache = Options{
		NoCache:        true,
		NoStore:        true,
		MustRevalidate: true,
	}
)

// staticExtensions are the filename extensions SelectOptions treats as
// immutable static assets.
var staticExtensions = []string{
	"jpg", "jpeg", "png", "gif", "webp", "svg", "ico",
	"css", "js", "woff", "woff2", "ttf", "eot",
}

// SelectOptions picks a profile for a request path: static assets get
// Static, API paths get API (or Private for admin/user endpoints), and
// everything else gets NoCache.
func SelectOptions(path string) Options {
	for _, ext := range staticExtensions {
		if strings.HasSuffix(path, "."+ext) {
			return Static
		}
	}
	if strings.HasPrefix(path, "/api/") {
		if strings.Contains(path, "/admin/") || strings.Contains(path, "/user/") {
			return Private
		}
		return API
	}
	return NoCache
}
