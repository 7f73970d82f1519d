// Package client is a read-side API client for the storefront. Every
// operation is memoized through a TTL cache with a stable key prefix per
// resource kind, so UI layers can call freely without producing redundant
// network round-trips. Invalidation is per prefix and never affects
// unrelated resources.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/otogaleri/edge-cache/imagecache"
	"github.com/otogaleri/edge-cache/ttlcache"
)

// Key prefixes per resource kind. External callers rely on these being
// stable for targeted invalidation.
const (
	PrefixVehicles      = "vehicles"
	PrefixVehicleDetail = "vehicle-detail"
	PrefixCategories    = "categories"
	PrefixBlogList      = "blog-list"
	PrefixBlogDetail    = "blog-detail"
	PrefixSettings      = "settings"
	PrefixPages         = "pages"
	PrefixOffers        = "offers"
	PrefixCustomers     = "customers"
)

// Default freshness per resource class. These are tuning knobs, not
// invariants; override them in Config.
var defaultTTLs = map[string]time.Duration{
	PrefixVehicles:      10 * time.Minute,
	PrefixVehicleDetail: 20 * time.Minute,
	PrefixCategories:    30 * time.Minute,
	PrefixBlogList:      15 * time.Minute,
	PrefixBlogDetail:    30 * time.Minute,
	PrefixSettings:      time.Hour,
	PrefixPages:         30 * time.Minute,
	PrefixOffers:        15 * time.Minute,
	PrefixCustomers:     5 * time.Minute,
}

type Config struct {
	// BaseURL of the storefront API, e.g. "https://example.com".
	BaseURL string
	// TTLs overrides the default per-prefix freshness.
	TTLs map[string]time.Duration
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
	// Images enables VehicleImage; optional.
	Images *imagecache.Cache
	// Logger to use. A disabled logger is used if nil.
	Logger *zerolog.Logger
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	fetcher    *ttlcache.Fetcher
	images     *imagecache.Cache
	ttls       map[string]time.Duration
	log        zerolog.Logger
}

func New(config Config) *Client {
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "client").Logger()
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	ttls := make(map[string]time.Duration, len(defaultTTLs))
	for prefix, ttl := range defaultTTLs {
		ttls[prefix] = ttl
	}
	for prefix, ttl := range config.TTLs {
		ttls[prefix] = ttl
	}
	return &Client{
		baseURL:    config.BaseURL,
		httpClient: config.HTTPClient,
		fetcher:    ttlcache.NewFetcher(ttlcache.New()),
		images:     config.Images,
		ttls:       ttls,
		log:        logger,
	}
}

// Invalidate drops every cached entry for the given key prefix.
func (c *Client) Invalidate(prefix string) {
	c.fetcher.Cache().DeletePrefix(prefix + ":")
}

// ClearCache drops all cached entries.
func (c *Client) ClearCache() {
	c.fetcher.Cache().Clear()
}

// VehicleListParams filters and paginates vehicle listings. The zero value
// lists the first page, unfiltered.
type VehicleListParams struct {
	Page     int    `json:"page,omitempty"`
	Category string `json:"category,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

func (p VehicleListParams) query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Locale != "" {
		q.Set("locale", p.Locale)
	}
	return q
}

// ListVehicles returns a page of the vehicle inventory.
func (c *Client) ListVehicles(ctx context.Context, params VehicleListParams) ([]Vehicle, error) {
	return fetchJSON[[]Vehicle](ctx, c, PrefixVehicles, params, "/api/cars", params.query())
}

// Vehicle returns a single vehicle by slug.
func (c *Client) Vehicle(ctx context.Context, slug string) (Vehicle, error) {
	return fetchJSON[Vehicle](ctx, c, PrefixVehicleDetail, slug, "/api/cars/"+url.PathEscape(slug), nil)
}

// Categories returns the vehicle category tree.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	return fetchJSON[[]Category](ctx, c, PrefixCategories, nil, "/api/categories", nil)
}

// BlogListParams paginates blog listings.
type BlogListParams struct {
	Page   int    `json:"page,omitempty"`
	Locale string `json:"locale,omitempty"`
}

func (p BlogListParams) query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Locale != "" {
		q.Set("locale", p.Locale)
	}
	return q
}

// ListPosts returns a page of blog posts.
func (c *Client) ListPosts(ctx context.Context, params BlogListParams) ([]BlogPost, error) {
	return fetchJSON[[]BlogPost](ctx, c, PrefixBlogList, params, "/api/blog", params.query())
}

// Post returns a single blog post by slug.
func (c *Client) Post(ctx context.Context, slug string) (BlogPost, error) {
	return fetchJSON[BlogPost](ctx, c, PrefixBlogDetail, slug, "/api/blog/"+url.PathEscape(slug), nil)
}

// Settings returns the global site settings.
func (c *Client) Settings(ctx context.Context) (Settings, error) {
	return fetchJSON[Settings](ctx, c, PrefixSettings, nil, "/api/settings", nil)
}

// Pages returns the static pages for a locale.
func (c *Client) Pages(ctx context.Context, locale string) ([]Page, error) {
	return fetchJSON[[]Page](ctx, c, PrefixPages, locale, "/api/pages", url.Values{"locale": {locale}})
}

// Offers returns the current promotional offers.
func (c *Client) Offers(ctx context.Context) ([]Offer, error) {
	return fetchJSON[[]Offer](ctx, c, PrefixOffers, nil, "/api/offers", nil)
}

// Customers returns the back-office customer list.
func (c *Client) Customers(ctx context.Context) ([]Customer, error) {
	return fetchJSON[[]Customer](ctx, c, PrefixCustomers, nil, "/api/admin/customers", nil)
}

// RefreshVehicles drops the cached listing for params and re-fetches it.
func (c *Client) RefreshVehicles(ctx context.Context, params VehicleListParams) ([]Vehicle, error) {
	key := ttlcache.Key(PrefixVehicles, params)
	value, err := c.fetcher.Refresh(ctx, key, c.ttls[PrefixVehicles], func(ctx context.Context) (any, error) {
		var vehicles []Vehicle
		err := c.getJSON(ctx, "/api/cars", params.query(), &vehicles)
		return vehicles, err
	})
	if err != nil {
		return nil, err
	}
	return value.([]Vehicle), nil
}

// VehicleImage returns a data URL for a vehicle image, cached and
// re-encoded by the image cache.
func (c *Client) VehicleImage(ctx context.Context, imageURL string) (string, error) {
	if c.images == nil {
		return imageURL, nil
	}
	return c.images.DataURL(ctx, imageURL)
}

func fetchJSON[T any](ctx context.Context, c *Client, prefix string, params any, path string, query url.Values) (T, error) {
	key := ttlcache.Key(prefix, params)
	return ttlcache.Get(ctx, c.fetcher, key, c.ttls[prefix], func(ctx context.Context) (T, error) {
		var out T
		err := c.getJSON(ctx, path, query, &out)
		return out, err
	})
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	uri := c.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	c.log.Trace().Str("uri", uri).Msg("Fetching from API")
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, res.Body)
		return fmt.Errorf("get %s: status %d", path, res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
