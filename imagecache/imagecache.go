// Package imagecache memoizes remote images as base64 JPEG data URLs.
//
// Fetched images are decoded and re-encoded as JPEG at a fixed quality, so
// the cached copy is lossy with respect to the original bytes. Callers that
// need the original image must fetch it directly.
package imagecache

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/viccon/sturdyc"
)

const jpegQuality = 80

type Config struct {
	// TTL for cached data URLs. Defaults to one hour.
	TTL time.Duration
	// Capacity is the maximum number of cached images. Defaults to 1024.
	Capacity int
	// HTTPClient used for fetching. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// Cache fetches images and serves them as data URLs. The sturdyc backend
// deduplicates concurrent fetches for the same URL and evicts by TTL.
type Cache struct {
	client     *sturdyc.Client[string]
	httpClient *http.Client
}

func New(cfg Config) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1024
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Cache{
		client:     sturdyc.New[string](cfg.Capacity, 16, cfg.TTL, 10),
		httpClient: cfg.HTTPClient,
	}
}

// DataURL returns a data:image/jpeg;base64 URL for the image at url,
// fetching and re-encoding it on a cache miss.
func (c *Cache) DataURL(ctx context.Context, url string) (string, error) {
	return c.client.GetOrFetch(ctx, "image:"+url, func(ctx context.Context) (string, error) {
		dataURL, err := c.fetchAndEncode(ctx, url)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("Could not cache image")
			return "", err
		}
		return dataURL, nil
	})
}

// Invalidate drops the cached copy of url.
func (c *Cache) Invalidate(url string) {
	c.client.Delete("image:" + url)
}

func (c *Cache) fetchAndEncode(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, res.Body)
		return "", fmt.Errorf("fetch %s: status %d", url, res.StatusCode)
	}

	img, _, err := image.Decode(res.Body)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", url, err)
	}

	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode %s: %w", url, err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
