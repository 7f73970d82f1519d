package imagecache

import (
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func pngHandler(t *testing.T, fetches *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*fetches++
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, img); err != nil {
			t.Fatal(err)
		}
	})
}

func TestDataURLReencodesAsJpeg(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(pngHandler(t, &fetches))
	defer server.Close()

	c := New(Config{})
	dataURL, err := c.DataURL(context.Background(), server.URL+"/cars/1.png")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(dataURL, "data:image/jpeg;base64,") {
		t.Fatalf("data URL is %q", dataURL[:40])
	}
}

func TestDataURLIsMemoized(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(pngHandler(t, &fetches))
	defer server.Close()

	c := New(Config{})
	url := server.URL + "/cars/2.png"
	first, err := c.DataURL(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.DataURL(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	if fetches != 1 {
		t.Fatalf("origin fetched %d times", fetches)
	}
	if first != second {
		t.Fatal("memoized value differs")
	}
}

func TestFetchFailureReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := New(Config{})
	if _, err := c.DataURL(context.Background(), server.URL+"/missing.png"); err == nil {
		t.Fatal("expected error")
	}
}
