package policy

import (
	"testing"
	"time"
)

func TestPresetDirectives(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"static", Static, "public, max-age=31536000, immutable"},
		{"api", API, "public, max-age=300, s-maxage=600, must-revalidate, stale-while-revalidate=60, stale-if-error=300"},
		{"private", Private, "private, max-age=60, must-revalidate"},
		{"noCache", NoCache, "no-cache, no-store, must-revalidate"},
	}
	for _, tt := range tests {
		if got := tt.opts.Build(); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestEmptyOptionsBuildNothing(t *testing.T) {
	if got := (Options{}).Build(); got != "" {
		t.Fatalf("empty options built %q", got)
	}
}

func TestDirectiveOrderIsFixed(t *testing.T) {
	opts := Options{
		StaleIfError:         time.Minute,
		Immutable:            true,
		MaxAge:               time.Minute,
		NoCache:              true,
		StaleWhileRevalidate: time.Minute,
		MustRevalidate:       true,
		SMaxAge:              time.Minute,
		Public:               true,
		Private:              true,
		NoStore:              true,
	}
	want := "no-cache, no-store, private, public, max-age=60, s-maxage=60, " +
		"must-revalidate, immutable, stale-while-revalidate=60, stale-if-error=60"
	if got := opts.Build(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSelectOptions(t *testing.T) {
	tests := []struct {
		path string
		want Options
	}{
		{"/logo.png", Static},
		{"/assets/app.js", Static},
		{"/fonts/main.woff2", Static},
		{"/api/cars", API},
		{"/api/admin/customers", Private},
		{"/api/user/offers", Private},
		{"/tr/araclar", NoCache},
		{"/", NoCache},
	}
	for _, tt := range tests {
		if got := SelectOptions(tt.path); got != tt.want {
			t.Errorf("SelectOptions(%q) = %+v, want %+v", tt.path, got, tt.want)
		}
	}
}
