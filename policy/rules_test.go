package policy

import "testing"

func TestRulesCompileRejectsBadRules(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
	}{
		{"no matcher", Rules{{Preset: "api"}}},
		{"no profile", Rules{{Path: "/x"}}},
		{"unknown preset", Rules{{Path: "/x", Preset: "aggressive"}}},
	}
	for _, tt := range tests {
		if err := tt.rules.Compile(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestRulesFirstMatchWins(t *testing.T) {
	rules := Rules{
		{Path: "/api/cars", Preset: "private"},
		{Prefix: "/api/", Override: "no-store"},
	}
	if err := rules.Compile(); err != nil {
		t.Fatal(err)
	}

	if cc, ok := rules.CacheControl("/api/cars"); !ok || cc != Private.Build() {
		t.Fatalf("exact path: got %q, %v", cc, ok)
	}
	if cc, ok := rules.CacheControl("/api/offers"); !ok || cc != "no-store" {
		t.Fatalf("prefix override: got %q, %v", cc, ok)
	}
	if _, ok := rules.CacheControl("/tr"); ok {
		t.Fatal("unmatched path returned a rule")
	}
}
