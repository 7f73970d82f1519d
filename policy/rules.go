package policy

import (
	"fmt"
	"strings"
)

// Rule overrides the Cache-Control profile for matching request paths.
// Path matches exactly, Prefix matches any path under it; one of the two
// is required. Preset names a stock profile; Override is a raw
// Cache-Control value and wins over Preset.
type Rule struct {
	Path     string `yaml:"path"`
	Prefix   string `yaml:"prefix"`
	Preset   string `yaml:"preset"`
	Override string `yaml:"override"`
}

// Rules are evaluated in order, first match wins.
type Rules []Rule

var presets = map[string]Options{
	"static":  Static,
	"api":     API,
	"private": Private,
	"noCache": NoCache,
}

// Compile validates the rule set. Call it once at config load time so
// bad rules fail startup instead of silently matching nothing.
func (r Rules) Compile() error {
	for i, rule := range r {
		if rule.Path == "" && rule.Prefix == "" {
			return fmt.Errorf("rule %d: path or prefix required", i)
		}
		if rule.Override == "" && rule.Preset == "" {
			return fmt.Errorf("rule %d: preset or override required", i)
		}
		if rule.Preset != "" {
			if _, ok := presets[rule.Preset]; !ok {
				return fmt.Errorf("rule %d: unknown preset %q", i, rule.Preset)
			}
		}
	}
	return nil
}

// CacheControl returns the header value of the first rule matching path.
func (r Rules) CacheControl(path string) (string, bool) {
	for _, rule := range r {
		if rule.Path != "" && rule.Path != path {
			continue
		}
		if rule.Prefix != "" && !strings.HasPrefix(path, rule.Prefix) {
			continue
		}
		if rule.Override != "" {
			return rule.Override, true
		}
		return presets[rule.Preset].Build(), true
	}
	return "", false
}
