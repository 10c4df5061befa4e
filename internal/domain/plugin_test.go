package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func validPlugin() WordpressPluginConfig {
	return WordpressPluginConfig{
		PartnerID:         "le-monde",
		Domain:            "lemonde.ext",
		Publication:       "Le Monde",
		InjectionContext:  ContextSingular,
		InjectionStrategy: StrategyFirst,
		InjectionRules: []InjectionRule{
			{TargetSelector: ".entry-content > p", InsertPosition: InsertBefore, ExcludeSlugs: []string{"about"}},
			{TargetSelector: "article", InsertPosition: InsertPrepend},
		},
		Version: "1.2.3",
	}
}

func TestWordpressPluginConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WordpressPluginConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(*WordpressPluginConfig) {}},
		{name: "two part version", mutate: func(c *WordpressPluginConfig) { c.Version = "1.2" }, wantErr: true},
		{name: "prefixed version", mutate: func(c *WordpressPluginConfig) { c.Version = "v1.2.3" }, wantErr: true},
		{name: "no rules", mutate: func(c *WordpressPluginConfig) { c.InjectionRules = nil }, wantErr: true},
		{name: "bad context", mutate: func(c *WordpressPluginConfig) { c.InjectionContext = "home" }, wantErr: true},
		{name: "bad strategy", mutate: func(c *WordpressPluginConfig) { c.InjectionStrategy = "random" }, wantErr: true},
		{name: "bad rule position", mutate: func(c *WordpressPluginConfig) { c.InjectionRules[0].InsertPosition = "inside" }, wantErr: true},
		{name: "partner id with spaces", mutate: func(c *WordpressPluginConfig) { c.PartnerID = "Le Monde" }, wantErr: true},
		{name: "empty domain", mutate: func(c *WordpressPluginConfig) { c.Domain = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validPlugin()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidPlugin) {
				t.Fatalf("Validate() error = %v, want ErrInvalidPlugin", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestWordpressPluginConfigJSONRoundTrip(t *testing.T) {
	configs := []WordpressPluginConfig{validPlugin()}

	single := validPlugin()
	single.InjectionContext = ContextAll
	single.InjectionStrategy = StrategyAll
	single.InjectionRules = []InjectionRule{{TargetSelector: "h1", InsertPosition: InsertAfter}}
	single.Version = "10.0.0"
	configs = append(configs, single)

	noExclusions := validPlugin()
	noExclusions.InjectionRules = []InjectionRule{{TargetSelector: "article", InsertPosition: InsertAppend, ExcludeSlugs: []string{}}}
	configs = append(configs, noExclusions)

	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			t.Fatalf("fixture invalid: %v", err)
		}
		raw, err := json.Marshal(cfg)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var back WordpressPluginConfig
		if err := json.Unmarshal(raw, &back); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !reflect.DeepEqual(cfg, back) {
			t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, cfg)
		}
	}
}

func TestEmptyExcludeSlugsStaysEmpty(t *testing.T) {
	rule := InjectionRule{TargetSelector: "article", InsertPosition: InsertAppend, ExcludeSlugs: []string{}}
	raw, err := json.Marshal(rule)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"exclude_slugs":[]`) {
		t.Fatalf("empty exclusions dropped: %s", raw)
	}
	var back InjectionRule
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ExcludeSlugs == nil {
		t.Errorf("ExcludeSlugs = nil, want empty slice")
	}
}

func TestPluginJSONUsesSnakeCase(t *testing.T) {
	raw, err := json.Marshal(validPlugin())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"partner_id"`, `"injection_rules"`, `"target_selector"`, `"insert_position"`, `"exclude_slugs"`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("serialized config missing %s: %s", key, raw)
		}
	}
}

func TestPartnerSlug(t *testing.T) {
	tests := map[string]string{
		"Le Monde":        "le-monde",
		"  news.ext  ":    "news-ext",
		"Ça va / Daily!!": "a-va-daily",
	}
	for in, want := range tests {
		if got := PartnerSlug(in); got != want {
			t.Errorf("PartnerSlug(%q) = %q, want %q", in, got, want)
		}
	}
}
