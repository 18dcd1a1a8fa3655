package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsgonest/tskeys/internal/literal"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Module != "ts-transformer-keys" {
		t.Fatalf("expected default module 'ts-transformer-keys', got %q", cfg.Module)
	}
	if cfg.Function != "keys" {
		t.Fatalf("expected default function 'keys', got %q", cfg.Function)
	}
	if cfg.Mode() != literal.ModeRecords {
		t.Fatalf("expected records mode by default, got %q", cfg.Mode())
	}
	if cfg.MaxDepth != DefaultMaxDepth {
		t.Fatalf("expected max depth %d, got %d", DefaultMaxDepth, cfg.MaxDepth)
	}
	if len(cfg.Include) != 4 {
		t.Fatalf("expected 4 default include patterns, got %d", len(cfg.Include))
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "tskeys.config.json", `{
		"module": "@acme/keys",
		"function": "fieldsOf",
		"output": "paths",
		"maxDepth": 5,
		"exclude": ["**/*.spec.ts"]
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Module != "@acme/keys" || cfg.Function != "fieldsOf" {
		t.Fatalf("unexpected target: %s/%s", cfg.Module, cfg.Function)
	}
	if cfg.Mode() != literal.ModePaths {
		t.Fatalf("expected paths mode, got %q", cfg.Output)
	}
	if cfg.MaxDepth != 5 {
		t.Fatalf("expected max depth 5, got %d", cfg.MaxDepth)
	}
	// Omitted fields keep their defaults.
	if len(cfg.Include) != 4 {
		t.Fatalf("expected default include to survive, got %v", cfg.Include)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "**/*.spec.ts" {
		t.Fatalf("unexpected exclude: %v", cfg.Exclude)
	}
}

func TestLoadYAML(t *testing.T) {
	for _, name := range []string{"tskeys.config.yaml", "tskeys.config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, name, "function: props\nstrict: true\ninclude:\n  - src/**/*.ts\n")

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Function != "props" {
				t.Fatalf("expected function 'props', got %q", cfg.Function)
			}
			if !cfg.Strict {
				t.Fatal("expected strict to be true")
			}
			if len(cfg.Include) != 1 || cfg.Include[0] != "src/**/*.ts" {
				t.Fatalf("unexpected include: %v", cfg.Include)
			}
			if cfg.Module != "ts-transformer-keys" {
				t.Fatalf("expected default module, got %q", cfg.Module)
			}
		})
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "tskeys.config.yaml", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Function != "keys" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	cases := map[string]string{
		"tskeys.config.json": `{"modul": "x"}`,
		"tskeys.config.yaml": "modul: x\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, name, content))
			if err == nil {
				t.Fatal("expected error for unknown field")
			}
			if !strings.Contains(err.Error(), "failed to parse config file") {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	_, err := Load(writeConfig(t, "tskeys.config.json", `{ not json`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load(writeConfig(t, "tskeys.config.toml", `module = "x"`))
	if err == nil || !strings.Contains(err.Error(), "unsupported config format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestLoadValidates(t *testing.T) {
	_, err := Load(writeConfig(t, "tskeys.config.json", `{"output": "tuples"}`))
	if err == nil {
		t.Fatal("expected error for invalid output mode")
	}
	if !strings.Contains(err.Error(), "invalid config") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty module", func(c *Config) { c.Module = "" }, "module"},
		{"empty function", func(c *Config) { c.Function = "" }, "function"},
		{"bad output", func(c *Config) { c.Output = "csv" }, "output"},
		{"zero depth", func(c *Config) { c.MaxDepth = 0 }, "maxDepth"},
		{"no include", func(c *Config) { c.Include = nil }, "include"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	if got := Discover(dir); got != "" {
		t.Fatalf("expected no config, got %q", got)
	}

	yml := filepath.Join(dir, "tskeys.config.yml")
	if err := os.WriteFile(yml, []byte("function: keys\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Discover(dir); got != yml {
		t.Fatalf("expected %q, got %q", yml, got)
	}

	// JSON wins over YAML.
	js := filepath.Join(dir, "tskeys.config.json")
	if err := os.WriteFile(js, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Discover(dir); got != js {
		t.Fatalf("expected %q, got %q", js, got)
	}
}

func TestMatchesGlob(t *testing.T) {
	tests := []struct {
		path    string
		include []string
		exclude []string
		want    bool
	}{
		{"src/user.ts", []string{"**/*.ts"}, nil, true},
		{"/abs/project/src/deep/user.ts", []string{"src/**/*.ts"}, nil, true},
		{"lib/user.ts", []string{"src/**/*.ts"}, nil, false},
		{"src/user.spec.ts", []string{"**/*.ts"}, []string{"**/*.spec.ts"}, false},
		{"src/view.tsx", []string{"**/*.ts"}, nil, false},
		{"src/view.tsx", []string{"**/*.ts", "**/*.tsx"}, nil, true},
		{"src/user.ts", nil, nil, false},
		{"src/user.ts", []string{"*.ts"}, nil, true},
	}
	for _, tt := range tests {
		got := MatchesGlob(tt.path, tt.include, tt.exclude)
		if got != tt.want {
			t.Errorf("MatchesGlob(%q, %v, %v) = %v, want %v", tt.path, tt.include, tt.exclude, got, tt.want)
		}
	}
}

func TestConfigMatches(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exclude = []string{"**/*.d.ts"}
	if !cfg.Matches("src/a.mts") {
		t.Error("expected .mts to match")
	}
	if cfg.Matches("src/types.d.ts") {
		t.Error("expected .d.ts to be excluded")
	}
	if cfg.Matches("src/a.js") {
		t.Error("expected .js not to match")
	}
}
