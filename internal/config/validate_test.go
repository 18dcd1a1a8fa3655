package config

import (
	"testing"
)

func TestValidateDetailed_Valid(t *testing.T) {
	cfg := DefaultConfig()
	result := cfg.ValidateDetailed()
	if !result.IsValid() {
		t.Errorf("expected valid config, got errors: %v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
}

func TestValidateDetailed_MissingInclude(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Include = nil
	result := cfg.ValidateDetailed()
	if result.IsValid() {
		t.Error("expected invalid config")
	}
}

func TestValidateDetailed_FunctionNotIdentifier(t *testing.T) {
	for _, fn := range []string{"1keys", "keys()", "my-keys"} {
		cfg := DefaultConfig()
		cfg.Function = fn
		if cfg.ValidateDetailed().IsValid() {
			t.Errorf("expected %q to be rejected", fn)
		}
	}
	cfg := DefaultConfig()
	cfg.Function = "$keys_2"
	if !cfg.ValidateDetailed().IsValid() {
		t.Error("expected $keys_2 to be accepted")
	}
}

func TestValidateDetailed_InvalidOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "INVALID"
	result := cfg.ValidateDetailed()
	if result.IsValid() {
		t.Error("expected error for invalid output mode")
	}
}

func TestValidateDetailed_ModuleLooksLikeFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Module = "./keys.ts"
	result := cfg.ValidateDetailed()
	if !result.IsValid() {
		t.Errorf("expected only a warning, got errors: %v", result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected warning for module with .ts extension")
	}
}

func TestValidateDetailed_DepthBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDepth = 0
	if cfg.ValidateDetailed().IsValid() {
		t.Error("expected error for zero depth")
	}

	cfg.MaxDepth = 1000
	result := cfg.ValidateDetailed()
	if !result.IsValid() || len(result.Warnings) == 0 {
		t.Errorf("expected warning for very deep config, got %+v", result)
	}
}

func TestValidateDetailed_WeirdIncludePattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Include = []string{"src/models"}
	result := cfg.ValidateDetailed()
	if len(result.Warnings) == 0 {
		t.Error("expected warning for pattern without wildcard")
	}
}
