package config

import (
	"os"
	"testing"
)

func TestLoadWithDefaults_Succeeds(t *testing.T) {
	// Ensure envs are clean to use defaults
	os.Unsetenv("DB_PATH")
	os.Unsetenv("GRPC_ADDRESS")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("PICKUP_CHECKLIST")
	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.GRPCAddress == "" || cfg.DBPath == "" || cfg.JWTSecret == "" {
		t.Fatalf("unexpected empty defaults: %+v", cfg)
	}
	if len(cfg.PickupChecklist) != 5 {
		t.Fatalf("default checklist size = %d, want 5", len(cfg.PickupChecklist))
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	// Clear JWT_SECRET ensures error
	os.Unsetenv("JWT_SECRET")
	t.Setenv("DB_PATH", "test.db")
	t.Setenv("GRPC_ADDRESS", ":1234")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is not set")
	}
	// When set, it should succeed
	t.Setenv("JWT_SECRET", "x")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with secret set: %v", err)
	}
}

func TestLoad_ChecklistOverride(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("PICKUP_CHECKLIST", "seal_intact,receipt_attached")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.PickupChecklist) != 2 || cfg.PickupChecklist[0] != "seal_intact" {
		t.Fatalf("checklist override: %v", cfg.PickupChecklist)
	}
}

func TestLoad_ChecklistRejectsEmptyItems(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("PICKUP_CHECKLIST", "a,,b")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for empty checklist item")
	}
}

func TestString_MasksSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "super-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := cfg.String()
	if s == "" {
		t.Fatal("empty string form")
	}
	for i := 0; i+len("super-secret") <= len(s); i++ {
		if s[i:i+len("super-secret")] == "super-secret" {
			t.Fatal("secret leaked into String()")
		}
	}
}
