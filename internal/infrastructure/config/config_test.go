package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":   "jwt",
		"TOKEN_SECRET": "tok",
	}))
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Port != "8080" || cfg.StoreDriver != DriverMongo {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	ages := cfg.Tokens.Ages()
	if ages.RoleChange != 800*time.Second || ages.DeletionRequest != 72*time.Hour || ages.EmailVerify != time.Hour {
		t.Fatalf("unexpected token ages: %+v", ages)
	}
	if cfg.SMTP.Mail().Enabled() {
		t.Fatalf("smtp should be disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":         "jwt",
		"TOKEN_SECRET":       "tok",
		"STORE_DRIVER":       "memory",
		"TOKEN_ROLE_MAX_AGE": "5m",
		"SMTP_HOST":          "smtp.test",
	}))
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.StoreDriver != DriverMemory || cfg.Tokens.RoleChange != 5*time.Minute || cfg.SMTP.Host != "smtp.test" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secrets": {},
		"same secrets":    {"JWT_SECRET": "x", "TOKEN_SECRET": "x"},
		"bad driver":      {"JWT_SECRET": "a", "TOKEN_SECRET": "b", "STORE_DRIVER": "sqlite"},
		"memory in prod":  {"JWT_SECRET": "a", "TOKEN_SECRET": "b", "STORE_DRIVER": "memory", "ENV": "production"},
	}
	for name, env := range cases {
		if _, err := load(context.Background(), envconfig.MapLookuper(env)); err == nil || !strings.HasPrefix(err.Error(), "config:") {
			t.Fatalf("%s: expected config error, got %v", name, err)
		}
	}
}
