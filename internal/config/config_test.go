package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISCORD_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   interface{}
		expected interface{}
	}{
		{"Port", cfg.Server.Port, "8080"},
		{"Env", cfg.Server.Env, "development"},
		{"GlobalWindow", cfg.RateLimit.GlobalWindow, time.Minute},
		{"GlobalMax", cfg.RateLimit.GlobalMax, 120},
		{"ContactWindow", cfg.RateLimit.ContactWindow, time.Minute},
		{"ContactMax", cfg.RateLimit.ContactMax, 6},
		{"ReadyTimeout", cfg.Discord.ReadyTimeout, 10 * time.Second},
		{"VisitLogPath", cfg.Visits.LogPath, "data/visits.log"},
		{"RecentLimit", cfg.Visits.RecentLimit, 100},
		{"SnapshotPath", cfg.Blocklist.SnapshotPath, "data/blocked_ips.json"},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if len(cfg.Contact.DisposableDomains) == 0 {
		t.Error("expected default disposable domains to be populated")
	}
}

func TestLoad_DiscordEnabledRequiresCredentials(t *testing.T) {
	t.Setenv("DISCORD_ENABLED", "true")
	t.Setenv("DISCORD_BOT_TOKEN", "")
	t.Setenv("DISCORD_CHANNEL_ID", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil error, want missing token error")
	}

	t.Setenv("DISCORD_BOT_TOKEN", "token")
	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil error, want missing channel error")
	}

	t.Setenv("DISCORD_CHANNEL_ID", "123456")
	if _, err := Load(); err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DISCORD_ENABLED", "false")
	t.Setenv("PORT", "9999")
	t.Setenv("CONTACT_RATE_WINDOW", "30s")
	t.Setenv("CONTACT_RATE_MAX", "3")
	t.Setenv("DISPOSABLE_DOMAINS", "Spam.example, junk.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.Port != "9999" {
		t.Errorf("Port: got %q, want %q", cfg.Server.Port, "9999")
	}
	if cfg.RateLimit.ContactWindow != 30*time.Second {
		t.Errorf("ContactWindow: got %v, want 30s", cfg.RateLimit.ContactWindow)
	}
	if cfg.RateLimit.ContactMax != 3 {
		t.Errorf("ContactMax: got %d, want 3", cfg.RateLimit.ContactMax)
	}
	want := []string{"spam.example", "junk.example"}
	if len(cfg.Contact.DisposableDomains) != len(want) {
		t.Fatalf("DisposableDomains: got %v, want %v", cfg.Contact.DisposableDomains, want)
	}
	for i := range want {
		if cfg.Contact.DisposableDomains[i] != want[i] {
			t.Errorf("DisposableDomains[%d]: got %q, want %q", i, cfg.Contact.DisposableDomains[i], want[i])
		}
	}
}

func TestLoad_RejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("DISCORD_ENABLED", "false")
	t.Setenv("CONTACT_RATE_MAX", "0")

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil error, want threshold error")
	}
}
