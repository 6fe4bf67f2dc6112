package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Discord   DiscordConfig
	RateLimit RateLimitConfig
	Visits    VisitsConfig
	Blocklist BlocklistConfig
	Contact   ContactConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
}

// RedisConfig describes the optional durable store. An empty URL means the
// process runs entirely on its in-memory fallbacks.
type RedisConfig struct {
	URL string
}

type DiscordConfig struct {
	Enabled      bool
	BotToken     string
	ChannelID    string
	ReadyTimeout time.Duration
}

type RateLimitConfig struct {
	GlobalWindow    time.Duration
	GlobalMax       int
	ContactWindow   time.Duration
	ContactMax      int
	CleanupInterval time.Duration
}

type VisitsConfig struct {
	LogPath     string
	RecentLimit int
}

type BlocklistConfig struct {
	SnapshotPath string
}

type ContactConfig struct {
	DisposableDomains []string
}

// defaultDisposableDomains are rejected at email-domain validation time.
var defaultDisposableDomains = []string{
	"mailinator.com",
	"guerrillamail.com",
	"10minutemail.com",
	"tempmail.com",
	"temp-mail.org",
	"throwawaymail.com",
	"yopmail.com",
	"sharklasers.com",
	"getnada.com",
	"trashmail.com",
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", nil),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES", []string{"127.0.0.1/32", "::1/128"}),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Discord: DiscordConfig{
			Enabled:      getEnvAsBool("DISCORD_ENABLED", true),
			BotToken:     getEnv("DISCORD_BOT_TOKEN", ""),
			ChannelID:    getEnv("DISCORD_CHANNEL_ID", ""),
			ReadyTimeout: getEnvAsDuration("DISCORD_READY_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			GlobalWindow:    getEnvAsDuration("GLOBAL_RATE_WINDOW", time.Minute),
			GlobalMax:       getEnvAsInt("GLOBAL_RATE_MAX", 120),
			ContactWindow:   getEnvAsDuration("CONTACT_RATE_WINDOW", time.Minute),
			ContactMax:      getEnvAsInt("CONTACT_RATE_MAX", 6),
			CleanupInterval: getEnvAsDuration("RATE_CLEANUP_INTERVAL", 10*time.Minute),
		},
		Visits: VisitsConfig{
			LogPath:     getEnv("VISIT_LOG_PATH", "data/visits.log"),
			RecentLimit: getEnvAsInt("VISIT_RECENT_LIMIT", 100),
		},
		Blocklist: BlocklistConfig{
			SnapshotPath: getEnv("BLOCKLIST_SNAPSHOT_PATH", "data/blocked_ips.json"),
		},
		Contact: ContactConfig{
			DisposableDomains: getEnvAsList("DISPOSABLE_DOMAINS", defaultDisposableDomains),
		},
	}

	if cfg.Discord.Enabled {
		if cfg.Discord.BotToken == "" {
			return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required when DISCORD_ENABLED is true")
		}
		if cfg.Discord.ChannelID == "" {
			return nil, fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_ENABLED is true")
		}
	}

	if cfg.RateLimit.GlobalMax <= 0 || cfg.RateLimit.ContactMax <= 0 {
		return nil, fmt.Errorf("rate limit thresholds must be positive")
	}
	if cfg.Visits.RecentLimit <= 0 {
		return nil, fmt.Errorf("VISIT_RECENT_LIMIT must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
