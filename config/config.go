package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Run modes.
const (
	ModeOnce       = "once"
	ModeContinuous = "continuous"
)

// Config holds all application configuration.
type Config struct {
	Monitor MonitorConfig
	Browser BrowserConfig
	Timing  TimingConfig
	Notify  NotifyConfig
	Status  StatusConfig
	Log     LogConfig
}

// MonitorConfig controls the run loop.
type MonitorConfig struct {
	// Mode is ModeOnce (single pass, for cron) or ModeContinuous.
	Mode string // default: "continuous"

	// Interval is the sleep between poll cycles in continuous mode.
	Interval time.Duration // default: 3m

	// SitesFile is an optional YAML site registry. Empty means built-in sites.
	SitesFile string
}

// Once reports whether the process should exit after one poll cycle.
func (m MonitorConfig) Once() bool { return m.Mode == ModeOnce }

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is an optional proxy URL for all page loads.
	Proxy string

	// Stealth injects the go-rod/stealth evasions before navigation.
	Stealth bool // default: true

	// UserAgent and viewport normalise the browser fingerprint.
	UserAgent      string
	ViewportWidth  int // default: 1920
	ViewportHeight int // default: 1080
	AcceptLanguage string

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds blocks requests to well-known ad and tracking hosts.
	BlockAds bool // default: true
}

// TimingConfig bounds every suspension point of a poll.
type TimingConfig struct {
	// NavigationTimeout is the deadline for loading a site to network idle.
	NavigationTimeout time.Duration // default: 60s

	// LoadSettle is the pause after load for late client-side rendering.
	LoadSettle time.Duration // default: 5s

	// InteractionWait bounds the search for the interaction trigger.
	InteractionWait time.Duration // default: 10s

	// InteractionSettle is the pause after clicking the trigger.
	InteractionSettle time.Duration // default: 3s

	// FrameSettle is the pause before reading each nested frame.
	FrameSettle time.Duration // default: 2s

	// ExtractTimeout bounds the whole extraction stage of one site,
	// frame settles included.
	ExtractTimeout time.Duration // default: 60s
}

// NotifyConfig controls the notification dispatcher and its gateways.
type NotifyConfig struct {
	// TriggerDates are the dates whose presence causes a notification.
	TriggerDates []string // default: ["20"]

	// Cooldown suppresses repeat notifications for a site within the window.
	// Zero notifies on every cycle the trigger date is observed.
	Cooldown time.Duration // default: 0

	// RatePerMinute bounds gateway sends across all sites.
	RatePerMinute int // default: 20

	Telegram TelegramConfig
	Discord  DiscordConfig
	Webhook  WebhookConfig
	Email    EmailConfig
}

// TelegramConfig holds Bot API credentials.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	APIURL   string // default: "https://api.telegram.org"
}

// Configured reports whether both credentials are present.
func (c TelegramConfig) Configured() bool { return c.BotToken != "" && c.ChatID != "" }

// DiscordConfig holds bot credentials for channel messages.
type DiscordConfig struct {
	BotToken  string
	ChannelID string
}

func (c DiscordConfig) Configured() bool { return c.BotToken != "" && c.ChannelID != "" }

// WebhookConfig posts a signed JSON event to an HTTP endpoint.
type WebhookConfig struct {
	URL    string
	Secret string
}

func (c WebhookConfig) Configured() bool { return c.URL != "" }

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host     string
	Port     int // default: 587
	User     string
	Password string
	From     string
	To       []string
}

func (c EmailConfig) Configured() bool { return c.Host != "" && c.From != "" && len(c.To) > 0 }

// StatusConfig controls the optional status HTTP server.
type StatusConfig struct {
	// Addr is the listen address. Empty disables the server.
	Addr string
	Mode string // "debug", "release", "test"; default: "release"

	// APIKeys guards /api/v1/status. Empty leaves it open.
	APIKeys []string

	RequestsPerSecond float64 // default: 5
	Burst             int     // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Monitor: MonitorConfig{
			Mode:      loadMode(),
			Interval:  envPositiveDurationOr("DATEWATCH_INTERVAL", 3*time.Minute),
			SitesFile: os.Getenv("DATEWATCH_SITES_FILE"),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("DATEWATCH_HEADLESS", true),
			NoSandbox:      envBoolOr("DATEWATCH_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("DATEWATCH_BROWSER_BIN"),
			Proxy:          os.Getenv("DATEWATCH_PROXY"),
			Stealth:        envBoolOr("DATEWATCH_STEALTH", true),
			UserAgent:      envOr("DATEWATCH_USER_AGENT", defaultUserAgent),
			ViewportWidth:  envIntOr("DATEWATCH_VIEWPORT_WIDTH", 1920),
			ViewportHeight: envIntOr("DATEWATCH_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: envOr("DATEWATCH_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			BlockedResourceTypes: envSliceOr("DATEWATCH_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			BlockAds: envBoolOr("DATEWATCH_BLOCK_ADS", true),
		},
		Timing: TimingConfig{
			NavigationTimeout: envDurationOr("DATEWATCH_NAV_TIMEOUT", 60*time.Second),
			LoadSettle:        envDurationOr("DATEWATCH_LOAD_SETTLE", 5*time.Second),
			InteractionWait:   envDurationOr("DATEWATCH_INTERACTION_WAIT", 10*time.Second),
			InteractionSettle: envDurationOr("DATEWATCH_INTERACTION_SETTLE", 3*time.Second),
			FrameSettle:       envDurationOr("DATEWATCH_FRAME_SETTLE", 2*time.Second),
			ExtractTimeout:    envPositiveDurationOr("DATEWATCH_EXTRACT_TIMEOUT", 60*time.Second),
		},
		Notify: NotifyConfig{
			TriggerDates:  envSliceOr("DATEWATCH_TRIGGER_DATES", []string{"20"}),
			Cooldown:      envDurationOr("DATEWATCH_NOTIFY_COOLDOWN", 0),
			RatePerMinute: envIntOr("DATEWATCH_NOTIFY_RATE", 20),
			Telegram: TelegramConfig{
				BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
				ChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
				APIURL:   envOr("TELEGRAM_API_URL", "https://api.telegram.org"),
			},
			Discord: DiscordConfig{
				BotToken:  os.Getenv("DISCORD_BOT_TOKEN"),
				ChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
			},
			Webhook: WebhookConfig{
				URL:    os.Getenv("DATEWATCH_WEBHOOK_URL"),
				Secret: os.Getenv("DATEWATCH_WEBHOOK_SECRET"),
			},
			Email: EmailConfig{
				Host:     os.Getenv("SMTP_HOST"),
				Port:     envIntOr("SMTP_PORT", 587),
				User:     os.Getenv("SMTP_USER"),
				Password: os.Getenv("SMTP_PASSWORD"),
				From:     os.Getenv("SMTP_FROM"),
				To:       envSliceOr("SMTP_TO", nil),
			},
		},
		Status: StatusConfig{
			Addr: os.Getenv("DATEWATCH_STATUS_ADDR"),
			Mode: envOneOf("DATEWATCH_STATUS_MODE", "release", "debug", "release", "test"),

			APIKeys:           envSliceOr("DATEWATCH_STATUS_API_KEYS", nil),
			RequestsPerSecond: envFloatOr("DATEWATCH_STATUS_RPS", 5),
			Burst:             envIntOr("DATEWATCH_STATUS_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("DATEWATCH_LOG_LEVEL", "info"),
			Format: envOr("DATEWATCH_LOG_FORMAT", "text"),
		},
	}
}

// loadMode resolves the run mode. NODE_ENV=production is accepted as a
// legacy alias for single-pass mode when DATEWATCH_MODE is unset.
func loadMode() string {
	switch strings.ToLower(os.Getenv("DATEWATCH_MODE")) {
	case ModeOnce:
		return ModeOnce
	case ModeContinuous:
		return ModeContinuous
	}
	if os.Getenv("NODE_ENV") == "production" {
		return ModeOnce
	}
	return ModeContinuous
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envPositiveDurationOr rejects zero and negative durations.
func envPositiveDurationOr(key string, fallback time.Duration) time.Duration {
	if d := envDurationOr(key, fallback); d > 0 {
		return d
	}
	return fallback
}

// envOneOf returns the value of key when it is one of allowed, else fallback.
func envOneOf(key, fallback string, allowed ...string) string {
	v := strings.ToLower(os.Getenv(key))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
