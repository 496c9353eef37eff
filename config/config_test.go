package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATEWATCH_MODE", "")
	t.Setenv("NODE_ENV", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")

	cfg := Load()

	assert.Equal(t, ModeContinuous, cfg.Monitor.Mode)
	assert.False(t, cfg.Monitor.Once())
	assert.Equal(t, 180*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, 60*time.Second, cfg.Timing.NavigationTimeout)
	assert.Equal(t, 3*time.Second, cfg.Timing.InteractionSettle)
	assert.Equal(t, 2*time.Second, cfg.Timing.FrameSettle)
	assert.Equal(t, []string{"20"}, cfg.Notify.TriggerDates)
	assert.Zero(t, cfg.Notify.Cooldown)
	assert.Equal(t, 1920, cfg.Browser.ViewportWidth)
	assert.Equal(t, 1080, cfg.Browser.ViewportHeight)
	assert.False(t, cfg.Notify.Telegram.Configured())
}

func TestLoad_ModeSelection(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		nodeEnv string
		want    string
	}{
		{"explicit once", "once", "", ModeOnce},
		{"explicit continuous wins over legacy", "continuous", "production", ModeContinuous},
		{"legacy production alias", "", "production", ModeOnce},
		{"case insensitive", "ONCE", "", ModeOnce},
		{"unknown falls back", "sometimes", "", ModeContinuous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATEWATCH_MODE", tt.mode)
			t.Setenv("NODE_ENV", tt.nodeEnv)
			assert.Equal(t, tt.want, Load().Monitor.Mode)
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATEWATCH_INTERVAL", "30s")
	t.Setenv("DATEWATCH_TRIGGER_DATES", "20, 21 ,")
	t.Setenv("DATEWATCH_NOTIFY_COOLDOWN", "1h")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("SMTP_TO", "a@example.com,b@example.com")
	t.Setenv("DATEWATCH_VIEWPORT_WIDTH", "not-a-number")

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, []string{"20", "21"}, cfg.Notify.TriggerDates)
	assert.Equal(t, time.Hour, cfg.Notify.Cooldown)
	assert.True(t, cfg.Notify.Telegram.Configured())
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Notify.Email.To)
	assert.Equal(t, 1920, cfg.Browser.ViewportWidth, "unparseable value keeps the default")
}

func TestLoad_NonPositiveIntervalFallsBack(t *testing.T) {
	for _, v := range []string{"0s", "-5m", "0"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("DATEWATCH_INTERVAL", v)
			assert.Equal(t, 3*time.Minute, Load().Monitor.Interval)
		})
	}
}

func TestLoad_ExtractTimeout(t *testing.T) {
	t.Setenv("DATEWATCH_EXTRACT_TIMEOUT", "")
	assert.Equal(t, 60*time.Second, Load().Timing.ExtractTimeout)

	t.Setenv("DATEWATCH_EXTRACT_TIMEOUT", "15s")
	assert.Equal(t, 15*time.Second, Load().Timing.ExtractTimeout)
}

func TestLoad_StatusMode(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", "release"},
		{"debug", "debug"},
		{"TEST", "test"},
		{"verbose", "release"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("DATEWATCH_STATUS_MODE", tt.value)
			assert.Equal(t, tt.want, Load().Status.Mode)
		})
	}
}
