// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Realtime      RealtimeConfig      `mapstructure:"realtime"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Push          PushConfig          `mapstructure:"push"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig points at the marketplace backend this subsystem talks to.
type ServerConfig struct {
	APIBaseURL     string `mapstructure:"api_base_url"`
	RealtimeURL    string `mapstructure:"realtime_url"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RealtimeConfig tunes the duplex channel client.
type RealtimeConfig struct {
	ReconnectBaseDelay   int `mapstructure:"reconnect_base_delay"` // milliseconds
	ReconnectMaxDelay    int `mapstructure:"reconnect_max_delay"`  // milliseconds
	MaxReconnectAttempts int `mapstructure:"max_reconnect_attempts"`
	TypingDebounce       int `mapstructure:"typing_debounce"` // milliseconds
	TypingExpiry         int `mapstructure:"typing_expiry"`   // milliseconds
}

// NotificationsConfig tunes the in-app notification store.
type NotificationsConfig struct {
	PollInterval int `mapstructure:"poll_interval"` // milliseconds
	PageSize     int `mapstructure:"page_size"`
}

// PushConfig covers the push subscription handshake with the server.
type PushConfig struct {
	PublicKeyPath string `mapstructure:"public_key_path"`
	SubscribePath string `mapstructure:"subscribe_path"`
}

// WorkerConfig is the background notification worker's settings.
type WorkerConfig struct {
	EventChannel   string `mapstructure:"event_channel"`   // redis channel push events arrive on
	ClickChannel   string `mapstructure:"click_channel"`   // redis channel click events arrive on
	ControlChannel string `mapstructure:"control_channel"` // redis channel app control messages arrive on
	UIChannel      string `mapstructure:"ui_channel"`      // redis channel UI commands go out on
	DefaultTitle   string `mapstructure:"default_title"`
	DefaultBody    string `mapstructure:"default_body"`
	IconPath       string `mapstructure:"icon_path"`
	BadgePath      string `mapstructure:"badge_path"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func validateConfig(cfg *Config) error {
	if cfg.Server.APIBaseURL == "" {
		return fmt.Errorf("server.api_base_url is required")
	}
	if cfg.Server.RealtimeURL == "" {
		return fmt.Errorf("server.realtime_url is required")
	}
	if cfg.Worker.EventChannel == "" {
		return fmt.Errorf("worker.event_channel is required")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "UrPark"
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 10000
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Realtime.ReconnectBaseDelay <= 0 {
		cfg.Realtime.ReconnectBaseDelay = 1000
	}
	if cfg.Realtime.ReconnectMaxDelay <= 0 {
		cfg.Realtime.ReconnectMaxDelay = 30000
	}
	if cfg.Realtime.TypingDebounce <= 0 {
		cfg.Realtime.TypingDebounce = 1000
	}
	if cfg.Realtime.TypingExpiry <= 0 {
		cfg.Realtime.TypingExpiry = 5000
	}
	if cfg.Notifications.PollInterval <= 0 {
		cfg.Notifications.PollInterval = 30000
	}
	if cfg.Notifications.PageSize <= 0 {
		cfg.Notifications.PageSize = 20
	}
	if cfg.Push.PublicKeyPath == "" {
		cfg.Push.PublicKeyPath = "/api/notifications/push/public-key"
	}
	if cfg.Push.SubscribePath == "" {
		cfg.Push.SubscribePath = "/api/notifications/push/subscribe"
	}
	if cfg.Worker.EventChannel == "" {
		cfg.Worker.EventChannel = "urpark:push:events"
	}
	if cfg.Worker.ClickChannel == "" {
		cfg.Worker.ClickChannel = "urpark:push:clicks"
	}
	if cfg.Worker.ControlChannel == "" {
		cfg.Worker.ControlChannel = "urpark:push:control"
	}
	if cfg.Worker.UIChannel == "" {
		cfg.Worker.UIChannel = "urpark:push:ui"
	}
	if cfg.Worker.DefaultTitle == "" {
		cfg.Worker.DefaultTitle = "UrPark"
	}
	if cfg.Worker.DefaultBody == "" {
		cfg.Worker.DefaultBody = "You have a new notification"
	}
	if cfg.Worker.IconPath == "" {
		cfg.Worker.IconPath = "/assets/icons/icon-192.png"
	}
	if cfg.Worker.BadgePath == "" {
		cfg.Worker.BadgePath = "/assets/icons/badge-72.png"
	}
	if cfg.Worker.MetricsAddress == "" {
		cfg.Worker.MetricsAddress = ":9464"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
