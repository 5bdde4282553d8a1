package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"praktika/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Practice   PracticeConfig   `yaml:"practice"`
	API        APIConfig        `yaml:"api"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Google     GoogleConfig     `yaml:"google"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// PracticeConfig carries the scheduling policy of the practice.
type PracticeConfig struct {
	Timezone               string `yaml:"timezone"`
	BusinessStart          string `yaml:"business_start"`
	BusinessEnd            string `yaml:"business_end"`
	SlotIntervalMinutes    int    `yaml:"slot_interval_minutes"`
	DefaultDurationMinutes int    `yaml:"default_duration_minutes"`
	SuggestionLimit        int    `yaml:"suggestion_limit"`
	MaxBookingDays         int    `yaml:"max_booking_days"`
	SnapshotBufferDays     int    `yaml:"snapshot_buffer_days"`
	ReportTTLSeconds       int    `yaml:"report_ttl_seconds"`
}

// Location resolves the configured practice timezone.
func (p PracticeConfig) Location() (*time.Location, error) {
	return time.LoadLocation(p.Timezone)
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GoogleConfig struct {
	Enabled               bool   `yaml:"enabled"`
	GoogleCredentialsFile string `yaml:"credentials_file"`
	ScheduleSpreadsheetID string `yaml:"schedule_spreadsheet_id"`
}

type TelegramConfig struct {
	Enabled      bool   `yaml:"enabled"`
	BotToken     string `yaml:"bot_token"`
	StaffChatID  int64  `yaml:"staff_chat_id"`
	ReminderTime string `yaml:"reminder_time"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; env vars may come from the environment directly.
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Environment variables are expanded before parsing so secrets stay
	// out of the YAML.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if _, err := c.Practice.Location(); err != nil {
		return fmt.Errorf("invalid practice timezone %q: %w", c.Practice.Timezone, err)
	}
	if c.Practice.DefaultDurationMinutes <= 0 {
		return errors.New("practice default duration must be positive")
	}
	if c.Practice.SlotIntervalMinutes <= 0 {
		return errors.New("practice slot interval must be positive")
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram enabled but bot_token is empty")
	}
	if c.Google.Enabled && (c.Google.GoogleCredentialsFile == "" || c.Google.ScheduleSpreadsheetID == "") {
		return errors.New("google sheets enabled but credentials_file or schedule_spreadsheet_id is empty")
	}
	return nil
}

// ValidateResources rejects duplicate or zero ids in the seed data before
// they reach the repository caches.
func ValidateResources(staff []models.Staff, rooms []models.Room, services []models.Service) error {
	staffIDs := make(map[int64]bool, len(staff))
	for _, s := range staff {
		if s.ID == 0 {
			return fmt.Errorf("staff %q has invalid ID 0", s.Name)
		}
		if staffIDs[s.ID] {
			return fmt.Errorf("duplicate staff ID: %d", s.ID)
		}
		staffIDs[s.ID] = true
	}

	roomIDs := make(map[int64]bool, len(rooms))
	for _, r := range rooms {
		if r.ID == 0 {
			return fmt.Errorf("room %q has invalid ID 0", r.Name)
		}
		if roomIDs[r.ID] {
			return fmt.Errorf("duplicate room ID: %d", r.ID)
		}
		roomIDs[r.ID] = true
	}

	serviceIDs := make(map[int64]bool, len(services))
	for _, s := range services {
		if s.ID == 0 {
			return fmt.Errorf("service %q has invalid ID 0", s.Name)
		}
		if serviceIDs[s.ID] {
			return fmt.Errorf("duplicate service ID: %d", s.ID)
		}
		serviceIDs[s.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}

	if c.Practice.Timezone == "" {
		c.Practice.Timezone = "Europe/Berlin"
	}
	if c.Practice.BusinessStart == "" {
		c.Practice.BusinessStart = models.DefaultBusinessStart
	}
	if c.Practice.BusinessEnd == "" {
		c.Practice.BusinessEnd = models.DefaultBusinessEnd
	}
	if c.Practice.SlotIntervalMinutes == 0 {
		c.Practice.SlotIntervalMinutes = models.DefaultSlotIntervalMinutes
	}
	if c.Practice.DefaultDurationMinutes == 0 {
		c.Practice.DefaultDurationMinutes = models.DefaultDurationMinutes
	}
	if c.Practice.SuggestionLimit == 0 {
		c.Practice.SuggestionLimit = models.DefaultSuggestionLimit
	}
	if c.Practice.MaxBookingDays == 0 {
		c.Practice.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if c.Practice.SnapshotBufferDays == 0 {
		c.Practice.SnapshotBufferDays = models.SnapshotBufferDays
	}
	if c.Practice.ReportTTLSeconds == 0 {
		c.Practice.ReportTTLSeconds = models.DefaultReportTTL
	}

	if c.Telegram.ReminderTime == "" {
		c.Telegram.ReminderTime = fmt.Sprintf("%02d:00", models.ReminderHour)
	}
}
