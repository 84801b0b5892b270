package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FeedConfig describes one ICS calendar subscription.
type FeedConfig struct {
	// ID is the source identity events are tagged with.
	ID string `yaml:"id" json:"id"`
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
}

// CalendarsConfig holds the two calendar roles. Which feed fills which
// role decides whether its events are tagged personal or work.
type CalendarsConfig struct {
	Personal FeedConfig `yaml:"personal" json:"personal"`
	Work     FeedConfig `yaml:"work" json:"work"`
}

// VaultConfig locates the markdown notes vault.
type VaultConfig struct {
	Path        string `yaml:"path" json:"path"`
	DailyFolder string `yaml:"daily_folder" json:"daily_folder"`
	DailyFormat string `yaml:"daily_format" json:"daily_format"`
	// TrainingPlan names the plan note consulted when a daily note has
	// no Training section.
	TrainingPlan string `yaml:"training_plan" json:"training_plan"`
}

// HomeAssistantConfig holds the smart-home hub endpoint and token.
type HomeAssistantConfig struct {
	URL   string `yaml:"url" json:"url"`
	Token string `yaml:"token" json:"token"`
	// MediaPlayer is the TTS target for spoken briefings.
	MediaPlayer string `yaml:"media_player" json:"media_player"`
}

// TokenConfig is a bare access token for a health tracker API.
type TokenConfig struct {
	AccessToken string `yaml:"access_token" json:"access_token"`
}

// AgentConfig configures the conversational agent.
type AgentConfig struct {
	// APIKey for the model provider; falls back to OPENAI_API_KEY.
	APIKey string `yaml:"api_key" json:"api_key"`
	Model  string `yaml:"model" json:"model"`
}

// ScheduleConfig holds the cron expressions for the recurring routines.
type ScheduleConfig struct {
	Morning     string `yaml:"morning" json:"morning"`
	Evening     string `yaml:"evening" json:"evening"`
	HealthCheck string `yaml:"health_check" json:"health_check"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the JSON API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA display zone, e.g. "Europe/Berlin".
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// CacheDir holds the ICS feed disk cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// WorkHours is the [start, end) hour window free slots are computed
	// over.
	WorkHours []int `yaml:"work_hours" json:"work_hours"`

	// WeatherEntities is the probe order for the briefing's weather
	// section.
	WeatherEntities []string `yaml:"weather_entities" json:"weather_entities"`

	Calendars     CalendarsConfig     `yaml:"calendars" json:"calendars"`
	Vault         VaultConfig         `yaml:"vault" json:"vault"`
	HomeAssistant HomeAssistantConfig `yaml:"home_assistant" json:"home_assistant"`
	Whoop         TokenConfig         `yaml:"whoop" json:"whoop"`
	Garmin        TokenConfig         `yaml:"garmin" json:"garmin"`
	Agent         AgentConfig         `yaml:"agent" json:"agent"`
	Schedule      ScheduleConfig      `yaml:"schedule" json:"schedule"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:    "127.0.0.1:8080",
		Timezone:  "Local",
		LogLevel:  "info",
		CacheDir:  "./var/ics-cache",
		WorkHours: []int{9, 17},
		WeatherEntities: []string{
			"weather.home",
			"weather.forecast_home",
			"weather.openweathermap",
		},
		Calendars: CalendarsConfig{
			Personal: FeedConfig{ID: "google_calendar"},
			Work:     FeedConfig{ID: "outlook_calendar"},
		},
		Vault: VaultConfig{
			DailyFolder: "Daily Notes",
			DailyFormat: "2006-01-02",
		},
		HomeAssistant: HomeAssistantConfig{
			MediaPlayer: "media_player.living_room",
		},
		Agent: AgentConfig{Model: "gpt-4o-mini"},
		Schedule: ScheduleConfig{
			Morning:     "30 6 * * *",
			Evening:     "0 21 * * *",
			HealthCheck: "0 */2 * * *",
		},
	}
}

// Normalize fills in missing or invalid values so partially-filled
// configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/ics-cache"
	}

	if len(c.WorkHours) != 2 || c.WorkHours[0] < 0 || c.WorkHours[1] > 24 || c.WorkHours[0] >= c.WorkHours[1] {
		c.WorkHours = []int{9, 17}
	}
	if len(c.WeatherEntities) == 0 {
		c.WeatherEntities = []string{
			"weather.home",
			"weather.forecast_home",
			"weather.openweathermap",
		}
	}

	if c.Calendars.Personal.ID == "" {
		c.Calendars.Personal.ID = "google_calendar"
	}
	if c.Calendars.Work.ID == "" {
		c.Calendars.Work.ID = "outlook_calendar"
	}

	if c.Vault.DailyFolder == "" {
		c.Vault.DailyFolder = "Daily Notes"
	}
	if c.Vault.DailyFormat == "" {
		c.Vault.DailyFormat = "2006-01-02"
	}

	if c.HomeAssistant.MediaPlayer == "" {
		c.HomeAssistant.MediaPlayer = "media_player.living_room"
	}
	if c.Agent.Model == "" {
		c.Agent.Model = "gpt-4o-mini"
	}

	if c.Schedule.Morning == "" {
		c.Schedule.Morning = "30 6 * * *"
	}
	if c.Schedule.Evening == "" {
		c.Schedule.Evening = "0 21 * * *"
	}
	if c.Schedule.HealthCheck == "" {
		c.Schedule.HealthCheck = "0 */2 * * *"
	}
}

// Load loads configuration from the given YAML path. A missing file is
// a first run: the default config is written with 0600 perms and
// returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically: temp file in the target
// directory, chmod 0600, then rename over the path.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".jarvis-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
