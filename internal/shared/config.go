package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// TimestampPlaceholder is replaced with the sync time in [PlaylistConfig.Description].
const TimestampPlaceholder = "{{timestamp}}"

// Environment variables that override values from config.toml.
const (
	EnvBeatportClientID     = "BEATPORT_CLIENT_ID"
	EnvBeatportClientSecret = "BEATPORT_CLIENT_SECRET"
	EnvBeatportAccessToken  = "BEATPORT_ACCESS_TOKEN"
	EnvYouTubeClientID      = "YOUTUBE_CLIENT_ID"
	EnvYouTubeClientSecret  = "YOUTUBE_CLIENT_SECRET"
	EnvYouTubePlaylistID    = "YOUTUBE_PLAYLIST_ID"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Beatport BeatportConfig `toml:"beatport"`
	YouTube  YouTubeConfig  `toml:"youtube"`
	Playlist PlaylistConfig `toml:"playlist"`
	Pacing   PacingConfig   `toml:"pacing"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// BeatportConfig contains catalog API credentials and the chart to follow.
type BeatportConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	AccessToken  string `toml:"access_token"`
	BaseURL      string `toml:"base_url"`
	TokenURL     string `toml:"token_url"`
	GenreID      int    `toml:"genre_id"`
	TopN         int    `toml:"top_n"`
}

// YouTubeConfig contains the installed-app client and the destination playlist.
type YouTubeConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenPath    string `toml:"token_path"`
	PlaylistID   string `toml:"playlist_id"`
	APIEndpoint  string `toml:"api_endpoint"`
}

// PlaylistConfig holds the metadata written to the playlist after every sync.
type PlaylistConfig struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

// PacingConfig holds the delays applied between successive mutation calls.
type PacingConfig struct {
	RemoveDelay Duration `toml:"remove_delay"`
	SearchDelay Duration `toml:"search_delay"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the loopback address used for the OAuth callback.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Duration wraps [time.Duration] so it can be written as "1s" or "500ms" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process environment.
//
// A missing file is not an error. Variables already set in the environment win.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides credentials and the playlist id with any non-empty environment variables.
func (c *Config) ApplyEnv() {
	for env, target := range map[string]*string{
		EnvBeatportClientID:     &c.Beatport.ClientID,
		EnvBeatportClientSecret: &c.Beatport.ClientSecret,
		EnvBeatportAccessToken:  &c.Beatport.AccessToken,
		EnvYouTubeClientID:      &c.YouTube.ClientID,
		EnvYouTubeClientSecret:  &c.YouTube.ClientSecret,
		EnvYouTubePlaylistID:    &c.YouTube.PlaylistID,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*target = v
		}
	}
}

// ValidateSync reports the settings a sync run cannot do without.
func (c *Config) ValidateSync() error {
	var missing []string
	if c.YouTube.PlaylistID == "" {
		missing = append(missing, "youtube.playlist_id")
	}
	if c.YouTube.ClientID == "" || c.YouTube.ClientSecret == "" {
		missing = append(missing, "youtube.client_id/client_secret")
	}
	if c.Beatport.AccessToken == "" && (c.Beatport.ClientID == "" || c.Beatport.ClientSecret == "") {
		missing = append(missing, "beatport.access_token or beatport.client_id/client_secret")
	}
	if c.Beatport.GenreID <= 0 || c.Beatport.TopN <= 0 {
		missing = append(missing, "beatport.genre_id/top_n")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

// RenderDescription fills the description template with the given time formatted as RFC 3339 in UTC.
func (p PlaylistConfig) RenderDescription(now time.Time) string {
	ts := now.UTC().Format(time.RFC3339)
	if !strings.Contains(p.Description, TimestampPlaceholder) {
		return strings.TrimSpace(p.Description + " last updated on " + ts + ".")
	}
	return strings.ReplaceAll(p.Description, TimestampPlaceholder, ts)
}
