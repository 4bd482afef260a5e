package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Storage struct {
		// Driver is one of sqlite, postgres, redis
		Driver      string `yaml:"driver"`
		Database    string `yaml:"database"`
		PostgresDSN string `yaml:"postgres_dsn"`
		RedisURL    string `yaml:"redis_url"`
		AudioDir    string `yaml:"audio_dir"`
		TempDir     string `yaml:"temp_dir"`
	} `yaml:"storage"`

	YouTube struct {
		APIKey            string  `yaml:"api_key"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
		// Cookies is a Netscape cookie file path, a JSON cookie export, or
		// raw Netscape cookie text passed to yt-dlp
		Cookies   string `yaml:"cookies"`
		YtDlpPath string `yaml:"ytdlp_path"`
	} `yaml:"youtube"`

	TikTok struct {
		// ShowBrowser runs Chrome with a window, for debugging captchas
		ShowBrowser    bool   `yaml:"show_browser"`
		UserAgent      string `yaml:"user_agent"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"tiktok"`

	Transcription struct {
		// Provider is one of remote, openai, local
		Provider       string `yaml:"provider"`
		APIURL         string `yaml:"api_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		OpenAIKey      string `yaml:"openai_api_key"`
		OpenAIModel    string `yaml:"openai_model"`
		WhisperModel   string `yaml:"whisper_model"`
		FFmpegPath     string `yaml:"ffmpeg_path"`
	} `yaml:"transcription"`

	Summarization struct {
		APIKey         string `yaml:"api_key"`
		BaseURL        string `yaml:"base_url"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"summarization"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		Enabled         bool   `yaml:"enabled"`
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`
}

// Load reads the YAML file, then applies env overrides and defaults.
// A missing file is not an error; everything has a default.
func Load(path string) (*Config, error) {
	var config Config

	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, &config); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %v", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Path resolves the config file location
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.yaml"
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.YouTube.APIKey, "GOOGLE_API_KEY")
	override(&c.YouTube.Cookies, "COOKIES")
	override(&c.Transcription.APIURL, "TRANSCRIPTION_API_URL")
	override(&c.Transcription.OpenAIKey, "OPENAI_API_KEY")
	override(&c.Summarization.APIKey, "GEMINI_API_KEY")
	override(&c.Storage.PostgresDSN, "DATABASE_URL")
	override(&c.Storage.RedisURL, "REDIS_URL")
	if c.Summarization.APIKey == "" {
		override(&c.Summarization.APIKey, "OPENAI_API_KEY")
	}
}

func (c *Config) applyDefaults() {
	setStr := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if *dst <= 0 {
			*dst = v
		}
	}

	setStr(&c.Server.Host, "0.0.0.0")
	setInt(&c.Server.Port, 8000)

	setStr(&c.Storage.Driver, "sqlite")
	setStr(&c.Storage.Database, "data/cache.db")
	setStr(&c.Storage.AudioDir, "data/audio")
	setStr(&c.Storage.TempDir, "temp")

	if c.YouTube.RequestsPerSecond <= 0 {
		c.YouTube.RequestsPerSecond = 5
	}
	setInt(&c.YouTube.TimeoutSeconds, 300)
	setStr(&c.YouTube.YtDlpPath, "yt-dlp")

	setInt(&c.TikTok.TimeoutSeconds, 120)
	setStr(&c.TikTok.UserAgent,
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")

	setStr(&c.Transcription.Provider, "remote")
	setInt(&c.Transcription.TimeoutSeconds, 300)
	setStr(&c.Transcription.OpenAIModel, "whisper-1")
	setStr(&c.Transcription.WhisperModel, "small")
	setStr(&c.Transcription.FFmpegPath, "ffmpeg")

	setStr(&c.Summarization.BaseURL, "https://generativelanguage.googleapis.com/v1beta/openai/")
	setStr(&c.Summarization.Model, "gemini-2.0-flash")
	setInt(&c.Summarization.TimeoutSeconds, 60)

	setInt(&c.Cleanup.IntervalMinutes, 30)
	setInt(&c.Cleanup.MaxAgeHours, 6)

	setStr(&c.GoogleDrive.CredentialsFile, "config/credentials.json")
	setStr(&c.GoogleDrive.TokenFile, "config/token.json")
	setStr(&c.GoogleDrive.FolderName, "Shorts Vault")
}

// Validate rejects settings that cannot work
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn (or DATABASE_URL) is required for the postgres driver")
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url (or REDIS_URL) is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Transcription.Provider {
	case "remote":
		if c.Transcription.APIURL == "" {
			return fmt.Errorf("transcription.api_url (or TRANSCRIPTION_API_URL) is required for the remote provider")
		}
	case "openai":
		if c.Transcription.OpenAIKey == "" {
			return fmt.Errorf("transcription.openai_api_key (or OPENAI_API_KEY) is required for the openai provider")
		}
	case "local":
	default:
		return fmt.Errorf("unknown transcription provider %q", c.Transcription.Provider)
	}

	if c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// Seconds converts a configured timeout to a duration
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Minutes converts a configured interval to a duration
func Minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// Hours converts a configured age to a duration
func Hours(n int) time.Duration {
	return time.Duration(n) * time.Hour
}
