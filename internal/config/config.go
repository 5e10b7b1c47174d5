package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the namespace prefix for all MeetScribe environment variables.
const EnvPrefix = "MEETSCRIBE_"

// Config holds all application configuration. Secrets (API keys) are loaded
// exclusively from environment variables and never appear in the config file.
type Config struct {
	Addr                  string `yaml:"addr"`
	PublicBaseURL         string `yaml:"public_base_url"`
	RecordingsDir         string `yaml:"recordings_dir"`
	DBPath                string `yaml:"db_path"`
	RemoteSaveURL         string `yaml:"remote_save_url"`
	Transcriber           string `yaml:"transcriber"`
	DeepgramModel         string `yaml:"deepgram_model"`
	SummaryModel          string `yaml:"summary_model"`
	PollInterval          string `yaml:"poll_interval"`
	MaxPolls              int    `yaml:"max_polls"`
	FinalizeTimeout       string `yaml:"finalize_timeout"`
	GDriveFolderID        string `yaml:"gdrive_folder_id"`
	GoogleCredentialsFile string `yaml:"google_credentials_file"`

	// Secrets — env vars only, never serialized to YAML.
	AssemblyAIAPIKey string `yaml:"-"`
	DeepgramAPIKey   string `yaml:"-"`
	OpenAIAPIKey     string `yaml:"-"`
	GeminiAPIKey     string `yaml:"-"`
	AnthropicAPIKey  string `yaml:"-"`
}

func defaults() Config {
	return Config{
		Addr:                  ":4000",
		PublicBaseURL:         "http://localhost:4000",
		RecordingsDir:         "data/recordings",
		DBPath:                "data/meetscribe.db",
		Transcriber:           "assemblyai",
		DeepgramModel:         "nova-2",
		SummaryModel:          "openai/gpt-4o-mini",
		PollInterval:          "1s",
		MaxPolls:              60,
		FinalizeTimeout:       "10m",
		GoogleCredentialsFile: "./service-account.json",
	}
}

// Load reads configuration from a YAML file (if it exists), applies
// environment variable overrides, loads secrets, and validates the result.
// It returns the config, any validation warnings, and an error if the file
// exists but cannot be read or parsed.
func Load(path string) (Config, []string, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	loadSecrets(&cfg)

	warnings := validate(&cfg)
	return cfg, warnings, nil
}

// ParsedPollInterval returns PollInterval as a time.Duration, falling back
// to 1s if the value is invalid.
func (c *Config) ParsedPollInterval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return time.Second
	}
	return d
}

// ParsedFinalizeTimeout returns FinalizeTimeout as a time.Duration, falling
// back to 10m if the value is invalid.
func (c *Config) ParsedFinalizeTimeout() time.Duration {
	d, err := time.ParseDuration(c.FinalizeTimeout)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// TranscriberAPIKey returns the API key for the configured transcription
// backend.
func (c *Config) TranscriberAPIKey() string {
	switch c.Transcriber {
	case "deepgram":
		return c.DeepgramAPIKey
	default:
		return c.AssemblyAIAPIKey
	}
}

// SummaryAPIKey returns the API key for the configured summary model's
// provider.
func (c *Config) SummaryAPIKey(provider string) string {
	switch provider {
	case "anthropic":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv(EnvPrefix + "PUBLIC_BASE_URL"); v != "" {
		cfg.PublicBaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "RECORDINGS_DIR"); v != "" {
		cfg.RecordingsDir = v
	}
	if v := os.Getenv(EnvPrefix + "DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvPrefix + "REMOTE_SAVE_URL"); v != "" {
		cfg.RemoteSaveURL = v
	}
	if v := os.Getenv(EnvPrefix + "TRANSCRIBER"); v != "" {
		cfg.Transcriber = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(EnvPrefix + "DEEPGRAM_MODEL"); v != "" {
		cfg.DeepgramModel = v
	}
	if v := os.Getenv(EnvPrefix + "SUMMARY_MODEL"); v != "" {
		cfg.SummaryModel = v
	}
	if v := os.Getenv(EnvPrefix + "POLL_INTERVAL"); v != "" {
		cfg.PollInterval = v
	}
	if v := os.Getenv(EnvPrefix + "MAX_POLLS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			cfg.MaxPolls = n
		}
	}
	if v := os.Getenv(EnvPrefix + "FINALIZE_TIMEOUT"); v != "" {
		cfg.FinalizeTimeout = v
	}
	if v := os.Getenv(EnvPrefix + "GDRIVE_FOLDER_ID"); v != "" {
		cfg.GDriveFolderID = v
	}
	if v := os.Getenv(EnvPrefix + "GOOGLE_CREDENTIALS_FILE"); v != "" {
		cfg.GoogleCredentialsFile = v
	}
}

func loadSecrets(cfg *Config) {
	cfg.AssemblyAIAPIKey = os.Getenv(EnvPrefix + "ASSEMBLYAI_API_KEY")
	cfg.DeepgramAPIKey = os.Getenv(EnvPrefix + "DEEPGRAM_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv(EnvPrefix + "OPENAI_API_KEY")
	cfg.GeminiAPIKey = os.Getenv(EnvPrefix + "GEMINI_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv(EnvPrefix + "ANTHROPIC_API_KEY")
}

func validate(cfg *Config) []string {
	var warnings []string

	switch cfg.Transcriber {
	case "assemblyai", "deepgram":
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown transcriber %q — using assemblyai.", cfg.Transcriber))
		cfg.Transcriber = "assemblyai"
	}

	if cfg.TranscriberAPIKey() == "" {
		warnings = append(warnings, "Transcription API key not configured — server-side transcription is disabled. Set "+EnvPrefix+strings.ToUpper(cfg.Transcriber)+"_API_KEY.")
	}
	if cfg.SummaryModel != "" {
		provider, _, ok := strings.Cut(cfg.SummaryModel, "/")
		if !ok {
			warnings = append(warnings, fmt.Sprintf("Invalid summary_model %q — expected provider/model. Summaries are disabled.", cfg.SummaryModel))
			cfg.SummaryModel = ""
		} else if cfg.SummaryAPIKey(provider) == "" {
			warnings = append(warnings, fmt.Sprintf("No API key for summary provider %q — summaries fall back to placeholders.", provider))
		}
	}
	if _, err := time.ParseDuration(cfg.PollInterval); err != nil {
		warnings = append(warnings, fmt.Sprintf("Invalid poll_interval %q — using default 1s.", cfg.PollInterval))
	}
	if _, err := time.ParseDuration(cfg.FinalizeTimeout); err != nil {
		warnings = append(warnings, fmt.Sprintf("Invalid finalize_timeout %q — using default 10m.", cfg.FinalizeTimeout))
	}

	return warnings
}
