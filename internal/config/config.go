package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"asknehru/internal/resilience"
)

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid config")

// ChunkerConfig configures how the book is split into passages.
type ChunkerConfig struct {
	Size      int `yaml:"size"`
	Overlap   int `yaml:"overlap"`
	Lookahead int `yaml:"lookahead"`
}

// SearchConfig configures the lexical ranker.
type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// SummarizerConfig configures the extractive summarizer.
type SummarizerConfig struct {
	MaxSentences int `yaml:"max_sentences"`
	// Provenance is attached to summary answers; empty leaves them unattributed.
	Provenance string `yaml:"provenance"`
}

// GeminiConfig configures the Gemini REST generator.
type GeminiConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// OpenAIConfig configures an OpenAI-compatible chat completions generator.
type OpenAIConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// BreakerConfig tunes the generator circuit breaker.
type BreakerConfig struct {
	MinRequests     uint32  `yaml:"min_requests"`
	FailureRatio    float64 `yaml:"failure_ratio"`
	OpenTimeoutSecs int     `yaml:"open_timeout_secs"`
}

// GeneratorConfig selects the answer generator: none, gemini or openai.
type GeneratorConfig struct {
	Type        string        `yaml:"type"`
	Gemini      *GeminiConfig `yaml:"gemini,omitempty"`
	OpenAI      *OpenAIConfig `yaml:"openai,omitempty"`
	TimeoutSecs int           `yaml:"timeout_secs"`
	RatePerSec  float64       `yaml:"rate_per_sec"`
	MaxRetries  int           `yaml:"max_retries"`
	Breaker     BreakerConfig `yaml:"breaker"`
}

// KnowledgeConfig points at an optional replacement knowledge-base file.
type KnowledgeConfig struct {
	Path string `yaml:"path"`
}

// SpeechConfig names the text-to-speech command. The text is passed as the
// last argument.
type SpeechConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File receives TUI logs; stdout belongs to the terminal there.
	File string `yaml:"file"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus     []string         `yaml:"corpus"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Search     SearchConfig     `yaml:"search"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge"`
	Speech     SpeechConfig     `yaml:"speech"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// GeneratorTimeout is the per-call bound on the remote generator.
func (c *AppConfig) GeneratorTimeout() time.Duration {
	return time.Duration(c.Generator.TimeoutSecs) * time.Second
}

// Resilience maps the generator section onto a guard configuration.
func (c *AppConfig) Resilience() resilience.Config {
	rc := resilience.DefaultConfig()
	if c.Generator.RatePerSec > 0 {
		rc.RatePerSecond = c.Generator.RatePerSec
	}
	if c.Generator.MaxRetries > 0 {
		rc.RetryMaxAttempts = c.Generator.MaxRetries
	}
	b := c.Generator.Breaker
	if b.MinRequests > 0 {
		rc.BreakerMinRequests = b.MinRequests
	}
	if b.FailureRatio > 0 {
		rc.BreakerFailureRatio = b.FailureRatio
	}
	if b.OpenTimeoutSecs > 0 {
		rc.BreakerOpenTimeout = time.Duration(b.OpenTimeoutSecs) * time.Second
	}
	return rc
}

// Validate rejects settings the components cannot honour.
func (c *AppConfig) Validate() error {
	if c.Chunker.Size <= 0 {
		return fmt.Errorf("%w: chunker.size must be positive", ErrInvalid)
	}
	if c.Chunker.Overlap < 0 {
		return fmt.Errorf("%w: chunker.overlap must not be negative", ErrInvalid)
	}
	if c.Chunker.Lookahead < 0 {
		return fmt.Errorf("%w: chunker.lookahead must not be negative", ErrInvalid)
	}
	switch c.Generator.Type {
	case "", "none", "gemini", "openai":
	default:
		return fmt.Errorf("%w: unknown generator type %q", ErrInvalid, c.Generator.Type)
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults, so keys absent from the document keep
// their default values and an explicit zero (chunker.overlap: 0) is honoured.
func Parse(data []byte) (*AppConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/asknehru/config.yaml.
// If neither exists, it writes defaults to ~/.config/asknehru/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "asknehru", "config.yaml"), nil
}

// Default returns the configuration used when no file exists.
func Default() *AppConfig {
	cfg := &AppConfig{
		Corpus:     []string{"discovery_of_india.txt"},
		Chunker:    ChunkerConfig{Size: 800, Overlap: 150, Lookahead: 100},
		Search:     SearchConfig{TopK: 5},
		Summarizer: SummarizerConfig{MaxSentences: 3},
		Generator:  GeneratorConfig{Type: "none", TimeoutSecs: 30},
		Speech:     SpeechConfig{Command: defaultSpeechCommand()},
		Server:     ServerConfig{Addr: ":8080"},
		Log:        LogConfig{Level: "info", Format: "text"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := Default()
	if len(cfg.Corpus) == 0 {
		cfg.Corpus = def.Corpus
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = def.Chunker.Size
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = def.Search.TopK
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = def.Summarizer.MaxSentences
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = def.Generator.Type
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = def.Generator.TimeoutSecs
	}
	if cfg.Generator.Type == "gemini" && cfg.Generator.Gemini == nil {
		cfg.Generator.Gemini = &GeminiConfig{}
	}
	if cfg.Generator.Type == "openai" && cfg.Generator.OpenAI == nil {
		cfg.Generator.OpenAI = &OpenAIConfig{}
	}
	if cfg.Speech.Command == "" {
		cfg.Speech.Command = def.Speech.Command
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
}
