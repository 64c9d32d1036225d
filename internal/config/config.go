// Package config provides the configuration structure for the voice-service.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/pelletier/go-toml/v2"
)

// Default values applied to any field left empty by the configuration source.
const (
	defaultPort           = 5001
	defaultStaticDir      = "static"
	defaultAudioSubdir    = "audio"
	defaultVoicesSubdir   = "voices"
	defaultClonedSubdir   = "cloned"
	defaultEngineURL      = "http://localhost:8000"
	defaultEngineBackend  = BackendHTTP
	defaultEngineBinary   = "tts"
	defaultTimeoutSeconds = 300
	defaultWorkers        = 1
	defaultMaxUploadMB    = 25
	defaultFFmpegBinary   = "ffmpeg"
	defaultConvertTimeout = 60
	defaultMaxAgeSeconds  = 3600
	defaultSweepInterval  = 600
	defaultHandleTimeout  = 300
	defaultLanguage       = "zh-cn"
	defaultVoicePreset    = "female_soft"
	dirPermissions        = 0o750
	defaultTextSubject    = "text.processed"
	defaultAudioBucket    = "AUDIO_FILES"
)

// Supported synthesis engine backends.
const (
	BackendHTTP = "http"
	BackendCLI  = "cli"
)

var (
	// ErrInvalidPort indicates the HTTP port is outside 1..65535.
	ErrInvalidPort = errors.New("server port must be between 1 and 65535")
	// ErrUnknownBackend indicates an unsupported tts_service backend.
	ErrUnknownBackend = errors.New("unknown tts backend")
	// ErrNegativeWorkers indicates the synthesis lane has no slots.
	ErrNegativeWorkers = errors.New("workers must be positive")
	// ErrNATSURLEmpty indicates NATS is enabled without a URL.
	ErrNATSURLEmpty = errors.New("nats url cannot be empty when nats is enabled")
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port        int  `toml:"port"`
	MaxUploadMB int  `toml:"max_upload_mb"`
	SwaggerUI   bool `toml:"swagger_ui"`
	DisableCORS bool `toml:"disable_cors"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	StaticDir   string `toml:"static_dir"`
	AudioDir    string `toml:"audio_dir"`
	VoicesDir   string `toml:"voices_dir"`
	ClonedDir   string `toml:"cloned_dir"`
}

// TTSServiceConfig holds the synthesis engine settings.
type TTSServiceConfig struct {
	Backend         string `toml:"backend"`
	EngineURL       string `toml:"engine_url"`
	BinaryPath      string `toml:"binary_path"`
	ModelName       string `toml:"model_name"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	Workers         int    `toml:"workers"`
	DefaultLanguage string `toml:"default_language"`
	DefaultVoice    string `toml:"default_voice"`
}

// ConverterConfig holds the external audio converter settings.
type ConverterConfig struct {
	BinaryPath     string `toml:"binary_path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// RetentionConfig controls the sweep of generated outputs.
type RetentionConfig struct {
	MaxAgeSeconds   int      `toml:"max_age_seconds"`
	IntervalSeconds int      `toml:"interval_seconds"`
	Protected       []string `toml:"protected"`
}

// NATSConfig holds the configuration for the optional NATS synthesis lane.
type NATSConfig struct {
	Enabled                bool   `toml:"enabled"`
	URL                    string `toml:"url"`
	TextProcessedSubject   string `toml:"text_processed_subject"`
	AudioObjectStoreBucket string `toml:"audio_object_store_bucket"`
	ArchiveTTLSeconds      int    `toml:"archive_ttl_seconds"`
	HandleTimeoutSeconds   int    `toml:"handle_timeout_seconds"`
}

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig     `toml:"server"`
	Paths     PathsConfig      `toml:"paths"`
	TTS       TTSServiceConfig `toml:"tts_service"`
	Converter ConverterConfig  `toml:"converter"`
	Retention RetentionConfig  `toml:"retention"`
	NATS      NATSConfig       `toml:"nats"`
}

// Load loads the configuration for the voice-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return finalize(&cfg)
}

// LoadFile reads the configuration from an explicit TOML file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config

	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return finalize(&cfg)
}

func finalize(cfg *Config) (*Config, error) {
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills every unset field with its default value.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}

	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = defaultMaxUploadMB
	}

	c.applyPathDefaults()

	if c.TTS.Backend == "" {
		c.TTS.Backend = defaultEngineBackend
	}

	if c.TTS.EngineURL == "" {
		c.TTS.EngineURL = defaultEngineURL
	}

	if c.TTS.BinaryPath == "" {
		c.TTS.BinaryPath = defaultEngineBinary
	}

	if c.TTS.TimeoutSeconds == 0 {
		c.TTS.TimeoutSeconds = defaultTimeoutSeconds
	}

	if c.TTS.Workers == 0 {
		c.TTS.Workers = defaultWorkers
	}

	if c.TTS.DefaultLanguage == "" {
		c.TTS.DefaultLanguage = defaultLanguage
	}

	if c.TTS.DefaultVoice == "" {
		c.TTS.DefaultVoice = defaultVoicePreset
	}

	if c.Converter.BinaryPath == "" {
		c.Converter.BinaryPath = defaultFFmpegBinary
	}

	if c.Converter.TimeoutSeconds == 0 {
		c.Converter.TimeoutSeconds = defaultConvertTimeout
	}

	if c.Retention.MaxAgeSeconds == 0 {
		c.Retention.MaxAgeSeconds = defaultMaxAgeSeconds
	}

	if c.Retention.IntervalSeconds == 0 {
		c.Retention.IntervalSeconds = defaultSweepInterval
	}

	if c.Retention.Protected == nil {
		c.Retention.Protected = []string{
			filepath.Base(c.Paths.VoicesDir),
			filepath.Base(c.Paths.ClonedDir),
		}
	}

	if c.NATS.TextProcessedSubject == "" {
		c.NATS.TextProcessedSubject = defaultTextSubject
	}

	if c.NATS.AudioObjectStoreBucket == "" {
		c.NATS.AudioObjectStoreBucket = defaultAudioBucket
	}

	if c.NATS.HandleTimeoutSeconds == 0 {
		c.NATS.HandleTimeoutSeconds = defaultHandleTimeout
	}
}

func (c *Config) applyPathDefaults() {
	if c.Paths.BaseLogsDir == "" {
		c.Paths.BaseLogsDir = os.TempDir()
	}

	if c.Paths.StaticDir == "" {
		c.Paths.StaticDir = defaultStaticDir
	}

	if c.Paths.AudioDir == "" {
		c.Paths.AudioDir = filepath.Join(c.Paths.StaticDir, defaultAudioSubdir)
	}

	if c.Paths.VoicesDir == "" {
		c.Paths.VoicesDir = filepath.Join(c.Paths.AudioDir, defaultVoicesSubdir)
	}

	if c.Paths.ClonedDir == "" {
		c.Paths.ClonedDir = filepath.Join(c.Paths.AudioDir, defaultClonedSubdir)
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, c.Server.Port)
	}

	switch c.TTS.Backend {
	case BackendHTTP, BackendCLI:
	default:
		return fmt.Errorf("%w: '%s'", ErrUnknownBackend, c.TTS.Backend)
	}

	if c.TTS.Workers < 1 {
		return fmt.Errorf("%w: got %d", ErrNegativeWorkers, c.TTS.Workers)
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return ErrNATSURLEmpty
	}

	return nil
}

// EnsureDirectories creates the audio, voices and cloned directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.BaseLogsDir, c.Paths.AudioDir, c.Paths.VoicesDir, c.Paths.ClonedDir} {
		err := os.MkdirAll(dir, dirPermissions)
		if err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// EngineTimeout returns the per-call synthesis timeout.
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.TTS.TimeoutSeconds) * time.Second
}

// ConverterTimeout returns the per-call conversion timeout.
func (c *Config) ConverterTimeout() time.Duration {
	return time.Duration(c.Converter.TimeoutSeconds) * time.Second
}

// MaxAge returns the retention age of generated outputs.
func (c *Config) MaxAge() time.Duration {
	return time.Duration(c.Retention.MaxAgeSeconds) * time.Second
}

// SweepInterval returns the delay between two retention sweeps.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Retention.IntervalSeconds) * time.Second
}

// MaxUploadBytes returns the multipart size limit for voice uploads.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// ArchiveTTL returns how long archived outputs stay in the object store. Zero
// keeps them forever.
func (c *Config) ArchiveTTL() time.Duration {
	return time.Duration(c.NATS.ArchiveTTLSeconds) * time.Second
}

// HandleTimeout returns the deadline for one NATS synthesis job.
func (c *Config) HandleTimeout() time.Duration {
	return time.Duration(c.NATS.HandleTimeoutSeconds) * time.Second
}
