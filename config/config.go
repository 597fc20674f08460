package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/jilund/wyoming-microsoft-tts/storage"
	"github.com/jilund/wyoming-microsoft-tts/voice"
)

const (
	ProviderMicrosoft  = "microsoft"
	ProviderElevenLabs = "elevenlabs"
)

type ElevenLabs struct {
	ApiKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Config holds every setting of the service. Values are layered:
// defaults, then the YAML file, then environment variables.
type Config struct {
	Provider        string        `yaml:"provider"`
	SubscriptionKey string        `yaml:"subscription_key"`
	ServiceRegion   string        `yaml:"service_region"`
	Voice           string        `yaml:"voice"`
	OutputFormat    string        `yaml:"output_format"`
	OutputDir       string        `yaml:"output_dir"`
	Timeout         time.Duration `yaml:"timeout"`
	RequestsPerSec  float64       `yaml:"requests_per_second"`
	Burst           int           `yaml:"burst"`

	VoicesDir    string        `yaml:"voices_dir"`
	UpdateVoices bool          `yaml:"update_voices"`
	VoicesTTL    time.Duration `yaml:"voices_ttl"`
	CheckVoice   bool          `yaml:"check_voice"`

	ElevenLabs ElevenLabs  `yaml:"elevenlabs"`
	S3         *storage.S3 `yaml:"s3"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func Default() *Config {
	return &Config{
		Provider:      ProviderMicrosoft,
		ServiceRegion: "westus",
		Voice:         "en-US-JennyNeural",
		OutputDir:     voice.DefaultOutputDir(),
		Timeout:       60 * time.Second,
		Burst:         1,
		VoicesTTL:     time.Hour,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load builds the config from defaults, the optional YAML file at path and
// the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file; %w", err)
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s; %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Provider, "TTS_PROVIDER")
	setString(&c.SubscriptionKey, "AZURE_SPEECH_KEY")
	setString(&c.ServiceRegion, "AZURE_SPEECH_REGION")
	setString(&c.Voice, "TTS_VOICE")
	setString(&c.OutputFormat, "TTS_OUTPUT_FORMAT")
	setString(&c.OutputDir, "TTS_OUTPUT_DIR")
	setString(&c.VoicesDir, "TTS_VOICES_DIR")
	setString(&c.ElevenLabs.ApiKey, "ELEVENLABS_APIKEY")
	setString(&c.ElevenLabs.Model, "ELEVENLABS_MODEL")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	if v, ok := os.LookupEnv("TTS_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid env var TTS_TIMEOUT; %w", err)
		}
		c.Timeout = d
	}
	if v, ok := os.LookupEnv("TTS_REQUESTS_PER_SECOND"); ok {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid env var TTS_REQUESTS_PER_SECOND; %w", err)
		}
		c.RequestsPerSec = rps
	}
	if v, ok := os.LookupEnv("TTS_UPDATE_VOICES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid env var TTS_UPDATE_VOICES; %w", err)
		}
		c.UpdateVoices = b
	}

	if _, ok := os.LookupEnv("S3_HOSTNAME"); ok {
		s3, err := storage.NewS3FromEnv()
		if err != nil {
			return err
		}
		c.S3 = s3
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// VoiceConfig is the synthesizer configuration derived from c.
func (c *Config) VoiceConfig() (voice.Config, error) {
	format, err := voice.ParseOutputFormat(c.OutputFormat)
	if err != nil {
		return voice.Config{}, err
	}
	return voice.Config{
		SubscriptionKey: c.SubscriptionKey,
		ServiceRegion:   c.ServiceRegion,
		Voice:           c.Voice,
		OutputFormat:    format,
		OutputDir:       c.OutputDir,
	}, nil
}

// NewProvider builds the provider selected by c.Provider.
func (c *Config) NewProvider() (voice.Provider, error) {
	switch strings.ToLower(c.Provider) {
	case "", ProviderMicrosoft:
		return voice.NewAzure(c.SubscriptionKey, c.ServiceRegion,
			voice.WithTimeout(c.Timeout),
			voice.WithRateLimit(c.RequestsPerSec, c.Burst),
		)
	case ProviderElevenLabs:
		return voice.NewElevenLabs(c.ElevenLabs.ApiKey, c.ElevenLabs.Model, c.Timeout)
	default:
		return nil, &voice.ConfigurationError{Field: "provider", Err: fmt.Errorf("unknown provider %q", c.Provider)}
	}
}

// NewCatalog returns the voice catalog for the configured region.
func (c *Config) NewCatalog() *voice.Catalog {
	return voice.NewCatalog(c.VoicesDir, c.ServiceRegion, c.SubscriptionKey, voice.WithCacheTTL(c.VoicesTTL))
}

// NewSynthesizer wires provider, catalog and configuration together.
func (c *Config) NewSynthesizer() (*voice.Synthesizer, error) {
	vc, err := c.VoiceConfig()
	if err != nil {
		return nil, err
	}
	provider, err := c.NewProvider()
	if err != nil {
		return nil, err
	}

	opts := []voice.Option{voice.WithProvider(provider)}
	if c.CheckVoice && strings.ToLower(c.Provider) != ProviderElevenLabs {
		opts = append(opts, voice.WithCatalog(c.NewCatalog()))
	}
	return voice.NewSynthesizer(vc, opts...)
}
