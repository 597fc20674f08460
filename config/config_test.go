package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jilund/wyoming-microsoft-tts/voice"
)

var envKeys = []string{
	"TTS_PROVIDER", "AZURE_SPEECH_KEY", "AZURE_SPEECH_REGION", "TTS_VOICE",
	"TTS_OUTPUT_FORMAT", "TTS_OUTPUT_DIR", "TTS_VOICES_DIR", "ELEVENLABS_APIKEY",
	"ELEVENLABS_MODEL", "LOG_LEVEL", "LOG_FORMAT", "TTS_TIMEOUT",
	"TTS_REQUESTS_PER_SECOND", "TTS_UPDATE_VOICES", "S3_HOSTNAME",
}

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ProviderMicrosoft, cfg.Provider)
	assert.Equal(t, "en-US-JennyNeural", cfg.Voice)
	assert.Nil(t, cfg.S3)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, `
subscription_key: abc
service_region: westeurope
voice: de-DE-KatjaNeural
output_format: Riff24Khz16BitMonoPcm
timeout: 15s
requests_per_second: 2.5
burst: 3
check_voice: true
s3:
  endpoint: https://s3.example.com
  bucket: tts
`))
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.SubscriptionKey)
	assert.Equal(t, "westeurope", cfg.ServiceRegion)
	assert.Equal(t, "de-DE-KatjaNeural", cfg.Voice)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 2.5, cfg.RequestsPerSec)
	assert.Equal(t, 3, cfg.Burst)
	assert.True(t, cfg.CheckVoice)
	require.NotNil(t, cfg.S3)
	assert.Equal(t, "tts", cfg.S3.Bucket)
	// untouched keys keep their defaults
	assert.Equal(t, "info", cfg.LogLevel)

	vc, err := cfg.VoiceConfig()
	require.NoError(t, err)
	assert.Equal(t, "riff-24khz-16bit-mono-pcm", vc.OutputFormat.Header)
}

func TestLoadFileErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "no_such_setting: true\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "timeout: soon\n"))
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("AZURE_SPEECH_KEY", "from-env")
	t.Setenv("TTS_VOICE", "en-GB-RyanNeural")
	t.Setenv("TTS_TIMEOUT", "5s")
	t.Setenv("TTS_UPDATE_VOICES", "true")

	cfg, err := Load(writeConfig(t, "subscription_key: from-file\nvoice: en-US-GuyNeural\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.SubscriptionKey)
	assert.Equal(t, "en-GB-RyanNeural", cfg.Voice)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.UpdateVoices)
}

func TestLoadBadEnv(t *testing.T) {
	for key, value := range map[string]string{
		"TTS_TIMEOUT":             "forever",
		"TTS_REQUESTS_PER_SECOND": "fast",
		"TTS_UPDATE_VOICES":       "maybe",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadS3FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("S3_HOSTNAME", "https://s3.example.com")
	t.Setenv("S3_PUBLICURL", "https://cdn.example.com")
	t.Setenv("S3_ACCESS", "access")
	t.Setenv("S3_SECRET", "secret")
	t.Setenv("S3_BUCKET", "tts")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg.S3)
	assert.True(t, cfg.S3.Configured())
}

func TestNewProvider(t *testing.T) {
	cfg := Default()
	cfg.SubscriptionKey = "key"

	p, err := cfg.NewProvider()
	require.NoError(t, err)
	assert.IsType(t, &voice.Azure{}, p)

	cfg.Provider = ProviderElevenLabs
	_, err = cfg.NewProvider()
	assert.ErrorIs(t, err, voice.ErrConfiguration)

	cfg.ElevenLabs.ApiKey = "el-key"
	p, err = cfg.NewProvider()
	require.NoError(t, err)
	assert.Equal(t, voice.ElevenLabsMP3, p.DefaultFormat())

	cfg.Provider = "polly"
	_, err = cfg.NewProvider()
	assert.ErrorIs(t, err, voice.ErrConfiguration)
}

func TestNewSynthesizer(t *testing.T) {
	cfg := Default()
	cfg.SubscriptionKey = "key"
	cfg.OutputDir = t.TempDir()

	s, err := cfg.NewSynthesizer()
	require.NoError(t, err)
	assert.Equal(t, cfg.OutputDir, s.OutputDir())

	cfg.OutputFormat = "wav-please"
	_, err = cfg.NewSynthesizer()
	assert.ErrorIs(t, err, voice.ErrConfiguration)

	cfg.OutputFormat = ""
	cfg.SubscriptionKey = ""
	_, err = cfg.NewSynthesizer()
	assert.ErrorIs(t, err, voice.ErrConfiguration)
}
