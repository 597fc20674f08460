package voice

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputFormat(t *testing.T) {
	f, err := ParseOutputFormat("Riff24Khz16BitMonoPcm")
	require.NoError(t, err)
	assert.Equal(t, "riff-24khz-16bit-mono-pcm", f.Header)

	byHeader, err := ParseOutputFormat(" RIFF-24KHZ-16BIT-MONO-PCM ")
	require.NoError(t, err)
	assert.Equal(t, f, byHeader)

	zero, err := ParseOutputFormat("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParseOutputFormat("flac-96khz")
	require.ErrorIs(t, err, ErrConfiguration)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "output_format", cfgErr.Field)
}

func TestOutputFormatExtension(t *testing.T) {
	for header, ext := range map[string]string{
		"":                                  ".wav",
		"riff-16khz-16bit-mono-pcm":         ".wav",
		"audio-24khz-96kbitrate-mono-mp3":   ".mp3",
		"ogg-48khz-16bit-mono-opus":         ".ogg",
		"webm-24khz-16bit-mono-opus":        ".webm",
		"raw-8khz-8bit-mono-mulaw":          ".raw",
		"amr-wb-16000hz":                    ".amr",
		"audio-16khz-16bit-32kbps-mono-opus": ".opus",
		"mp3_44100_128":                     ".mp3",
	} {
		assert.Equal(t, ext, OutputFormat{Header: header}.Extension(), header)
	}

	assert.True(t, DefaultAzureFormat.IsRIFF())
	assert.False(t, ElevenLabsMP3.IsRIFF())
}

func TestFormats(t *testing.T) {
	formats := Formats()
	assert.Len(t, formats, len(azureFormats))
	for i := 1; i < len(formats); i++ {
		assert.Less(t, formats[i-1].Name, formats[i].Name)
	}
	assert.Contains(t, formats, DefaultAzureFormat)
	assert.NotContains(t, formats, ElevenLabsMP3)
}

func TestReasonStrings(t *testing.T) {
	assert.Equal(t, "Error", CancellationError.String())
	assert.Equal(t, "EndOfStream", CancellationEndOfStream.String())
	assert.Equal(t, "CancelledByUser", CancellationCancelledByUser.String())
	assert.Equal(t, "Canceled", ResultCanceled.String())
	assert.Equal(t, "ResultReason(7)", ResultReason(7).String())
}
