package voice

import (
	"sort"
	"strings"
)

// OutputFormat is an audio encoding the provider can produce. The zero value
// means "use the provider default".
type OutputFormat struct {
	Name   string // SDK enum name, e.g. Riff24Khz16BitMonoPcm
	Header string // value sent to the service, e.g. riff-24khz-16bit-mono-pcm
}

func (f OutputFormat) IsZero() bool { return f.Name == "" }

func (f OutputFormat) String() string { return f.Name }

// Extension is the file extension used for audio in this format.
func (f OutputFormat) Extension() string {
	h := f.Header
	switch {
	case h == "", strings.HasPrefix(h, "riff-"):
		return ".wav"
	case strings.HasPrefix(h, "ogg-"):
		return ".ogg"
	case strings.HasPrefix(h, "webm-"):
		return ".webm"
	case strings.HasPrefix(h, "amr-"):
		return ".amr"
	case strings.HasPrefix(h, "raw-"):
		return ".raw"
	case strings.HasSuffix(h, "-mp3"), strings.HasPrefix(h, "mp3_"):
		return ".mp3"
	case strings.HasSuffix(h, "-opus"):
		return ".opus"
	default:
		return ".wav"
	}
}

// IsRIFF reports whether audio in this format carries a WAV header.
func (f OutputFormat) IsRIFF() bool {
	return strings.HasPrefix(f.Header, "riff-")
}

var azureFormats = []OutputFormat{
	{"Raw8Khz8BitMonoMULaw", "raw-8khz-8bit-mono-mulaw"},
	{"Riff16Khz16KbpsMonoSiren", "riff-16khz-16kbps-mono-siren"},
	{"Audio16Khz16KbpsMonoSiren", "audio-16khz-16kbps-mono-siren"},
	{"Audio16Khz32KBitRateMonoMp3", "audio-16khz-32kbitrate-mono-mp3"},
	{"Audio16Khz128KBitRateMonoMp3", "audio-16khz-128kbitrate-mono-mp3"},
	{"Audio16Khz64KBitRateMonoMp3", "audio-16khz-64kbitrate-mono-mp3"},
	{"Audio24Khz48KBitRateMonoMp3", "audio-24khz-48kbitrate-mono-mp3"},
	{"Audio24Khz96KBitRateMonoMp3", "audio-24khz-96kbitrate-mono-mp3"},
	{"Audio24Khz160KBitRateMonoMp3", "audio-24khz-160kbitrate-mono-mp3"},
	{"Raw16Khz16BitMonoTrueSilk", "raw-16khz-16bit-mono-truesilk"},
	{"Riff16Khz16BitMonoPcm", "riff-16khz-16bit-mono-pcm"},
	{"Riff8Khz16BitMonoPcm", "riff-8khz-16bit-mono-pcm"},
	{"Riff24Khz16BitMonoPcm", "riff-24khz-16bit-mono-pcm"},
	{"Riff8Khz8BitMonoMULaw", "riff-8khz-8bit-mono-mulaw"},
	{"Raw16Khz16BitMonoPcm", "raw-16khz-16bit-mono-pcm"},
	{"Raw24Khz16BitMonoPcm", "raw-24khz-16bit-mono-pcm"},
	{"Raw8Khz16BitMonoPcm", "raw-8khz-16bit-mono-pcm"},
	{"Ogg16Khz16BitMonoOpus", "ogg-16khz-16bit-mono-opus"},
	{"Ogg24Khz16BitMonoOpus", "ogg-24khz-16bit-mono-opus"},
	{"Raw48Khz16BitMonoPcm", "raw-48khz-16bit-mono-pcm"},
	{"Riff48Khz16BitMonoPcm", "riff-48khz-16bit-mono-pcm"},
	{"Audio48Khz96KBitRateMonoMp3", "audio-48khz-96kbitrate-mono-mp3"},
	{"Audio48Khz192KBitRateMonoMp3", "audio-48khz-192kbitrate-mono-mp3"},
	{"Ogg48Khz16BitMonoOpus", "ogg-48khz-16bit-mono-opus"},
	{"Webm16Khz16BitMonoOpus", "webm-16khz-16bit-mono-opus"},
	{"Webm24Khz16BitMonoOpus", "webm-24khz-16bit-mono-opus"},
	{"Raw24Khz16BitMonoTrueSilk", "raw-24khz-16bit-mono-truesilk"},
	{"Raw8Khz8BitMonoALaw", "raw-8khz-8bit-mono-alaw"},
	{"Riff8Khz8BitMonoALaw", "riff-8khz-8bit-mono-alaw"},
	{"Webm24Khz16Bit24KbpsMonoOpus", "webm-24khz-16bit-24kbps-mono-opus"},
	{"Audio16Khz16Bit32KbpsMonoOpus", "audio-16khz-16bit-32kbps-mono-opus"},
	{"Audio24Khz16Bit48KbpsMonoOpus", "audio-24khz-16bit-48kbps-mono-opus"},
	{"Audio24Khz16Bit24KbpsMonoOpus", "audio-24khz-16bit-24kbps-mono-opus"},
	{"Raw22050Hz16BitMonoPcm", "raw-22050hz-16bit-mono-pcm"},
	{"Riff22050Hz16BitMonoPcm", "riff-22050hz-16bit-mono-pcm"},
	{"Raw44100Hz16BitMonoPcm", "raw-44100hz-16bit-mono-pcm"},
	{"Riff44100Hz16BitMonoPcm", "riff-44100hz-16bit-mono-pcm"},
	{"AmrWb16000Hz", "amr-wb-16000hz"},
}

// ElevenLabsMP3 is the only encoding requested from ElevenLabs.
var ElevenLabsMP3 = OutputFormat{Name: "ElevenLabsMp3", Header: "mp3_44100_128"}

// DefaultAzureFormat matches the Speech SDK default.
var DefaultAzureFormat = OutputFormat{Name: "Riff16Khz16BitMonoPcm", Header: "riff-16khz-16bit-mono-pcm"}

var formatIndex = func() map[string]OutputFormat {
	idx := make(map[string]OutputFormat, len(azureFormats)*2+2)
	for _, f := range append(azureFormats, ElevenLabsMP3) {
		idx[strings.ToLower(f.Name)] = f
		idx[strings.ToLower(f.Header)] = f
	}
	return idx
}()

// ParseOutputFormat resolves an SDK enum name or a header value
// (case-insensitive). An empty string yields the zero format.
func ParseOutputFormat(s string) (OutputFormat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return OutputFormat{}, nil
	}
	f, ok := formatIndex[strings.ToLower(s)]
	if !ok {
		return OutputFormat{}, configErr("output_format", "unknown output format %q", s)
	}
	return f, nil
}

// Formats lists every known Azure output format sorted by name.
func Formats() []OutputFormat {
	out := make([]OutputFormat, len(azureFormats))
	copy(out, azureFormats)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func isAzureFormat(f OutputFormat) bool {
	for _, af := range azureFormats {
		if af == f {
			return true
		}
	}
	return false
}
