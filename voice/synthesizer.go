package voice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Config is the provider configuration a Synthesizer is built from.
type Config struct {
	SubscriptionKey string
	ServiceRegion   string
	Voice           string       // default voice
	OutputFormat    OutputFormat // zero value = provider default
	OutputDir       string       // empty = <tmp>/wyoming-microsoft-tts
}

// Synthesizer converts text to audio files in its output directory.
// It keeps no per-call state and is safe for concurrent use.
type Synthesizer struct {
	config   Config
	provider Provider
	catalog  *Catalog
	outdir   string
	format   OutputFormat
}

type Option func(*Synthesizer)

// WithProvider replaces the Azure provider built from the config.
func WithProvider(p Provider) Option {
	return func(s *Synthesizer) { s.provider = p }
}

// WithCatalog rejects voices missing from the catalog before calling the provider.
func WithCatalog(c *Catalog) Option {
	return func(s *Synthesizer) { s.catalog = c }
}

func DefaultOutputDir() string {
	return filepath.Join(os.TempDir(), "wyoming-microsoft-tts")
}

func NewSynthesizer(cfg Config, opts ...Option) (*Synthesizer, error) {
	logrus.Debugln("initialize speech synthesizer")

	s := &Synthesizer{config: cfg}
	for _, opt := range opts {
		opt(s)
	}

	if strings.TrimSpace(cfg.Voice) == "" {
		return nil, configErr("voice", "default voice is required")
	}

	if s.provider == nil {
		azure, err := NewAzure(cfg.SubscriptionKey, cfg.ServiceRegion)
		if err != nil {
			return nil, err
		}
		s.provider = azure
	}

	s.format = cfg.OutputFormat
	if s.format.IsZero() {
		s.format = s.provider.DefaultFormat()
	} else if !s.provider.Supports(s.format) {
		return nil, configErr("output_format", "format %s not supported by provider", s.format)
	}

	s.outdir = cfg.OutputDir
	if s.outdir == "" {
		s.outdir = DefaultOutputDir()
	}
	if err := os.MkdirAll(s.outdir, 0755); err != nil {
		return nil, &FilesystemError{Op: "create output dir", Path: s.outdir, Err: err}
	}

	return s, nil
}

// OutputDir is where synthesized files are written. It is never cleaned up.
func (s *Synthesizer) OutputDir() string { return s.outdir }

type callOptions struct {
	voice  string
	format OutputFormat
}

type CallOption func(*callOptions)

// WithVoice overrides the default voice for one call. Empty keeps the default.
func WithVoice(name string) CallOption {
	return func(o *callOptions) {
		if name != "" {
			o.voice = name
		}
	}
}

// WithFormat overrides the output format for one call.
func WithFormat(f OutputFormat) CallOption {
	return func(o *callOptions) {
		if !f.IsZero() {
			o.format = f
		}
	}
}

// Synthesize converts text to speech and returns the path of the audio file.
// Provider cancellations are returned as *SynthesisCanceledError.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts ...CallOption) (string, error) {
	call := callOptions{voice: s.config.Voice, format: s.format}
	for _, opt := range opts {
		opt(&call)
	}

	log := logrus.WithFields(logrus.Fields{
		"voice":  call.voice,
		"format": call.format.Name,
	})
	log.WithField("text", text).Debugln("requested tts")

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if call.format != s.format && !s.provider.Supports(call.format) {
		return "", configErr("output_format", "format %s not supported by provider", call.format)
	}
	if s.catalog != nil {
		if _, err := s.catalog.Find(ctx, call.voice); err != nil {
			return "", err
		}
	}

	req := Request{
		RequestID:  uuid.NewString(),
		Text:       text,
		Voice:      call.voice,
		Format:     call.format,
		OutputPath: filepath.Join(s.outdir, strconv.FormatInt(nextStamp(), 10)+call.format.Extension()),
	}
	log = log.WithField("request", req.RequestID)

	start := time.Now()
	result := s.provider.Speak(ctx, req)

	switch result.Reason {
	case ResultSynthesizingAudioCompleted:
		return s.finish(log, req, time.Since(start))

	case ResultCanceled:
		removePartial(req.OutputPath)

		details := result.Cancellation
		if details == nil {
			details = &CancellationDetails{Reason: CancellationError}
		}
		log.WithField("reason", details.Reason).Warnln("speech synthesis canceled")

		err := &SynthesisCanceledError{Reason: details.Reason}
		if details.Reason == CancellationError {
			log.WithField("code", details.ErrorCode).Warnln("error details: " + details.ErrorDetails)
			err.ErrorCode = details.ErrorCode
			err.ErrorDetails = details.ErrorDetails
		}
		return "", err

	default:
		removePartial(req.OutputPath)
		log.WithField("reason", result.Reason).Errorln("unrecognized synthesis outcome")
		return "", &UnrecognizedOutcomeError{Reason: result.Reason}
	}
}

func (s *Synthesizer) finish(log *logrus.Entry, req Request, elapsed time.Duration) (string, error) {
	info, err := os.Stat(req.OutputPath)
	if err != nil {
		return "", &FilesystemError{Op: "stat", Path: req.OutputPath, Err: err}
	}
	if info.Size() == 0 {
		removePartial(req.OutputPath)
		log.Warnln("provider completed without audio")
		return "", &SynthesisCanceledError{Reason: CancellationEndOfStream}
	}

	fields := logrus.Fields{
		"path":    req.OutputPath,
		"bytes":   info.Size(),
		"elapsed": elapsed.Round(time.Millisecond),
	}
	if req.Format.IsRIFF() {
		if wi, err := InspectWAV(req.OutputPath); err == nil {
			fields["duration"] = wi.Duration.Round(time.Millisecond)
			fields["sample_rate"] = wi.SampleRate
		} else {
			log.WithError(err).Debugln("could not read wav header")
		}
	}
	log.WithFields(fields).Debugln(fmt.Sprintf("speech synthesized for text [%s]", req.Text))

	return req.OutputPath, nil
}

func removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).WithField("path", path).Warnln("failed to remove partial audio")
	}
}

// file names are nanosecond stamps taken from the monotonic clock, offset by
// the wall clock at startup so names stay unique across restarts
var (
	clockOrigin = time.Now()
	lastStamp   atomic.Int64
)

func nextStamp() int64 {
	for {
		now := clockOrigin.UnixNano() + time.Since(clockOrigin).Nanoseconds()
		last := lastStamp.Load()
		if now <= last {
			now = last + 1
		}
		if lastStamp.CompareAndSwap(last, now) {
			return now
		}
	}
}
