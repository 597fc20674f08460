package voice

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration       = errors.New("invalid configuration")
	ErrFilesystem          = errors.New("filesystem error")
	ErrCanceled            = errors.New("speech synthesis canceled")
	ErrUnrecognizedOutcome = errors.New("unrecognized synthesis outcome")
	ErrEmptyText           = errors.New("text is empty")
	ErrVoiceNotFound       = errors.New("voice not found")
)

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s; %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func configErr(field string, format string, args ...any) error {
	return &ConfigurationError{Field: field, Err: fmt.Errorf(format, args...)}
}

// FilesystemError reports a failure to create or use the output directory.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("failed to %s %s; %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

func (e *FilesystemError) Is(target error) bool { return target == ErrFilesystem }

// SynthesisCanceledError is returned when the provider canceled the synthesis.
type SynthesisCanceledError struct {
	Reason       CancellationReason
	ErrorCode    int
	ErrorDetails string
}

func (e *SynthesisCanceledError) Error() string {
	if e.ErrorDetails != "" {
		return fmt.Sprintf("speech synthesis canceled: %s; %s", e.Reason, e.ErrorDetails)
	}
	return fmt.Sprintf("speech synthesis canceled: %s", e.Reason)
}

func (e *SynthesisCanceledError) Is(target error) bool { return target == ErrCanceled }

// UnrecognizedOutcomeError is returned for result reasons other than
// completed or canceled.
type UnrecognizedOutcomeError struct {
	Reason ResultReason
}

func (e *UnrecognizedOutcomeError) Error() string {
	return fmt.Sprintf("unrecognized synthesis outcome: %s", e.Reason)
}

func (e *UnrecognizedOutcomeError) Is(target error) bool { return target == ErrUnrecognizedOutcome }

type VoiceNotFoundError struct {
	Name string
}

func (e *VoiceNotFoundError) Error() string {
	return fmt.Sprintf("voice not found: %s", e.Name)
}

func (e *VoiceNotFoundError) Is(target error) bool { return target == ErrVoiceNotFound }
