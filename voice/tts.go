package voice

import (
	"context"
	"fmt"
)

// Provider is a remote text to speech service.
type Provider interface {
	// Speak synthesizes req.Text and writes the generated audio to
	// req.OutputPath. It blocks until the service finishes or fails.
	Speak(ctx context.Context, req Request) Result
	// DefaultFormat is the format used when none is configured.
	DefaultFormat() OutputFormat
	// Supports reports whether the provider can produce the format.
	Supports(format OutputFormat) bool
}

// Request is built fresh for every call and never shared between calls.
type Request struct {
	RequestID  string
	Text       string
	Voice      string
	Format     OutputFormat
	OutputPath string
}

type ResultReason int

const (
	ResultReasonUnknown ResultReason = iota
	ResultSynthesizingAudioCompleted
	ResultCanceled
)

func (r ResultReason) String() string {
	switch r {
	case ResultSynthesizingAudioCompleted:
		return "SynthesizingAudioCompleted"
	case ResultCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("ResultReason(%d)", int(r))
	}
}

type CancellationReason int

const (
	CancellationError CancellationReason = iota + 1
	CancellationEndOfStream
	CancellationCancelledByUser
)

func (r CancellationReason) String() string {
	switch r {
	case CancellationError:
		return "Error"
	case CancellationEndOfStream:
		return "EndOfStream"
	case CancellationCancelledByUser:
		return "CancelledByUser"
	default:
		return fmt.Sprintf("CancellationReason(%d)", int(r))
	}
}

// CancellationDetails explains why a synthesis did not complete.
// ErrorCode and ErrorDetails are only set when Reason is CancellationError.
type CancellationDetails struct {
	Reason       CancellationReason
	ErrorCode    int
	ErrorDetails string
}

type Result struct {
	Reason       ResultReason
	Cancellation *CancellationDetails
}

func completed() Result {
	return Result{Reason: ResultSynthesizingAudioCompleted}
}

func canceled(reason CancellationReason) Result {
	return Result{
		Reason:       ResultCanceled,
		Cancellation: &CancellationDetails{Reason: reason},
	}
}

func canceledWithError(code int, details string) Result {
	return Result{
		Reason: ResultCanceled,
		Cancellation: &CancellationDetails{
			Reason:       CancellationError,
			ErrorCode:    code,
			ErrorDetails: details,
		},
	}
}
