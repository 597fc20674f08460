package voice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/haguro/elevenlabs-go"
)

const DefaultElevenLabsModel = "eleven_monolingual_v1"

// ElevenLabs synthesizes speech with the ElevenLabs API. Voices are
// ElevenLabs voice ids (e.g. BreKkXSwy4hr1vgm7ZqX).
type ElevenLabs struct {
	ApiKey  string
	ModelID string
	Timeout time.Duration

	// swapped in tests
	speak func(ctx context.Context, voiceID string, req elevenlabs.TextToSpeechRequest) ([]byte, error)
}

func NewElevenLabs(apiKey, modelID string, timeout time.Duration) (*ElevenLabs, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, configErr("elevenlabs.api_key", "api key is required")
	}
	if modelID == "" {
		modelID = DefaultElevenLabsModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	api := &ElevenLabs{ApiKey: apiKey, ModelID: modelID, Timeout: timeout}
	api.speak = api.textToSpeech
	return api, nil
}

func (api *ElevenLabs) textToSpeech(ctx context.Context, voiceID string, req elevenlabs.TextToSpeechRequest) ([]byte, error) {
	client := elevenlabs.NewClient(ctx, api.ApiKey, api.Timeout)
	return client.TextToSpeech(voiceID, req)
}

func (api *ElevenLabs) DefaultFormat() OutputFormat { return ElevenLabsMP3 }

func (api *ElevenLabs) Supports(f OutputFormat) bool { return f == ElevenLabsMP3 }

func (api *ElevenLabs) Speak(ctx context.Context, req Request) Result {
	if err := ctx.Err(); err != nil {
		return interrupted(ctx, err)
	}

	audio, err := api.speak(ctx, req.Voice, elevenlabs.TextToSpeechRequest{
		Text:    req.Text,
		ModelID: api.ModelID,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return canceled(CancellationCancelledByUser)
		}
		return canceledWithError(0, fmt.Sprintf("failed tts; %v", err))
	}
	if len(audio) == 0 {
		return canceledWithError(0, "no audio data received")
	}

	if err := os.WriteFile(req.OutputPath, audio, 0644); err != nil {
		return canceledWithError(0, fmt.Sprintf("failed to write file to disk; %v", err))
	}
	return completed()
}
