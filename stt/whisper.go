package stt

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/mrsingh-rishi/voice-notes/model"
)

const whisperBackend = "whisper"

// WhisperConfig configures a WhisperClient. BaseURL may point at any
// OpenAI-compatible transcription server.
type WhisperConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// WhisperClient transcribes utterances with the OpenAI transcription API.
type WhisperClient struct {
	client *openai.Client
	model  string
	logger *logrus.Entry
}

func NewWhisperClient(cfg WhisperConfig, logger *logrus.Entry) (*WhisperClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	} else {
		config.HTTPClient = &http.Client{Timeout: 90 * time.Second}
	}
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	return &WhisperClient{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: logger.WithField("backend", whisperBackend),
	}, nil
}

func (w *WhisperClient) Transcribe(ctx context.Context, utterance model.Utterance, language string) (model.Transcript, error) {
	audio, err := encodeWAV(utterance.Audio, utterance.SampleRate)
	if err != nil {
		return model.Transcript{}, unavailable(whisperBackend, err, "encode utterance: %v", err)
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: "utterance.wav",
		Reader:   bytes.NewReader(audio),
		Language: primaryLanguage(language),
	})
	if err != nil {
		var apiErr *openai.APIError
		var reqErr *openai.RequestError
		switch {
		case errors.As(err, &apiErr):
			return model.Transcript{}, unavailable(whisperBackend, err, "status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		case errors.As(err, &reqErr):
			return model.Transcript{}, unavailable(whisperBackend, err, "status %d: %v", reqErr.HTTPStatusCode, reqErr.Err)
		default:
			return model.Transcript{}, unavailable(whisperBackend, err, "%v", err)
		}
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return model.Transcript{}, ErrUnrecognizedSpeech
	}
	w.logger.WithField("utterance", utterance.ID).Debug("Transcription received")
	return model.Transcript{Text: text, Language: language}, nil
}
