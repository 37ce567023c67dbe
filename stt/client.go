// Package stt turns captured utterances into text.
package stt

//go:generate mockgen -destination=mock_stt/mock_client.go -package=mock_stt github.com/mrsingh-rishi/voice-notes/stt Client

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-notes/model"
)

// ErrUnrecognizedSpeech is returned when the backend heard the audio but
// produced no text.
var ErrUnrecognizedSpeech = errors.New("speech was not recognized")

// ServiceUnavailableError reports a backend or transport failure.
type ServiceUnavailableError struct {
	Backend string
	Detail  string
	Err     error
}

func (e *ServiceUnavailableError) Error() string {
	if e.Detail == "" && e.Err != nil {
		return fmt.Sprintf("%s unavailable: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("%s unavailable: %s", e.Backend, e.Detail)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

func unavailable(backend string, err error, format string, args ...interface{}) error {
	return &ServiceUnavailableError{
		Backend: backend,
		Detail:  fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Client transcribes one utterance. Implementations return
// ErrUnrecognizedSpeech or a *ServiceUnavailableError on failure.
type Client interface {
	Transcribe(ctx context.Context, utterance model.Utterance, language string) (model.Transcript, error)
}

// primaryLanguage reduces a BCP 47 tag to its primary subtag ("en-US" -> "en").
func primaryLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
