// Package audio captures endpointed utterances from a live PCM stream.
//
// Audio is always mono 16-bit little-endian PCM. A Stream receives raw PCM
// from a feeder (a recorder subprocess or a phone call) and turns it into
// utterances using energy-based endpointing.
package audio

//go:generate mockgen -destination=mock_audio/mock_source.go -package=mock_audio github.com/mrsingh-rishi/voice-notes/audio Source

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-notes/model"
)

// ErrSourceClosed is returned once the feeder has stopped producing audio.
var ErrSourceClosed = errors.New("audio source closed")

// Source yields one utterance per Capture call.
type Source interface {
	// Calibrate adjusts the energy threshold to the ambient noise level.
	Calibrate(ctx context.Context) error
	// Capture blocks until one utterance bounded by silence is available.
	Capture(ctx context.Context) (model.Utterance, error)
}

// Sink accepts raw PCM from a feeder.
type Sink interface {
	Push(pcm []byte) bool
}
