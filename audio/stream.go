package audio

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mrsingh-rishi/voice-notes/model"
)

// StreamConfig configures a Stream.
type StreamConfig struct {
	Endpoint    EndpointConfig
	Calibration time.Duration
	// Buffer is the number of pushed chunks held while a capture is running.
	Buffer int
}

// Stream is a Source fed through Push. Audio pushed while no Calibrate or
// Capture call is running is dropped.
type Stream struct {
	cfg        StreamConfig
	endpointer *Endpointer
	logger     *logrus.Entry

	chunks    chan []byte
	listening atomic.Bool
	done      chan struct{}
	closeOnce sync.Once

	pending []byte
	now     func() time.Time
}

// NewStream creates an open stream.
func NewStream(cfg StreamConfig, logger *logrus.Entry) (*Stream, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.Endpoint.SampleRate <= 0 {
		return nil, errors.Errorf("sample rate must be positive, got %d", cfg.Endpoint.SampleRate)
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	return &Stream{
		cfg:        cfg,
		endpointer: NewEndpointer(cfg.Endpoint),
		logger:     logger,
		chunks:     make(chan []byte, cfg.Buffer),
		done:       make(chan struct{}),
		now:        time.Now,
	}, nil
}

// SampleRate of the PCM accepted by Push.
func (s *Stream) SampleRate() int { return s.cfg.Endpoint.SampleRate }

// FrameBytes is the endpointing frame size in bytes.
func (s *Stream) FrameBytes() int { return s.endpointer.FrameBytes() }

// Listening reports whether pushed audio is currently accepted.
func (s *Stream) Listening() bool { return s.listening.Load() }

// Push hands raw PCM to the stream. It never blocks and reports whether the
// audio was accepted.
func (s *Stream) Push(pcm []byte) bool {
	if len(pcm) == 0 || !s.listening.Load() {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
	}
	chunk := append([]byte(nil), pcm...)
	select {
	case s.chunks <- chunk:
		return true
	default:
		return false
	}
}

// Close stops the stream. Pending and future reads fail with ErrSourceClosed.
func (s *Stream) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Calibrate listens to ambient noise for the configured duration.
func (s *Stream) Calibrate(ctx context.Context) error {
	s.startListening()
	defer s.stopListening()

	frames := int(math.Ceil(float64(s.cfg.Calibration) / float64(s.cfg.Endpoint.FrameDuration)))
	for i := 0; i < frames; i++ {
		frame, err := s.readFrame(ctx)
		if err != nil {
			return err
		}
		s.endpointer.Calibrate(frame)
	}
	s.logger.WithField("threshold", s.endpointer.Threshold()).Info("Adjusted for ambient noise")
	return nil
}

// Capture blocks until the endpointer completes one phrase.
func (s *Stream) Capture(ctx context.Context) (model.Utterance, error) {
	s.startListening()
	defer s.stopListening()

	for {
		frame, err := s.readFrame(ctx)
		if err != nil {
			return model.Utterance{}, err
		}
		if pcm, ok := s.endpointer.Feed(frame); ok {
			return model.Utterance{
				ID:         uuid.NewString(),
				Audio:      pcm,
				SampleRate: s.SampleRate(),
				CapturedAt: s.now(),
			}, nil
		}
	}
}

func (s *Stream) startListening() {
	// Anything still queued was pushed during the previous gap.
	for {
		select {
		case <-s.chunks:
			continue
		default:
		}
		break
	}
	s.pending = nil
	if n := s.endpointer.Buffered(); n > 0 {
		s.logger.WithField("frames", n).Debug("Dropping stale pre-roll")
	}
	s.endpointer.Reset()
	s.listening.Store(true)
}

func (s *Stream) stopListening() {
	s.listening.Store(false)
	s.pending = nil
}

func (s *Stream) readFrame(ctx context.Context) ([]byte, error) {
	size := s.endpointer.FrameBytes()
	for len(s.pending) < size {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.done:
			return nil, ErrSourceClosed
		case chunk := <-s.chunks:
			s.pending = append(s.pending, chunk...)
		}
	}
	frame := make([]byte, size)
	copy(frame, s.pending)
	s.pending = s.pending[size:]
	return frame, nil
}
