package audio

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// testConfig yields 10-sample frames: pause 3 frames, phrase 2, non-speaking 2.
func testConfig() EndpointConfig {
	return EndpointConfig{
		SampleRate:          1000,
		FrameDuration:       10 * time.Millisecond,
		EnergyThreshold:     500,
		DynamicDamping:      0.15,
		DynamicRatio:        1.5,
		PauseThreshold:      30 * time.Millisecond,
		PhraseThreshold:     20 * time.Millisecond,
		NonSpeakingDuration: 20 * time.Millisecond,
	}
}

func frame(amplitude int16) []byte {
	buf := make([]byte, 20)
	for i := 0; i < 10; i++ {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(amplitude))
	}
	return buf
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestRMS(t *testing.T) {
	if got := RMS(frame(1000)); math.Abs(got-1000) > 1e-9 {
		t.Errorf("RMS(constant 1000) = %v, want 1000", got)
	}
	if got := RMS(frame(-300)); math.Abs(got-300) > 1e-9 {
		t.Errorf("RMS(constant -300) = %v, want 300", got)
	}
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v, want 0", got)
	}
}

func TestEndpointerPhrase(t *testing.T) {
	e := NewEndpointer(testConfig())
	if e.FrameBytes() != 20 {
		t.Fatalf("FrameBytes() = %d, want 20", e.FrameBytes())
	}

	var seq [][]byte
	for i := 0; i < 5; i++ {
		seq = append(seq, frame(0))
	}
	for i := 0; i < 4; i++ {
		seq = append(seq, frame(1000))
	}
	for i := 0; i < 4; i++ {
		seq = append(seq, frame(0))
	}

	for i, f := range seq {
		pcm, ok := e.Feed(f)
		last := i == len(seq)-1
		if ok != last {
			t.Fatalf("Feed #%d ok = %v, want %v", i, ok, last)
		}
		if ok {
			// 1 pre-roll + 4 speech + 2 kept trailing silence frames.
			if len(pcm) != 7*20 {
				t.Errorf("phrase length = %d bytes, want %d", len(pcm), 7*20)
			}
			if RMS(pcm[20:100]) != 1000 {
				t.Error("speech frames should follow the pre-roll frame")
			}
		}
	}
}

func TestEndpointerDiscardsShortPhrase(t *testing.T) {
	e := NewEndpointer(testConfig())
	seq := [][]byte{frame(0), frame(1000), frame(0), frame(0), frame(0), frame(0)}
	for i, f := range seq {
		if _, ok := e.Feed(f); ok {
			t.Fatalf("Feed #%d completed a phrase that is shorter than the phrase threshold", i)
		}
	}
}

func TestEndpointerReset(t *testing.T) {
	e := NewEndpointer(testConfig())
	e.Feed(frame(0))
	e.Feed(frame(0))
	if e.Buffered() != 2 {
		t.Fatalf("Buffered() = %d, want 2", e.Buffered())
	}
	e.Feed(frame(1000))
	e.Reset()
	if e.Buffered() != 0 {
		t.Errorf("Buffered() after Reset = %d, want 0", e.Buffered())
	}
	// A fresh phrase still completes after a reset mid-phrase.
	seq := [][]byte{frame(1000), frame(1000), frame(1000), frame(0), frame(0), frame(0), frame(0)}
	for i, f := range seq {
		if _, ok := e.Feed(f); ok != (i == len(seq)-1) {
			t.Fatalf("Feed #%d ok = %v", i, ok)
		}
	}
}

func TestEndpointerCalibrate(t *testing.T) {
	e := NewEndpointer(testConfig())
	for i := 0; i < 2000; i++ {
		e.Calibrate(frame(100))
	}
	if got := e.Threshold(); math.Abs(got-150) > 1 {
		t.Errorf("Threshold() = %v, want ~150", got)
	}
}

func TestEndpointerDynamicThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.DynamicEnergy = true
	e := NewEndpointer(cfg)
	e.Feed(frame(0))
	if e.Threshold() >= 500 {
		t.Errorf("Threshold() = %v, want below 500 after a silent frame", e.Threshold())
	}

	cfg.DynamicEnergy = false
	e = NewEndpointer(cfg)
	e.Feed(frame(0))
	if e.Threshold() != 500 {
		t.Errorf("Threshold() = %v, want 500 with dynamic energy off", e.Threshold())
	}
}

func newTestStream(t *testing.T) *Stream {
	t.Helper()
	s, err := NewStream(StreamConfig{Endpoint: testConfig(), Calibration: 30 * time.Millisecond}, discardLogger())
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	return s
}

func TestNewStreamValidation(t *testing.T) {
	if _, err := NewStream(StreamConfig{Endpoint: testConfig()}, nil); err == nil {
		t.Error("expected error for nil logger")
	}
	if _, err := NewStream(StreamConfig{}, discardLogger()); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func waitListening(t *testing.T, s *Stream) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !s.Listening() {
		if time.Now().After(deadline) {
			t.Fatal("stream never started listening")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStreamDropsAudioWhenIdle(t *testing.T) {
	s := newTestStream(t)
	if s.Push(frame(1000)) {
		t.Error("Push should be rejected while no capture is running")
	}
}

func TestStreamCapture(t *testing.T) {
	s := newTestStream(t)
	s.now = func() time.Time { return time.Unix(100, 0) }

	type result struct {
		pcm []byte
		err error
		at  time.Time
	}
	done := make(chan result, 1)
	go func() {
		u, err := s.Capture(context.Background())
		done <- result{pcm: u.Audio, err: err, at: u.CapturedAt}
	}()
	waitListening(t, s)

	// Push in odd-sized pieces; the stream re-frames them.
	var pcm []byte
	for i := 0; i < 3; i++ {
		pcm = append(pcm, frame(0)...)
	}
	for i := 0; i < 4; i++ {
		pcm = append(pcm, frame(1000)...)
	}
	for i := 0; i < 4; i++ {
		pcm = append(pcm, frame(0)...)
	}
	for len(pcm) > 0 {
		n := min(7, len(pcm))
		if !s.Push(pcm[:n]) {
			t.Fatal("Push rejected while capturing")
		}
		pcm = pcm[n:]
	}

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("Capture: %v", r.err)
		}
		if len(r.pcm) != 7*20 {
			t.Errorf("utterance length = %d, want %d", len(r.pcm), 7*20)
		}
		if !r.at.Equal(time.Unix(100, 0)) {
			t.Errorf("CapturedAt = %v", r.at)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Capture did not return")
	}

	if s.Listening() {
		t.Error("stream should stop listening after Capture returns")
	}
}

func TestStreamCalibrate(t *testing.T) {
	s := newTestStream(t)
	done := make(chan error, 1)
	go func() { done <- s.Calibrate(context.Background()) }()
	waitListening(t, s)
	for i := 0; i < 3; i++ {
		s.Push(frame(0))
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Calibrate: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Calibrate did not return")
	}
	if s.endpointer.Threshold() >= 500 {
		t.Errorf("threshold = %v, want lowered by silence", s.endpointer.Threshold())
	}
}

func TestStreamCaptureCancelled(t *testing.T) {
	s := newTestStream(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Capture(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Capture err = %v, want context.Canceled", err)
	}
}

func TestStreamClosed(t *testing.T) {
	s := newTestStream(t)
	s.Close()
	s.Close()
	if _, err := s.Capture(context.Background()); !errors.Is(err, ErrSourceClosed) {
		t.Errorf("Capture err = %v, want ErrSourceClosed", err)
	}
}

func TestNewCommandSourceRequiresCommand(t *testing.T) {
	if _, err := NewCommandSource("   ", newTestStream(t), discardLogger()); err == nil {
		t.Error("expected error for empty command")
	}
	if _, err := NewCommandSource("arecord", newTestStream(t), nil); err == nil {
		t.Error("expected error for nil logger")
	}
}

func TestCommandSourceClosesStreamOnExit(t *testing.T) {
	s := newTestStream(t)
	src, err := NewCommandSource("true", s, discardLogger())
	if err != nil {
		t.Fatalf("NewCommandSource: %v", err)
	}
	if err := src.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := src.Capture(context.Background()); !errors.Is(err, ErrSourceClosed) {
		t.Errorf("Capture err = %v, want ErrSourceClosed", err)
	}
}

func TestCommandSourceMissingBinary(t *testing.T) {
	src, err := NewCommandSource("voice-notes-no-such-recorder -x", newTestStream(t), discardLogger())
	if err != nil {
		t.Fatalf("NewCommandSource: %v", err)
	}
	if err := src.Run(context.Background()); err == nil {
		t.Error("expected error for missing recorder binary")
	}
}
