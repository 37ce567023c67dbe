package audio

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/mrsingh-rishi/voice-notes/queue"
)

// EndpointConfig controls silence endpointing.
type EndpointConfig struct {
	SampleRate      int
	FrameDuration   time.Duration
	EnergyThreshold float64
	// DynamicEnergy keeps adapting the threshold while waiting for speech.
	DynamicEnergy  bool
	DynamicDamping float64
	DynamicRatio   float64
	// PauseThreshold is the silence that ends a phrase.
	PauseThreshold time.Duration
	// PhraseThreshold is the minimum speech kept as an utterance.
	PhraseThreshold time.Duration
	// NonSpeakingDuration is the silence kept on both ends of an utterance.
	NonSpeakingDuration time.Duration
}

// DefaultEndpointConfig mirrors the classic speech_recognition defaults.
func DefaultEndpointConfig(sampleRate int) EndpointConfig {
	return EndpointConfig{
		SampleRate:          sampleRate,
		FrameDuration:       30 * time.Millisecond,
		EnergyThreshold:     500,
		DynamicEnergy:       true,
		DynamicDamping:      0.15,
		DynamicRatio:        1.5,
		PauseThreshold:      800 * time.Millisecond,
		PhraseThreshold:     300 * time.Millisecond,
		NonSpeakingDuration: 500 * time.Millisecond,
	}
}

// Endpointer splits a frame sequence into phrases using RMS energy.
// It is not safe for concurrent use.
type Endpointer struct {
	cfg        EndpointConfig
	threshold  float64
	frameBytes int

	pauseFrames       int
	phraseFrames      int
	nonSpeakingFrames int

	preroll     *queue.Queue[[]byte]
	phrase      [][]byte
	speaking    bool
	pauseCount  int
	phraseCount int
}

// NewEndpointer creates an endpointer in the waiting state.
func NewEndpointer(cfg EndpointConfig) *Endpointer {
	samples := int(int64(cfg.SampleRate) * int64(cfg.FrameDuration) / int64(time.Second))
	if samples < 1 {
		samples = 1
	}
	e := &Endpointer{
		cfg:               cfg,
		threshold:         cfg.EnergyThreshold,
		frameBytes:        samples * 2,
		pauseFrames:       framesFor(cfg.PauseThreshold, cfg.FrameDuration),
		phraseFrames:      framesFor(cfg.PhraseThreshold, cfg.FrameDuration),
		nonSpeakingFrames: framesFor(cfg.NonSpeakingDuration, cfg.FrameDuration),
	}
	e.preroll = queue.NewBounded[[]byte](max(1, e.nonSpeakingFrames))
	return e
}

func framesFor(d, frame time.Duration) int {
	if frame <= 0 {
		return 0
	}
	return int(math.Ceil(float64(d) / float64(frame)))
}

// FrameBytes is the size of one frame in bytes.
func (e *Endpointer) FrameBytes() int { return e.frameBytes }

// Buffered is the number of pre-roll frames held while waiting for speech.
func (e *Endpointer) Buffered() int { return e.preroll.Len() }

// Threshold is the current energy threshold.
func (e *Endpointer) Threshold() float64 { return e.threshold }

// Calibrate folds one frame of ambient noise into the threshold.
func (e *Endpointer) Calibrate(frame []byte) {
	e.adjust(RMS(frame))
}

func (e *Endpointer) adjust(energy float64) {
	damping := math.Pow(e.cfg.DynamicDamping, e.cfg.FrameDuration.Seconds())
	target := energy * e.cfg.DynamicRatio
	e.threshold = e.threshold*damping + target*(1-damping)
}

// Feed consumes one frame. When the frame completes a phrase, Feed returns
// the phrase audio and true, and the endpointer returns to waiting.
func (e *Endpointer) Feed(frame []byte) ([]byte, bool) {
	energy := RMS(frame)

	if !e.speaking {
		e.preroll.Enqueue(frame)
		if energy <= e.threshold {
			if e.cfg.DynamicEnergy {
				e.adjust(energy)
			}
			return nil, false
		}
		e.speaking = true
		e.phrase = e.preroll.Drain()
		e.pauseCount, e.phraseCount = 0, 0
		return nil, false
	}

	e.phrase = append(e.phrase, frame)
	e.phraseCount++
	if energy > e.threshold {
		e.pauseCount = 0
	} else {
		e.pauseCount++
	}
	if e.pauseCount <= e.pauseFrames {
		return nil, false
	}

	frames := e.phrase
	spoken := e.phraseCount - e.pauseCount
	pause := e.pauseCount
	e.speaking = false
	e.phrase = nil
	e.pauseCount, e.phraseCount = 0, 0

	if spoken < e.phraseFrames {
		// Too short: keep the trailing silence as pre-roll and wait again.
		start := max(0, len(frames)-e.nonSpeakingFrames)
		for _, f := range frames[start:] {
			e.preroll.Enqueue(f)
		}
		return nil, false
	}

	if extra := pause - e.nonSpeakingFrames; extra > 0 {
		frames = frames[:len(frames)-extra]
	}
	out := make([]byte, 0, len(frames)*e.frameBytes)
	for _, f := range frames {
		out = append(out, f...)
	}
	return out, true
}

// Reset drops any partial phrase and pre-roll.
func (e *Endpointer) Reset() {
	e.preroll.Clear()
	e.phrase = nil
	e.speaking = false
	e.pauseCount, e.phraseCount = 0, 0
}

// RMS returns the root-mean-square amplitude of 16-bit little-endian PCM.
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}
