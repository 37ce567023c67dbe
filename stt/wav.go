package stt

import (
	"encoding/binary"
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/pkg/errors"
)

// pcmStreamer plays back mono 16-bit little-endian PCM as a beep.Streamer.
type pcmStreamer struct {
	pcm []byte
	pos int
}

func (s *pcmStreamer) Stream(samples [][2]float64) (int, bool) {
	n := 0
	for n < len(samples) && s.pos+1 < len(s.pcm) {
		v := float64(int16(binary.LittleEndian.Uint16(s.pcm[s.pos:]))) / 32768
		samples[n][0], samples[n][1] = v, v
		s.pos += 2
		n++
	}
	return n, n > 0
}

func (s *pcmStreamer) Err() error { return nil }

// encodeWAV wraps raw PCM into a mono 16-bit WAV file.
func encodeWAV(pcm []byte, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sample rate is required")
	}
	format := beep.Format{SampleRate: beep.SampleRate(sampleRate), NumChannels: 1, Precision: 2}
	buf := beep.NewBuffer(format)
	buf.Append(&pcmStreamer{pcm: pcm})

	var out memFile
	if err := wav.Encode(&out, buf.Streamer(0, buf.Len()), format); err != nil {
		return nil, errors.Wrap(err, "encode wav")
	}
	return out.buf, nil
}

// memFile is an in-memory io.WriteSeeker; wav.Encode seeks back to patch the
// header sizes.
type memFile struct {
	buf []byte
	pos int
}

func (m *memFile) Write(p []byte) (int, error) {
	if end := m.pos + len(p); end > len(m.buf) {
		m.buf = append(m.buf, make([]byte, end-len(m.buf))...)
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(m.pos) + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	m.pos = int(abs)
	return abs, nil
}
