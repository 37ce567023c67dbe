// Package call feeds phone audio from Twilio Media Streams into the capture
// pipeline.
package call

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/zaf/g711"

	"github.com/mrsingh-rishi/voice-notes/audio"
)

// SampleRate of Twilio media payloads (mu-law, mono).
const SampleRate = 8000

type twilioEvent struct {
	Event string `json:"event"` // "connected", "start", "media", "mark", "stop"
	Media struct {
		Track   string `json:"track"`
		Payload string `json:"payload"` // base64 mu-law audio
	} `json:"media"`
	Start struct {
		CallSid   string `json:"callSid"`
		StreamSid string `json:"streamSid"`
	} `json:"start"`
}

// Conn is the read side of a media-stream websocket.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Session relays one Twilio media stream into a sink.
type Session struct {
	conn   Conn
	sink   audio.Sink
	logger *logrus.Entry

	callSid   string
	streamSid string
	frames    int
	dropped   int
}

func NewSession(conn Conn, sink audio.Sink, logger *logrus.Entry) (*Session, error) {
	if conn == nil {
		return nil, errors.New("websocket connection is required")
	}
	if sink == nil {
		return nil, errors.New("audio sink is required")
	}
	return &Session{conn: conn, sink: sink, logger: logger}, nil
}

// CallSid is known once the start event arrived.
func (s *Session) CallSid() string { return s.callSid }

// Serve reads events until the stream stops or the socket closes.
func (s *Session) Serve() error {
	defer s.conn.Close()
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info("WebSocket closed normally")
				return nil
			}
			return errors.Wrap(err, "read media stream")
		}
		if done := s.Handle(msg); done {
			return nil
		}
	}
}

// Handle processes one event and reports whether the stream has stopped.
func (s *Session) Handle(msg []byte) bool {
	var ev twilioEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		s.logger.WithError(err).Warn("JSON unmarshal error")
		return false
	}

	switch ev.Event {
	case "connected", "mark":
	case "start":
		s.callSid, s.streamSid = ev.Start.CallSid, ev.Start.StreamSid
		s.logger = s.logger.WithFields(logrus.Fields{"call_sid": s.callSid, "stream_sid": s.streamSid})
		s.logger.Info("📞 Stream started")
	case "media":
		if ev.Media.Track != "" && ev.Media.Track != "inbound" {
			return false
		}
		chunk, err := base64.StdEncoding.DecodeString(ev.Media.Payload)
		if err != nil {
			s.logger.WithError(err).Warn("Base64 decode error")
			return false
		}
		s.frames++
		if !s.sink.Push(g711.DecodeUlaw(chunk)) {
			s.dropped++
		}
	case "stop":
		s.logger.WithFields(logrus.Fields{"frames": s.frames, "dropped": s.dropped}).Info("Stream stopped")
		return true
	default:
		s.logger.Debugf("Unknown event: %s", ev.Event)
	}
	return false
}
