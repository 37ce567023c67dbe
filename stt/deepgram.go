package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mrsingh-rishi/voice-notes/model"
)

const (
	deepgramBackend  = "deepgram"
	deepgramEndpoint = "wss://api.deepgram.com/v1/listen"
	deepgramChunk    = 8192
)

// DeepgramConfig configures a DeepgramClient.
type DeepgramConfig struct {
	APIKey   string
	Endpoint string
	Model    string
	Dialer   *gws.Dialer
}

// DeepgramClient opens one live-transcription session per utterance.
type DeepgramClient struct {
	apiKey   string
	endpoint string
	model    string
	dialer   *gws.Dialer
	logger   *logrus.Entry
}

type deepgramMessage struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func NewDeepgramClient(cfg DeepgramConfig, logger *logrus.Entry) (*DeepgramClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("deepgram api key is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = deepgramEndpoint
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, errors.Wrap(err, "deepgram endpoint")
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &gws.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	return &DeepgramClient{
		apiKey:   cfg.APIKey,
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		dialer:   cfg.Dialer,
		logger:   logger.WithField("backend", deepgramBackend),
	}, nil
}

func (dg *DeepgramClient) sessionURL(sampleRate int, language string) string {
	q := url.Values{}
	q.Set("model", dg.model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(sampleRate))
	q.Set("channels", "1")
	if language != "" {
		q.Set("language", language)
	}
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	return dg.endpoint + "?" + q.Encode()
}

func (dg *DeepgramClient) Transcribe(ctx context.Context, utterance model.Utterance, language string) (model.Transcript, error) {
	header := http.Header{
		"Authorization": {fmt.Sprintf("Token %s", dg.apiKey)},
	}
	conn, resp, err := dg.dialer.DialContext(ctx, dg.sessionURL(utterance.SampleRate, language), header)
	if err != nil {
		if resp != nil {
			return model.Transcript{}, unavailable(deepgramBackend, err, "dial: %s", resp.Status)
		}
		return model.Transcript{}, unavailable(deepgramBackend, err, "dial: %v", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	writeErr := make(chan error, 1)
	go func() { writeErr <- dg.sendAudio(conn, utterance.Audio) }()

	var parts []string
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if gws.IsCloseError(err, gws.CloseNormalClosure) {
				break
			}
			if ctx.Err() != nil {
				return model.Transcript{}, unavailable(deepgramBackend, ctx.Err(), "%v", ctx.Err())
			}
			return model.Transcript{}, unavailable(deepgramBackend, err, "read: %v", err)
		}

		var m deepgramMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			dg.logger.WithError(err).Debug("Skipping unparsable Deepgram message")
			continue
		}
		if m.Type == "Metadata" {
			break
		}
		if !m.IsFinal || len(m.Channel.Alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(m.Channel.Alternatives[0].Transcript); text != "" {
			parts = append(parts, text)
		}
	}
	if err := <-writeErr; err != nil {
		return model.Transcript{}, unavailable(deepgramBackend, err, "write: %v", err)
	}

	if len(parts) == 0 {
		return model.Transcript{}, ErrUnrecognizedSpeech
	}
	dg.logger.WithField("utterance", utterance.ID).Debug("Transcription received")
	return model.Transcript{Text: strings.Join(parts, " "), Language: language}, nil
}

func (dg *DeepgramClient) sendAudio(conn *gws.Conn, audio []byte) error {
	for len(audio) > 0 {
		n := min(deepgramChunk, len(audio))
		if err := conn.WriteMessage(gws.BinaryMessage, audio[:n]); err != nil {
			return err
		}
		audio = audio[n:]
	}
	return conn.WriteMessage(gws.TextMessage, []byte(`{"type":"CloseStream"}`))
}
