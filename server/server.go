// Package server exposes the record log over HTTP and accepts Twilio media
// streams.
package server

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mrsingh-rishi/voice-notes/audio"
	"github.com/mrsingh-rishi/voice-notes/call"
	"github.com/mrsingh-rishi/voice-notes/model"
	"github.com/mrsingh-rishi/voice-notes/workers"
)

// RecordReader reads back the persisted log.
type RecordReader interface {
	Tail(n int) ([]model.Record, error)
}

// StatsProvider reports pipeline counters.
type StatsProvider interface {
	Stats() workers.Stats
}

// Dialer places calls and renders their TwiML.
type Dialer interface {
	Dial(to string) (string, error)
	TwiML(callSid string) string
}

// Options wires the server. Dialer and Sink are only needed for phone capture;
// without them the Twilio routes are not registered.
type Options struct {
	Records RecordReader
	Stats   StatsProvider
	Dialer  Dialer
	Sink    audio.Sink
	Logger  *logrus.Entry
}

type server struct {
	opts     Options
	validate *validator.Validate
	active   atomic.Bool
}

type callRequest struct {
	To string `json:"to" validate:"required,e164"`
}

type callResponse struct {
	SID     string `json:"sid,omitempty"`
	Message string `json:"message"`
}

type recordView struct {
	Kind    string `json:"kind"`
	Tag     string `json:"tag"`
	Payload string `json:"payload"`
}

// New builds the fiber app.
func New(opts Options) (*fiber.App, error) {
	if opts.Records == nil {
		return nil, errors.New("record reader is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if (opts.Dialer == nil) != (opts.Sink == nil) {
		return nil, errors.New("dialer and sink must be set together")
	}
	s := &server{opts: opts, validate: validator.New()}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return respondWithError(c, code, err.Error())
		},
	})
	app.Use(RequestLogger(opts.Logger))

	app.Get("/health", s.health)
	app.Get("/records", s.records)

	if opts.Dialer != nil {
		app.Post("/call", s.dial)
		app.Get("/twiml", s.twiml)
		app.Use("/stream", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				c.Locals("allowed", true)
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/stream", websocket.New(s.stream))
	}
	return app, nil
}

func (s *server) health(c *fiber.Ctx) error {
	body := fiber.Map{"status": "ok"}
	if s.opts.Stats != nil {
		body["stats"] = s.opts.Stats.Stats()
	}
	return c.JSON(body)
}

func (s *server) records(c *fiber.Ctx) error {
	tail := 0
	if raw := c.Query("tail"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return respondWithError(c, fiber.StatusBadRequest, "tail must be a non-negative integer")
		}
		tail = n
	}
	records, err := s.opts.Records.Tail(tail)
	if err != nil {
		return errors.Wrap(err, "read records")
	}
	views := make([]recordView, 0, len(records))
	for _, r := range records {
		views = append(views, recordView{Kind: r.Kind.String(), Tag: r.Tag, Payload: r.Payload})
	}
	return respondWithJSON(c, fiber.StatusOK, views)
}

func (s *server) dial(c *fiber.Ctx) error {
	var req callRequest
	if err := c.BodyParser(&req); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, "invalid JSON")
	}
	if err := s.validate.Struct(req); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, formatValidationErrors(err))
	}
	sid, err := s.opts.Dialer.Dial(req.To)
	if err != nil {
		s.opts.Logger.WithError(err).Error("Twilio error")
		return respondWithError(c, fiber.StatusBadGateway, "failed to create call")
	}
	return c.JSON(callResponse{SID: sid, Message: "call initiated"})
}

func (s *server) twiml(c *fiber.Ctx) error {
	callSid := c.Query("CallSid")
	if callSid == "" {
		return respondWithError(c, fiber.StatusBadRequest, "CallSid missing")
	}
	c.Type("xml")
	return c.SendString(s.opts.Dialer.TwiML(callSid))
}

// stream serves one media stream at a time; the capture stream has a
// single speaker.
func (s *server) stream(ws *websocket.Conn) {
	logger := s.opts.Logger.WithField("remote", ws.RemoteAddr().String())
	if !s.active.CompareAndSwap(false, true) {
		logger.Warn("Rejecting media stream: another call is active")
		ws.Close()
		return
	}
	defer s.active.Store(false)

	session, err := call.NewSession(ws, s.opts.Sink, logger)
	if err != nil {
		logger.WithError(err).Error("Media stream setup failed")
		ws.Close()
		return
	}
	logger.Info("WebSocket /stream connected")
	if err := session.Serve(); err != nil {
		logger.WithError(err).Warn("Media stream ended")
	}
}

func formatValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	return fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
}
