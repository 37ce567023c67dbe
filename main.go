package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mrsingh-rishi/voice-notes/annotate"
	"github.com/mrsingh-rishi/voice-notes/audio"
	"github.com/mrsingh-rishi/voice-notes/call"
	"github.com/mrsingh-rishi/voice-notes/config"
	"github.com/mrsingh-rishi/voice-notes/nlp"
	"github.com/mrsingh-rishi/voice-notes/output"
	"github.com/mrsingh-rishi/voice-notes/server"
	"github.com/mrsingh-rishi/voice-notes/stt"
	"github.com/mrsingh-rishi/voice-notes/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("❌ Configuration error")
	}
	logger := config.NewLogger(cfg).WithField("session", uuid.NewString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("❌ Pipeline stopped")
	}
	logger.Info("Bye")
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Entry) error {
	annotator, err := newAnnotator(cfg)
	if err != nil {
		return err
	}
	transcriber, err := newTranscriber(cfg, logger)
	if err != nil {
		return err
	}
	recordLog, err := output.NewLog(cfg.LogPath, annotator, logger.WithField("component", "log"))
	if err != nil {
		return err
	}

	sampleRate := cfg.SampleRate
	if cfg.AudioSource == "twilio" {
		sampleRate = call.SampleRate
	}
	endpoint := audio.DefaultEndpointConfig(sampleRate)
	endpoint.EnergyThreshold = cfg.EnergyThreshold
	endpoint.DynamicEnergy = cfg.DynamicEnergy
	endpoint.PauseThreshold = cfg.PauseThreshold
	stream, err := audio.NewStream(audio.StreamConfig{Endpoint: endpoint, Calibration: cfg.Calibration},
		logger.WithField("component", "audio"))
	if err != nil {
		return err
	}

	worker, err := workers.NewPipelineWorker(
		workers.PipelineConfig{Language: cfg.Language, Pacing: cfg.Pacing},
		stream, transcriber, annotator, recordLog, output.NewConsole(os.Stdout),
		logger.WithField("component", "pipeline"))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	switch cfg.AudioSource {
	case "command":
		recorder, err := audio.NewCommandSource(cfg.AudioCommand, stream, logger.WithField("component", "recorder"))
		if err != nil {
			return err
		}
		g.Go(func() error { return recorder.Run(ctx) })
	case "twilio":
		logger.Info("📞 Waiting for a call to calibrate")
	}

	if cfg.HTTPAddr != "" {
		opts := server.Options{
			Records: recordLog,
			Stats:   worker,
			Logger:  logger.WithField("component", "http"),
		}
		if cfg.AudioSource == "twilio" {
			dialer, err := call.NewDialer(call.DialerConfig{
				AccountSid: cfg.TwilioAccountSid,
				AuthToken:  cfg.TwilioAuthToken,
				From:       cfg.TwilioFromNumber,
				BaseURL:    cfg.BaseURL,
				BaseWSURL:  cfg.BaseWSURL,
			})
			if err != nil {
				return err
			}
			opts.Dialer, opts.Sink = dialer, stream
		}
		app, err := server.New(opts)
		if err != nil {
			return err
		}
		g.Go(func() error {
			logger.Infof("Fiber server listening on %s", cfg.HTTPAddr)
			return errors.Wrap(app.Listen(cfg.HTTPAddr), "http server")
		})
		g.Go(func() error {
			<-ctx.Done()
			return app.Shutdown()
		})
	}

	g.Go(func() error {
		defer stream.Close()
		return worker.Run(ctx)
	})
	return g.Wait()
}

func newAnnotator(cfg *config.Config) (*annotate.Annotator, error) {
	segmenter, err := nlp.NewProseSegmenter()
	if err != nil {
		return nil, err
	}
	stopWords, err := nlp.StopWords(cfg.Language)
	if err != nil {
		return nil, err
	}
	summarizer, err := annotate.NewSummarizer(segmenter, stopWords)
	if err != nil {
		return nil, err
	}
	speakers, err := annotate.NewSpeakerAttributor(segmenter, cfg.SpeakerMarkers)
	if err != nil {
		return nil, err
	}
	keywords, err := annotate.NewKeywordExtractor(segmenter, cfg.KeywordLimit)
	if err != nil {
		return nil, err
	}
	return annotate.NewAnnotator(summarizer, speakers, keywords)
}

func newTranscriber(cfg *config.Config, logger *logrus.Entry) (stt.Client, error) {
	switch cfg.ASRBackend {
	case "deepgram":
		return stt.NewDeepgramClient(stt.DeepgramConfig{
			APIKey: cfg.DeepgramAPIKey,
			Model:  cfg.DeepgramModel,
		}, logger)
	default:
		return stt.NewWhisperClient(stt.WhisperConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.WhisperModel,
		}, logger)
	}
}
