package workers

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mrsingh-rishi/voice-notes/audio"
	"github.com/mrsingh-rishi/voice-notes/model"
	"github.com/mrsingh-rishi/voice-notes/stt"
)

// DefaultPacing is the delay between two iterations.
const DefaultPacing = 2 * time.Second

// Annotator derives the annotations of one transcript. It reports degraded
// stages instead of failing.
type Annotator interface {
	Annotate(utteranceID string, transcript model.Transcript) (model.Annotations, []error)
	KeywordLimit() int
}

// RecordWriter persists log records.
type RecordWriter interface {
	Append(rec model.Record) error
}

// Reporter echoes progress to a human. Optional.
type Reporter interface {
	Ready()
	Utterance(a model.Annotations, keywordLimit int)
}

// Outcome of one iteration.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomePersisted
	OutcomeUnrecognized
	OutcomeUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomePersisted:
		return "persisted"
	case OutcomeUnrecognized:
		return "unrecognized"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "none"
	}
}

// PersistenceError means a record could not be written. The loop stops on it.
type PersistenceError struct {
	Kind model.RecordKind
	Err  error
}

func (e *PersistenceError) Error() string {
	return "persist " + e.Kind.String() + " record: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Stats counts iteration outcomes since the worker was created.
type Stats struct {
	Persisted    int64 `json:"persisted"`
	Unrecognized int64 `json:"unrecognized"`
	Unavailable  int64 `json:"unavailable"`
	Degraded     int64 `json:"degraded"`
}

type PipelineConfig struct {
	Language string
	Pacing   time.Duration
}

// PipelineWorker captures, transcribes, annotates and persists one utterance
// at a time.
type PipelineWorker struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cfg         PipelineConfig
	source      audio.Source
	transcriber stt.Client
	annotator   Annotator
	records     RecordWriter
	reporter    Reporter
	logger      *logrus.Entry
	sleep       func(ctx context.Context, d time.Duration) error

	persisted, unrecognized, unavailable, degraded atomic.Int64
}

func NewPipelineWorker(
	cfg PipelineConfig,
	source audio.Source,
	transcriber stt.Client,
	annotator Annotator,
	records RecordWriter,
	reporter Reporter,
	logger *logrus.Entry,
) (*PipelineWorker, error) {
	if source == nil {
		return nil, errors.New("audio source is required")
	}
	if transcriber == nil {
		return nil, errors.New("transcription client is required")
	}
	if annotator == nil {
		return nil, errors.New("annotator is required")
	}
	if records == nil {
		return nil, errors.New("record writer is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.Language == "" {
		return nil, errors.New("language is required")
	}
	if cfg.Pacing < 0 {
		return nil, errors.Errorf("pacing must not be negative, got %s", cfg.Pacing)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PipelineWorker{
		ctx:         ctx,
		cancel:      cancel,
		cfg:         cfg,
		source:      source,
		transcriber: transcriber,
		annotator:   annotator,
		records:     records,
		reporter:    reporter,
		logger:      logger,
		sleep:       sleepContext,
	}, nil
}

// Run calibrates the source once and processes utterances until ctx is done
// or Stop is called, which return nil. A closed source or a persistence
// failure ends the loop with an error.
func (w *PipelineWorker) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	stop := context.AfterFunc(w.ctx, cancel)
	defer stop()

	if err := w.source.Calibrate(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(err, "calibrate audio source")
	}
	if w.reporter != nil {
		w.reporter.Ready()
	}
	w.logger.Info("🎙️ Listening")

	for {
		_, err := w.RunOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			var perr *PersistenceError
			if errors.Is(err, audio.ErrSourceClosed) || errors.As(err, &perr) {
				return err
			}
			w.logger.WithError(err).Error("Iteration failed")
		}
		if err := w.sleep(ctx, w.cfg.Pacing); err != nil {
			return nil
		}
	}
}

// RunOnce performs a single iteration. Unrecognized speech and unavailable
// backends are outcomes, not errors.
func (w *PipelineWorker) RunOnce(ctx context.Context) (Outcome, error) {
	utterance, err := w.source.Capture(ctx)
	if err != nil {
		return OutcomeNone, errors.Wrap(err, "capture")
	}
	logger := w.logger.WithField("utterance", utterance.ID)
	logger.WithField("duration", utterance.Duration()).Debug("Utterance captured")

	transcript, err := w.transcriber.Transcribe(ctx, utterance, w.cfg.Language)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeNone, ctx.Err()
		}
		var sue *stt.ServiceUnavailableError
		switch {
		case errors.Is(err, stt.ErrUnrecognizedSpeech):
			w.unrecognized.Add(1)
			logger.Warn("Unable to recognize speech")
			return OutcomeUnrecognized, nil
		case errors.As(err, &sue):
			w.unavailable.Add(1)
			logger.WithField("backend", sue.Backend).Errorf("Request error: %s", sue.Detail)
			return OutcomeUnavailable, nil
		default:
			w.unavailable.Add(1)
			logger.Errorf("Request error: %v", err)
			return OutcomeUnavailable, nil
		}
	}

	annotations, degraded := w.annotator.Annotate(utterance.ID, transcript)
	for _, d := range degraded {
		w.degraded.Add(1)
		logger.WithError(d).Warn("Stage degraded")
	}
	limit := w.annotator.KeywordLimit()
	if w.reporter != nil {
		w.reporter.Utterance(annotations, limit)
	}

	records := []model.Record{
		model.TranscriptionRecord(transcript.Text),
		model.KeywordsRecord(limit, annotations.Keywords),
		model.SummaryRecord(annotations.Summary),
		model.SpeakersRecord(annotations.Speakers.Labels()),
	}
	for _, rec := range records {
		if err := w.records.Append(rec); err != nil {
			return OutcomeNone, &PersistenceError{Kind: rec.Kind, Err: err}
		}
	}
	w.persisted.Add(1)
	logger.Info("✅ Utterance persisted")
	return OutcomePersisted, nil
}

// Stats returns a snapshot of the outcome counters.
func (w *PipelineWorker) Stats() Stats {
	return Stats{
		Persisted:    w.persisted.Load(),
		Unrecognized: w.unrecognized.Load(),
		Unavailable:  w.unavailable.Load(),
		Degraded:     w.degraded.Load(),
	}
}

// Stop signals Run to return.
func (w *PipelineWorker) Stop() {
	w.cancel()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
