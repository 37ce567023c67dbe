// Package output persists records to the append-only log and echoes results
// to the console.
package output

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mrsingh-rishi/voice-notes/annotate"
	"github.com/mrsingh-rishi/voice-notes/model"
)

// SpeakerLabeler derives speaker labels from stored text.
type SpeakerLabeler interface {
	Labels(text string) ([]string, error)
}

// Log is the append-only record log. The file is opened, written, synced
// and closed on every record, so no handle is held between calls.
type Log struct {
	path    string
	labeler SpeakerLabeler
	logger  *logrus.Entry
	mu      sync.Mutex
}

func NewLog(path string, labeler SpeakerLabeler, logger *logrus.Entry) (*Log, error) {
	if path == "" {
		return nil, errors.New("log path is required")
	}
	if labeler == nil {
		return nil, errors.New("speaker labeler is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Log{path: path, labeler: labeler, logger: logger}, nil
}

// Path of the log file.
func (l *Log) Path() string { return l.path }

// Append writes one record. A transcription record is followed by a Speakers
// record derived from its payload.
func (l *Log) Append(rec model.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.write(rec); err != nil {
		return err
	}
	if rec.Kind != model.KindTranscription {
		return nil
	}
	return l.write(model.SpeakersRecord(l.deriveLabels(rec.Payload)))
}

func (l *Log) deriveLabels(text string) []string {
	var labels []string
	err := annotate.Isolate(annotate.StageSpeakers, func() (err error) {
		labels, err = l.labeler.Labels(text)
		return err
	})
	if err != nil {
		l.logger.WithError(err).Warn("Falling back to the implicit speaker for the derived record")
		return annotate.FallbackAttribution().Labels()
	}
	return labels
}

func (l *Log) write(rec model.Record) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", l.path)
	}
	if _, err := f.WriteString(rec.Line() + "\n"); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s record", rec.Kind)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrap(err, "sync log")
	}
	return errors.Wrap(f.Close(), "close log")
}

// Records reads the log back. A missing file holds no records.
func (l *Log) Records() ([]model.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", l.path)
	}
	defer f.Close()

	var records []model.Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := model.ParseRecord(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", n)
		}
		records = append(records, rec)
	}
	return records, errors.Wrap(sc.Err(), "read log")
}

// Tail returns the last n records, or all of them when n <= 0.
func (l *Log) Tail(n int) ([]model.Record, error) {
	records, err := l.Records()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}
