package annotate

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-notes/model"
)

const (
	StageSummary  = "summary"
	StageSpeakers = "speakers"
	StageKeywords = "keywords"
)

// StageDegradedError reports a stage that failed and was replaced by its
// fallback result.
type StageDegradedError struct {
	Stage string
	Err   error
}

func (e *StageDegradedError) Error() string {
	return fmt.Sprintf("%s stage degraded: %v", e.Stage, e.Err)
}

func (e *StageDegradedError) Unwrap() error { return e.Err }

// Isolate runs one stage. Errors and panics come back as a
// *StageDegradedError.
func Isolate(stage string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &StageDegradedError{Stage: stage, Err: errors.Errorf("panic: %v", r)}
		}
	}()
	if err := fn(); err != nil {
		return &StageDegradedError{Stage: stage, Err: err}
	}
	return nil
}

// Annotator runs the three stages over one transcript.
type Annotator struct {
	summarizer *Summarizer
	speakers   *SpeakerAttributor
	keywords   *KeywordExtractor
}

func NewAnnotator(summarizer *Summarizer, speakers *SpeakerAttributor, keywords *KeywordExtractor) (*Annotator, error) {
	if summarizer == nil || speakers == nil || keywords == nil {
		return nil, errors.New("summarizer, speaker attributor and keyword extractor are required")
	}
	return &Annotator{summarizer: summarizer, speakers: speakers, keywords: keywords}, nil
}

// KeywordLimit is the configured number of keywords.
func (a *Annotator) KeywordLimit() int { return a.keywords.Limit() }

// Labels exposes speaker labelling for re-deriving labels from stored text.
func (a *Annotator) Labels(text string) ([]string, error) { return a.speakers.Labels(text) }

// Annotate never fails as a whole. Each failed stage contributes its fallback
// (empty summary, no keywords, the implicit speaker) and a
// *StageDegradedError to the returned slice.
func (a *Annotator) Annotate(utteranceID string, transcript model.Transcript) (model.Annotations, []error) {
	out := model.Annotations{UtteranceID: utteranceID, Transcript: transcript}
	var degraded []error

	if err := Isolate(StageSummary, func() (err error) {
		out.Summary, err = a.summarizer.Summarize(transcript.Text)
		return err
	}); err != nil {
		out.Summary = ""
		degraded = append(degraded, err)
	}

	if err := Isolate(StageSpeakers, func() (err error) {
		out.Speakers, err = a.speakers.Attribute(transcript.Text)
		return err
	}); err != nil {
		out.Speakers = FallbackAttribution()
		degraded = append(degraded, err)
	}

	if err := Isolate(StageKeywords, func() (err error) {
		out.Keywords, err = a.keywords.Extract(transcript.Text)
		return err
	}); err != nil {
		out.Keywords = nil
		degraded = append(degraded, err)
	}

	return out, degraded
}

// FallbackAttribution is the implicit single speaker with no sentences.
func FallbackAttribution() model.Attribution {
	return model.Attribution{
		Kind:   model.NoMarkerFound,
		Groups: []model.SpeakerGroup{{Label: model.FallbackSpeaker}},
	}
}
