// Package annotate derives a summary, speaker labels and keywords from a
// transcript. Stages hold only configuration and are safe to reuse.
package annotate

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-notes/nlp"
)

// Summarizer condenses text by dropping stop words and punctuation.
type Summarizer struct {
	segmenter nlp.Segmenter
	stopWords map[string]struct{}
}

func NewSummarizer(segmenter nlp.Segmenter, stopWords map[string]struct{}) (*Summarizer, error) {
	if segmenter == nil {
		return nil, errors.New("segmenter is required")
	}
	if stopWords == nil {
		return nil, errors.New("stop words are required")
	}
	return &Summarizer{segmenter: segmenter, stopWords: stopWords}, nil
}

// Summarize keeps the alphanumeric non-stop-word tokens of every sentence.
// A sentence with no surviving tokens contributes an empty segment, so the
// result always has one segment per sentence.
func (s *Summarizer) Summarize(text string) (string, error) {
	sentences, err := s.segmenter.Segment(text)
	if err != nil {
		return "", errors.Wrap(err, "segment")
	}
	segments := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		var kept []string
		for _, tok := range sentence.Tokens {
			if _, stop := s.stopWords[strings.ToLower(tok.Text)]; stop || !isAlnum(tok.Text) {
				continue
			}
			kept = append(kept, tok.Text)
		}
		segments = append(segments, strings.Join(kept, " "))
	}
	return strings.Join(segments, " "), nil
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
