package annotate

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-notes/model"
	"github.com/mrsingh-rishi/voice-notes/nlp"
)

// DefaultSpeakerMarkers are the nouns that announce a speaker.
var DefaultSpeakerMarkers = []string{"speaker", "voice"}

// SpeakerAttributor groups sentences by speaker using marker nouns. It is a
// text heuristic, not diarization.
type SpeakerAttributor struct {
	segmenter nlp.Segmenter
	markers   map[string]struct{}
}

func NewSpeakerAttributor(segmenter nlp.Segmenter, markers []string) (*SpeakerAttributor, error) {
	if segmenter == nil {
		return nil, errors.New("segmenter is required")
	}
	set := make(map[string]struct{}, len(markers))
	for _, m := range markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			set[m] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil, errors.New("at least one speaker marker is required")
	}
	return &SpeakerAttributor{segmenter: segmenter, markers: set}, nil
}

// Attribute labels each sentence that contains a marker noun with the
// sentence's first token. When no sentence has a marker, every sentence goes
// to the single implicit speaker. Otherwise unmarked sentences are reported
// in Unattributed and belong to no group.
func (a *SpeakerAttributor) Attribute(text string) (model.Attribution, error) {
	sentences, err := a.segmenter.Segment(text)
	if err != nil {
		return model.Attribution{}, errors.Wrap(err, "segment")
	}

	var (
		groups       []model.SpeakerGroup
		index        = map[string]int{}
		unattributed []model.Sentence
	)
	for _, sentence := range sentences {
		label, ok := a.label(sentence)
		if !ok {
			unattributed = append(unattributed, sentence)
			continue
		}
		i, seen := index[label]
		if !seen {
			i = len(groups)
			index[label] = i
			groups = append(groups, model.SpeakerGroup{Label: label})
		}
		groups[i].Sentences = append(groups[i].Sentences, sentence)
	}

	if len(groups) == 0 {
		return model.Attribution{
			Kind:   model.NoMarkerFound,
			Groups: []model.SpeakerGroup{{Label: model.FallbackSpeaker, Sentences: sentences}},
		}, nil
	}
	return model.Attribution{Kind: model.MarkerFound, Groups: groups, Unattributed: unattributed}, nil
}

// label stops at the first marker of the sentence.
func (a *SpeakerAttributor) label(sentence model.Sentence) (string, bool) {
	for _, tok := range sentence.Tokens {
		if tok.Tag != model.TagNoun {
			continue
		}
		if _, ok := a.markers[tok.Lower]; ok {
			return sentence.Tokens[0].Text, true
		}
	}
	return "", false
}

// Labels returns only the speaker labels of Attribute.
func (a *SpeakerAttributor) Labels(text string) ([]string, error) {
	attribution, err := a.Attribute(text)
	if err != nil {
		return nil, err
	}
	return attribution.Labels(), nil
}
