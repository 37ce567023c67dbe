package annotate

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-notes/nlp"
)

// DefaultKeywordLimit is the number of keywords kept per transcript.
const DefaultKeywordLimit = 5

// KeywordExtractor ranks multi-word noun phrases by how often they occur.
type KeywordExtractor struct {
	segmenter nlp.Segmenter
	limit     int
}

func NewKeywordExtractor(segmenter nlp.Segmenter, limit int) (*KeywordExtractor, error) {
	if segmenter == nil {
		return nil, errors.New("segmenter is required")
	}
	if limit < 1 {
		return nil, errors.Errorf("keyword limit must be positive, got %d", limit)
	}
	return &KeywordExtractor{segmenter: segmenter, limit: limit}, nil
}

// Limit is the maximum number of keywords returned by Extract.
func (k *KeywordExtractor) Limit() int { return k.limit }

type candidate struct {
	text  string
	count int
}

// Extract returns at most Limit noun chunks of two or more tokens without a
// pronoun, ordered by their occurrence count in text. Ties keep discovery
// order.
func (k *KeywordExtractor) Extract(text string) ([]string, error) {
	sentences, err := k.segmenter.Segment(text)
	if err != nil {
		return nil, errors.Wrap(err, "segment")
	}

	var candidates []candidate
	seen := map[string]bool{}
	for _, sentence := range sentences {
		for _, chunk := range nlp.NounChunks(sentence) {
			if len(chunk.Tokens) < 2 || chunk.HasPronoun() || seen[chunk.Text] {
				continue
			}
			seen[chunk.Text] = true
			candidates = append(candidates, candidate{text: chunk.Text, count: strings.Count(text, chunk.Text)})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].count > candidates[j].count
	})

	keywords := make([]string, 0, min(k.limit, len(candidates)))
	for _, c := range candidates {
		if len(keywords) == k.limit {
			break
		}
		keywords = append(keywords, c.text)
	}
	return keywords, nil
}
