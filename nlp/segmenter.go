// Package nlp splits text into POS-tagged sentences and finds noun chunks.
package nlp

import (
	"strings"
	"sync"
	"unicode"

	"github.com/jdkato/prose/v2"
	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-notes/model"
)

// Segmenter splits text into sentences of tagged tokens.
type Segmenter interface {
	Segment(text string) ([]model.Sentence, error)
}

// ProseSegmenter segments and tags English text with prose.
type ProseSegmenter struct {
	mu    sync.Mutex
	model *prose.Model
}

// NewProseSegmenter loads the tagging model once; documents reuse it.
func NewProseSegmenter() (*ProseSegmenter, error) {
	doc, err := prose.NewDocument("", prose.WithExtraction(false), prose.WithSegmentation(false))
	if err != nil {
		return nil, errors.Wrap(err, "load prose model")
	}
	return &ProseSegmenter{model: doc.Model}, nil
}

func (p *ProseSegmenter) Segment(text string) ([]model.Sentence, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := prose.NewDocument(text,
		prose.UsingModel(p.model),
		prose.WithTagging(false),
		prose.WithTokenization(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, errors.Wrap(err, "segment")
	}

	var sentences []model.Sentence
	cursor := 0
	for _, s := range doc.Sentences() {
		start, end := locate(text, s.Text, cursor)
		sentence := model.Sentence{Text: text[start:end], Start: start}
		cursor = end

		tagged, err := prose.NewDocument(sentence.Text,
			prose.UsingModel(p.model),
			prose.WithSegmentation(false),
			prose.WithExtraction(false))
		if err != nil {
			return nil, errors.Wrap(err, "tag")
		}
		pos := 0
		for _, tok := range splitFinalPeriod(tagged.Tokens()) {
			ts, te := locate(sentence.Text, tok.Text, pos)
			pos = te
			tag, possessive := CoarseTag(tok.Tag)
			sentence.Tokens = append(sentence.Tokens, model.Token{
				Text:       tok.Text,
				Lower:      strings.ToLower(tok.Text),
				Tag:        tag,
				Possessive: possessive,
				Start:      start + ts,
				End:        start + te,
			})
		}
		sentences = append(sentences, sentence)
	}
	return sentences, nil
}

// splitFinalPeriod detaches a sentence-final period that the tokenizer
// kept on the last word because it looked like an abbreviation ("Bob.").
func splitFinalPeriod(tokens []prose.Token) []prose.Token {
	if len(tokens) == 0 {
		return tokens
	}
	last := tokens[len(tokens)-1]
	word, ok := strings.CutSuffix(last.Text, ".")
	if !ok || !isAlnum(word) {
		return tokens
	}
	tag := last.Tag
	if tag == "." {
		tag = "NNP"
	}
	out := append(tokens[:len(tokens)-1:len(tokens)-1],
		prose.Token{Text: word, Tag: tag, Label: last.Label},
		prose.Token{Text: ".", Tag: ".", Label: "O"})
	return out
}

func isAlnum(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// locate finds needle in text at or after from. When the tokenizer rewrote
// the surface form, the span collapses to the cursor.
func locate(text, needle string, from int) (int, int) {
	if from > len(text) {
		from = len(text)
	}
	if i := strings.Index(text[from:], needle); i >= 0 && needle != "" {
		return from + i, from + i + len(needle)
	}
	return from, from
}

// CoarseTag maps a Penn Treebank tag to the coarse tag set. The second
// result is true for possessive pronouns.
func CoarseTag(penn string) (model.Tag, bool) {
	switch penn {
	case "NN", "NNS":
		return model.TagNoun, false
	case "NNP", "NNPS":
		return model.TagPropN, false
	case "PRP", "WP", "EX":
		return model.TagPron, false
	case "PRP$", "WP$":
		return model.TagPron, true
	case "MD":
		return model.TagVerb, false
	case "DT", "PDT", "WDT":
		return model.TagDet, false
	case "IN":
		return model.TagAdp, false
	case "CD":
		return model.TagNum, false
	case "CC":
		return model.TagConj, false
	case "RP", "TO", "POS":
		return model.TagPart, false
	case "UH":
		return model.TagIntj, false
	case "SYM", "$", "#":
		return model.TagSym, false
	case ".", ",", ":", "``", "''", "-LRB-", "-RRB-", "(", ")", "HYPH", "NFP":
		return model.TagPunct, false
	}
	switch {
	case strings.HasPrefix(penn, "VB"):
		return model.TagVerb, false
	case strings.HasPrefix(penn, "JJ"):
		return model.TagAdj, false
	case strings.HasPrefix(penn, "RB"), penn == "WRB":
		return model.TagAdv, false
	}
	return model.TagOther, false
}
