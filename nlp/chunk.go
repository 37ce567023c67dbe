package nlp

import (
	"strings"

	"github.com/mrsingh-rishi/voice-notes/model"
)

// NounChunks returns the base noun phrases of a sentence in order. A chunk
// is a run of determiners, possessives, adjectives, numbers and nouns that
// ends with a noun. A determiner or modifier after a noun starts a new chunk.
func NounChunks(sentence model.Sentence) []model.Chunk {
	var chunks []model.Chunk
	start, lastNoun := -1, -1

	flush := func() {
		if start >= 0 && lastNoun >= 0 {
			chunks = append(chunks, newChunk(sentence, sentence.Tokens[start:lastNoun+1]))
		}
		start, lastNoun = -1, -1
	}

	for i, tok := range sentence.Tokens {
		switch {
		case tok.Tag == model.TagNoun || tok.Tag == model.TagPropN:
			if start < 0 {
				start = i
			}
			lastNoun = i
		case isModifier(tok):
			if lastNoun >= 0 {
				flush()
			}
			if start < 0 {
				start = i
			}
		default:
			flush()
		}
	}
	flush()
	return chunks
}

func isModifier(tok model.Token) bool {
	switch tok.Tag {
	case model.TagDet, model.TagAdj, model.TagNum:
		return true
	case model.TagPron:
		return tok.Possessive
	}
	return false
}

func newChunk(sentence model.Sentence, tokens []model.Token) model.Chunk {
	first, last := tokens[0], tokens[len(tokens)-1]
	from, to := first.Start-sentence.Start, last.End-sentence.Start
	var text string
	if from >= 0 && from < to && to <= len(sentence.Text) {
		text = sentence.Text[from:to]
	} else {
		words := make([]string, len(tokens))
		for i, tok := range tokens {
			words[i] = tok.Text
		}
		text = strings.Join(words, " ")
	}
	return model.Chunk{Text: text, Tokens: append([]model.Token(nil), tokens...)}
}
