package nlp

import (
	"reflect"
	"strings"
	"testing"

	"github.com/jdkato/prose/v2"

	"github.com/mrsingh-rishi/voice-notes/model"
)

func TestCoarseTag(t *testing.T) {
	tests := []struct {
		penn       string
		want       model.Tag
		possessive bool
	}{
		{"NN", model.TagNoun, false},
		{"NNS", model.TagNoun, false},
		{"NNP", model.TagPropN, false},
		{"PRP", model.TagPron, false},
		{"PRP$", model.TagPron, true},
		{"VBD", model.TagVerb, false},
		{"MD", model.TagVerb, false},
		{"JJR", model.TagAdj, false},
		{"RBS", model.TagAdv, false},
		{"WRB", model.TagAdv, false},
		{"DT", model.TagDet, false},
		{"IN", model.TagAdp, false},
		{"CD", model.TagNum, false},
		{".", model.TagPunct, false},
		{"$", model.TagSym, false},
		{"FW", model.TagOther, false},
	}
	for _, tt := range tests {
		got, possessive := CoarseTag(tt.penn)
		if got != tt.want || possessive != tt.possessive {
			t.Errorf("CoarseTag(%q) = (%q, %v), want (%q, %v)", tt.penn, got, possessive, tt.want, tt.possessive)
		}
	}
}

// sentence builds a tagged sentence from "word/TAG" pairs separated by spaces.
func sentence(start int, tagged string) model.Sentence {
	var s model.Sentence
	s.Start = start
	var words []string
	offset := start
	for _, pair := range strings.Fields(tagged) {
		i := strings.LastIndex(pair, "/")
		word, tag := pair[:i], model.Tag(pair[i+1:])
		possessive := false
		if tag == "POSS" {
			tag, possessive = model.TagPron, true
		}
		s.Tokens = append(s.Tokens, model.Token{
			Text: word, Lower: strings.ToLower(word), Tag: tag, Possessive: possessive,
			Start: offset, End: offset + len(word),
		})
		words = append(words, word)
		offset += len(word) + 1
	}
	s.Text = strings.Join(words, " ")
	return s
}

func chunkTexts(chunks []model.Chunk) []string {
	var out []string
	for _, c := range chunks {
		out = append(out, c.Text)
	}
	return out
}

func TestNounChunks(t *testing.T) {
	tests := []struct {
		name   string
		tagged string
		want   []string
	}{
		{"determiner and noun", "The/DET speaker/NOUN said/VERB hello/INTJ", []string{"The speaker"}},
		{"compound", "the/DET quarterly/ADJ budget/NOUN review/NOUN starts/VERB", []string{"the quarterly budget review"}},
		{"possessive", "my/POSS project/NOUN plan/NOUN", []string{"my project plan"}},
		{"determiner after noun splits", "budget/NOUN the/DET meeting/NOUN", []string{"budget", "the meeting"}},
		{"no noun", "it/PRON is/VERB very/ADV good/ADJ", nil},
		{"pronoun alone", "I/PRON agree/VERB", nil},
		{"two chunks", "Alice/PROPN reviewed/VERB the/DET sales/NOUN report/NOUN", []string{"Alice", "the sales report"}},
		{"dangling modifier", "the/DET big/ADJ ./PUNCT", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunkTexts(NounChunks(sentence(7, tt.tagged)))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NounChunks = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNounChunkPronoun(t *testing.T) {
	chunks := NounChunks(sentence(0, "my/POSS project/NOUN plan/NOUN"))
	if len(chunks) != 1 || !chunks[0].HasPronoun() {
		t.Errorf("chunk %+v should contain a pronoun", chunks)
	}
}

func TestStopWords(t *testing.T) {
	words, err := StopWords("en-US")
	if err != nil {
		t.Fatalf("StopWords: %v", err)
	}
	if len(words) != 179 {
		t.Errorf("len = %d, want 179", len(words))
	}
	for _, w := range []string{"the", "is", "a", "this", "don't"} {
		if _, ok := words[w]; !ok {
			t.Errorf("%q should be a stop word", w)
		}
	}
	if _, ok := words["speaker"]; ok {
		t.Error("speaker should not be a stop word")
	}

	if _, err := StopWords("xx"); err == nil {
		t.Error("expected error for unknown language")
	}
}

func TestLocate(t *testing.T) {
	text := "a b a"
	if s, e := locate(text, "a", 1); s != 4 || e != 5 {
		t.Errorf("locate = (%d, %d), want (4, 5)", s, e)
	}
	if s, e := locate(text, "z", 2); s != 2 || e != 2 {
		t.Errorf("locate missing = (%d, %d), want (2, 2)", s, e)
	}
}

func TestProseSegmenter(t *testing.T) {
	seg, err := NewProseSegmenter()
	if err != nil {
		t.Fatalf("NewProseSegmenter: %v", err)
	}
	text := "The speaker said hello. This is a test."
	sentences, err := seg.Segment(text)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(sentences) != 2 {
		t.Fatalf("got %d sentences, want 2", len(sentences))
	}
	if sentences[0].Text != "The speaker said hello." || sentences[1].Text != "This is a test." {
		t.Errorf("sentences = %q / %q", sentences[0].Text, sentences[1].Text)
	}
	if sentences[0].Tokens[0].Text != "The" {
		t.Errorf("first token = %q, want The", sentences[0].Tokens[0].Text)
	}

	foundMarker := false
	for _, s := range sentences {
		if text[s.Start:s.Start+len(s.Text)] != s.Text {
			t.Errorf("sentence offset %d does not match %q", s.Start, s.Text)
		}
		for _, tok := range s.Tokens {
			if text[tok.Start:tok.End] != tok.Text {
				t.Errorf("token offsets [%d:%d] do not match %q", tok.Start, tok.End, tok.Text)
			}
			if tok.Lower == "speaker" && tok.Tag == model.TagNoun {
				foundMarker = true
			}
		}
	}
	if !foundMarker {
		t.Error("speaker should be tagged NOUN")
	}

	again, err := seg.Segment(text)
	if err != nil || !reflect.DeepEqual(again, sentences) {
		t.Error("Segment should be deterministic")
	}

	if empty, err := seg.Segment("   "); err != nil || len(empty) != 0 {
		t.Errorf("Segment(blank) = %v, %v", empty, err)
	}
}

func TestProseSegmenterDetachesFinalPeriod(t *testing.T) {
	seg, err := NewProseSegmenter()
	if err != nil {
		t.Fatalf("NewProseSegmenter: %v", err)
	}
	tests := []struct {
		text string
		want [][]string
	}{
		{"We met Bob.", [][]string{{"We", "met", "Bob", "."}}},
		{"Yes. Thanks Anna.", [][]string{{"Yes", "."}, {"Thanks", "Anna", "."}}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			sentences, err := seg.Segment(tt.text)
			if err != nil {
				t.Fatalf("Segment: %v", err)
			}
			var got [][]string
			for _, s := range sentences {
				var words []string
				for _, tok := range s.Tokens {
					words = append(words, tok.Text)
					if tt.text[tok.Start:tok.End] != tok.Text {
						t.Errorf("token offsets [%d:%d] do not match %q", tok.Start, tok.End, tok.Text)
					}
				}
				got = append(got, words)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tokens = %q, want %q", got, tt.want)
			}
			last := sentences[len(sentences)-1].Tokens
			if tag := last[len(last)-1].Tag; tag != model.TagPunct {
				t.Errorf("final token tag = %v, want PUNCT", tag)
			}
		})
	}
}

func TestSplitFinalPeriod(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"glued name", []string{"met", "Bob."}, []string{"met", "Bob", "."}},
		{"already split", []string{"met", "Bob", "."}, []string{"met", "Bob", "."}},
		{"initialism", []string{"the", "U.S."}, []string{"the", "U.S."}},
		{"lone period", []string{"."}, []string{"."}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []prose.Token
			for _, w := range tt.in {
				tokens = append(tokens, prose.Token{Text: w, Tag: "NNP"})
			}
			var got []string
			for _, tok := range splitFinalPeriod(tokens) {
				got = append(got, tok.Text)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitFinalPeriod(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
