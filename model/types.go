package model

import "time"

// AudioChunk is raw mono 16-bit little-endian PCM.
type AudioChunk []byte

// Utterance is one endpointed audio segment captured from a source.
type Utterance struct {
	ID         string
	Audio      AudioChunk
	SampleRate int
	CapturedAt time.Time
}

// Duration returns the playback length of the utterance audio.
func (u Utterance) Duration() time.Duration {
	if u.SampleRate <= 0 {
		return 0
	}
	samples := len(u.Audio) / 2
	return time.Duration(samples) * time.Second / time.Duration(u.SampleRate)
}

// Transcript is the text produced by a transcription service for one utterance.
type Transcript struct {
	Text     string
	Language string
}

// Tag is a coarse part-of-speech tag.
type Tag string

const (
	TagNoun  Tag = "NOUN"
	TagPropN Tag = "PROPN"
	TagPron  Tag = "PRON"
	TagVerb  Tag = "VERB"
	TagAdj   Tag = "ADJ"
	TagAdv   Tag = "ADV"
	TagDet   Tag = "DET"
	TagAdp   Tag = "ADP"
	TagNum   Tag = "NUM"
	TagConj  Tag = "CCONJ"
	TagPart  Tag = "PART"
	TagIntj  Tag = "INTJ"
	TagPunct Tag = "PUNCT"
	TagSym   Tag = "SYM"
	TagOther Tag = "X"
)

// Token is a single word or punctuation mark of a sentence.
// Start and End are byte offsets into the text that was segmented.
type Token struct {
	Text  string
	Lower string
	Tag   Tag
	// Possessive marks determiner-like pronouns ("my", "their").
	Possessive bool
	Start      int
	End        int
}

// Sentence is a substring of a transcript with its ordered tokens.
// Start is the byte offset of Text in the segmented text.
type Sentence struct {
	Text   string
	Start  int
	Tokens []Token
}

// Chunk is a noun phrase found inside a sentence.
type Chunk struct {
	Text   string
	Tokens []Token
}

// HasPronoun reports whether any token of the chunk is a pronoun.
func (c Chunk) HasPronoun() bool {
	for _, tok := range c.Tokens {
		if tok.Tag == TagPron {
			return true
		}
	}
	return false
}

// FallbackSpeaker labels the single implicit speaker.
const FallbackSpeaker = "Speaker"

// SpeakerGroup maps a speaker label to the sentences attributed to it.
type SpeakerGroup struct {
	Label     string
	Sentences []Sentence
}

// AttributionKind distinguishes the two outcomes of speaker attribution.
type AttributionKind int

const (
	// NoMarkerFound means every sentence belongs to the implicit speaker.
	NoMarkerFound AttributionKind = iota
	// MarkerFound means at least one sentence carried a speaker marker.
	MarkerFound
)

func (k AttributionKind) String() string {
	if k == MarkerFound {
		return "marker_found"
	}
	return "no_marker_found"
}

// Attribution is the result of text-heuristic speaker attribution.
// Groups are ordered by the first appearance of their label.
type Attribution struct {
	Kind   AttributionKind
	Groups []SpeakerGroup
	// Unattributed holds sentences without a marker when Kind is MarkerFound.
	// They do not appear in any group.
	Unattributed []Sentence
}

// Labels returns the speaker labels in first-seen order.
func (a Attribution) Labels() []string {
	labels := make([]string, 0, len(a.Groups))
	for _, g := range a.Groups {
		labels = append(labels, g.Label)
	}
	return labels
}

// Annotations bundles everything derived from one transcript.
type Annotations struct {
	UtteranceID string
	Transcript  Transcript
	Summary     string
	Speakers    Attribution
	Keywords    []string
}
