package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// RecordKind identifies the four line types of the output log.
type RecordKind int

const (
	KindTranscription RecordKind = iota
	KindKeywords
	KindSummary
	KindSpeakers
)

func (k RecordKind) String() string {
	switch k {
	case KindTranscription:
		return "transcription"
	case KindKeywords:
		return "keywords"
	case KindSummary:
		return "summary"
	case KindSpeakers:
		return "speakers"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	TranscriptionTag = "Transcription:"
	SummaryTag       = "Summary:"
	SpeakersTag      = "Speakers:"
)

// KeywordsTag returns the tag of a keyword record for the given limit.
func KeywordsTag(limit int) string {
	return fmt.Sprintf("Top %d Keywords:", limit)
}

var keywordsTagRe = regexp.MustCompile(`^Top \d+ Keywords:`)

// Record is one logical line of the append-only output log.
type Record struct {
	Kind    RecordKind `json:"-"`
	Tag     string     `json:"tag"`
	Payload string     `json:"payload"`
}

// TranscriptionRecord wraps transcribed text.
func TranscriptionRecord(text string) Record {
	return Record{Kind: KindTranscription, Tag: TranscriptionTag, Payload: text}
}

// KeywordsRecord joins keywords with ", ".
func KeywordsRecord(limit int, keywords []string) Record {
	return Record{Kind: KindKeywords, Tag: KeywordsTag(limit), Payload: strings.Join(keywords, ", ")}
}

// SummaryRecord wraps a summary.
func SummaryRecord(summary string) Record {
	return Record{Kind: KindSummary, Tag: SummaryTag, Payload: summary}
}

// SpeakersRecord joins speaker labels with ", ".
func SpeakersRecord(labels []string) Record {
	return Record{Kind: KindSpeakers, Tag: SpeakersTag, Payload: strings.Join(labels, ", ")}
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Line renders the record as a single log line without the trailing newline.
// Line breaks inside the payload are replaced by spaces.
func (r Record) Line() string {
	return r.Tag + " " + lineBreaks.Replace(r.Payload)
}

// ParseRecord decodes one log line.
func ParseRecord(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	var rec Record
	switch {
	case strings.HasPrefix(line, TranscriptionTag):
		rec = Record{Kind: KindTranscription, Tag: TranscriptionTag}
	case strings.HasPrefix(line, SummaryTag):
		rec = Record{Kind: KindSummary, Tag: SummaryTag}
	case strings.HasPrefix(line, SpeakersTag):
		rec = Record{Kind: KindSpeakers, Tag: SpeakersTag}
	default:
		tag := keywordsTagRe.FindString(line)
		if tag == "" {
			return Record{}, errors.Errorf("unknown record tag in line %q", line)
		}
		rec = Record{Kind: KindKeywords, Tag: tag}
	}
	rec.Payload = strings.TrimPrefix(strings.TrimPrefix(line, rec.Tag), " ")
	return rec, nil
}
