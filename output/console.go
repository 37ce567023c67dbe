package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrsingh-rishi/voice-notes/model"
)

var (
	colorCyan   = lipgloss.Color("#00FFFF")
	colorYellow = lipgloss.Color("#FFFF00")
	colorGray   = lipgloss.Color("#666666")
	colorGreen  = lipgloss.Color("#00FF00")
)

// Console echoes each processed utterance in human-readable form. It is not
// part of the persisted log.
type Console struct {
	w          io.Writer
	transcript lipgloss.Style
	header     lipgloss.Style
	label      lipgloss.Style
	keyword    lipgloss.Style
	status     lipgloss.Style
}

func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:          w,
		transcript: r.NewStyle().Bold(true),
		header:     r.NewStyle().Bold(true).Foreground(colorCyan),
		label:      r.NewStyle().Foreground(colorYellow),
		keyword:    r.NewStyle().Foreground(colorGreen),
		status:     r.NewStyle().Foreground(colorGray),
	}
}

// Ready announces that calibration finished.
func (c *Console) Ready() {
	fmt.Fprintln(c.w, c.status.Render("Start speaking..."))
}

// Utterance prints the transcript followed by its annotations.
func (c *Console) Utterance(a model.Annotations, keywordLimit int) {
	fmt.Fprintln(c.w, c.transcript.Render(a.Transcript.Text))

	fmt.Fprintln(c.w, c.header.Render("Summary:"))
	fmt.Fprintln(c.w, a.Summary)

	fmt.Fprintln(c.w, c.header.Render("Speaker labels:"))
	for i, group := range a.Speakers.Groups {
		for _, sentence := range group.Sentences {
			fmt.Fprintf(c.w, "%s %s\n", c.label.Render(fmt.Sprintf("Speaker %d:", i+1)), sentence.Text)
		}
	}

	fmt.Fprintln(c.w, c.header.Render(fmt.Sprintf("Top %d keywords:", keywordLimit)))
	for _, kw := range a.Keywords {
		fmt.Fprintln(c.w, c.keyword.Render(kw))
	}
}
