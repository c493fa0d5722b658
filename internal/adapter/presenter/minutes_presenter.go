package presenter

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	taskuse "github.com/johnquangdev/meetmemo/internal/usecase/task"
)

// Minutes formats
const (
	MinutesMarkdown = "md"
	MinutesText     = "txt"
)

// MinutesContentType returns the MIME type of a minutes format
func MinutesContentType(format string) string {
	if format == MinutesText {
		return "text/plain; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// RenderMinutes renders meeting minutes of a completed task. The free-form
// summary wins over the structured fields; the timestamped transcript follows.
func RenderMinutes(format string, t *entities.Task, r *taskuse.ResultView) ([]byte, error) {
	if format == "" {
		format = MinutesMarkdown
	}
	if format != MinutesMarkdown && format != MinutesText {
		return nil, fmt.Errorf("%w: unknown minutes format %q", entities.ErrValidation, format)
	}
	md := format == MinutesMarkdown

	var b strings.Builder
	heading := func(level int, text string) {
		if md {
			fmt.Fprintf(&b, "%s %s\n\n", strings.Repeat("#", level), text)
			return
		}
		fmt.Fprintf(&b, "%s\n%s\n\n", text, strings.Repeat("=", len([]rune(text))))
	}
	list := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		heading(3, title)
		for i, item := range items {
			if md {
				fmt.Fprintf(&b, "- %s\n", item)
			} else {
				fmt.Fprintf(&b, "%d. %s\n", i+1, item)
			}
		}
		b.WriteString("\n")
	}

	title := t.Settings().MeetingTitle
	if r.Summary != nil && r.Summary.MeetingTitle != "" {
		title = r.Summary.MeetingTitle
	}
	heading(1, title)

	if r.FileInfo != nil {
		fmt.Fprintf(&b, "File: %s\n", r.FileInfo.OriginalName)
	}
	if r.Transcription != nil {
		fmt.Fprintf(&b, "Duration: %s\n", clock(r.Transcription.Duration))
		fmt.Fprintf(&b, "Language: %s\n", r.Transcription.Language)
	}
	fmt.Fprintf(&b, "Completed: %s\n\n", r.ProcessingCompletedAt.Format("2006-01-02 15:04:05 MST"))

	heading(2, "Summary")
	s := r.Summary
	switch s.Representation() {
	case entities.SummaryFreeForm:
		b.WriteString(strings.TrimSpace(s.Summary))
		b.WriteString("\n\n")
	case entities.SummaryStructured:
		list("Main points", s.MainPoints)
		list("Decisions", s.Decisions)
		list("Action items", s.ActionItems)
		list("Participants", s.Participants)
	default:
		b.WriteString("No summary available.\n\n")
	}

	if r.Transcription != nil {
		heading(2, "Transcript")
		if len(r.Transcription.Segments) == 0 {
			b.WriteString(r.Transcription.Text)
			b.WriteString("\n")
		}
		for _, seg := range r.Transcription.Segments {
			fmt.Fprintf(&b, "[%s - %s] %s\n", clock(seg.Start), clock(seg.End), seg.Text)
			if md {
				b.WriteString("\n")
			}
		}
	}
	return []byte(b.String()), nil
}

// clock formats seconds as mm:ss, or hh:mm:ss past an hour
func clock(seconds float64) string {
	total := int(seconds)
	h, m, s := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
