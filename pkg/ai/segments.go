package ai

import (
	"strings"
	"unicode/utf8"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
)

// Word is one recognized word with its time range in seconds
type Word struct {
	Text  string
	Start float64
	End   float64
}

const (
	maxSegmentSeconds = 30.0
	maxPauseSeconds   = 1.5
)

// SegmentWords groups words into sentence-like segments. A segment closes at
// sentence punctuation, at a long pause, or when it grows past
// maxSegmentSeconds. Segments never overlap and always have start < end.
func SegmentWords(words []Word) []entities.Segment {
	segments := make([]entities.Segment, 0)
	var (
		b     strings.Builder
		start float64
		end   float64
		open  bool
	)

	flush := func() {
		text := strings.TrimSpace(b.String())
		if open && text != "" && end > start {
			segments = append(segments, entities.Segment{Start: start, End: end, Text: text})
		}
		b.Reset()
		open = false
	}

	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		if open && (w.Start-end > maxPauseSeconds || w.End-start > maxSegmentSeconds) {
			flush()
		}
		if !open {
			start = w.Start
			if n := len(segments); n > 0 && start < segments[n-1].End {
				start = segments[n-1].End
			}
			end = w.End
			open = true
		} else {
			b.WriteByte(' ')
			if w.End > end {
				end = w.End
			}
		}
		b.WriteString(text)
		if endsSentence(text) {
			flush()
		}
	}
	flush()
	return segments
}

func endsSentence(word string) bool {
	r, _ := utf8.DecodeLastRuneInString(word)
	switch r {
	case '.', '?', '!', '。', '？', '！':
		return true
	}
	return false
}
