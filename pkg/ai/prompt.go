package ai

import (
	"fmt"
	"strings"
	"unicode"
)

const systemPrompt = "You are an assistant that writes accurate, well-structured meeting minutes from raw transcripts."

const minutesTemplate = `# %[1]s

## Meeting Basic Information

- [Time], [Chairperson] chaired the %[1]s meeting at [Location]. The main content of the meeting was: [Main meeting content]. [Participants] attended the meeting.

## Meeting Minutes

### I. [First Main Point Title]

- [Detailed content of each point]

### II. [Second Main Point Title]

- [Detailed content of each point]

### III. [Third Main Point Title]

- [Detailed content of each point]

## Decisions

- [Each decision reached]

## Action Items

- [Owner] - [Task] - [Due date]

## Participants

- [Name]
`

// BuildSummaryPrompt renders the meeting-minutes prompt for a transcript
func BuildSummaryPrompt(transcript, meetingTitle, language string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate professional meeting minutes from the following transcription, strictly following the template below.\n\n")
	fmt.Fprintf(&b, "Meeting Title: %s\n\n", meetingTitle)
	fmt.Fprintf(&b, "Transcription Content:\n%s\n\n", transcript)
	fmt.Fprintf(&b, "Template:\n\n")
	fmt.Fprintf(&b, minutesTemplate, meetingTitle)
	b.WriteString(`
Requirements:
1. Keep the template structure complete.
2. Use 3-5 main points depending on the content, each with 1-5 sub-points.
3. Mark missing information as "[To be confirmed]" instead of inventing it.
4. Stay accurate and objective, in a formal meeting-minutes style.
`)
	fmt.Fprintf(&b, "5. %s\n", languageInstruction(transcript, language))
	return b.String()
}

func languageInstruction(transcript, language string) string {
	switch {
	case language == "zh" || (language == "auto" && hasHan(transcript)):
		return "Write the minutes in Chinese."
	case language != "" && language != "auto":
		return fmt.Sprintf("Write the minutes in the language with ISO code %q.", language)
	default:
		return "Write the minutes in the same language as the transcription."
	}
}

// hasHan samples the start of the transcript for Chinese characters
func hasHan(text string) bool {
	for i, r := range text {
		if i > 400 {
			break
		}
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
