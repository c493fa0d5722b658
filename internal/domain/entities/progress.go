package entities

// Band is the slice of overall task progress owned by one stage
type Band struct {
	Start int
	End   int
}

// Fixed weight bands. Transcription dominates wall-clock time.
var (
	TranscriptionBand = Band{Start: 0, End: 75}
	SummaryBand       = Band{Start: 75, End: 100}
)

// Map translates a stage-local percentage into overall task progress.
func (b Band) Map(local int) int {
	if local < 0 {
		local = 0
	}
	if local > 100 {
		local = 100
	}
	return b.Start + (b.End-b.Start)*local/100
}

// Display steps shown by polling clients.
const (
	StepUploaded     = 0
	StepTranscribing = 1
	StepSummarizing  = 2
	StepDone         = 3
)

// DisplayStep derives the client-facing step index from the authoritative
// task fields only.
func DisplayStep(status TaskStatus, stage Stage, progress int) int {
	switch status {
	case TaskStatusCompleted:
		return StepDone
	case TaskStatusPending:
		return StepUploaded
	case TaskStatusProcessing:
		switch stage {
		case StageTranscribing:
			return StepTranscribing
		case StageSummarizing:
			return StepSummarizing
		case StageFinalizing:
			return StepDone
		}
		if progress >= SummaryBand.Start {
			return StepSummarizing
		}
		if progress > 0 {
			return StepTranscribing
		}
	}
	return StepUploaded
}
