package task

// UploadAudioRequest is the multipart form of an audio upload. The file part
// is read separately.
type UploadAudioRequest struct {
	MeetingTitle string `form:"meeting_title" validate:"max=255"`
	Language     string `form:"language" validate:"omitempty,language"`
	WhisperModel string `form:"whisper_model" validate:"omitempty,whisper_model"`
}

// ExportRequest selects the meeting minutes format
type ExportRequest struct {
	Format string `query:"format" validate:"omitempty,oneof=md txt"`
}
