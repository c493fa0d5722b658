package entities

import (
	"path/filepath"
	"strings"
	"time"
)

// FileInfo describes a blob held by the blob store
type FileInfo struct {
	FileID       string    `json:"file_id"`
	OriginalName string    `json:"original_filename"`
	FileSize     int64     `json:"file_size"`
	Duration     float64   `json:"duration"`
	ContentType  string    `json:"content_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// BlobMeta is the caller-supplied metadata stored with a blob
type BlobMeta struct {
	OriginalName string
	ContentType  string
	Duration     float64
}

var audioContentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"flac": "audio/flac",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"ogg":  "audio/ogg",
	"wma":  "audio/x-ms-wma",
}

// FileExtension returns the lower-cased extension of name without the dot.
func FileExtension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// AudioContentType guesses the MIME type of an uploaded audio file from its name.
func AudioContentType(name string) string {
	if ct, ok := audioContentTypes[FileExtension(name)]; ok {
		return ct
	}
	return "audio/unknown"
}
