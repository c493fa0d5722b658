package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type uploadForm struct {
	Language     string `validate:"required,language"`
	WhisperModel string `validate:"required,whisper_model"`
}

func TestValidate(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		form  uploadForm
		valid bool
	}{
		{"auto detection", uploadForm{"auto", "base"}, true},
		{"iso code", uploadForm{"vi", "large"}, true},
		{"regional code", uploadForm{"pt-BR", "turbo"}, true},
		{"unknown model", uploadForm{"en", "huge"}, false},
		{"bad language", uploadForm{"English!", "base"}, false},
		{"missing language", uploadForm{"", "base"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.form)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
