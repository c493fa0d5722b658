package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
)

// ISO 639-1 code, optionally with a region ("en", "zh", "pt-BR")
var languageCode = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z]{2,4})?$`)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance with the upload form tags registered
func New() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("language", validateLanguage)
	_ = v.RegisterValidation("whisper_model", validateWhisperModel)
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// validateLanguage accepts "auto" or a language code
func validateLanguage(fl validator.FieldLevel) bool {
	lang := fl.Field().String()
	return lang == entities.LanguageAuto || languageCode.MatchString(lang)
}

func validateWhisperModel(fl validator.FieldLevel) bool {
	return entities.WhisperModel(fl.Field().String()).IsValid()
}
