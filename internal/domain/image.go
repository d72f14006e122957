package domain

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// labelSeparator joins the model name and aspect ratio in a tile label
const labelSeparator = " • "

// GeneratedImage represents a previously generated image kept in the history collection
type GeneratedImage struct {
	ID          string    `json:"id" validate:"required"`
	ImageURL    string    `json:"imageUrl" validate:"required,uri"`
	Prompt      string    `json:"prompt"`
	Model       string    `json:"model" validate:"required"`
	AspectRatio string    `json:"aspectRatio" validate:"required,aspect_ratio"`
	CreatedAt   time.Time `json:"createdAt" validate:"required"`
}

// ModelName returns the segment of the model identifier after the last path separator
func (img GeneratedImage) ModelName() string {
	if i := strings.LastIndex(img.Model, "/"); i >= 0 {
		return img.Model[i+1:]
	}
	return img.Model
}

// Label returns the display label combining the model name and the aspect ratio
func (img GeneratedImage) Label() string {
	return img.ModelName() + labelSeparator + img.AspectRatio
}

// Validate checks that the record carries everything the gallery needs to display it
func (img GeneratedImage) Validate() error {
	if err := validate().Struct(img); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return nil
}

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

func validate() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// aspect_ratio accepts labels of the form "W:H", e.g. "16:9"
		_ = v.RegisterValidation("aspect_ratio", func(fl validator.FieldLevel) bool {
			w, h, ok := strings.Cut(fl.Field().String(), ":")
			return ok && isDigits(w) && isDigits(h)
		})
		validatorInst = v
	})
	return validatorInst
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
