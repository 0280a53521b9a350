package settings

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/aashari/go-selection-relay/internal/errors"
	"github.com/aashari/go-selection-relay/internal/logger"
	"github.com/aashari/go-selection-relay/internal/store"
	"github.com/aashari/go-selection-relay/internal/utils"
)

var validate = newValidator()

// newValidator reports fields by their json name
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Form is what the settings editor shows and saves for one mode
type Form struct {
	Status        Status `json:"status" validate:"required,oneof=on off"`
	Mode          Mode   `json:"mode" validate:"required,oneof=mcq image"`
	URL           string `json:"url" validate:"omitempty,url"`
	APIKey        string `json:"apiKey"`
	CustomPrompt  string `json:"customPrompt"`
	DemoQuestions string `json:"demoQuestions"`
}

// View is a Form plus the per-mode placeholders shown when a field is empty.
// The API key is only ever shown masked.
type View struct {
	Form
	APIKeySet            bool   `json:"apiKeySet"`
	PromptPlaceholder    string `json:"promptPlaceholder"`
	QuestionsPlaceholder string `json:"questionsPlaceholder"`
	ShowDemoQuestions    bool   `json:"showDemoQuestions"`
}

// Editor reads and writes the configuration on behalf of the settings UI
type Editor struct {
	store store.Store
}

// NewEditor creates an Editor over st
func NewEditor(st store.Store) *Editor {
	return &Editor{store: st}
}

// Load returns the stored values for mode. An empty mode means the stored one.
func (e *Editor) Load(ctx context.Context, mode Mode) (View, error) {
	cfg, err := Load(ctx, e.store)
	if err != nil {
		return View{}, apperrors.NewStorageError(err.Error())
	}

	if mode == "" {
		mode = cfg.Mode
	}
	mode = mode.Resolve()

	return View{
		Form: Form{
			Status:        cfg.Status,
			Mode:          mode,
			URL:           cfg.URL,
			APIKey:        utils.MaskSecret(cfg.APIKey),
			CustomPrompt:  cfg.Prompts[mode],
			DemoQuestions: cfg.DemoQuestions[mode],
		},
		APIKeySet:            cfg.APIKey != "",
		PromptPlaceholder:    DefaultPrompt(mode),
		QuestionsPlaceholder: DefaultQuestions(mode),
		ShowDemoQuestions:    mode == ModeMCQ,
	}, nil
}

// Save validates the form and writes it with one Set. It returns the form as
// stored. An empty or masked API key leaves the stored key untouched.
func (e *Editor) Save(ctx context.Context, form Form) (Form, error) {
	form = form.trimmed()
	if err := validate.Struct(form); err != nil {
		return Form{}, formatValidationError(err)
	}

	values := map[string]string{
		KeyStatus:               string(form.Status),
		KeyURL:                  form.URL,
		KeyMode:                 string(form.Mode),
		PromptKey(form.Mode):    form.CustomPrompt,
		QuestionsKey(form.Mode): form.DemoQuestions,
	}
	if keepsStoredKey(form.APIKey) {
		form.APIKey = ""
	} else {
		values[KeyAPIKey] = form.APIKey
	}
	if err := e.store.Set(ctx, values); err != nil {
		return Form{}, apperrors.NewStorageError(fmt.Sprintf("failed to save settings: %v", err))
	}

	logger.InfoCtx(ctx, "Settings saved", "mode", string(form.Mode), "status", string(form.Status))
	return form, nil
}

// keepsStoredKey reports whether key is a placeholder rather than a new key
func keepsStoredKey(key string) bool {
	return key == "" || strings.Contains(key, utils.MaskMarker)
}

func (f Form) trimmed() Form {
	f.Status = Status(strings.TrimSpace(string(f.Status)))
	f.Mode = Mode(strings.TrimSpace(string(f.Mode)))
	f.URL = strings.TrimSpace(f.URL)
	f.APIKey = strings.TrimSpace(f.APIKey)
	f.CustomPrompt = strings.TrimSpace(f.CustomPrompt)
	f.DemoQuestions = strings.TrimSpace(f.DemoQuestions)
	return f
}

func formatValidationError(err error) *apperrors.APIError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return apperrors.NewValidationError(err.Error())
	}

	fe := validationErrors[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperrors.NewFieldError(field, fmt.Sprintf("Field '%s' is required", field))
	case "oneof":
		return apperrors.NewFieldError(field, fmt.Sprintf("Field '%s' must be one of [%s]", field, fe.Param()))
	case "url":
		return apperrors.NewFieldError(field, fmt.Sprintf("Field '%s' must be a valid URL", field))
	default:
		return apperrors.NewFieldError(field, fmt.Sprintf("Field '%s' failed '%s' validation", field, fe.Tag()))
	}
}
