package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pauljones0/contest-tracker/internal/models"
)

// ErrInvalidContest wraps every rejection so callers can match it with errors.Is.
var ErrInvalidContest = errors.New("invalid contest record")

// Validator checks contest records against their struct tags before they are persisted.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names, matching what API clients see.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Contest returns nil when c may be stored. Otherwise the error names each
// failing field with the rule it broke, e.g. "url (required), duration (ne)".
func (v *Validator) Contest(c models.ContestRecord) error {
	err := v.validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidContest, err)
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidContest, strings.Join(parts, ", "))
}
