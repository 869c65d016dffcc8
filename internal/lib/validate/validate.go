package validate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	once     sync.Once
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
	})
	return instance
}

// Struct validates a request DTO and flattens validator errors into one
// readable message.
func Struct(s interface{}) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	parts := make([]string, 0, len(vErrs))
	for _, fe := range vErrs {
		parts = append(parts, fmt.Sprintf("%s: failed on '%s'", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}

// Var validates a single value against a tag list.
func Var(v interface{}, tag string) error {
	return get().Var(v, tag)
}
