package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/redactyl/dlpagent/internal/rules"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that every required key is present and every value is in
// range, and that all rule patterns compile. A missing key is reported as
// ErrMissingKey naming the key; anything else as ErrInvalid.
func (fc FileConfig) Validate() error {
	if err := validate.Struct(fc); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		var errs []error
		for _, fe := range verrs {
			key := keyPath(fe.Namespace())
			if fe.Tag() == "required" {
				errs = append(errs, fmt.Errorf("%w: %s", ErrMissingKey, key))
				continue
			}
			errs = append(errs, fmt.Errorf("%w: %s fails %q", ErrInvalid, key, fe.Tag()))
		}
		return errors.Join(errs...)
	}
	if err := rules.Validate(fc.CustomSearches); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// keyPath strips the struct name from a validator namespace.
func keyPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
