// Package validation wraps go-playground/validator with a shared instance
// that reports fields by their json names.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single failed constraint.
type FieldError struct {
	Field string
	Tag   string
	Param string
	Value interface{}
}

// Error returns a human-readable message.
func (e FieldError) Error() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", e.Field, e.Param)
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", e.Field, e.Param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", e.Field, e.Param)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", e.Field, e.Param, e.Value)
	default:
		return fmt.Sprintf("%s failed %s validation", e.Field, e.Tag)
	}
}

// Errors is the set of constraints a struct failed.
type Errors []FieldError

// Error joins every field message.
func (es Errors) Error() string {
	if len(es) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Get returns the shared validator. Safe for concurrent use.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "toml"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	})
	return validate
}

// Struct validates s and returns Errors when any constraint fails.
// Other errors (for example a non-struct argument) are returned unchanged.
func Struct(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	out := make(Errors, 0, len(ve))
	for _, fe := range ve {
		out = append(out, FieldError{
			Field: fieldPath(fe.Namespace()),
			Tag:   fe.Tag(),
			Param: fe.Param(),
			Value: fe.Value(),
		})
	}
	return out
}

// fieldPath drops the root struct name from a namespace such as
// "Filters.archetypes[0]".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
