package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps JSON field names to a list of validation error messages.
type FieldErrors map[string][]string

// ValidationError satisfies httpx.DomainProblem structurally (without
// importing httpx directly, avoiding cycles) so ToProblem can format it.
type ValidationError struct {
	summary string
	fields  FieldErrors
}

func (e *ValidationError) Error() string { return e.summary }

func (e *ValidationError) ProblemCode() string    { return "ErrValidation" }
func (e *ValidationError) ProblemStatus() int     { return 400 }
func (e *ValidationError) ProblemTitle() string   { return "Validation error" }
func (e *ValidationError) ProblemDetail() string  { return e.summary }
func (e *ValidationError) ProblemTypeURI() string { return "urn:problem:validation-error" }
func (e *ValidationError) ProblemContext() any    { return map[string]any{"fields": e.fields} }

// ValidateStruct validates a struct instance according to `validate` tags.
// On success it returns nil. On failure it returns a *ValidationError whose
// fields map uses JSON field names.
func ValidateStruct(v any) error {
	validate := validator.New()

	// Use JSON tag names instead of struct field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		jsonTag := fld.Tag.Get("json")
		name := strings.Split(jsonTag, ",")[0]
		if name == "" || name == "-" {
			return lowerFirst(fld.Name)
		}
		return name
	})

	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{summary: "validation failed", fields: FieldErrors{}}
	}

	fields := make(FieldErrors)
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], messageForTag(fe))
	}
	return &ValidationError{summary: summarize(fields), fields: fields}
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "eqfield":
		return fmt.Sprintf("must match %s", lowerFirst(fe.Param()))
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "numeric":
		return "must contain only digits"
	default:
		return "is invalid"
	}
}

func summarize(fields FieldErrors) string {
	firstField, firstMsg := first(fields)
	if firstField == "" {
		return "validation failed"
	}
	others := totalCount(fields) - 1
	if others > 0 {
		return fmt.Sprintf("%s %s, and %d other error%s", firstField, firstMsg, others, plural(others))
	}
	return fmt.Sprintf("%s %s", firstField, firstMsg)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = []rune(strings.ToLower(string(r[0])))[0]
	return string(r)
}

func first(m FieldErrors) (string, string) {
	for k, list := range m {
		if len(list) > 0 {
			return k, list[0]
		}
	}
	return "", ""
}

func totalCount(m FieldErrors) int {
	n := 0
	for _, list := range m {
		n += len(list)
	}
	return n
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
