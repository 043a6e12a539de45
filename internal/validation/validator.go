// Package validation provides request validation using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rutapp/rut-server/internal/domain"
	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/normalize"
)

var (
	unameRe  = regexp.MustCompile(`^[\w-]{3,42}$`)
	webURLRe = regexp.MustCompile(`^(https?)://([^/:]+)(:[0-9]+)?(/.*)?$`)
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the custom curation rules registered:
//
//	uname    user handle, 3..42 word chars or dashes
//	weburl   http(s) url with a host
//	tagname  non-empty after normalization, at most 64 chars
//	starflag todo, doing or done
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "uname", func(fl validator.FieldLevel) bool {
		return ValidUName(fl.Field().String())
	})
	mustRegister(v, "weburl", func(fl validator.FieldLevel) bool {
		return ValidWebURL(fl.Field().String())
	})
	mustRegister(v, "tagname", func(fl validator.FieldLevel) bool {
		return ValidTagName(fl.Field().String())
	})
	mustRegister(v, "starflag", func(fl validator.FieldLevel) bool {
		return domain.StarFlag(fl.Field().String()).Valid()
	})

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// ValidUName reports whether s is an acceptable user handle.
func ValidUName(s string) bool {
	return unameRe.MatchString(s)
}

// ValidWebURL reports whether s is an http or https URL with a host.
func ValidWebURL(s string) bool {
	return webURLRe.MatchString(s)
}

// ValidTagName reports whether s normalizes to a usable tag name.
func ValidTagName(s string) bool {
	n := normalize.TagName(s)
	return n != "" && len([]rune(n)) <= domain.MaxTagNameLen
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Var validates a single value against a tag expression.
func (v *Validator) Var(field string, value any, tag string) error {
	if err := v.v.Var(value, tag); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			msg := v.friendlyMessage(validationErrs[0])
			return domainerrors.ValidationWithDetails(field+" "+msg, map[string]string{field: msg})
		}
		return err
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	fields := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = v.friendlyMessage(e)
		fields = append(fields, e.Field())
	}
	slices.Sort(fields)

	return domainerrors.ValidationWithDetails("invalid "+strings.Join(fields, ", "), fieldErrors)
}

//nolint:gocyclo // Switch statement covering validation tags is intentionally exhaustive.
func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", e.Param())
	case "url", "weburl":
		return "must be a valid http(s) URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "uname":
		return "must be 3 to 42 letters, digits, underscores or dashes"
	case "tagname":
		return fmt.Sprintf("must be 1 to %d characters", domain.MaxTagNameLen)
	case "starflag":
		return "must be one of: todo doing done"
	case "eqfield":
		return "must match " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	default:
		return "is invalid"
	}
}
