package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "autobill/internal/errors"
	"autobill/pkg/contracts/domain"
)

// Validator validates request bodies using struct tags
type Validator struct {
	validator *validator.Validate
}

// NewValidator creates a validator that reports fields by their JSON names
// and knows the "sourcekind" tag.
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterValidation("sourcekind", isSourceKind)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validator: v}
}

// ValidateStruct validates a struct and returns validation errors
func (m *Validator) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fieldPath(fe),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

// DecodeAndValidate reads a JSON body into dst and validates it.
func (m *Validator) DecodeAndValidate(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apierrors.PayloadTooLarge(maxErr.Limit)
		case errors.Is(err, io.EOF):
			return apierrors.InvalidRequestWithError(errors.New("request body is empty"))
		default:
			return apierrors.InvalidRequestWithError(err)
		}
	}
	return m.ValidateStruct(dst)
}

// fieldPath drops the top-level struct name from the namespace so nested
// fields read like "selections[0].link".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, param)
	case "sourcekind":
		return fmt.Sprintf("%s must be GGSN or IX", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

func isSourceKind(fl validator.FieldLevel) bool {
	_, err := domain.ParseSourceKind(fl.Field().String())
	return err == nil
}
