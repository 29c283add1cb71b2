package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their json names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// decodeRequest decodes the JSON body into v, applies normalize and
// validates the result.
func (s *SocialApp) decodeRequest(r *http.Request, v any, normalize func()) *ApiError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return NewBadRequestError()
	}

	if normalize != nil {
		normalize()
	}

	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return NewValidationError(validationMessage(verrs))
		}
		return NewBadRequestError()
	}

	return nil
}

func validationMessage(verrs validator.ValidationErrors) string {
	return strings.Join(lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", fe.Field())
		case "email":
			return fmt.Sprintf("%s must be a valid email address", fe.Field())
		case "eqfield":
			return fmt.Sprintf("%s does not match", fe.Field())
		case "min", "max":
			return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
		default:
			return fmt.Sprintf("%s is invalid", fe.Field())
		}
	}), "; ")
}
