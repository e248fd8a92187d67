package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"membership-backend/internal/domain"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

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

// decodeJSON reads a JSON body into dst. An empty body is allowed when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return domain.Validation("request body is not valid JSON")
	}
	return nil
}

// validateStruct runs the validate tags on s and reports the first failing field.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.Validation("invalid request")
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.Validation(fmt.Sprintf("%s is required", field))
	case "email":
		return domain.Validation(fmt.Sprintf("%s must be a valid email address", field))
	case "max":
		return domain.Validation(fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	case "min":
		return domain.Validation(fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
	case "datetime":
		return domain.Validation(fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field))
	default:
		return domain.Validation(fmt.Sprintf("%s is invalid", field))
	}
}
