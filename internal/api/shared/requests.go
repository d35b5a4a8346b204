package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskman-api/internal/domain"
)

// MaxBodyBytes caps the size of JSON request bodies.
const MaxBodyBytes = 1 << 20

// Global validator instance for reuse
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON names so messages match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeJSON decodes the request body into the given struct.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

// DecodeAllowed decodes a JSON object body into v, which must be a pointer
// to a struct. The struct's json tags are the allow-list: any other key
// fails with a validation error wrapping domain.ErrUnknownField and v is
// left untouched. Type mismatches, such as a string where a boolean is
// expected, fail with domain.ErrInvalidFormat.
func DecodeAllowed(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return domain.NewValidationError("", "Invalid request format", domain.ErrInvalidFormat)
	}
	if len(body) > MaxBodyBytes {
		return domain.NewValidationError("", "Request body too large", domain.ErrInvalidFormat)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return domain.NewValidationError("", "Invalid request format", domain.ErrInvalidFormat)
	}

	allowed := allowedFields(v)
	var unknown []string
	for key := range fields {
		if _, ok := allowed[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return domain.NewValidationError(
			"",
			fmt.Sprintf("Invalid updates: %s not allowed", strings.Join(unknown, ", ")),
			domain.ErrUnknownField,
		)
	}

	if err := json.Unmarshal(body, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.NewValidationError(
				typeErr.Field,
				"must be of type "+typeErr.Type.String(),
				domain.ErrInvalidFormat,
			)
		}
		return domain.NewValidationError("", "Invalid request format", domain.ErrInvalidFormat)
	}
	return nil
}

// allowedFields collects the JSON names of the exported fields of the struct v points to.
func allowedFields(v any) map[string]struct{} {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	out := make(map[string]struct{})
	if t.Kind() != reflect.Struct {
		return out
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		out[name] = struct{}{}
	}
	return out
}

// ValidateRequest validates the given struct using the validator package.
// Failures come back as a *domain.ValidationError naming the first bad field.
func ValidateRequest(v any) error {
	// Check if the object implements the Validate interface
	if validator, ok := v.(interface{ Validate() error }); ok {
		return validator.Validate()
	}

	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewValidationError(fe.Field(), validationTagMessage(fe.Tag()), domain.ErrValidation)
	}
	return domain.NewValidationError("", "Validation error", domain.ErrValidation)
}

// validationTagMessage maps validation tags to user-friendly error messages
func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "email":
		return "is invalid"
	case "min":
		return "is too short"
	case "max":
		return "is too long"
	case "gte":
		return "must be a positive number"
	case "oneof":
		return "has an invalid value"
	default:
		return "is invalid"
	}
}
