// Form-to-struct mapping.
//
// gin's binding package performs this mapping from an *http.Request, but the
// pipeline validates query strings and router-supplied path-parameter maps
// through the same Source abstraction, so a small reflection mapper keyed by
// the `form` tag is used instead. Scalar kinds, pointers to scalars, and
// string slices cover every DTO in this codebase.
package validate

import (
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/prepnest/go-exam-backend/internal/apperr"
)

// mapForm populates the struct pointed to by dst from values, matching
// fields by `form` tag (falling back to the lower-cased field name). Fields
// absent from values keep their zero value; rule enforcement (required, min,
// ...) is the validator engine's job, not the mapper's.
//
// A value that cannot be coerced to the field's kind (e.g. "abc" for an int)
// is reported as a FieldError so it surfaces to the client like any other
// validation failure.
func mapForm(dst any, values url.Values) *apperr.FieldError {
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := strings.SplitN(sf.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(sf.Name)
		}
		raw, ok := values[name]
		if !ok || len(raw) == 0 {
			continue
		}

		field := rv.Field(i)
		if field.Kind() == reflect.Pointer {
			field.Set(reflect.New(field.Type().Elem()))
			field = field.Elem()
		}
		if err := setScalar(field, name, raw); err != nil {
			return err
		}
	}
	return nil
}

// setScalar assigns raw form values to a single field, coercing by kind.
func setScalar(field reflect.Value, name string, raw []string) *apperr.FieldError {
	val := raw[0]
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return &apperr.FieldError{Field: name, Message: "must be an integer", Code: "integer"}
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return &apperr.FieldError{Field: name, Message: "must be a non-negative integer", Code: "integer"}
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return &apperr.FieldError{Field: name, Message: "must be a number", Code: "number"}
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return &apperr.FieldError{Field: name, Message: "must be a boolean", Code: "boolean"}
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return &apperr.FieldError{Field: name, Message: "unsupported parameter type", Code: "type"}
		}
		field.Set(reflect.ValueOf(raw))
	default:
		return &apperr.FieldError{Field: name, Message: "unsupported parameter type", Code: "type"}
	}
	return nil
}
