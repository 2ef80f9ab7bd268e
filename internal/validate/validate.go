// Package validate adapts the go-playground/validator engine (the same one
// gin's binding layer uses) into the request-validation capability consumed
// by the route pipeline: given a schema and an untyped payload, produce
// either a typed value or a validation error listing every field failure.
//
// Schemas are opaque to callers. They are built once per route at startup
// from a DTO type via JSON[T] (request bodies) or Form[T] (query strings and
// path parameters), and are immutable and safe for concurrent use.
//
// Validation rules are declared with `binding` struct tags, matching the tag
// vocabulary used across gin handlers, and field names in error details
// follow the DTO's `json`/`form` tags. The engine validates the entire
// payload in one pass; it never stops at the first failing field, so clients
// always receive a complete error summary.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/prepnest/go-exam-backend/internal/apperr"
)

// Source is the untyped payload handed to a schema: a raw JSON body and/or a
// string-keyed value map (query string or path parameters). Exactly one of
// the two is consulted depending on the schema constructor used.
type Source struct {
	// Body is the raw JSON request body. Consulted by JSON schemas.
	Body []byte
	// Form holds query-string or path-parameter values. Consulted by Form
	// schemas.
	Form url.Values
}

// Schema validates a Source and produces a typed value. Obtain instances
// from JSON[T] or Form[T]; the zero Schema is not usable.
type Schema struct {
	parse func(src Source) (any, error)
}

// Parse validates src against the schema. On success it returns a *T (where
// T is the type the schema was built from). On failure it returns a
// KindValidation AppError whose details list every failing field.
func (s *Schema) Parse(src Source) (any, error) {
	if s == nil || s.parse == nil {
		return nil, apperr.Internal(errors.New("validate: schema not initialized"))
	}
	return s.parse(src)
}

// engine is the process-wide validator instance. It is configured once to
// read rules from `binding` tags and to report field names from `json`/`form`
// tags, then shared by every schema.
var (
	engineOnce sync.Once
	engineInst *validator.Validate
)

func engine() *validator.Validate {
	engineOnce.Do(func() {
		v := validator.New()
		v.SetTagName("binding")
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form", "uri"} {
				if name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]; name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
		engineInst = v
	})
	return engineInst
}

// JSON builds a schema that decodes Source.Body as JSON into T and validates
// the result. Malformed JSON is reported as a single "body" field error so
// clients can distinguish syntax problems from rule violations.
func JSON[T any]() *Schema {
	return &Schema{parse: func(src Source) (any, error) {
		v := new(T)
		dec := json.NewDecoder(bytes.NewReader(src.Body))
		if err := dec.Decode(v); err != nil {
			return nil, apperr.Validation([]apperr.FieldError{{
				Field:   "body",
				Message: "must be valid JSON",
				Code:    "json",
			}})
		}
		if err := check(v); err != nil {
			return nil, err
		}
		return v, nil
	}}
}

// Form builds a schema that maps Source.Form values into T by `form` struct
// tag and validates the result. It is used for both query strings and path
// parameters (the router supplies each as a value map).
func Form[T any]() *Schema {
	return &Schema{parse: func(src Source) (any, error) {
		v := new(T)
		if ferr := mapForm(v, src.Form); ferr != nil {
			return nil, apperr.Validation([]apperr.FieldError{*ferr})
		}
		if err := check(v); err != nil {
			return nil, err
		}
		return v, nil
	}}
}

// check runs the engine over a decoded value, converting the engine's error
// type into the taxonomy. Unexpected engine failures (invalid schema types)
// surface as internal errors rather than validation ones.
func check(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperr.Validation(apperr.FieldErrorsFrom(verrs))
	}
	return apperr.Internal(err)
}
