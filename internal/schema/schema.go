// Package schema describes the wire shape of every backend payload and turns
// raw JSON into validated model values.
//
// Each payload has a private wire struct whose tags declare the shape: pointer
// fields tagged `validate:"required"` must be present and non-null, untagged
// pointers are optional, maps are passed through. A Schema decodes the JSON,
// validates the wire struct and converts it to the model type. Any mismatch
// is reported as a *ValidationError naming the offending field paths, and no
// partial value is returned.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Schema decodes and validates one wire payload.
type Schema[T any] func(data []byte) (T, error)

// Validate runs payload through s.
func Validate[T any](s Schema[T], payload []byte) (T, error) {
	return s(payload)
}

type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// ValidationError reports a payload that does not match its schema.
type ValidationError struct {
	Schema string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("invalid %s: %s", e.Schema, strings.Join(parts, "; "))
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func invalid(schemaName string, issues ...Issue) *ValidationError {
	return &ValidationError{Schema: schemaName, Issues: issues}
}

// decodeObject unmarshals data into a fresh W and validates its tags.
func decodeObject[W any](schemaName string, data []byte) (*W, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, invalid(schemaName, Issue{Message: "expected object, received " + describeJSON(trimmed)})
	}

	var w W
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, invalid(schemaName, decodeIssue(err))
	}
	if err := validate.Struct(&w); err != nil {
		return nil, invalid(schemaName, structIssues(err)...)
	}
	return &w, nil
}

// decodeArray splits data into its raw elements.
func decodeArray(schemaName string, data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, invalid(schemaName, Issue{Message: "expected array, received " + describeJSON(trimmed)})
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, invalid(schemaName, decodeIssue(err))
	}
	return elems, nil
}

// ArrayOf validates a JSON array whose elements match item.
func ArrayOf[T any](item Schema[T]) Schema[[]T] {
	return func(data []byte) ([]T, error) {
		elems, err := decodeArray("array", data)
		if err != nil {
			return nil, err
		}
		out := make([]T, 0, len(elems))
		var issues []Issue
		var name string
		for i, raw := range elems {
			v, err := item(raw)
			if err != nil {
				name, issues = collect(err, fmt.Sprintf("[%d]", i), name, issues)
				continue
			}
			out = append(out, v)
		}
		if len(issues) > 0 {
			return nil, invalid(name+" array", issues...)
		}
		return out, nil
	}
}

// collect appends the issues of err under prefix, keeping the first schema name seen.
func collect(err error, prefix, name string, issues []Issue) (string, []Issue) {
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		return name, append(issues, Issue{Path: prefix, Message: err.Error()})
	}
	if name == "" {
		name = vErr.Schema
	}
	for _, issue := range vErr.Issues {
		issues = append(issues, Issue{Path: joinPath(prefix, issue.Path), Message: issue.Message})
	}
	return name, issues
}

func decodeIssue(err error) Issue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return Issue{
			Path:    typeErr.Field,
			Message: fmt.Sprintf("expected %s, received %s", typeName(typeErr.Type), typeErr.Value),
		}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return Issue{Message: fmt.Sprintf("malformed JSON at offset %d: %s", syntaxErr.Offset, syntaxErr.Error())}
	}
	return Issue{Message: err.Error()}
}

func structIssues(err error) []Issue {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Issue{{Message: err.Error()}}
	}
	issues := make([]Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, Issue{Path: trimRoot(fe.Namespace()), Message: fieldMessage(fe)})
	}
	return issues
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], received %v", fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be > %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// trimRoot drops the wire struct name from a validator namespace.
func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ""
}

func joinPath(prefix, path string) string {
	switch {
	case prefix == "":
		return path
	case path == "":
		return prefix
	case path[0] == '[':
		return prefix + path
	default:
		return prefix + "." + path
	}
}

var timeType = reflect.TypeOf(time.Time{})

func typeName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	if t == timeType || t == reflect.TypeOf(Time{}) {
		return "datetime"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Pointer:
		return typeName(t.Elem())
	default:
		return t.String()
	}
}

func describeJSON(data []byte) string {
	if len(data) == 0 {
		return "nothing"
	}
	switch data[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

// isNull reports whether raw is absent or the JSON literal null.
func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
