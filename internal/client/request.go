package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"kb-admin-client/internal/schema"
)

const maxErrorBody = 1 << 20

// ErrInvalidArgument is returned before any request is made when call
// arguments are out of range.
var ErrInvalidArgument = errors.New("invalid argument")

// HTTPError is a non-2xx response from the backend.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// BuildURLParams turns optional query parameters into url.Values. Nil values
// and nil pointers are omitted; pointers are dereferenced; numbers, strings
// and booleans are stringified; slices repeat the key.
func BuildURLParams(params map[string]any) url.Values {
	values := url.Values{}
	for key, value := range params {
		for _, s := range paramStrings(reflect.ValueOf(value)) {
			values.Add(key, s)
		}
	}
	return values
}

func paramStrings(v reflect.Value) []string {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}

	if s, ok := v.Interface().(fmt.Stringer); ok {
		return []string{s.String()}
	}

	switch v.Kind() {
	case reflect.String:
		return []string{v.String()}
	case reflect.Bool:
		return []string{strconv.FormatBool(v.Bool())}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return []string{strconv.FormatInt(v.Int(), 10)}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return []string{strconv.FormatUint(v.Uint(), 10)}
	case reflect.Float32, reflect.Float64:
		return []string{strconv.FormatFloat(v.Float(), 'f', -1, 64)}
	case reflect.Slice, reflect.Array:
		var out []string
		for i := 0; i < v.Len(); i++ {
			out = append(out, paramStrings(v.Index(i))...)
		}
		return out
	default:
		return []string{fmt.Sprint(v.Interface())}
	}
}

// HandleResponse returns a function that turns a raw response into a
// validated value. Non-2xx statuses become *HTTPError; bodies that do not
// match s become *schema.ValidationError. The body is always closed.
func HandleResponse[T any](s schema.Schema[T]) func(*http.Response) (T, error) {
	return func(resp *http.Response) (T, error) {
		var zero T
		defer resp.Body.Close()

		if err := statusError(resp); err != nil {
			return zero, err
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return zero, fmt.Errorf("failed to read response body: %w", err)
		}
		return schema.Validate(s, data)
	}
}

// HandleErrors checks the status of a response whose body is not needed.
func HandleErrors(resp *http.Response) error {
	defer resp.Body.Close()
	if err := statusError(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return nil
}

func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := errorMessage(body)
	if message == "" {
		message = genericMessage(resp.StatusCode)
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: message}
}

func genericMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("%d %s", status, text)
	}
	return strconv.Itoa(status)
}

// errorMessage extracts a server-provided message from the common error
// shapes: {"detail": "..."}, {"detail": [{"msg": "..."}]}, {"message": "..."}
// and {"error": {"message": "..."}}.
func errorMessage(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil && detail != "" {
			return detail
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if payload.Message != "" {
		return payload.Message
	}
	if len(payload.Error) > 0 {
		var s string
		if err := json.Unmarshal(payload.Error, &s); err == nil && s != "" {
			return s
		}
		var detail struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(payload.Error, &detail); err == nil && detail.Message != "" {
			return detail.Message
		}
	}
	return ""
}
