// httputil/json.go
package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"go.uber.org/zap"
)

// Envelope is the JSON shape shared by every contactd response:
// a success flag, a human-readable message and optional debug detail.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Debug   any    `json:"debug,omitempty"`
}

// ErrEmptyBody is returned by BindJSON when the request carries no body.
var ErrEmptyBody = errors.New("request body is empty")

// jsonLogger reports encoding errors; nil until SetJSONLogger is called.
var jsonLogger *zap.Logger

// SetJSONLogger configures the logger used for JSON encoding errors.
// Call it once during startup.
func SetJSONLogger(logger *zap.Logger) {
	jsonLogger = logger
}

// WriteJSON writes v as JSON with the given status code. Non-ASCII text is
// written as UTF-8 and HTML characters are not re-escaped, since message
// strings are already sanitized where needed.
//
// Invalid status codes (outside 100-599) are clamped to 500.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		reportEncodeError(v, err)
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"success":false,"message":"internal server error"}` + "\n")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func reportEncodeError(v any, err error) {
	if jsonLogger == nil {
		return
	}
	typeName := "nil"
	if v != nil {
		typeName = reflect.TypeOf(v).String()
	}
	jsonLogger.Error("json encoding failed", zap.String("type", typeName), zap.Error(err))
}

// Fail writes the failure envelope {success:false, message}.
func Fail(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: false, Message: message})
}

// FailDebug is Fail with debug detail attached.
func FailDebug(w http.ResponseWriter, status int, message string, debug any) {
	WriteJSON(w, status, Envelope{Success: false, Message: message, Debug: debug})
}

// BindJSON decodes the request body as a single JSON value into v.
// Unknown fields are permitted. The returned errors are meant for logs;
// clients get a fixed message from the caller.
func BindJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return ErrEmptyBody
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return parseJSONError(err)
	}
	if dec.More() {
		return errors.New("request body contains multiple JSON values")
	}
	return nil
}

// parseJSONError converts json decoding errors into readable messages.
func parseJSONError(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("invalid value for field %q: expected %s", typeErr.Field, typeErr.Type.String())
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errors.New("request body too large")
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.New("truncated JSON in request body")
	}

	return errors.New("invalid JSON in request body")
}
