// internal/domain/errors.go
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrPostingNotFound is a sentinel error returned when a posting is not found.
var ErrPostingNotFound = errors.New("job posting not found")

// FieldErrors is a validation failure reported per field. It keeps the order
// in which the fields were reported so that First is stable.
type FieldErrors struct {
	Status int
	fields map[string]string
	order  []string
}

// NewFieldErrors returns an empty set for the given HTTP status.
func NewFieldErrors(status int) *FieldErrors {
	return &FieldErrors{Status: status, fields: make(map[string]string)}
}

// Add records msg for field. A field keeps its first position when re-added.
func (e *FieldErrors) Add(field, msg string) {
	if e.fields == nil {
		e.fields = make(map[string]string)
	}
	if _, ok := e.fields[field]; !ok {
		e.order = append(e.order, field)
	}
	e.fields[field] = msg
}

// Get returns the message for field, if any.
func (e *FieldErrors) Get(field string) (string, bool) {
	msg, ok := e.fields[field]
	return msg, ok
}

// Len is the number of fields with an error.
func (e *FieldErrors) Len() int {
	return len(e.order)
}

// Fields returns the reported field names in order.
func (e *FieldErrors) Fields() []string {
	return append([]string(nil), e.order...)
}

// Map returns a copy of the field to message mapping.
func (e *FieldErrors) Map() map[string]string {
	out := make(map[string]string, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

// First is the message of the first reported field.
func (e *FieldErrors) First() string {
	if len(e.order) == 0 {
		return ""
	}
	return e.fields[e.order[0]]
}

func (e *FieldErrors) Error() string {
	parts := make([]string, 0, len(e.order))
	for _, f := range e.order {
		parts = append(parts, f+": "+e.fields[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// MarshalJSON writes the flat field to message object, in order.
func (e *FieldErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range e.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.fields[f])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseFieldErrors decodes a flat JSON object of string values, keeping key
// order. It reports false for anything else, including an empty object.
func ParseFieldErrors(status int, body []byte) (*FieldErrors, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, false
	}
	fe := NewFieldErrors(status)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, _ := keyTok.(string)
		valTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		val, ok := valTok.(string)
		if !ok {
			return nil, false
		}
		fe.Add(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	if fe.Len() == 0 {
		return nil, false
	}
	return fe, true
}

// MessageError is a failure that carries a single human-readable message,
// either from the server or describing the HTTP status.
type MessageError struct {
	Status  int
	Message string
}

func (e *MessageError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// MessageOf returns the text to show a user for err: the bare message of a
// MessageError, the first field message of FieldErrors, else err.Error().
func MessageOf(err error) string {
	var me *MessageError
	if errors.As(err, &me) {
		return me.Message
	}
	var fe *FieldErrors
	if errors.As(err, &fe) {
		return fe.First()
	}
	return err.Error()
}
