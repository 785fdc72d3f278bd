// Package cursor implements the opaque pagination token shared by every list
// endpoint.
//
// A token is the unpadded URL-safe base64 encoding of a JSON object holding
// the sort key of the last item returned. Tokens are only meaningful together
// with the filter parameters that produced them. Malformed tokens decode to
// nil so that a bad cursor restarts the listing instead of failing it.
package cursor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"time"
)

const (
	FieldCreatedAt = "created_at"
	FieldID        = "id"
)

// Fields is the decoded content of a cursor. Values are JSON primitives:
// string, bool, int64, float64 or nil.
//
// Numbers lose their Go type on the wire: any integral value (an int, an
// int64 or a whole float such as 1.0) decodes as int64, everything else as
// float64. Encode/Decode round-trips exactly only for fields already in
// that normal form.
type Fields map[string]any

var encoding = base64.RawURLEncoding

// Encode serialises fields into a token.
func Encode(fields Fields) string {
	raw, err := json.Marshal(fields)
	if err != nil {
		// Only non-primitive values can fail here; they are not valid Fields.
		return ""
	}
	return encoding.EncodeToString(raw)
}

// Decode returns nil for an empty or undecodable token. It never panics.
func Decode(token string) Fields {
	if token == "" {
		return nil
	}
	raw, err := encoding.DecodeString(token)
	if err != nil {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil
	}
	if dec.More() {
		return nil
	}

	out := make(Fields, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case json.Number:
			if i, err := val.Int64(); err == nil {
				out[k] = i
			} else if f, err := val.Float64(); err == nil {
				out[k] = f
			} else {
				return nil
			}
		case string, bool, nil:
			out[k] = val
		default:
			// nested objects and arrays are not cursor material
			return nil
		}
	}
	return out
}

// DecodePtr is Decode for optional request parameters.
func DecodePtr(token *string) Fields {
	if token == nil {
		return nil
	}
	return Decode(*token)
}

// String returns the string value stored under key.
func (f Fields) String(key string) (string, bool) {
	v, ok := f[key].(string)
	return v, ok
}

// Time parses an RFC 3339 timestamp stored under key.
func (f Fields) Time(key string) (time.Time, bool) {
	s, ok := f.String(key)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Position is the (created_at desc, id desc) seek key used by every list.
type Position struct {
	CreatedAt time.Time
	ID        string
}

// Fields converts p into cursor fields.
func (p Position) Fields() Fields {
	f := Fields{FieldCreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano)}
	if p.ID != "" {
		f[FieldID] = p.ID
	}
	return f
}

// PositionFrom extracts a Position; a missing or malformed created_at yields nil.
func PositionFrom(f Fields) *Position {
	if f == nil {
		return nil
	}
	t, ok := f.Time(FieldCreatedAt)
	if !ok {
		return nil
	}
	id, _ := f.String(FieldID)
	return &Position{CreatedAt: t, ID: id}
}

// DecodePosition is Decode followed by PositionFrom.
func DecodePosition(token string) *Position {
	return PositionFrom(Decode(token))
}

// NormalizeLimit clamps requested into [1, max]; non-positive values fall
// back to def.
func NormalizeLimit(requested, def, max int) int {
	if max < 1 {
		max = 1
	}
	if def < 1 {
		def = 1
	}
	if def > max {
		def = max
	}
	if requested <= 0 {
		return def
	}
	if requested > max {
		return max
	}
	return requested
}

// Page is one slice of a list result.
type Page[T any] struct {
	Items      []T     `json:"items"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

// Paginate trims items fetched with a limit+1 query down to limit and
// derives the resume cursor from the last item kept.
func Paginate[T any](items []T, limit int, cursorOf func(T) Fields) Page[T] {
	if limit < 1 {
		limit = 1
	}
	if len(items) <= limit {
		out := items
		if out == nil {
			out = []T{}
		}
		return Page[T]{Items: out}
	}

	trimmed := items[:limit]
	next := Encode(cursorOf(trimmed[limit-1]))
	return Page[T]{Items: trimmed, HasMore: true, NextCursor: &next}
}

// Map converts the items of a page, keeping its cursor state.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.Items))
	for i, it := range p.Items {
		out[i] = fn(it)
	}
	return Page[U]{Items: out, HasMore: p.HasMore, NextCursor: p.NextCursor}
}
