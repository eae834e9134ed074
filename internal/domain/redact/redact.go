// Package redact removes reserved keys from JSON documents without
// re-encoding the fields it keeps: key order, number text and string
// escapes survive byte for byte.
package redact

import (
	"bytes"
	"errors"

	"github.com/tidwall/gjson"
)

var ErrInvalidJSON = errors.New("redact: invalid json")

// Deep drops every object member named key at any depth of doc.
func Deep(doc []byte, key string) ([]byte, error) {
	if !gjson.ValidBytes(doc) {
		return nil, ErrInvalidJSON
	}
	var buf bytes.Buffer
	walk(&buf, gjson.ParseBytes(doc), key)
	return buf.Bytes(), nil
}

// Field applies Deep only to the value of the top-level member field.
// Other members are copied unchanged. An empty field redacts the whole doc.
func Field(doc []byte, field, key string) ([]byte, error) {
	if field == "" {
		return Deep(doc, key)
	}
	if !gjson.ValidBytes(doc) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(doc)
	if !root.IsObject() {
		return append([]byte(nil), bytes.TrimSpace(doc)...), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	root.ForEach(func(k, v gjson.Result) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(k.Raw)
		buf.WriteByte(':')
		if k.Str == field {
			walk(&buf, v, key)
		} else {
			buf.WriteString(v.Raw)
		}
		return true
	})
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func walk(buf *bytes.Buffer, v gjson.Result, key string) {
	switch {
	case v.IsObject():
		buf.WriteByte('{')
		first := true
		v.ForEach(func(k, child gjson.Result) bool {
			if k.Str == key {
				return true
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			buf.WriteString(k.Raw)
			buf.WriteByte(':')
			walk(buf, child, key)
			return true
		})
		buf.WriteByte('}')
	case v.IsArray():
		buf.WriteByte('[')
		first := true
		v.ForEach(func(_, child gjson.Result) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			walk(buf, child, key)
			return true
		})
		buf.WriteByte(']')
	default:
		buf.WriteString(v.Raw)
	}
}
