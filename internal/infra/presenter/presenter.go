// Package presenter turns a terminal Outcome into the JSON document shown to
// the user.
package presenter

import (
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"interview-analysis/internal/domain/model"
)

var prettyOpts = &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: false}

// Document returns the compact display document for o. A success shows the
// (already redacted) payload as is. A failure shows
// {"error": <message>, "details": {...}}.
func Document(o model.Outcome) ([]byte, error) {
	if o.Succeeded() {
		if !gjson.ValidBytes(o.Payload) {
			return nil, fmt.Errorf("payload is not valid JSON")
		}
		return pretty.Ugly(o.Payload), nil
	}

	doc := []byte(`{}`)
	doc, err := sjson.SetBytes(doc, "error", o.Message)
	if err != nil {
		return nil, err
	}
	if len(o.Details) == 0 {
		return doc, nil
	}
	// fixed key order keeps output stable across runs
	keys := make([]string, 0, len(o.Details))
	for k := range o.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		doc, err = sjson.SetBytes(doc, "details."+escapePath(k), o.Details[k])
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Render returns Document indented by two spaces, optionally with ANSI colors.
func Render(o model.Outcome, color bool) ([]byte, error) {
	doc, err := Document(o)
	if err != nil {
		return nil, err
	}
	out := pretty.PrettyOptions(doc, prettyOpts)
	if color {
		out = pretty.Color(out, nil)
	}
	return out, nil
}

// escapePath escapes the sjson path metacharacters in a literal key.
func escapePath(k string) string {
	buf := make([]byte, 0, len(k))
	for i := 0; i < len(k); i++ {
		switch k[i] {
		case '.', '*', '?', '|', '#', '@', '\\', ':', '!', '=', '<', '>', '%':
			buf = append(buf, '\\')
		}
		buf = append(buf, k[i])
	}
	return string(buf)
}
