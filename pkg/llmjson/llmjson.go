// Package llmjson turns raw generative-model text into a JSON object.
//
// Models asked for "JSON only" still wrap their answer in markdown fences now
// and then. Parse tries the text as-is first and only falls back to the
// fence-stripped form when the strict parse fails.
package llmjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const fence = "```"

type State int

const (
	Unparsed State = iota
	Parsed
	Invalid
)

func (s State) String() string {
	switch s {
	case Parsed:
		return "parsed"
	case Invalid:
		return "invalid"
	}
	return "unparsed"
}

var ErrNotObject = errors.New("top-level JSON value is not an object")

// Response is the transient parse result of one model call.
type Response struct {
	Raw    string
	State  State
	Object map[string]json.RawMessage
	Err    error
}

// Parse runs the fallback chain: strict parse, then fence-stripped parse.
// The returned Response is either Parsed or Invalid.
func Parse(raw string) Response {
	resp := Response{Raw: raw, State: Unparsed}

	obj, err := decodeObject(raw)
	if err == nil {
		resp.State, resp.Object = Parsed, obj
		return resp
	}

	stripped := StripFences(raw)
	if stripped != strings.TrimSpace(raw) {
		obj, err = decodeObject(stripped)
		if err == nil {
			resp.State, resp.Object = Parsed, obj
			return resp
		}
	}

	resp.State, resp.Err = Invalid, err
	return resp
}

// StripFences removes surrounding whitespace and any leading/trailing ``` fence,
// including an optional "json" language tag. It repeats until nothing changes,
// so StripFences(StripFences(x)) == StripFences(x) for any x.
func StripFences(s string) string {
	for {
		next := stripOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func stripOnce(s string) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, fence) {
		t = t[len(fence):]
		if len(t) >= 4 && strings.EqualFold(t[:4], "json") && (len(t) == 4 || !isTagChar(rune(t[4]))) {
			t = t[4:]
		}
	}
	if strings.HasSuffix(t, fence) {
		t = t[:len(t)-len(fence)]
	}
	return strings.TrimSpace(t)
}

func isTagChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

func decodeObject(s string) (map[string]json.RawMessage, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, errors.New("empty response")
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	var v json.RawMessage
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if dec.InputOffset() != int64(len(trimmed)) {
		return nil, errors.New("trailing data after JSON value")
	}
	if !bytes.HasPrefix(bytes.TrimSpace(v), []byte("{")) {
		return nil, ErrNotObject
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(v, &obj); err != nil {
		return nil, fmt.Errorf("decode JSON object: %w", err)
	}
	return obj, nil
}
