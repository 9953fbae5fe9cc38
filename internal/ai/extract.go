package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"brushquest-server/internal/models"
)

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON locates a JSON object or array embedded in free-form model
// output. A fenced code block is preferred; otherwise the first balanced
// brace- or bracket-delimited span is used. The model is an untrusted text
// source: prompts ask for "ONLY JSON" but nothing upstream enforces it.
func ExtractJSON(text string) (json.RawMessage, error) {
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		candidate := strings.TrimSpace(m[1])
		if raw, err := parseRaw(candidate); err == nil {
			return raw, nil
		}
		// A fenced block that does not parse falls through to span scanning:
		// models occasionally fence prose and emit the JSON after it.
	}

	candidate, ok := firstBalancedSpan(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object or array found in output", models.ErrMalformedOutput)
	}
	raw, err := parseRaw(candidate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedOutput, err)
	}
	return raw, nil
}

// DecodeStrict decodes extracted JSON into out, rejecting unknown fields so a
// wrong-shape payload surfaces as ErrMalformedOutput instead of propagating
// half-empty structs downstream.
func DecodeStrict(data []byte, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedOutput, err)
	}
	return nil
}

func parseRaw(s string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// firstBalancedSpan returns the first {...} or [...] span with balanced
// delimiters, ignoring braces inside string literals.
func firstBalancedSpan(text string) (string, bool) {
	start := -1
	var open, closing rune
	for i, r := range text {
		if r == '{' || r == '[' {
			start = i
			open = r
			if r == '{' {
				closing = '}'
			} else {
				closing = ']'
			}
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i, r := range text[start:] {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return text[start : start+i+1], true
			}
		}
	}
	return "", false
}
