// Package parsing recovers a JSON object from raw model output.
// Models wrap JSON in markdown fences or chatty prose; the parser peels those off
// and then insists on strict JSON.
package parsing

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode"
)

const fence = "```"

// Parse recovers the JSON object in raw. Numbers are decoded as json.Number.
func Parse(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &UnparseableResponseError{Message: "empty response"}
	}

	text = StripFence(text)

	if strings.HasPrefix(text, "{") {
		obj, err := decodeObject(text)
		if err == nil {
			return obj, nil
		}
		// A valid object followed by prose still fails strict decoding; the span retry covers it.
		if span, ok := braceSpan(text); !ok || span == text {
			return nil, &UnparseableResponseError{Message: "invalid JSON", Excerpt: Excerpt(raw), Cause: err}
		}
	}

	span, ok := braceSpan(text)
	if !ok {
		return nil, &UnparseableResponseError{Message: "no JSON object found", Excerpt: Excerpt(raw)}
	}
	obj, err := decodeObject(span)
	if err != nil {
		return nil, &UnparseableResponseError{Message: "invalid JSON", Excerpt: Excerpt(raw), Cause: err}
	}
	return obj, nil
}

// StripFence removes a markdown code fence, with or without a language tag, from both ends of text.
// Text that is not fenced is returned trimmed and otherwise unchanged.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, fence) {
		return text
	}

	body := strings.TrimPrefix(text, fence)
	// The rest of the opening line is the language tag, if any.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		tag := strings.TrimSpace(body[:nl])
		if !strings.ContainsAny(tag, "{[") {
			body = body[nl+1:]
		}
	} else {
		body = strings.TrimLeftFunc(body, unicode.IsLetter)
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, fence)
	return strings.TrimSpace(body)
}

// braceSpan returns the substring from the first '{' to the last '}'.
func braceSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, errors.New("top-level JSON value is not an object")
	}
	return obj, nil
}
