package vision

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSONObject = errors.New("no JSON object in response")

// firstJSONObject returns the first balanced {...} span in s. Vision models
// that answer in free text tend to wrap the object in prose or markdown
// fences; everything outside the span is ignored.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// parseJSONObject locates and unmarshals the first JSON object in text.
func parseJSONObject(text string) (map[string]any, error) {
	span, ok := firstJSONObject(text)
	if !ok {
		return nil, errNoJSONObject
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(span), &data); err != nil {
		return nil, err
	}
	return data, nil
}
