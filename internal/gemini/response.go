package gemini

import (
	"github.com/tidwall/gjson"
)

// InterpretResponse classifies a generateContent reply. It never looks past
// the first candidate or its first part.
func InterpretResponse(status int, body []byte) (string, error) {
	if status < 200 || status > 299 {
		msg := ""
		if gjson.ValidBytes(body) {
			msg = gjson.GetBytes(body, "error.message").String()
		}
		return "", &APIError{Status: status, Message: msg}
	}

	if !gjson.ValidBytes(body) {
		return "", &ShapeError{Point: PointMalformed}
	}
	root := gjson.ParseBytes(body)

	candidates := root.Get("candidates")
	if !candidates.IsArray() || len(candidates.Array()) == 0 {
		return "", &ShapeError{Point: PointNoCandidates}
	}

	content := candidates.Get("0.content")
	if !content.IsObject() {
		return "", &ShapeError{Point: PointNoContent}
	}

	parts := content.Get("parts")
	if !parts.IsArray() || len(parts.Array()) == 0 {
		return "", &ShapeError{Point: PointNoParts}
	}

	text := parts.Get("0.text")
	if text.Type != gjson.String || text.Str == "" {
		return "", &ShapeError{Point: PointNoText}
	}

	return text.Str, nil
}
