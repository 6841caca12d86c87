package gemini

import (
	"fmt"

	"github.com/tidwall/sjson"
)

// Payload renders the generateContent body:
//
//	{"contents":[{"role":"user","parts":[...]}],"generationConfig":{"maxOutputTokens":N}}
//
// Text parts become {"text":...}, images {"inlineData":{"mimeType":...,"data":...}}.
func (r *Request) Payload() ([]byte, error) {
	if len(r.Parts) == 0 {
		return nil, &ValidationError{Reason: "empty input"}
	}

	parts := `[]`
	for i, p := range r.Parts {
		item := `{}`
		var err error
		if p.IsImage() {
			item, err = sjson.Set(item, "inlineData.mimeType", p.Image.MimeType)
			if err == nil {
				item, err = sjson.Set(item, "inlineData.data", p.Image.Data)
			}
		} else {
			item, err = sjson.Set(item, "text", p.Text)
		}
		if err != nil {
			return nil, fmt.Errorf("encode part %d: %w", i, err)
		}

		parts, err = sjson.SetRaw(parts, fmt.Sprintf("%d", i), item)
		if err != nil {
			return nil, fmt.Errorf("encode part %d: %w", i, err)
		}
	}

	content := `{}`
	content, _ = sjson.Set(content, "role", "user")
	content, _ = sjson.SetRaw(content, "parts", parts)

	body := `{}`
	body, err := sjson.SetRaw(body, "contents", "["+content+"]")
	if err != nil {
		return nil, fmt.Errorf("encode contents: %w", err)
	}
	body, err = sjson.Set(body, "generationConfig.maxOutputTokens", r.Config.MaxOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("encode generation config: %w", err)
	}

	return []byte(body), nil
}
