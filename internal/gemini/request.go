package gemini

import (
	"strings"

	"gemini-chat/internal/attach"
)

const (
	DefaultMaxOutputTokens = 2048
	DefaultImagePrompt     = "Describe this image."
	DefaultImageMimeType   = "image/jpeg"
)

// Part is one unit of a user turn: either text or an inline image.
type Part struct {
	Text  string
	Image *InlineData
}

type InlineData struct {
	MimeType string
	Data     string
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func ImagePart(mimeType, data string) Part {
	return Part{Image: &InlineData{MimeType: mimeType, Data: data}}
}

func (p Part) IsImage() bool {
	return p.Image != nil
}

type GenerationConfig struct {
	MaxOutputTokens int
}

// Request is a single user turn, built fresh for every send.
type Request struct {
	Parts  []Part
	Config GenerationConfig
}

type buildOptions struct {
	defaultPrompt   string
	maxOutputTokens int
}

type BuildOption func(*buildOptions)

// WithDefaultPrompt sets the text sent alongside an image that has no caption.
func WithDefaultPrompt(prompt string) BuildOption {
	return func(o *buildOptions) {
		if prompt != "" {
			o.defaultPrompt = prompt
		}
	}
}

func WithMaxOutputTokens(n int) BuildOption {
	return func(o *buildOptions) {
		if n > 0 {
			o.maxOutputTokens = n
		}
	}
}

// BuildRequest turns the current input into a request. The image, when
// present, always comes first and is always followed by one text part.
func BuildRequest(text string, img *attach.Image, opts ...BuildOption) (*Request, error) {
	o := buildOptions{
		defaultPrompt:   DefaultImagePrompt,
		maxOutputTokens: DefaultMaxOutputTokens,
	}
	for _, opt := range opts {
		opt(&o)
	}

	text = strings.TrimSpace(text)
	if text == "" && img == nil {
		return nil, &ValidationError{Reason: "empty input"}
	}

	req := &Request{
		Parts:  make([]Part, 0, 2),
		Config: GenerationConfig{MaxOutputTokens: o.maxOutputTokens},
	}

	if img != nil {
		mimeType := img.MimeType
		if mimeType == "" {
			mimeType = DefaultImageMimeType
		}
		data := img.Base64()
		if data == "" || !strings.HasPrefix(mimeType, "image/") {
			return nil, &ValidationError{Reason: "invalid image data"}
		}
		req.Parts = append(req.Parts, ImagePart(mimeType, data))
	}

	if text != "" {
		req.Parts = append(req.Parts, TextPart(text))
	} else {
		req.Parts = append(req.Parts, TextPart(o.defaultPrompt))
	}

	return req, nil
}
