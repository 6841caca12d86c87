package attach

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes is the largest image accepted: 5 MiB.
const DefaultMaxBytes int64 = 5 * 1024 * 1024

var (
	ErrNotImage = errors.New("not an image file")
	ErrTooLarge = errors.New("image is too large")
)

// Image is a selected file, already encoded as a data URL.
type Image struct {
	Name     string
	MimeType string
	DataURL  string
	Size     int64
}

// Base64 returns the payload after the data URL header, or "" when there is none.
func (i *Image) Base64() string {
	if i == nil {
		return ""
	}
	_, data, found := strings.Cut(i.DataURL, ",")
	if !found {
		return ""
	}
	return data
}

func checkSelection(declaredType string, size, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if !strings.HasPrefix(declaredType, "image/") {
		return ErrNotImage
	}
	if size > maxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, size, maxBytes)
	}
	return nil
}

// Encode validates a selection and builds its data URL. The declared type is
// trusted as-is, like a browser file input.
func Encode(name, declaredType string, data []byte, maxBytes int64) (*Image, error) {
	if err := checkSelection(declaredType, int64(len(data)), maxBytes); err != nil {
		return nil, err
	}
	return &Image{
		Name:     name,
		MimeType: declaredType,
		DataURL:  "data:" + declaredType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Size:     int64(len(data)),
	}, nil
}

// EncodeFile reads an image from disk. Size is checked before the file is read.
func EncodeFile(path string, maxBytes int64) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect type of %s: %w", path, err)
	}
	declared := mt.String()
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = declared[:i]
	}
	if err := checkSelection(declared, info.Size(), maxBytes); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Encode(filepath.Base(path), declared, data, maxBytes)
}

// EncodeMultipart encodes an uploaded form file using its Content-Type header.
func EncodeMultipart(fh *multipart.FileHeader, maxBytes int64) (*Image, error) {
	declared := fh.Header.Get("Content-Type")
	if err := checkSelection(declared, fh.Size, maxBytes); err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return Encode(fh.Filename, declared, data, maxBytes)
}
