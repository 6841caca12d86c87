package attach

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestEncode(t *testing.T) {
	data := []byte("fake image bytes")

	img, err := Encode("cat.png", "image/png", data, 0)
	require.NoError(t, err)
	assert.Equal(t, "cat.png", img.Name)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, int64(len(data)), img.Size)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(data), img.DataURL)
	assert.Equal(t, base64.StdEncoding.EncodeToString(data), img.Base64())
}

func TestEncodeRejects(t *testing.T) {
	t.Run("declared text/plain", func(t *testing.T) {
		_, err := Encode("notes.txt", "text/plain", []byte("hello"), 0)
		assert.ErrorIs(t, err, ErrNotImage)
		assert.EqualError(t, err, "not an image file")
	})

	t.Run("no declared type", func(t *testing.T) {
		_, err := Encode("blob", "", []byte("hello"), 0)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("6 MiB", func(t *testing.T) {
		_, err := Encode("big.jpg", "image/jpeg", make([]byte, 6*1024*1024), 0)
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("custom limit", func(t *testing.T) {
		_, err := Encode("small.jpg", "image/jpeg", make([]byte, 11), 10)
		assert.ErrorIs(t, err, ErrTooLarge)
	})
}

func TestEncodeAcceptsExactLimit(t *testing.T) {
	img, err := Encode("edge.jpg", "image/jpeg", make([]byte, DefaultMaxBytes), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxBytes, img.Size)
}

func TestBase64(t *testing.T) {
	assert.Equal(t, "", (*Image)(nil).Base64())
	assert.Equal(t, "", (&Image{DataURL: "no header"}).Base64())
	assert.Equal(t, "", (&Image{DataURL: "data:image/png;base64,"}).Base64())
	assert.Equal(t, "QUJD", (&Image{DataURL: "data:image/png;base64,QUJD"}).Base64())
}

func TestEncodeFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("png", func(t *testing.T) {
		path := filepath.Join(dir, "pixel.png")
		require.NoError(t, os.WriteFile(path, pngHeader, 0o644))

		img, err := EncodeFile(path, 0)
		require.NoError(t, err)
		assert.Equal(t, "pixel.png", img.Name)
		assert.Equal(t, "image/png", img.MimeType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(pngHeader), img.Base64())
	})

	t.Run("text file", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("just some notes\n"), 0o644))

		_, err := EncodeFile(path, 0)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("oversized png", func(t *testing.T) {
		path := filepath.Join(dir, "huge.png")
		require.NoError(t, os.WriteFile(path, pngHeader, 0o644))
		require.NoError(t, os.Truncate(path, 6*1024*1024))

		_, err := EncodeFile(path, 0)
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := EncodeFile(filepath.Join(dir, "nope.png"), 0)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := EncodeFile(dir, 0)
		assert.Error(t, err)
	})
}

func multipartFile(t *testing.T, name, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["image"][0]
}

func TestEncodeMultipart(t *testing.T) {
	t.Run("image", func(t *testing.T) {
		fh := multipartFile(t, "cat.gif", "image/gif", []byte("GIF89a"))
		img, err := EncodeMultipart(fh, 0)
		require.NoError(t, err)
		assert.Equal(t, "cat.gif", img.Name)
		assert.Equal(t, "data:image/gif;base64,R0lGODlh", img.DataURL)
	})

	t.Run("declared text", func(t *testing.T) {
		fh := multipartFile(t, "a.txt", "text/plain", []byte("hello"))
		_, err := EncodeMultipart(fh, 0)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("too large", func(t *testing.T) {
		fh := multipartFile(t, "a.png", "image/png", make([]byte, 64))
		_, err := EncodeMultipart(fh, 32)
		assert.ErrorIs(t, err, ErrTooLarge)
	})
}
