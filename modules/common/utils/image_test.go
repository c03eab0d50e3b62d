package utils

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestDetectMimeType(t *testing.T) {
	assert.Equal(t, "image/png", DetectMimeType(encodeTestPNG(t)))
	assert.Equal(t, "image/jpeg", DetectMimeType([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}))

	webpHeader := append([]byte("RIFF"), 0x24, 0x00, 0x00, 0x00)
	webpHeader = append(webpHeader, []byte("WEBP")...)
	assert.Equal(t, "image/webp", DetectMimeType(webpHeader))

	assert.Equal(t, "application/octet-stream", DetectMimeType([]byte("not an image")))
}

func TestEnsurePNGPassesThroughSupportedFormats(t *testing.T) {
	pngData := encodeTestPNG(t)

	out, mimeType, err := EnsurePNG(pngData)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, pngData, out)
}

func TestEnsurePNGRejectsUndecodableData(t *testing.T) {
	_, _, err := EnsurePNG([]byte("definitely not an image"))
	assert.Error(t, err)
}
