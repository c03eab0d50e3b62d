package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG 디코더 등록
	"image/png"
	"log"

	_ "github.com/kolesa-team/go-webp/decoder" // WebP 디코더 등록
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// ConvertImageToBase64 - 이미지 바이너리를 base64로 변환
func ConvertImageToBase64(imageData []byte) string {
	return base64.StdEncoding.EncodeToString(imageData)
}

// DetectMimeType - 매직 바이트로 이미지 MIME type 판별
func DetectMimeType(data []byte) string {
	if len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}) {
		return "image/png"
	}
	if len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	if len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return "image/webp"
	}
	return "application/octet-stream"
}

// EnsurePNG - WebP 입력 이미지를 PNG로 재인코딩
// 비디오 backend들은 png/jpeg만 받으므로 WebP는 여기서 변환한다.
func EnsurePNG(imageData []byte) ([]byte, string, error) {
	mimeType := DetectMimeType(imageData)
	if mimeType == "image/png" || mimeType == "image/jpeg" {
		return imageData, mimeType, nil
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	var pngBuffer bytes.Buffer
	if err := png.Encode(&pngBuffer, img); err != nil {
		return nil, "", fmt.Errorf("failed to encode PNG: %w", err)
	}

	log.Printf("🔄 Re-encoded %s reference image to PNG: %d bytes → %d bytes",
		format, len(imageData), pngBuffer.Len())

	return pngBuffer.Bytes(), "image/png", nil
}

// ConvertToWebP - 이미지 바이너리를 WebP로 변환 (storage 보관용)
func ConvertToWebP(imageData []byte, quality float32) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var webpBuffer bytes.Buffer
	if err := webp.Encode(&webpBuffer, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}

	log.Printf("✅ Image converted to WebP: %d bytes → %d bytes (%.1f%% reduction)",
		len(imageData), webpBuffer.Len(),
		float64(len(imageData)-webpBuffer.Len())/float64(len(imageData))*100)

	return webpBuffer.Bytes(), nil
}
