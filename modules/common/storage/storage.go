package storage

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"quel-video-server/modules/common/config"
	"quel-video-server/modules/common/utils"
)

// EnsureOutputDir - 출력 디렉토리 생성 (idempotent, 첫 쓰기 전에 호출)
func EnsureOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}
	return nil
}

// ClipFilename - 충돌 방지 파일명 생성 (timestamp + short uuid)
// 여러 request가 같은 출력 디렉토리를 공유하므로 락 없이 안전해야 한다.
func ClipFilename(backend string) string {
	timestamp := time.Now().UnixMilli()
	shortID := uuid.New().String()[:8]
	return fmt.Sprintf("%s_clip_%d_%s.mp4", backend, timestamp, shortID)
}

// SaveArtifact - 바이트를 출력 디렉토리에 저장하고 로컬 경로 반환
func SaveArtifact(outputDir, filename string, data []byte) (string, error) {
	if err := EnsureOutputDir(outputDir); err != nil {
		return "", err
	}

	path := filepath.Join(outputDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}

	log.Printf("💾 Artifact saved: %s (%d bytes)", path, len(data))
	return path, nil
}

// DownloadFile - URL에서 파일 다운로드
func DownloadFile(client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: 300 * time.Second}
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to download file: status %d, body: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// UploadImageToStorage - 입력 이미지를 WebP로 변환해 Supabase Storage에 보관
// (reference image 감사 추적용 - 생성 호출에는 원본 바이트가 그대로 쓰인다)
func UploadImageToStorage(imageData []byte, userID string) (string, int64, error) {
	cfg := config.GetConfig()

	webpData, err := utils.ConvertToWebP(imageData, 90.0)
	if err != nil {
		return "", 0, fmt.Errorf("failed to convert image to WebP: %w", err)
	}

	timestamp := time.Now().UnixMilli()
	shortID := uuid.New().String()[:8]
	fileName := fmt.Sprintf("reference_%d_%s.webp", timestamp, shortID)

	if userID == "" {
		userID = "anonymous"
	}
	filePath := fmt.Sprintf("video-inputs/user-%s/%s", userID, fileName)

	log.Printf("📤 Uploading reference image to storage: %s", filePath)

	uploadURL := fmt.Sprintf("%s/storage/v1/object/attachments/%s", cfg.SupabaseURL, filePath)

	req, err := http.NewRequest("POST", uploadURL, bytes.NewReader(webpData))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cfg.SupabaseServiceKey)
	req.Header.Set("Content-Type", "image/webp")

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", 0, fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	webpSize := int64(len(webpData))
	log.Printf("✅ Reference image uploaded: %s (%d bytes)", filePath, webpSize)
	return filePath, webpSize, nil
}
