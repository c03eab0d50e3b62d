package veo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"quel-video-server/modules/common/storage"
	"quel-video-server/modules/common/video"
)

// Service - Veo API 서비스 (extension-capable backend adapter)
type Service struct {
	config     Config
	httpClient *http.Client
}

// NewService - Service 생성
func NewService(cfg Config) *Service {
	if cfg.APIKey == "" {
		log.Println("⚠️ [Veo] API key not configured")
		return nil
	}

	log.Println("✅ [Veo] Service initialized")
	return &Service{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Name - provider 이름
func (s *Service) Name() string {
	return Name
}

// GenerateBase - 8초 base 클립 생성. 반환된 VideoRef가 extension의 anchor가 된다.
func (s *Service) GenerateBase(ctx context.Context, prompt string, gc GenerateConfig) (*video.Clip, VideoRef, error) {
	aspectRatio := defaultString(gc.AspectRatio, "16:9")
	resolution := defaultString(gc.Resolution, "720p")

	log.Printf("🎬 [Veo] Generating base clip - aspect: %s, resolution: %s, prompt: %s",
		aspectRatio, resolution, truncateString(prompt, 50))

	payload := predictRequest{
		Instances: []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{
			AspectRatio:      aspectRatio,
			Resolution:       resolution,
			DurationSeconds:  BaseDurationSeconds,
			NegativePrompt:   gc.NegativePrompt,
			PersonGeneration: personGenerationDefault,
		},
	}

	clip, uri, opID, err := s.runOperation(ctx, payload, BaseDurationSeconds, gc)
	if err != nil {
		return nil, VideoRef{}, err
	}

	ref := VideoRef{
		URI:             uri,
		OperationID:     opID,
		AspectRatio:     aspectRatio,
		Resolution:      resolution,
		DurationSeconds: BaseDurationSeconds,
		Extensions:      0,
	}

	return clip, ref, nil
}

// Extend - 기존 비디오 핸들에 7초 extension 추가
// 한도 검증은 전부 로컬에서 수행한다 (round-trip 없음).
func (s *Service) Extend(ctx context.Context, ref VideoRef, prompt string, gc GenerateConfig) (*video.Clip, VideoRef, error) {
	if err := s.checkChainLimits(ref, gc); err != nil {
		return nil, VideoRef{}, err
	}

	log.Printf("🔗 [Veo] Extending video (%.0fs, %d extensions so far) - prompt: %s",
		ref.DurationSeconds, ref.Extensions, truncateString(prompt, 50))

	payload := predictRequest{
		Instances: []predictInstance{{
			Prompt: prompt,
			Video:  &videoInput{URI: ref.URI},
		}},
		Parameters: predictParameters{
			AspectRatio:      ref.AspectRatio,
			Resolution:       ref.Resolution,
			DurationSeconds:  ExtensionDurationSeconds,
			NegativePrompt:   gc.NegativePrompt,
			PersonGeneration: personGenerationDefault,
		},
	}

	clip, uri, opID, err := s.runOperation(ctx, payload, ExtensionDurationSeconds, gc)
	if err != nil {
		return nil, VideoRef{}, err
	}

	newRef := VideoRef{
		URI:             uri,
		OperationID:     opID,
		AspectRatio:     ref.AspectRatio,
		Resolution:      ref.Resolution,
		DurationSeconds: ref.DurationSeconds + ExtensionDurationSeconds,
		Extensions:      ref.Extensions + 1,
	}

	return clip, newRef, nil
}

// GenerateWithReferences - 참조 이미지 1~3장 기반 단발 생성 (extension 관계 없음)
func (s *Service) GenerateWithReferences(ctx context.Context, prompt string, refs []video.InputImage, gc GenerateConfig) (*video.Clip, error) {
	if len(refs) < 1 || len(refs) > 3 {
		return nil, &video.ValidationError{
			Backend: Name,
			Fields:  []string{fmt.Sprintf("referenceImages: must contain 1 to 3 images (got %d)", len(refs))},
		}
	}

	log.Printf("🖼️ [Veo] Generating with %d reference image(s) - prompt: %s",
		len(refs), truncateString(prompt, 50))

	images := make([]referenceImage, 0, len(refs))
	for _, r := range refs {
		images = append(images, referenceImage{
			Image:         inlineImage{BytesBase64Encoded: r.Data, MimeType: r.MimeType},
			ReferenceType: "asset",
		})
	}

	payload := predictRequest{
		Instances: []predictInstance{{
			Prompt:          prompt,
			ReferenceImages: images,
		}},
		Parameters: predictParameters{
			AspectRatio:      defaultString(gc.AspectRatio, "16:9"),
			Resolution:       defaultString(gc.Resolution, "720p"),
			DurationSeconds:  BaseDurationSeconds,
			NegativePrompt:   gc.NegativePrompt,
			PersonGeneration: personGenerationImage,
		},
	}

	clip, _, _, err := s.runOperation(ctx, payload, BaseDurationSeconds, gc)
	return clip, err
}

// GenerateInterpolated - 시작/끝 프레임이 고정된 단발 생성
func (s *Service) GenerateInterpolated(ctx context.Context, prompt string, firstFrame, lastFrame video.InputImage, gc GenerateConfig) (*video.Clip, error) {
	if firstFrame.Data == "" || lastFrame.Data == "" {
		fields := []string{}
		if firstFrame.Data == "" {
			fields = append(fields, "firstFrame: image data is required")
		}
		if lastFrame.Data == "" {
			fields = append(fields, "lastFrame: image data is required")
		}
		return nil, &video.ValidationError{Backend: Name, Fields: fields}
	}

	log.Printf("🎞️ [Veo] Generating interpolated clip - prompt: %s", truncateString(prompt, 50))

	payload := predictRequest{
		Instances: []predictInstance{{
			Prompt:    prompt,
			Image:     &inlineImage{BytesBase64Encoded: firstFrame.Data, MimeType: firstFrame.MimeType},
			LastFrame: &inlineImage{BytesBase64Encoded: lastFrame.Data, MimeType: lastFrame.MimeType},
		}},
		Parameters: predictParameters{
			AspectRatio:      defaultString(gc.AspectRatio, "16:9"),
			Resolution:       defaultString(gc.Resolution, "720p"),
			DurationSeconds:  BaseDurationSeconds,
			NegativePrompt:   gc.NegativePrompt,
			PersonGeneration: personGenerationImage,
		},
	}

	clip, _, _, err := s.runOperation(ctx, payload, BaseDurationSeconds, gc)
	return clip, err
}

// checkChainLimits - extension 사전 검증 (전부 로컬)
func (s *Service) checkChainLimits(ref VideoRef, gc GenerateConfig) error {
	if ref.URI == "" {
		return &video.ChainLimitExceededError{
			Backend: Name,
			Reason:  "prior artifact reference is empty - extensions require a base clip from this backend",
		}
	}
	if ref.Extensions >= MaxExtensions {
		return &video.ChainLimitExceededError{
			Backend: Name,
			Reason:  fmt.Sprintf("extension count %d reached the maximum of %d", ref.Extensions, MaxExtensions),
		}
	}
	if ref.DurationSeconds > MaxInputDurationSeconds {
		return &video.ChainLimitExceededError{
			Backend: Name,
			Reason: fmt.Sprintf("cumulative input duration %.0fs exceeds the %ds ceiling",
				ref.DurationSeconds, MaxInputDurationSeconds),
		}
	}
	if gc.AspectRatio != "" && gc.AspectRatio != ref.AspectRatio {
		return &video.ChainLimitExceededError{
			Backend: Name,
			Reason: fmt.Sprintf("aspect ratio %s does not match the base clip's %s - the backend rejects mismatches",
				gc.AspectRatio, ref.AspectRatio),
		}
	}
	if gc.Resolution != "" && gc.Resolution != ref.Resolution {
		return &video.ChainLimitExceededError{
			Backend: Name,
			Reason: fmt.Sprintf("resolution %s does not match the base clip's %s - the backend rejects mismatches",
				gc.Resolution, ref.Resolution),
		}
	}
	return nil
}

// runOperation - submit → poll → download. 네 가지 생성 모드가 모두 공유한다.
// 클립은 artifact가 로컬에 저장된 후에만 completed가 된다.
func (s *Service) runOperation(ctx context.Context, payload predictRequest, durationSeconds float64, gc GenerateConfig) (*video.Clip, string, string, error) {
	opID, err := s.submit(ctx, payload)
	if err != nil {
		return nil, "", "", err
	}

	uri, err := s.pollUntilDone(ctx, opID, gc)
	if err != nil {
		return nil, "", "", err
	}

	localPath, err := s.downloadArtifact(ctx, uri)
	if err != nil {
		return nil, "", "", err
	}

	clip := &video.Clip{
		SourceBackend:   Name,
		Status:          video.ClipCompleted,
		ArtifactID:      opID,
		LocalPath:       localPath,
		DurationSeconds: durationSeconds,
	}

	return clip, uri, opID, nil
}

// submit - predictLongRunning 작업 제출
func (s *Service) submit(ctx context.Context, payload predictRequest) (string, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:predictLongRunning", s.config.APIBaseURL, s.config.Model)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call Veo API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// backend 오류는 원문 그대로 보존
		return "", &video.BackendError{Backend: Name, StatusCode: resp.StatusCode, RawMessage: string(body)}
	}

	var op operationResponse
	if err := json.Unmarshal(body, &op); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if op.Name == "" {
		return "", &video.BackendError{Backend: Name, RawMessage: "no operation name in response: " + string(body)}
	}

	log.Printf("🚀 [Veo] Operation submitted: %s", op.Name)
	return op.Name, nil
}

// pollUntilDone - terminal 상태까지 고정 간격 폴링
func (s *Service) pollUntilDone(ctx context.Context, opID string, gc GenerateConfig) (string, error) {
	interval := gc.PollInterval
	if interval <= 0 {
		interval = s.config.PollInterval
	}
	maxAttempts := gc.MaxPollAttempts
	if maxAttempts <= 0 {
		maxAttempts = s.config.MaxPollAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		time.Sleep(interval)

		op, err := s.fetchOperation(ctx, opID)
		if err != nil {
			return "", err
		}

		if !op.Done {
			log.Printf("📊 [Veo] Attempt %d/%d: operation %s still running", attempt, maxAttempts, opID)
			continue
		}

		if op.Error != nil {
			return "", &video.BackendError{
				Backend:    Name,
				StatusCode: op.Error.Code,
				RawMessage: op.Error.Message,
			}
		}

		if op.Response == nil || len(op.Response.GenerateVideoResponse.GeneratedSamples) == 0 {
			return "", &video.BackendError{Backend: Name, RawMessage: "operation done but no video in response"}
		}

		uri := op.Response.GenerateVideoResponse.GeneratedSamples[0].Video.URI
		log.Printf("✅ [Veo] Operation %s completed", opID)
		return uri, nil
	}

	return "", &video.OperationTimeoutError{
		Backend:     Name,
		OperationID: opID,
		Attempts:    maxAttempts,
		Waited:      time.Duration(maxAttempts) * interval,
	}
}

// fetchOperation - operation 상태 조회
func (s *Service) fetchOperation(ctx context.Context, opID string) (*operationResponse, error) {
	url := fmt.Sprintf("%s/v1beta/%s", s.config.APIBaseURL, opID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch operation: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &video.BackendError{Backend: Name, StatusCode: resp.StatusCode, RawMessage: string(body)}
	}

	var op operationResponse
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, fmt.Errorf("failed to unmarshal operation: %w", err)
	}

	return &op, nil
}

// downloadArtifact - 비디오를 출력 디렉토리에 저장
func (s *Service) downloadArtifact(ctx context.Context, uri string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", uri, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("x-goog-api-key", s.config.APIKey)

	client := &http.Client{Timeout: 300 * time.Second} // 다운로드는 더 긴 타임아웃
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to download video: status %d, body: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read video data: %w", err)
	}

	return storage.SaveArtifact(s.config.OutputDir, storage.ClipFilename(Name), data)
}

// Helper functions
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func defaultString(value, fb string) string {
	if value != "" {
		return value
	}
	return fb
}
