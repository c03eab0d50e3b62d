package ltx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"quel-video-server/modules/common/storage"
	"quel-video-server/modules/common/video"
)

// Service - LTX 서비스 (long-duration single-shot backend adapter, Runware 경유)
type Service struct {
	config     Config
	httpClient *http.Client
}

// NewService - Service 생성
func NewService(cfg Config) *Service {
	if cfg.APIKey == "" {
		log.Println("⚠️ [LTX] RUNWARE_API_KEY not configured")
		return nil
	}

	log.Println("✅ [LTX] Service initialized")
	return &Service{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 180 * time.Second, // 장시간 비디오 작업은 제출도 오래 걸릴 수 있음
		},
	}
}

// Name - provider 이름
func (s *Service) Name() string {
	return Name
}

// TextToVideo - 텍스트 프롬프트로 목표 길이 전체를 한 번에 생성
func (s *Service) TextToVideo(ctx context.Context, prompt string, gc GenerateConfig) (*video.Clip, error) {
	gc = applyDefaults(gc)
	if fields := validateConfig(gc); len(fields) > 0 {
		return nil, &video.ValidationError{Backend: Name, Fields: fields}
	}

	log.Printf("🎬 [LTX] Text-to-video - duration: %.0fs, fps: %d, prompt: %s",
		gc.DurationSeconds, gc.FPS, truncateString(prompt, 50))

	task := s.buildTask(prompt, gc)
	return s.runTask(ctx, task, gc)
}

// ImageToVideo - 참조 이미지 + 프롬프트로 목표 길이 전체를 한 번에 생성
func (s *Service) ImageToVideo(ctx context.Context, prompt string, image video.InputImage, gc GenerateConfig) (*video.Clip, error) {
	gc = applyDefaults(gc)
	fields := validateConfig(gc)
	if image.Data == "" {
		fields = append(fields, "referenceImage: image data is required for image-to-video")
	}
	if len(fields) > 0 {
		return nil, &video.ValidationError{Backend: Name, Fields: fields}
	}

	log.Printf("🖼️ [LTX] Image-to-video - duration: %.0fs, fps: %d, prompt: %s",
		gc.DurationSeconds, gc.FPS, truncateString(prompt, 50))

	task := s.buildTask(prompt, gc)
	dataURL := "data:" + image.MimeType + ";base64," + image.Data
	task.ReferenceImages = []string{dataURL}

	return s.runTask(ctx, task, gc)
}

// buildTask - videoInference 태스크 구성
// 요청 프레임 수 = round(duration × fps). backend는 정수가 아닌 프레임 수를 거부한다.
func (s *Service) buildTask(prompt string, gc GenerateConfig) runwareTask {
	width, height := calculateDimensions(gc.AspectRatio)

	return runwareTask{
		TaskType:       "videoInference",
		TaskUUID:       uuid.New().String(),
		PositivePrompt: prompt,
		Model:          s.config.Model,
		Width:          width,
		Height:         height,
		FrameCount:     int(math.Round(gc.DurationSeconds * float64(gc.FPS))),
		FPS:            gc.FPS,
		Steps:          gc.Steps,
		CFGScale:       gc.CFGScale,
		NumberResults:  1,
		OutputFormat:   "MP4",
	}
}

// runTask - submit → poll → download
func (s *Service) runTask(ctx context.Context, task runwareTask, gc GenerateConfig) (*video.Clip, error) {
	result, err := s.submit(ctx, task)
	if err != nil {
		return nil, err
	}

	videoURL := result.VideoURL
	if videoURL == "" {
		// 아직 처리 중 - task UUID로 폴링
		videoURL, err = s.pollUntilDone(ctx, task.TaskUUID, gc)
		if err != nil {
			return nil, err
		}
	}

	data, err := storage.DownloadFile(s.httpClient, videoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download video: %w", err)
	}

	localPath, err := storage.SaveArtifact(s.config.OutputDir, storage.ClipFilename(Name), data)
	if err != nil {
		return nil, err
	}

	return &video.Clip{
		SourceBackend:   Name,
		Status:          video.ClipCompleted,
		ArtifactID:      task.TaskUUID,
		LocalPath:       localPath,
		DurationSeconds: gc.DurationSeconds,
	}, nil
}

// submit - 태스크 배열 제출 (Runware는 배열 envelope 사용)
func (s *Service) submit(ctx context.Context, task runwareTask) (*runwareTaskResult, error) {
	jsonBody, err := json.Marshal([]runwareTask{task})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := s.post(ctx, jsonBody)
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, &video.BackendError{Backend: Name, RawMessage: "no task result in response"}
	}

	log.Printf("🚀 [LTX] Task submitted: %s", task.TaskUUID)
	return &resp.Data[0], nil
}

// pollUntilDone - getResponse 태스크로 상태 폴링
func (s *Service) pollUntilDone(ctx context.Context, taskUUID string, gc GenerateConfig) (string, error) {
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

		jsonBody, err := json.Marshal([]runwareTask{{
			TaskType: "getResponse",
			TaskUUID: taskUUID,
		}})
		if err != nil {
			return "", fmt.Errorf("failed to marshal poll request: %w", err)
		}

		resp, err := s.post(ctx, jsonBody)
		if err != nil {
			return "", err
		}

		if len(resp.Data) == 0 {
			log.Printf("📊 [LTX] Attempt %d/%d: task %s still queued", attempt, maxAttempts, taskUUID)
			continue
		}

		result := resp.Data[0]
		switch result.Status {
		case "success":
			if result.VideoURL == "" {
				return "", &video.BackendError{Backend: Name, RawMessage: "task succeeded but no video URL in result"}
			}
			log.Printf("✅ [LTX] Task %s completed", taskUUID)
			return result.VideoURL, nil
		case "error":
			return "", &video.BackendError{Backend: Name, RawMessage: result.Error}
		default:
			log.Printf("📊 [LTX] Attempt %d/%d: task %s status = %s", attempt, maxAttempts, taskUUID, result.Status)
		}
	}

	return "", &video.OperationTimeoutError{
		Backend:     Name,
		OperationID: taskUUID,
		Attempts:    maxAttempts,
		Waited:      time.Duration(maxAttempts) * interval,
	}
}

// post - Runware API 호출 공통부
func (s *Service) post(ctx context.Context, jsonBody []byte) (*runwareResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", s.config.APIURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	httpResp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Runware API: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &video.BackendError{Backend: Name, StatusCode: httpResp.StatusCode, RawMessage: string(bodyBytes)}
	}

	var resp runwareResponse
	if err := json.Unmarshal(bodyBytes, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Error != "" {
		return nil, &video.BackendError{Backend: Name, RawMessage: resp.Error}
	}
	if len(resp.Errors) > 0 {
		return nil, &video.BackendError{Backend: Name, RawMessage: resp.Errors[0].Message}
	}

	return &resp, nil
}

// applyDefaults - 미지정 필드에 기본값 적용
func applyDefaults(gc GenerateConfig) GenerateConfig {
	if gc.FPS == 0 {
		gc.FPS = DefaultFPS
	}
	if gc.AspectRatio == "" {
		gc.AspectRatio = "16:9"
	}
	if gc.Steps == 0 {
		gc.Steps = DefaultSteps
	}
	if gc.CFGScale == 0 {
		gc.CFGScale = DefaultCFGScale
	}
	return gc
}

// validateConfig - 사전 검증. 위반된 필드를 전부 모아서 반환한다 (첫 번째만이 아니라).
func validateConfig(gc GenerateConfig) []string {
	fields := []string{}

	if gc.DurationSeconds < MinDurationSeconds || gc.DurationSeconds > MaxDurationSeconds {
		fields = append(fields, fmt.Sprintf("duration: must be between %d and %d seconds (got %g)",
			MinDurationSeconds, MaxDurationSeconds, gc.DurationSeconds))
	}

	fpsOK := false
	for _, fps := range AllowedFPS {
		if gc.FPS == fps {
			fpsOK = true
			break
		}
	}
	if !fpsOK {
		fields = append(fields, fmt.Sprintf("fps: must be one of %v (got %d)", AllowedFPS, gc.FPS))
	}

	aspectOK := false
	for _, ar := range AllowedAspectRatios {
		if gc.AspectRatio == ar {
			aspectOK = true
			break
		}
	}
	if !aspectOK {
		fields = append(fields, fmt.Sprintf("aspectRatio: must be one of %v (got %s)", AllowedAspectRatios, gc.AspectRatio))
	}

	if gc.Steps < MinSteps || gc.Steps > MaxSteps {
		fields = append(fields, fmt.Sprintf("steps: must be between %d and %d (got %d)", MinSteps, MaxSteps, gc.Steps))
	}

	if gc.CFGScale < MinCFGScale || gc.CFGScale > MaxCFGScale {
		fields = append(fields, fmt.Sprintf("cfgScale: must be between %g and %g (got %g)", MinCFGScale, MaxCFGScale, gc.CFGScale))
	}

	return fields
}

// calculateDimensions - 화면비 → 해상도 (1080p 기준)
func calculateDimensions(aspectRatio string) (int, int) {
	switch aspectRatio {
	case "9:16":
		return 1080, 1920
	case "1:1":
		return 1080, 1080
	case "4:3":
		return 1440, 1080
	case "3:4":
		return 1080, 1440
	default: // 16:9
		return 1920, 1080
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
