package videogen

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"quel-video-server/modules/common/video"
	"quel-video-server/modules/submodule/ltx"
	"quel-video-server/modules/submodule/veo"
)

// LongFormBackend - long-duration single-shot backend adapter 인터페이스
type LongFormBackend interface {
	Name() string
	TextToVideo(ctx context.Context, prompt string, gc ltx.GenerateConfig) (*video.Clip, error)
	ImageToVideo(ctx context.Context, prompt string, image video.InputImage, gc ltx.GenerateConfig) (*video.Clip, error)
}

// ScenePromptWriter - extension chain용 continuation 프롬프트 작성기
type ScenePromptWriter interface {
	WriteScenePrompts(ctx context.Context, basePrompt string, count int) ([]string, error)
}

// Coordinator - 비디오 생성 오케스트레이터
// adapter들은 명시적으로 주입되며 Coordinator 수명 동안 유지된다 (테스트 더블 주입 가능).
type Coordinator struct {
	extension ExtensionBackend
	longform  LongFormBackend
	prompts   ScenePromptWriter // nil 허용 - 없으면 fallback 프롬프트 사용

	// OnProgress - 클립 완료 시마다 호출 (nil 가능)
	OnProgress func(completed, total int)
}

// NewCoordinator - Coordinator 생성
func NewCoordinator(extension ExtensionBackend, longform LongFormBackend, prompts ScenePromptWriter) *Coordinator {
	return &Coordinator{
		extension: extension,
		longform:  longform,
		prompts:   prompts,
	}
}

// GenerateVideo - 요청 하나를 검증, backend 선택, 실행, 집계까지 처리
func (c *Coordinator) GenerateVideo(ctx context.Context, req *GenerationRequest) (*video.ChainResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	provider := SelectProvider(req)
	log.Printf("🎯 [Coordinator] Provider selected: %s (mode: %s, duration: %.0fs)",
		provider, req.Mode, req.TargetDurationSeconds)

	switch provider {
	case ProviderLTX:
		return c.dispatchLongForm(ctx, req)
	case ProviderVeo:
		return c.dispatchExtension(ctx, req)
	default:
		return nil, &video.InvalidRequestError{
			Violations: []string{fmt.Sprintf("providerOverride: unknown provider %q", provider)},
		}
	}
}

// dispatchLongForm - long-duration backend로 단발 생성
func (c *Coordinator) dispatchLongForm(ctx context.Context, req *GenerationRequest) (*video.ChainResult, error) {
	if req.Mode == ModeFrameToVideo {
		return nil, &video.InvalidRequestError{
			Violations: []string{fmt.Sprintf("mode: %s is not supported by the %s backend (no interpolation operation)",
				ModeFrameToVideo, c.longform.Name())},
		}
	}

	gc := ltx.GenerateConfig{
		DurationSeconds: req.TargetDurationSeconds,
		FPS:             req.FPS,
		AspectRatio:     req.AspectRatio,
	}

	var clip *video.Clip
	var err error
	if req.Mode == ModeImageToVideo {
		clip, err = c.longform.ImageToVideo(ctx, req.Prompt, req.ReferenceImages[0], gc)
	} else {
		clip, err = c.longform.TextToVideo(ctx, req.Prompt, gc)
	}
	if err != nil {
		return nil, err
	}

	result := singleClipResult(clip)
	c.notifyProgress(1, 1)
	return result, nil
}

// dispatchExtension - extension backend로 단발 또는 chain 생성
func (c *Coordinator) dispatchExtension(ctx context.Context, req *GenerationRequest) (*video.ChainResult, error) {
	gc := veo.GenerateConfig{
		AspectRatio: req.AspectRatio,
		Resolution:  req.Resolution,
	}

	switch req.Mode {
	case ModeFrameToVideo:
		clip, err := c.extension.GenerateInterpolated(ctx, req.Prompt, *req.FirstFrame, *req.LastFrame, gc)
		if err != nil {
			return nil, err
		}
		result := singleClipResult(clip)
		c.notifyProgress(1, 1)
		return result, nil

	case ModeImageToVideo:
		clip, err := c.extension.GenerateWithReferences(ctx, req.Prompt, req.ReferenceImages, gc)
		if err != nil {
			return nil, err
		}
		result := singleClipResult(clip)
		c.notifyProgress(1, 1)
		return result, nil

	default: // text-to-video
		extensions := extensionsNeeded(req.TargetDurationSeconds)
		if extensions == 0 {
			clip, _, err := c.extension.GenerateBase(ctx, req.Prompt, gc)
			if err != nil {
				return nil, err
			}
			result := singleClipResult(clip)
			c.notifyProgress(1, 1)
			return result, nil
		}

		scenePrompts := c.resolveScenePrompts(ctx, req, extensions)

		builder := NewChainBuilder(c.extension)
		builder.OnClip = c.OnProgress
		return builder.Build(ctx, req.Prompt, scenePrompts, gc)
	}
}

// extensionsNeeded - 목표 길이를 채우는 데 필요한 extension 수 (한도 내로 clamp)
func extensionsNeeded(targetSeconds float64) int {
	if targetSeconds <= veo.BaseDurationSeconds {
		return 0
	}
	n := int(math.Ceil((targetSeconds - veo.BaseDurationSeconds) / veo.ExtensionDurationSeconds))
	if n > veo.MaxExtensions {
		n = veo.MaxExtensions
	}
	return n
}

// resolveScenePrompts - scene 프롬프트 결정
// 호출자가 준 프롬프트 우선, 없으면 prompt writer, 그것도 안 되면 base 프롬프트 재사용.
// 프롬프트 작성 실패 때문에 chain이 실패하지는 않는다.
func (c *Coordinator) resolveScenePrompts(ctx context.Context, req *GenerationRequest, count int) []string {
	if len(req.ScenePrompts) >= count {
		return req.ScenePrompts[:count]
	}

	if c.prompts != nil {
		written, err := c.prompts.WriteScenePrompts(ctx, req.Prompt, count)
		if err == nil {
			return written
		}
		log.Printf("⚠️ [Coordinator] Scene prompt writer failed, falling back to base prompt: %v", err)
	}

	fallbackPrompt := "Continue the same scene seamlessly: " + req.Prompt
	prompts := make([]string, count)
	for i := range prompts {
		prompts[i] = fallbackPrompt
	}
	// 호출자가 일부만 줬다면 그만큼은 살린다
	copy(prompts, req.ScenePrompts)
	return prompts
}

// validateRequest - 요청 검증. 위반 사항을 전부 모아 한 번에 반환한다.
func validateRequest(req *GenerationRequest) error {
	violations := []string{}

	if strings.TrimSpace(req.Prompt) == "" {
		violations = append(violations, "prompt: is required")
	}

	if req.TargetDurationSeconds <= 0 {
		violations = append(violations, fmt.Sprintf("targetDurationSeconds: must be positive (got %g)", req.TargetDurationSeconds))
	}

	switch req.Mode {
	case ModeTextToVideo, ModeImageToVideo, ModeFrameToVideo:
	case "":
		violations = append(violations, "mode: is required")
	default:
		violations = append(violations, fmt.Sprintf("mode: unknown mode %q", req.Mode))
	}

	if req.Mode == ModeImageToVideo && len(req.ReferenceImages) == 0 {
		violations = append(violations, "referenceImages: at least one reference image is required for image-to-video")
	}
	if len(req.ReferenceImages) > 3 {
		violations = append(violations, fmt.Sprintf("referenceImages: at most 3 images are allowed (got %d)", len(req.ReferenceImages)))
	}

	if req.Mode == ModeFrameToVideo {
		if req.FirstFrame == nil || req.FirstFrame.Data == "" {
			violations = append(violations, "firstFrame: is required for frame-to-video")
		}
		if req.LastFrame == nil || req.LastFrame.Data == "" {
			violations = append(violations, "lastFrame: is required for frame-to-video")
		}
	}

	if req.ProviderOverride != "" && req.ProviderOverride != ProviderVeo && req.ProviderOverride != ProviderLTX {
		violations = append(violations, fmt.Sprintf("providerOverride: unknown provider %q (valid: %s, %s)",
			req.ProviderOverride, ProviderVeo, ProviderLTX))
	}

	if len(violations) > 0 {
		return &video.InvalidRequestError{Violations: violations}
	}
	return nil
}

// singleClipResult - 단발 생성 결과를 ChainResult로 포장
func singleClipResult(clip *video.Clip) *video.ChainResult {
	clip.Index = 0
	clip.StartSeconds = 0
	clip.EndSeconds = clip.DurationSeconds

	result := &video.ChainResult{
		Status:               video.ChainCompleted,
		Clips:                []video.Clip{*clip},
		TotalClips:           1,
		TotalDurationSeconds: clip.DurationSeconds,
		FinalArtifactPath:    clip.LocalPath,
	}
	result.TallyUsage()
	return result
}

func (c *Coordinator) notifyProgress(completed, total int) {
	if c.OnProgress != nil {
		c.OnProgress(completed, total)
	}
}
