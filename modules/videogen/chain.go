package videogen

import (
	"context"
	"log"

	"quel-video-server/modules/common/video"
	"quel-video-server/modules/submodule/veo"
)

// ExtensionBackend - extension-capable backend adapter 인터페이스
// veo.Service가 구현하고, 테스트에서는 fake로 대체한다.
type ExtensionBackend interface {
	Name() string
	GenerateBase(ctx context.Context, prompt string, gc veo.GenerateConfig) (*video.Clip, veo.VideoRef, error)
	Extend(ctx context.Context, ref veo.VideoRef, prompt string, gc veo.GenerateConfig) (*video.Clip, veo.VideoRef, error)
	GenerateWithReferences(ctx context.Context, prompt string, refs []video.InputImage, gc veo.GenerateConfig) (*video.Clip, error)
	GenerateInterpolated(ctx context.Context, prompt string, firstFrame, lastFrame video.InputImage, gc veo.GenerateConfig) (*video.Clip, error)
}

// ChainBuilder - scene extension chain 실행기
// 클립 i+1은 클립 i의 backend-native 핸들을 필요로 하므로 엄격하게 순차 실행한다.
type ChainBuilder struct {
	backend ExtensionBackend

	// OnClip - 클립 하나가 완료될 때마다 호출 (진행 상황 알림용, nil 가능)
	OnClip func(completed, total int)
}

// NewChainBuilder - ChainBuilder 생성
func NewChainBuilder(backend ExtensionBackend) *ChainBuilder {
	return &ChainBuilder{backend: backend}
}

// Build - base 클립 생성 후 extension을 순서대로 이어붙인다.
// 중간 실패 시 완료된 클립은 전부 유지하고 chain을 partial로 끝낸다.
// base 클립 자체가 실패하면 chain이 존재하지 않으므로 오류를 반환한다.
func (b *ChainBuilder) Build(ctx context.Context, basePrompt string, extensionPrompts []string, gc veo.GenerateConfig) (*video.ChainResult, error) {
	totalClips := 1 + len(extensionPrompts)

	log.Printf("⛓️ [Chain] Building %d-clip chain on %s", totalClips, b.backend.Name())

	result := &video.ChainResult{
		Status:     video.ChainCompleted,
		Clips:      []video.Clip{},
		TotalClips: totalClips,
	}

	// 1. Base 클립
	baseClip, ref, err := b.backend.GenerateBase(ctx, basePrompt, gc)
	if err != nil {
		return nil, err
	}

	baseClip.Index = 0
	baseClip.StartSeconds = 0
	baseClip.EndSeconds = baseClip.DurationSeconds
	result.Clips = append(result.Clips, *baseClip)
	b.notify(1, totalClips)

	// 2. Extension들 - 각 호출은 직전 호출의 핸들에 anchor된다
	elapsed := baseClip.DurationSeconds
	for i, prompt := range extensionPrompts {
		clip, newRef, err := b.backend.Extend(ctx, ref, prompt, gc)
		if err != nil {
			// terminal: 같은 자리에서 다른 backend로 넘어갈 수 없다
			// (다른 backend는 이 핸들을 이해하지 못함)
			log.Printf("⚠️ [Chain] Extension %d/%d failed, keeping %d completed clip(s): %v",
				i+1, len(extensionPrompts), len(result.Clips), err)
			result.Status = video.ChainPartial
			result.FailureReason = err.Error()
			break
		}

		clip.Index = i + 1
		clip.StartSeconds = elapsed
		clip.EndSeconds = elapsed + clip.DurationSeconds
		elapsed = clip.EndSeconds
		result.Clips = append(result.Clips, *clip)
		ref = newRef
		b.notify(len(result.Clips), totalClips)
	}

	b.finalize(result)
	return result, nil
}

// finalize - usage 집계, 길이 합산, 최종 artifact 경로 결정
// 길이는 backend 상수의 합이다. media probing은 하지 않는다.
func (b *ChainBuilder) finalize(result *video.ChainResult) {
	result.TallyUsage()

	total := 0.0
	for _, clip := range result.Clips {
		if clip.Status == video.ClipCompleted {
			total += clip.DurationSeconds
			// extension backend에서는 마지막 클립의 artifact가 지금까지의 전체 영상을 담는다
			result.FinalArtifactPath = clip.LocalPath
		}
	}
	result.TotalDurationSeconds = total

	log.Printf("✅ [Chain] %s: %d/%d clips, %.0fs total",
		result.Status, result.CompletedClips, result.TotalClips, result.TotalDurationSeconds)
}

func (b *ChainBuilder) notify(completed, total int) {
	if b.OnClip != nil {
		b.OnClip(completed, total)
	}
}
