package videogen

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quel-video-server/modules/common/video"
	"quel-video-server/modules/submodule/veo"
)

// fakeExtensionBackend - veo.Service 대역. 실패 지점을 주입할 수 있다.
type fakeExtensionBackend struct {
	baseCalls   int
	extendCalls int

	failBase        bool
	failAtExtension int // 1-based, 0이면 실패 없음

	extendPrompts []string
}

func (f *fakeExtensionBackend) Name() string { return veo.Name }

func (f *fakeExtensionBackend) GenerateBase(ctx context.Context, prompt string, gc veo.GenerateConfig) (*video.Clip, veo.VideoRef, error) {
	f.baseCalls++
	if f.failBase {
		return nil, veo.VideoRef{}, &video.BackendError{Backend: veo.Name, RawMessage: "base generation rejected"}
	}

	clip := &video.Clip{
		SourceBackend:   veo.Name,
		Status:          video.ClipCompleted,
		DurationSeconds: veo.BaseDurationSeconds,
		ArtifactID:      "op-base",
		LocalPath:       "/tmp/base.mp4",
	}
	ref := veo.VideoRef{
		URI:             "backend://base",
		OperationID:     "op-base",
		AspectRatio:     gc.AspectRatio,
		Resolution:      gc.Resolution,
		DurationSeconds: veo.BaseDurationSeconds,
	}
	return clip, ref, nil
}

func (f *fakeExtensionBackend) Extend(ctx context.Context, ref veo.VideoRef, prompt string, gc veo.GenerateConfig) (*video.Clip, veo.VideoRef, error) {
	f.extendCalls++
	f.extendPrompts = append(f.extendPrompts, prompt)

	if f.failAtExtension > 0 && f.extendCalls == f.failAtExtension {
		return nil, veo.VideoRef{}, &video.BackendError{Backend: veo.Name, RawMessage: "extension rejected by backend"}
	}

	clip := &video.Clip{
		SourceBackend:   veo.Name,
		Status:          video.ClipCompleted,
		DurationSeconds: veo.ExtensionDurationSeconds,
		ArtifactID:      fmt.Sprintf("op-ext-%d", f.extendCalls),
		LocalPath:       fmt.Sprintf("/tmp/ext_%d.mp4", f.extendCalls),
	}
	newRef := veo.VideoRef{
		URI:             fmt.Sprintf("backend://ext-%d", f.extendCalls),
		OperationID:     clip.ArtifactID,
		AspectRatio:     ref.AspectRatio,
		Resolution:      ref.Resolution,
		DurationSeconds: ref.DurationSeconds + veo.ExtensionDurationSeconds,
		Extensions:      ref.Extensions + 1,
	}
	return clip, newRef, nil
}

func (f *fakeExtensionBackend) GenerateWithReferences(ctx context.Context, prompt string, refs []video.InputImage, gc veo.GenerateConfig) (*video.Clip, error) {
	return &video.Clip{
		SourceBackend:   veo.Name,
		Status:          video.ClipCompleted,
		DurationSeconds: veo.BaseDurationSeconds,
		LocalPath:       "/tmp/ref.mp4",
	}, nil
}

func (f *fakeExtensionBackend) GenerateInterpolated(ctx context.Context, prompt string, firstFrame, lastFrame video.InputImage, gc veo.GenerateConfig) (*video.Clip, error) {
	return &video.Clip{
		SourceBackend:   veo.Name,
		Status:          video.ClipCompleted,
		DurationSeconds: veo.BaseDurationSeconds,
		LocalPath:       "/tmp/interp.mp4",
	}, nil
}

func TestChainBuildsSequentially(t *testing.T) {
	backend := &fakeExtensionBackend{}
	builder := NewChainBuilder(backend)

	prompts := []string{"scene 2", "scene 3", "scene 4"}
	result, err := builder.Build(context.Background(), "a fox runs through snow", prompts, veo.GenerateConfig{})

	require.NoError(t, err)
	assert.Equal(t, video.ChainCompleted, result.Status)
	assert.Equal(t, 4, result.TotalClips)
	assert.Equal(t, 4, result.CompletedClips)
	assert.Equal(t, 1, backend.baseCalls)
	assert.Equal(t, 3, backend.extendCalls)

	// 8 + 3x7 = 29초, 측정이 아닌 backend 상수의 합
	assert.Equal(t, 29.0, result.TotalDurationSeconds)

	// 클립 타임라인이 연속이어야 한다
	require.Len(t, result.Clips, 4)
	assert.Equal(t, 0.0, result.Clips[0].StartSeconds)
	assert.Equal(t, 8.0, result.Clips[0].EndSeconds)
	assert.Equal(t, 8.0, result.Clips[1].StartSeconds)
	assert.Equal(t, 15.0, result.Clips[1].EndSeconds)
	assert.Equal(t, 22.0, result.Clips[3].StartSeconds)
	assert.Equal(t, 29.0, result.Clips[3].EndSeconds)

	// 마지막 클립의 artifact가 전체 영상
	assert.Equal(t, "/tmp/ext_3.mp4", result.FinalArtifactPath)
	assert.Equal(t, video.ProviderUsage{veo.Name: 4}, result.ProviderUsage)
}

func TestChainPartialKeepsCompletedClips(t *testing.T) {
	backend := &fakeExtensionBackend{failAtExtension: 2}
	builder := NewChainBuilder(backend)

	// 3클립 계획: base + 2 extensions, 2번째 extension에서 실패
	result, err := builder.Build(context.Background(), "ocean waves at dusk", []string{"scene 2", "scene 3"}, veo.GenerateConfig{})

	require.NoError(t, err)
	assert.Equal(t, video.ChainPartial, result.Status)
	assert.Equal(t, 3, result.TotalClips)
	assert.Equal(t, 2, result.CompletedClips)
	assert.NotEmpty(t, result.FailureReason)
	assert.Contains(t, result.FailureReason, "extension rejected")

	// 완료된 클립의 artifact는 전부 유지된다
	require.Len(t, result.Clips, 2)
	assert.Equal(t, "/tmp/base.mp4", result.Clips[0].LocalPath)
	assert.Equal(t, "/tmp/ext_1.mp4", result.Clips[1].LocalPath)
	assert.Equal(t, "/tmp/ext_1.mp4", result.FinalArtifactPath)
	assert.Equal(t, 15.0, result.TotalDurationSeconds)

	// 실패 이후 extension은 시도하지 않는다
	assert.Equal(t, 2, backend.extendCalls)
}

func TestChainBaseFailureReturnsError(t *testing.T) {
	backend := &fakeExtensionBackend{failBase: true}
	builder := NewChainBuilder(backend)

	result, err := builder.Build(context.Background(), "prompt", []string{"scene 2"}, veo.GenerateConfig{})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, backend.extendCalls)
}

func TestChainProgressCallback(t *testing.T) {
	backend := &fakeExtensionBackend{}
	builder := NewChainBuilder(backend)

	var updates [][2]int
	builder.OnClip = func(completed, total int) {
		updates = append(updates, [2]int{completed, total})
	}

	_, err := builder.Build(context.Background(), "prompt", []string{"scene 2", "scene 3"}, veo.GenerateConfig{})
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, updates)
}
