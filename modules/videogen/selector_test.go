package videogen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectProviderByDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		expected string
	}{
		{"single base clip", 8, ProviderVeo},
		{"mid-range chain", 60, ProviderVeo},
		{"exactly at chain ceiling", 148, ProviderVeo},
		{"just over chain ceiling", 148.5, ProviderLTX},
		{"long form", 600, ProviderLTX},
		{"maximum long form", 900, ProviderLTX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &GenerationRequest{
				Prompt:                "a slow pan over a mountain lake",
				Mode:                  ModeTextToVideo,
				TargetDurationSeconds: tt.duration,
			}
			assert.Equal(t, tt.expected, SelectProvider(req))
		})
	}
}

func TestSelectProviderOverrideWins(t *testing.T) {
	// override는 길이 기반 선택을 무조건 이긴다
	req := &GenerationRequest{
		Prompt:                "city timelapse",
		Mode:                  ModeTextToVideo,
		TargetDurationSeconds: 8,
		ProviderOverride:      ProviderLTX,
	}
	assert.Equal(t, ProviderLTX, SelectProvider(req))

	// backend의 정상 범위 밖이어도 override가 우선한다
	req = &GenerationRequest{
		Prompt:                "city timelapse",
		Mode:                  ModeTextToVideo,
		TargetDurationSeconds: 600,
		ProviderOverride:      ProviderVeo,
	}
	assert.Equal(t, ProviderVeo, SelectProvider(req))
}

func TestExtensionChainCeiling(t *testing.T) {
	// 8초 base + 20회 x 7초 = 148초
	assert.Equal(t, 148, ExtensionChainCeilingSeconds)
}
