package sceneprompt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"quel-video-server/modules/common/config"
	"quel-video-server/modules/common/gemini"
)

// Service - extension chain용 scene 프롬프트 작성기 (Gemini)
type Service struct {
	apiKeys []string
	model   string
}

func NewService() *Service {
	cfg := config.GetConfig()

	if len(cfg.GeminiAPIKeys) == 0 {
		log.Println("⚠️ [ScenePrompt] GEMINI_API_KEY not configured")
		return nil
	}

	log.Println("✅ [ScenePrompt] Service initialized")
	return &Service{
		apiKeys: cfg.GeminiAPIKeys,
		model:   cfg.GeminiTextModel,
	}
}

// WriteScenePrompts - base 프롬프트에서 이어지는 continuation 프롬프트 count개 작성
func (s *Service) WriteScenePrompts(ctx context.Context, basePrompt string, count int) ([]string, error) {
	if count <= 0 {
		return []string{}, nil
	}

	log.Printf("✍️ [ScenePrompt] Writing %d continuation prompts for: %s",
		count, truncateString(basePrompt, 50))

	instruction := fmt.Sprintf(scenePromptInstruction, basePrompt, count, count)

	contents := []*genai.Content{{
		Parts: []*genai.Part{genai.NewPartFromText(instruction)},
	}}

	result, err := gemini.GenerateContentWithRetry(ctx, s.apiKeys, s.model, contents, &genai.GenerateContentConfig{
		Temperature: floatPtr(0.8),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini call failed: %w", err)
	}

	// 응답에서 텍스트 추출
	var raw strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				raw.WriteString(part.Text)
			}
		}
	}

	prompts, err := parsePromptArray(raw.String())
	if err != nil {
		return nil, err
	}

	if len(prompts) < count {
		return nil, fmt.Errorf("expected %d scene prompts, got %d", count, len(prompts))
	}

	log.Printf("✅ [ScenePrompt] %d prompts written", count)
	return prompts[:count], nil
}

// parsePromptArray - 마크다운 펜스를 벗겨내고 JSON 배열 파싱
func parsePromptArray(raw string) ([]string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var prompts []string
	if err := json.Unmarshal([]byte(cleaned), &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse scene prompts: %w (raw: %s)", err, truncateString(cleaned, 120))
	}

	out := make([]string, 0, len(prompts))
	for _, p := range prompts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// Helper functions
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func floatPtr(f float64) *float32 {
	f32 := float32(f)
	return &f32
}
