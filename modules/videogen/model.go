package videogen

import (
	"quel-video-server/modules/common/model"
	"quel-video-server/modules/common/video"
	"quel-video-server/modules/submodule/ltx"
	"quel-video-server/modules/submodule/veo"
)

// Mode - 생성 모드
type Mode string

const (
	ModeTextToVideo  Mode = "text-to-video"
	ModeImageToVideo Mode = "image-to-video"
	ModeFrameToVideo Mode = "frame-to-video"
)

// Provider 이름 (adapter 패키지의 이름 상수를 그대로 사용)
const (
	ProviderVeo = veo.Name
	ProviderLTX = ltx.Name
)

// GenerationRequest - 비디오 생성 요청. 제출 후에는 변경하지 않는다.
type GenerationRequest struct {
	Prompt                string             `json:"prompt"`
	Mode                  Mode               `json:"mode"`
	TargetDurationSeconds float64            `json:"targetDurationSeconds"`
	AspectRatio           string             `json:"aspectRatio,omitempty"`
	Resolution            string             `json:"resolution,omitempty"`
	FPS                   int                `json:"fps,omitempty"`
	ScenePrompts          []string           `json:"scenePrompts,omitempty"`
	ReferenceImages       []video.InputImage `json:"referenceImages,omitempty"`
	FirstFrame            *video.InputImage  `json:"firstFrame,omitempty"`
	LastFrame             *video.InputImage  `json:"lastFrame,omitempty"`
	ProviderOverride      string             `json:"providerOverride,omitempty"`
	UserID                string             `json:"userId,omitempty"`
}

// RequestFromJobInput - Supabase job_input_data → GenerationRequest 변환
func RequestFromJobInput(input *model.VideoJobInputData) *GenerationRequest {
	req := &GenerationRequest{
		Prompt:                input.Prompt,
		Mode:                  Mode(input.Mode),
		TargetDurationSeconds: input.TargetDurationSeconds,
		AspectRatio:           input.AspectRatio,
		Resolution:            input.Resolution,
		FPS:                   input.FPS,
		ScenePrompts:          input.ScenePrompts,
		ProviderOverride:      input.ProviderOverride,
		UserID:                input.UserID,
	}

	for _, img := range input.ReferenceImages {
		req.ReferenceImages = append(req.ReferenceImages, video.InputImage{
			Data:     img.Data,
			MimeType: img.MimeType,
		})
	}
	if input.FirstFrame != nil {
		req.FirstFrame = &video.InputImage{Data: input.FirstFrame.Data, MimeType: input.FirstFrame.MimeType}
	}
	if input.LastFrame != nil {
		req.LastFrame = &video.InputImage{Data: input.LastFrame.Data, MimeType: input.LastFrame.MimeType}
	}

	return req
}

// GenerateJobRequest - POST /api/video/generate 요청 body
type GenerateJobRequest struct {
	Prompt                string                 `json:"prompt"`
	Mode                  string                 `json:"mode"`
	TargetDurationSeconds float64                `json:"targetDurationSeconds"`
	AspectRatio           string                 `json:"aspectRatio,omitempty"`
	Resolution            string                 `json:"resolution,omitempty"`
	FPS                   int                    `json:"fps,omitempty"`
	ScenePrompts          []string               `json:"scenePrompts,omitempty"`
	ReferenceImages       []model.ReferenceImage `json:"referenceImages,omitempty"`
	FirstFrame            *model.ReferenceImage  `json:"firstFrame,omitempty"`
	LastFrame             *model.ReferenceImage  `json:"lastFrame,omitempty"`
	ProviderOverride      string                 `json:"providerOverride,omitempty"`
	UserID                string                 `json:"userId,omitempty"`
}

// GenerateJobResponse - POST /api/video/generate 응답
type GenerateJobResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	JobID         string `json:"job_id,omitempty"`
	Queue         string `json:"queue,omitempty"`
	QueuePosition int64  `json:"queuePosition,omitempty"`
}
