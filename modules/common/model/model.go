package model

import "time"

// VideoJob - quel_video_jobs 테이블 구조
type VideoJob struct {
	JobID          string                 `json:"job_id"`
	UserID         *string                `json:"user_id"`
	JobType        string                 `json:"job_type"` // "video_generation"
	JobStatus      string                 `json:"job_status"`
	TotalClips     int                    `json:"total_clips"`
	CompletedClips int                    `json:"completed_clips"`
	JobInputData   map[string]interface{} `json:"job_input_data"`
	ResultData     map[string]interface{} `json:"result_data"`
	ProviderUsage  map[string]interface{} `json:"provider_usage"`
	ErrorMessage   *string                `json:"error_message"`
	CreatedAt      time.Time              `json:"created_at"`
	StartedAt      *time.Time             `json:"started_at"`
	CompletedAt    *time.Time             `json:"completed_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// VideoJobInputData - job_input_data JSONB 구조
type VideoJobInputData struct {
	Prompt                string           `json:"prompt"`
	Mode                  string           `json:"mode"` // text-to-video, image-to-video, frame-to-video
	TargetDurationSeconds float64          `json:"targetDurationSeconds"`
	AspectRatio           string           `json:"aspectRatio"`
	Resolution            string           `json:"resolution"`
	FPS                   int              `json:"fps"`
	ScenePrompts          []string         `json:"scenePrompts,omitempty"`
	ReferenceImages       []ReferenceImage `json:"referenceImages,omitempty"`
	FirstFrame            *ReferenceImage  `json:"firstFrame,omitempty"`
	LastFrame             *ReferenceImage  `json:"lastFrame,omitempty"`
	ProviderOverride      string           `json:"providerOverride,omitempty"`
	UserID                string           `json:"userId,omitempty"`
}

// ReferenceImage - 입력 이미지 데이터 (base64 + MIME type)
type ReferenceImage struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusPartial    = "partial"
	StatusFailed     = "failed"
)
