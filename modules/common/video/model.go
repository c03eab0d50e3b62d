package video

// ClipStatus - 개별 클립 상태
type ClipStatus string

const (
	ClipPending    ClipStatus = "pending"
	ClipProcessing ClipStatus = "processing"
	ClipCompleted  ClipStatus = "completed"
	ClipFailed     ClipStatus = "failed"
)

// ChainStatus represents the terminal state of a whole chain.
type ChainStatus string

const (
	ChainCompleted ChainStatus = "completed"
	ChainPartial   ChainStatus = "partial"
)

// Clip - 생성된 비디오 세그먼트 하나
// ArtifactID is the backend job/operation identifier, kept for audit only.
// The handle actually needed for extension calls is the backend adapter's
// typed ref and never leaves that adapter's package.
type Clip struct {
	Index           int        `json:"index"`
	StartSeconds    float64    `json:"start_seconds"`
	EndSeconds      float64    `json:"end_seconds"`
	DurationSeconds float64    `json:"duration_seconds"`
	SourceBackend   string     `json:"source_backend"`
	Status          ClipStatus `json:"status"`
	ArtifactID      string     `json:"artifact_id,omitempty"`
	LocalPath       string     `json:"local_path,omitempty"`
}

// ProviderUsage - backend 이름 → 생성한 클립 수
type ProviderUsage map[string]int

// ChainResult is the single outcome record for one generation request.
type ChainResult struct {
	Status               ChainStatus   `json:"status"`
	Clips                []Clip        `json:"clips"`
	TotalClips           int           `json:"total_clips"`
	CompletedClips       int           `json:"completed_clips"`
	TotalDurationSeconds float64       `json:"total_duration_seconds"`
	ProviderUsage        ProviderUsage `json:"provider_usage"`
	FinalArtifactPath    string        `json:"final_artifact_path,omitempty"`
	FailureReason        string        `json:"failure_reason,omitempty"`
}

// TallyUsage recounts ProviderUsage from the completed clips.
func (r *ChainResult) TallyUsage() {
	usage := ProviderUsage{}
	completed := 0
	for _, clip := range r.Clips {
		if clip.Status == ClipCompleted {
			usage[clip.SourceBackend]++
			completed++
		}
	}
	r.ProviderUsage = usage
	r.CompletedClips = completed
}

// InputImage - 호출자가 전달한 이미지 바이트 (base64) + MIME type
type InputImage struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}
