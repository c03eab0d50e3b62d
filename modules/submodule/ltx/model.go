package ltx

import "time"

// Backend 이름 및 capability envelope 상수
const (
	Name = "ltx"

	MinDurationSeconds = 1
	MaxDurationSeconds = 900

	MinSteps = 1
	MaxSteps = 60

	MinCFGScale = 1.0
	MaxCFGScale = 20.0

	DefaultFPS      = 24
	DefaultSteps    = 30
	DefaultCFGScale = 7.5
)

// AllowedFPS - backend가 받는 프레임레이트
var AllowedFPS = []int{24, 25, 30}

// AllowedAspectRatios - backend가 받는 화면비
var AllowedAspectRatios = []string{"16:9", "9:16", "1:1", "4:3", "3:4"}

// GenerateConfig - 호출 단위 생성 설정
// 단발 생성이라 duration을 직접 받는다. extension 개념은 없다.
type GenerateConfig struct {
	DurationSeconds float64
	FPS             int
	AspectRatio     string
	Steps           int
	CFGScale        float64
	PollInterval    time.Duration
	MaxPollAttempts int
}

// ---- Runware task API 요청/응답 구조체 ----

type runwareTask struct {
	TaskType        string   `json:"taskType"` // videoInference, getResponse
	TaskUUID        string   `json:"taskUUID"`
	PositivePrompt  string   `json:"positivePrompt,omitempty"`
	Model           string   `json:"model,omitempty"`
	Width           int      `json:"width,omitempty"`
	Height          int      `json:"height,omitempty"`
	FrameCount      int      `json:"frameCount,omitempty"`
	FPS             int      `json:"fps,omitempty"`
	Steps           int      `json:"steps,omitempty"`
	CFGScale        float64  `json:"CFGScale,omitempty"`
	NumberResults   int      `json:"numberResults,omitempty"`
	OutputFormat    string   `json:"outputFormat,omitempty"`
	ReferenceImages []string `json:"referenceImages,omitempty"` // data URL 형식
}

type runwareResponse struct {
	Data   []runwareTaskResult `json:"data"`
	Errors []runwareTaskError  `json:"errors,omitempty"`
	Error  string              `json:"error,omitempty"`
}

type runwareTaskResult struct {
	TaskType string `json:"taskType"`
	TaskUUID string `json:"taskUUID"`
	Status   string `json:"status,omitempty"` // processing, success, error
	VideoURL string `json:"videoURL,omitempty"`
	Error    string `json:"error,omitempty"`
}

type runwareTaskError struct {
	TaskUUID string `json:"taskUUID,omitempty"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}
