package veo

import "time"

// Backend 이름 및 capability envelope 상수.
// Duration 상수들은 backend가 보장하는 값이라 media probing 없이 그대로 신뢰한다.
const (
	Name = "veo"

	BaseDurationSeconds      = 8
	ExtensionDurationSeconds = 7
	MaxExtensions            = 20
	MaxInputDurationSeconds  = 141 // extension 입력 비디오의 누적 길이 한도
)

// personGeneration - backend가 요구하는 compliance 파라미터.
// base/extension은 allow_all, reference/interpolation은 allow_adult만 받는다.
// 잘못된 값은 그대로 거부되므로 호출자가 아닌 adapter가 모드별로 선택한다.
const (
	personGenerationDefault = "allow_all"
	personGenerationImage   = "allow_adult"
)

// GenerateConfig - 호출 단위 생성 설정
// PollInterval 0이면 adapter Config의 값을 사용한다.
type GenerateConfig struct {
	AspectRatio     string // 16:9, 9:16
	Resolution      string // 720p, 1080p
	NegativePrompt  string
	PollInterval    time.Duration
	MaxPollAttempts int
}

// VideoRef - backend-native 비디오 핸들 (opaque)
// Extend의 유일한 유효 입력이다. 다운로드된 파일로는 재구성할 수 없고,
// 다른 backend의 핸들과는 타입이 달라 컴파일 자체가 안 된다.
type VideoRef struct {
	URI             string
	OperationID     string
	AspectRatio     string
	Resolution      string
	DurationSeconds float64 // 이 핸들이 가리키는 비디오의 누적 길이
	Extensions      int     // 이 핸들을 만들기까지의 extension 횟수
}

// ---- Veo REST 요청/응답 구조체 ----

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt          string           `json:"prompt"`
	Image           *inlineImage     `json:"image,omitempty"`
	LastFrame       *inlineImage     `json:"lastFrame,omitempty"`
	ReferenceImages []referenceImage `json:"referenceImages,omitempty"`
	Video           *videoInput      `json:"video,omitempty"`
}

type inlineImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type referenceImage struct {
	Image         inlineImage `json:"image"`
	ReferenceType string      `json:"referenceType"` // "asset"
}

type videoInput struct {
	URI string `json:"uri"`
}

type predictParameters struct {
	AspectRatio      string `json:"aspectRatio,omitempty"`
	Resolution       string `json:"resolution,omitempty"`
	DurationSeconds  int    `json:"durationSeconds,omitempty"`
	NegativePrompt   string `json:"negativePrompt,omitempty"`
	PersonGeneration string `json:"personGeneration,omitempty"`
}

type operationResponse struct {
	Name     string           `json:"name"`
	Done     bool             `json:"done"`
	Error    *operationError  `json:"error,omitempty"`
	Response *operationResult `json:"response,omitempty"`
}

type operationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type operationResult struct {
	GenerateVideoResponse struct {
		GeneratedSamples []struct {
			Video struct {
				URI string `json:"uri"`
			} `json:"video"`
		} `json:"generatedSamples"`
	} `json:"generateVideoResponse"`
}
