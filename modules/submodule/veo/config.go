package veo

import (
	"time"

	appconfig "quel-video-server/modules/common/config"
)

// Config - Veo adapter 설정
// PollInterval / MaxPollAttempts는 호출마다 GenerateConfig로 덮어쓸 수 있다.
type Config struct {
	APIBaseURL      string
	APIKey          string
	Model           string
	OutputDir       string
	PollInterval    time.Duration
	MaxPollAttempts int
}

// ConfigFromApp - 앱 전역 설정에서 Veo 설정 구성
func ConfigFromApp(cfg *appconfig.Config) Config {
	return Config{
		APIBaseURL:      cfg.VeoAPIBaseURL,
		APIKey:          cfg.VeoAPIKey,
		Model:           cfg.VeoModel,
		OutputDir:       cfg.OutputDir,
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.MaxPollAttempts,
	}
}
