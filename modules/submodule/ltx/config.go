package ltx

import (
	"time"

	appconfig "quel-video-server/modules/common/config"
)

// Config - LTX adapter 설정 (Runware task API 경유)
type Config struct {
	APIURL          string
	APIKey          string
	Model           string
	OutputDir       string
	PollInterval    time.Duration
	MaxPollAttempts int
}

// ConfigFromApp - 앱 전역 설정에서 LTX 설정 구성
func ConfigFromApp(cfg *appconfig.Config) Config {
	return Config{
		APIURL:          cfg.RunwareAPIURL,
		APIKey:          cfg.RunwareAPIKey,
		Model:           cfg.LTXModel,
		OutputDir:       cfg.OutputDir,
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.MaxPollAttempts,
	}
}
