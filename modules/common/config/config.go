package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase
	SupabaseURL            string
	SupabaseServiceKey     string
	SupabaseStorageBaseURL string

	// Gemini API (scene prompt writer + Veo)
	GeminiAPIKeys   []string
	GeminiTextModel string

	// Veo (extension-capable video backend)
	VeoAPIBaseURL string
	VeoAPIKey     string
	VeoModel      string

	// Runware (LTX long-form video backend)
	RunwareAPIURL string
	RunwareAPIKey string
	LTXModel      string

	// Video output
	OutputDir string

	// Polling (각 generation operation의 상태 조회 주기)
	PollInterval    time.Duration
	MaxPollAttempts int

	// Server
	Port string
}

var globalConfig *Config

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	// Redis UseTLS 파싱
	useTLS := true // 기본값
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		if parsed, err := strconv.ParseBool(tlsStr); err == nil {
			useTLS = parsed
		}
	}

	// Gemini API 키 (보조 키는 429 재시도용)
	geminiKeys := []string{}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		geminiKeys = append(geminiKeys, key)
	}
	if key := os.Getenv("GEMINI_API_KEY_SECONDARY"); key != "" {
		geminiKeys = append(geminiKeys, key)
	}

	pollInterval := 10 * time.Second
	if secStr := os.Getenv("POLL_INTERVAL_SECONDS"); secStr != "" {
		if parsed, err := strconv.Atoi(secStr); err == nil && parsed > 0 {
			pollInterval = time.Duration(parsed) * time.Second
		}
	}

	maxPollAttempts := 60 // 10초 간격 x 60회 = 약 10분
	if attStr := os.Getenv("MAX_POLL_ATTEMPTS"); attStr != "" {
		if parsed, err := strconv.Atoi(attStr); err == nil && parsed > 0 {
			maxPollAttempts = parsed
		}
	}

	veoKey := os.Getenv("VEO_API_KEY")
	if veoKey == "" && len(geminiKeys) > 0 {
		// Veo는 Gemini API 키를 그대로 사용 가능
		veoKey = geminiKeys[0]
	}

	globalConfig = &Config{
		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   useTLS,

		// Supabase
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBaseURL: getEnv("SUPABASE_STORAGE_BASE_URL", ""),

		// Gemini
		GeminiAPIKeys:   geminiKeys,
		GeminiTextModel: getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),

		// Veo
		VeoAPIBaseURL: getEnv("VEO_API_BASE_URL", "https://generativelanguage.googleapis.com"),
		VeoAPIKey:     veoKey,
		VeoModel:      getEnv("VEO_MODEL", "veo-3.1-generate-preview"),

		// Runware / LTX
		RunwareAPIURL: getEnv("RUNWARE_API_URL", "https://api.runware.ai/v1"),
		RunwareAPIKey: getEnv("RUNWARE_API_KEY", ""),
		LTXModel:      getEnv("LTX_MODEL", "lightricks:ltx-2"),

		// Output
		OutputDir: getEnv("VIDEO_OUTPUT_DIR", "output/videos"),

		// Polling
		PollInterval:    pollInterval,
		MaxPollAttempts: maxPollAttempts,

		// Server
		Port: getEnv("PORT", "8080"),
	}

	// 필수 환경변수 검증
	if err := globalConfig.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Redis: %s:%s (TLS: %v)", globalConfig.RedisHost, globalConfig.RedisPort, globalConfig.RedisUseTLS)
	log.Printf("   Supabase: %s", globalConfig.SupabaseURL)
	log.Printf("   Veo model: %s", globalConfig.VeoModel)
	log.Printf("   LTX model: %s (via Runware)", globalConfig.LTXModel)
	log.Printf("   Output dir: %s", globalConfig.OutputDir)
	log.Printf("   Polling: every %s, max %d attempts", globalConfig.PollInterval, globalConfig.MaxPollAttempts)

	return globalConfig, nil
}

// GetConfig - 로드된 설정 가져오기
func GetConfig() *Config {
	if globalConfig == nil {
		log.Fatal("❌ Config not loaded. Call LoadConfig() first.")
	}
	return globalConfig
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.VeoAPIKey == "" {
		return fmt.Errorf("VEO_API_KEY or GEMINI_API_KEY is required")
	}
	if c.RunwareAPIKey == "" {
		return fmt.Errorf("RUNWARE_API_KEY is required")
	}
	return nil
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
