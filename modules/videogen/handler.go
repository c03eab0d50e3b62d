package videogen

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	goredis "github.com/redis/go-redis/v9"

	"quel-video-server/modules/common/config"
	"quel-video-server/modules/common/database"
	redisClient "quel-video-server/modules/common/redis"
)

// Handler - 비디오 생성 Job API
type Handler struct {
	rdb      *goredis.Client
	dbClient *database.Client
}

// NewHandler - Handler 생성
func NewHandler() *Handler {
	cfg := config.GetConfig()

	rdb := redisClient.Connect(cfg)
	if rdb == nil {
		log.Println("⚠️ [VideoGen] Failed to connect to Redis")
		return nil
	}

	dbClient := database.NewClient()
	if dbClient == nil {
		log.Println("⚠️ [VideoGen] Failed to initialize Database client")
		return nil
	}

	log.Println("✅ [VideoGen] Handler initialized")
	return &Handler{
		rdb:      rdb,
		dbClient: dbClient,
	}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/video/generate", h.HandleGenerate).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/video/jobs/{job_id}", h.HandleJobStatus).Methods("GET", "OPTIONS")
	log.Println("✅ VideoGen routes registered: /api/video/generate, /api/video/jobs/{job_id}")
}

// HandleGenerate - POST /api/video/generate
// Job 레코드 생성 후 Redis 큐에 넣는다. 생성 자체는 worker가 수행.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req GenerateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [VideoGen] Invalid request: %v", err)
		json.NewEncoder(w).Encode(GenerateJobResponse{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	// 기본 shape 검증 - 세부 검증은 Coordinator가 수행
	if strings.TrimSpace(req.Prompt) == "" {
		json.NewEncoder(w).Encode(GenerateJobResponse{
			Success: false,
			Error:   "prompt is required",
		})
		return
	}
	if req.TargetDurationSeconds <= 0 {
		json.NewEncoder(w).Encode(GenerateJobResponse{
			Success: false,
			Error:   "targetDurationSeconds must be positive",
		})
		return
	}

	jobID := uuid.New().String()

	log.Printf("📥 [VideoGen] New generation job: %s (mode: %s, duration: %.0fs)",
		jobID, req.Mode, req.TargetDurationSeconds)

	// 요청을 JSONB 형태로 변환해 Job 레코드에 저장
	inputData, err := toInputDataMap(&req)
	if err != nil {
		log.Printf("❌ [VideoGen] Failed to encode input data: %v", err)
		json.NewEncoder(w).Encode(GenerateJobResponse{
			Success: false,
			Error:   "Failed to encode request",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.dbClient.CreateVideoJob(ctx, jobID, req.UserID, inputData); err != nil {
		log.Printf("❌ [VideoGen] Failed to create job record: %v", err)
		json.NewEncoder(w).Encode(GenerateJobResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	// Redis LPUSH
	if _, err := h.rdb.LPush(ctx, redisClient.VideoQueueKey, jobID).Result(); err != nil {
		log.Printf("❌ [VideoGen] Redis LPUSH failed: %v", err)
		json.NewEncoder(w).Encode(GenerateJobResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	queueLen, _ := h.rdb.LLen(ctx, redisClient.VideoQueueKey).Result()

	log.Printf("✅ [VideoGen] Job %s enqueued (position: %d)", jobID, queueLen)

	json.NewEncoder(w).Encode(GenerateJobResponse{
		Success:       true,
		Message:       "Video generation job enqueued",
		JobID:         jobID,
		Queue:         redisClient.VideoQueueKey,
		QueuePosition: queueLen,
	})
}

// HandleJobStatus - GET /api/video/jobs/{job_id}
func (h *Handler) HandleJobStatus(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	jobID := mux.Vars(r)["job_id"]
	if jobID == "" {
		http.Error(w, "job_id is required", http.StatusBadRequest)
		return
	}

	job, err := h.dbClient.FetchVideoJob(jobID)
	if err != nil {
		log.Printf("❌ [VideoGen] Failed to fetch job %s: %v", jobID, err)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	json.NewEncoder(w).Encode(job)
}

// toInputDataMap - 요청 구조체를 JSONB 저장용 map으로 변환
func toInputDataMap(req *GenerateJobRequest) (map[string]interface{}, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
