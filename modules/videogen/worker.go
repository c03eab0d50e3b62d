package videogen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"quel-video-server/modules/common/config"
	"quel-video-server/modules/common/database"
	"quel-video-server/modules/common/fallback"
	"quel-video-server/modules/common/model"
	redisClient "quel-video-server/modules/common/redis"
	"quel-video-server/modules/common/storage"
	"quel-video-server/modules/common/utils"
	"quel-video-server/modules/common/video"
	"quel-video-server/modules/submodule/ltx"
	"quel-video-server/modules/submodule/sceneprompt"
	"quel-video-server/modules/submodule/veo"
)

// ProgressNotifier - Job 진행 상황을 구독자에게 push (websocket hub가 주입)
type ProgressNotifier func(jobID string, payload map[string]interface{})

// Worker - Redis 큐 기반 비디오 생성 worker
type Worker struct {
	rdb         *goredis.Client
	dbClient    *database.Client
	coordinator *Coordinator
	notify      ProgressNotifier
}

// NewWorker - Worker 생성 (adapter들 모두 조립)
func NewWorker(notify ProgressNotifier) *Worker {
	cfg := config.GetConfig()

	rdb := redisClient.Connect(cfg)
	if rdb == nil {
		log.Println("⚠️ [VideoWorker] Failed to connect to Redis")
		return nil
	}

	dbClient := database.NewClient()
	if dbClient == nil {
		log.Println("⚠️ [VideoWorker] Failed to initialize Database client")
		return nil
	}

	veoService := veo.NewService(veo.ConfigFromApp(cfg))
	if veoService == nil {
		log.Println("⚠️ [VideoWorker] Veo service unavailable")
		return nil
	}

	ltxService := ltx.NewService(ltx.ConfigFromApp(cfg))
	if ltxService == nil {
		log.Println("⚠️ [VideoWorker] LTX service unavailable")
		return nil
	}

	// scene prompt writer는 선택 사항 - 없으면 Coordinator가 base 프롬프트로 fallback
	var promptWriter ScenePromptWriter
	if promptService := sceneprompt.NewService(); promptService != nil {
		promptWriter = promptService
	}

	if notify == nil {
		notify = func(string, map[string]interface{}) {}
	}

	log.Println("✅ [VideoWorker] Worker initialized")
	return &Worker{
		rdb:         rdb,
		dbClient:    dbClient,
		coordinator: NewCoordinator(veoService, ltxService, promptWriter),
		notify:      notify,
	}
}

// StartWorker - BRPOP 루프 시작 (blocking, goroutine에서 호출)
func (w *Worker) StartWorker() {
	log.Printf("🚀 [VideoWorker] Listening on queue: %s", redisClient.VideoQueueKey)

	ctx := context.Background()

	for {
		result, err := w.rdb.BRPop(ctx, 0, redisClient.VideoQueueKey).Result()
		if err != nil {
			log.Printf("❌ [VideoWorker] BRPOP error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		jobID := result[1]
		log.Printf("📨 [VideoWorker] Picked up job: %s", jobID)

		// 비디오 생성은 길고 clip 순서가 엄격하므로 한 번에 하나씩 처리
		w.processVideoJob(ctx, jobID)
	}
}

// processVideoJob - Job 하나를 끝까지 처리
func (w *Worker) processVideoJob(ctx context.Context, jobID string) {
	job, err := w.dbClient.FetchVideoJob(jobID)
	if err != nil {
		log.Printf("❌ [VideoWorker] Failed to fetch job %s: %v", jobID, err)
		return
	}

	if err := w.dbClient.UpdateJobStatus(ctx, jobID, model.StatusProcessing); err != nil {
		log.Printf("⚠️ [VideoWorker] Failed to mark job processing: %v", err)
	}
	w.notify(jobID, map[string]interface{}{
		"type":   "status",
		"job_id": jobID,
		"status": model.StatusProcessing,
	})

	req, err := parseJobInput(job)
	if err != nil {
		w.failJob(ctx, jobID, "invalid job input: "+err.Error())
		return
	}

	w.prepareInputImages(req)

	// clip 진행 상황을 DB와 websocket 구독자 양쪽에 전달
	w.coordinator.OnProgress = func(completed, total int) {
		if err := w.dbClient.UpdateJobProgress(ctx, jobID, completed, total); err != nil {
			log.Printf("⚠️ [VideoWorker] Failed to persist progress: %v", err)
		}
		w.notify(jobID, map[string]interface{}{
			"type":            "progress",
			"job_id":          jobID,
			"completed_clips": completed,
			"total_clips":     total,
		})
	}

	result, err := w.coordinator.GenerateVideo(ctx, req)
	if err != nil {
		w.failJob(ctx, jobID, err.Error())
		return
	}

	status := model.StatusCompleted
	if result.Status == video.ChainPartial {
		status = model.StatusPartial
	}

	resultData, usageData := encodeResult(result)
	if err := w.dbClient.UpdateJobCompleted(ctx, jobID, status, resultData, usageData); err != nil {
		log.Printf("❌ [VideoWorker] Failed to persist result for %s: %v", jobID, err)
	}

	w.notify(jobID, map[string]interface{}{
		"type":            "done",
		"job_id":          jobID,
		"status":          status,
		"completed_clips": result.CompletedClips,
		"total_clips":     result.TotalClips,
		"total_duration":  result.TotalDurationSeconds,
		"final_artifact":  result.FinalArtifactPath,
	})

	log.Printf("🎉 [VideoWorker] Job %s finished: %s (%d/%d clips, %.0fs)",
		jobID, status, result.CompletedClips, result.TotalClips, result.TotalDurationSeconds)
}

func (w *Worker) failJob(ctx context.Context, jobID string, message string) {
	if err := w.dbClient.UpdateJobFailed(ctx, jobID, message); err != nil {
		log.Printf("❌ [VideoWorker] Failed to mark job failed: %v", err)
	}
	w.notify(jobID, map[string]interface{}{
		"type":   "done",
		"job_id": jobID,
		"status": model.StatusFailed,
		"error":  message,
	})
}

// parseJobInput - job_input_data JSONB → GenerationRequest
// struct round-trip 후 헐거운 필드는 fallback helper로 한 번 더 보정한다.
func parseJobInput(job *model.VideoJob) (*GenerationRequest, error) {
	raw, err := json.Marshal(job.JobInputData)
	if err != nil {
		return nil, err
	}

	var input model.VideoJobInputData
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, err
	}

	input.Prompt = fallback.SafeString(job.JobInputData["prompt"], input.Prompt)
	input.Mode = fallback.SafeString(job.JobInputData["mode"], input.Mode)
	input.TargetDurationSeconds = fallback.SafeFloat(job.JobInputData["targetDurationSeconds"], input.TargetDurationSeconds)
	input.AspectRatio = fallback.SafeAspectRatio(job.JobInputData["aspectRatio"])

	return RequestFromJobInput(&input), nil
}

// prepareInputImages - 입력 이미지를 backend가 받는 포맷으로 정규화하고 storage에 보관
// 보관 실패는 생성을 막지 않는다.
func (w *Worker) prepareInputImages(req *GenerationRequest) {
	for i := range req.ReferenceImages {
		normalizeImage(&req.ReferenceImages[i], req.UserID, true)
	}
	if req.FirstFrame != nil {
		normalizeImage(req.FirstFrame, req.UserID, false)
	}
	if req.LastFrame != nil {
		normalizeImage(req.LastFrame, req.UserID, false)
	}
}

func normalizeImage(img *video.InputImage, userID string, archive bool) {
	if img.Data == "" {
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		log.Printf("⚠️ [VideoWorker] Failed to decode input image, passing through: %v", err)
		return
	}

	converted, mimeType, err := utils.EnsurePNG(decoded)
	if err != nil {
		log.Printf("⚠️ [VideoWorker] Failed to normalize input image, passing through: %v", err)
		return
	}

	img.Data = utils.ConvertImageToBase64(converted)
	img.MimeType = mimeType

	if archive {
		if _, _, err := storage.UploadImageToStorage(decoded, userID); err != nil {
			log.Printf("⚠️ [VideoWorker] Reference image archival failed: %v", err)
		}
	}
}

// encodeResult - ChainResult → JSONB 저장용 map 두 개 (result, usage)
func encodeResult(result *video.ChainResult) (map[string]interface{}, map[string]interface{}) {
	resultData := map[string]interface{}{}
	if raw, err := json.Marshal(result); err == nil {
		json.Unmarshal(raw, &resultData)
	}

	usageData := map[string]interface{}{}
	for provider, count := range result.ProviderUsage {
		usageData[provider] = count
	}

	return resultData, usageData
}
