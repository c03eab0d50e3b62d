package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/supabase-community/supabase-go"
	"quel-video-server/modules/common/config"
	"quel-video-server/modules/common/model"
)

type Client struct {
	supabase *supabase.Client
}

// NewClient - Database 클라이언트 생성
func NewClient() *Client {
	cfg := config.GetConfig()

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ Failed to create Supabase client: %v", err)
		return nil
	}

	return &Client{
		supabase: supabaseClient,
	}
}

// CreateVideoJob - quel_video_jobs 테이블에 레코드 생성
func (c *Client) CreateVideoJob(ctx context.Context, jobID string, userID string, inputData map[string]interface{}) error {
	log.Printf("💾 Creating video job record: %s", jobID)

	insertData := map[string]interface{}{
		"job_id":         jobID,
		"job_type":       "video_generation",
		"job_status":     model.StatusPending,
		"job_input_data": inputData,
	}
	if userID != "" {
		insertData["user_id"] = userID
	}

	_, _, err := c.supabase.From("quel_video_jobs").
		Insert(insertData, false, "", "", "").
		Execute()

	if err != nil {
		return fmt.Errorf("failed to insert video job: %w", err)
	}

	log.Printf("✅ Video job record created: %s", jobID)
	return nil
}

// FetchVideoJob - Supabase에서 Job 데이터 조회
func (c *Client) FetchVideoJob(jobID string) (*model.VideoJob, error) {
	log.Printf("🔍 Fetching video job from Supabase: %s", jobID)

	var jobs []model.VideoJob

	data, _, err := c.supabase.From("quel_video_jobs").
		Select("*", "exact", false).
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to query Supabase: %w", err)
	}

	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("video job not found: %s", jobID)
	}

	job := &jobs[0]
	log.Printf("✅ Video job fetched: %s (status: %s)", job.JobID, job.JobStatus)

	return job, nil
}

// UpdateJobStatus - Job 상태 업데이트
func (c *Client) UpdateJobStatus(ctx context.Context, jobID string, status string) error {
	log.Printf("📝 Updating video job %s status to: %s", jobID, status)

	updateData := map[string]interface{}{
		"job_status": status,
		"updated_at": "now()",
	}

	if status == model.StatusProcessing {
		updateData["started_at"] = "now()"
	} else if status == model.StatusCompleted || status == model.StatusFailed || status == model.StatusPartial {
		updateData["completed_at"] = "now()"
	}

	_, _, err := c.supabase.From("quel_video_jobs").
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	return nil
}

// UpdateJobProgress - 클립 단위 진행 상황 업데이트
func (c *Client) UpdateJobProgress(ctx context.Context, jobID string, completedClips, totalClips int) error {
	log.Printf("📊 Updating job %s progress: %d/%d clips", jobID, completedClips, totalClips)

	updateData := map[string]interface{}{
		"completed_clips": completedClips,
		"total_clips":     totalClips,
		"updated_at":      "now()",
	}

	_, _, err := c.supabase.From("quel_video_jobs").
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}

	return nil
}

// UpdateJobCompleted - ChainResult payload와 함께 완료 처리
// status는 "completed" 또는 "partial" (partial도 완료된 클립은 유지)
func (c *Client) UpdateJobCompleted(ctx context.Context, jobID string, status string, resultData map[string]interface{}, providerUsage map[string]interface{}) error {
	updateData := map[string]interface{}{
		"job_status":     status,
		"result_data":    resultData,
		"provider_usage": providerUsage,
		"completed_at":   "now()",
		"updated_at":     "now()",
	}

	_, _, err := c.supabase.From("quel_video_jobs").
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	log.Printf("✅ Video job %s marked %s", jobID, status)
	return nil
}

// UpdateJobFailed - Job 실패 처리 (에러 메시지 원문 보존)
func (c *Client) UpdateJobFailed(ctx context.Context, jobID string, errorMessage string) error {
	log.Printf("❌ Marking video job %s as failed: %s", jobID, errorMessage)

	updateData := map[string]interface{}{
		"job_status":    model.StatusFailed,
		"error_message": errorMessage,
		"completed_at":  "now()",
		"updated_at":    "now()",
	}

	_, _, err := c.supabase.From("quel_video_jobs").
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	return nil
}
