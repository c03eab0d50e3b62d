package ltx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quel-video-server/modules/common/video"
)

func newTestService(t *testing.T, serverURL string) *Service {
	t.Helper()
	svc := NewService(Config{
		APIURL:          serverURL,
		APIKey:          "test-key",
		Model:           "lightricks:ltx-2",
		OutputDir:       t.TempDir(),
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 3,
	})
	require.NotNil(t, svc)
	return svc
}

// newRunwareStub - 제출된 태스크를 기록하고 바로 videoURL을 반환하는 서버
func newRunwareStub(t *testing.T, submitted *[]runwareTask) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/files/") {
			w.Write([]byte("fake-mp4-bytes"))
			return
		}

		var tasks []runwareTask
		require.NoError(t, json.NewDecoder(r.Body).Decode(&tasks))
		require.Len(t, tasks, 1)
		*submitted = append(*submitted, tasks[0])

		json.NewEncoder(w).Encode(runwareResponse{
			Data: []runwareTaskResult{{
				TaskUUID: tasks[0].TaskUUID,
				Status:   "success",
				VideoURL: srv.URL + "/files/" + tasks[0].TaskUUID + ".mp4",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTextToVideoFrameCount(t *testing.T) {
	var submitted []runwareTask
	srv := newRunwareStub(t, &submitted)
	svc := newTestService(t, srv.URL)

	clip, err := svc.TextToVideo(context.Background(), "a glacier calving into the sea", GenerateConfig{
		DurationSeconds: 180,
		FPS:             24,
	})
	require.NoError(t, err)

	// 프레임 수 = round(duration × fps)
	require.Len(t, submitted, 1)
	task := submitted[0]
	assert.Equal(t, "videoInference", task.TaskType)
	assert.Equal(t, 4320, task.FrameCount)
	assert.Equal(t, 24, task.FPS)
	assert.Equal(t, 1920, task.Width)
	assert.Equal(t, 1080, task.Height)
	assert.Equal(t, DefaultSteps, task.Steps)
	assert.Equal(t, DefaultCFGScale, task.CFGScale)
	assert.NotEmpty(t, task.TaskUUID)

	assert.Equal(t, video.ClipCompleted, clip.Status)
	assert.Equal(t, Name, clip.SourceBackend)
	assert.Equal(t, 180.0, clip.DurationSeconds)

	data, err := os.ReadFile(clip.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "fake-mp4-bytes", string(data))
}

func TestFractionalDurationRounding(t *testing.T) {
	var submitted []runwareTask
	srv := newRunwareStub(t, &submitted)
	svc := newTestService(t, srv.URL)

	// 10.5초 × 24fps = 252프레임, 정수가 아닌 프레임 수는 거부되므로 반올림
	_, err := svc.TextToVideo(context.Background(), "prompt", GenerateConfig{
		DurationSeconds: 10.5,
		FPS:             24,
	})
	require.NoError(t, err)
	require.Len(t, submitted, 1)
	assert.Equal(t, 252, submitted[0].FrameCount)
}

func TestValidationCollectsAllFields(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	svc := newTestService(t, srv.URL)

	_, err := svc.TextToVideo(context.Background(), "prompt", GenerateConfig{
		DurationSeconds: 1200,   // > 900
		FPS:             22,     // {24, 25, 30}에 없음
		AspectRatio:     "21:9", // 지원 안 함
		Steps:           99,     // > 60
		CFGScale:        50,     // > 20
	})

	var validationErr *video.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, Name, validationErr.Backend)

	// 첫 번째 필드만이 아니라 위반된 필드 전부
	require.Len(t, validationErr.Fields, 5)
	joined := strings.Join(validationErr.Fields, "\n")
	assert.Contains(t, joined, "duration")
	assert.Contains(t, joined, "fps")
	assert.Contains(t, joined, "aspectRatio")
	assert.Contains(t, joined, "steps")
	assert.Contains(t, joined, "cfgScale")

	// 사전 검증 실패는 네트워크 호출 전에 끝난다
	assert.Equal(t, 0, hits)
}

func TestImageToVideoBuildsDataURL(t *testing.T) {
	var submitted []runwareTask
	srv := newRunwareStub(t, &submitted)
	svc := newTestService(t, srv.URL)

	_, err := svc.ImageToVideo(context.Background(), "the statue turns its head", video.InputImage{
		Data:     "aW1hZ2U=",
		MimeType: "image/png",
	}, GenerateConfig{
		DurationSeconds: 30,
	})
	require.NoError(t, err)

	require.Len(t, submitted, 1)
	require.Len(t, submitted[0].ReferenceImages, 1)
	assert.Equal(t, "data:image/png;base64,aW1hZ2U=", submitted[0].ReferenceImages[0])
}

func TestImageToVideoRequiresImageData(t *testing.T) {
	svc := newTestService(t, "http://unused.invalid")

	_, err := svc.ImageToVideo(context.Background(), "prompt", video.InputImage{}, GenerateConfig{
		DurationSeconds: 30,
	})

	var validationErr *video.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, strings.Join(validationErr.Fields, "\n"), "referenceImage")
}

func TestPollUntilDoneTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tasks []runwareTask
		json.NewDecoder(r.Body).Decode(&tasks)

		// 제출도 폴링도 영원히 processing
		json.NewEncoder(w).Encode(runwareResponse{
			Data: []runwareTaskResult{{
				TaskUUID: tasks[0].TaskUUID,
				Status:   "processing",
			}},
		})
	}))
	defer srv.Close()

	svc := newTestService(t, srv.URL)

	_, err := svc.TextToVideo(context.Background(), "prompt", GenerateConfig{
		DurationSeconds: 60,
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 2,
	})

	require.Error(t, err)
	assert.True(t, video.IsTimeout(err), "expected timeout error, got %v", err)
}

func TestTaskErrorPreservedVerbatim(t *testing.T) {
	const rawMessage = "insufficient credits for video inference"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tasks []runwareTask
		json.NewDecoder(r.Body).Decode(&tasks)

		json.NewEncoder(w).Encode(runwareResponse{
			Data: []runwareTaskResult{{
				TaskUUID: tasks[0].TaskUUID,
				Status:   "error",
				Error:    rawMessage,
			}},
		})
	}))
	defer srv.Close()

	svc := newTestService(t, srv.URL)

	_, err := svc.TextToVideo(context.Background(), "prompt", GenerateConfig{DurationSeconds: 60})
	require.Error(t, err)

	var backendErr *video.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, rawMessage, backendErr.RawMessage)
}
