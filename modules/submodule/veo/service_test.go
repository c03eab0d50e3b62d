package veo

import (
	"context"
	"encoding/json"
	"fmt"
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
		APIBaseURL:      serverURL,
		APIKey:          "test-key",
		Model:           "veo-test",
		OutputDir:       t.TempDir(),
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 5,
	})
	require.NotNil(t, svc)
	return svc
}

// happyBackend - submit → poll → download 전체를 흉내내는 테스트 서버
// 제출된 predictRequest들을 기록한다.
type happyBackend struct {
	server    *httptest.Server
	submitted []predictRequest
	pollHits  int
}

func newHappyBackend(t *testing.T) *happyBackend {
	t.Helper()
	b := &happyBackend{}

	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ":predictLongRunning"):
			var req predictRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			b.submitted = append(b.submitted, req)
			json.NewEncoder(w).Encode(map[string]string{
				"name": fmt.Sprintf("operations/op-%d", len(b.submitted)),
			})

		case strings.HasPrefix(r.URL.Path, "/v1beta/operations/"):
			b.pollHits++
			opID := strings.TrimPrefix(r.URL.Path, "/v1beta/")
			fmt.Fprintf(w, `{
				"name": %q,
				"done": true,
				"response": {
					"generateVideoResponse": {
						"generatedSamples": [{"video": {"uri": %q}}]
					}
				}
			}`, opID, b.server.URL+"/files/"+opID+".mp4")

		case strings.HasPrefix(r.URL.Path, "/files/"):
			w.Write([]byte("fake-mp4-bytes"))

		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(b.server.Close)
	return b
}

func TestGenerateBaseFullFlow(t *testing.T) {
	backend := newHappyBackend(t)
	svc := newTestService(t, backend.server.URL)

	clip, ref, err := svc.GenerateBase(context.Background(), "a cat on a windowsill", GenerateConfig{})
	require.NoError(t, err)

	assert.Equal(t, video.ClipCompleted, clip.Status)
	assert.Equal(t, Name, clip.SourceBackend)
	assert.Equal(t, 8.0, clip.DurationSeconds)

	// artifact가 실제로 로컬에 저장된 후에만 completed
	data, err := os.ReadFile(clip.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "fake-mp4-bytes", string(data))

	// 반환된 핸들은 extension의 anchor
	assert.NotEmpty(t, ref.URI)
	assert.Equal(t, 0, ref.Extensions)
	assert.Equal(t, 8.0, ref.DurationSeconds)
	assert.Equal(t, "16:9", ref.AspectRatio)

	// base/extension 모드의 compliance 파라미터
	require.Len(t, backend.submitted, 1)
	assert.Equal(t, "allow_all", backend.submitted[0].Parameters.PersonGeneration)
	assert.Equal(t, 8, backend.submitted[0].Parameters.DurationSeconds)
}

func TestExtendThreadsHandle(t *testing.T) {
	backend := newHappyBackend(t)
	svc := newTestService(t, backend.server.URL)

	_, ref, err := svc.GenerateBase(context.Background(), "a cat on a windowsill", GenerateConfig{})
	require.NoError(t, err)

	clip, newRef, err := svc.Extend(context.Background(), ref, "the cat jumps down", GenerateConfig{})
	require.NoError(t, err)

	assert.Equal(t, 7.0, clip.DurationSeconds)
	assert.Equal(t, 15.0, newRef.DurationSeconds)
	assert.Equal(t, 1, newRef.Extensions)

	// extension 요청에 직전 핸들의 URI가 실려야 한다
	require.Len(t, backend.submitted, 2)
	extInstance := backend.submitted[1].Instances[0]
	require.NotNil(t, extInstance.Video)
	assert.Equal(t, ref.URI, extInstance.Video.URI)
	assert.Equal(t, 7, backend.submitted[1].Parameters.DurationSeconds)
}

func TestExtendChainLimitsCheckedBeforeNetwork(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	svc := newTestService(t, srv.URL)

	validRef := VideoRef{
		URI:             "backend://video",
		AspectRatio:     "16:9",
		Resolution:      "720p",
		DurationSeconds: 8,
	}

	tests := []struct {
		name string
		ref  VideoRef
		gc   GenerateConfig
	}{
		{
			name: "extension count at maximum",
			ref:  VideoRef{URI: "backend://video", AspectRatio: "16:9", Resolution: "720p", DurationSeconds: 141, Extensions: MaxExtensions},
		},
		{
			name: "cumulative duration over ceiling",
			ref:  VideoRef{URI: "backend://video", AspectRatio: "16:9", Resolution: "720p", DurationSeconds: 142, Extensions: 5},
		},
		{
			name: "empty handle",
			ref:  VideoRef{},
		},
		{
			name: "aspect ratio mismatch",
			ref:  validRef,
			gc:   GenerateConfig{AspectRatio: "9:16"},
		},
		{
			name: "resolution mismatch",
			ref:  validRef,
			gc:   GenerateConfig{Resolution: "1080p"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Extend(context.Background(), tt.ref, "next scene", tt.gc)
			require.Error(t, err)
			assert.True(t, video.IsChainLimit(err), "expected chain limit error, got %v", err)
		})
	}

	// 한도 검증은 전부 로컬 - 서버는 한 번도 맞지 않는다
	assert.Equal(t, 0, hits)
}

func TestPollTimeoutWithinBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ":predictLongRunning") {
			json.NewEncoder(w).Encode(map[string]string{"name": "operations/op-slow"})
			return
		}
		// 영원히 running
		json.NewEncoder(w).Encode(map[string]interface{}{"name": "operations/op-slow", "done": false})
	}))
	defer srv.Close()

	svc := newTestService(t, srv.URL)

	_, _, err := svc.GenerateBase(context.Background(), "prompt", GenerateConfig{
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 3,
	})

	require.Error(t, err)
	assert.True(t, video.IsTimeout(err), "expected timeout error, got %v", err)

	var timeoutErr *video.OperationTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 3, timeoutErr.Attempts)
	assert.Equal(t, "operations/op-slow", timeoutErr.OperationID)
}

func TestBackendErrorPreservedVerbatim(t *testing.T) {
	const rawMessage = "The prompt violates the usage policy: depicts restricted content"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ":predictLongRunning") {
			json.NewEncoder(w).Encode(map[string]string{"name": "operations/op-bad"})
			return
		}
		fmt.Fprintf(w, `{"name": "operations/op-bad", "done": true, "error": {"code": 400, "message": %q}}`, rawMessage)
	}))
	defer srv.Close()

	svc := newTestService(t, srv.URL)

	_, _, err := svc.GenerateBase(context.Background(), "prompt", GenerateConfig{})
	require.Error(t, err)

	var backendErr *video.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, rawMessage, backendErr.RawMessage)
	assert.Equal(t, 400, backendErr.StatusCode)
}

func TestGenerateWithReferencesValidatesCount(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	svc := newTestService(t, srv.URL)

	img := video.InputImage{Data: "aW1hZ2U=", MimeType: "image/png"}

	_, err := svc.GenerateWithReferences(context.Background(), "prompt", nil, GenerateConfig{})
	var validationErr *video.ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.GenerateWithReferences(context.Background(), "prompt", []video.InputImage{img, img, img, img}, GenerateConfig{})
	require.ErrorAs(t, err, &validationErr)

	assert.Equal(t, 0, hits)
}

func TestGenerateWithReferencesCompliance(t *testing.T) {
	backend := newHappyBackend(t)
	svc := newTestService(t, backend.server.URL)

	img := video.InputImage{Data: "aW1hZ2U=", MimeType: "image/png"}
	_, err := svc.GenerateWithReferences(context.Background(), "the subject walks forward", []video.InputImage{img}, GenerateConfig{})
	require.NoError(t, err)

	// reference/interpolation 모드는 다른 compliance 값을 요구한다
	require.Len(t, backend.submitted, 1)
	assert.Equal(t, "allow_adult", backend.submitted[0].Parameters.PersonGeneration)
	require.Len(t, backend.submitted[0].Instances[0].ReferenceImages, 1)
	assert.Equal(t, "asset", backend.submitted[0].Instances[0].ReferenceImages[0].ReferenceType)
}

func TestGenerateInterpolatedRequiresBothFrames(t *testing.T) {
	svc := newTestService(t, "http://unused.invalid")

	img := video.InputImage{Data: "ZnJhbWU=", MimeType: "image/png"}

	_, err := svc.GenerateInterpolated(context.Background(), "prompt", img, video.InputImage{}, GenerateConfig{})
	var validationErr *video.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Fields, 1)

	_, err = svc.GenerateInterpolated(context.Background(), "prompt", video.InputImage{}, video.InputImage{}, GenerateConfig{})
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Fields, 2)
}
