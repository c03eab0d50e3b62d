package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"quel-video-server/modules/common/config"
	"quel-video-server/modules/videogen"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 프론트는 별도 도메인에서 접근
	},
}

// ProgressHub - job 단위 websocket 구독 관리
// worker가 클립 진행 상황을 push하면 해당 job 구독자 전원에게 전달한다.
type ProgressHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*websocket.Conn]bool // jobID → connections
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		subscribers: make(map[string]map[*websocket.Conn]bool),
	}
}

func (h *ProgressHub) Subscribe(jobID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[jobID] == nil {
		h.subscribers[jobID] = make(map[*websocket.Conn]bool)
	}
	h.subscribers[jobID][conn] = true
	log.Printf("🔌 [Hub] Subscriber added for job %s (total: %d)", jobID, len(h.subscribers[jobID]))
}

func (h *ProgressHub) Unsubscribe(jobID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.subscribers[jobID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.subscribers, jobID)
		}
	}
}

// Broadcast - job 구독자 전원에게 JSON payload 전송 (videogen.ProgressNotifier 시그니처)
func (h *ProgressHub) Broadcast(jobID string, payload map[string]interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := h.subscribers[jobID]
	if len(conns) == 0 {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️ [Hub] Failed to encode progress payload: %v", err)
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("⚠️ [Hub] Write failed, dropping subscriber: %v", err)
		}
	}
}

// handleProgressWS - GET /ws/progress?job_id=xxx
func (h *ProgressHub) handleProgressWS(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		http.Error(w, "job_id query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ [Hub] WebSocket upgrade failed: %v", err)
		return
	}

	h.Subscribe(jobID, conn)

	// 클라이언트가 끊을 때까지 read loop 유지
	go func() {
		defer func() {
			h.Unsubscribe(jobID, conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"service": "quel-video-server",
		})
	}).Methods("GET")

	// Video generation API
	handler := videogen.NewHandler()
	if handler == nil {
		log.Fatal("❌ Failed to initialize video generation handler")
	}
	handler.RegisterRoutes(r)

	// Progress websocket
	hub := NewProgressHub()
	r.HandleFunc("/ws/progress", hub.handleProgressWS)

	// Queue worker
	worker := videogen.NewWorker(hub.Broadcast)
	if worker == nil {
		log.Fatal("❌ Failed to initialize video generation worker")
	}
	go worker.StartWorker()

	addr := ":" + cfg.Port
	log.Printf("🚀 quel-video-server listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
}
