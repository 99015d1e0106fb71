package server

import (
	"net/http"
	"time"

	"ratecard-converter/internal/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const jobPushInterval = 500 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 跨域由 CORS 配置控制
	},
}

// handleJobSocket 持续推送任务状态，直到任务结束
func (s *Server) handleJobSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.svc.GetJob(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "job_id", id, "error", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(jobPushInterval)
	defer ticker.Stop()

	for {
		job, err := s.svc.GetJob(r.Context(), id)
		if err != nil {
			return
		}
		if err := conn.WriteJSON(job); err != nil {
			return
		}
		if job.Done() {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(job.Status)))
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
