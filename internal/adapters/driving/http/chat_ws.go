package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custodia-labs/docdash/internal/core/domain"
)

const (
	wsMaxMessageBytes = 64 << 10
	wsWriteWait       = 10 * time.Second
	wsPongWait        = 60 * time.Second
	wsPingPeriod      = wsPongWait * 9 / 10
)

// checkWebSocketOrigin applies the CORS allow-list to upgrades.
// Requests without an Origin header come from non-browser clients.
func (s *Server) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return originAllowed(s.allowedOrigins, origin)
}

// handleChatWebSocket godoc
// @Summary      Chat over a websocket
// @Description  Each text frame {"message": "..."} is answered with a chat response frame; failures are {"error": "..."} frames
// @Tags         Chat
// @Param        documentId  path  string  true  "Document ID"
// @Success      101
// @Failure      404  {object}  ErrorResponse
// @Router       /api/chat/{documentId}/ws [get]
func (s *Server) handleChatWebSocket(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("documentId")

	// Unknown documents fail before the upgrade with a plain 404
	if _, err := s.docService.Get(r.Context(), documentID); err != nil {
		s.writeServiceError(w, r, err, chatFailureMessage)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		s.logger.Warn("websocket upgrade failed", "document_id", documentID, "error", err)
		return
	}
	defer conn.Close()

	logger := s.logger.With("document_id", documentID)
	logger.Debug("chat websocket connected")

	conn.SetReadLimit(wsMaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(conn, done)

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("chat websocket read failed", "error", err)
			}
			return
		}

		var frame interface{}
		var req domain.ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			frame = ErrorResponse{Error: "invalid request body"}
		} else if resp, err := s.chatService.Ask(ctx, documentID, req); err != nil {
			status, message := errorStatus(err, chatFailureMessage)
			if status >= http.StatusInternalServerError {
				logger.Error("chat over websocket failed", "error", err)
			}
			frame = ErrorResponse{Error: message}
		} else {
			frame = resp
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(frame); err != nil {
			logger.Warn("chat websocket write failed", "error", err)
			return
		}
	}
}

// pingLoop keeps idle connections alive until done is closed.
func (s *Server) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
