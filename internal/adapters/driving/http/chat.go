package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/custodia-labs/docdash/internal/core/domain"
)

// chatFailureMessage is the only detail clients see for server-side chat failures
const chatFailureMessage = "Failed to process chat message"

// ChatHistoryResponse lists a document's conversation
// @Description Conversation, oldest first
type ChatHistoryResponse struct {
	Messages []*domain.ChatMessage `json:"messages"`
}

// handleChat godoc
// @Summary      Ask about a CSV document
// @Description  Answers a question by keyword matching, optionally with a chart descriptor
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        documentId  path      string              true  "Document ID"
// @Param        request     body      domain.ChatRequest  true  "Question"
// @Success      200         {object}  domain.ChatResponse
// @Failure      400         {object}  ErrorResponse
// @Failure      404         {object}  ErrorResponse
// @Failure      500         {object}  ErrorResponse
// @Router       /api/chat/{documentId} [post]
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.chatService.Ask(r.Context(), r.PathValue("documentId"), req)
	if err != nil {
		s.writeServiceError(w, r, err, chatFailureMessage)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChatHistory godoc
// @Summary      Chat history
// @Tags         Chat
// @Produce      json
// @Param        documentId  path      string  true   "Document ID"
// @Param        limit       query     int     false  "Most recent N messages"
// @Success      200         {object}  ChatHistoryResponse
// @Failure      400         {object}  ErrorResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /api/chat/{documentId}/history [get]
func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	messages, err := s.chatService.History(r.Context(), r.PathValue("documentId"), limit)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to load chat history")
		return
	}
	if messages == nil {
		messages = []*domain.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, ChatHistoryResponse{Messages: messages})
}

// handleClearChatHistory godoc
// @Summary      Clear chat history
// @Tags         Chat
// @Produce      json
// @Param        documentId  path      string  true  "Document ID"
// @Success      200         {object}  SuccessResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /api/chat/{documentId}/history [delete]
func (s *Server) handleClearChatHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.chatService.ClearHistory(r.Context(), r.PathValue("documentId")); err != nil {
		s.writeServiceError(w, r, err, "failed to clear chat history")
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
