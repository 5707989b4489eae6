// ABOUTME: HTTP API handlers for users, sessions, messages, memories, and tokens
// ABOUTME: Thin JSON layer over the conversation service and the stores

package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/DealExMachina/voice-agent-mastra-demo/internal/extract"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/livekit"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/store"
)

// CreateUserRequest is the JSON request body for POST /api/users.
type CreateUserRequest struct {
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

// UserResponse is the JSON representation of a user.
type UserResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Preferences map[string]any `json:"preferences,omitempty"`
	CreatedAt   string         `json:"created_at"`
}

// CreateSessionRequest is the JSON request body for POST /api/sessions.
type CreateSessionRequest struct {
	UserID   string         `json:"user_id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SessionResponse is the JSON representation of a session.
type SessionResponse struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Status    string         `json:"status"`
	StartTime string         `json:"start_time"`
	EndTime   *string        `json:"end_time,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	UpdatedAt string         `json:"updated_at"`
}

// MessageResponse is the JSON representation of a message.
type MessageResponse struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	Sender     string         `json:"sender"`
	Kind       string         `json:"kind"`
	Content    string         `json:"content"`
	Confidence *float64       `json:"confidence,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

// SessionDetailResponse is the JSON response for GET /api/sessions/{id}.
type SessionDetailResponse struct {
	Session  SessionResponse   `json:"session"`
	Messages []MessageResponse `json:"messages"`
}

// PostMessageRequest is the JSON request body for POST /api/messages.
type PostMessageRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Content   string `json:"content"`
}

// PostMessageResponse is the JSON response for POST /api/messages.
type PostMessageResponse struct {
	Message         MessageResponse  `json:"message"`
	AgentMessage    *MessageResponse `json:"agent_message,omitempty"`
	Entities        []extract.Entity `json:"entities"`
	Memories        []MemoryResponse `json:"memories"`
	EnrichmentError string           `json:"enrichment_error,omitempty"`
}

// MemoryResponse is the JSON representation of a memory.
type MemoryResponse struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Content      string   `json:"content"`
	UserID       string   `json:"user_id"`
	SessionID    string   `json:"session_id,omitempty"`
	MessageID    string   `json:"message_id,omitempty"`
	EntityValues []string `json:"entity_values,omitempty"`
	Importance   float64  `json:"importance"`
	Tags         []string `json:"tags,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

// TokenRequest is the JSON request body for POST /api/livekit/token.
type TokenRequest struct {
	RoomName        string `json:"room_name"`
	ParticipantName string `json:"participant_name"`
}

// AIStatusResponse is the JSON response for GET /api/ai/status.
type AIStatusResponse struct {
	MastraReady bool `json:"mastra_ready"`
	MemoryReady bool `json:"memory_ready"`
}

// ExtractRequest is the JSON request body for POST /api/ai/entities/extract.
type ExtractRequest struct {
	Text string `json:"text"`
}

func userResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Preferences: u.Preferences,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}

func sessionResponse(s *store.Session) SessionResponse {
	resp := SessionResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		Status:    s.Status,
		StartTime: s.StartTime.Format(time.RFC3339),
		Metadata:  s.Metadata,
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
	if s.EndTime != nil {
		endTime := s.EndTime.Format(time.RFC3339)
		resp.EndTime = &endTime
	}
	return resp
}

func messageResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SessionID:  m.SessionID,
		Sender:     m.Sender,
		Kind:       m.Kind,
		Content:    m.Content,
		Confidence: m.Confidence,
		Metadata:   m.Metadata,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
	}
}

func messageResponses(msgs []*store.Message) []MessageResponse {
	out := make([]MessageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = messageResponse(m)
	}
	return out
}

func memoryResponse(m *store.Memory) MemoryResponse {
	return MemoryResponse{
		ID:           m.ID,
		Type:         m.Type,
		Content:      m.Content,
		UserID:       m.UserID,
		SessionID:    m.SessionID,
		MessageID:    m.MessageID,
		EntityValues: m.EntityValues,
		Importance:   m.Importance,
		Tags:         m.Tags,
		CreatedAt:    m.CreatedAt.Format(time.RFC3339),
	}
}

func memoryResponses(mems []*store.Memory) []MemoryResponse {
	out := make([]MemoryResponse, len(mems))
	for i, m := range mems {
		out[i] = memoryResponse(m)
	}
	return out
}

// decodeJSON decodes a JSON request body into v. Returns false and writes a
// 400 response when the body is not valid JSON.
func (g *Gateway) decodeJSON(w http.ResponseWriter, body io.Reader, v any) bool {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		g.writeError(w, http.StatusBadRequest, codeInvalidInput, "invalid JSON body")
		return false
	}
	return true
}

// handleCreateUser handles POST /api/users.
func (g *Gateway) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !g.decodeJSON(w, r.Body, &req) {
		return
	}
	if req.Name == "" || req.Email == "" {
		g.writeError(w, http.StatusBadRequest, codeInvalidInput, "name and email are required")
		return
	}

	user := &store.User{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Email:       req.Email,
		Preferences: req.Preferences,
		CreatedAt:   time.Now().UTC(),
	}
	if err := g.store.CreateUser(r.Context(), user); err != nil {
		g.writeDomainError(w, err)
		return
	}

	g.writeJSON(w, http.StatusCreated, userResponse(user))
}

// handleGetUser handles GET /api/users/{id}.
func (g *Gateway) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := g.store.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	g.writeJSON(w, http.StatusOK, userResponse(user))
}

// handleCreateSession handles POST /api/sessions.
func (g *Gateway) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !g.decodeJSON(w, r.Body, &req) {
		return
	}
	if req.UserID == "" {
		g.writeError(w, http.StatusBadRequest, codeInvalidInput, "user_id is required")
		return
	}

	session, err := g.conversation.StartSession(r.Context(), req.UserID, req.Metadata)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}

	g.writeJSON(w, http.StatusCreated, sessionResponse(session))
}

// handleGetSession handles GET /api/sessions/{id}.
// Returns the session along with its full message history.
func (g *Gateway) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, messages, err := g.conversation.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		g.writeDomainError(w, err)
		return
	}

	g.writeJSON(w, http.StatusOK, SessionDetailResponse{
		Session:  sessionResponse(session),
		Messages: messageResponses(messages),
	})
}

// handleListSessions handles GET /api/sessions?user_id=X.
func (g *Gateway) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		g.writeError(w, http.StatusBadRequest, codeInvalidInput, "user_id query param required")
		return
	}

	sessions, err := g.conversation.ListSessions(r.Context(), userID)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}

	out := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = sessionResponse(s)
	}
	g.writeJSON(w, http.StatusOK, map[string][]SessionResponse{"sessions": out})
}

// handleEndSession handles POST /api/sessions/{id}/end.
func (g *Gateway) handleEndSession(w http.ResponseWriter, r *http.Request) {
	session, err := g.conversation.EndSession(r.Context(), r.PathValue("id"))
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	g.writeJSON(w, http.StatusOK, sessionResponse(session))
}

// handlePauseSession handles POST /api/sessions/{id}/pause.
func (g *Gateway) handlePauseSession(w http.ResponseWriter, r *http.Request) {
	session, err := g.conversation.PauseSession(r.Context(), r.PathValue("id"))
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	g.writeJSON(w, http.StatusOK, sessionResponse(session))
}

// handleResumeSession handles POST /api/sessions/{id}/resume.
func (g *Gateway) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	session, err := g.conversation.ResumeSession(r.Context(), r.PathValue("id"))
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	g.writeJSON(w, http.StatusOK, sessionResponse(session))
}

// handlePostMessage handles POST /api/messages.
// Runs the full pipeline: persist, broadcast, extract, store memories, and
// optionally produce an agent reply. Enrichment failures are reported in the
// response body, not as an HTTP error: the message itself was persisted.
func (g *Gateway) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if !g.decodeJSON(w, r.Body, &req) {
		return
	}
	if req.SessionID == "" || req.UserID == "" {
		g.writeError(w, http.StatusBadRequest, codeInvalidInput, "session_id and user_id are required")
		return
	}

	result, err := g.conversation.HandleIncomingMessage(r.Context(), req.SessionID, req.UserID, req.Content)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}

	resp := PostMessageResponse{
		Message:  messageResponse(result.Message),
		Entities: result.Entities,
		Memories: memoryResponses(result.Memories),
	}
	if result.AgentMessage != nil {
		agentMsg := messageResponse(result.AgentMessage)
		resp.AgentMessage = &agentMsg
	}
	if result.EnrichmentErr != nil {
		resp.EnrichmentError = result.EnrichmentErr.Error()
	}

	g.writeJSON(w, http.StatusOK, resp)
}

// handleListMemories handles GET /api/memories?user_id=&session_id=&q=.
func (g *Gateway) handleListMemories(w http.ResponseWriter, r *http.Request) {
	query := store.MemoryQuery{
		UserID:    r.URL.Query().Get("user_id"),
		SessionID: r.URL.Query().Get("session_id"),
		Text:      r.URL.Query().Get("q"),
	}
	if query.UserID == "" && query.SessionID == "" {
		g.writeError(w, http.StatusBadRequest, codeInvalidInput, "user_id or session_id query param required")
		return
	}

	memories, err := g.memories.Search(r.Context(), query)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}

	g.writeJSON(w, http.StatusOK, map[string][]MemoryResponse{"memories": memoryResponses(memories)})
}

// handleLiveKitToken handles POST /api/livekit/token.
func (g *Gateway) handleLiveKitToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !g.decodeJSON(w, r.Body, &req) {
		return
	}
	if req.RoomName == "" || req.ParticipantName == "" {
		g.writeError(w, http.StatusBadRequest, codeInvalidInput, "room_name and participant_name are required")
		return
	}

	token, err := g.tokens.IssueToken(req.RoomName, req.ParticipantName, livekit.DefaultTTL)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}

	g.recordTokenIssued(r, req.RoomName)
	g.writeJSON(w, http.StatusOK, token)
}

// recordTokenIssued records token issuance in analytics, best effort.
func (g *Gateway) recordTokenIssued(r *http.Request, roomName string) {
	event := &store.AnalyticsEvent{
		ID:        uuid.New().String(),
		Kind:      "token_issued",
		Payload:   map[string]any{"room": roomName},
		CreatedAt: time.Now().UTC(),
	}
	if err := g.store.RecordAnalytics(r.Context(), event); err != nil {
		g.logger.Warn("failed to record analytics", "error", err)
	}
}

// handleAIStatus handles GET /api/ai/status.
func (g *Gateway) handleAIStatus(w http.ResponseWriter, r *http.Request) {
	g.writeJSON(w, http.StatusOK, AIStatusResponse{
		MastraReady: g.backend.Ready(),
		MemoryReady: g.memories.Ready(),
	})
}

// handleExtractEntities handles POST /api/ai/entities/extract.
// Analyzes arbitrary text without persisting anything.
func (g *Gateway) handleExtractEntities(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !g.decodeJSON(w, r.Body, &req) {
		return
	}
	if req.Text == "" {
		g.writeError(w, http.StatusBadRequest, codeInvalidInput, "text is required")
		return
	}

	result, err := g.backend.Extract(r.Context(), req.Text)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}

	g.writeJSON(w, http.StatusOK, result)
}
