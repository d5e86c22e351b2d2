package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"Colabi/internal/models"
	"Colabi/internal/task_service/publisher"
	"Colabi/internal/task_service/service"
	"Colabi/internal/task_service/store"
)

// maxDocumentBytes caps uploaded document size.
const maxDocumentBytes = 20 << 20

// Handler bundles the dependencies of all endpoint handlers.
type Handler struct {
	store     *store.Store
	publisher *publisher.TaskPublisher
	guard     *service.InflightGuard
	ingest    *service.IngestService
	chat      *service.ChatService
}

// NewHandler creates a handler over the dispatch-side services.
func NewHandler(st *store.Store, pub *publisher.TaskPublisher, guard *service.InflightGuard, ingest *service.IngestService, chat *service.ChatService) *Handler {
	return &Handler{store: st, publisher: pub, guard: guard, ingest: ingest, chat: chat}
}

// ExecuteTaskRequest is the dispatch request for a first execution.
type ExecuteTaskRequest struct {
	AgentID               uint   `json:"agent_id" binding:"required"`
	TaskID                uint   `json:"task_id" binding:"required"`
	IncludePreviousOutput bool   `json:"include_previous_output"`
	PreviousOutput        []uint `json:"previous_output"`
	IsCSV                 bool   `json:"is_csv"`
	ExportFormat          string `json:"export_format"`
	BaseURL               string `json:"base_url"`
}

// ExecuteTask opens a pending execution record and publishes it for
// asynchronous execution. It returns as soon as the message is on the
// queue.
func (h *Handler) ExecuteTask(c *gin.Context) {
	var req ExecuteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ExportFormat != "" && req.ExportFormat != service.ExportFormatCSV && req.ExportFormat != service.ExportFormatXLSX {
		c.JSON(http.StatusBadRequest, gin.H{"error": "export_format must be csv or xlsx"})
		return
	}

	db, err := h.store.AcquireSession(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
		return
	}

	// Validate the references before opening a record.
	if _, err := h.store.GetAgentByID(db, req.AgentID); err != nil {
		h.renderStoreError(c, err)
		return
	}
	if _, err := h.store.GetTaskByID(db, req.TaskID); err != nil {
		h.renderStoreError(c, err)
		return
	}

	ct, err := h.store.CreateCompletedTask(db, req.TaskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if ok, err := h.guard.Acquire(c.Request.Context(), ct.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	} else if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "task is already being executed"})
		return
	}

	msg := &models.TaskMessage{
		Kind:                  models.TaskMessageExecute,
		AgentID:               req.AgentID,
		TaskID:                req.TaskID,
		CompletedTaskID:       ct.ID,
		BaseURL:               req.BaseURL,
		IncludePreviousOutput: req.IncludePreviousOutput,
		PreviousOutputIDs:     req.PreviousOutput,
		ExportCSV:             req.IsCSV,
		ExportFormat:          req.ExportFormat,
		CreatedAt:             time.Now().UTC(),
	}
	if err := h.publisher.Publish(c.Request.Context(), msg); err != nil {
		_ = h.guard.Release(c.Request.Context(), ct.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to dispatch task"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":           "Task dispatched",
		"completed_task_id": ct.ID,
	})
}

// ReassignTaskRequest asks for a rework of an existing execution record.
type ReassignTaskRequest struct {
	CompletedTaskID uint   `json:"completed_task_id" binding:"required"`
	Reason          string `json:"reason" binding:"required"`
}

// ReassignTask stores the reassign reason on the record, marks it pending
// and publishes the rework.
func (h *Handler) ReassignTask(c *gin.Context) {
	var req ReassignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db, err := h.store.AcquireSession(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
		return
	}
	if _, err := h.store.GetCompletedTaskByID(db, req.CompletedTaskID); err != nil {
		h.renderStoreError(c, err)
		return
	}

	if ok, err := h.guard.Acquire(c.Request.Context(), req.CompletedTaskID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	} else if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "task is already being executed"})
		return
	}

	markAs := models.MarkAsReassignPending
	if err := h.store.UpdateCompletedTask(db, req.CompletedTaskID, store.CompletedTaskUpdate{
		MarkAs:            &markAs,
		ReasonForReassign: &req.Reason,
	}); err != nil {
		_ = h.guard.Release(c.Request.Context(), req.CompletedTaskID)
		h.renderStoreError(c, err)
		return
	}

	msg := &models.TaskMessage{
		Kind:            models.TaskMessageReassign,
		CompletedTaskID: req.CompletedTaskID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := h.publisher.Publish(c.Request.Context(), msg); err != nil {
		_ = h.guard.Release(c.Request.Context(), req.CompletedTaskID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to dispatch reassign"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":           "Reassign dispatched",
		"completed_task_id": req.CompletedTaskID,
	})
}

// GetCompletedTask returns the execution record together with its exported
// file URLs.
func (h *Handler) GetCompletedTask(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid completed task id"})
		return
	}

	db, err := h.store.AcquireSession(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
		return
	}

	ct, err := h.store.GetCompletedTaskByID(db, uint(id))
	if err != nil {
		h.renderStoreError(c, err)
		return
	}
	files, err := h.store.ListCompletedTaskFiles(db, ct.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		urls = append(urls, f.URL)
	}
	c.JSON(http.StatusOK, gin.H{
		"completed_task": ct,
		"urls":           urls,
	})
}

// UploadDocument ingests an uploaded file into the agent's own-data vector
// namespace.
func (h *Handler) UploadDocument(c *gin.Context) {
	agentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxDocumentBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	db, err := h.store.AcquireSession(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
		return
	}

	vectorID, chunks, err := h.ingest.IngestDocument(c.Request.Context(), db, uint(agentID), data)
	if err != nil {
		h.renderStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Document ingested",
		"vector_id": vectorID,
		"chunks":    chunks,
	})
}

// ChatRequest is one conversational turn against an agent.
type ChatRequest struct {
	AgentID   uint   `json:"agent_id" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
	Question  string `json:"question" binding:"required"`
}

// Chat answers a question within a chat session.
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db, err := h.store.AcquireSession(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
		return
	}

	answer, err := h.chat.Chat(c.Request.Context(), db, req.AgentID, req.SessionID, req.Question)
	if err != nil {
		h.renderStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// Health reports whether the service can reach its primary store.
func (h *Handler) Health(c *gin.Context) {
	if _, err := h.store.AcquireSession(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) renderStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrVectorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrVectorNotFound.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
