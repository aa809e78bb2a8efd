package httpapi

import (
	"errors"
	"net/http"
	"time"

	"callassist/internal/calllog"
	"callassist/internal/phrases"
	"callassist/internal/recordings"
	"callassist/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Phrases    *phrases.Service
	CallLogs   *calllog.Service
	Recordings *recordings.Store

	// DemoUserID scopes all reads; the app serves a single demo user.
	DemoUserID int
}

// --- Phrases ---

type createPhraseRequest struct {
	UserID   int    `json:"userId" binding:"required"`
	Text     string `json:"text" binding:"required"`
	Category string `json:"category" binding:"required"`
}

func (h Handlers) ListPhrases(c *gin.Context) {
	list, err := h.Phrases.List(c.Request.Context(), h.DemoUserID)
	if err != nil {
		logger.FromGin(c).Error("list phrases failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch phrases"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) CreatePhrase(c *gin.Context) {
	var req createPhraseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid phrase data", "errors": err.Error()})
		return
	}
	created, err := h.Phrases.Create(c.Request.Context(), req.UserID, req.Text, req.Category)
	if err != nil {
		if errors.Is(err, phrases.ErrInvalidPhrase) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid phrase data", "errors": err.Error()})
			return
		}
		logger.FromGin(c).Error("create phrase failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to create phrase"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h Handlers) DeletePhrase(c *gin.Context) {
	err := h.Phrases.Delete(c.Request.Context(), h.DemoUserID, c.Param("id"))
	if err != nil && !errors.Is(err, phrases.ErrNotFound) {
		if errors.Is(err, phrases.ErrInvalidPhrase) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid phrase ID"})
			return
		}
		logger.FromGin(c).Error("delete phrase failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete phrase"})
		return
	}
	// Deleting an already-gone phrase is not an error.
	c.Status(http.StatusNoContent)
}

// --- Call logs ---

type createCallLogRequest struct {
	UserID   int    `json:"userId" binding:"required"`
	Mode     string `json:"mode" binding:"required"`
	Language string `json:"language" binding:"required"`
}

type updateCallLogRequest struct {
	EndTime       *time.Time `json:"endTime"`
	Duration      *int       `json:"duration"`
	HasRecording  *bool      `json:"hasRecording"`
	RecordingPath *string    `json:"recordingPath"`
}

func (h Handlers) ListCallLogs(c *gin.Context) {
	list, err := h.CallLogs.List(c.Request.Context(), h.DemoUserID)
	if err != nil {
		logger.FromGin(c).Error("list call logs failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch call logs"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) GetCallLog(c *gin.Context) {
	l, err := h.CallLogs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, calllog.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Call log not found"})
			return
		}
		logger.FromGin(c).Error("get call log failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch call log"})
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h Handlers) CreateCallLog(c *gin.Context) {
	var req createCallLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid call log data", "errors": err.Error()})
		return
	}
	l, err := h.CallLogs.Start(c.Request.Context(), req.UserID, calllog.Mode(req.Mode), req.Language)
	if err != nil {
		if errors.Is(err, calllog.ErrInvalidCall) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid call log data", "errors": err.Error()})
			return
		}
		logger.FromGin(c).Error("create call log failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to create call log"})
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h Handlers) UpdateCallLog(c *gin.Context) {
	var req updateCallLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid update data", "errors": err.Error()})
		return
	}
	l, err := h.CallLogs.Update(c.Request.Context(), c.Param("id"), calllog.CallLogUpdate{
		EndTime:       req.EndTime,
		Duration:      req.Duration,
		HasRecording:  req.HasRecording,
		RecordingPath: req.RecordingPath,
	})
	if err != nil {
		switch {
		case errors.Is(err, calllog.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Call log not found"})
		case errors.Is(err, calllog.ErrInvalidCall):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid update data", "errors": err.Error()})
		default:
			logger.FromGin(c).Error("update call log failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to update call log"})
		}
		return
	}
	c.JSON(http.StatusOK, l)
}

// --- Call messages ---

type createCallMessageRequest struct {
	Text   string  `json:"text" binding:"required"`
	Sender string  `json:"sender" binding:"required"`
	Method *string `json:"method"`
}

func (h Handlers) ListCallMessages(c *gin.Context) {
	msgs, err := h.CallLogs.Messages(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, calllog.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Call log not found"})
			return
		}
		logger.FromGin(c).Error("list call messages failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch call messages"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h Handlers) CreateCallMessage(c *gin.Context) {
	var req createCallMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid message data", "errors": err.Error()})
		return
	}
	var method *calllog.Method
	if req.Method != nil {
		m := calllog.Method(*req.Method)
		method = &m
	}
	msg, err := h.CallLogs.AppendMessage(c.Request.Context(), c.Param("id"), req.Text, calllog.Sender(req.Sender), method)
	if err != nil {
		switch {
		case errors.Is(err, calllog.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Call log not found"})
		case errors.Is(err, calllog.ErrInvalidMessage):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid message data", "errors": err.Error()})
		default:
			logger.FromGin(c).Error("create call message failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to create message"})
		}
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// --- Recordings ---

func (h Handlers) UploadRecording(c *gin.Context) {
	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid recording upload", "errors": "audio file field is required"})
		return
	}
	defer file.Close()

	rec, err := h.Recordings.Save(file, header.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, recordings.ErrEmpty) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid recording upload", "errors": "empty audio file"})
			return
		}
		logger.FromGin(c).Error("save recording failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to save recording"})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h Handlers) ServeRecording(c *gin.Context) {
	f, err := h.Recordings.Open(c.Param("name"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Recording not found"})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to read recording"})
		return
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

// --- Health ---

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
