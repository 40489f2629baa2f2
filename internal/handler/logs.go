package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/GoPolymarket/logkeep/internal/model"
	"github.com/GoPolymarket/logkeep/internal/pkg/apperrors"
	"github.com/GoPolymarket/logkeep/internal/pkg/logger"
	"github.com/GoPolymarket/logkeep/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000

	streamWriteTimeout = 10 * time.Second
	streamPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type LogHandler struct {
	store *service.LogStore
}

func NewLogHandler(store *service.LogStore) *LogHandler {
	return &LogHandler{store: store}
}

type listResponse struct {
	Total   int                  `json:"total"`
	Count   int                  `json:"count"`
	Entries []model.LogEntryView `json:"entries"`
}

// List serves GET /v1/logs, newest first.
func (h *LogHandler) List(c *gin.Context) {
	pred, err := service.ParseQuery(c.Request.URL.Query())
	if err != nil {
		c.Error(err)
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.Error(apperrors.NewInvalidRequest("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	matched := h.store.Filter(pred)
	page := service.Limit(matched, limit)
	c.JSON(http.StatusOK, listResponse{
		Total:   len(matched),
		Count:   len(page),
		Entries: model.NewLogEntryViews(page),
	})
}

func (h *LogHandler) Get(c *gin.Context) {
	entry, err := h.store.GetByID(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, model.NewLogEntryView(entry))
}

// Export returns one entry as a downloadable json or yaml document.
func (h *LogHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	data, err := h.store.Export(c.Param("id"), format)
	if err != nil {
		c.Error(err)
		return
	}
	contentType := "application/json"
	ext := "json"
	if format == "yaml" || format == "yml" {
		contentType = "application/yaml"
		ext = "yaml"
	}
	c.Header("Content-Disposition", "attachment; filename=\"log-"+c.Param("id")+"."+ext+"\"")
	c.Data(http.StatusOK, contentType, data)
}

// Append records an entry. A persistence failure still returns the entry,
// which stays in memory, with 507.
func (h *LogHandler) Append(c *gin.Context) {
	var req model.AppendLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	level, err := model.ParseLevel(req.Level)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	entry, err := h.store.AppendHTTP(c.Request.Context(), level, req.Tag, req.Message, req.Metadata, req.HTTP)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrPersistence) && entry != nil {
			c.Error(err)
			c.JSON(http.StatusInsufficientStorage, model.NewLogEntryView(entry))
			return
		}
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, model.NewLogEntryView(entry))
}

func (h *LogHandler) Clear(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	logger.Info("log store cleared", "client_ip", c.ClientIP())
	c.Status(http.StatusNoContent)
}

// Levels serves the display table so clients render levels consistently.
func (h *LogHandler) Levels(c *gin.Context) {
	c.JSON(http.StatusOK, model.DisplayTable())
}

// Stream upgrades to a websocket and pushes every new entry as JSON until
// the client goes away. Query filters apply to the stream as well.
func (h *LogHandler) Stream(c *gin.Context) {
	pred, err := service.ParseQuery(c.Request.URL.Query())
	if err != nil {
		c.Error(err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	entries, cancel := h.store.Subscribe()
	defer cancel()
	if entries == nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "live tail disabled"))
		return
	}

	// Reader loop: detects client close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if pred != nil && !pred(entry) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(model.NewLogEntryView(entry)); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
