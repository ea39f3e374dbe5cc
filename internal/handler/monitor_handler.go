package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/smpn3pacet/cbt-backend/internal/config"
	"github.com/smpn3pacet/cbt-backend/internal/response"
	"github.com/smpn3pacet/cbt-backend/internal/service"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second // prevent slow queries from blocking the SSE loop
)

// MonitorHandler streams the live proctor view of one exam over SSE.
type MonitorHandler struct {
	rdb            *redis.Client
	examService    *service.ExamService
	monitorService *service.MonitorService
	log            zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	rdb *redis.Client,
	examService *service.ExamService,
	monitorService *service.MonitorService,
	log zerolog.Logger,
) *MonitorHandler {
	return &MonitorHandler{
		rdb:            rdb,
		examService:    examService,
		monitorService: monitorService,
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// GetExamOverview godoc
// GET /api/v1/staff/exams/:id/monitor
// One-shot snapshot for clients that cannot hold an SSE connection.
func (h *MonitorHandler) GetExamOverview(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	overview, err := h.monitorService.GetOverview(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, overview)
}

// MonitorExamSSE godoc
// GET /api/v1/staff/exams/:id/monitor/stream
func (h *MonitorHandler) MonitorExamSSE(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

	h.sendSnapshot(c, reqCtx, examID, exam.Title)

	// Session lifecycle events (started, violation, finished) arrive through
	// Redis Pub/Sub and are forwarded as-is.
	channelName := config.CacheKey.ExamMonitorChannel(examID.String())
	pubsub := h.rdb.Subscribe(reqCtx, channelName)
	defer pubsub.Close()

	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()

	// Skip periodic refreshes until at least one student event proves there
	// is something to watch.
	hasStudents := false

	h.log.Info().Str("exam_id", examID.String()).Msg("Staff attached to live monitor SSE")

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("exam_id", examID.String()).Msg("Staff disconnected from live monitor SSE")
			return

		case msg := <-ch:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()

			hasStudents = true

		case <-refreshTicker.C:
			if !hasStudents {
				continue
			}
			h.sendRefresh(c, reqCtx, examID)

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

// sendSnapshot writes the first SSE event with the full proctor table.
func (h *MonitorHandler) sendSnapshot(c *gin.Context, parentCtx context.Context, examID uuid.UUID, examTitle string) {
	ctx, cancel := context.WithTimeout(parentCtx, refreshTimeout)
	defer cancel()

	overview, err := h.monitorService.GetOverview(ctx, examID)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to build initial monitor snapshot")
		overview = &service.ExamOverview{Rows: []service.MonitorRow{}}
	}

	c.SSEvent("message", map[string]interface{}{
		"type": "snapshot",
		"data": map[string]interface{}{
			"exam": map[string]interface{}{
				"id":    examID.String(),
				"title": examTitle,
			},
			"overview": overview,
		},
	})
	c.Writer.Flush()
}

// sendRefresh re-polls the overview and sends a compact refresh event.
func (h *MonitorHandler) sendRefresh(c *gin.Context, parentCtx context.Context, examID uuid.UUID) {
	// Scoped timeout prevents a slow query from stalling the SSE loop
	ctx, cancel := context.WithTimeout(parentCtx, refreshTimeout)
	defer cancel()

	overview, err := h.monitorService.GetOverview(ctx, examID)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to fetch monitor overview for refresh")
		return
	}

	c.SSEvent("message", map[string]interface{}{
		"type":     "refresh",
		"overview": overview,
	})
	c.Writer.Flush()
}
