package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/smpn3pacet/cbt-backend/internal/middleware"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/service"
	"github.com/smpn3pacet/cbt-backend/internal/session"
	ws "github.com/smpn3pacet/cbt-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a running exam session over WebSocket: client actions in,
// ticks, warnings and the terminal finished event out.
type WSHandler struct {
	sessionService *service.ExamSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// ExamWebSocketStream godoc
// WS /ws/v1/student/exams/:exam_id/stream
// Attaches the student's running session to a WebSocket connection.
func (h *WSHandler) ExamWebSocketStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	studentID := claims.UserID

	as, ok := h.sessionService.Get(studentID)
	if !ok || as.ExamID != examID {
		ws.WriteError(conn, "no active session for this exam")
		return
	}

	wsLog := h.log.With().
		Int("student_id", studentID).
		Str("exam_id", examID.String()).
		Logger()

	wsLog.Info().Msg("Student connected")

	// Full state first, so a reloaded client resumes seamlessly.
	if err := ws.WriteTyped(conn, ws.StateResponse{
		Event:     ws.EventState,
		ExamID:    as.ExamID.String(),
		ExamTitle: as.Session.ExamTitle,
		Questions: session.StudentView(as.Session.Questions()),
		Snapshot:  as.Session.Snapshot(),
	}); err != nil {
		return
	}

	// Server-push pump: ticks, warnings and the finished event originate in
	// the service, not in this read loop.
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		for event := range as.Events {
			if err := ws.WriteTyped(conn, event); err != nil {
				return
			}
			if _, finished := event.(ws.FinishedEvent); finished {
				return
			}
		}
	}()

	h.readLoop(conn, wsLog, as)

	conn.Close()
	<-pumpDone
	wsLog.Info().Msg("Student disconnected")
}

func (h *WSHandler) readLoop(conn *websocket.Conn, wsLog zerolog.Logger, as *service.ActiveSession) {
	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(conn, as, &msg)
		case ws.ActionDoubt:
			h.handleDoubt(conn, as, &msg)
		case ws.ActionNavigate:
			h.handleNavigate(conn, as, &msg)
		case ws.ActionViolation:
			h.handleViolation(conn, wsLog, as, &msg)
		case ws.ActionSubmit:
			if h.handleSubmit(conn, wsLog, as) {
				return
			}
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

// handleAnswer validates the value shape against the question type, records
// it on the session and autosaves it.
func (h *WSHandler) handleAnswer(conn *websocket.Conn, as *service.ActiveSession, msg *ws.RequestPayload) {
	if msg.QID == "" || len(msg.Value) == 0 {
		ws.WriteError(conn, "q_id and value are required")
		return
	}

	var qType model.QuestionType
	found := false
	for _, q := range as.Session.Questions() {
		if q.ID == msg.QID {
			qType = q.Type
			found = true
			break
		}
	}
	if !found {
		ws.WriteError(conn, "unknown question")
		return
	}

	value, err := model.ParseAnswerValue(qType, msg.Value)
	if err != nil {
		ws.WriteError(conn, "answer value does not match question type")
		return
	}

	if err := h.sessionService.RecordAnswer(context.Background(), as, msg.QID, msg.Value, value); err != nil {
		ws.WriteError(conn, sessionErrMessage(err))
		return
	}

	ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, QID: msg.QID})
}

func (h *WSHandler) handleDoubt(conn *websocket.Conn, as *service.ActiveSession, msg *ws.RequestPayload) {
	if msg.QID == "" {
		ws.WriteError(conn, "q_id is required")
		return
	}

	doubtful, err := as.Session.ToggleDoubtful(msg.QID)
	if err != nil {
		ws.WriteError(conn, sessionErrMessage(err))
		return
	}

	ws.WriteTyped(conn, ws.DoubtResponse{Event: ws.EventDoubt, QID: msg.QID, Doubtful: doubtful})
}

func (h *WSHandler) handleNavigate(conn *websocket.Conn, as *service.ActiveSession, msg *ws.RequestPayload) {
	if err := as.Session.Navigate(msg.Index); err != nil {
		ws.WriteError(conn, sessionErrMessage(err))
		return
	}

	ws.WriteTyped(conn, ws.NavigatedResponse{Event: ws.EventNavigated, Index: msg.Index})
}

// handleViolation counts a proctoring violation. The warning (and, at the
// threshold, the finished event) arrives through the push pump.
func (h *WSHandler) handleViolation(conn *websocket.Conn, wsLog zerolog.Logger, as *service.ActiveSession, msg *ws.RequestPayload) {
	reason := msg.Reason
	if reason == "" {
		reason = "unspecified"
	}

	count, err := h.sessionService.AddViolation(context.Background(), as, reason)
	if err != nil {
		ws.WriteError(conn, sessionErrMessage(err))
		return
	}

	wsLog.Warn().Int("count", count).Str("reason", reason).Msg("Violation recorded")
}

// handleSubmit finalizes the attempt on the student's own action. Returns
// true when the session reached its terminal state, ending the read loop.
func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, as *service.ActiveSession) bool {
	result, err := h.sessionService.Finalize(context.Background(), as, session.FinishManual)
	if err != nil {
		if errors.Is(err, session.ErrAlreadyFinished) {
			return true
		}
		wsLog.Error().Err(err).Msg("Submit error")
		ws.WriteError(conn, "submit failed")
		return false
	}

	wsLog.Info().Int("score", result.Score).Msg("Exam submitted")
	return true
}

func sessionErrMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrNotInProgress), errors.Is(err, session.ErrAlreadyFinished):
		return "session is not in progress"
	case errors.Is(err, session.ErrUnknownQuestion):
		return "unknown question"
	case errors.Is(err, session.ErrIndexOutOfRange):
		return "question index out of range"
	default:
		return "action failed"
	}
}
