package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/smpn3pacet/cbt-backend/internal/config"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/repository"
	"github.com/smpn3pacet/cbt-backend/internal/session"
	ws "github.com/smpn3pacet/cbt-backend/internal/websocket"
)

// Exam session errors.
var (
	ErrExamNotEligible    = errors.New("student is not eligible for this exam")
	ErrExamNoQuestions    = errors.New("exam packet has no questions")
	ErrNoActiveSession    = errors.New("no active session for this student")
	ErrOtherSessionActive = errors.New("another exam session is already running")
)

// ActiveSession pairs a running session engine with the push channel its
// connected client reads from. Events is buffered and sends never block:
// when no client is draining it, pushes are dropped and the client catches
// up from the snapshot on reconnect.
type ActiveSession struct {
	Session   *session.Session
	ExamID    uuid.UUID
	StudentID int
	Events    chan any

	cancel context.CancelFunc
}

func (a *ActiveSession) push(event any) {
	select {
	case a.Events <- event:
	default:
	}
}

// ExamSessionService owns the in-memory registry of running exam attempts
// and everything that happens to them between start and submission.
type ExamSessionService struct {
	cfg        *config.Config
	rdb        *redis.Client
	log        zerolog.Logger
	builder    *session.Builder
	examRepo   *repository.ExamRepository
	resultRepo *repository.ResultRepository

	mu     sync.Mutex
	active map[int]*ActiveSession // keyed by student ID; one attempt per student
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	cfg *config.Config,
	rdb *redis.Client,
	builder *session.Builder,
	examRepo *repository.ExamRepository,
	resultRepo *repository.ResultRepository,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		cfg:        cfg,
		rdb:        rdb,
		log:        log.With().Str("component", "exam_session_service").Logger(),
		builder:    builder,
		examRepo:   examRepo,
		resultRepo: resultRepo,
		active:     make(map[int]*ActiveSession),
	}
}

// LobbyStatus represents the concrete state of an exam in the student lobby.
type LobbyStatus string

const (
	LobbyStatusUpcoming   LobbyStatus = "UPCOMING"
	LobbyStatusAvailable  LobbyStatus = "AVAILABLE"
	LobbyStatusInProgress LobbyStatus = "IN_PROGRESS"
	LobbyStatusCompleted  LobbyStatus = "COMPLETED"
	LobbyStatusClosed     LobbyStatus = "CLOSED"
)

// LobbyExam represents an exam as displayed in the student lobby.
type LobbyExam struct {
	model.Exam
	LobbyStatus    LobbyStatus `json:"lobby_status"`
	LatestScore    *int        `json:"latest_score,omitempty"`
	IsDisqualified bool        `json:"is_disqualified,omitempty"`
	CanStart       bool        `json:"can_start"`
}

// GetLobby returns the exams targeting a student's class, overlaid with the
// student's own status for each: a running attempt, the latest finished
// result, or plain schedule-derived availability.
func (s *ExamSessionService) GetLobby(ctx context.Context, student *model.Student) ([]LobbyExam, error) {
	exams, err := s.examRepo.ListForClass(ctx, student.ClassName)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	running, hasRunning := s.Get(student.ID)
	now := time.Now()

	lobby := make([]LobbyExam, 0, len(exams))
	for _, exam := range exams {
		entry := LobbyExam{Exam: exam}
		entry.CanStart = exam.EligibleFor(student.ClassName, now)

		switch {
		case hasRunning && running.ExamID == exam.ID:
			entry.LobbyStatus = LobbyStatusInProgress
			entry.CanStart = false
		default:
			latest, err := s.latestResult(ctx, exam.ID, student.ID)
			if err != nil {
				// Fall through to the schedule-derived status, but leave a
				// trace: a completed exam shown as AVAILABLE means this lookup
				// failed, not that the result is gone.
				s.log.Error().Err(err).
					Int("student_id", student.ID).
					Str("exam_id", exam.ID.String()).
					Msg("Lobby result lookup error")
			}
			if err == nil && latest != nil {
				entry.LobbyStatus = LobbyStatusCompleted
				entry.LatestScore = &latest.Score
				entry.IsDisqualified = latest.IsDisqualified
			} else if !exam.IsActive || now.After(exam.ScheduledEnd) {
				entry.LobbyStatus = LobbyStatusClosed
			} else if now.Before(exam.ScheduledStart) {
				entry.LobbyStatus = LobbyStatusUpcoming
			} else {
				entry.LobbyStatus = LobbyStatusAvailable
			}
		}

		lobby = append(lobby, entry)
	}

	return lobby, nil
}

// Start creates and registers a session for a student on an exam. The packet
// is fetched and shuffled fresh for this attempt; a countdown ticker runs for
// the session's whole lifetime.
func (s *ExamSessionService) Start(ctx context.Context, examID uuid.UUID, student *model.Student) (*ActiveSession, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if !exam.EligibleFor(student.ClassName, time.Now()) {
		return nil, ErrExamNotEligible
	}

	s.mu.Lock()
	if existing, ok := s.active[student.ID]; ok {
		s.mu.Unlock()
		// Reconnecting to the same exam resumes the running attempt.
		if existing.ExamID == examID {
			return existing, nil
		}
		return nil, ErrOtherSessionActive
	}
	s.mu.Unlock()

	questions, err := s.builder.Build(ctx, exam.PacketID)
	if err != nil {
		if errors.Is(err, session.ErrEmptyPacket) {
			return nil, ErrExamNoQuestions
		}
		return nil, fmt.Errorf("build session: %w", err)
	}

	sess := session.New(exam, student, questions, s.cfg.ViolationThreshold)

	as := &ActiveSession{
		Session:   sess,
		ExamID:    examID,
		StudentID: student.ID,
		Events:    make(chan any, 32),
	}

	s.mu.Lock()
	if _, ok := s.active[student.ID]; ok {
		// Lost the race against a concurrent start.
		s.mu.Unlock()
		return nil, ErrOtherSessionActive
	}
	s.active[student.ID] = as
	s.mu.Unlock()

	s.cacheQuestionOrder(ctx, as)

	tickerCtx, cancel := context.WithCancel(context.Background())
	as.cancel = cancel
	sess.Begin(time.Now())
	go s.runTicker(tickerCtx, as)

	s.publishMonitor(ctx, examID, map[string]any{
		"type":            "started",
		"student_id":      student.ID,
		"student_name":    student.Name,
		"student_class":   student.ClassName,
		"total_questions": len(questions),
	})

	s.log.Info().
		Int("student_id", student.ID).
		Str("exam_id", examID.String()).
		Int("questions", len(questions)).
		Msg("Session started")

	return as, nil
}

// Get returns the student's running session, if any.
func (s *ExamSessionService) Get(studentID int) (*ActiveSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	as, ok := s.active[studentID]
	return as, ok
}

// ListByExam returns the running sessions of one exam, for live monitoring.
func (s *ExamSessionService) ListByExam(examID uuid.UUID) []*ActiveSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sessions []*ActiveSession
	for _, as := range s.active {
		if as.ExamID == examID {
			sessions = append(sessions, as)
		}
	}
	return sessions
}

// RecordAnswer stores an answer on the running session and autosaves it:
// written through to Redis for reconnects, and queued for async persistence.
func (s *ExamSessionService) RecordAnswer(ctx context.Context, as *ActiveSession, questionID string, raw json.RawMessage, value model.AnswerValue) error {
	if err := as.Session.RecordAnswer(questionID, value); err != nil {
		return err
	}

	answersKey := config.CacheKey.StudentAnswersKey(as.ExamID.String(), as.StudentID)
	if err := s.rdb.HSet(ctx, answersKey, questionID, string(raw)).Err(); err != nil {
		s.log.Error().Err(err).Int("student_id", as.StudentID).Msg("Autosave Redis error")
	}

	payload, _ := json.Marshal(map[string]any{
		"student_id": as.StudentID,
		"exam_id":    as.ExamID.String(),
		"q_id":       questionID,
		"answer":     raw,
	})
	s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload)

	return nil
}

// AddViolation records a proctoring violation: counted on the session, queued
// for persistence, announced to monitors, and, at the threshold, the attempt
// is force-submitted in the same call.
func (s *ExamSessionService) AddViolation(ctx context.Context, as *ActiveSession, reason string) (count int, err error) {
	count, reached, err := as.Session.AddViolation()
	if err != nil {
		return 0, err
	}

	payload, _ := json.Marshal(map[string]any{
		"student_id":  as.StudentID,
		"exam_id":     as.ExamID.String(),
		"reason":      reason,
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
	})
	s.rdb.RPush(ctx, config.WorkerKey.PersistViolationsQueue, payload)

	s.publishMonitor(ctx, as.ExamID, map[string]any{
		"type":       "violation",
		"student_id": as.StudentID,
		"reason":     reason,
		"count":      count,
	})

	threshold := as.Session.ViolationThreshold()
	as.push(ws.WarningEvent{
		Event:     ws.EventWarning,
		Message:   fmt.Sprintf("Pelanggaran terdeteksi (pelanggaran %d dari %d)", count, threshold),
		Count:     count,
		Threshold: threshold,
	})

	if reached {
		if _, err := s.Finalize(ctx, as, session.FinishDisqualified); err != nil && !errors.Is(err, session.ErrAlreadyFinished) {
			return count, err
		}
	}

	return count, nil
}

// Finalize submits the attempt and turns its outcome into a durable Result.
// The result is cached in Redis immediately and queued for the persistence
// worker; the finish screen never waits on PostgreSQL. At most one caller
// gets past Submit, so the result is created exactly once.
func (s *ExamSessionService) Finalize(ctx context.Context, as *ActiveSession, reason session.FinishReason) (*model.Result, error) {
	outcome, err := as.Session.Submit(reason)
	if err != nil {
		return nil, err
	}

	result := &model.Result{
		ID:             uuid.New(),
		ExamID:         as.ExamID,
		ExamTitle:      as.Session.ExamTitle,
		StudentID:      as.StudentID,
		StudentName:    as.Session.StudentName,
		StudentClass:   as.Session.StudentClass,
		Score:          outcome.Score,
		Answers:        outcome.Answers,
		SubmittedAt:    outcome.FinishedAt,
		ViolationCount: outcome.ViolationCount,
		IsDisqualified: outcome.IsDisqualified,
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	// Cache first, queue second. The lobby and finish screen read the cache;
	// the worker owns the database write.
	latestKey := config.CacheKey.StudentLatestResultKey(as.ExamID.String(), as.StudentID)
	if err := s.rdb.Set(ctx, latestKey, encoded, 24*time.Hour).Err(); err != nil {
		s.log.Error().Err(err).Int("student_id", as.StudentID).Msg("Cache result error")
	}
	s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, encoded)

	s.publishMonitor(ctx, as.ExamID, map[string]any{
		"type":            "finished",
		"student_id":      as.StudentID,
		"score":           result.Score,
		"violation_count": result.ViolationCount,
		"is_disqualified": result.IsDisqualified,
		"reason":          string(outcome.Reason),
	})

	as.push(ws.FinishedEvent{
		Event:          ws.EventFinished,
		Reason:         string(outcome.Reason),
		Score:          result.Score,
		ViolationCount: result.ViolationCount,
		IsDisqualified: result.IsDisqualified,
		Result:         *result,
	})

	s.release(as)

	s.log.Info().
		Int("student_id", as.StudentID).
		Str("exam_id", as.ExamID.String()).
		Int("score", result.Score).
		Bool("disqualified", result.IsDisqualified).
		Str("reason", string(outcome.Reason)).
		Msg("Session finalized")

	return result, nil
}

// LatestResult returns the newest result a student produced for an exam,
// preferring the Redis cache over the results table.
func (s *ExamSessionService) LatestResult(ctx context.Context, examID uuid.UUID, studentID int) (*model.Result, error) {
	result, err := s.latestResult(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, repository.ErrResultNotFound
	}
	return result, nil
}

func (s *ExamSessionService) latestResult(ctx context.Context, examID uuid.UUID, studentID int) (*model.Result, error) {
	latestKey := config.CacheKey.StudentLatestResultKey(examID.String(), studentID)
	cached, err := s.rdb.Get(ctx, latestKey).Result()
	if err == nil {
		result := &model.Result{}
		if err := json.Unmarshal([]byte(cached), result); err == nil {
			return result, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Error().Err(err).Msg("Result cache read error")
	}

	result, err := s.resultRepo.GetLatest(ctx, examID, studentID)
	if errors.Is(err, repository.ErrResultNotFound) {
		return nil, nil
	}
	return result, err
}

// runTicker drives the countdown. One goroutine per running session; it
// exits when the session finishes or expires.
func (s *ExamSessionService) runTicker(ctx context.Context, as *ActiveSession) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining, expired := as.Session.Tick()
			as.push(ws.TickEvent{Event: ws.EventTick, RemainingSeconds: remaining})

			if expired {
				if _, err := s.Finalize(context.Background(), as, session.FinishTimeExpired); err != nil && !errors.Is(err, session.ErrAlreadyFinished) {
					s.log.Error().Err(err).Int("student_id", as.StudentID).Msg("Expiry finalize error")
				}
				return
			}
		}
	}
}

// release removes a finished session from the registry and stops its ticker.
func (s *ExamSessionService) release(as *ActiveSession) {
	if as.cancel != nil {
		as.cancel()
	}
	s.mu.Lock()
	if current, ok := s.active[as.StudentID]; ok && current == as {
		delete(s.active, as.StudentID)
	}
	s.mu.Unlock()
}

// cacheQuestionOrder records the attempt's shuffled question IDs in Redis for
// post-hoc review of what each student actually saw.
func (s *ExamSessionService) cacheQuestionOrder(ctx context.Context, as *ActiveSession) {
	order, err := json.Marshal(as.Session.QuestionOrder())
	if err != nil {
		return
	}
	orderKey := config.CacheKey.StudentQuestionOrderKey(as.ExamID.String(), as.StudentID)
	if err := s.rdb.Set(ctx, orderKey, order, 24*time.Hour).Err(); err != nil {
		s.log.Error().Err(err).Int("student_id", as.StudentID).Msg("Cache question order error")
	}
}

// publishMonitor fans a monitor update out to subscribed proctor streams.
func (s *ExamSessionService) publishMonitor(ctx context.Context, examID uuid.UUID, payload map[string]any) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return
	}
	channel := config.CacheKey.ExamMonitorChannel(examID.String())
	if err := s.rdb.Publish(ctx, channel, encoded).Err(); err != nil {
		s.log.Error().Err(err).Str("channel", channel).Msg("Monitor publish error")
	}
}

// Shutdown force-submits every running session so no attempt is silently
// lost on server stop.
func (s *ExamSessionService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	sessions := make([]*ActiveSession, 0, len(s.active))
	for _, as := range s.active {
		sessions = append(sessions, as)
	}
	s.mu.Unlock()

	for _, as := range sessions {
		if _, err := s.Finalize(ctx, as, session.FinishTimeExpired); err != nil && !errors.Is(err, session.ErrAlreadyFinished) {
			s.log.Error().Err(err).Int("student_id", as.StudentID).Msg("Shutdown finalize error")
		}
	}
}
