package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/scoring"
)

// State enumerates the lifecycle of one attempt.
type State string

const (
	StateLoading    State = "LOADING"
	StateInProgress State = "IN_PROGRESS"
	StateFinished   State = "FINISHED"
)

// FinishReason records what triggered the terminal transition.
type FinishReason string

const (
	FinishManual       FinishReason = "manual"
	FinishTimeExpired  FinishReason = "time_expired"
	FinishDisqualified FinishReason = "disqualified"
)

// Session engine errors.
var (
	ErrNotInProgress   = errors.New("session is not in progress")
	ErrAlreadyFinished = errors.New("session already finished")
	ErrUnknownQuestion = errors.New("question does not belong to this session")
	ErrIndexOutOfRange = errors.New("question index out of range")
)

// Session is the runtime state of one student's attempt at one exam.
// It exists only for the duration of the attempt and is never persisted;
// the only durable artifact is the Result built at submission.
//
// The countdown ticker, the proctoring monitor and the student's own
// submit action all converge on Submit. The mutex plus the InProgress
// guard make that transition at-most-once.
type Session struct {
	mu sync.Mutex

	ExamID       uuid.UUID
	ExamTitle    string
	StudentID    int
	StudentName  string
	StudentClass string

	questions []scoring.Question
	state     State
	startedAt time.Time

	currentIndex       int
	answers            map[string]model.AnswerValue
	doubtful           map[string]struct{}
	remainingSeconds   int
	violationCount     int
	violationThreshold int
	disqualified       bool
}

// Outcome is the immutable product of the single successful Submit.
type Outcome struct {
	Score          int
	Answers        map[string]model.AnswerValue
	ViolationCount int
	IsDisqualified bool
	Reason         FinishReason
	FinishedAt     time.Time
}

// Snapshot is a read-only view of the running session, served to a client
// that reloads or reconnects mid-attempt.
type Snapshot struct {
	State            State                        `json:"state"`
	CurrentIndex     int                          `json:"current_index"`
	RemainingSeconds int                          `json:"remaining_seconds"`
	Answers          map[string]model.AnswerValue `json:"answers"`
	Doubtful         []string                     `json:"doubtful"`
	ViolationCount   int                          `json:"violation_count"`
	TotalQuestions   int                          `json:"total_questions"`
}

// New creates a session in the Loading state. Begin moves it to InProgress
// once the caller has registered it.
func New(exam *model.Exam, student *model.Student, questions []scoring.Question, violationThreshold int) *Session {
	return &Session{
		ExamID:             exam.ID,
		ExamTitle:          exam.Title,
		StudentID:          student.ID,
		StudentName:        student.Name,
		StudentClass:       student.ClassName,
		questions:          questions,
		state:              StateLoading,
		answers:            make(map[string]model.AnswerValue),
		doubtful:           make(map[string]struct{}),
		remainingSeconds:   exam.DurationMinutes * 60,
		violationThreshold: violationThreshold,
	}
}

// Begin transitions Loading → InProgress and starts the clock.
func (s *Session) Begin(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		return
	}
	s.state = StateInProgress
	s.startedAt = now
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Questions returns the attempt-local question list. The slice is owned by
// the session; callers must not mutate it.
func (s *Session) Questions() []scoring.Question {
	return s.questions
}

// QuestionOrder returns the shuffled question IDs in presentation order.
func (s *Session) QuestionOrder() []string {
	order := make([]string, len(s.questions))
	for i := range s.questions {
		order[i] = s.questions[i].ID
	}
	return order
}

// RecordAnswer overwrites the stored answer for a question. Values are
// accepted as-is; correctness is judged only at scoring time.
func (s *Session) RecordAnswer(questionID string, value model.AnswerValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	if !s.owns(questionID) {
		return ErrUnknownQuestion
	}
	s.answers[questionID] = value
	return nil
}

// ToggleDoubtful flips the doubt marker on a question. Purely a memory aid;
// no effect on scoring. Returns the new marker state.
func (s *Session) ToggleDoubtful(questionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return false, ErrNotInProgress
	}
	if !s.owns(questionID) {
		return false, ErrUnknownQuestion
	}
	if _, ok := s.doubtful[questionID]; ok {
		delete(s.doubtful, questionID)
		return false, nil
	}
	s.doubtful[questionID] = struct{}{}
	return true, nil
}

// Navigate moves the current question pointer to any valid index.
// Navigation is free: there is no gating on answered questions.
func (s *Session) Navigate(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	if index < 0 || index >= len(s.questions) {
		return ErrIndexOutOfRange
	}
	s.currentIndex = index
	return nil
}

// Tick decrements the countdown by one second. It reports expired=true when
// the clock reaches zero; the caller must then force a submission.
func (s *Session) Tick() (remaining int, expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return s.remainingSeconds, false
	}
	if s.remainingSeconds > 0 {
		s.remainingSeconds--
	}
	return s.remainingSeconds, s.remainingSeconds <= 0
}

// AddViolation increments the violation counter and reports whether the
// disqualification threshold has been reached. Reaching the threshold seals
// the verdict under the same lock: any Submit that wins the race afterwards,
// manual or not, still produces a disqualified Outcome. The caller must
// force-submit in the same event, not after the next action.
func (s *Session) AddViolation() (count int, thresholdReached bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return s.violationCount, false, ErrNotInProgress
	}
	s.violationCount++
	if s.violationCount >= s.violationThreshold {
		s.disqualified = true
	}
	return s.violationCount, s.disqualified, nil
}

// ViolationThreshold returns the configured disqualification threshold.
func (s *Session) ViolationThreshold() int {
	return s.violationThreshold
}

// Submit finalizes the attempt: grades the answers, seals the state, and
// returns the one Outcome. Only the first caller wins; every later call
// (the countdown racing a manual click, a third violation racing the timer)
// gets ErrAlreadyFinished and no second Outcome is ever produced.
//
// The violation count and the disqualification verdict embedded in the
// Outcome are read under the same lock that guards AddViolation, so a
// disqualifying violation can never be dropped by a stale copy, and a manual
// submit slipping in between the third violation and the forced finalize
// still finishes disqualified.
func (s *Session) Submit(reason FinishReason) (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateInProgress:
		// fall through to finalize
	case StateFinished:
		return nil, ErrAlreadyFinished
	default:
		return nil, ErrNotInProgress
	}

	s.state = StateFinished

	answers := make(map[string]model.AnswerValue, len(s.answers))
	for id, v := range s.answers {
		answers[id] = v
	}

	if s.disqualified {
		reason = FinishDisqualified
	}

	return &Outcome{
		Score:          scoring.Score(s.questions, answers),
		Answers:        answers,
		ViolationCount: s.violationCount,
		IsDisqualified: s.disqualified,
		Reason:         reason,
		FinishedAt:     time.Now(),
	}, nil
}

// Snapshot captures the current state for a reconnecting client.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make(map[string]model.AnswerValue, len(s.answers))
	for id, v := range s.answers {
		answers[id] = v
	}
	doubtful := make([]string, 0, len(s.doubtful))
	for id := range s.doubtful {
		doubtful = append(doubtful, id)
	}

	return Snapshot{
		State:            s.state,
		CurrentIndex:     s.currentIndex,
		RemainingSeconds: s.remainingSeconds,
		Answers:          answers,
		Doubtful:         doubtful,
		ViolationCount:   s.violationCount,
		TotalQuestions:   len(s.questions),
	}
}

func (s *Session) owns(questionID string) bool {
	for i := range s.questions {
		if s.questions[i].ID == questionID {
			return true
		}
	}
	return false
}

// StudentQuestion is a question as sent to the student: session order and
// shuffled options, without any answer key.
type StudentQuestion struct {
	ID         string             `json:"id"`
	Number     int                `json:"number"`
	Stimulus   string             `json:"stimulus,omitempty"`
	Image      string             `json:"image,omitempty"`
	Text       string             `json:"text"`
	Type       model.QuestionType `json:"type"`
	Options    []string           `json:"options"`
	Statements []string           `json:"statements,omitempty"`
	Invalid    bool               `json:"invalid,omitempty"`
}

// StudentView strips answer keys from a session question list.
func StudentView(questions []scoring.Question) []StudentQuestion {
	view := make([]StudentQuestion, len(questions))
	for i := range questions {
		q := &questions[i]
		sq := StudentQuestion{
			ID:       q.ID,
			Number:   i + 1,
			Stimulus: q.Stimulus,
			Image:    q.Image,
			Text:     q.Text,
			Type:     q.Type,
			Options:  q.Options,
			Invalid:  q.Invalid,
		}
		for _, pair := range q.Pairs {
			sq.Statements = append(sq.Statements, pair.Statement)
		}
		view[i] = sq
	}
	return view
}
