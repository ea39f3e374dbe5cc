package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/smpn3pacet/cbt-backend/internal/repository"
	"github.com/smpn3pacet/cbt-backend/internal/session"
)

// MonitorService assembles the live proctor view of one exam: in-memory
// session state joined with the persisted answer and violation counters.
type MonitorService struct {
	monitorRepo *repository.MonitorRepository
	sessions    *ExamSessionService
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(monitorRepo *repository.MonitorRepository, sessions *ExamSessionService) *MonitorService {
	return &MonitorService{monitorRepo: monitorRepo, sessions: sessions}
}

// MonitorRow is one student's live status in the proctor table.
type MonitorRow struct {
	StudentID        int           `json:"student_id"`
	StudentName      string        `json:"student_name"`
	StudentClass     string        `json:"student_class"`
	State            session.State `json:"state"`
	AnsweredCount    int           `json:"answered_count"`
	TotalQuestions   int           `json:"total_questions"`
	RemainingSeconds int           `json:"remaining_seconds"`
	ViolationCount   int           `json:"violation_count"`
}

// ExamOverview is the aggregate proctor snapshot for one exam.
type ExamOverview struct {
	InProgress      int          `json:"in_progress"`
	TotalViolations int64        `json:"total_violations"`
	Rows            []MonitorRow `json:"rows"`
}

// GetOverview builds the current proctor snapshot. Live state comes from the
// session registry; persisted counters are fetched concurrently since they
// are two independent queries.
func (s *MonitorService) GetOverview(ctx context.Context, examID uuid.UUID) (*ExamOverview, error) {
	var (
		answeredCounts  map[int]int64
		violationCounts map[int]int64
		answeredErr     error
		violationErr    error
		wg              sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		answeredCounts, answeredErr = s.monitorRepo.GetAnsweredCounts(ctx, examID)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		violationCounts, violationErr = s.monitorRepo.GetViolationCounts(ctx, examID)
	}()

	wg.Wait()

	// Live rows are authoritative; persisted counters are best-effort.
	if answeredErr != nil {
		answeredCounts = map[int]int64{}
	}
	if violationErr != nil {
		violationCounts = map[int]int64{}
	}

	overview := &ExamOverview{Rows: []MonitorRow{}}
	for _, count := range violationCounts {
		overview.TotalViolations += count
	}

	for _, as := range s.sessions.ListByExam(examID) {
		snap := as.Session.Snapshot()
		row := MonitorRow{
			StudentID:        as.StudentID,
			StudentName:      as.Session.StudentName,
			StudentClass:     as.Session.StudentClass,
			State:            snap.State,
			AnsweredCount:    len(snap.Answers),
			TotalQuestions:   snap.TotalQuestions,
			RemainingSeconds: snap.RemainingSeconds,
			ViolationCount:   snap.ViolationCount,
		}
		if persisted, ok := answeredCounts[as.StudentID]; ok && int(persisted) > row.AnsweredCount {
			row.AnsweredCount = int(persisted)
		}
		overview.Rows = append(overview.Rows, row)
		if snap.State == session.StateInProgress {
			overview.InProgress++
		}
	}

	return overview, nil
}
