package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/repository"
)

// ExamService handles exam schedule management.
type ExamService struct {
	examRepo   *repository.ExamRepository
	packetRepo *repository.PacketRepository
}

// NewExamService creates a new ExamService.
func NewExamService(examRepo *repository.ExamRepository, packetRepo *repository.PacketRepository) *ExamService {
	return &ExamService{examRepo: examRepo, packetRepo: packetRepo}
}

// GetByID retrieves an exam by ID.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// List retrieves all exams.
func (s *ExamService) List(ctx context.Context) ([]model.Exam, error) {
	exams, err := s.examRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, nil
}

// Create schedules a new exam after verifying the packet exists.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	if _, err := s.packetRepo.GetByID(ctx, req.PacketID); err != nil {
		return nil, err
	}

	exam := &model.Exam{
		Title:           req.Title,
		PacketID:        req.PacketID,
		ScheduledStart:  req.ScheduledStart,
		ScheduledEnd:    req.ScheduledEnd,
		DurationMinutes: req.DurationMinutes,
		ClassTarget:     req.ClassTarget,
		IsActive:        req.IsActive,
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// Update reschedules or retargets an exam.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.packetRepo.GetByID(ctx, req.PacketID); err != nil {
		return nil, err
	}

	exam.Title = req.Title
	exam.PacketID = req.PacketID
	exam.ScheduledStart = req.ScheduledStart
	exam.ScheduledEnd = req.ScheduledEnd
	exam.DurationMinutes = req.DurationMinutes
	exam.ClassTarget = req.ClassTarget
	exam.IsActive = req.IsActive

	if err := s.examRepo.Update(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// SetActive toggles the kill-switch. Deactivating blocks new starts only;
// running sessions finish on their own clock.
func (s *ExamService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.examRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.examRepo.SetActive(ctx, id, active)
}

// Delete removes an exam by ID.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.examRepo.Delete(ctx, id)
}
