package service

import (
	"context"

	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/repository"
	"github.com/smpn3pacet/cbt-backend/internal/response"
)

// StudentService handles student account management.
type StudentService struct {
	studentRepo *repository.StudentRepository
	auth        *AuthService
}

// NewStudentService creates a new StudentService.
func NewStudentService(studentRepo *repository.StudentRepository, auth *AuthService) *StudentService {
	return &StudentService{studentRepo: studentRepo, auth: auth}
}

// GetByID retrieves a student by ID.
func (s *StudentService) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// ListStudents retrieves all students with pagination and optional class filter.
func (s *StudentService) ListStudents(ctx context.Context, className *string, page, perPage int) ([]model.Student, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	students, total, err := s.studentRepo.ListPaginated(ctx, className, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if students == nil {
		students = []model.Student{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return students, pagination, nil
}

// ListClasses returns the distinct class names in use.
func (s *StudentService) ListClasses(ctx context.Context) ([]string, error) {
	classes, err := s.studentRepo.ListClasses(ctx)
	if err != nil {
		return nil, err
	}
	if classes == nil {
		classes = []string{}
	}
	return classes, nil
}

// Create inserts a new student with a hashed password. The plaintext password
// arrives in PasswordHash and is replaced before the row is written.
func (s *StudentService) Create(ctx context.Context, student *model.Student) error {
	hashed, err := s.auth.HashPassword(student.PasswordHash)
	if err != nil {
		return err
	}
	student.PasswordHash = hashed
	return s.studentRepo.Create(ctx, student)
}

// Update modifies a student's details. Updates password if provided.
func (s *StudentService) Update(ctx context.Context, student *model.Student, updatePassword bool) error {
	if err := s.studentRepo.Update(ctx, student); err != nil {
		return err
	}

	if updatePassword && student.PasswordHash != "" {
		hashed, err := s.auth.HashPassword(student.PasswordHash)
		if err != nil {
			return err
		}
		return s.studentRepo.UpdatePassword(ctx, student.ID, hashed)
	}

	return nil
}

// Delete removes a student by ID.
func (s *StudentService) Delete(ctx context.Context, id int) error {
	return s.studentRepo.Delete(ctx, id)
}
