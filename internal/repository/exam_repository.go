package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smpn3pacet/cbt-backend/internal/model"
)

// ExamRepository handles exam schedule data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam by ID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, packet_id, scheduled_start, scheduled_end, duration_minutes, class_target, is_active, created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.PacketID, &e.ScheduledStart, &e.ScheduledEnd, &e.DurationMinutes, &e.ClassTarget, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List retrieves all exams, newest schedule first.
func (r *ExamRepository) List(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, packet_id, scheduled_start, scheduled_end, duration_minutes, class_target, is_active, created_at, updated_at
		 FROM exams ORDER BY scheduled_start DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExams(rows)
}

// ListForClass retrieves exams targeting the given class, newest first.
// Eligibility (window, kill-switch) is judged by the caller against the
// request clock.
func (r *ExamRepository) ListForClass(ctx context.Context, className string) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, packet_id, scheduled_start, scheduled_end, duration_minutes, class_target, is_active, created_at, updated_at
		 FROM exams
		 WHERE $1 = ANY(class_target)
		 ORDER BY scheduled_start DESC`, className,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExams(rows)
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, packet_id, scheduled_start, scheduled_end, duration_minutes, class_target, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.PacketID, e.ScheduledStart, e.ScheduledEnd, e.DurationMinutes, e.ClassTarget, e.IsActive,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update modifies an existing exam.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $1, packet_id = $2, scheduled_start = $3, scheduled_end = $4,
		     duration_minutes = $5, class_target = $6, is_active = $7, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $8`,
		e.Title, e.PacketID, e.ScheduledStart, e.ScheduledEnd, e.DurationMinutes, e.ClassTarget, e.IsActive, e.ID,
	)
	return err
}

// SetActive toggles the admin kill-switch.
func (r *ExamRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET is_active = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		active, id,
	)
	return err
}

// Delete removes an exam by ID.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}

func scanExams(rows pgx.Rows) ([]model.Exam, error) {
	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.PacketID, &e.ScheduledStart, &e.ScheduledEnd, &e.DurationMinutes, &e.ClassTarget, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
