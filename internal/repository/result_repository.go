package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smpn3pacet/cbt-backend/internal/model"
)

// ErrResultNotFound is returned when no result exists for the lookup.
var ErrResultNotFound = errors.New("result not found")

// ResultRepository handles persisted exam result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `id, exam_id, exam_title, student_id, student_name, student_class,
	score, answers, submitted_at, violation_count, is_disqualified`

// Create inserts a single result row.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO results (id, exam_id, exam_title, student_id, student_name, student_class,
		                      score, answers, submitted_at, violation_count, is_disqualified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO NOTHING`,
		res.ID, res.ExamID, res.ExamTitle, res.StudentID, res.StudentName, res.StudentClass,
		res.Score, answers, res.SubmittedAt, res.ViolationCount, res.IsDisqualified,
	)
	return err
}

// CreateBatch bulk-inserts results with CopyFrom. Returns the number of rows
// written; the caller falls back to row-by-row inserts on error.
func (r *ResultRepository) CreateBatch(ctx context.Context, results []model.Result) (int64, error) {
	rows := make([][]any, 0, len(results))
	for i := range results {
		res := &results[i]
		answers, err := json.Marshal(res.Answers)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{
			res.ID, res.ExamID, res.ExamTitle, res.StudentID, res.StudentName, res.StudentClass,
			res.Score, answers, res.SubmittedAt, res.ViolationCount, res.IsDisqualified,
		})
	}

	return r.pool.CopyFrom(ctx,
		pgx.Identifier{"results"},
		[]string{"id", "exam_id", "exam_title", "student_id", "student_name", "student_class",
			"score", "answers", "submitted_at", "violation_count", "is_disqualified"},
		pgx.CopyFromRows(rows),
	)
}

// GetLatest retrieves the newest result for a (exam, student) pair.
func (r *ResultRepository) GetLatest(ctx context.Context, examID uuid.UUID, studentID int) (*model.Result, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+`
		 FROM results
		 WHERE exam_id = $1 AND student_id = $2
		 ORDER BY submitted_at DESC
		 LIMIT 1`, examID, studentID,
	)
	res, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	return res, err
}

// ListByExam retrieves results for an exam with pagination and an optional
// class filter, newest first.
func (r *ResultRepository) ListByExam(ctx context.Context, examID uuid.UUID, className *string, limit, offset int) ([]model.Result, int, error) {
	countQuery := `SELECT COUNT(*) FROM results WHERE exam_id = $1`
	countArgs := []interface{}{examID}
	if className != nil {
		countQuery += ` AND student_class = $2`
		countArgs = append(countArgs, *className)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + resultColumns + ` FROM results WHERE exam_id = $1`
	args := []interface{}{examID}
	argIdx := 2
	if className != nil {
		query += ` AND student_class = $2`
		args = append(args, *className)
		argIdx++
	}
	query += ` ORDER BY submitted_at DESC LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, *res)
	}
	return results, total, rows.Err()
}

// ListLatestByExam retrieves each student's newest result for an exam.
// Re-attempts leave older rows in place; analysis only counts the latest.
func (r *ResultRepository) ListLatestByExam(ctx context.Context, examID uuid.UUID) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (student_id) `+resultColumns+`
		 FROM results
		 WHERE exam_id = $1
		 ORDER BY student_id, submitted_at DESC`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// ListByStudent retrieves all of a student's results, newest first.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM results
		 WHERE student_id = $1
		 ORDER BY submitted_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

func scanResult(row pgx.Row) (*model.Result, error) {
	res := &model.Result{}
	var answers []byte
	err := row.Scan(&res.ID, &res.ExamID, &res.ExamTitle, &res.StudentID, &res.StudentName, &res.StudentClass,
		&res.Score, &answers, &res.SubmittedAt, &res.ViolationCount, &res.IsDisqualified)
	if err != nil {
		return nil, err
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &res.Answers); err != nil {
			return nil, err
		}
	}
	return res, nil
}
