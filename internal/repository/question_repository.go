package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smpn3pacet/cbt-backend/internal/model"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetByID retrieves a question by ID.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT q.id, q.packet_id, q.number, q.stimulus, q.image, q.text, q.type,
		        q.options, q.correct_answer_index, q.correct_answer_indices, q.matching_pairs,
		        p.category
		 FROM questions q
		 JOIN packets p ON q.packet_id = p.id
		 WHERE q.id = $1`, id,
	).Scan(&q.ID, &q.PacketID, &q.Number, &q.Stimulus, &q.Image, &q.Text, &q.Type,
		&q.Options, &q.CorrectAnswerIndex, &q.CorrectAnswerIndices, &q.MatchingPairs,
		&q.Category)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListByPacket retrieves all questions of a packet in canonical order.
func (r *QuestionRepository) ListByPacket(ctx context.Context, packetID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.packet_id, q.number, q.stimulus, q.image, q.text, q.type,
		        q.options, q.correct_answer_index, q.correct_answer_indices, q.matching_pairs,
		        p.category
		 FROM questions q
		 JOIN packets p ON q.packet_id = p.id
		 WHERE q.packet_id = $1
		 ORDER BY q.number, q.id`, packetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.PacketID, &q.Number, &q.Stimulus, &q.Image, &q.Text, &q.Type,
			&q.Options, &q.CorrectAnswerIndex, &q.CorrectAnswerIndices, &q.MatchingPairs,
			&q.Category); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a new question into a packet.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (packet_id, number, stimulus, image, text, type,
		                        options, correct_answer_index, correct_answer_indices, matching_pairs)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		q.PacketID, q.Number, q.Stimulus, q.Image, q.Text, q.Type,
		q.Options, q.CorrectAnswerIndex, q.CorrectAnswerIndices, q.MatchingPairs,
	).Scan(&q.ID)
}

// Update modifies an existing question.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET number = $1, stimulus = $2, image = $3, text = $4, type = $5,
		     options = $6, correct_answer_index = $7, correct_answer_indices = $8, matching_pairs = $9
		 WHERE id = $10`,
		q.Number, q.Stimulus, q.Image, q.Text, q.Type,
		q.Options, q.CorrectAnswerIndex, q.CorrectAnswerIndices, q.MatchingPairs, q.ID,
	)
	return err
}

// Delete removes a question by ID.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
