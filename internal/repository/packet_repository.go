package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smpn3pacet/cbt-backend/internal/model"
)

// PacketRepository handles question packet data access.
type PacketRepository struct {
	pool *pgxpool.Pool
}

// NewPacketRepository creates a new PacketRepository.
func NewPacketRepository(pool *pgxpool.Pool) *PacketRepository {
	return &PacketRepository{pool: pool}
}

// GetByID retrieves a packet by ID.
func (r *PacketRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Packet, error) {
	p := &model.Packet{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, category, total_questions, created_at, updated_at
		 FROM packets WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Category, &p.TotalQuestions, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List retrieves packets, optionally restricted to one category.
func (r *PacketRepository) List(ctx context.Context, category *model.PacketCategory) ([]model.Packet, error) {
	query := `SELECT id, name, category, total_questions, created_at, updated_at FROM packets`
	var args []interface{}
	if category != nil {
		query += ` WHERE category = $1`
		args = append(args, *category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packets []model.Packet
	for rows.Next() {
		var p model.Packet
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.TotalQuestions, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		packets = append(packets, p)
	}
	return packets, rows.Err()
}

// Create inserts a new packet.
func (r *PacketRepository) Create(ctx context.Context, p *model.Packet) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO packets (name, category)
		 VALUES ($1, $2)
		 RETURNING id, total_questions, created_at, updated_at`,
		p.Name, p.Category,
	).Scan(&p.ID, &p.TotalQuestions, &p.CreatedAt, &p.UpdatedAt)
}

// Update renames or recategorizes a packet.
func (r *PacketRepository) Update(ctx context.Context, p *model.Packet) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE packets SET name = $1, category = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`,
		p.Name, p.Category, p.ID,
	)
	return err
}

// SyncQuestionCount recomputes the denormalized total_questions counter from
// the questions table.
func (r *PacketRepository) SyncQuestionCount(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE packets
		 SET total_questions = (SELECT COUNT(*) FROM questions WHERE packet_id = $1),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1`, id,
	)
	return err
}

// Delete removes a packet and, via FK cascade, its questions.
func (r *PacketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM packets WHERE id = $1`, id)
	return err
}
