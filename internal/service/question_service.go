package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/repository"
)

// Question payload errors.
var (
	ErrBadOptions      = errors.New("options must be a non-empty JSON string array")
	ErrBadAnswerKey    = errors.New("answer key does not match the question options")
	ErrBadMatrixSetup  = errors.New("matrix questions need exactly two options and at least one pair")
	ErrBadMatrixColumn = errors.New("matrix pair column must be \"a\" or \"b\"")
)

// QuestionService handles question bank business logic. Every mutation keeps
// the owning packet's denormalized question count in sync.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	packetRepo   *repository.PacketRepository
	packets      *PacketService
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, packetRepo *repository.PacketRepository, packets *PacketService) *QuestionService {
	return &QuestionService{questionRepo: questionRepo, packetRepo: packetRepo, packets: packets}
}

// ListByPacket retrieves a packet's questions, enforcing category scope.
func (s *QuestionService) ListByPacket(ctx context.Context, packetID uuid.UUID, category string) ([]model.Question, error) {
	if _, err := s.packets.GetByID(ctx, packetID, category); err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.ListByPacket(ctx, packetID)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// Create validates and inserts a question, then resyncs the packet counter.
func (s *QuestionService) Create(ctx context.Context, packetID uuid.UUID, req *model.CreateQuestionRequest, category string) (*model.Question, error) {
	if _, err := s.packets.GetByID(ctx, packetID, category); err != nil {
		return nil, err
	}

	question := &model.Question{
		PacketID:             packetID,
		Number:               req.Number,
		Stimulus:             req.Stimulus,
		Image:                req.Image,
		Text:                 req.Text,
		Type:                 model.QuestionType(req.Type),
		Options:              req.Options,
		CorrectAnswerIndex:   req.CorrectAnswerIndex,
		CorrectAnswerIndices: req.CorrectAnswerIndices,
		MatchingPairs:        req.MatchingPairs,
	}
	if err := validateQuestionPayload(question); err != nil {
		return nil, err
	}

	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, err
	}
	if err := s.packetRepo.SyncQuestionCount(ctx, packetID); err != nil {
		return nil, err
	}
	return question, nil
}

// Update validates and modifies a question in place.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionRequest, category string) (*model.Question, error) {
	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category != "" && question.Category != category {
		return nil, ErrCategoryMismatch
	}

	question.Number = req.Number
	question.Stimulus = req.Stimulus
	question.Image = req.Image
	question.Text = req.Text
	question.Type = model.QuestionType(req.Type)
	question.Options = req.Options
	question.CorrectAnswerIndex = req.CorrectAnswerIndex
	question.CorrectAnswerIndices = req.CorrectAnswerIndices
	question.MatchingPairs = req.MatchingPairs

	if err := validateQuestionPayload(question); err != nil {
		return nil, err
	}
	if err := s.questionRepo.Update(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// Delete removes a question and resyncs the packet counter.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID, category string) error {
	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if category != "" && question.Category != category {
		return ErrCategoryMismatch
	}

	if err := s.questionRepo.Delete(ctx, id); err != nil {
		return err
	}
	return s.packetRepo.SyncQuestionCount(ctx, question.PacketID)
}

// validateQuestionPayload rejects question rows that the session builder
// would have to mark invalid. Catching them at write time keeps the bank
// clean; the builder's own guard remains for legacy rows.
func validateQuestionPayload(q *model.Question) error {
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil || len(options) == 0 {
		return ErrBadOptions
	}

	switch q.Type {
	case model.QuestionTypeSingleChoice:
		if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(options) {
			return ErrBadAnswerKey
		}

	case model.QuestionTypeMultiSelect:
		var indices []int
		if err := json.Unmarshal(q.CorrectAnswerIndices, &indices); err != nil || len(indices) == 0 {
			return ErrBadAnswerKey
		}
		for _, idx := range indices {
			if idx < 0 || idx >= len(options) {
				return ErrBadAnswerKey
			}
		}

	case model.QuestionTypeMatrixTrueFalse:
		if len(options) != 2 {
			return ErrBadMatrixSetup
		}
		var pairs []model.MatchingPair
		if err := json.Unmarshal(q.MatchingPairs, &pairs); err != nil || len(pairs) == 0 {
			return ErrBadMatrixSetup
		}
		for _, p := range pairs {
			if p.CorrectColumn != "a" && p.CorrectColumn != "b" {
				return ErrBadMatrixColumn
			}
		}
	}

	return nil
}
