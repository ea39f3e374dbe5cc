// Package session holds the runtime core of one exam attempt: the builder
// that produces a fair per-attempt question ordering, and the state machine
// that owns the countdown, answers, violations and the single submission.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/scoring"
)

// ErrEmptyPacket is returned when an exam's packet resolves to zero
// questions. Callers must treat this as a blocking loading state.
var ErrEmptyPacket = errors.New("packet has no questions")

// QuestionSource supplies the canonical questions of a packet.
type QuestionSource interface {
	ListByPacket(ctx context.Context, packetID uuid.UUID) ([]model.Question, error)
}

// Builder produces an attempt-local question list: questions shuffled with
// an unbiased permutation, and options shuffled with the answer key remapped
// so the originally-correct options stay correct at their new positions.
//
// The canonical stored questions are never touched; two concurrent builds
// for the same packet are fully independent.
type Builder struct {
	questions QuestionSource
}

// NewBuilder creates a Builder reading from the given question source.
func NewBuilder(questions QuestionSource) *Builder {
	return &Builder{questions: questions}
}

// Build fetches, parses and randomizes the question set of a packet.
// A question whose stored serialization cannot be parsed becomes an invalid
// placeholder rather than failing the whole attempt.
func (b *Builder) Build(ctx context.Context, packetID uuid.UUID) ([]scoring.Question, error) {
	stored, err := b.questions.ListByPacket(ctx, packetID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(stored) == 0 {
		return nil, ErrEmptyPacket
	}

	questions := make([]scoring.Question, len(stored))
	for i := range stored {
		questions[i] = parseQuestion(&stored[i])
	}

	// Fisher–Yates over the question list: every ordering equally likely,
	// so "question N" means something different on every screen.
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	for i := range questions {
		shuffleOptions(&questions[i])
	}

	return questions, nil
}

// parseQuestion decodes one stored question into its session form.
// Parsing happens exactly once here; scoring never re-reads raw JSON.
func parseQuestion(q *model.Question) scoring.Question {
	out := scoring.Question{
		ID:       q.ID.String(),
		Number:   q.Number,
		Stimulus: q.Stimulus,
		Image:    q.Image,
		Text:     q.Text,
		Type:     q.Type,
	}

	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil || len(options) == 0 {
		out.Invalid = true
		return out
	}
	out.Options = options

	switch q.Type {
	case model.QuestionTypeSingleChoice:
		if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(options) {
			out.Invalid = true
			return out
		}
		out.CorrectIndex = q.CorrectAnswerIndex

	case model.QuestionTypeMultiSelect:
		var indices []int
		if err := json.Unmarshal(q.CorrectAnswerIndices, &indices); err != nil || len(indices) == 0 {
			out.Invalid = true
			return out
		}
		for _, idx := range indices {
			if idx < 0 || idx >= len(options) {
				out.Invalid = true
				return out
			}
		}
		out.CorrectIndices = indices

	case model.QuestionTypeMatrixTrueFalse:
		// Options hold exactly the two column labels.
		if len(options) != 2 {
			out.Invalid = true
			return out
		}
		var pairs []model.MatchingPair
		if err := json.Unmarshal(q.MatchingPairs, &pairs); err != nil || len(pairs) == 0 {
			out.Invalid = true
			return out
		}
		for _, p := range pairs {
			if p.CorrectColumn != "a" && p.CorrectColumn != "b" {
				out.Invalid = true
				return out
			}
		}
		out.Pairs = pairs
	}

	return out
}

// shuffleOptions permutes the options of choice-type questions and remaps
// the answer key onto the new positions. Matrix, essay and matching rows
// are left alone since their internal structure carries its own labels.
func shuffleOptions(q *scoring.Question) {
	if q.Invalid {
		return
	}

	switch q.Type {
	case model.QuestionTypeSingleChoice:
		perm := rand.Perm(len(q.Options))
		q.Options = applyPerm(q.Options, perm)
		q.CorrectIndex = perm[q.CorrectIndex]

	case model.QuestionTypeMultiSelect:
		perm := rand.Perm(len(q.Options))
		q.Options = applyPerm(q.Options, perm)
		remapped := make([]int, len(q.CorrectIndices))
		for i, idx := range q.CorrectIndices {
			remapped[i] = perm[idx]
		}
		q.CorrectIndices = remapped
	}
}

// applyPerm moves the element at old position i to new position perm[i].
func applyPerm(options []string, perm []int) []string {
	shuffled := make([]string, len(options))
	for i, p := range perm {
		shuffled[p] = options[i]
	}
	return shuffled
}
