// Package scoring grades a finished exam attempt in memory.
//
// Score is a pure function of the session's question list and the recorded
// answer map: identical inputs always yield the identical score, and neither
// input is mutated. Questions the engine cannot auto-grade (essay, matching,
// malformed rows) simply never count as correct.
package scoring

import (
	"math"

	"github.com/smpn3pacet/cbt-backend/internal/model"
)

// Question is one test item in its session-local, fully parsed form.
// The option order and answer-key indices reflect the per-attempt shuffle,
// not the canonical stored order.
type Question struct {
	ID             string
	Number         int
	Stimulus       string
	Image          string
	Text           string
	Type           model.QuestionType
	Options        []string
	CorrectIndex   int
	CorrectIndices []int
	Pairs          []model.MatchingPair
	// Invalid marks a question whose stored serialization could not be
	// parsed. It is still shown (as a placeholder) and still counts toward
	// the total, but can never be scored correct.
	Invalid bool
}

// Score maps (question set, answer map) to an integer score 0..100.
// Unanswered or malformed entries are incorrect, never an error.
// An empty question set scores 0.
func Score(questions []Question, answers map[string]model.AnswerValue) int {
	total := len(questions)
	if total == 0 {
		return 0
	}

	correct := 0
	for i := range questions {
		if Correct(&questions[i], answers[questions[i].ID]) {
			correct++
		}
	}

	return int(math.Round(float64(correct) / float64(total) * 100))
}

// Correct judges a single question against a recorded answer value.
func Correct(q *Question, ans model.AnswerValue) bool {
	if q.Invalid {
		return false
	}

	switch q.Type {
	case model.QuestionTypeSingleChoice:
		return ans.Kind == model.AnswerKindSingle && ans.Single == q.CorrectIndex

	case model.QuestionTypeMultiSelect:
		return ans.Kind == model.AnswerKindMulti && equalIndexSet(ans.Multi, q.CorrectIndices)

	case model.QuestionTypeMatrixTrueFalse:
		return ans.Kind == model.AnswerKindMatrix && matrixCorrect(ans.Matrix, q.Pairs)

	default:
		// Essay and matching are reviewed by hand, never auto-scored.
		return false
	}
}

// equalIndexSet compares two index collections with set semantics:
// same size, same members, order-independent, duplicates collapse.
func equalIndexSet(selected, correct []int) bool {
	if len(correct) == 0 {
		return false
	}

	sel := make(map[int]struct{}, len(selected))
	for _, idx := range selected {
		sel[idx] = struct{}{}
	}
	if len(sel) != len(correct) {
		return false
	}
	for _, idx := range correct {
		if _, ok := sel[idx]; !ok {
			return false
		}
	}
	return true
}

// matrixCorrect requires a choice for every row and every choice to match
// that row's correct column. A missing or mismatched row fails the whole
// question.
func matrixCorrect(choices []string, pairs []model.MatchingPair) bool {
	if len(pairs) == 0 || len(choices) != len(pairs) {
		return false
	}
	for i, pair := range pairs {
		if choices[i] == "" || choices[i] != pair.CorrectColumn {
			return false
		}
	}
	return true
}
