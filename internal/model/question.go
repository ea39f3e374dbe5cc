package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported test item formats.
type QuestionType string

const (
	// QuestionTypeSingleChoice has one correct option index.
	QuestionTypeSingleChoice QuestionType = "SINGLE_CHOICE"
	// QuestionTypeMultiSelect has a set of correct option indices, graded exact-match.
	QuestionTypeMultiSelect QuestionType = "MULTI_SELECT"
	// QuestionTypeMatrixTrueFalse presents statements answered against two fixed columns.
	QuestionTypeMatrixTrueFalse QuestionType = "MATRIX_TRUE_FALSE"
	// QuestionTypeEssay is recognized but never auto-scored.
	QuestionTypeEssay QuestionType = "ESSAY"
	// QuestionTypeMatching is recognized but never auto-scored.
	QuestionTypeMatching QuestionType = "MATCHING"
)

// MatchingPair is one row of a matrix true/false question.
// CorrectColumn is one of the two fixed column keys "a" or "b".
type MatchingPair struct {
	Statement     string `json:"statement"`
	CorrectColumn string `json:"correct_column"`
}

// Question represents a single test item as stored in the question bank.
// Options, CorrectAnswerIndices and MatchingPairs are kept as raw JSON and
// parsed once, at session build time.
type Question struct {
	ID                   uuid.UUID       `json:"id"`
	PacketID             uuid.UUID       `json:"packet_id"`
	Number               int             `json:"number"`
	Stimulus             string          `json:"stimulus,omitempty"`
	Image                string          `json:"image,omitempty"`
	Text                 string          `json:"text"`
	Type                 QuestionType    `json:"type"`
	Options              json.RawMessage `json:"options"`
	CorrectAnswerIndex   int             `json:"correct_answer_index"`
	CorrectAnswerIndices json.RawMessage `json:"correct_answer_indices,omitempty"`
	MatchingPairs        json.RawMessage `json:"matching_pairs,omitempty"`
	Category             string          `json:"category"`
}

// CreateQuestionRequest is the payload for adding a question to a packet.
type CreateQuestionRequest struct {
	Number               int             `json:"number" binding:"min=0"`
	Stimulus             string          `json:"stimulus" binding:"omitempty,max=10000"`
	Image                string          `json:"image" binding:"omitempty,max=2000"`
	Text                 string          `json:"text" binding:"required,min=1,max=5000"`
	Type                 string          `json:"type" binding:"required,oneof=SINGLE_CHOICE MULTI_SELECT MATRIX_TRUE_FALSE ESSAY MATCHING"`
	Options              json.RawMessage `json:"options" binding:"required"`
	CorrectAnswerIndex   int             `json:"correct_answer_index" binding:"min=0"`
	CorrectAnswerIndices json.RawMessage `json:"correct_answer_indices" binding:"omitempty"`
	MatchingPairs        json.RawMessage `json:"matching_pairs" binding:"omitempty"`
}

// UpdateQuestionRequest is the payload for editing an existing question.
type UpdateQuestionRequest struct {
	Number               int             `json:"number" binding:"min=0"`
	Stimulus             string          `json:"stimulus" binding:"omitempty,max=10000"`
	Image                string          `json:"image" binding:"omitempty,max=2000"`
	Text                 string          `json:"text" binding:"required,min=1,max=5000"`
	Type                 string          `json:"type" binding:"required,oneof=SINGLE_CHOICE MULTI_SELECT MATRIX_TRUE_FALSE ESSAY MATCHING"`
	Options              json.RawMessage `json:"options" binding:"required"`
	CorrectAnswerIndex   int             `json:"correct_answer_index" binding:"min=0"`
	CorrectAnswerIndices json.RawMessage `json:"correct_answer_indices" binding:"omitempty"`
	MatchingPairs        json.RawMessage `json:"matching_pairs" binding:"omitempty"`
}
