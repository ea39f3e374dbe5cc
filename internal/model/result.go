package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is one completed (or forcibly terminated) exam attempt.
// Created exactly once at submission time and immutable thereafter.
// Multiple results may exist per (student, exam) pair; consumers wanting
// "current" status must pick the latest by SubmittedAt.
type Result struct {
	ID             uuid.UUID              `json:"id"`
	ExamID         uuid.UUID              `json:"exam_id"`
	ExamTitle      string                 `json:"exam_title"`
	StudentID      int                    `json:"student_id"`
	StudentName    string                 `json:"student_name"`
	StudentClass   string                 `json:"student_class"`
	Score          int                    `json:"score"`
	Answers        map[string]AnswerValue `json:"answers"`
	SubmittedAt    time.Time              `json:"submitted_at"`
	ViolationCount int                    `json:"violation_count"`
	IsDisqualified bool                   `json:"is_disqualified"`
}
