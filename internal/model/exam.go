package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam is a scheduled administration of one packet to a set of classes.
type Exam struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	PacketID        uuid.UUID `json:"packet_id"`
	ScheduledStart  time.Time `json:"scheduled_start"`
	ScheduledEnd    time.Time `json:"scheduled_end"`
	DurationMinutes int       `json:"duration_minutes"`
	ClassTarget     []string  `json:"class_target"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EligibleFor reports whether a student of the given class may start this
// exam right now: targeted class, active kill-switch on, and inside the
// schedule window.
func (e *Exam) EligibleFor(className string, now time.Time) bool {
	if !e.IsActive {
		return false
	}
	if now.Before(e.ScheduledStart) || now.After(e.ScheduledEnd) {
		return false
	}
	for _, target := range e.ClassTarget {
		if target == className {
			return true
		}
	}
	return false
}

// CreateExamRequest is the payload for scheduling a new exam.
type CreateExamRequest struct {
	Title           string    `json:"title" binding:"required,min=3,max=255"`
	PacketID        uuid.UUID `json:"packet_id" binding:"required"`
	ScheduledStart  time.Time `json:"scheduled_start" binding:"required"`
	ScheduledEnd    time.Time `json:"scheduled_end" binding:"required,gtfield=ScheduledStart"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=1,max=480"`
	ClassTarget     []string  `json:"class_target" binding:"required,min=1,dive,min=1,max=20"`
	IsActive        bool      `json:"is_active"`
}

// UpdateExamRequest is the payload for rescheduling or retargeting an exam.
type UpdateExamRequest struct {
	Title           string    `json:"title" binding:"required,min=3,max=255"`
	PacketID        uuid.UUID `json:"packet_id" binding:"required"`
	ScheduledStart  time.Time `json:"scheduled_start" binding:"required"`
	ScheduledEnd    time.Time `json:"scheduled_end" binding:"required,gtfield=ScheduledStart"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=1,max=480"`
	ClassTarget     []string  `json:"class_target" binding:"required,min=1,dive,min=1,max=20"`
	IsActive        bool      `json:"is_active"`
}

// SetExamActiveRequest toggles the admin kill-switch.
type SetExamActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
