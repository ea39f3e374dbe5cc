package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestExam_EligibleFor(t *testing.T) {
	start := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)
	inside := start.Add(time.Hour)

	exam := func(active bool) *Exam {
		return &Exam{
			ID:              uuid.New(),
			Title:           "Simulasi ANBK Literasi",
			ScheduledStart:  start,
			ScheduledEnd:    end,
			DurationMinutes: 60,
			ClassTarget:     []string{"9A"},
			IsActive:        active,
		}
	}

	tests := []struct {
		name      string
		exam      *Exam
		className string
		now       time.Time
		want      bool
	}{
		{
			name:      "targeted class inside window",
			exam:      exam(true),
			className: "9A",
			now:       inside,
			want:      true,
		},
		{
			name:      "other class never sees the exam",
			exam:      exam(true),
			className: "9B",
			now:       inside,
			want:      false,
		},
		{
			name:      "kill-switch off inside window",
			exam:      exam(false),
			className: "9A",
			now:       inside,
			want:      false,
		},
		{
			name:      "before scheduled start",
			exam:      exam(true),
			className: "9A",
			now:       start.Add(-time.Minute),
			want:      false,
		},
		{
			name:      "after scheduled end",
			exam:      exam(true),
			className: "9A",
			now:       end.Add(time.Minute),
			want:      false,
		},
		{
			name:      "boundary at scheduled start",
			exam:      exam(true),
			className: "9A",
			now:       start,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.exam.EligibleFor(tt.className, tt.now); got != tt.want {
				t.Fatalf("EligibleFor(%s, %s) = %v, want %v", tt.className, tt.now, got, tt.want)
			}
		})
	}
}
