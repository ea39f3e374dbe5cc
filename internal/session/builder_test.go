package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/scoring"
)

type stubQuestionSource struct {
	questions []model.Question
	err       error
}

func (s *stubQuestionSource) ListByPacket(_ context.Context, _ uuid.UUID) ([]model.Question, error) {
	return s.questions, s.err
}

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return b
}

func storedSingle(t *testing.T, number int, options []string, correct int) model.Question {
	return model.Question{
		ID:                 uuid.New(),
		Number:             number,
		Text:               "soal pilihan ganda",
		Type:               model.QuestionTypeSingleChoice,
		Options:            rawJSON(t, options),
		CorrectAnswerIndex: correct,
	}
}

func storedMulti(t *testing.T, number int, options []string, correct []int) model.Question {
	return model.Question{
		ID:                   uuid.New(),
		Number:               number,
		Text:                 "soal pilihan ganda kompleks",
		Type:                 model.QuestionTypeMultiSelect,
		Options:              rawJSON(t, options),
		CorrectAnswerIndices: rawJSON(t, correct),
	}
}

func TestBuild_EmptyPacket(t *testing.T) {
	b := NewBuilder(&stubQuestionSource{})
	if _, err := b.Build(context.Background(), uuid.New()); !errors.Is(err, ErrEmptyPacket) {
		t.Fatalf("expected ErrEmptyPacket, got %v", err)
	}
}

func TestBuild_SourceError(t *testing.T) {
	wantErr := errors.New("connection refused")
	b := NewBuilder(&stubQuestionSource{err: wantErr})
	if _, err := b.Build(context.Background(), uuid.New()); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

func TestBuild_QuestionOrderIsPermutation(t *testing.T) {
	stored := make([]model.Question, 10)
	for i := range stored {
		stored[i] = storedSingle(t, i+1, []string{"a", "b", "c", "d"}, 0)
	}
	b := NewBuilder(&stubQuestionSource{questions: stored})

	built, err := b.Build(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(built) != len(stored) {
		t.Fatalf("expected %d questions, got %d", len(stored), len(built))
	}

	seen := make(map[string]bool, len(stored))
	for _, q := range built {
		seen[q.ID] = true
	}
	for _, q := range stored {
		if !seen[q.ID.String()] {
			t.Fatalf("question %s missing from built session", q.ID)
		}
	}
}

// Shuffling options must move the answer key with them: the option text that
// was correct before the shuffle is still the one CorrectIndex points at.
func TestBuild_SingleChoiceKeyFollowsShuffle(t *testing.T) {
	options := []string{"merah", "hijau", "biru", "kuning"}
	const correctText = "biru"

	for i := 0; i < 50; i++ {
		stored := []model.Question{storedSingle(t, 1, options, 2)}
		b := NewBuilder(&stubQuestionSource{questions: stored})

		built, err := b.Build(context.Background(), uuid.New())
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		q := built[0]
		if q.Invalid {
			t.Fatal("question unexpectedly invalid")
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			t.Fatalf("remapped index %d out of range", q.CorrectIndex)
		}
		if q.Options[q.CorrectIndex] != correctText {
			t.Fatalf("answer key lost: index %d points at %q", q.CorrectIndex, q.Options[q.CorrectIndex])
		}
	}
}

func TestBuild_MultiSelectKeyFollowsShuffle(t *testing.T) {
	options := []string{"satu", "dua", "tiga", "empat", "lima"}
	wantCorrect := map[string]bool{"dua": true, "empat": true}

	for i := 0; i < 50; i++ {
		stored := []model.Question{storedMulti(t, 1, options, []int{1, 3})}
		b := NewBuilder(&stubQuestionSource{questions: stored})

		built, err := b.Build(context.Background(), uuid.New())
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		q := built[0]
		if len(q.CorrectIndices) != len(wantCorrect) {
			t.Fatalf("expected %d correct indices, got %d", len(wantCorrect), len(q.CorrectIndices))
		}
		for _, idx := range q.CorrectIndices {
			if idx < 0 || idx >= len(q.Options) {
				t.Fatalf("remapped index %d out of range", idx)
			}
			if !wantCorrect[q.Options[idx]] {
				t.Fatalf("remapped index %d points at wrong option %q", idx, q.Options[idx])
			}
		}
	}
}

func TestBuild_MatrixRowsUntouched(t *testing.T) {
	pairs := []model.MatchingPair{
		{Statement: "pernyataan 1", CorrectColumn: "a"},
		{Statement: "pernyataan 2", CorrectColumn: "b"},
		{Statement: "pernyataan 3", CorrectColumn: "a"},
	}
	stored := []model.Question{{
		ID:            uuid.New(),
		Number:        1,
		Text:          "soal benar salah",
		Type:          model.QuestionTypeMatrixTrueFalse,
		Options:       rawJSON(t, []string{"Benar", "Salah"}),
		MatchingPairs: rawJSON(t, pairs),
	}}

	b := NewBuilder(&stubQuestionSource{questions: stored})
	built, err := b.Build(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	q := built[0]
	if q.Invalid {
		t.Fatal("question unexpectedly invalid")
	}
	if q.Options[0] != "Benar" || q.Options[1] != "Salah" {
		t.Fatalf("column labels reordered: %v", q.Options)
	}
	for i, pair := range q.Pairs {
		if pair != pairs[i] {
			t.Fatalf("row %d changed: %+v", i, pair)
		}
	}
}

func TestBuild_MalformedBecomesInvalidPlaceholder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Question)
	}{
		{name: "broken options json", mutate: func(q *model.Question) {
			q.Options = json.RawMessage(`{"not":`)
		}},
		{name: "single key out of range", mutate: func(q *model.Question) {
			q.CorrectAnswerIndex = 9
		}},
		{name: "negative single key", mutate: func(q *model.Question) {
			q.CorrectAnswerIndex = -1
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			broken := storedSingle(t, 1, []string{"a", "b"}, 0)
			tc.mutate(&broken)
			stored := []model.Question{broken, storedSingle(t, 2, []string{"a", "b"}, 1)}

			b := NewBuilder(&stubQuestionSource{questions: stored})
			built, err := b.Build(context.Background(), uuid.New())
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if len(built) != 2 {
				t.Fatalf("invalid question must stay in the set, got %d questions", len(built))
			}

			var invalid *scoring.Question
			for i := range built {
				if built[i].ID == broken.ID.String() {
					invalid = &built[i]
				}
			}
			if invalid == nil {
				t.Fatal("broken question missing from built session")
			}
			if !invalid.Invalid {
				t.Fatal("broken question not marked invalid")
			}
			if scoring.Correct(invalid, model.AnswerValue{Kind: model.AnswerKindSingle, Single: 0}) {
				t.Fatal("invalid question must never score correct")
			}
		})
	}
}

func TestBuild_CanonicalQuestionsUntouched(t *testing.T) {
	options := []string{"a", "b", "c", "d"}
	stored := []model.Question{storedSingle(t, 1, options, 1)}
	origOptions := string(stored[0].Options)

	b := NewBuilder(&stubQuestionSource{questions: stored})
	for i := 0; i < 10; i++ {
		if _, err := b.Build(context.Background(), uuid.New()); err != nil {
			t.Fatalf("build: %v", err)
		}
	}

	if string(stored[0].Options) != origOptions {
		t.Fatalf("canonical options mutated: %s", stored[0].Options)
	}
	if stored[0].CorrectAnswerIndex != 1 {
		t.Fatalf("canonical answer key mutated: %d", stored[0].CorrectAnswerIndex)
	}
}
