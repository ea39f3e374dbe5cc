package scoring

import (
	"testing"

	"github.com/smpn3pacet/cbt-backend/internal/model"
)

func singleQ(id string, correct int) Question {
	return Question{
		ID:           id,
		Type:         model.QuestionTypeSingleChoice,
		Options:      []string{"opt a", "opt b", "opt c", "opt d"},
		CorrectIndex: correct,
	}
}

func multiQ(id string, correct []int) Question {
	return Question{
		ID:             id,
		Type:           model.QuestionTypeMultiSelect,
		Options:        []string{"opt a", "opt b", "opt c", "opt d"},
		CorrectIndices: correct,
	}
}

func matrixQ(id string, columns []string) Question {
	return Question{
		ID:      id,
		Type:    model.QuestionTypeMatrixTrueFalse,
		Options: []string{"Benar", "Salah"},
		Pairs: []model.MatchingPair{
			{Statement: "pernyataan 1", CorrectColumn: columns[0]},
			{Statement: "pernyataan 2", CorrectColumn: columns[1]},
		},
	}
}

func singleAns(idx int) model.AnswerValue {
	return model.AnswerValue{Kind: model.AnswerKindSingle, Single: idx}
}

func multiAns(idx ...int) model.AnswerValue {
	return model.AnswerValue{Kind: model.AnswerKindMulti, Multi: idx}
}

func matrixAns(choices ...string) model.AnswerValue {
	return model.AnswerValue{Kind: model.AnswerKindMatrix, Matrix: choices}
}

func TestCorrect_SingleChoice(t *testing.T) {
	q := singleQ("q1", 2)

	tests := []struct {
		name string
		ans  model.AnswerValue
		want bool
	}{
		{name: "exact index", ans: singleAns(2), want: true},
		{name: "wrong index", ans: singleAns(1), want: false},
		{name: "unanswered", ans: model.AnswerValue{}, want: false},
		{name: "multi shaped answer", ans: multiAns(2), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Correct(&q, tc.ans); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCorrect_MultiSelect(t *testing.T) {
	q := multiQ("q1", []int{0, 3})

	tests := []struct {
		name string
		ans  model.AnswerValue
		want bool
	}{
		{name: "exact set", ans: multiAns(0, 3), want: true},
		{name: "order independent", ans: multiAns(3, 0), want: true},
		{name: "duplicates collapse", ans: multiAns(0, 3, 3), want: true},
		{name: "missing one", ans: multiAns(0), want: false},
		{name: "extra one", ans: multiAns(0, 1, 3), want: false},
		{name: "unanswered", ans: model.AnswerValue{}, want: false},
		{name: "empty selection", ans: multiAns(), want: false},
		{name: "single shaped answer", ans: singleAns(0), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Correct(&q, tc.ans); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCorrect_MultiSelectEmptyKey(t *testing.T) {
	q := multiQ("q1", nil)
	if Correct(&q, multiAns()) {
		t.Fatal("empty answer key must never score correct")
	}
}

func TestCorrect_MatrixTrueFalse(t *testing.T) {
	q := matrixQ("q1", []string{"a", "b"})

	tests := []struct {
		name string
		ans  model.AnswerValue
		want bool
	}{
		{name: "all rows correct", ans: matrixAns("a", "b"), want: true},
		{name: "one row wrong", ans: matrixAns("a", "a"), want: false},
		{name: "one row missing", ans: matrixAns("a", ""), want: false},
		{name: "row count mismatch", ans: matrixAns("a"), want: false},
		{name: "unanswered", ans: model.AnswerValue{}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Correct(&q, tc.ans); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCorrect_NeverAutoScored(t *testing.T) {
	essay := Question{ID: "q1", Type: model.QuestionTypeEssay, Options: []string{"-"}}
	matching := Question{ID: "q2", Type: model.QuestionTypeMatching, Options: []string{"-"}}
	invalid := singleQ("q3", 0)
	invalid.Invalid = true

	if Correct(&essay, model.AnswerValue{Kind: model.AnswerKindText, Text: "jawaban"}) {
		t.Fatal("essay must not be auto-scored")
	}
	if Correct(&matching, model.AnswerValue{Kind: model.AnswerKindText, Text: "jawaban"}) {
		t.Fatal("matching must not be auto-scored")
	}
	if Correct(&invalid, singleAns(0)) {
		t.Fatal("invalid question must never score correct")
	}
}

func TestScore_Rounding(t *testing.T) {
	tests := []struct {
		name      string
		questions []Question
		answers   map[string]model.AnswerValue
		want      int
	}{
		{
			name:      "empty set scores zero",
			questions: nil,
			answers:   map[string]model.AnswerValue{},
			want:      0,
		},
		{
			name:      "all correct",
			questions: []Question{singleQ("q1", 0), singleQ("q2", 1)},
			answers: map[string]model.AnswerValue{
				"q1": singleAns(0),
				"q2": singleAns(1),
			},
			want: 100,
		},
		{
			name:      "one of two",
			questions: []Question{singleQ("q1", 0), singleQ("q2", 1)},
			answers: map[string]model.AnswerValue{
				"q1": singleAns(0),
				"q2": singleAns(3),
			},
			want: 50,
		},
		{
			name:      "none answered",
			questions: []Question{singleQ("q1", 0), singleQ("q2", 1)},
			answers:   map[string]model.AnswerValue{},
			want:      0,
		},
		{
			name:      "one of three rounds to 33",
			questions: []Question{singleQ("q1", 0), singleQ("q2", 1), singleQ("q3", 2)},
			answers: map[string]model.AnswerValue{
				"q1": singleAns(0),
			},
			want: 33,
		},
		{
			name:      "two of three rounds to 67",
			questions: []Question{singleQ("q1", 0), singleQ("q2", 1), singleQ("q3", 2)},
			answers: map[string]model.AnswerValue{
				"q1": singleAns(0),
				"q2": singleAns(1),
			},
			want: 67,
		},
		{
			name: "mixed types",
			questions: []Question{
				singleQ("q1", 1),
				multiQ("q2", []int{0, 2}),
				matrixQ("q3", []string{"a", "a"}),
				{ID: "q4", Type: model.QuestionTypeEssay, Options: []string{"-"}},
			},
			answers: map[string]model.AnswerValue{
				"q1": singleAns(1),
				"q2": multiAns(2, 0),
				"q3": matrixAns("a", "a"),
				"q4": {Kind: model.AnswerKindText, Text: "uraian panjang"},
			},
			want: 75,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(tc.questions, tc.answers); got != tc.want {
				t.Fatalf("expected score %d, got %d", tc.want, got)
			}
		})
	}
}

func TestScore_Deterministic(t *testing.T) {
	questions := []Question{singleQ("q1", 0), multiQ("q2", []int{1, 2}), matrixQ("q3", []string{"b", "a"})}
	answers := map[string]model.AnswerValue{
		"q1": singleAns(0),
		"q2": multiAns(1, 2),
		"q3": matrixAns("b", "b"),
	}

	first := Score(questions, answers)
	for i := 0; i < 20; i++ {
		if got := Score(questions, answers); got != first {
			t.Fatalf("score changed between runs: %d vs %d", first, got)
		}
	}
}
