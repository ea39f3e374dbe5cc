package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/scoring"
)

func testExam(durationMinutes int) *model.Exam {
	return &model.Exam{
		ID:              uuid.New(),
		Title:           "Simulasi ANBK Literasi",
		DurationMinutes: durationMinutes,
	}
}

func testStudent() *model.Student {
	return &model.Student{ID: 7, Name: "Budi Santoso", ClassName: "9A"}
}

func twoQuestions() []scoring.Question {
	return []scoring.Question{
		{
			ID:           "q1",
			Type:         model.QuestionTypeSingleChoice,
			Options:      []string{"a", "b", "c"},
			CorrectIndex: 1,
		},
		{
			ID:           "q2",
			Type:         model.QuestionTypeSingleChoice,
			Options:      []string{"a", "b", "c"},
			CorrectIndex: 2,
		},
	}
}

func runningSession(questions []scoring.Question) *Session {
	s := New(testExam(30), testStudent(), questions, 3)
	s.Begin(time.Now())
	return s
}

func TestSession_BeginTransitionsOnce(t *testing.T) {
	s := New(testExam(30), testStudent(), twoQuestions(), 3)
	if s.State() != StateLoading {
		t.Fatalf("expected LOADING, got %s", s.State())
	}

	s.Begin(time.Now())
	if s.State() != StateInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", s.State())
	}

	if _, err := s.Submit(FinishManual); err != nil {
		t.Fatalf("submit: %v", err)
	}
	s.Begin(time.Now())
	if s.State() != StateFinished {
		t.Fatal("Begin must not resurrect a finished session")
	}
}

func TestSession_RecordAnswerOverwrites(t *testing.T) {
	s := runningSession(twoQuestions())

	if err := s.RecordAnswer("q1", model.AnswerValue{Kind: model.AnswerKindSingle, Single: 0}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.RecordAnswer("q1", model.AnswerValue{Kind: model.AnswerKindSingle, Single: 1}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	snap := s.Snapshot()
	if got := snap.Answers["q1"]; got.Single != 1 {
		t.Fatalf("expected latest answer to win, got index %d", got.Single)
	}
}

func TestSession_RecordAnswerUnknownQuestion(t *testing.T) {
	s := runningSession(twoQuestions())
	err := s.RecordAnswer("q99", model.AnswerValue{Kind: model.AnswerKindSingle, Single: 0})
	if !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("expected ErrUnknownQuestion, got %v", err)
	}
}

func TestSession_ToggleDoubtful(t *testing.T) {
	s := runningSession(twoQuestions())

	on, err := s.ToggleDoubtful("q1")
	if err != nil || !on {
		t.Fatalf("first toggle: on=%v err=%v", on, err)
	}
	off, err := s.ToggleDoubtful("q1")
	if err != nil || off {
		t.Fatalf("second toggle: on=%v err=%v", off, err)
	}
	if len(s.Snapshot().Doubtful) != 0 {
		t.Fatal("doubt marker not cleared")
	}
}

func TestSession_NavigateBounds(t *testing.T) {
	s := runningSession(twoQuestions())

	if err := s.Navigate(1); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if got := s.Snapshot().CurrentIndex; got != 1 {
		t.Fatalf("expected index 1, got %d", got)
	}
	if err := s.Navigate(-1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := s.Navigate(2); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestSession_TickCountsDownToExpiry(t *testing.T) {
	s := New(testExam(30), testStudent(), twoQuestions(), 3)
	s.Begin(time.Now())

	remaining, expired := s.Tick()
	if remaining != 30*60-1 || expired {
		t.Fatalf("first tick: remaining=%d expired=%v", remaining, expired)
	}

	// Short clock to drive the session to expiry.
	short := New(&model.Exam{ID: uuid.New(), Title: "t", DurationMinutes: 0}, testStudent(), twoQuestions(), 3)
	short.remainingSeconds = 2
	short.Begin(time.Now())

	if _, expired := short.Tick(); expired {
		t.Fatal("expired one second early")
	}
	if _, expired := short.Tick(); !expired {
		t.Fatal("expected expiry at zero")
	}
}

func TestSession_TickAfterFinishIsInert(t *testing.T) {
	s := runningSession(twoQuestions())
	if _, err := s.Submit(FinishManual); err != nil {
		t.Fatalf("submit: %v", err)
	}

	before := s.Snapshot().RemainingSeconds
	if _, expired := s.Tick(); expired {
		t.Fatal("finished session must not expire")
	}
	if s.Snapshot().RemainingSeconds != before {
		t.Fatal("finished session clock moved")
	}
}

func TestSession_ViolationThreshold(t *testing.T) {
	s := runningSession(twoQuestions())

	for want := 1; want <= 2; want++ {
		count, reached, err := s.AddViolation()
		if err != nil {
			t.Fatalf("violation %d: %v", want, err)
		}
		if count != want || reached {
			t.Fatalf("violation %d: count=%d reached=%v", want, count, reached)
		}
	}

	count, reached, err := s.AddViolation()
	if err != nil {
		t.Fatalf("third violation: %v", err)
	}
	if count != 3 || !reached {
		t.Fatalf("third violation: count=%d reached=%v", count, reached)
	}
}

func TestSession_SubmitScoresAnswers(t *testing.T) {
	s := runningSession(twoQuestions())
	if err := s.RecordAnswer("q1", model.AnswerValue{Kind: model.AnswerKindSingle, Single: 1}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.RecordAnswer("q2", model.AnswerValue{Kind: model.AnswerKindSingle, Single: 0}); err != nil {
		t.Fatalf("record: %v", err)
	}

	out, err := s.Submit(FinishManual)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Score != 50 {
		t.Fatalf("expected score 50, got %d", out.Score)
	}
	if out.IsDisqualified {
		t.Fatal("manual submit must not disqualify")
	}
	if out.Reason != FinishManual {
		t.Fatalf("expected reason manual, got %s", out.Reason)
	}
}

func TestSession_SubmitAtMostOnce(t *testing.T) {
	s := runningSession(twoQuestions())

	if _, err := s.Submit(FinishManual); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := s.Submit(FinishTimeExpired); !errors.Is(err, ErrAlreadyFinished) {
		t.Fatalf("expected ErrAlreadyFinished, got %v", err)
	}
	if err := s.RecordAnswer("q1", model.AnswerValue{Kind: model.AnswerKindSingle, Single: 1}); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("expected ErrNotInProgress after finish, got %v", err)
	}
}

func TestSession_SubmitAtMostOnceConcurrent(t *testing.T) {
	s := runningSession(twoQuestions())

	const racers = 32
	var wg sync.WaitGroup
	outcomes := make(chan *Outcome, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if out, err := s.Submit(FinishTimeExpired); err == nil {
				outcomes <- out
			}
		}()
	}
	wg.Wait()
	close(outcomes)

	if got := len(outcomes); got != 1 {
		t.Fatalf("expected exactly one outcome, got %d", got)
	}
}

func TestSession_SubmitAtThresholdDisqualifies(t *testing.T) {
	s := runningSession(twoQuestions())
	if err := s.RecordAnswer("q1", model.AnswerValue{Kind: model.AnswerKindSingle, Single: 1}); err != nil {
		t.Fatalf("record: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, _, err := s.AddViolation(); err != nil {
			t.Fatalf("violation: %v", err)
		}
	}

	out, err := s.Submit(FinishManual)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !out.IsDisqualified {
		t.Fatal("expected disqualification at threshold")
	}
	if out.Reason != FinishDisqualified {
		t.Fatalf("expected reason disqualified, got %s", out.Reason)
	}
	if out.ViolationCount != 3 {
		t.Fatalf("expected 3 violations in outcome, got %d", out.ViolationCount)
	}
	// Stored score is the computed score; the display layer decides how to
	// present a disqualified attempt.
	if out.Score != 50 {
		t.Fatalf("expected computed score 50, got %d", out.Score)
	}
}

func TestSession_SubmitBelowThresholdKeepsScore(t *testing.T) {
	s := runningSession(twoQuestions())
	for i := 0; i < 2; i++ {
		if _, _, err := s.AddViolation(); err != nil {
			t.Fatalf("violation: %v", err)
		}
	}

	out, err := s.Submit(FinishTimeExpired)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.IsDisqualified {
		t.Fatal("two violations must not disqualify")
	}
	if out.Reason != FinishTimeExpired {
		t.Fatalf("expected reason time_expired, got %s", out.Reason)
	}
}

func TestSession_ManualSubmitCannotOutrunDisqualification(t *testing.T) {
	// A second connection on the same token shares the session, so a manual
	// submit can land between the third violation and the forced finalize.
	// The verdict is sealed with the counter; the manual submit must lose.
	s := runningSession(twoQuestions())

	for i := 0; i < 3; i++ {
		if _, _, err := s.AddViolation(); err != nil {
			t.Fatalf("violation: %v", err)
		}
	}

	out, err := s.Submit(FinishManual)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !out.IsDisqualified {
		t.Fatalf("escaped disqualification: violations=%d disqualified=%v reason=%s",
			out.ViolationCount, out.IsDisqualified, out.Reason)
	}
	if out.Reason != FinishDisqualified {
		t.Fatalf("expected reason disqualified, got %s", out.Reason)
	}

	// The forced finalize arriving late must not mint a second outcome.
	if _, err := s.Submit(FinishDisqualified); !errors.Is(err, ErrAlreadyFinished) {
		t.Fatalf("expected ErrAlreadyFinished, got %v", err)
	}
}

func TestSession_SnapshotReflectsState(t *testing.T) {
	s := runningSession(twoQuestions())
	if err := s.RecordAnswer("q2", model.AnswerValue{Kind: model.AnswerKindSingle, Single: 2}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := s.ToggleDoubtful("q1"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := s.Navigate(1); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if _, _, err := s.AddViolation(); err != nil {
		t.Fatalf("violation: %v", err)
	}

	snap := s.Snapshot()
	if snap.State != StateInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", snap.State)
	}
	if snap.CurrentIndex != 1 || snap.TotalQuestions != 2 || snap.ViolationCount != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Doubtful) != 1 || snap.Doubtful[0] != "q1" {
		t.Fatalf("unexpected doubtful set: %v", snap.Doubtful)
	}
	if snap.Answers["q2"].Single != 2 {
		t.Fatalf("unexpected answers: %+v", snap.Answers)
	}
}

func TestStudentView_StripsAnswerKeys(t *testing.T) {
	questions := []scoring.Question{
		{
			ID:           "q1",
			Type:         model.QuestionTypeSingleChoice,
			Options:      []string{"a", "b"},
			CorrectIndex: 1,
		},
		{
			ID:      "q2",
			Type:    model.QuestionTypeMatrixTrueFalse,
			Options: []string{"Benar", "Salah"},
			Pairs: []model.MatchingPair{
				{Statement: "pernyataan 1", CorrectColumn: "a"},
			},
		},
	}

	view := StudentView(questions)
	if len(view) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(view))
	}
	if view[0].Number != 1 || view[1].Number != 2 {
		t.Fatal("numbers must follow session order")
	}
	if view[1].Statements[0] != "pernyataan 1" {
		t.Fatalf("statement text missing: %+v", view[1])
	}
}
