package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/internal/util"
)

// seedPool 第一课：易 2 分、易 3 分、中 4 分、难 5 分；第二课：易 1 分、中 2 分、难 3 分
func seedPool(t *testing.T, f *fixture) []model.Question {
	t.Helper()
	return []model.Question{
		f.choice(t, 0, "Easy", 2, "1/2 + 1/2 = ?", 0, "1", "2"),
		f.choice(t, 0, "Easy", 3, "1/4 + 1/4 = ?", 1, "1/4", "1/2"),
		f.text(t, 0, "Medium", 4, "Simplify 6/8", "3/4"),
		f.choice(t, 0, "Hard", 5, "2/3 * 3/4 = ?", 0, "1/2", "5/7"),
		f.choice(t, 1, "Easy", 1, "0.1 + 0.2 = ?", 0, "0.3", "0.4"),
		f.text(t, 1, "Medium", 2, "Round 2.45 to one decimal place", "2.5"),
		f.text(t, 1, "Hard", 3, "Explain why 0.999... equals 1", ""),
	}
}

func questionIDs(resp *model.MatrixWithQuestionsResponse) []uint {
	ids := make([]uint, 0, len(resp.Questions))
	for _, q := range resp.Questions {
		ids = append(ids, q.QuestionID)
	}
	return ids
}

func TestCreateWithQuestionsWholePool(t *testing.T) {
	f := newFixture(t)
	pool := seedPool(t, f)
	svc := f.matrixService()

	resp, err := svc.CreateWithQuestions(context.Background(), f.teacher, &CreateMatrixWithQuestionsRequest{
		ExamName:   "Fractions quiz",
		MatrixName: "Fractions matrix",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.TotalQuestions != len(pool) || len(resp.Questions) != len(pool) {
		t.Fatalf("total questions = %d, want %d", resp.TotalQuestions, len(pool))
	}
	if resp.TotalMarks != 20 {
		t.Errorf("total marks = %d, want 20", resp.TotalMarks)
	}
	if resp.PassingMarks != 10 {
		t.Errorf("passing marks = %d, want 10", resp.PassingMarks)
	}
	if resp.ExamStatus != model.ExamPublished {
		t.Errorf("exam status = %s", resp.ExamStatus)
	}
	if resp.DurationMinutes != 60 {
		t.Errorf("duration = %d", resp.DurationMinutes)
	}
	for i, q := range resp.Questions {
		if q.QuestionOrder != i+1 {
			t.Errorf("question %d has order %d", q.QuestionID, q.QuestionOrder)
		}
		if q.QuestionID != pool[i].ID {
			t.Errorf("question %d = %d, want ascending ids", i, q.QuestionID)
		}
	}
	if n := svc.Events.(*NoopPublisher).Count(EventMatrixCreated); n != 1 {
		t.Errorf("matrix created events = %d", n)
	}
}

func TestCreateWithQuestionsBuckets(t *testing.T) {
	f := newFixture(t)
	pool := seedPool(t, f)
	svc := f.matrixService()

	resp, err := svc.CreateWithQuestions(context.Background(), f.teacher, &CreateMatrixWithQuestionsRequest{
		ExamName:        "Bucketed",
		MatrixName:      "Bucketed",
		EasyQuestions:   intPtr(2),
		MediumQuestions: intPtr(5),
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []uint{pool[0].ID, pool[1].ID, pool[2].ID, pool[5].ID}
	if got := questionIDs(resp); !equalIDs(got, want) {
		t.Fatalf("questions = %v, want %v", got, want)
	}
	if resp.TotalMarks != 2+3+4+2 {
		t.Errorf("total marks = %d", resp.TotalMarks)
	}
	if resp.Selection == nil {
		t.Fatal("selection should be recorded")
	}
	if resp.Selection.Requested[BucketMedium] != 5 || resp.Selection.Fulfilled[BucketMedium] != 2 {
		t.Errorf("medium requested/fulfilled = %d/%d",
			resp.Selection.Requested[BucketMedium], resp.Selection.Fulfilled[BucketMedium])
	}
	if resp.Selection.Requested[BucketHard] != 0 || resp.Selection.Fulfilled[BucketHard] != 0 {
		t.Error("hard bucket was not requested")
	}
	if resp.Selection.PoolSize != len(pool) {
		t.Errorf("pool size = %d", resp.Selection.PoolSize)
	}
}

func TestCreateWithQuestionsFilters(t *testing.T) {
	f := newFixture(t)
	pool := seedPool(t, f)
	svc := f.matrixService()

	tests := []struct {
		name string
		req  CreateMatrixWithQuestionsRequest
		want []uint
	}{
		{
			name: "per lesson cap",
			req:  CreateMatrixWithQuestionsRequest{QuestionsPerLesson: intPtr(1)},
			want: []uint{pool[0].ID, pool[4].ID},
		},
		{
			name: "lesson filter",
			req:  CreateMatrixWithQuestionsRequest{LessonIDs: []uint{f.lessons[1].ID}},
			want: []uint{pool[4].ID, pool[5].ID, pool[6].ID},
		},
		{
			name: "level filter",
			req:  CreateMatrixWithQuestionsRequest{LevelIDs: []uint{f.levels["Hard"].ID}},
			want: []uint{pool[3].ID, pool[6].ID},
		},
		{
			name: "cap applies across buckets",
			req: CreateMatrixWithQuestionsRequest{
				QuestionsPerLesson: intPtr(2),
				EasyQuestions:      intPtr(3),
				HardQuestions:      intPtr(2),
			},
			want: []uint{pool[0].ID, pool[1].ID, pool[4].ID, pool[6].ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.ExamName = tt.name
			req.MatrixName = tt.name
			resp, err := svc.CreateWithQuestions(context.Background(), f.teacher, &req)
			if err != nil {
				t.Fatal(err)
			}
			if got := questionIDs(resp); !equalIDs(got, tt.want) {
				t.Errorf("questions = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateWithQuestionsDeterministic(t *testing.T) {
	f := newFixture(t)
	seedPool(t, f)
	svc := f.matrixService()

	req := func() *CreateMatrixWithQuestionsRequest {
		return &CreateMatrixWithQuestionsRequest{
			ExamName:        "Same",
			MatrixName:      "Same",
			EasyQuestions:   intPtr(1),
			MediumQuestions: intPtr(1),
			HardQuestions:   intPtr(1),
		}
	}
	first, err := svc.CreateWithQuestions(context.Background(), f.teacher, req())
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.CreateWithQuestions(context.Background(), f.teacher, req())
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(questionIDs(first), questionIDs(second)) {
		t.Errorf("draws differ: %v vs %v", questionIDs(first), questionIDs(second))
	}
	if first.ExamID == second.ExamID {
		t.Error("each matrix gets its own exam")
	}
}

func TestCreateWithQuestionsRejects(t *testing.T) {
	f := newFixture(t)
	seedPool(t, f)
	svc := f.matrixService()

	tests := []struct {
		name   string
		actor  *util.Claims
		req    CreateMatrixWithQuestionsRequest
		reason string
	}{
		{
			name:   "student",
			actor:  f.student,
			req:    CreateMatrixWithQuestionsRequest{ExamName: "x", MatrixName: "x"},
			reason: util.ReasonForbidden,
		},
		{
			name:   "empty pool",
			actor:  f.teacher,
			req:    CreateMatrixWithQuestionsRequest{ExamName: "x", MatrixName: "x", LessonIDs: []uint{9999}},
			reason: util.ReasonInvalidSelection,
		},
		{
			name:  "zero counts",
			actor: f.teacher,
			req: CreateMatrixWithQuestionsRequest{
				ExamName: "x", MatrixName: "x",
				EasyQuestions: intPtr(0), MediumQuestions: intPtr(0), HardQuestions: intPtr(0),
			},
			reason: util.ReasonInvalidSelection,
		},
		{
			name:   "missing names",
			actor:  f.teacher,
			req:    CreateMatrixWithQuestionsRequest{},
			reason: util.ReasonValidation,
		},
		{
			name:   "passing above total",
			actor:  f.teacher,
			req:    CreateMatrixWithQuestionsRequest{ExamName: "x", MatrixName: "x", PassingMarks: intPtr(100)},
			reason: util.ReasonValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.CreateWithQuestions(context.Background(), tt.actor, &req)
			wantReason(t, err, tt.reason)
		})
	}

	var exams int64
	f.db.Model(&model.Exam{}).Count(&exams)
	if exams != 0 {
		t.Errorf("rejected requests left %d exams behind", exams)
	}
}

func TestBucketOf(t *testing.T) {
	svc := &MatrixService{}
	for score, want := range map[int]string{
		1: BucketEasy, 3: BucketEasy, 4: BucketMedium, 6: BucketMedium, 7: BucketHard, 10: BucketHard,
	} {
		if got := svc.BucketOf(score); got != want {
			t.Errorf("BucketOf(%d) = %s, want %s", score, got, want)
		}
	}
}

func TestStudentQuestionsHideAnswers(t *testing.T) {
	f := newFixture(t)
	seedPool(t, f)
	svc := f.matrixService()

	resp, err := svc.CreateWithQuestions(context.Background(), f.teacher, &CreateMatrixWithQuestionsRequest{
		ExamName: "Hidden", MatrixName: "Hidden",
	})
	if err != nil {
		t.Fatal(err)
	}

	list, err := svc.StudentQuestions(f.teacher, resp.MatrixID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != resp.TotalQuestions {
		t.Fatalf("student view has %d questions", len(list))
	}
	if len(list[0].Options) != 2 {
		t.Errorf("first question options = %d", len(list[0].Options))
	}
	raw, err := json.Marshal(list)
	if err != nil {
		t.Fatal(err)
	}
	for _, leak := range []string{"isCorrect", "correctAnswer", "2.5"} {
		if strings.Contains(string(raw), leak) {
			t.Errorf("student view leaks %q", leak)
		}
	}

	if _, err := svc.StudentQuestions(f.teacher, 9999); err == nil {
		t.Error("unknown matrix should fail")
	}
}

func TestMatrixSnapshotSurvivesQuestionEdits(t *testing.T) {
	f := newFixture(t)
	pool := seedPool(t, f)
	svc := f.matrixService()

	resp, err := svc.CreateWithQuestions(context.Background(), f.teacher, &CreateMatrixWithQuestionsRequest{
		ExamName: "Snapshot", MatrixName: "Snapshot", LessonIDs: []uint{f.lessons[0].ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.db.Model(&model.Question{}).Where("id = ?", pool[0].ID).
		Update("question_text", "edited").Error; err != nil {
		t.Fatal(err)
	}

	got, err := svc.Get(resp.MatrixID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Questions[0].QuestionText != pool[0].QuestionText {
		t.Errorf("snapshot text = %q", got.Questions[0].QuestionText)
	}
}

func TestDeleteMatrixWithSessions(t *testing.T) {
	f := newFixture(t)
	seedPool(t, f)
	svc := f.matrixService()
	sessions := f.sessionService(nil)

	resp, err := svc.CreateWithQuestions(context.Background(), f.teacher, &CreateMatrixWithQuestionsRequest{
		ExamName: "Delete", MatrixName: "Delete",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sessions.Start(context.Background(), f.student.UserID, &StartSessionRequest{ExamID: resp.ExamID}); err != nil {
		t.Fatal(err)
	}
	wantReason(t, svc.Delete(resp.MatrixID), util.ReasonConflict)
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCreateWithQuestionsSkipsMisconfiguredChoices(t *testing.T) {
	f := newFixture(t)
	good := f.choice(t, 0, "Easy", 2, "3 + 4 = ?", 0, "7", "8")
	noCorrect := f.choice(t, 0, "Easy", 2, "5 + 5 = ?", -1, "9", "11")
	twoCorrect := f.choice(t, 0, "Medium", 3, "Which equals 1/2?", 0, "2/4", "3/5")
	mustCreate(t, f.db, &model.Option{OptionText: "4/8", IsCorrect: true, OptionOrder: 3, QuestionID: twoCorrect.ID})
	open := f.text(t, 0, "Hard", 4, "Write 0.75 as a fraction", "3/4")
	f.choice(t, 1, "Easy", 1, "Which is prime?", -1, "4", "6")

	svc := f.matrixService()
	resp, err := svc.CreateWithQuestions(context.Background(), f.teacher, &CreateMatrixWithQuestionsRequest{
		ExamName: "Mixed", MatrixName: "Mixed", LessonIDs: []uint{f.lessons[0].ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := questionIDs(resp); !equalIDs(got, []uint{good.ID, open.ID}) {
		t.Errorf("questions = %v, want %v", got, []uint{good.ID, open.ID})
	}
	if resp.TotalMarks != 6 {
		t.Errorf("total marks = %d, want 6", resp.TotalMarks)
	}
	if resp.Selection == nil || !equalIDs(resp.Selection.Excluded, []uint{noCorrect.ID, twoCorrect.ID}) {
		t.Errorf("selection = %+v", resp.Selection)
	}
	if resp.Selection != nil && resp.Selection.PoolSize != 2 {
		t.Errorf("pool size = %d, want 2", resp.Selection.PoolSize)
	}

	_, err = svc.CreateWithQuestions(context.Background(), f.teacher, &CreateMatrixWithQuestionsRequest{
		ExamName: "Broken", MatrixName: "Broken", LessonIDs: []uint{f.lessons[1].ID},
	})
	wantReason(t, err, util.ReasonInvalidSelection)
}
