package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/internal/repository"
	"matrix_exam_backend/internal/util"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages map[uint][]string
}

func (n *recordingNotifier) NotifyStudent(studentID uint, msg WSMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.messages == nil {
		n.messages = map[uint][]string{}
	}
	n.messages[studentID] = append(n.messages[studentID], msg.Type)
}

func (n *recordingNotifier) types(studentID uint) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages[studentID]...)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sessionEnv struct {
	*fixture
	pool   []model.Question
	exam   *model.MatrixWithQuestionsResponse
	svc    *ExamSessionService
	events *NoopPublisher
	notes  *recordingNotifier
	clock  *clock
}

// newSessionEnv 第一课四道题（14 分，及格 7 分），考试时长 60 分钟
func newSessionEnv(t *testing.T) *sessionEnv {
	t.Helper()
	f := newFixture(t)
	pool := seedPool(t, f)
	exam, err := f.matrixService().CreateWithQuestions(context.Background(), f.teacher, &CreateMatrixWithQuestionsRequest{
		ExamName:   "Fractions",
		MatrixName: "Fractions",
		LessonIDs:  []uint{f.lessons[0].ID},
	})
	if err != nil {
		t.Fatal(err)
	}

	env := &sessionEnv{
		fixture: f,
		pool:    pool,
		exam:    exam,
		events:  &NoopPublisher{},
		notes:   &recordingNotifier{},
		clock:   &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	env.svc = f.sessionService(env.events)
	env.svc.Notifier = env.notes
	env.svc.Now = env.clock.Now
	return env
}

func (e *sessionEnv) start(t *testing.T, student *util.Claims) *model.ExamSessionResponse {
	t.Helper()
	resp, err := e.svc.Start(context.Background(), student.UserID, &StartSessionRequest{ExamID: e.exam.ExamID})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return resp
}

func (e *sessionEnv) choose(t *testing.T, student *util.Claims, sessionID uint, q model.Question, option int) {
	t.Helper()
	_, err := e.svc.SubmitAnswer(context.Background(), student.UserID, &SubmitAnswerRequest{
		SessionID:        sessionID,
		QuestionID:       q.ID,
		SelectedOptionID: uintPtr(q.Options[option].ID),
	})
	if err != nil {
		t.Fatalf("answer %d: %v", q.ID, err)
	}
}

func TestStartConcurrentSingleWinner(t *testing.T) {
	env := newSessionEnv(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Start(context.Background(), env.student.UserID, &StartSessionRequest{ExamID: env.exam.ExamID})
		}(i)
	}
	wg.Wait()

	started := 0
	for _, err := range errs {
		switch {
		case err == nil:
			started++
		case errors.Is(err, util.ErrAlreadyActive):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if started != 1 {
		t.Fatalf("started = %d, want exactly 1", started)
	}

	var count int64
	env.db.Model(&model.ExamSession{}).Where("student_id = ?", env.student.UserID).Count(&count)
	if count != 1 {
		t.Errorf("sessions = %d", count)
	}
}

func TestStartRejects(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	_, err := env.svc.Start(ctx, env.student.UserID, &StartSessionRequest{ExamID: 9999})
	wantReason(t, err, util.ReasonNotFound)

	_, err = env.svc.Start(ctx, env.student.UserID, &StartSessionRequest{ExamID: env.exam.ExamID, MatrixID: 9999})
	wantReason(t, err, util.ReasonValidation)

	draft := model.Exam{ExamName: "Draft", DurationMinutes: 30, Status: model.ExamDraft, ExamDate: env.clock.Now()}
	mustCreate(t, env.db, &draft)
	_, err = env.svc.Start(ctx, env.student.UserID, &StartSessionRequest{ExamID: draft.ID})
	wantReason(t, err, util.ReasonExamNotAvailable)

	published := model.Exam{ExamName: "No matrix", DurationMinutes: 30, Status: model.ExamPublished, ExamDate: env.clock.Now()}
	mustCreate(t, env.db, &published)
	_, err = env.svc.Start(ctx, env.student.UserID, &StartSessionRequest{ExamID: published.ID})
	wantReason(t, err, util.ReasonExamNotAvailable)
}

func TestStartResponse(t *testing.T) {
	env := newSessionEnv(t)
	resp := env.start(t, env.student)

	if resp.Status != model.SessionInProgress {
		t.Errorf("status = %s", resp.Status)
	}
	if want := env.clock.Now().Add(60 * time.Minute); !resp.Deadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", resp.Deadline, want)
	}
	if resp.RemainingSeconds != 3600 {
		t.Errorf("remaining = %d", resp.RemainingSeconds)
	}

	active, err := env.svc.Active(context.Background(), env.student.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if active == nil || active.SessionID != resp.SessionID {
		t.Fatalf("active = %+v", active)
	}

	other := env.user(t, "other@example.com", model.RoleStudent)
	none, err := env.svc.Active(context.Background(), other.UserID)
	if err != nil || none != nil {
		t.Errorf("student without a session: %+v, %v", none, err)
	}
}

func TestSubmitAnswerLastWriteWins(t *testing.T) {
	env := newSessionEnv(t)
	session := env.start(t, env.student)
	q := env.pool[0]

	env.choose(t, env.student, session.SessionID, q, 1)
	env.clock.Advance(time.Minute)
	env.choose(t, env.student, session.SessionID, q, 0)

	answers, err := env.svc.Answers(context.Background(), env.student, session.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 1 {
		t.Fatalf("answers = %d, want 1", len(answers))
	}
	a := answers[0]
	if a.SelectedOptionID == nil || *a.SelectedOptionID != q.Options[0].ID {
		t.Errorf("selected = %v, want %d", a.SelectedOptionID, q.Options[0].ID)
	}
	if a.SelectedOptionText == nil || *a.SelectedOptionText != q.Options[0].OptionText {
		t.Errorf("selected text = %v", a.SelectedOptionText)
	}
	if a.IsCorrect != nil {
		t.Error("correctness must stay hidden while the session is in progress")
	}
	if !a.AnsweredAt.Equal(env.clock.Now()) {
		t.Errorf("answered at = %v", a.AnsweredAt)
	}
}

func TestSubmitAnswerRejects(t *testing.T) {
	env := newSessionEnv(t)
	session := env.start(t, env.student)
	choice, text := env.pool[0], env.pool[2]
	outside := env.pool[4]

	tests := []struct {
		name    string
		student *util.Claims
		req     SubmitAnswerRequest
		reason  string
	}{
		{
			name:    "no answer",
			student: env.student,
			req:     SubmitAnswerRequest{SessionID: session.SessionID, QuestionID: choice.ID},
			reason:  util.ReasonValidation,
		},
		{
			name:    "both answers",
			student: env.student,
			req: SubmitAnswerRequest{SessionID: session.SessionID, QuestionID: choice.ID,
				SelectedOptionID: uintPtr(choice.Options[0].ID), TextAnswer: strPtr("1")},
			reason: util.ReasonValidation,
		},
		{
			name:    "question outside the matrix",
			student: env.student,
			req: SubmitAnswerRequest{SessionID: session.SessionID, QuestionID: outside.ID,
				SelectedOptionID: uintPtr(outside.Options[0].ID)},
			reason: util.ReasonValidation,
		},
		{
			name:    "option of another question",
			student: env.student,
			req: SubmitAnswerRequest{SessionID: session.SessionID, QuestionID: choice.ID,
				SelectedOptionID: uintPtr(env.pool[1].Options[0].ID)},
			reason: util.ReasonValidation,
		},
		{
			name:    "text for a choice question",
			student: env.student,
			req:     SubmitAnswerRequest{SessionID: session.SessionID, QuestionID: choice.ID, TextAnswer: strPtr("1")},
			reason:  util.ReasonValidation,
		},
		{
			name:    "option for a text question",
			student: env.student,
			req: SubmitAnswerRequest{SessionID: session.SessionID, QuestionID: text.ID,
				SelectedOptionID: uintPtr(choice.Options[0].ID)},
			reason: util.ReasonValidation,
		},
		{
			name:    "someone else's session",
			student: env.teacher,
			req:     SubmitAnswerRequest{SessionID: session.SessionID, QuestionID: text.ID, TextAnswer: strPtr("3/4")},
			reason:  util.ReasonForbidden,
		},
		{
			name:    "unknown session",
			student: env.student,
			req:     SubmitAnswerRequest{SessionID: 9999, QuestionID: text.ID, TextAnswer: strPtr("3/4")},
			reason:  util.ReasonNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := env.svc.SubmitAnswer(context.Background(), tt.student.UserID, &req)
			wantReason(t, err, tt.reason)
		})
	}
}

func TestSubmitScoresOnce(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()
	session := env.start(t, env.student)

	env.choose(t, env.student, session.SessionID, env.pool[0], 0)
	env.choose(t, env.student, session.SessionID, env.pool[1], 0)
	if _, err := env.svc.SubmitAnswer(ctx, env.student.UserID, &SubmitAnswerRequest{
		SessionID: session.SessionID, QuestionID: env.pool[2].ID, TextAnswer: strPtr(" 3/4 "),
	}); err != nil {
		t.Fatal(err)
	}
	env.clock.Advance(10 * time.Minute)

	result, err := env.svc.Submit(ctx, env.student.UserID, session.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 6 || result.TotalMarks != 14 {
		t.Errorf("score = %d/%d, want 6/14", result.Score, result.TotalMarks)
	}
	if result.CorrectAnswers != 2 || result.WrongAnswers != 1 || result.UnansweredQuestions != 1 {
		t.Errorf("correct/wrong/unanswered = %d/%d/%d",
			result.CorrectAnswers, result.WrongAnswers, result.UnansweredQuestions)
	}
	if result.Passed {
		t.Error("6 of 14 should not pass")
	}
	if result.TimeSpent != 600 {
		t.Errorf("time spent = %d", result.TimeSpent)
	}

	_, err = env.svc.Submit(ctx, env.student.UserID, session.SessionID)
	wantReason(t, err, util.ReasonAlreadySubmitted)

	var results int64
	env.db.Model(&model.ExamResult{}).Where("session_id = ?", session.SessionID).Count(&results)
	if results != 1 {
		t.Errorf("results = %d, want 1", results)
	}

	_, err = env.svc.SubmitAnswer(ctx, env.student.UserID, &SubmitAnswerRequest{
		SessionID: session.SessionID, QuestionID: env.pool[3].ID, SelectedOptionID: uintPtr(env.pool[3].Options[0].ID),
	})
	wantReason(t, err, util.ReasonSessionNotActive)

	answers, err := env.svc.Answers(ctx, env.student, session.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range answers {
		if a.IsCorrect == nil {
			t.Errorf("answer to %d should be judged after submit", a.QuestionID)
		}
	}

	_, err = env.svc.Start(ctx, env.student.UserID, &StartSessionRequest{ExamID: env.exam.ExamID})
	wantReason(t, err, util.ReasonAlreadySubmitted)

	if env.events.Count(EventSessionSubmitted) != 1 || env.events.Count(EventResultCreated) != 1 {
		t.Errorf("events: submitted=%d result=%d",
			env.events.Count(EventSessionSubmitted), env.events.Count(EventResultCreated))
	}
	got := env.notes.types(env.student.UserID)
	if len(got) != 2 || got[0] != MsgSessionStart || got[1] != MsgSessionClosed {
		t.Errorf("notifications = %v", got)
	}
}

func TestConcurrentSubmitSingleResult(t *testing.T) {
	env := newSessionEnv(t)
	session := env.start(t, env.student)

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Submit(context.Background(), env.student.UserID, session.SessionID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, util.ErrAlreadySubmitted) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successful submits = %d, want 1", ok)
	}
}

func TestExpiredSessionAutoSubmits(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()
	session := env.start(t, env.student)
	env.choose(t, env.student, session.SessionID, env.pool[0], 0)

	_, err := env.svc.EnsureResult(ctx, env.student, session.SessionID)
	wantReason(t, err, util.ReasonResultNotReady)

	env.clock.Advance(61 * time.Minute)
	_, err = env.svc.SubmitAnswer(ctx, env.student.UserID, &SubmitAnswerRequest{
		SessionID: session.SessionID, QuestionID: env.pool[1].ID, SelectedOptionID: uintPtr(env.pool[1].Options[1].ID),
	})
	wantReason(t, err, util.ReasonSessionExpired)

	result, err := env.svc.EnsureResult(ctx, env.student, session.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 2 {
		t.Errorf("late answer must not count: score = %d", result.Score)
	}
	if result.TimeSpent != 3600 {
		t.Errorf("time spent = %d, want the full duration", result.TimeSpent)
	}

	var stored model.ExamSession
	if err := env.db.First(&stored, session.SessionID).Error; err != nil {
		t.Fatal(err)
	}
	if !stored.AutoSubmitted || stored.Status != model.SessionSubmitted || stored.ActiveStudentID != nil {
		t.Errorf("stored session = %+v", stored)
	}

	_, err = env.svc.Submit(ctx, env.student.UserID, session.SessionID)
	wantReason(t, err, util.ReasonAlreadySubmitted)
}

func TestExpireOverdue(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()
	env.start(t, env.student)

	second := env.user(t, "late@example.com", model.RoleStudent)
	env.clock.Advance(30 * time.Minute)
	env.start(t, second)

	env.clock.Advance(31 * time.Minute)
	n, err := env.svc.ExpireOverdue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expired = %d, want 1", n)
	}
	if n, _ := env.svc.ExpireOverdue(ctx); n != 0 {
		t.Errorf("second sweep expired %d", n)
	}

	active, err := env.svc.Active(ctx, second.UserID)
	if err != nil || active == nil {
		t.Fatalf("second student should still be in progress: %v", err)
	}
	if active.RemainingSeconds != 29*60 {
		t.Errorf("remaining = %d", active.RemainingSeconds)
	}
}

func TestStartAfterExpiryClosesOldSession(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()
	old := env.start(t, env.student)

	other, err := env.matrixService().CreateWithQuestions(ctx, env.teacher, &CreateMatrixWithQuestionsRequest{
		ExamName: "Decimals", MatrixName: "Decimals", LessonIDs: []uint{env.lessons[1].ID},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = env.svc.Start(ctx, env.student.UserID, &StartSessionRequest{ExamID: other.ExamID})
	wantReason(t, err, util.ReasonAlreadyActive)

	env.clock.Advance(2 * time.Hour)
	if _, err := env.svc.Start(ctx, env.student.UserID, &StartSessionRequest{ExamID: other.ExamID}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.EnsureResult(ctx, env.student, old.SessionID); err != nil {
		t.Errorf("expired session should have a result: %v", err)
	}
}

func TestSessionVisibility(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()
	session := env.start(t, env.student)
	other := env.user(t, "nosy@example.com", model.RoleStudent)

	_, err := env.svc.Answers(ctx, other, session.SessionID)
	wantReason(t, err, util.ReasonForbidden)

	if _, err := env.svc.Answers(ctx, env.teacher, session.SessionID); err != nil {
		t.Errorf("teacher should see answers: %v", err)
	}
	if _, err := env.svc.Get(ctx, env.teacher, session.SessionID); err != nil {
		t.Errorf("teacher should see the session: %v", err)
	}

	mine, err := env.svc.MySessions(ctx, env.student.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].SessionID != session.SessionID {
		t.Errorf("my sessions = %+v", mine)
	}
}

func TestDurationEditDoesNotMoveStartedDeadline(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()
	exams := NewExamService(env.db, repository.NewExamRepository(env.db), repository.NewMatrixRepository(env.db), repository.NewExamSessionRepository(env.db))

	late := env.start(t, env.student)
	env.clock.Advance(90 * time.Minute)
	if _, err := exams.Update(env.exam.ExamID, &ExamRequest{DurationMinutes: intPtr(600)}); err != nil {
		t.Fatal(err)
	}
	_, err := env.svc.SubmitAnswer(ctx, env.student.UserID, &SubmitAnswerRequest{
		SessionID: late.SessionID, QuestionID: env.pool[0].ID, SelectedOptionID: uintPtr(env.pool[0].Options[0].ID),
	})
	wantReason(t, err, util.ReasonSessionExpired)
	result, err := env.svc.EnsureResult(ctx, env.student, late.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if result.TimeSpent != 3600 {
		t.Errorf("time spent = %d, want the 60 minutes the session started with", result.TimeSpent)
	}

	second := env.user(t, "second@example.com", model.RoleStudent)
	if _, err := exams.Update(env.exam.ExamID, &ExamRequest{DurationMinutes: intPtr(60)}); err != nil {
		t.Fatal(err)
	}
	running := env.start(t, second)
	env.clock.Advance(20 * time.Minute)
	if _, err := exams.Update(env.exam.ExamID, &ExamRequest{DurationMinutes: intPtr(10)}); err != nil {
		t.Fatal(err)
	}
	env.choose(t, second, running.SessionID, env.pool[0], 0)

	active, err := env.svc.Active(ctx, second.UserID)
	if err != nil || active == nil {
		t.Fatalf("session should still be running: %+v, %v", active, err)
	}
	if active.Duration != 60 || active.RemainingSeconds != 40*60 {
		t.Errorf("duration = %d, remaining = %d", active.Duration, active.RemainingSeconds)
	}

	// 新开考的会话使用修改后的时长
	third := env.user(t, "third@example.com", model.RoleStudent)
	if got := env.start(t, third); got.Duration != 10 {
		t.Errorf("new session duration = %d, want 10", got.Duration)
	}
}

func TestSubmitAfterDeadlineReportsResult(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()
	session := env.start(t, env.student)
	env.choose(t, env.student, session.SessionID, env.pool[0], 0)

	env.clock.Advance(61 * time.Minute)
	_, err := env.svc.Submit(ctx, env.student.UserID, session.SessionID)
	wantReason(t, err, util.ReasonSessionExpired)

	appErr, ok := util.AsAppError(err)
	if !ok {
		t.Fatalf("err = %T", err)
	}
	data, ok := appErr.Data.(ExpiredSubmission)
	if !ok {
		t.Fatalf("data = %#v", appErr.Data)
	}
	result, err := env.svc.EnsureResult(ctx, env.student, session.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if data.SessionID != session.SessionID || data.ResultID == 0 || data.ResultID != result.ID {
		t.Errorf("data = %+v, result id = %d", data, result.ID)
	}
	if util.ErrSessionExpired.Data != nil {
		t.Error("shared error value must not carry data")
	}
}

func TestStudentQuestionsRequireSession(t *testing.T) {
	env := newSessionEnv(t)
	matrices := env.matrixService()
	other := env.user(t, "other@example.com", model.RoleStudent)

	_, err := matrices.StudentQuestions(env.student, env.exam.MatrixID)
	wantReason(t, err, util.ReasonForbidden)
	_, err = matrices.StudentQuestions(nil, env.exam.MatrixID)
	wantReason(t, err, util.ReasonForbidden)

	env.start(t, env.student)
	list, err := matrices.StudentQuestions(env.student, env.exam.MatrixID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != env.exam.TotalQuestions {
		t.Errorf("questions = %d, want %d", len(list), env.exam.TotalQuestions)
	}

	_, err = matrices.StudentQuestions(other, env.exam.MatrixID)
	wantReason(t, err, util.ReasonForbidden)
	if _, err := matrices.StudentQuestions(env.teacher, env.exam.MatrixID); err != nil {
		t.Errorf("staff preview: %v", err)
	}
}
