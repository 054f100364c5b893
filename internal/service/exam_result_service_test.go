package service

import (
	"context"
	"testing"

	"matrix_exam_backend/internal/repository"
)

func TestResultKeepsPassingMarksUsedForScoring(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()
	db := env.db
	exams := NewExamService(db, repository.NewExamRepository(db), repository.NewMatrixRepository(db), repository.NewExamSessionRepository(db))
	results := NewExamResultService(repository.NewExamResultRepository(db), repository.NewExamSessionRepository(db),
		repository.NewExamRepository(db), repository.NewUserRepository(db), env.svc, nil)

	session := env.start(t, env.student)
	env.choose(t, env.student, session.SessionID, env.pool[0], 0)
	if _, err := env.svc.Submit(ctx, env.student.UserID, session.SessionID); err != nil {
		t.Fatal(err)
	}

	if _, err := exams.Update(env.exam.ExamID, &ExamRequest{PassingMarks: intPtr(1)}); err != nil {
		t.Fatal(err)
	}

	resp, err := results.BySession(ctx, env.student, session.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if resp.PassingMarks != 7 || resp.Passed {
		t.Errorf("passingMarks = %d, passed = %v; want the threshold the result was scored with", resp.PassingMarks, resp.Passed)
	}
}
