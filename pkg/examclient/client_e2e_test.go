package examclient_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"matrix_exam_backend/internal/app"
	"matrix_exam_backend/internal/config"
	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/pkg/database"
	"matrix_exam_backend/pkg/examclient"
)

func startServer(t *testing.T) string {
	t.Helper()
	cfg := &config.Config{
		Server:    config.ServerConfig{Port: "0", Mode: "test"},
		Database:  config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"},
		JWT:       config.JWTConfig{Secret: "client-secret", ExpireTime: time.Hour},
		Storage:   config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
		RateLimit: config.RateLimitConfig{MaxRequests: 10000, WindowMinutes: 1},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Exam: config.ExamConfig{
			EasyMaxScore:           3,
			MediumMaxScore:         6,
			DefaultDurationMinutes: 45,
			SweepInterval:          time.Minute,
			LockTTL:                5 * time.Second,
			TimerPushInterval:      time.Second,
		},
	}
	db, err := database.Open(&cfg.Database)
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatal(err)
	}
	a := app.New(cfg, db, nil)
	srv := httptest.NewServer(a.Router)
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})
	return srv.URL
}

func signIn(t *testing.T, baseURL, email, role string) *examclient.Client {
	t.Helper()
	ctx := context.Background()
	c := examclient.New(baseURL, nil, examclient.NewCache(time.Minute, nil))
	if _, err := c.Register(ctx, examclient.RegisterRequest{
		Email: email, Password: "secret123", FirstName: "Test", LastName: "User", Role: role,
	}); err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	if _, err := c.Login(ctx, email, "secret123"); err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	if !c.Session.Authenticated() || c.Session.Role() != role {
		t.Fatalf("session after login: role %q", c.Session.Role())
	}
	return c
}

func TestClientExamRoundTrip(t *testing.T) {
	baseURL := startServer(t)
	ctx := context.Background()
	teacher := signIn(t, baseURL, "teacher@example.com", "TEACHER")
	student := signIn(t, baseURL, "student@example.com", "STUDENT")

	subject, err := teacher.Subjects().Create(ctx, map[string]string{"subjectName": "Science", "subjectCode": "SCI"})
	if err != nil {
		t.Fatal(err)
	}
	grade, err := teacher.Grades().Create(ctx, map[string]interface{}{"gradeName": "Grade 8", "subjectId": subject.ID})
	if err != nil {
		t.Fatal(err)
	}
	lesson, err := teacher.Lessons().Create(ctx, map[string]interface{}{"lessonTitle": "Cells", "gradeId": grade.ID})
	if err != nil {
		t.Fatal(err)
	}
	levels, err := teacher.Levels().List(ctx)
	if err != nil || len(levels) == 0 {
		t.Fatalf("levels = %v, %v", levels, err)
	}
	types, err := teacher.QuestionTypes().List(ctx)
	if err != nil || len(types) == 0 {
		t.Fatalf("types = %v, %v", types, err)
	}

	question, err := teacher.Questions().Create(ctx, map[string]interface{}{
		"questionText": "The powerhouse of the cell?", "marks": 4,
		"lessonId": lesson.ID, "questionTypeId": types[0].ID, "levelId": levels[0].ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	right, err := teacher.Options().Create(ctx, map[string]interface{}{
		"optionText": "Mitochondria", "isCorrect": true, "questionId": question.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := teacher.Options().Create(ctx, map[string]interface{}{
		"optionText": "Nucleus", "questionId": question.ID,
	}); err != nil {
		t.Fatal(err)
	}

	matrix, err := teacher.CreateMatrixWithQuestions(ctx, examclient.CreateMatrixRequest{
		ExamName: "Cells quiz", MatrixName: "Cells", LessonIDs: []uint{lesson.ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	if matrix.TotalQuestions != 1 || matrix.TotalMarks != 4 || matrix.ExamStatus != model.ExamPublished {
		t.Fatalf("matrix = %+v", matrix)
	}

	if _, err := student.CreateMatrixWithQuestions(ctx, examclient.CreateMatrixRequest{ExamName: "x", MatrixName: "x"}); examclient.KindOf(err) != examclient.KindForbidden {
		t.Errorf("student generating a matrix: %v", err)
	}

	none, err := student.ActiveSession(ctx)
	if err != nil || none != nil {
		t.Fatalf("active before start = %+v, %v", none, err)
	}
	session, err := student.StartExam(ctx, examclient.StartExamRequest{ExamID: matrix.ExamID})
	if err != nil {
		t.Fatal(err)
	}
	if session.Duration != 45 || session.TotalQuestions != 1 {
		t.Errorf("session = %+v", session)
	}
	if _, err := student.StartExam(ctx, examclient.StartExamRequest{ExamID: matrix.ExamID}); examclient.ReasonOf(err) != "ALREADY_ACTIVE" {
		t.Errorf("second start: %v", err)
	}
	active, err := student.ActiveSession(ctx)
	if err != nil || active == nil || active.SessionID != session.SessionID {
		t.Fatalf("active after start = %+v, %v", active, err)
	}

	questions, err := student.MatrixQuestions(ctx, matrix.MatrixID)
	if err != nil || len(questions) != 1 || len(questions[0].Options) != 2 {
		t.Fatalf("questions = %+v, %v", questions, err)
	}
	if _, err := student.SubmitAnswer(ctx, examclient.SubmitAnswerRequest{
		SessionID: session.SessionID, QuestionID: question.ID, SelectedOptionID: &right.ID,
	}); err != nil {
		t.Fatal(err)
	}
	answers, err := student.SessionAnswers(ctx, session.SessionID)
	if err != nil || len(answers) != 1 {
		t.Fatalf("answers = %+v, %v", answers, err)
	}

	result, err := student.SubmitExam(ctx, session.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 4 || !result.Passed || result.Percentage != 100 {
		t.Errorf("result = %+v", result)
	}
	if _, err := student.SubmitExam(ctx, session.SessionID); examclient.ReasonOf(err) != "ALREADY_SUBMITTED" {
		t.Errorf("second submit: %v", err)
	}
	after, err := student.ActiveSession(ctx)
	if err != nil || after != nil {
		t.Errorf("active after submit = %+v, %v", after, err)
	}

	mine, err := student.MyResults(ctx)
	if err != nil || len(mine) != 1 {
		t.Errorf("my results = %+v, %v", mine, err)
	}
	byTeacher, err := teacher.ResultBySession(ctx, session.SessionID)
	if err != nil || byTeacher.Score != 4 {
		t.Errorf("teacher lookup = %+v, %v", byTeacher, err)
	}

	if err := teacher.DeleteMatrix(ctx, matrix.MatrixID); examclient.KindOf(err) != examclient.KindConflict {
		t.Errorf("deleting a used matrix: %v", err)
	}

	student.Logout()
	if _, err := student.MySessions(ctx); examclient.KindOf(err) != examclient.KindAuth {
		t.Errorf("after logout: %v", err)
	}
}
