package service

import (
	"testing"
	"time"

	"matrix_exam_backend/internal/config"
	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/internal/repository"
	"matrix_exam_backend/internal/util"
	"matrix_exam_backend/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// fixture 一个科目、一个年级、两个课时以及种子题型和难度
type fixture struct {
	db      *gorm.DB
	lessons []model.Lesson
	levels  map[string]model.Level
	types   map[string]model.QuestionType
	teacher *util.Claims
	student *util.Claims
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:     db,
		levels: map[string]model.Level{},
		types:  map[string]model.QuestionType{},
	}

	subject := model.Subject{SubjectCode: "MATH", SubjectName: "Mathematics"}
	mustCreate(t, db, &subject)
	grade := model.Grade{GradeLevel: "7", GradeName: "Grade 7", SubjectID: subject.ID}
	mustCreate(t, db, &grade)
	for i, title := range []string{"Fractions", "Decimals"} {
		lesson := model.Lesson{LessonTitle: title, LessonOrder: i + 1, GradeID: grade.ID}
		mustCreate(t, db, &lesson)
		f.lessons = append(f.lessons, lesson)
	}

	var levels []model.Level
	if err := db.Find(&levels).Error; err != nil {
		t.Fatalf("load levels: %v", err)
	}
	for _, l := range levels {
		f.levels[l.LevelName] = l
	}
	var types []model.QuestionType
	if err := db.Find(&types).Error; err != nil {
		t.Fatalf("load types: %v", err)
	}
	for _, qt := range types {
		f.types[qt.TypeName] = qt
	}

	f.teacher = f.user(t, "teacher@example.com", model.RoleTeacher)
	f.student = f.user(t, "student@example.com", model.RoleStudent)
	return f
}

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Omit(clause.Associations).Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func (f *fixture) user(t *testing.T, email string, role model.UserRole) *util.Claims {
	t.Helper()
	u := model.User{Email: email, Password: "x", Role: role}
	mustCreate(t, f.db, &u)
	return &util.Claims{UserID: u.ID, Role: role, Email: email}
}

// choice 单选题，correct 为正确选项下标
func (f *fixture) choice(t *testing.T, lesson int, level string, marks int, text string, correct int, options ...string) model.Question {
	t.Helper()
	q := model.Question{
		QuestionText:   text,
		Marks:          marks,
		LessonID:       f.lessons[lesson].ID,
		QuestionTypeID: f.types["MULTIPLE_CHOICE"].ID,
		LevelID:        f.levels[level].ID,
	}
	mustCreate(t, f.db, &q)
	for i, text := range options {
		o := model.Option{OptionText: text, IsCorrect: i == correct, OptionOrder: i + 1, QuestionID: q.ID}
		mustCreate(t, f.db, &o)
		q.Options = append(q.Options, o)
	}
	return q
}

// text 主观题，answer 为空表示需人工批阅
func (f *fixture) text(t *testing.T, lesson int, level string, marks int, text, answer string) model.Question {
	t.Helper()
	q := model.Question{
		QuestionText:   text,
		CorrectAnswer:  answer,
		Marks:          marks,
		LessonID:       f.lessons[lesson].ID,
		QuestionTypeID: f.types["SHORT_ANSWER"].ID,
		LevelID:        f.levels[level].ID,
	}
	mustCreate(t, f.db, &q)
	return q
}

func (f *fixture) matrixService() *MatrixService {
	return NewMatrixService(f.db,
		repository.NewQuestionRepository(f.db),
		repository.NewExamRepository(f.db),
		repository.NewMatrixRepository(f.db),
		repository.NewExamSessionRepository(f.db),
		&NoopPublisher{},
		&config.ExamConfig{EasyMaxScore: 3, MediumMaxScore: 6, DefaultDurationMinutes: 60},
	)
}

func (f *fixture) sessionService(events EventPublisher) *ExamSessionService {
	return NewExamSessionService(f.db,
		repository.NewExamSessionRepository(f.db),
		repository.NewStudentAnswerRepository(f.db),
		repository.NewExamResultRepository(f.db),
		repository.NewExamRepository(f.db),
		repository.NewMatrixRepository(f.db),
		NewLocalLocker(),
		events,
		&config.ExamConfig{LockTTL: 5 * time.Second},
	)
}

func intPtr(v int) *int {
	return &v
}

func uintPtr(v uint) *uint {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func wantReason(t *testing.T, err error, reason string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", reason)
	}
	appErr, ok := util.AsAppError(err)
	if !ok {
		t.Fatalf("expected %s, got %v", reason, err)
	}
	if appErr.Reason != reason {
		t.Fatalf("reason = %s, want %s (%v)", appErr.Reason, reason, err)
	}
}
