package repository

import (
	"time"

	"matrix_exam_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExamSessionRepository struct {
	BaseRepository[model.ExamSession]
}

func NewExamSessionRepository(db *gorm.DB) *ExamSessionRepository {
	return &ExamSessionRepository{BaseRepository[model.ExamSession]{DB: db}}
}

func (r *ExamSessionRepository) WithTx(tx *gorm.DB) *ExamSessionRepository {
	return NewExamSessionRepository(tx)
}

func (r *ExamSessionRepository) FindByID(id uint) (*model.ExamSession, error) {
	var s model.ExamSession
	if err := r.DB.Preload("Exam").First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindActiveByStudent 学生当前进行中的考试
func (r *ExamSessionRepository) FindActiveByStudent(studentID uint) (*model.ExamSession, error) {
	var s model.ExamSession
	err := r.DB.Preload("Exam").
		Where("student_id = ? AND status = ?", studentID, model.SessionInProgress).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ExamSessionRepository) FindByStudent(studentID uint) ([]model.ExamSession, error) {
	var list []model.ExamSession
	err := r.DB.Where("student_id = ?", studentID).Order("start_time DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *ExamSessionRepository) FindByExam(examID uint) ([]model.ExamSession, error) {
	var list []model.ExamSession
	err := r.DB.Where("exam_id = ?", examID).Order("start_time DESC, id DESC").Find(&list).Error
	return list, err
}

// FindInProgress 所有进行中的会话，供过期扫描使用
func (r *ExamSessionRepository) FindInProgress() ([]model.ExamSession, error) {
	var list []model.ExamSession
	err := r.DB.Preload("Exam").Where("status = ?", model.SessionInProgress).Order("id ASC").Find(&list).Error
	return list, err
}

// CountClosedByStudentAndExam 学生在该考试上已结束的会话数
func (r *ExamSessionRepository) CountClosedByStudentAndExam(studentID, examID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ExamSession{}).
		Where("student_id = ? AND exam_id = ? AND status IN ?", studentID, examID,
			[]model.SessionStatus{model.SessionSubmitted, model.SessionCompleted}).
		Count(&count).Error
	return count, err
}

// HasStudentSession 学生是否在该试卷上开过考
func (r *ExamSessionRepository) HasStudentSession(studentID, matrixID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.ExamSession{}).
		Where("student_id = ? AND matrix_id = ?", studentID, matrixID).
		Count(&count).Error
	return count > 0, err
}

func (r *ExamSessionRepository) CountByMatrix(matrixID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ExamSession{}).Where("matrix_id = ?", matrixID).Count(&count).Error
	return count, err
}

func (r *ExamSessionRepository) CountByExam(examID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ExamSession{}).Where("exam_id = ?", examID).Count(&count).Error
	return count, err
}

// Close 仅在会话仍为 IN_PROGRESS 时关闭，返回是否由本次调用关闭
func (r *ExamSessionRepository) Close(sessionID uint, endTime time.Time, timeSpent int, auto bool) (bool, error) {
	result := r.DB.Model(&model.ExamSession{}).
		Where("id = ? AND status = ?", sessionID, model.SessionInProgress).
		Updates(map[string]interface{}{
			"status":            model.SessionSubmitted,
			"end_time":          endTime,
			"time_spent":        timeSpent,
			"auto_submitted":    auto,
			"active_student_id": nil,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

type StudentAnswerRepository struct {
	DB *gorm.DB
}

func NewStudentAnswerRepository(db *gorm.DB) *StudentAnswerRepository {
	return &StudentAnswerRepository{DB: db}
}

func (r *StudentAnswerRepository) WithTx(tx *gorm.DB) *StudentAnswerRepository {
	return NewStudentAnswerRepository(tx)
}

// Upsert 以 (session_id, question_id) 为键写入答案，后写覆盖先写
func (r *StudentAnswerRepository) Upsert(answer *model.StudentAnswer) error {
	now := time.Now()
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = now
	}
	answer.UpdatedAt = now

	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_option_id", "text_answer", "answered_at", "updated_at"}),
	}).Create(answer).Error
}

func (r *StudentAnswerRepository) Find(sessionID, questionID uint) (*model.StudentAnswer, error) {
	var a model.StudentAnswer
	if err := r.DB.Where("session_id = ? AND question_id = ?", sessionID, questionID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *StudentAnswerRepository) FindBySession(sessionID uint) ([]model.StudentAnswer, error) {
	var list []model.StudentAnswer
	err := r.DB.Where("session_id = ?", sessionID).Order("question_id ASC").Find(&list).Error
	return list, err
}

func (r *StudentAnswerRepository) CountBySession(sessionID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.StudentAnswer{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}

// MarkCorrectness 评分后回写每道题的判定结果
func (r *StudentAnswerRepository) MarkCorrectness(sessionID uint, verdicts map[uint]*bool) error {
	for questionID, isCorrect := range verdicts {
		err := r.DB.Model(&model.StudentAnswer{}).
			Where("session_id = ? AND question_id = ?", sessionID, questionID).
			Update("is_correct", isCorrect).Error
		if err != nil {
			return err
		}
	}
	return nil
}

type ExamResultRepository struct {
	BaseRepository[model.ExamResult]
}

func NewExamResultRepository(db *gorm.DB) *ExamResultRepository {
	return &ExamResultRepository{BaseRepository[model.ExamResult]{DB: db}}
}

func (r *ExamResultRepository) WithTx(tx *gorm.DB) *ExamResultRepository {
	return NewExamResultRepository(tx)
}

func (r *ExamResultRepository) FindBySession(sessionID uint) (*model.ExamResult, error) {
	var res model.ExamResult
	if err := r.DB.Where("session_id = ?", sessionID).First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ExamResultRepository) FindByStudent(studentID uint) ([]model.ExamResult, error) {
	var list []model.ExamResult
	err := r.DB.Where("student_id = ?", studentID).Order("completed_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *ExamResultRepository) FindByExam(examID uint) ([]model.ExamResult, error) {
	var list []model.ExamResult
	err := r.DB.Where("exam_id = ?", examID).Order("score DESC, id ASC").Find(&list).Error
	return list, err
}
