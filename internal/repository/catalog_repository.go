package repository

import (
	"matrix_exam_backend/internal/model"

	"gorm.io/gorm"
)

type SubjectRepository struct {
	BaseRepository[model.Subject]
}

func NewSubjectRepository(db *gorm.DB) *SubjectRepository {
	return &SubjectRepository{BaseRepository[model.Subject]{DB: db}}
}

func (r *SubjectRepository) FindByCode(code string) (*model.Subject, error) {
	var s model.Subject
	if err := r.DB.Where("subject_code = ?", code).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

type GradeRepository struct {
	BaseRepository[model.Grade]
}

func NewGradeRepository(db *gorm.DB) *GradeRepository {
	return &GradeRepository{BaseRepository[model.Grade]{DB: db}}
}

func (r *GradeRepository) FindBySubject(subjectID uint) ([]model.Grade, error) {
	var grades []model.Grade
	err := r.DB.Where("subject_id = ?", subjectID).Order("id ASC").Find(&grades).Error
	return grades, err
}

type LessonRepository struct {
	BaseRepository[model.Lesson]
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{BaseRepository[model.Lesson]{DB: db}}
}

func (r *LessonRepository) FindByGrade(gradeID uint) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.Where("grade_id = ?", gradeID).Order("lesson_order ASC, id ASC").Find(&lessons).Error
	return lessons, err
}

// CountExisting 统计给定 ID 中实际存在的数量
func (r *LessonRepository) CountExisting(ids []uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Lesson{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

type QuestionTypeRepository struct {
	BaseRepository[model.QuestionType]
}

func NewQuestionTypeRepository(db *gorm.DB) *QuestionTypeRepository {
	return &QuestionTypeRepository{BaseRepository[model.QuestionType]{DB: db}}
}

type LevelRepository struct {
	BaseRepository[model.Level]
}

func NewLevelRepository(db *gorm.DB) *LevelRepository {
	return &LevelRepository{BaseRepository[model.Level]{DB: db}}
}

func (r *LevelRepository) FindByIDs(ids []uint) ([]model.Level, error) {
	var levels []model.Level
	err := r.DB.Where("id IN ?", ids).Order("id ASC").Find(&levels).Error
	return levels, err
}

type AppSettingRepository struct {
	BaseRepository[model.AppSetting]
}

func NewAppSettingRepository(db *gorm.DB) *AppSettingRepository {
	return &AppSettingRepository{BaseRepository[model.AppSetting]{DB: db}}
}

func (r *AppSettingRepository) FindByKey(key string) (*model.AppSetting, error) {
	var s model.AppSetting
	if err := r.DB.Where("setting_key = ?", key).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
