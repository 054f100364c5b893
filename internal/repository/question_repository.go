package repository

import (
	"matrix_exam_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	BaseRepository[model.Question]
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{BaseRepository[model.Question]{DB: db}}
}

func orderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order("option_order ASC, id ASC")
}

func (r *QuestionRepository) FindByLesson(lessonID uint) ([]model.Question, error) {
	var list []model.Question
	err := r.DB.Where("lesson_id = ?", lessonID).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *QuestionRepository) FindByLevel(levelID uint) ([]model.Question, error) {
	var list []model.Question
	err := r.DB.Where("level_id = ?", levelID).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *QuestionRepository) FindByType(typeID uint) ([]model.Question, error) {
	var list []model.Question
	err := r.DB.Where("question_type_id = ?", typeID).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *QuestionRepository) Search(text string) ([]model.Question, error) {
	var list []model.Question
	err := r.DB.Where("LOWER(question_text) LIKE LOWER(?)", "%"+text+"%").Order("id ASC").Find(&list).Error
	return list, err
}

// FindPool 按课时和难度筛选候选题，条件为空表示不限，按 ID 升序
func (r *QuestionRepository) FindPool(lessonIDs, levelIDs []uint) ([]model.Question, error) {
	q := r.DB.
		Preload("Lesson").
		Preload("QuestionType").
		Preload("Level").
		Preload("Options", orderedOptions)
	if len(lessonIDs) > 0 {
		q = q.Where("lesson_id IN ?", lessonIDs)
	}
	if len(levelIDs) > 0 {
		q = q.Where("level_id IN ?", levelIDs)
	}

	var list []model.Question
	err := q.Order("id ASC").Find(&list).Error
	return list, err
}

type OptionRepository struct {
	BaseRepository[model.Option]
}

func NewOptionRepository(db *gorm.DB) *OptionRepository {
	return &OptionRepository{BaseRepository[model.Option]{DB: db}}
}

func (r *OptionRepository) FindByQuestion(questionID uint) ([]model.Option, error) {
	var list []model.Option
	err := orderedOptions(r.DB.Where("question_id = ?", questionID)).Find(&list).Error
	return list, err
}

// CountCorrect 统计题目下的正确选项数，excludeID 用于更新时排除自身
func (r *OptionRepository) CountCorrect(questionID, excludeID uint) (int64, error) {
	var count int64
	q := r.DB.Model(&model.Option{}).Where("question_id = ? AND is_correct = ?", questionID, true)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count, err
}

func (r *OptionRepository) DeleteByQuestion(questionID uint) error {
	return r.DB.Where("question_id = ?", questionID).Delete(&model.Option{}).Error
}
