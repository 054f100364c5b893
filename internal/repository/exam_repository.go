package repository

import (
	"matrix_exam_backend/internal/model"

	"gorm.io/gorm"
)

type ExamRepository struct {
	BaseRepository[model.Exam]
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{BaseRepository[model.Exam]{DB: db}}
}

func (r *ExamRepository) WithTx(tx *gorm.DB) *ExamRepository {
	return NewExamRepository(tx)
}

func (r *ExamRepository) Search(name string) ([]model.Exam, error) {
	var list []model.Exam
	err := r.DB.Where("LOWER(exam_name) LIKE LOWER(?)", "%"+name+"%").Order("id ASC").Find(&list).Error
	return list, err
}

func (r *ExamRepository) FindByStatus(status model.ExamStatus) ([]model.Exam, error) {
	var list []model.Exam
	err := r.DB.Where("status = ?", status).Order("exam_date DESC, id DESC").Find(&list).Error
	return list, err
}

type MatrixRepository struct {
	BaseRepository[model.Matrix]
}

func NewMatrixRepository(db *gorm.DB) *MatrixRepository {
	return &MatrixRepository{BaseRepository[model.Matrix]{DB: db}}
}

func (r *MatrixRepository) WithTx(tx *gorm.DB) *MatrixRepository {
	return NewMatrixRepository(tx)
}

func (r *MatrixRepository) FindByExam(examID uint) (*model.Matrix, error) {
	var m model.Matrix
	if err := r.DB.Where("exam_id = ?", examID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MatrixRepository) Search(name string) ([]model.Matrix, error) {
	var list []model.Matrix
	err := r.DB.Where("LOWER(matrix_name) LIKE LOWER(?)", "%"+name+"%").Order("id ASC").Find(&list).Error
	return list, err
}

func (r *MatrixRepository) CreateQuestions(questions []model.MatrixQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.DB.Create(&questions).Error
}

// Questions 试卷题目快照，按题号排序
func (r *MatrixRepository) Questions(matrixID uint) ([]model.MatrixQuestion, error) {
	var list []model.MatrixQuestion
	err := r.DB.Where("matrix_id = ?", matrixID).Order("question_order ASC").Find(&list).Error
	return list, err
}

func (r *MatrixRepository) FindQuestion(matrixID, questionID uint) (*model.MatrixQuestion, error) {
	var mq model.MatrixQuestion
	if err := r.DB.Where("matrix_id = ? AND question_id = ?", matrixID, questionID).First(&mq).Error; err != nil {
		return nil, err
	}
	return &mq, nil
}

// HardDelete 物理删除试卷及其题目快照，exam_id 唯一索引需要释放
func (r *MatrixRepository) HardDelete(matrixID uint) error {
	if err := r.DB.Unscoped().Where("matrix_id = ?", matrixID).Delete(&model.MatrixQuestion{}).Error; err != nil {
		return err
	}
	return r.DB.Unscoped().Delete(&model.Matrix{}, matrixID).Error
}
