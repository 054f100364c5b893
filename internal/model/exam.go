package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type ExamStatus string

const (
	ExamDraft     ExamStatus = "DRAFT"
	ExamPublished ExamStatus = "PUBLISHED"
	ExamArchived  ExamStatus = "ARCHIVED"
)

// Rank 状态只能向前推进
func (s ExamStatus) Rank() int {
	switch s {
	case ExamDraft:
		return 1
	case ExamPublished:
		return 2
	case ExamArchived:
		return 3
	}
	return 0
}

// swagger:model Exam
type Exam struct {
	BaseModel
	ExamName        string     `gorm:"size:255;not null" json:"examName"`
	Description     string     `gorm:"type:text" json:"description"`
	DurationMinutes int        `gorm:"default:60" json:"durationMinutes"`
	TotalMarks      int        `gorm:"default:0" json:"totalMarks"`
	PassingMarks    int        `gorm:"default:0" json:"passingMarks"`
	ExamDate        time.Time  `json:"examDate"`
	Status          ExamStatus `gorm:"size:20;default:'DRAFT'" json:"status"`
	CreatorID       uint       `gorm:"index" json:"creatorId"`
}

func (Exam) TableName() string {
	return "exams"
}

// Duration 考试时长
func (e Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// swagger:model Matrix
type Matrix struct {
	BaseModel
	MatrixName     string         `gorm:"size:255;not null" json:"matrixName"`
	Description    string         `gorm:"type:text" json:"description"`
	TotalQuestions int            `gorm:"default:0" json:"totalQuestions"`
	ExamID         uint           `gorm:"uniqueIndex;not null" json:"examId"`
	Exam           Exam           `gorm:"foreignKey:ExamID" json:"-"`
	Selection      datatypes.JSON `json:"selection"`
	CreatorID      uint           `gorm:"index" json:"creatorId"`
}

func (Matrix) TableName() string {
	return "matrices"
}

// MatrixSelection 记录组卷条件以及每个难度桶的请求数与实际数
type MatrixSelection struct {
	LessonIDs          []uint         `json:"lessonIds"`
	LevelIDs           []uint         `json:"levelIds"`
	QuestionsPerLesson *int           `json:"questionsPerLesson,omitempty"`
	Requested          map[string]int `json:"requested"`
	Fulfilled          map[string]int `json:"fulfilled"`
	PoolSize           int            `json:"poolSize"`
	// Excluded 正确选项不是恰好一个、未进入题池的题目
	Excluded           []uint         `json:"excludedQuestionIds,omitempty"`
}

// MatrixQuestion 组卷时的题目快照，之后题库的修改不影响已生成的试卷
type MatrixQuestion struct {
	BaseModel
	MatrixID         uint           `gorm:"uniqueIndex:idx_matrix_question;not null" json:"matrixId"`
	QuestionID       uint           `gorm:"uniqueIndex:idx_matrix_question;not null" json:"questionId"`
	QuestionOrder    int            `gorm:"not null" json:"questionOrder"`
	Marks            int            `json:"marks"`
	QuestionText     string         `gorm:"type:text" json:"questionText"`
	QuestionTypeName string         `gorm:"size:100" json:"questionType"`
	LevelName        string         `gorm:"size:100" json:"levelName"`
	LessonTitle      string         `gorm:"size:255" json:"lessonTitle"`
	Bucket           string         `gorm:"size:20" json:"bucket"`
	CorrectAnswer    string         `gorm:"type:text" json:"-"`
	Options          datatypes.JSON `json:"-"`
}

func (MatrixQuestion) TableName() string {
	return "matrix_questions"
}

// OptionSnapshot 选项快照
type OptionSnapshot struct {
	OptionID    uint   `json:"optionId"`
	OptionText  string `json:"optionText"`
	IsCorrect   bool   `json:"isCorrect"`
	OptionOrder int    `json:"optionOrder"`
}

// OptionSnapshots 解析快照中的选项，主观题为空
func (q MatrixQuestion) OptionSnapshots() ([]OptionSnapshot, error) {
	if len(q.Options) == 0 {
		return nil, nil
	}
	var opts []OptionSnapshot
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// DecodeSelection 解析组卷条件
func (m Matrix) DecodeSelection() (*MatrixSelection, error) {
	if len(m.Selection) == 0 {
		return nil, nil
	}
	var sel MatrixSelection
	if err := json.Unmarshal(m.Selection, &sel); err != nil {
		return nil, err
	}
	return &sel, nil
}
