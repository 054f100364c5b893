package model

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionSubmitted  SessionStatus = "SUBMITTED"
	// SessionCompleted 旧版本的终态，等同于 SUBMITTED
	SessionCompleted SessionStatus = "COMPLETED"
)

// IsClosed 已提交（包括旧的 COMPLETED）
func (s SessionStatus) IsClosed() bool {
	return s == SessionSubmitted || s == SessionCompleted
}

// swagger:model ExamSession
type ExamSession struct {
	BaseModel
	StudentID uint          `gorm:"index;not null" json:"studentId"`
	ExamID    uint          `gorm:"index;not null" json:"examId"`
	Exam      Exam          `gorm:"foreignKey:ExamID" json:"-"`
	MatrixID  uint          `gorm:"index;not null" json:"matrixId"`
	Matrix    Matrix        `gorm:"foreignKey:MatrixID" json:"-"`
	StartTime time.Time     `gorm:"not null" json:"startTime"`
	EndTime   *time.Time    `json:"endTime"`
	Status    SessionStatus `gorm:"size:20;index;default:'IN_PROGRESS'" json:"status"`
	TimeSpent int           `gorm:"default:0" json:"timeSpent"` // 秒
	// DurationMinutes 开考时从考试复制，之后修改考试时长不影响已开始的会话
	DurationMinutes int `gorm:"not null;default:0" json:"durationMinutes"`
	// ActiveStudentID 进行中时等于 StudentID，关闭后置空；唯一索引保证每个学生最多一场进行中的考试
	ActiveStudentID *uint `gorm:"uniqueIndex" json:"-"`
	AutoSubmitted   bool  `gorm:"default:false" json:"autoSubmitted"`
}

func (ExamSession) TableName() string {
	return "exam_sessions"
}

// Deadline 服务端截止时间
func (s ExamSession) Deadline() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// swagger:model StudentAnswer
type StudentAnswer struct {
	BaseModel
	SessionID        uint      `gorm:"uniqueIndex:idx_session_question;not null" json:"sessionId"`
	QuestionID       uint      `gorm:"uniqueIndex:idx_session_question;not null" json:"questionId"`
	SelectedOptionID *uint     `json:"selectedOptionId"`
	TextAnswer       *string   `gorm:"type:text" json:"textAnswer"`
	IsCorrect        *bool     `json:"isCorrect"`
	AnsweredAt       time.Time `json:"answeredAt"`
}

func (StudentAnswer) TableName() string {
	return "student_answers"
}

// swagger:model ExamResult
type ExamResult struct {
	BaseModel
	SessionID           uint           `gorm:"uniqueIndex;not null" json:"sessionId"`
	StudentID           uint           `gorm:"index;not null" json:"studentId"`
	ExamID              uint           `gorm:"index;not null" json:"examId"`
	Score               int            `json:"score"`
	TotalMarks          int            `json:"totalMarks"`
	Percentage          float64        `json:"percentage"`
	// PassingMarks 评分时使用的及格线；旧数据为空，展示时退回考试当前设置
	PassingMarks        *int           `json:"passingMarks"`
	TotalQuestions      int            `json:"totalQuestions"`
	CorrectAnswers      int            `json:"correctAnswers"`
	WrongAnswers        int            `json:"wrongAnswers"`
	UnansweredQuestions int            `json:"unansweredQuestions"`
	PendingReview       int            `json:"pendingReview"`
	Passed              bool           `json:"passed"`
	Feedback            string         `gorm:"type:text" json:"feedback"`
	TimeSpent           int            `json:"timeSpent"`
	CompletedAt         time.Time      `json:"completedAt"`
	QuestionResults     datatypes.JSON `json:"-"`
}

func (ExamResult) TableName() string {
	return "exam_results"
}

// QuestionResultDetail 单题结果，提交后才会返回正确答案
type QuestionResultDetail struct {
	QuestionID         uint             `json:"questionId"`
	QuestionOrder      int              `json:"questionOrder"`
	QuestionText       string           `json:"questionText"`
	QuestionType       string           `json:"questionType"`
	Marks              int              `json:"marks"`
	EarnedMarks        int              `json:"earnedMarks"`
	SelectedOptionID   *uint            `json:"selectedOptionId"`
	SelectedOptionText *string          `json:"selectedOptionText"`
	TextAnswer         *string          `json:"textAnswer"`
	IsCorrect          *bool            `json:"isCorrect"`
	CorrectOptionID    *uint            `json:"correctOptionId"`
	CorrectOptionText  *string          `json:"correctOptionText"`
	CorrectAnswer      string           `json:"correctAnswer,omitempty"`
	AllOptions         []OptionSnapshot `json:"allOptions"`
}
