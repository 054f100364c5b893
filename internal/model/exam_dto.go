package model

import "time"

// 考试流程相关的响应结构，字段名与前端保持一致

type MatrixQuestionSummary struct {
	QuestionID    uint   `json:"questionId"`
	QuestionText  string `json:"questionText"`
	QuestionType  string `json:"questionType"`
	LevelName     string `json:"levelName"`
	LessonTitle   string `json:"lessonTitle"`
	Bucket        string `json:"bucket"`
	Marks         int    `json:"marks"`
	QuestionOrder int    `json:"questionOrder"`
}

type MatrixWithQuestionsResponse struct {
	MatrixID        uint                    `json:"matrixId"`
	MatrixName      string                  `json:"matrixName"`
	Description     string                  `json:"description"`
	TotalQuestions  int                     `json:"totalQuestions"`
	ExamID          uint                    `json:"examId"`
	ExamName        string                  `json:"examName"`
	ExamStatus      ExamStatus              `json:"examStatus"`
	DurationMinutes int                     `json:"durationMinutes"`
	TotalMarks      int                     `json:"totalMarks"`
	PassingMarks    int                     `json:"passingMarks"`
	Selection       *MatrixSelection        `json:"selection,omitempty"`
	Questions       []MatrixQuestionSummary `json:"questions"`
}

type MatrixResponse struct {
	MatrixID       uint             `json:"matrixId"`
	MatrixName     string           `json:"matrixName"`
	Description    string           `json:"description"`
	TotalQuestions int              `json:"totalQuestions"`
	ExamID         uint             `json:"examId"`
	ExamName       string           `json:"examName"`
	Selection      *MatrixSelection `json:"selection,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// QuestionOptionResponse 答题时的选项，不含 isCorrect
type QuestionOptionResponse struct {
	OptionID    uint   `json:"optionId"`
	OptionText  string `json:"optionText"`
	OptionOrder int    `json:"optionOrder"`
}

// MatrixQuestionResponse 学生答题视图，不含任何正确答案字段
type MatrixQuestionResponse struct {
	QuestionID    uint                     `json:"questionId"`
	QuestionText  string                   `json:"questionText"`
	QuestionType  string                   `json:"questionType"`
	Marks         int                      `json:"marks"`
	QuestionOrder int                      `json:"questionOrder"`
	Options       []QuestionOptionResponse `json:"options"`
}

type ExamSessionResponse struct {
	SessionID        uint          `json:"sessionId"`
	StudentID        uint          `json:"studentId"`
	ExamID           uint          `json:"examId"`
	ExamName         string        `json:"examName"`
	MatrixID         uint          `json:"matrixId"`
	MatrixName       string        `json:"matrixName"`
	StartTime        time.Time     `json:"startTime"`
	EndTime          *time.Time    `json:"endTime"`
	Deadline         time.Time     `json:"deadline"`
	Status           SessionStatus `json:"status"`
	TimeSpent        int           `json:"timeSpent"`
	Duration         int           `json:"duration"`
	TotalQuestions   int           `json:"totalQuestions"`
	RemainingSeconds int           `json:"remainingSeconds"`
	AutoSubmitted    bool          `json:"autoSubmitted"`
}

type StudentAnswerResponse struct {
	AnswerID           uint      `json:"answerId"`
	SessionID          uint      `json:"sessionId"`
	QuestionID         uint      `json:"questionId"`
	QuestionText       string    `json:"questionText"`
	SelectedOptionID   *uint     `json:"selectedOptionId"`
	SelectedOptionText *string   `json:"selectedOptionText"`
	TextAnswer         *string   `json:"textAnswer"`
	IsCorrect          *bool     `json:"isCorrect"`
	AnsweredAt         time.Time `json:"answeredAt"`
}

type ExamResultResponse struct {
	ResultID            uint                   `json:"resultId"`
	SessionID           uint                   `json:"sessionId"`
	StudentID           uint                   `json:"studentId"`
	StudentName         string                 `json:"studentName"`
	ExamID              uint                   `json:"examId"`
	ExamName            string                 `json:"examName"`
	Score               int                    `json:"score"`
	TotalMarks          int                    `json:"totalMarks"`
	PassingMarks        int                    `json:"passingMarks"`
	Percentage          float64                `json:"percentage"`
	TotalQuestions      int                    `json:"totalQuestions"`
	CorrectAnswers      int                    `json:"correctAnswers"`
	WrongAnswers        int                    `json:"wrongAnswers"`
	UnansweredQuestions int                    `json:"unansweredQuestions"`
	PendingReview       int                    `json:"pendingReview"`
	Passed              bool                   `json:"passed"`
	Feedback            string                 `json:"feedback"`
	TimeSpent           int                    `json:"timeSpent"`
	AutoSubmitted       bool                   `json:"autoSubmitted"`
	CompletedAt         time.Time              `json:"completedAt"`
	QuestionResults     []QuestionResultDetail `json:"questionResults,omitempty"`
}
