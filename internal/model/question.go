package model

// swagger:model Question
type Question struct {
	BaseModel
	QuestionText   string       `gorm:"type:text;not null" json:"questionText"`
	CorrectAnswer  string       `gorm:"type:text" json:"correctAnswer"`
	Marks          int          `gorm:"default:1" json:"marks"`
	Explanation    string       `gorm:"type:text" json:"explanation"`
	LessonID       uint         `gorm:"index" json:"lessonId"`
	Lesson         Lesson       `gorm:"foreignKey:LessonID" json:"-"`
	QuestionTypeID uint         `gorm:"index" json:"questionTypeId"`
	QuestionType   QuestionType `gorm:"foreignKey:QuestionTypeID" json:"-"`
	LevelID        uint         `gorm:"index" json:"levelId"`
	Level          Level        `gorm:"foreignKey:LevelID" json:"-"`
	Options        []Option     `gorm:"foreignKey:QuestionID" json:"-"`
}

func (Question) TableName() string {
	return "questions"
}

// swagger:model Option
type Option struct {
	BaseModel
	OptionText  string   `gorm:"type:text;not null" json:"optionText"`
	IsCorrect   bool     `gorm:"default:false" json:"isCorrect"`
	OptionOrder int      `gorm:"default:0" json:"optionOrder"`
	QuestionID  uint     `gorm:"index" json:"questionId"`
	Question    Question `gorm:"foreignKey:QuestionID" json:"-"`
}

func (Option) TableName() string {
	return "options"
}
