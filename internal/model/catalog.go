package model

// swagger:model Subject
type Subject struct {
	BaseModel
	SubjectName string `gorm:"size:255;not null" json:"subjectName"`
	SubjectCode string `gorm:"size:50;uniqueIndex;not null" json:"subjectCode"`
}

func (Subject) TableName() string {
	return "subjects"
}

// swagger:model Grade
type Grade struct {
	BaseModel
	GradeLevel  string  `gorm:"size:50" json:"gradeLevel"`
	GradeName   string  `gorm:"size:255;not null" json:"gradeName"`
	Description string  `gorm:"type:text" json:"description"`
	SubjectID   uint    `gorm:"index" json:"subjectId"`
	Subject     Subject `gorm:"foreignKey:SubjectID" json:"-"`
}

func (Grade) TableName() string {
	return "grades"
}

// swagger:model Lesson
type Lesson struct {
	BaseModel
	LessonTitle        string `gorm:"size:255;not null" json:"lessonTitle"`
	LessonContent      string `gorm:"type:text" json:"lessonContent"`
	LessonOrder        int    `gorm:"default:0" json:"lessonOrder"`
	LearningObjectives string `gorm:"type:text" json:"learningObjectives"`
	GradeID            uint   `gorm:"index" json:"gradeId"`
	Grade              Grade  `gorm:"foreignKey:GradeID" json:"-"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// swagger:model QuestionType
type QuestionType struct {
	BaseModel
	TypeName    string `gorm:"size:100;uniqueIndex;not null" json:"typeName"`
	Description string `gorm:"type:text" json:"description"`
}

func (QuestionType) TableName() string {
	return "question_types"
}

// swagger:model Level
type Level struct {
	BaseModel
	LevelName       string `gorm:"size:100;not null" json:"levelName"`
	DifficultyScore int    `gorm:"default:1" json:"difficultyScore"`
	Description     string `gorm:"type:text" json:"description"`
}

func (Level) TableName() string {
	return "levels"
}

// swagger:model AppSetting
type AppSetting struct {
	BaseModel
	SettingKey   string `gorm:"size:100;uniqueIndex;not null" json:"settingKey"`
	SettingValue string `gorm:"type:text" json:"settingValue"`
	Description  string `gorm:"type:text" json:"description"`
}

func (AppSetting) TableName() string {
	return "app_settings"
}
