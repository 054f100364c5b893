package service

import (
	"errors"

	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/internal/repository"
	"matrix_exam_backend/internal/util"

	"gorm.io/gorm"
)

// notFound 把 gorm 的未找到错误转换为业务错误
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.NewNotFoundError(resource)
	}
	return err
}

// guardReferences 被引用的数据不允许删除
func guardReferences(db *gorm.DB, model interface{}, column string, id uint, message string) error {
	count, err := repository.CountWhere(db, model, column+" = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return util.NewConflictError(message)
	}
	return nil
}

func saveUnique(err error, field, message string) error {
	if repository.IsDuplicateKey(err) {
		return &util.AppError{
			Kind:    util.KindConflict,
			Reason:  util.ReasonConflict,
			Message: message,
			Fields:  map[string]string{field: message},
		}
	}
	return err
}

// ---- Subject ----

type SubjectRequest struct {
	SubjectName *string `json:"subjectName" binding:"omitempty,min=1,max=255"`
	SubjectCode *string `json:"subjectCode" binding:"omitempty,min=1,max=50"`
}

type SubjectService struct {
	Repo *repository.SubjectRepository
}

func NewSubjectService(repo *repository.SubjectRepository) *SubjectService {
	return &SubjectService{Repo: repo}
}

func (s *SubjectService) List() ([]model.Subject, error) {
	return s.Repo.FindAll()
}

func (s *SubjectService) Get(id uint) (*model.Subject, error) {
	subject, err := s.Repo.FindByID(id)
	return subject, notFound(err, "subject")
}

func (s *SubjectService) Create(req *SubjectRequest) (*model.Subject, error) {
	if req.SubjectName == nil || req.SubjectCode == nil {
		return nil, util.NewValidationError("invalid subject", map[string]string{
			"subjectName": "is required",
			"subjectCode": "is required",
		})
	}
	subject := &model.Subject{SubjectName: *req.SubjectName, SubjectCode: *req.SubjectCode}
	if err := s.Repo.Create(subject); err != nil {
		return nil, saveUnique(err, "subjectCode", "subject code already exists")
	}
	return subject, nil
}

func (s *SubjectService) Update(id uint, req *SubjectRequest) (*model.Subject, error) {
	subject, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if req.SubjectName != nil {
		subject.SubjectName = *req.SubjectName
	}
	if req.SubjectCode != nil {
		subject.SubjectCode = *req.SubjectCode
	}
	if err := s.Repo.Update(subject); err != nil {
		return nil, saveUnique(err, "subjectCode", "subject code already exists")
	}
	return subject, nil
}

func (s *SubjectService) Delete(id uint) error {
	if err := guardReferences(s.Repo.DB, &model.Grade{}, "subject_id", id, "subject still has grades"); err != nil {
		return err
	}
	return notFound(s.Repo.Delete(id), "subject")
}

// ---- Grade ----

type GradeRequest struct {
	GradeLevel  *string `json:"gradeLevel"`
	GradeName   *string `json:"gradeName" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	SubjectID   *uint   `json:"subjectId"`
}

type GradeService struct {
	Repo        *repository.GradeRepository
	SubjectRepo *repository.SubjectRepository
}

func NewGradeService(repo *repository.GradeRepository, subjectRepo *repository.SubjectRepository) *GradeService {
	return &GradeService{Repo: repo, SubjectRepo: subjectRepo}
}

func (s *GradeService) List() ([]model.Grade, error) {
	return s.Repo.FindAll()
}

func (s *GradeService) BySubject(subjectID uint) ([]model.Grade, error) {
	return s.Repo.FindBySubject(subjectID)
}

func (s *GradeService) Get(id uint) (*model.Grade, error) {
	grade, err := s.Repo.FindByID(id)
	return grade, notFound(err, "grade")
}

func (s *GradeService) checkSubject(id uint) error {
	ok, err := s.SubjectRepo.Exists(id)
	if err != nil {
		return err
	}
	if !ok {
		return util.FieldError("subjectId", "subject does not exist")
	}
	return nil
}

func (s *GradeService) Create(req *GradeRequest) (*model.Grade, error) {
	if req.GradeName == nil || req.SubjectID == nil {
		return nil, util.NewValidationError("invalid grade", map[string]string{
			"gradeName": "is required",
			"subjectId": "is required",
		})
	}
	if err := s.checkSubject(*req.SubjectID); err != nil {
		return nil, err
	}
	grade := &model.Grade{GradeName: *req.GradeName, SubjectID: *req.SubjectID}
	if req.GradeLevel != nil {
		grade.GradeLevel = *req.GradeLevel
	}
	if req.Description != nil {
		grade.Description = *req.Description
	}
	return grade, s.Repo.Create(grade)
}

func (s *GradeService) Update(id uint, req *GradeRequest) (*model.Grade, error) {
	grade, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if req.SubjectID != nil {
		if err := s.checkSubject(*req.SubjectID); err != nil {
			return nil, err
		}
		grade.SubjectID = *req.SubjectID
	}
	if req.GradeName != nil {
		grade.GradeName = *req.GradeName
	}
	if req.GradeLevel != nil {
		grade.GradeLevel = *req.GradeLevel
	}
	if req.Description != nil {
		grade.Description = *req.Description
	}
	return grade, s.Repo.Update(grade)
}

func (s *GradeService) Delete(id uint) error {
	if err := guardReferences(s.Repo.DB, &model.Lesson{}, "grade_id", id, "grade still has lessons"); err != nil {
		return err
	}
	return notFound(s.Repo.Delete(id), "grade")
}

// ---- Lesson ----

type LessonRequest struct {
	LessonTitle        *string `json:"lessonTitle" binding:"omitempty,min=1,max=255"`
	LessonContent      *string `json:"lessonContent"`
	LessonOrder        *int    `json:"lessonOrder" binding:"omitempty,min=0"`
	LearningObjectives *string `json:"learningObjectives"`
	GradeID            *uint   `json:"gradeId"`
}

type LessonService struct {
	Repo      *repository.LessonRepository
	GradeRepo *repository.GradeRepository
}

func NewLessonService(repo *repository.LessonRepository, gradeRepo *repository.GradeRepository) *LessonService {
	return &LessonService{Repo: repo, GradeRepo: gradeRepo}
}

func (s *LessonService) List() ([]model.Lesson, error) {
	return s.Repo.FindAll()
}

func (s *LessonService) ByGrade(gradeID uint) ([]model.Lesson, error) {
	return s.Repo.FindByGrade(gradeID)
}

func (s *LessonService) Get(id uint) (*model.Lesson, error) {
	lesson, err := s.Repo.FindByID(id)
	return lesson, notFound(err, "lesson")
}

func (s *LessonService) checkGrade(id uint) error {
	ok, err := s.GradeRepo.Exists(id)
	if err != nil {
		return err
	}
	if !ok {
		return util.FieldError("gradeId", "grade does not exist")
	}
	return nil
}

func (s *LessonService) Create(req *LessonRequest) (*model.Lesson, error) {
	if req.LessonTitle == nil || req.GradeID == nil {
		return nil, util.NewValidationError("invalid lesson", map[string]string{
			"lessonTitle": "is required",
			"gradeId":     "is required",
		})
	}
	if err := s.checkGrade(*req.GradeID); err != nil {
		return nil, err
	}
	lesson := &model.Lesson{LessonTitle: *req.LessonTitle, GradeID: *req.GradeID}
	s.apply(lesson, req)
	return lesson, s.Repo.Create(lesson)
}

func (s *LessonService) Update(id uint, req *LessonRequest) (*model.Lesson, error) {
	lesson, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if req.GradeID != nil {
		if err := s.checkGrade(*req.GradeID); err != nil {
			return nil, err
		}
		lesson.GradeID = *req.GradeID
	}
	if req.LessonTitle != nil {
		lesson.LessonTitle = *req.LessonTitle
	}
	s.apply(lesson, req)
	return lesson, s.Repo.Update(lesson)
}

func (s *LessonService) apply(lesson *model.Lesson, req *LessonRequest) {
	if req.LessonContent != nil {
		lesson.LessonContent = *req.LessonContent
	}
	if req.LessonOrder != nil {
		lesson.LessonOrder = *req.LessonOrder
	}
	if req.LearningObjectives != nil {
		lesson.LearningObjectives = *req.LearningObjectives
	}
}

func (s *LessonService) Delete(id uint) error {
	if err := guardReferences(s.Repo.DB, &model.Question{}, "lesson_id", id, "lesson still has questions"); err != nil {
		return err
	}
	return notFound(s.Repo.Delete(id), "lesson")
}

// ---- QuestionType ----

type QuestionTypeRequest struct {
	TypeName    *string `json:"typeName" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
}

type QuestionTypeService struct {
	Repo *repository.QuestionTypeRepository
}

func NewQuestionTypeService(repo *repository.QuestionTypeRepository) *QuestionTypeService {
	return &QuestionTypeService{Repo: repo}
}

func (s *QuestionTypeService) List() ([]model.QuestionType, error) {
	return s.Repo.FindAll()
}

func (s *QuestionTypeService) Get(id uint) (*model.QuestionType, error) {
	qt, err := s.Repo.FindByID(id)
	return qt, notFound(err, "question type")
}

func (s *QuestionTypeService) Create(req *QuestionTypeRequest) (*model.QuestionType, error) {
	if req.TypeName == nil {
		return nil, util.FieldError("typeName", "is required")
	}
	qt := &model.QuestionType{TypeName: *req.TypeName}
	if req.Description != nil {
		qt.Description = *req.Description
	}
	if err := s.Repo.Create(qt); err != nil {
		return nil, saveUnique(err, "typeName", "question type already exists")
	}
	return qt, nil
}

func (s *QuestionTypeService) Update(id uint, req *QuestionTypeRequest) (*model.QuestionType, error) {
	qt, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if req.TypeName != nil {
		qt.TypeName = *req.TypeName
	}
	if req.Description != nil {
		qt.Description = *req.Description
	}
	if err := s.Repo.Update(qt); err != nil {
		return nil, saveUnique(err, "typeName", "question type already exists")
	}
	return qt, nil
}

func (s *QuestionTypeService) Delete(id uint) error {
	if err := guardReferences(s.Repo.DB, &model.Question{}, "question_type_id", id, "question type is used by questions"); err != nil {
		return err
	}
	return notFound(s.Repo.Delete(id), "question type")
}

// ---- Level ----

type LevelRequest struct {
	LevelName       *string `json:"levelName" binding:"omitempty,min=1,max=100"`
	DifficultyScore *int    `json:"difficultyScore" binding:"omitempty,min=0"`
	Description     *string `json:"description"`
}

type LevelService struct {
	Repo *repository.LevelRepository
}

func NewLevelService(repo *repository.LevelRepository) *LevelService {
	return &LevelService{Repo: repo}
}

func (s *LevelService) List() ([]model.Level, error) {
	return s.Repo.FindAll()
}

func (s *LevelService) Get(id uint) (*model.Level, error) {
	level, err := s.Repo.FindByID(id)
	return level, notFound(err, "level")
}

func (s *LevelService) Create(req *LevelRequest) (*model.Level, error) {
	if req.LevelName == nil {
		return nil, util.FieldError("levelName", "is required")
	}
	level := &model.Level{LevelName: *req.LevelName, DifficultyScore: 1}
	if req.DifficultyScore != nil {
		level.DifficultyScore = *req.DifficultyScore
	}
	if req.Description != nil {
		level.Description = *req.Description
	}
	return level, s.Repo.Create(level)
}

func (s *LevelService) Update(id uint, req *LevelRequest) (*model.Level, error) {
	level, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if req.LevelName != nil {
		level.LevelName = *req.LevelName
	}
	if req.DifficultyScore != nil {
		level.DifficultyScore = *req.DifficultyScore
	}
	if req.Description != nil {
		level.Description = *req.Description
	}
	return level, s.Repo.Update(level)
}

func (s *LevelService) Delete(id uint) error {
	if err := guardReferences(s.Repo.DB, &model.Question{}, "level_id", id, "level is used by questions"); err != nil {
		return err
	}
	return notFound(s.Repo.Delete(id), "level")
}

// ---- AppSetting ----

type AppSettingRequest struct {
	SettingKey   *string `json:"settingKey" binding:"omitempty,min=1,max=100"`
	SettingValue *string `json:"settingValue"`
	Description  *string `json:"description"`
}

type AppSettingService struct {
	Repo *repository.AppSettingRepository
}

func NewAppSettingService(repo *repository.AppSettingRepository) *AppSettingService {
	return &AppSettingService{Repo: repo}
}

func (s *AppSettingService) List() ([]model.AppSetting, error) {
	return s.Repo.FindAll()
}

func (s *AppSettingService) Get(id uint) (*model.AppSetting, error) {
	setting, err := s.Repo.FindByID(id)
	return setting, notFound(err, "app setting")
}

func (s *AppSettingService) GetByKey(key string) (*model.AppSetting, error) {
	setting, err := s.Repo.FindByKey(key)
	return setting, notFound(err, "app setting")
}

func (s *AppSettingService) Create(req *AppSettingRequest) (*model.AppSetting, error) {
	if req.SettingKey == nil {
		return nil, util.FieldError("settingKey", "is required")
	}
	setting := &model.AppSetting{SettingKey: *req.SettingKey}
	if req.SettingValue != nil {
		setting.SettingValue = *req.SettingValue
	}
	if req.Description != nil {
		setting.Description = *req.Description
	}
	if err := s.Repo.Create(setting); err != nil {
		return nil, saveUnique(err, "settingKey", "setting key already exists")
	}
	return setting, nil
}

func (s *AppSettingService) Update(id uint, req *AppSettingRequest) (*model.AppSetting, error) {
	setting, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if req.SettingKey != nil {
		setting.SettingKey = *req.SettingKey
	}
	if req.SettingValue != nil {
		setting.SettingValue = *req.SettingValue
	}
	if req.Description != nil {
		setting.Description = *req.Description
	}
	if err := s.Repo.Update(setting); err != nil {
		return nil, saveUnique(err, "settingKey", "setting key already exists")
	}
	return setting, nil
}

func (s *AppSettingService) Delete(id uint) error {
	return notFound(s.Repo.Delete(id), "app setting")
}
