package service

import (
	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/internal/repository"
	"matrix_exam_backend/internal/util"

	"gorm.io/gorm"
)

type QuestionRequest struct {
	QuestionText   *string `json:"questionText" binding:"omitempty,min=1"`
	CorrectAnswer  *string `json:"correctAnswer"`
	Marks          *int    `json:"marks" binding:"omitempty,min=1"`
	Explanation    *string `json:"explanation"`
	LessonID       *uint   `json:"lessonId"`
	QuestionTypeID *uint   `json:"questionTypeId"`
	LevelID        *uint   `json:"levelId"`
}

type OptionRequest struct {
	OptionText  *string `json:"optionText" binding:"omitempty,min=1"`
	IsCorrect   *bool   `json:"isCorrect"`
	OptionOrder *int    `json:"optionOrder" binding:"omitempty,min=0"`
	QuestionID  *uint   `json:"questionId"`
}

// QuestionResponse 题目及其所属课时、题型、难度名称
type QuestionResponse struct {
	model.Question
	LessonTitle      string         `json:"lessonTitle"`
	QuestionTypeName string         `json:"questionTypeName"`
	LevelName        string         `json:"levelName"`
	Options          []model.Option `json:"options,omitempty"`
}

type QuestionService struct {
	DB         *gorm.DB
	Repo       *repository.QuestionRepository
	OptionRepo *repository.OptionRepository
	LessonRepo *repository.LessonRepository
	TypeRepo   *repository.QuestionTypeRepository
	LevelRepo  *repository.LevelRepository
}

func NewQuestionService(
	db *gorm.DB,
	repo *repository.QuestionRepository,
	optionRepo *repository.OptionRepository,
	lessonRepo *repository.LessonRepository,
	typeRepo *repository.QuestionTypeRepository,
	levelRepo *repository.LevelRepository,
) *QuestionService {
	return &QuestionService{
		DB:         db,
		Repo:       repo,
		OptionRepo: optionRepo,
		LessonRepo: lessonRepo,
		TypeRepo:   typeRepo,
		LevelRepo:  levelRepo,
	}
}

func (s *QuestionService) withRefs() *gorm.DB {
	return s.DB.Preload("Lesson").Preload("QuestionType").Preload("Level")
}

func toQuestionResponses(list []model.Question) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(list))
	for _, q := range list {
		out = append(out, QuestionResponse{
			Question:         q,
			LessonTitle:      q.Lesson.LessonTitle,
			QuestionTypeName: q.QuestionType.TypeName,
			LevelName:        q.Level.LevelName,
			Options:          q.Options,
		})
	}
	return out
}

func (s *QuestionService) find(query string, args ...interface{}) ([]QuestionResponse, error) {
	var list []model.Question
	q := s.withRefs()
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return toQuestionResponses(list), nil
}

func (s *QuestionService) List() ([]QuestionResponse, error) {
	return s.find("")
}

func (s *QuestionService) ByLesson(lessonID uint) ([]QuestionResponse, error) {
	return s.find("lesson_id = ?", lessonID)
}

func (s *QuestionService) ByLevel(levelID uint) ([]QuestionResponse, error) {
	return s.find("level_id = ?", levelID)
}

func (s *QuestionService) ByType(typeID uint) ([]QuestionResponse, error) {
	return s.find("question_type_id = ?", typeID)
}

func (s *QuestionService) Search(text string) ([]QuestionResponse, error) {
	return s.find("LOWER(question_text) LIKE LOWER(?)", "%"+text+"%")
}

func (s *QuestionService) Get(id uint) (*QuestionResponse, error) {
	var q model.Question
	err := s.withRefs().Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("option_order ASC, id ASC")
	}).First(&q, id).Error
	if err != nil {
		return nil, notFound(err, "question")
	}
	return &toQuestionResponses([]model.Question{q})[0], nil
}

// checkRefs 校验引用的课时、题型、难度存在
func (s *QuestionService) checkRefs(req *QuestionRequest) error {
	fields := map[string]string{}
	check := func(id *uint, exists func(uint) (bool, error), field, message string) error {
		if id == nil {
			return nil
		}
		ok, err := exists(*id)
		if err != nil {
			return err
		}
		if !ok {
			fields[field] = message
		}
		return nil
	}
	if err := check(req.LessonID, s.LessonRepo.Exists, "lessonId", "lesson does not exist"); err != nil {
		return err
	}
	if err := check(req.QuestionTypeID, s.TypeRepo.Exists, "questionTypeId", "question type does not exist"); err != nil {
		return err
	}
	if err := check(req.LevelID, s.LevelRepo.Exists, "levelId", "level does not exist"); err != nil {
		return err
	}
	if len(fields) > 0 {
		return util.NewValidationError("invalid question references", fields)
	}
	return nil
}

func (s *QuestionService) Create(req *QuestionRequest) (*QuestionResponse, error) {
	missing := map[string]string{}
	if req.QuestionText == nil {
		missing["questionText"] = "is required"
	}
	if req.LessonID == nil {
		missing["lessonId"] = "is required"
	}
	if req.QuestionTypeID == nil {
		missing["questionTypeId"] = "is required"
	}
	if req.LevelID == nil {
		missing["levelId"] = "is required"
	}
	if len(missing) > 0 {
		return nil, util.NewValidationError("invalid question", missing)
	}
	if err := s.checkRefs(req); err != nil {
		return nil, err
	}

	q := &model.Question{
		QuestionText:   *req.QuestionText,
		Marks:          1,
		LessonID:       *req.LessonID,
		QuestionTypeID: *req.QuestionTypeID,
		LevelID:        *req.LevelID,
	}
	applyQuestion(q, req)
	if err := s.Repo.Create(q); err != nil {
		return nil, err
	}
	return s.Get(q.ID)
}

func (s *QuestionService) Update(id uint, req *QuestionRequest) (*QuestionResponse, error) {
	q, err := s.Repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "question")
	}
	if err := s.checkRefs(req); err != nil {
		return nil, err
	}
	if req.QuestionText != nil {
		q.QuestionText = *req.QuestionText
	}
	if req.LessonID != nil {
		q.LessonID = *req.LessonID
	}
	if req.QuestionTypeID != nil {
		q.QuestionTypeID = *req.QuestionTypeID
	}
	if req.LevelID != nil {
		q.LevelID = *req.LevelID
	}
	applyQuestion(q, req)
	if err := s.Repo.Update(q); err != nil {
		return nil, err
	}
	return s.Get(q.ID)
}

func applyQuestion(q *model.Question, req *QuestionRequest) {
	if req.CorrectAnswer != nil {
		q.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Marks != nil {
		q.Marks = *req.Marks
	}
	if req.Explanation != nil {
		q.Explanation = *req.Explanation
	}
}

// Delete 删除题目及其选项，已生成的试卷保留快照不受影响
func (s *QuestionService) Delete(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewOptionRepository(tx).DeleteByQuestion(id); err != nil {
			return err
		}
		return notFound(repository.NewQuestionRepository(tx).Delete(id), "question")
	})
}

// ---- Option ----

func (s *QuestionService) Options() ([]model.Option, error) {
	return s.OptionRepo.FindAll()
}

func (s *QuestionService) OptionsOf(questionID uint) ([]model.Option, error) {
	if ok, err := s.Repo.Exists(questionID); err != nil {
		return nil, err
	} else if !ok {
		return nil, util.NewNotFoundError("question")
	}
	return s.OptionRepo.FindByQuestion(questionID)
}

func (s *QuestionService) Option(id uint) (*model.Option, error) {
	opt, err := s.OptionRepo.FindByID(id)
	return opt, notFound(err, "option")
}

// ensureSingleCorrect 每道题最多一个正确选项
func (s *QuestionService) ensureSingleCorrect(questionID, optionID uint) error {
	count, err := s.OptionRepo.CountCorrect(questionID, optionID)
	if err != nil {
		return err
	}
	if count > 0 {
		return util.FieldError("isCorrect", "question already has a correct option")
	}
	return nil
}

func (s *QuestionService) CreateOption(req *OptionRequest) (*model.Option, error) {
	if req.OptionText == nil || req.QuestionID == nil {
		return nil, util.NewValidationError("invalid option", map[string]string{
			"optionText": "is required",
			"questionId": "is required",
		})
	}
	if ok, err := s.Repo.Exists(*req.QuestionID); err != nil {
		return nil, err
	} else if !ok {
		return nil, util.FieldError("questionId", "question does not exist")
	}

	opt := &model.Option{OptionText: *req.OptionText, QuestionID: *req.QuestionID}
	if req.IsCorrect != nil {
		opt.IsCorrect = *req.IsCorrect
	}
	if req.OptionOrder != nil {
		opt.OptionOrder = *req.OptionOrder
	}
	if opt.IsCorrect {
		if err := s.ensureSingleCorrect(opt.QuestionID, 0); err != nil {
			return nil, err
		}
	}
	return opt, s.OptionRepo.Create(opt)
}

func (s *QuestionService) UpdateOption(id uint, req *OptionRequest) (*model.Option, error) {
	opt, err := s.Option(id)
	if err != nil {
		return nil, err
	}
	if req.QuestionID != nil && *req.QuestionID != opt.QuestionID {
		if ok, err := s.Repo.Exists(*req.QuestionID); err != nil {
			return nil, err
		} else if !ok {
			return nil, util.FieldError("questionId", "question does not exist")
		}
		opt.QuestionID = *req.QuestionID
	}
	if req.OptionText != nil {
		opt.OptionText = *req.OptionText
	}
	if req.IsCorrect != nil {
		opt.IsCorrect = *req.IsCorrect
	}
	if req.OptionOrder != nil {
		opt.OptionOrder = *req.OptionOrder
	}
	if opt.IsCorrect {
		if err := s.ensureSingleCorrect(opt.QuestionID, opt.ID); err != nil {
			return nil, err
		}
	}
	return opt, s.OptionRepo.Update(opt)
}

func (s *QuestionService) DeleteOption(id uint) error {
	return notFound(s.OptionRepo.Delete(id), "option")
}
