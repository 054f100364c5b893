package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"matrix_exam_backend/internal/config"
	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/internal/repository"
	"matrix_exam_backend/internal/util"
	"matrix_exam_backend/pkg/logger"
	"matrix_exam_backend/pkg/monitoring"
	"matrix_exam_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 难度桶
const (
	BucketEasy   = "easy"
	BucketMedium = "medium"
	BucketHard   = "hard"
)

var bucketOrder = []string{BucketEasy, BucketMedium, BucketHard}

type CreateMatrixWithQuestionsRequest struct {
	ExamName           string     `json:"examName" binding:"required,notblank,max=255"`
	ExamDescription    string     `json:"examDescription"`
	DurationMinutes    *int       `json:"durationMinutes" binding:"omitempty,min=1"`
	PassingMarks       *int       `json:"passingMarks" binding:"omitempty,min=0"`
	ExamDate           *time.Time `json:"examDate"`
	MatrixName         string     `json:"matrixName" binding:"required,notblank,max=255"`
	MatrixDescription  string     `json:"matrixDescription"`
	LessonIDs          []uint     `json:"lessonIds"`
	LevelIDs           []uint     `json:"levelIds"`
	QuestionsPerLesson *int       `json:"questionsPerLesson" binding:"omitempty,min=1"`
	EasyQuestions      *int       `json:"easyQuestions" binding:"omitempty,min=0"`
	MediumQuestions    *int       `json:"mediumQuestions" binding:"omitempty,min=0"`
	HardQuestions      *int       `json:"hardQuestions" binding:"omitempty,min=0"`
}

func (r *CreateMatrixWithQuestionsRequest) validate() error {
	fields := map[string]string{}
	if r.ExamName == "" {
		fields["examName"] = "is required"
	}
	if r.MatrixName == "" {
		fields["matrixName"] = "is required"
	}
	if r.DurationMinutes != nil && *r.DurationMinutes < 1 {
		fields["durationMinutes"] = "must be at least 1"
	}
	if r.PassingMarks != nil && *r.PassingMarks < 0 {
		fields["passingMarks"] = "must be greater than or equal to 0"
	}
	if r.QuestionsPerLesson != nil && *r.QuestionsPerLesson < 1 {
		fields["questionsPerLesson"] = "must be at least 1"
	}
	for name, v := range map[string]*int{"easyQuestions": r.EasyQuestions, "mediumQuestions": r.MediumQuestions, "hardQuestions": r.HardQuestions} {
		if v != nil && *v < 0 {
			fields[name] = "must be greater than or equal to 0"
		}
	}
	if len(fields) > 0 {
		return util.NewValidationError("invalid matrix request", fields)
	}
	return nil
}

// bucketCounts 任一难度给出数量时按桶抽题，未给出的桶取 0
func (r *CreateMatrixWithQuestionsRequest) bucketCounts() map[string]int {
	if r.EasyQuestions == nil && r.MediumQuestions == nil && r.HardQuestions == nil {
		return nil
	}
	counts := make(map[string]int, 3)
	for bucket, v := range map[string]*int{BucketEasy: r.EasyQuestions, BucketMedium: r.MediumQuestions, BucketHard: r.HardQuestions} {
		if v != nil {
			counts[bucket] = *v
		} else {
			counts[bucket] = 0
		}
	}
	return counts
}

type UpdateMatrixRequest struct {
	MatrixName  *string `json:"matrixName" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

type MatrixService struct {
	DB           *gorm.DB
	QuestionRepo *repository.QuestionRepository
	ExamRepo     *repository.ExamRepository
	MatrixRepo   *repository.MatrixRepository
	SessionRepo  *repository.ExamSessionRepository
	Events       EventPublisher
	Cfg          *config.ExamConfig
}

func NewMatrixService(
	db *gorm.DB,
	questionRepo *repository.QuestionRepository,
	examRepo *repository.ExamRepository,
	matrixRepo *repository.MatrixRepository,
	sessionRepo *repository.ExamSessionRepository,
	events EventPublisher,
	cfg *config.ExamConfig,
) *MatrixService {
	if events == nil {
		events = &NoopPublisher{}
	}
	return &MatrixService{
		DB:           db,
		QuestionRepo: questionRepo,
		ExamRepo:     examRepo,
		MatrixRepo:   matrixRepo,
		SessionRepo:  sessionRepo,
		Events:       events,
		Cfg:          cfg,
	}
}

// BucketOf 难度分数映射到难度桶
func (s *MatrixService) BucketOf(difficultyScore int) string {
	easyMax, mediumMax := util.DefaultEasyMaxScore, util.DefaultMediumMaxScore
	if s.Cfg != nil && s.Cfg.MediumMaxScore > 0 {
		easyMax, mediumMax = s.Cfg.EasyMaxScore, s.Cfg.MediumMaxScore
	}
	switch {
	case difficultyScore <= easyMax:
		return BucketEasy
	case difficultyScore <= mediumMax:
		return BucketMedium
	}
	return BucketHard
}

// usablePool 带选项的题目必须恰好有一个正确选项，否则排除
func usablePool(pool []model.Question) ([]model.Question, []uint) {
	usable := make([]model.Question, 0, len(pool))
	var excluded []uint
	for _, q := range pool {
		if len(q.Options) > 0 {
			correct := 0
			for _, o := range q.Options {
				if o.IsCorrect {
					correct++
				}
			}
			if correct != 1 {
				excluded = append(excluded, q.ID)
				continue
			}
		}
		usable = append(usable, q)
	}
	return usable, excluded
}

type drawnQuestion struct {
	question model.Question
	bucket   string
}

// draw 按 ID 升序确定性抽题；每课上限在抽题过程中累计，桶之间不互相借调
func (s *MatrixService) draw(pool []model.Question, counts map[string]int, perLessonCap *int) ([]drawnQuestion, map[string]int) {
	perLesson := make(map[uint]int)
	take := func(q model.Question) bool {
		if perLessonCap != nil && perLesson[q.LessonID] >= *perLessonCap {
			return false
		}
		perLesson[q.LessonID]++
		return true
	}

	fulfilled := map[string]int{BucketEasy: 0, BucketMedium: 0, BucketHard: 0}
	var selected []drawnQuestion

	if counts == nil {
		for _, q := range pool {
			if take(q) {
				b := s.BucketOf(q.Level.DifficultyScore)
				selected = append(selected, drawnQuestion{question: q, bucket: b})
				fulfilled[b]++
			}
		}
		return selected, fulfilled
	}

	buckets := make(map[string][]model.Question, 3)
	for _, q := range pool {
		b := s.BucketOf(q.Level.DifficultyScore)
		buckets[b] = append(buckets[b], q)
	}
	for _, b := range bucketOrder {
		want := counts[b]
		for _, q := range buckets[b] {
			if fulfilled[b] >= want {
				break
			}
			if take(q) {
				selected = append(selected, drawnQuestion{question: q, bucket: b})
				fulfilled[b]++
			}
		}
	}
	return selected, fulfilled
}

// CreateWithQuestions 组卷并同时创建考试，三类记录在同一事务内写入
func (s *MatrixService) CreateWithQuestions(ctx context.Context, actor *util.Claims, req *CreateMatrixWithQuestionsRequest) (resp *model.MatrixWithQuestionsResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "matrix.create_with_questions")
	defer func() { tracing.EndSpan(span, err) }()

	if actor == nil || !actor.IsStaff() {
		return nil, util.ErrPermissionDenied
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	pool, err := s.QuestionRepo.FindPool(req.LessonIDs, req.LevelIDs)
	if err != nil {
		return nil, err
	}
	pool, excluded := usablePool(pool)
	if len(excluded) > 0 {
		logger.Log.Warn("Questions without exactly one correct option left out of the pool",
			zap.Uints("question_ids", excluded))
	}
	if len(pool) == 0 {
		return nil, util.ErrInvalidSelection
	}

	counts := req.bucketCounts()
	drawn, fulfilled := s.draw(pool, counts, req.QuestionsPerLesson)
	if len(drawn) == 0 {
		return nil, &util.AppError{
			Kind:    util.KindUnprocessable,
			Reason:  util.ReasonInvalidSelection,
			Message: "the requested counts select no questions from the pool",
		}
	}
	span.SetAttributes(attribute.Int("matrix.pool_size", len(pool)), attribute.Int("matrix.questions", len(drawn)))

	totalMarks := 0
	for _, d := range drawn {
		totalMarks += d.question.Marks
	}

	duration := util.DefaultDurationMinutes
	if s.Cfg != nil && s.Cfg.DefaultDurationMinutes > 0 {
		duration = s.Cfg.DefaultDurationMinutes
	}
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}
	passing := (totalMarks + 1) / 2
	if req.PassingMarks != nil {
		passing = *req.PassingMarks
	}
	if passing > totalMarks {
		return nil, util.FieldError("passingMarks", "must not exceed total marks of the selected questions")
	}
	examDate := time.Now()
	if req.ExamDate != nil {
		examDate = *req.ExamDate
	}

	selection, err := json.Marshal(model.MatrixSelection{
		LessonIDs:          req.LessonIDs,
		LevelIDs:           req.LevelIDs,
		QuestionsPerLesson: req.QuestionsPerLesson,
		Requested:          counts,
		Fulfilled:          fulfilled,
		PoolSize:           len(pool),
		Excluded:           excluded,
	})
	if err != nil {
		return nil, err
	}

	exam := &model.Exam{
		ExamName:        req.ExamName,
		Description:     req.ExamDescription,
		DurationMinutes: duration,
		TotalMarks:      totalMarks,
		PassingMarks:    passing,
		ExamDate:        examDate,
		Status:          model.ExamPublished,
		CreatorID:       actor.UserID,
	}
	matrix := &model.Matrix{
		MatrixName:     req.MatrixName,
		Description:    req.MatrixDescription,
		TotalQuestions: len(drawn),
		Selection:      datatypes.JSON(selection),
		CreatorID:      actor.UserID,
	}
	var questions []model.MatrixQuestion

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ExamRepo.WithTx(tx).Create(exam); err != nil {
			return err
		}
		matrix.ExamID = exam.ID
		matrixRepo := s.MatrixRepo.WithTx(tx)
		if err := matrixRepo.Create(matrix); err != nil {
			return err
		}

		questions, err = snapshotQuestions(matrix.ID, drawn)
		if err != nil {
			return err
		}
		return matrixRepo.CreateQuestions(questions)
	})
	if err != nil {
		return nil, err
	}

	monitoring.MatricesGenerated.Inc()
	s.Events.Publish(ctx, EventMatrixCreated, map[string]interface{}{
		"matrixId":       matrix.ID,
		"examId":         exam.ID,
		"totalQuestions": matrix.TotalQuestions,
		"totalMarks":     exam.TotalMarks,
		"creatorId":      actor.UserID,
	})

	return buildMatrixWithQuestions(matrix, exam, questions), nil
}

func snapshotQuestions(matrixID uint, drawn []drawnQuestion) ([]model.MatrixQuestion, error) {
	questions := make([]model.MatrixQuestion, 0, len(drawn))
	for i, d := range drawn {
		q := d.question
		mq := model.MatrixQuestion{
			MatrixID:         matrixID,
			QuestionID:       q.ID,
			QuestionOrder:    i + 1,
			Marks:            q.Marks,
			QuestionText:     q.QuestionText,
			QuestionTypeName: q.QuestionType.TypeName,
			LevelName:        q.Level.LevelName,
			LessonTitle:      q.Lesson.LessonTitle,
			Bucket:           d.bucket,
			CorrectAnswer:    q.CorrectAnswer,
		}
		if len(q.Options) > 0 {
			opts := make([]model.OptionSnapshot, 0, len(q.Options))
			for _, o := range q.Options {
				opts = append(opts, model.OptionSnapshot{
					OptionID:    o.ID,
					OptionText:  o.OptionText,
					IsCorrect:   o.IsCorrect,
					OptionOrder: o.OptionOrder,
				})
			}
			raw, err := json.Marshal(opts)
			if err != nil {
				return nil, err
			}
			mq.Options = datatypes.JSON(raw)
		}
		questions = append(questions, mq)
	}
	return questions, nil
}

func buildMatrixWithQuestions(m *model.Matrix, exam *model.Exam, questions []model.MatrixQuestion) *model.MatrixWithQuestionsResponse {
	resp := &model.MatrixWithQuestionsResponse{
		MatrixID:        m.ID,
		MatrixName:      m.MatrixName,
		Description:     m.Description,
		TotalQuestions:  m.TotalQuestions,
		ExamID:          exam.ID,
		ExamName:        exam.ExamName,
		ExamStatus:      exam.Status,
		DurationMinutes: exam.DurationMinutes,
		TotalMarks:      exam.TotalMarks,
		PassingMarks:    exam.PassingMarks,
		Questions:       make([]model.MatrixQuestionSummary, 0, len(questions)),
	}
	if sel, err := m.DecodeSelection(); err == nil {
		resp.Selection = sel
	}
	for _, q := range questions {
		resp.Questions = append(resp.Questions, model.MatrixQuestionSummary{
			QuestionID:    q.QuestionID,
			QuestionText:  q.QuestionText,
			QuestionType:  q.QuestionTypeName,
			LevelName:     q.LevelName,
			LessonTitle:   q.LessonTitle,
			Bucket:        q.Bucket,
			Marks:         q.Marks,
			QuestionOrder: q.QuestionOrder,
		})
	}
	return resp
}

func (s *MatrixService) toResponse(m *model.Matrix, examName string) model.MatrixResponse {
	resp := model.MatrixResponse{
		MatrixID:       m.ID,
		MatrixName:     m.MatrixName,
		Description:    m.Description,
		TotalQuestions: m.TotalQuestions,
		ExamID:         m.ExamID,
		ExamName:       examName,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if sel, err := m.DecodeSelection(); err == nil {
		resp.Selection = sel
	}
	return resp
}

func (s *MatrixService) List() ([]model.MatrixResponse, error) {
	matrices, err := s.MatrixRepo.FindAll()
	if err != nil {
		return nil, err
	}
	return s.toResponses(matrices)
}

func (s *MatrixService) Search(name string) ([]model.MatrixResponse, error) {
	matrices, err := s.MatrixRepo.Search(name)
	if err != nil {
		return nil, err
	}
	return s.toResponses(matrices)
}

func (s *MatrixService) toResponses(matrices []model.Matrix) ([]model.MatrixResponse, error) {
	exams, err := s.ExamRepo.FindAll()
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(exams))
	for _, e := range exams {
		names[e.ID] = e.ExamName
	}

	list := make([]model.MatrixResponse, 0, len(matrices))
	for i := range matrices {
		list = append(list, s.toResponse(&matrices[i], names[matrices[i].ExamID]))
	}
	return list, nil
}

func (s *MatrixService) findMatrix(id uint) (*model.Matrix, error) {
	m, err := s.MatrixRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFoundError("matrix")
	}
	return m, err
}

// Get 教师视图，包含题目列表（不含答案）
func (s *MatrixService) Get(id uint) (*model.MatrixWithQuestionsResponse, error) {
	m, err := s.findMatrix(id)
	if err != nil {
		return nil, err
	}
	return s.withQuestions(m)
}

func (s *MatrixService) GetByExam(examID uint) (*model.MatrixWithQuestionsResponse, error) {
	m, err := s.MatrixRepo.FindByExam(examID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFoundError("matrix")
	}
	if err != nil {
		return nil, err
	}
	return s.withQuestions(m)
}

func (s *MatrixService) withQuestions(m *model.Matrix) (*model.MatrixWithQuestionsResponse, error) {
	exam, err := s.ExamRepo.FindByID(m.ExamID)
	if err != nil {
		return nil, err
	}
	questions, err := s.MatrixRepo.Questions(m.ID)
	if err != nil {
		return nil, err
	}
	return buildMatrixWithQuestions(m, exam, questions), nil
}

// Update 题目列表不可修改，只允许改名称和描述
func (s *MatrixService) Update(id uint, req *UpdateMatrixRequest) (*model.MatrixResponse, error) {
	m, err := s.findMatrix(id)
	if err != nil {
		return nil, err
	}
	if req.MatrixName != nil {
		if *req.MatrixName == "" {
			return nil, util.FieldError("matrixName", "must not be empty")
		}
		m.MatrixName = *req.MatrixName
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	if err := s.MatrixRepo.Update(m); err != nil {
		return nil, err
	}

	exam, err := s.ExamRepo.FindByID(m.ExamID)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(m, exam.ExamName)
	return &resp, nil
}

// Delete 已有考试记录引用时禁止删除
func (s *MatrixService) Delete(id uint) error {
	m, err := s.findMatrix(id)
	if err != nil {
		return err
	}
	count, err := s.SessionRepo.CountByMatrix(m.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return util.NewConflictError("matrix is referenced by exam sessions")
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.MatrixRepo.WithTx(tx).HardDelete(m.ID)
	})
}

// StudentQuestions 答题用的题目列表，去掉所有正确答案信息
// 学生只能查看自己开考过的试卷
func (s *MatrixService) StudentQuestions(actor *util.Claims, matrixID uint) ([]model.MatrixQuestionResponse, error) {
	if actor == nil {
		return nil, util.ErrPermissionDenied
	}
	if _, err := s.findMatrix(matrixID); err != nil {
		return nil, err
	}
	if !actor.IsStaff() {
		ok, err := s.SessionRepo.HasStudentSession(actor.UserID, matrixID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, util.ErrPermissionDenied
		}
	}
	questions, err := s.MatrixRepo.Questions(matrixID)
	if err != nil {
		return nil, err
	}

	list := make([]model.MatrixQuestionResponse, 0, len(questions))
	for _, q := range questions {
		opts, err := q.OptionSnapshots()
		if err != nil {
			return nil, err
		}
		item := model.MatrixQuestionResponse{
			QuestionID:    q.QuestionID,
			QuestionText:  q.QuestionText,
			QuestionType:  q.QuestionTypeName,
			Marks:         q.Marks,
			QuestionOrder: q.QuestionOrder,
			Options:       make([]model.QuestionOptionResponse, 0, len(opts)),
		}
		for _, o := range opts {
			item.Options = append(item.Options, model.QuestionOptionResponse{
				OptionID:    o.OptionID,
				OptionText:  o.OptionText,
				OptionOrder: o.OptionOrder,
			})
		}
		list = append(list, item)
	}
	return list, nil
}
