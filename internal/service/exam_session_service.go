package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

type StartSessionRequest struct {
	ExamID   uint `json:"examId" binding:"required"`
	MatrixID uint `json:"matrixId"`
}

type SubmitAnswerRequest struct {
	SessionID        uint    `json:"sessionId" binding:"required"`
	QuestionID       uint    `json:"questionId" binding:"required"`
	SelectedOptionID *uint   `json:"selectedOptionId"`
	TextAnswer       *string `json:"textAnswer"`
}

func (r *SubmitAnswerRequest) validate() error {
	if r.SelectedOptionID != nil && *r.SelectedOptionID == 0 {
		r.SelectedOptionID = nil
	}
	switch {
	case r.SelectedOptionID == nil && r.TextAnswer == nil:
		return util.NewValidationError("an answer is required", map[string]string{
			"selectedOptionId": "either selectedOptionId or textAnswer is required",
			"textAnswer":       "either selectedOptionId or textAnswer is required",
		})
	case r.SelectedOptionID != nil && r.TextAnswer != nil:
		return util.NewValidationError("selectedOptionId and textAnswer are mutually exclusive", map[string]string{
			"textAnswer": "must be empty when selectedOptionId is set",
		})
	}
	return nil
}

type ExamSessionService struct {
	DB          *gorm.DB
	SessionRepo *repository.ExamSessionRepository
	AnswerRepo  *repository.StudentAnswerRepository
	ResultRepo  *repository.ExamResultRepository
	ExamRepo    *repository.ExamRepository
	MatrixRepo  *repository.MatrixRepository
	Locker      Locker
	Events      EventPublisher
	Notifier    SessionNotifier
	LockWait    time.Duration
	// Now 可在测试中替换
	Now func() time.Time
}

func NewExamSessionService(
	db *gorm.DB,
	sessionRepo *repository.ExamSessionRepository,
	answerRepo *repository.StudentAnswerRepository,
	resultRepo *repository.ExamResultRepository,
	examRepo *repository.ExamRepository,
	matrixRepo *repository.MatrixRepository,
	locker Locker,
	events EventPublisher,
	cfg *config.ExamConfig,
) *ExamSessionService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if events == nil {
		events = &NoopPublisher{}
	}
	lockWait := 5 * time.Second
	if cfg != nil && cfg.LockTTL > 0 {
		lockWait = cfg.LockTTL
	}
	return &ExamSessionService{
		DB:          db,
		SessionRepo: sessionRepo,
		AnswerRepo:  answerRepo,
		ResultRepo:  resultRepo,
		ExamRepo:    examRepo,
		MatrixRepo:  matrixRepo,
		Locker:      locker,
		Events:      events,
		LockWait:    lockWait,
		Now:         time.Now,
	}
}

func (s *ExamSessionService) notify(studentID uint, msgType string, data interface{}) {
	if s.Notifier != nil {
		s.Notifier.NotifyStudent(studentID, WSMessage{Type: msgType, Data: data})
	}
}

func studentLockKey(studentID uint) string {
	return fmt.Sprintf("student:%d", studentID)
}

func sessionLockKey(sessionID uint) string {
	return fmt.Sprintf("session:%d", sessionID)
}

func (s *ExamSessionService) lock(ctx context.Context, key string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.LockWait)
	defer cancel()

	unlock, err := s.Locker.Acquire(lockCtx, key)
	if err != nil {
		return nil, &util.AppError{
			Kind:    util.KindConflict,
			Reason:  util.ReasonConflict,
			Message: "another request for this exam is in progress, retry shortly",
			Err:     err,
		}
	}
	return unlock, nil
}

func (s *ExamSessionService) expired(session *model.ExamSession) bool {
	return s.Now().After(session.Deadline())
}

func (s *ExamSessionService) findSession(id uint) (*model.ExamSession, error) {
	session, err := s.SessionRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFoundError("exam session")
	}
	return session, err
}

// Start 开始考试；同一学生的 start 串行执行，数据库唯一索引兜底
func (s *ExamSessionService) Start(ctx context.Context, studentID uint, req *StartSessionRequest) (resp *model.ExamSessionResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "exam_session.start",
		attribute.Int("student.id", int(studentID)),
		attribute.Int("exam.id", int(req.ExamID)))
	defer func() { tracing.EndSpan(span, err) }()

	if req.ExamID == 0 {
		return nil, util.FieldError("examId", "is required")
	}

	unlock, err := s.lock(ctx, studentLockKey(studentID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	active, err := s.SessionRepo.FindActiveByStudent(studentID)
	switch {
	case err == nil:
		if !s.expired(active) {
			return nil, util.ErrAlreadyActive
		}
		if _, err := s.finalizeWithLock(ctx, active.ID, true); err != nil && !errors.Is(err, util.ErrAlreadySubmitted) {
			return nil, err
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	exam, err := s.ExamRepo.FindByID(req.ExamID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFoundError("exam")
	}
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamPublished {
		return nil, util.ErrExamNotAvailable
	}

	matrix, err := s.MatrixRepo.FindByExam(exam.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrExamNotAvailable
	}
	if err != nil {
		return nil, err
	}
	if req.MatrixID != 0 && req.MatrixID != matrix.ID {
		return nil, util.FieldError("matrixId", "matrix does not belong to this exam")
	}
	if matrix.TotalQuestions == 0 {
		return nil, util.ErrExamNotAvailable
	}

	closed, err := s.SessionRepo.CountClosedByStudentAndExam(studentID, exam.ID)
	if err != nil {
		return nil, err
	}
	if closed > 0 {
		return nil, util.ErrAlreadySubmitted
	}

	activeID := studentID
	session := &model.ExamSession{
		StudentID:       studentID,
		ExamID:          exam.ID,
		MatrixID:        matrix.ID,
		StartTime:       s.Now(),
		DurationMinutes: exam.DurationMinutes,
		Status:          model.SessionInProgress,
		ActiveStudentID: &activeID,
	}
	if err := s.SessionRepo.Create(session); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, util.ErrAlreadyActive
		}
		return nil, err
	}
	session.Exam = *exam

	monitoring.SessionsStarted.Inc()
	s.Events.Publish(ctx, EventSessionStarted, map[string]interface{}{
		"sessionId": session.ID,
		"studentId": studentID,
		"examId":    exam.ID,
		"matrixId":  matrix.ID,
		"deadline":  session.Deadline(),
	})
	s.notify(studentID, MsgSessionStart, map[string]interface{}{
		"sessionId": session.ID,
		"examId":    exam.ID,
		"deadline":  session.Deadline(),
	})
	logger.Log.Info("Exam session started",
		zap.Uint("session_id", session.ID),
		zap.Uint("student_id", studentID),
		zap.Uint("exam_id", exam.ID))

	r := s.toResponse(session, matrix)
	return &r, nil
}

// Active 当前进行中的会话，没有时返回 nil；已超时的会在这里被自动交卷
func (s *ExamSessionService) Active(ctx context.Context, studentID uint) (*model.ExamSessionResponse, error) {
	session, err := s.SessionRepo.FindActiveByStudent(studentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if s.expired(session) {
		if _, err := s.finalizeWithLock(ctx, session.ID, true); err != nil && !errors.Is(err, util.ErrAlreadySubmitted) {
			return nil, err
		}
		return nil, nil
	}

	matrix, err := s.MatrixRepo.FindByID(session.MatrixID)
	if err != nil {
		return nil, err
	}
	r := s.toResponse(session, matrix)
	return &r, nil
}

// Get 学生只能查看自己的会话
func (s *ExamSessionService) Get(ctx context.Context, actor *util.Claims, id uint) (*model.ExamSessionResponse, error) {
	session, err := s.accessibleSession(actor, id)
	if err != nil {
		return nil, err
	}

	if session.Status == model.SessionInProgress && s.expired(session) {
		if _, err := s.finalizeWithLock(ctx, session.ID, true); err != nil && !errors.Is(err, util.ErrAlreadySubmitted) {
			return nil, err
		}
		if session, err = s.findSession(id); err != nil {
			return nil, err
		}
	}

	matrix, err := s.MatrixRepo.FindByID(session.MatrixID)
	if err != nil {
		return nil, err
	}
	r := s.toResponse(session, matrix)
	return &r, nil
}

func (s *ExamSessionService) accessibleSession(actor *util.Claims, id uint) (*model.ExamSession, error) {
	session, err := s.findSession(id)
	if err != nil {
		return nil, err
	}
	if actor == nil || (!actor.IsStaff() && session.StudentID != actor.UserID) {
		return nil, util.ErrPermissionDenied
	}
	return session, nil
}

// SubmitAnswer 按 (session, question) upsert 答案，会话关闭或超时后拒绝写入
func (s *ExamSessionService) SubmitAnswer(ctx context.Context, studentID uint, req *SubmitAnswerRequest) (resp *model.StudentAnswerResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "exam_session.submit_answer",
		attribute.Int("session.id", int(req.SessionID)),
		attribute.Int("question.id", int(req.QuestionID)))
	defer func() { tracing.EndSpan(span, err) }()

	if err := req.validate(); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, sessionLockKey(req.SessionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.findSession(req.SessionID)
	if err != nil {
		return nil, err
	}
	if session.StudentID != studentID {
		return nil, util.ErrPermissionDenied
	}
	if session.Status != model.SessionInProgress {
		return nil, util.ErrSessionNotActive
	}
	if s.expired(session) {
		return nil, s.closeExpired(ctx, session)
	}

	mq, err := s.MatrixRepo.FindQuestion(session.MatrixID, req.QuestionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.FieldError("questionId", "question is not part of this exam")
	}
	if err != nil {
		return nil, err
	}
	opts, err := mq.OptionSnapshots()
	if err != nil {
		return nil, err
	}

	var selectedText *string
	if req.SelectedOptionID != nil {
		if len(opts) == 0 {
			return nil, util.FieldError("selectedOptionId", "question expects a text answer")
		}
		for _, o := range opts {
			if o.OptionID == *req.SelectedOptionID {
				text := o.OptionText
				selectedText = &text
				break
			}
		}
		if selectedText == nil {
			return nil, util.FieldError("selectedOptionId", "option does not belong to this question")
		}
	} else if len(opts) > 0 {
		return nil, util.FieldError("selectedOptionId", "question expects one of its options")
	}

	answer := &model.StudentAnswer{
		SessionID:        session.ID,
		QuestionID:       req.QuestionID,
		SelectedOptionID: req.SelectedOptionID,
		TextAnswer:       req.TextAnswer,
		AnsweredAt:       s.Now(),
	}
	if err := s.AnswerRepo.Upsert(answer); err != nil {
		return nil, err
	}
	stored, err := s.AnswerRepo.Find(session.ID, req.QuestionID)
	if err != nil {
		return nil, err
	}
	monitoring.AnswersSaved.Inc()

	return &model.StudentAnswerResponse{
		AnswerID:           stored.ID,
		SessionID:          stored.SessionID,
		QuestionID:         stored.QuestionID,
		QuestionText:       mq.QuestionText,
		SelectedOptionID:   stored.SelectedOptionID,
		SelectedOptionText: selectedText,
		TextAnswer:         stored.TextAnswer,
		AnsweredAt:         stored.AnsweredAt,
	}, nil
}

// Answers 会话已保存的答案；进行中时 isCorrect 恒为 null
func (s *ExamSessionService) Answers(ctx context.Context, actor *util.Claims, sessionID uint) ([]model.StudentAnswerResponse, error) {
	session, err := s.accessibleSession(actor, sessionID)
	if err != nil {
		return nil, err
	}

	answers, err := s.AnswerRepo.FindBySession(sessionID)
	if err != nil {
		return nil, err
	}
	questions, err := s.MatrixRepo.Questions(session.MatrixID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.MatrixQuestion, len(questions))
	for _, q := range questions {
		byID[q.QuestionID] = q
	}

	list := make([]model.StudentAnswerResponse, 0, len(answers))
	for _, a := range answers {
		mq := byID[a.QuestionID]
		item := model.StudentAnswerResponse{
			AnswerID:         a.ID,
			SessionID:        a.SessionID,
			QuestionID:       a.QuestionID,
			QuestionText:     mq.QuestionText,
			SelectedOptionID: a.SelectedOptionID,
			TextAnswer:       a.TextAnswer,
			AnsweredAt:       a.AnsweredAt,
		}
		if session.Status.IsClosed() {
			item.IsCorrect = a.IsCorrect
		}
		if a.SelectedOptionID != nil {
			opts, err := mq.OptionSnapshots()
			if err != nil {
				return nil, err
			}
			for _, o := range opts {
				if o.OptionID == *a.SelectedOptionID {
					text := o.OptionText
					item.SelectedOptionText = &text
					break
				}
			}
		}
		list = append(list, item)
	}
	return list, nil
}

// Submit 交卷并同步评分；重复提交返回 ALREADY_SUBMITTED
// 超时后提交会先自动交卷，再返回 closeExpired 的错误
func (s *ExamSessionService) Submit(ctx context.Context, studentID, sessionID uint) (result *model.ExamResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "exam_session.submit", attribute.Int("session.id", int(sessionID)))
	defer func() { tracing.EndSpan(span, err) }()

	unlock, err := s.lock(ctx, sessionLockKey(sessionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.StudentID != studentID {
		return nil, util.ErrPermissionDenied
	}
	if session.Status.IsClosed() {
		return nil, util.ErrAlreadySubmitted
	}
	if s.expired(session) {
		return nil, s.closeExpired(ctx, session)
	}

	return s.finalize(ctx, session, false)
}

// ExpiredSubmission 超时交卷时随 SESSION_EXPIRED 返回，客户端据此跳转到成绩
type ExpiredSubmission struct {
	SessionID uint `json:"sessionId"`
	ResultID  uint `json:"resultId,omitempty"`
}

// closeExpired 自动交卷超时会话，返回带成绩编号的 SESSION_EXPIRED
func (s *ExamSessionService) closeExpired(ctx context.Context, session *model.ExamSession) error {
	result, err := s.finalize(ctx, session, true)
	if err != nil && !errors.Is(err, util.ErrAlreadySubmitted) {
		return err
	}
	data := ExpiredSubmission{SessionID: session.ID}
	if result != nil {
		data.ResultID = result.ID
	}
	return util.ErrSessionExpired.WithData(data)
}

// finalizeWithLock 获取会话锁后重新读取再关闭
func (s *ExamSessionService) finalizeWithLock(ctx context.Context, sessionID uint, auto bool) (*model.ExamResult, error) {
	unlock, err := s.lock(ctx, sessionLockKey(sessionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsClosed() {
		return nil, util.ErrAlreadySubmitted
	}
	return s.finalize(ctx, session, auto)
}

// finalize 调用方需持有会话锁。条件更新关闭会话、评分、写入成绩在同一事务内完成
func (s *ExamSessionService) finalize(ctx context.Context, session *model.ExamSession, auto bool) (*model.ExamResult, error) {
	exam := session.Exam
	deadline := session.Deadline()
	end := s.Now()
	if auto || end.After(deadline) {
		end = deadline
	}
	timeSpent := int(end.Sub(session.StartTime) / time.Second)
	if limit := session.DurationMinutes * 60; timeSpent > limit {
		timeSpent = limit
	}
	if timeSpent < 0 {
		timeSpent = 0
	}

	var result *model.ExamResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		closed, err := s.SessionRepo.WithTx(tx).Close(session.ID, end, timeSpent, auto)
		if err != nil {
			return err
		}
		if !closed {
			return util.ErrAlreadySubmitted
		}

		session.Status = model.SessionSubmitted
		session.EndTime = &end
		session.TimeSpent = timeSpent
		session.AutoSubmitted = auto
		session.ActiveStudentID = nil

		result, err = s.scoreAndStore(tx, session, &exam)
		return err
	})
	if err != nil {
		return nil, err
	}

	mode := "manual"
	if auto {
		mode = "auto"
	}
	monitoring.SessionsSubmitted.WithLabelValues(mode).Inc()
	monitoring.ResultsCreated.WithLabelValues(fmt.Sprintf("%t", result.Passed)).Inc()

	s.Events.Publish(ctx, EventSessionSubmitted, map[string]interface{}{
		"sessionId":     session.ID,
		"studentId":     session.StudentID,
		"examId":        session.ExamID,
		"autoSubmitted": auto,
		"timeSpent":     timeSpent,
	})
	s.Events.Publish(ctx, EventResultCreated, map[string]interface{}{
		"resultId":   result.ID,
		"sessionId":  session.ID,
		"studentId":  session.StudentID,
		"examId":     session.ExamID,
		"score":      result.Score,
		"percentage": result.Percentage,
		"passed":     result.Passed,
	})
	s.notify(session.StudentID, MsgSessionClosed, map[string]interface{}{
		"sessionId":     session.ID,
		"resultId":      result.ID,
		"autoSubmitted": auto,
	})
	logger.Log.Info("Exam session closed",
		zap.Uint("session_id", session.ID),
		zap.String("mode", mode),
		zap.Int("score", result.Score),
		zap.Bool("passed", result.Passed))

	return result, nil
}

// scoreAndStore 评分并写入成绩，session_id 唯一索引保证只写一次
func (s *ExamSessionService) scoreAndStore(tx *gorm.DB, session *model.ExamSession, exam *model.Exam) (*model.ExamResult, error) {
	questions, err := s.MatrixRepo.WithTx(tx).Questions(session.MatrixID)
	if err != nil {
		return nil, err
	}
	answerRepo := s.AnswerRepo.WithTx(tx)
	answers, err := answerRepo.FindBySession(session.ID)
	if err != nil {
		return nil, err
	}

	passing := exam.PassingMarks
	outcome, err := Score(questions, answers, passing)
	if err != nil {
		return nil, err
	}
	if err := answerRepo.MarkCorrectness(session.ID, outcome.Verdicts); err != nil {
		return nil, err
	}

	details, err := json.Marshal(outcome.Details)
	if err != nil {
		return nil, err
	}
	completedAt := s.Now()
	if session.EndTime != nil {
		completedAt = *session.EndTime
	}

	result := &model.ExamResult{
		SessionID:           session.ID,
		StudentID:           session.StudentID,
		ExamID:              session.ExamID,
		Score:               outcome.Score,
		TotalMarks:          outcome.TotalMarks,
		Percentage:          outcome.Percentage,
		PassingMarks:        &passing,
		TotalQuestions:      outcome.TotalQuestions,
		CorrectAnswers:      outcome.Correct,
		WrongAnswers:        outcome.Wrong,
		UnansweredQuestions: outcome.Unanswered,
		PendingReview:       outcome.PendingReview,
		Passed:              outcome.Passed,
		Feedback:            outcome.Feedback,
		TimeSpent:           session.TimeSpent,
		CompletedAt:         completedAt,
		QuestionResults:     datatypes.JSON(details),
	}
	if err := s.ResultRepo.WithTx(tx).Create(result); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, util.ErrAlreadySubmitted
		}
		return nil, err
	}
	return result, nil
}

// EnsureResult 返回会话成绩；超时未交卷的先自动交卷，已关闭但缺少成绩的补算
func (s *ExamSessionService) EnsureResult(ctx context.Context, actor *util.Claims, sessionID uint) (*model.ExamResult, error) {
	session, err := s.accessibleSession(actor, sessionID)
	if err != nil {
		return nil, err
	}

	if result, err := s.ResultRepo.FindBySession(sessionID); err == nil {
		return result, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if session.Status == model.SessionInProgress {
		if !s.expired(session) {
			return nil, util.ErrResultNotReady
		}
		result, err := s.finalizeWithLock(ctx, sessionID, true)
		if errors.Is(err, util.ErrAlreadySubmitted) {
			return s.ResultRepo.FindBySession(sessionID)
		}
		return result, err
	}

	unlock, err := s.lock(ctx, sessionLockKey(sessionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *model.ExamResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.scoreAndStore(tx, session, &session.Exam)
		return err
	})
	if errors.Is(err, util.ErrAlreadySubmitted) {
		return s.ResultRepo.FindBySession(sessionID)
	}
	return result, err
}

// ExpireOverdue 扫描超时未交卷的会话并自动交卷，返回处理数量
func (s *ExamSessionService) ExpireOverdue(ctx context.Context) (int, error) {
	sessions, err := s.SessionRepo.FindInProgress()
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range sessions {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		if !s.expired(&sessions[i]) {
			continue
		}
		_, err := s.finalizeWithLock(ctx, sessions[i].ID, true)
		if errors.Is(err, util.ErrAlreadySubmitted) {
			continue
		}
		if err != nil {
			logger.Log.Error("Failed to auto-submit expired session",
				zap.Uint("session_id", sessions[i].ID), zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}

// MySessions 学生的考试记录，顺带关闭已超时的会话
func (s *ExamSessionService) MySessions(ctx context.Context, studentID uint) ([]model.ExamSessionResponse, error) {
	sessions, err := s.SessionRepo.FindByStudent(studentID)
	if err != nil {
		return nil, err
	}
	for _, sess := range sessions {
		if sess.Status != model.SessionInProgress {
			continue
		}
		full, err := s.findSession(sess.ID)
		if err != nil {
			return nil, err
		}
		if s.expired(full) {
			if _, err := s.finalizeWithLock(ctx, sess.ID, true); err != nil && !errors.Is(err, util.ErrAlreadySubmitted) {
				return nil, err
			}
			if sessions, err = s.SessionRepo.FindByStudent(studentID); err != nil {
				return nil, err
			}
			break
		}
	}
	return s.toResponses(sessions)
}

// ExamSessions 教师查看某场考试的所有会话
func (s *ExamSessionService) ExamSessions(examID uint) ([]model.ExamSessionResponse, error) {
	if _, err := s.ExamRepo.FindByID(examID); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFoundError("exam")
	} else if err != nil {
		return nil, err
	}
	sessions, err := s.SessionRepo.FindByExam(examID)
	if err != nil {
		return nil, err
	}
	return s.toResponses(sessions)
}

func (s *ExamSessionService) toResponses(sessions []model.ExamSession) ([]model.ExamSessionResponse, error) {
	exams := map[uint]*model.Exam{}
	matrices := map[uint]*model.Matrix{}
	list := make([]model.ExamSessionResponse, 0, len(sessions))

	for i := range sessions {
		sess := &sessions[i]
		exam, ok := exams[sess.ExamID]
		if !ok {
			e, err := s.ExamRepo.FindByID(sess.ExamID)
			if err != nil {
				return nil, err
			}
			exams[sess.ExamID], exam = e, e
		}
		matrix, ok := matrices[sess.MatrixID]
		if !ok {
			m, err := s.MatrixRepo.FindByID(sess.MatrixID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			if m == nil {
				m = &model.Matrix{}
			}
			matrices[sess.MatrixID], matrix = m, m
		}
		sess.Exam = *exam
		list = append(list, s.toResponse(sess, matrix))
	}
	return list, nil
}

func (s *ExamSessionService) toResponse(session *model.ExamSession, matrix *model.Matrix) model.ExamSessionResponse {
	deadline := session.Deadline()
	resp := model.ExamSessionResponse{
		SessionID:      session.ID,
		StudentID:      session.StudentID,
		ExamID:         session.ExamID,
		ExamName:       session.Exam.ExamName,
		MatrixID:       session.MatrixID,
		MatrixName:     matrix.MatrixName,
		StartTime:      session.StartTime,
		EndTime:        session.EndTime,
		Deadline:       deadline,
		Status:         session.Status,
		TimeSpent:      session.TimeSpent,
		Duration:       session.DurationMinutes,
		TotalQuestions: matrix.TotalQuestions,
		AutoSubmitted:  session.AutoSubmitted,
	}
	if session.Status == model.SessionInProgress {
		if remaining := deadline.Sub(s.Now()); remaining > 0 {
			resp.RemainingSeconds = int(remaining / time.Second)
		}
		resp.TimeSpent = int(s.Now().Sub(session.StartTime) / time.Second)
		if limit := session.DurationMinutes * 60; resp.TimeSpent > limit {
			resp.TimeSpent = limit
		}
	}
	return resp
}
