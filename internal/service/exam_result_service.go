package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/internal/repository"
	"matrix_exam_backend/internal/util"

	"gorm.io/gorm"
)

type ExamResultService struct {
	ResultRepo  *repository.ExamResultRepository
	SessionRepo *repository.ExamSessionRepository
	ExamRepo    *repository.ExamRepository
	UserRepo    *repository.UserRepository
	Sessions    *ExamSessionService
	Storage     *StorageService
}

func NewExamResultService(
	resultRepo *repository.ExamResultRepository,
	sessionRepo *repository.ExamSessionRepository,
	examRepo *repository.ExamRepository,
	userRepo *repository.UserRepository,
	sessions *ExamSessionService,
	storage *StorageService,
) *ExamResultService {
	return &ExamResultService{
		ResultRepo:  resultRepo,
		SessionRepo: sessionRepo,
		ExamRepo:    examRepo,
		UserRepo:    userRepo,
		Sessions:    sessions,
		Storage:     storage,
	}
}

// BySession 会话成绩；会话超时未交卷时会先自动交卷
func (s *ExamResultService) BySession(ctx context.Context, actor *util.Claims, sessionID uint) (*model.ExamResultResponse, error) {
	result, err := s.Sessions.EnsureResult(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	return s.BuildResponse(result, true)
}

// Calculate 与 BySession 相同，供前端在交卷后主动触发
func (s *ExamResultService) Calculate(ctx context.Context, actor *util.Claims, sessionID uint) (*model.ExamResultResponse, error) {
	return s.BySession(ctx, actor, sessionID)
}

func (s *ExamResultService) MyResults(studentID uint) ([]model.ExamResultResponse, error) {
	results, err := s.ResultRepo.FindByStudent(studentID)
	if err != nil {
		return nil, err
	}
	return s.buildList(results)
}

func (s *ExamResultService) ByExam(examID uint) ([]model.ExamResultResponse, error) {
	if _, err := s.ExamRepo.FindByID(examID); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFoundError("exam")
	} else if err != nil {
		return nil, err
	}
	results, err := s.ResultRepo.FindByExam(examID)
	if err != nil {
		return nil, err
	}
	return s.buildList(results)
}

// Detail 成绩详情，包含逐题解析
func (s *ExamResultService) Detail(actor *util.Claims, id uint) (*model.ExamResultResponse, error) {
	result, err := s.ResultRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFoundError("exam result")
	}
	if err != nil {
		return nil, err
	}
	if actor == nil || (!actor.IsStaff() && result.StudentID != actor.UserID) {
		return nil, util.ErrPermissionDenied
	}
	return s.BuildResponse(result, true)
}

func (s *ExamResultService) buildList(results []model.ExamResult) ([]model.ExamResultResponse, error) {
	list := make([]model.ExamResultResponse, 0, len(results))
	for i := range results {
		resp, err := s.BuildResponse(&results[i], false)
		if err != nil {
			return nil, err
		}
		list = append(list, *resp)
	}
	return list, nil
}

func (s *ExamResultService) BuildResponse(result *model.ExamResult, withDetails bool) (*model.ExamResultResponse, error) {
	resp := &model.ExamResultResponse{
		ResultID:            result.ID,
		SessionID:           result.SessionID,
		StudentID:           result.StudentID,
		ExamID:              result.ExamID,
		Score:               result.Score,
		TotalMarks:          result.TotalMarks,
		Percentage:          result.Percentage,
		TotalQuestions:      result.TotalQuestions,
		CorrectAnswers:      result.CorrectAnswers,
		WrongAnswers:        result.WrongAnswers,
		UnansweredQuestions: result.UnansweredQuestions,
		PendingReview:       result.PendingReview,
		Passed:              result.Passed,
		Feedback:            result.Feedback,
		TimeSpent:           result.TimeSpent,
		CompletedAt:         result.CompletedAt,
	}

	if exam, err := s.ExamRepo.FindByID(result.ExamID); err == nil {
		resp.ExamName = exam.ExamName
		resp.PassingMarks = exam.PassingMarks
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if result.PassingMarks != nil {
		resp.PassingMarks = *result.PassingMarks
	}
	if user, err := s.UserRepo.FindByID(result.StudentID); err == nil {
		resp.StudentName = user.FullName()
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if session, err := s.SessionRepo.FindByID(result.SessionID); err == nil {
		resp.AutoSubmitted = session.AutoSubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if withDetails && len(result.QuestionResults) > 0 {
		var details []model.QuestionResultDetail
		if err := json.Unmarshal(result.QuestionResults, &details); err != nil {
			return nil, err
		}
		resp.QuestionResults = details
	}
	return resp, nil
}

type ExamReport struct {
	ExamID       uint                       `json:"examId"`
	ExamName     string                     `json:"examName"`
	TotalMarks   int                        `json:"totalMarks"`
	PassingMarks int                        `json:"passingMarks"`
	GeneratedAt  time.Time                  `json:"generatedAt"`
	Attempts     int                        `json:"attempts"`
	Passed       int                        `json:"passed"`
	AverageScore float64                    `json:"averageScore"`
	HighestScore int                        `json:"highestScore"`
	LowestScore  int                        `json:"lowestScore"`
	Results      []model.ExamResultResponse `json:"results"`
}

type ExportResponse struct {
	URL    string      `json:"url"`
	Key    string      `json:"key"`
	Report *ExamReport `json:"report"`
}

// Export 汇总考试成绩并写入对象存储
func (s *ExamResultService) Export(ctx context.Context, examID uint) (*ExportResponse, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFoundError("exam")
	}
	if err != nil {
		return nil, err
	}
	results, err := s.ByExam(examID)
	if err != nil {
		return nil, err
	}

	report := &ExamReport{
		ExamID:       exam.ID,
		ExamName:     exam.ExamName,
		TotalMarks:   exam.TotalMarks,
		PassingMarks: exam.PassingMarks,
		GeneratedAt:  time.Now(),
		Attempts:     len(results),
		Results:      results,
	}
	total := 0
	for i, r := range results {
		total += r.Score
		if r.Passed {
			report.Passed++
		}
		if i == 0 || r.Score > report.HighestScore {
			report.HighestScore = r.Score
		}
		if i == 0 || r.Score < report.LowestScore {
			report.LowestScore = r.Score
		}
	}
	if len(results) > 0 {
		report.AverageScore = float64(total) / float64(len(results))
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("reports/exam-%d-%s.json", exam.ID, report.GeneratedAt.Format("20060102150405"))
	url, err := s.Storage.Put(ctx, key, data, "application/json")
	if err != nil {
		return nil, err
	}
	return &ExportResponse{URL: url, Key: key, Report: report}, nil
}
