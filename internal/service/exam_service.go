package service

import (
	"errors"
	"time"

	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/internal/repository"
	"matrix_exam_backend/internal/util"

	"gorm.io/gorm"
)

type ExamRequest struct {
	ExamName        *string           `json:"examName" binding:"omitempty,min=1,max=255"`
	Description     *string           `json:"description"`
	DurationMinutes *int              `json:"durationMinutes" binding:"omitempty,min=1"`
	TotalMarks      *int              `json:"totalMarks" binding:"omitempty,min=0"`
	PassingMarks    *int              `json:"passingMarks" binding:"omitempty,min=0"`
	ExamDate        *time.Time        `json:"examDate"`
	Status          *model.ExamStatus `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
}

// ExamResponse 考试信息，MatrixID 为空表示尚未组卷
type ExamResponse struct {
	model.Exam
	MatrixID *uint `json:"matrixId"`
}

type ExamService struct {
	DB          *gorm.DB
	ExamRepo    *repository.ExamRepository
	MatrixRepo  *repository.MatrixRepository
	SessionRepo *repository.ExamSessionRepository
}

func NewExamService(db *gorm.DB, examRepo *repository.ExamRepository, matrixRepo *repository.MatrixRepository, sessionRepo *repository.ExamSessionRepository) *ExamService {
	return &ExamService{DB: db, ExamRepo: examRepo, MatrixRepo: matrixRepo, SessionRepo: sessionRepo}
}

func (s *ExamService) toResponses(exams []model.Exam) ([]ExamResponse, error) {
	matrices, err := s.MatrixRepo.FindAll()
	if err != nil {
		return nil, err
	}
	byExam := make(map[uint]uint, len(matrices))
	for _, m := range matrices {
		byExam[m.ExamID] = m.ID
	}

	list := make([]ExamResponse, 0, len(exams))
	for _, e := range exams {
		resp := ExamResponse{Exam: e}
		if id, ok := byExam[e.ID]; ok {
			matrixID := id
			resp.MatrixID = &matrixID
		}
		list = append(list, resp)
	}
	return list, nil
}

// List 学生只能看到已发布的考试
func (s *ExamService) List(actor *util.Claims) ([]ExamResponse, error) {
	var (
		exams []model.Exam
		err   error
	)
	if actor != nil && actor.IsStaff() {
		exams, err = s.ExamRepo.FindAll()
	} else {
		exams, err = s.ExamRepo.FindByStatus(model.ExamPublished)
	}
	if err != nil {
		return nil, err
	}
	return s.toResponses(exams)
}

func (s *ExamService) Search(actor *util.Claims, name string) ([]ExamResponse, error) {
	exams, err := s.ExamRepo.Search(name)
	if err != nil {
		return nil, err
	}
	if actor == nil || !actor.IsStaff() {
		visible := exams[:0]
		for _, e := range exams {
			if e.Status == model.ExamPublished {
				visible = append(visible, e)
			}
		}
		exams = visible
	}
	return s.toResponses(exams)
}

func (s *ExamService) Get(actor *util.Claims, id uint) (*ExamResponse, error) {
	exam, err := s.ExamRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "exam")
	}
	if (actor == nil || !actor.IsStaff()) && exam.Status != model.ExamPublished {
		return nil, util.NewNotFoundError("exam")
	}
	list, err := s.toResponses([]model.Exam{*exam})
	if err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *ExamService) Create(actor *util.Claims, req *ExamRequest) (*ExamResponse, error) {
	if req.ExamName == nil {
		return nil, util.FieldError("examName", "is required")
	}
	exam := &model.Exam{
		ExamName:        *req.ExamName,
		DurationMinutes: util.DefaultDurationMinutes,
		ExamDate:        time.Now(),
		Status:          model.ExamDraft,
		CreatorID:       actor.UserID,
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.DurationMinutes != nil {
		exam.DurationMinutes = *req.DurationMinutes
	}
	if req.TotalMarks != nil {
		exam.TotalMarks = *req.TotalMarks
	}
	if req.PassingMarks != nil {
		exam.PassingMarks = *req.PassingMarks
	}
	if req.ExamDate != nil {
		exam.ExamDate = *req.ExamDate
	}
	if req.Status != nil {
		exam.Status = *req.Status
	}
	if exam.PassingMarks > exam.TotalMarks {
		return nil, util.FieldError("passingMarks", "must not exceed total marks")
	}
	if err := s.ExamRepo.Create(exam); err != nil {
		return nil, err
	}
	return &ExamResponse{Exam: *exam}, nil
}

// Update 状态只能 DRAFT→PUBLISHED→ARCHIVED；已组卷的考试总分由试卷决定
func (s *ExamService) Update(id uint, req *ExamRequest) (*ExamResponse, error) {
	exam, err := s.ExamRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "exam")
	}
	matrix, err := s.MatrixRepo.FindByExam(id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if req.Status != nil && *req.Status != exam.Status {
		if req.Status.Rank() < exam.Status.Rank() {
			return nil, util.FieldError("status", "exam status can only move forward")
		}
		exam.Status = *req.Status
	}
	if req.TotalMarks != nil && *req.TotalMarks != exam.TotalMarks {
		if matrix != nil {
			return nil, util.FieldError("totalMarks", "total marks are fixed by the generated matrix")
		}
		exam.TotalMarks = *req.TotalMarks
	}
	if req.ExamName != nil {
		exam.ExamName = *req.ExamName
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.DurationMinutes != nil {
		exam.DurationMinutes = *req.DurationMinutes
	}
	if req.PassingMarks != nil {
		exam.PassingMarks = *req.PassingMarks
	}
	if req.ExamDate != nil {
		exam.ExamDate = *req.ExamDate
	}
	if exam.PassingMarks > exam.TotalMarks {
		return nil, util.FieldError("passingMarks", "must not exceed total marks")
	}

	if err := s.ExamRepo.Update(exam); err != nil {
		return nil, err
	}
	resp := &ExamResponse{Exam: *exam}
	if matrix != nil {
		resp.MatrixID = &matrix.ID
	}
	return resp, nil
}

// Delete 连同试卷一起删除；已有考试记录时拒绝
func (s *ExamService) Delete(id uint) error {
	if ok, err := s.ExamRepo.Exists(id); err != nil {
		return err
	} else if !ok {
		return util.NewNotFoundError("exam")
	}
	count, err := s.SessionRepo.CountByExam(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return util.NewConflictError("exam has sessions and cannot be deleted")
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		matrixRepo := s.MatrixRepo.WithTx(tx)
		matrix, err := matrixRepo.FindByExam(id)
		switch {
		case err == nil:
			if err := matrixRepo.HardDelete(matrix.ID); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return s.ExamRepo.WithTx(tx).Delete(id)
	})
}
