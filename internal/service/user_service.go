package service

import (
	"errors"
	"time"

	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/internal/repository"
	"matrix_exam_backend/internal/util"

	"gorm.io/gorm"
)

type StudentResponse struct {
	StudentID uint                `json:"studentId"`
	UserID    uint                `json:"userId"`
	Email     string              `json:"email"`
	FirstName string              `json:"firstName"`
	LastName  string              `json:"lastName"`
	FullName  string              `json:"fullName"`
	Phone     string              `json:"phone"`
	Status    model.StudentStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

type CreateStudentRequest struct {
	Email     string              `json:"email" binding:"required,email"`
	Password  string              `json:"password" binding:"required,min=6"`
	FirstName string              `json:"firstName" binding:"required,notblank"`
	LastName  string              `json:"lastName"`
	Phone     string              `json:"phone"`
	Status    model.StudentStatus `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

type UpdateStudentRequest struct {
	FirstName *string              `json:"firstName" binding:"omitempty,min=1"`
	LastName  *string              `json:"lastName"`
	Phone     *string              `json:"phone"`
	Status    *model.StudentStatus `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	Password  *string              `json:"password" binding:"omitempty,min=6"`
}

type StudentService struct {
	DB          *gorm.DB
	StudentRepo *repository.StudentRepository
	UserRepo    *repository.UserRepository
}

func NewStudentService(db *gorm.DB, studentRepo *repository.StudentRepository, userRepo *repository.UserRepository) *StudentService {
	return &StudentService{DB: db, StudentRepo: studentRepo, UserRepo: userRepo}
}

func toStudentResponse(s *model.Student) StudentResponse {
	return StudentResponse{
		StudentID: s.ID,
		UserID:    s.UserID,
		Email:     s.User.Email,
		FirstName: s.User.FirstName,
		LastName:  s.User.LastName,
		FullName:  s.User.FullName(),
		Phone:     s.Phone,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (s *StudentService) List() ([]StudentResponse, error) {
	students, err := s.StudentRepo.FindAll()
	if err != nil {
		return nil, err
	}
	list := make([]StudentResponse, 0, len(students))
	for i := range students {
		list = append(list, toStudentResponse(&students[i]))
	}
	return list, nil
}

func (s *StudentService) find(id uint) (*model.Student, error) {
	student, err := s.StudentRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFoundError("student")
	}
	return student, err
}

func (s *StudentService) Get(id uint) (*StudentResponse, error) {
	student, err := s.find(id)
	if err != nil {
		return nil, err
	}
	resp := toStudentResponse(student)
	return &resp, nil
}

func (s *StudentService) Me(userID uint) (*StudentResponse, error) {
	student, err := s.StudentRepo.FindByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFoundError("student profile")
	}
	if err != nil {
		return nil, err
	}
	resp := toStudentResponse(student)
	return &resp, nil
}

func (s *StudentService) Create(req *CreateStudentRequest) (*StudentResponse, error) {
	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:     normalizeEmail(req.Email),
		Password:  hashed,
		Role:      model.RoleStudent,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		return createAccount(tx, user, req.Phone, req.Status)
	})
	if err != nil {
		return nil, err
	}
	return s.Me(user.ID)
}

func (s *StudentService) Update(id uint, req *UpdateStudentRequest) (*StudentResponse, error) {
	student, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return s.apply(student, req)
}

// UpdateMe 学生修改自己的资料，不允许修改状态
func (s *StudentService) UpdateMe(userID uint, req *UpdateStudentRequest) (*StudentResponse, error) {
	student, err := s.StudentRepo.FindByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFoundError("student profile")
	}
	if err != nil {
		return nil, err
	}
	req.Status = nil
	return s.apply(student, req)
}

func (s *StudentService) apply(student *model.Student, req *UpdateStudentRequest) (*StudentResponse, error) {
	user := &student.User
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Password != nil {
		hashed, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}
	if req.Status != nil {
		student.Status = *req.Status
		user.Disabled = *req.Status == model.StudentInactive
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).Update(user); err != nil {
			return err
		}
		return repository.NewStudentRepository(tx).Update(student)
	})
	if err != nil {
		return nil, err
	}
	resp := toStudentResponse(student)
	return &resp, nil
}

func (s *StudentService) Delete(id uint) error {
	student, err := s.find(id)
	if err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewStudentRepository(tx).Delete(student.ID); err != nil {
			return err
		}
		// 释放邮箱唯一索引
		return tx.Unscoped().Delete(&model.User{}, student.UserID).Error
	})
}

type TeacherResponse struct {
	TeacherID uint      `json:"teacherId"`
	UserID    uint      `json:"userId"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateTeacherRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"required,notblank"`
	LastName  string `json:"lastName"`
}

type UpdateTeacherRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1"`
	LastName  *string `json:"lastName"`
	Password  *string `json:"password" binding:"omitempty,min=6"`
}

type TeacherService struct {
	DB          *gorm.DB
	TeacherRepo *repository.TeacherRepository
}

func NewTeacherService(db *gorm.DB, teacherRepo *repository.TeacherRepository) *TeacherService {
	return &TeacherService{DB: db, TeacherRepo: teacherRepo}
}

func toTeacherResponse(t *model.Teacher) TeacherResponse {
	return TeacherResponse{
		TeacherID: t.ID,
		UserID:    t.UserID,
		Email:     t.User.Email,
		FirstName: t.User.FirstName,
		LastName:  t.User.LastName,
		FullName:  t.User.FullName(),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (s *TeacherService) List() ([]TeacherResponse, error) {
	teachers, err := s.TeacherRepo.FindAll()
	if err != nil {
		return nil, err
	}
	list := make([]TeacherResponse, 0, len(teachers))
	for i := range teachers {
		list = append(list, toTeacherResponse(&teachers[i]))
	}
	return list, nil
}

func (s *TeacherService) find(id uint) (*model.Teacher, error) {
	teacher, err := s.TeacherRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFoundError("teacher")
	}
	return teacher, err
}

func (s *TeacherService) Get(id uint) (*TeacherResponse, error) {
	teacher, err := s.find(id)
	if err != nil {
		return nil, err
	}
	resp := toTeacherResponse(teacher)
	return &resp, nil
}

func (s *TeacherService) Me(userID uint) (*TeacherResponse, error) {
	teacher, err := s.TeacherRepo.FindByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFoundError("teacher profile")
	}
	if err != nil {
		return nil, err
	}
	resp := toTeacherResponse(teacher)
	return &resp, nil
}

func (s *TeacherService) Create(req *CreateTeacherRequest) (*TeacherResponse, error) {
	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:     normalizeEmail(req.Email),
		Password:  hashed,
		Role:      model.RoleTeacher,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		return createAccount(tx, user, "", "")
	})
	if err != nil {
		return nil, err
	}
	return s.Me(user.ID)
}

func (s *TeacherService) Update(id uint, req *UpdateTeacherRequest) (*TeacherResponse, error) {
	teacher, err := s.find(id)
	if err != nil {
		return nil, err
	}
	user := &teacher.User
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Password != nil {
		hashed, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}
	if err := repository.NewUserRepository(s.DB).Update(user); err != nil {
		return nil, err
	}
	resp := toTeacherResponse(teacher)
	return &resp, nil
}

func (s *TeacherService) Delete(id uint) error {
	teacher, err := s.find(id)
	if err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewTeacherRepository(tx).Delete(teacher.ID); err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.User{}, teacher.UserID).Error
	})
}
