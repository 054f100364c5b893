package service

import (
	"errors"
	"strings"
	"time"

	"matrix_exam_backend/internal/config"
	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/internal/repository"
	"matrix_exam_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Email     string         `json:"email" binding:"required,email"`
	Password  string         `json:"password" binding:"required,min=6"`
	FirstName string         `json:"firstName" binding:"required,notblank"`
	LastName  string         `json:"lastName"`
	Role      model.UserRole `json:"role" binding:"omitempty,oneof=STUDENT TEACHER"`
	Phone     string         `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string         `json:"token"`
	Type      string         `json:"type"`
	UserID    uint           `json:"userId"`
	Email     string         `json:"email"`
	Role      model.UserRole `json:"role"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

type AuthService struct {
	DB       *gorm.DB
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(db *gorm.DB, userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		DB:       db,
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// createAccount 在事务内创建用户以及对应的学生/教师档案
func createAccount(tx *gorm.DB, user *model.User, phone string, status model.StudentStatus) error {
	users := repository.NewUserRepository(tx)
	if _, err := users.FindByEmail(user.Email); err == nil {
		return util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := users.Create(user); err != nil {
		if repository.IsDuplicateKey(err) {
			return util.ErrEmailRegistered
		}
		return err
	}

	switch user.Role {
	case model.RoleStudent:
		if status == "" {
			status = model.StudentActive
		}
		return repository.NewStudentRepository(tx).Create(&model.Student{UserID: user.ID, Phone: phone, Status: status})
	case model.RoleTeacher:
		return repository.NewTeacherRepository(tx).Create(&model.Teacher{UserID: user.ID})
	}
	return nil
}

func (s *AuthService) Register(req *RegisterRequest) (*model.User, error) {
	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}
	if role == model.RoleAdmin {
		return nil, util.ErrPermissionDenied
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:     normalizeEmail(req.Email),
		Password:  hashed,
		Role:      role,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		return createAccount(tx, user, req.Phone, model.StudentActive)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	user, err := s.UserRepo.FindByEmail(normalizeEmail(req.Email))
	if err != nil {
		return nil, util.ErrInvalidLogin
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidLogin
	}
	if user.Disabled {
		return nil, util.NewForbiddenError("account is disabled")
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	_ = s.UserRepo.UpdateLastLogin(user.ID, now)

	return &LoginResponse{
		Token:     token,
		Type:      "Bearer",
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: now.Add(s.Cfg.JWT.ExpireTime),
	}, nil
}

func (s *AuthService) Me(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewNotFoundError("user")
	}
	return user, err
}

// EnsureAdmin 创建或重置管理员账号，供 migrate 命令使用
func (s *AuthService) EnsureAdmin(email, password string) (*model.User, error) {
	if len(password) < 6 {
		return nil, util.FieldError("password", "must be at least 6")
	}
	hashed, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	user, err := s.UserRepo.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &model.User{Email: email, Password: hashed, Role: model.RoleAdmin, FirstName: "Admin"}
		return user, s.UserRepo.Create(user)
	}
	if err != nil {
		return nil, err
	}
	user.Password = hashed
	user.Role = model.RoleAdmin
	user.Disabled = false
	return user, s.UserRepo.Update(user)
}
