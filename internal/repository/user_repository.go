package repository

import (
	"time"

	"matrix_exam_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	BaseRepository[model.User]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{BaseRepository[model.User]{DB: db}}
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateLastLogin(userID uint, at time.Time) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).Update("last_login", at).Error
}

type StudentRepository struct {
	BaseRepository[model.Student]
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{BaseRepository[model.Student]{DB: db}}
}

func (r *StudentRepository) FindByID(id uint) (*model.Student, error) {
	var s model.Student
	if err := r.DB.Preload("User").First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudentRepository) FindByUserID(userID uint) (*model.Student, error) {
	var s model.Student
	if err := r.DB.Preload("User").Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudentRepository) FindAll() ([]model.Student, error) {
	var list []model.Student
	err := r.DB.Preload("User").Order("id ASC").Find(&list).Error
	return list, err
}

type TeacherRepository struct {
	BaseRepository[model.Teacher]
}

func NewTeacherRepository(db *gorm.DB) *TeacherRepository {
	return &TeacherRepository{BaseRepository[model.Teacher]{DB: db}}
}

func (r *TeacherRepository) FindByID(id uint) (*model.Teacher, error) {
	var t model.Teacher
	if err := r.DB.Preload("User").First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TeacherRepository) FindByUserID(userID uint) (*model.Teacher, error) {
	var t model.Teacher
	if err := r.DB.Preload("User").Where("user_id = ?", userID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TeacherRepository) FindAll() ([]model.Teacher, error) {
	var list []model.Teacher
	err := r.DB.Preload("User").Order("id ASC").Find(&list).Error
	return list, err
}
