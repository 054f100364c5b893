package model

import (
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleTeacher UserRole = "TEACHER"
	RoleAdmin   UserRole = "ADMIN"
)

// swagger:model User
type User struct {
	BaseModel
	Email     string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	Role      UserRole   `gorm:"size:20;default:'STUDENT'" json:"role"`
	FirstName string     `gorm:"size:100" json:"firstName"`
	LastName  string     `gorm:"size:100" json:"lastName"`
	Disabled  bool       `gorm:"default:false" json:"disabled"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// FullName 拼接姓名，用于成绩单等展示
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type StudentStatus string

const (
	StudentActive   StudentStatus = "ACTIVE"
	StudentInactive StudentStatus = "INACTIVE"
)

// swagger:model Student
type Student struct {
	BaseModel
	UserID uint          `gorm:"uniqueIndex;not null" json:"userId"`
	User   User          `gorm:"foreignKey:UserID" json:"-"`
	Phone  string        `gorm:"size:30" json:"phone"`
	Status StudentStatus `gorm:"size:20;default:'ACTIVE'" json:"status"`
}

func (Student) TableName() string {
	return "students"
}

// swagger:model Teacher
type Teacher struct {
	BaseModel
	UserID uint `gorm:"uniqueIndex;not null" json:"userId"`
	User   User `gorm:"foreignKey:UserID" json:"-"`
}

func (Teacher) TableName() string {
	return "teachers"
}
