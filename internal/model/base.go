package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 所有实体使用自增数字主键，软删除记录对查询不可见
type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

