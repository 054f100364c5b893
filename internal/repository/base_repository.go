package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BaseRepository 通用的增删改查，具体仓储内嵌后再补充自己的查询
type BaseRepository[T any] struct {
	DB *gorm.DB
}

func (r *BaseRepository[T]) Create(entity *T) error {
	return r.DB.Omit(clause.Associations).Create(entity).Error
}

func (r *BaseRepository[T]) FindByID(id uint) (*T, error) {
	var entity T
	if err := r.DB.First(&entity, id).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *BaseRepository[T]) FindAll() ([]T, error) {
	var list []T
	err := r.DB.Order("id ASC").Find(&list).Error
	return list, err
}

func (r *BaseRepository[T]) Update(entity *T) error {
	return r.DB.Omit(clause.Associations).Save(entity).Error
}

func (r *BaseRepository[T]) Delete(id uint) error {
	var entity T
	result := r.DB.Delete(&entity, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *BaseRepository[T]) Exists(id uint) (bool, error) {
	var count int64
	var entity T
	err := r.DB.Model(&entity).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CountWhere 统计引用数量，删除前做关联检查
func CountWhere(db *gorm.DB, model interface{}, query string, args ...interface{}) (int64, error) {
	var count int64
	err := db.Model(model).Where(query, args...).Count(&count).Error
	return count, err
}
