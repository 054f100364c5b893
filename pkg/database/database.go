package database

import (
	"fmt"
	"log"
	"time"

	"matrix_exam_backend/internal/config"
	"matrix_exam_backend/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	if err := Seed(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Open 按 driver 建立连接，不做迁移
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// sqlite 单写者，内存库每个连接是独立的库
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.DBName,
			cfg.SSLMode,
		)
		return postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		return sqlite.Open(path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Student{},
		&model.Teacher{},
		&model.Subject{},
		&model.Grade{},
		&model.Lesson{},
		&model.QuestionType{},
		&model.Level{},
		&model.Question{},
		&model.Option{},
		&model.Exam{},
		&model.Matrix{},
		&model.MatrixQuestion{},
		&model.ExamSession{},
		&model.StudentAnswer{},
		&model.ExamResult{},
		&model.AppSetting{},
	)
	if err != nil {
		return err
	}
	// 旧会话没有记录时长，按所属考试补齐
	return db.Exec(`UPDATE exam_sessions SET duration_minutes =
		(SELECT exams.duration_minutes FROM exams WHERE exams.id = exam_sessions.exam_id)
		WHERE duration_minutes = 0`).Error
}

// Seed 写入默认题型、难度和系统设置，已有数据时跳过
func Seed(db *gorm.DB) error {
	var count int64
	db.Model(&model.QuestionType{}).Count(&count)
	if count == 0 {
		defaultTypes := []model.QuestionType{
			{TypeName: "MULTIPLE_CHOICE", Description: "单选题"},
			{TypeName: "TRUE_FALSE", Description: "判断题"},
			{TypeName: "SHORT_ANSWER", Description: "简答题"},
			{TypeName: "ESSAY", Description: "论述题"},
		}
		if err := db.Create(&defaultTypes).Error; err != nil {
			return err
		}
	}

	db.Model(&model.Level{}).Count(&count)
	if count == 0 {
		defaultLevels := []model.Level{
			{LevelName: "Easy", DifficultyScore: 2, Description: "基础题"},
			{LevelName: "Medium", DifficultyScore: 5, Description: "中等难度"},
			{LevelName: "Hard", DifficultyScore: 8, Description: "较难"},
		}
		if err := db.Create(&defaultLevels).Error; err != nil {
			return err
		}
	}

	db.Model(&model.AppSetting{}).Count(&count)
	if count == 0 {
		defaultSettings := []model.AppSetting{
			{SettingKey: "system.name", SettingValue: "Matrix Exam System", Description: "系统名称"},
			{SettingKey: "exam.allow_review", SettingValue: "true", Description: "提交后允许查看答案解析"},
		}
		if err := db.Create(&defaultSettings).Error; err != nil {
			return err
		}
	}

	return nil
}
