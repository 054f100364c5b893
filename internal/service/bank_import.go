package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/internal/util"
	"matrix_exam_backend/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuestionBank 题库 YAML 文件结构
type QuestionBank struct {
	QuestionTypes []BankQuestionType `yaml:"questionTypes"`
	Levels        []BankLevel        `yaml:"levels"`
	Subjects      []BankSubject      `yaml:"subjects"`
}

type BankQuestionType struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type BankLevel struct {
	Name            string `yaml:"name"`
	DifficultyScore int    `yaml:"difficultyScore"`
	Description     string `yaml:"description"`
}

type BankSubject struct {
	Code   string      `yaml:"code"`
	Name   string      `yaml:"name"`
	Grades []BankGrade `yaml:"grades"`
}

type BankGrade struct {
	Level       string       `yaml:"level"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Lessons     []BankLesson `yaml:"lessons"`
}

type BankLesson struct {
	Title      string         `yaml:"title"`
	Content    string         `yaml:"content"`
	Order      int            `yaml:"order"`
	Objectives string         `yaml:"objectives"`
	Questions  []BankQuestion `yaml:"questions"`
}

type BankQuestion struct {
	Text          string       `yaml:"text"`
	Type          string       `yaml:"type"`
	Level         string       `yaml:"level"`
	Marks         int          `yaml:"marks"`
	CorrectAnswer string       `yaml:"correctAnswer"`
	Explanation   string       `yaml:"explanation"`
	Options       []BankOption `yaml:"options"`
}

type BankOption struct {
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

type ImportSummary struct {
	Subjects      int `json:"subjects"`
	Grades        int `json:"grades"`
	Lessons       int `json:"lessons"`
	QuestionTypes int `json:"questionTypes"`
	Levels        int `json:"levels"`
	Questions     int `json:"questions"`
	Skipped       int `json:"skipped"`
}

// BankImporter 按自然键幂等导入题库：已存在的条目复用，同一课时下题干相同的题目跳过
type BankImporter struct {
	DB *gorm.DB
}

func NewBankImporter(db *gorm.DB) *BankImporter {
	return &BankImporter{DB: db}
}

func ParseQuestionBank(r io.Reader) (*QuestionBank, error) {
	var bank QuestionBank
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&bank); err != nil {
		return nil, util.NewValidationError(fmt.Sprintf("invalid question bank: %v", err), nil)
	}
	if err := bank.validate(); err != nil {
		return nil, err
	}
	return &bank, nil
}

func (b *QuestionBank) validate() error {
	fields := map[string]string{}
	for i, s := range b.Subjects {
		if strings.TrimSpace(s.Code) == "" {
			fields[fmt.Sprintf("subjects[%d].code", i)] = "is required"
		}
		for j, g := range s.Grades {
			for k, l := range g.Lessons {
				for q, question := range l.Questions {
					path := fmt.Sprintf("subjects[%d].grades[%d].lessons[%d].questions[%d]", i, j, k, q)
					if strings.TrimSpace(question.Text) == "" {
						fields[path+".text"] = "is required"
					}
					correct := 0
					for _, o := range question.Options {
						if o.Correct {
							correct++
						}
					}
					if correct > 1 {
						fields[path+".options"] = "at most one option can be correct"
					}
				}
			}
		}
	}
	if len(fields) > 0 {
		return util.NewValidationError("invalid question bank", fields)
	}
	return nil
}

func (i *BankImporter) Import(ctx context.Context, bank *QuestionBank) (*ImportSummary, error) {
	summary := &ImportSummary{}
	err := i.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		types := map[string]uint{}
		for _, t := range bank.QuestionTypes {
			row := model.QuestionType{TypeName: t.Name, Description: t.Description}
			created, err := firstOrCreate(tx, &row, "type_name = ?", t.Name)
			if err != nil {
				return err
			}
			if created {
				summary.QuestionTypes++
			}
			types[t.Name] = row.ID
		}

		levels := map[string]uint{}
		for _, l := range bank.Levels {
			score := l.DifficultyScore
			if score <= 0 {
				score = 1
			}
			row := model.Level{LevelName: l.Name, DifficultyScore: score, Description: l.Description}
			created, err := firstOrCreate(tx, &row, "level_name = ?", l.Name)
			if err != nil {
				return err
			}
			if created {
				summary.Levels++
			}
			levels[l.Name] = row.ID
		}

		for _, s := range bank.Subjects {
			subject := model.Subject{SubjectCode: s.Code, SubjectName: s.Name}
			created, err := firstOrCreate(tx, &subject, "subject_code = ?", s.Code)
			if err != nil {
				return err
			}
			if created {
				summary.Subjects++
			}

			for _, g := range s.Grades {
				grade := model.Grade{GradeLevel: g.Level, GradeName: g.Name, Description: g.Description, SubjectID: subject.ID}
				created, err := firstOrCreate(tx, &grade, "subject_id = ? AND grade_name = ?", subject.ID, g.Name)
				if err != nil {
					return err
				}
				if created {
					summary.Grades++
				}

				for _, l := range g.Lessons {
					lesson := model.Lesson{
						LessonTitle:        l.Title,
						LessonContent:      l.Content,
						LessonOrder:        l.Order,
						LearningObjectives: l.Objectives,
						GradeID:            grade.ID,
					}
					created, err := firstOrCreate(tx, &lesson, "grade_id = ? AND lesson_title = ?", grade.ID, l.Title)
					if err != nil {
						return err
					}
					if created {
						summary.Lessons++
					}

					for _, q := range l.Questions {
						added, err := importQuestion(tx, lesson.ID, q, types, levels)
						if err != nil {
							return err
						}
						if added {
							summary.Questions++
						} else {
							summary.Skipped++
						}
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Question bank imported",
		zap.Int("subjects", summary.Subjects),
		zap.Int("lessons", summary.Lessons),
		zap.Int("questions", summary.Questions),
		zap.Int("skipped", summary.Skipped))
	return summary, nil
}

func importQuestion(tx *gorm.DB, lessonID uint, q BankQuestion, types, levels map[string]uint) (bool, error) {
	typeID, err := lookupName(tx, types, &model.QuestionType{}, "type_name", q.Type)
	if err != nil {
		return false, err
	}
	levelID, err := lookupName(tx, levels, &model.Level{}, "level_name", q.Level)
	if err != nil {
		return false, err
	}

	var count int64
	if err := tx.Model(&model.Question{}).
		Where("lesson_id = ? AND question_text = ?", lessonID, q.Text).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	marks := q.Marks
	if marks <= 0 {
		marks = 1
	}
	question := model.Question{
		QuestionText:   q.Text,
		CorrectAnswer:  q.CorrectAnswer,
		Marks:          marks,
		Explanation:    q.Explanation,
		LessonID:       lessonID,
		QuestionTypeID: typeID,
		LevelID:        levelID,
	}
	if err := tx.Omit(clause.Associations).Create(&question).Error; err != nil {
		return false, err
	}
	for idx, o := range q.Options {
		option := model.Option{
			OptionText:  o.Text,
			IsCorrect:   o.Correct,
			OptionOrder: idx + 1,
			QuestionID:  question.ID,
		}
		if err := tx.Omit(clause.Associations).Create(&option).Error; err != nil {
			return false, err
		}
	}
	return true, nil
}

// firstOrCreate 按条件查找，不存在时创建，返回是否新建
func firstOrCreate[T any](tx *gorm.DB, row *T, query string, args ...interface{}) (bool, error) {
	var existing T
	err := tx.Where(query, args...).First(&existing).Error
	if err == nil {
		*row = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
		return false, err
	}
	return true, nil
}

// lookupName 先查本次导入的条目，再查库里已有的
func lookupName(tx *gorm.DB, known map[string]uint, table interface{}, column, name string) (uint, error) {
	if id, ok := known[name]; ok {
		return id, nil
	}
	var ids []uint
	if err := tx.Model(table).Where(column+" = ?", name).Limit(1).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, util.NewValidationError(fmt.Sprintf("unknown %s %q", column, name), map[string]string{column: "not found"})
	}
	known[name] = ids[0]
	return ids[0], nil
}
