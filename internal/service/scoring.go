package service

import (
	"fmt"
	"math"
	"strings"

	"matrix_exam_backend/internal/model"
)

// ScoreOutcome 评分结果，Verdicts 为每道已作答题目的判定（nil 表示待人工批阅）
type ScoreOutcome struct {
	Score          int
	TotalMarks     int
	Percentage     float64
	TotalQuestions int
	Correct        int
	Wrong          int
	Unanswered     int
	PendingReview  int
	Passed         bool
	Feedback       string
	Details        []model.QuestionResultDetail
	Verdicts       map[uint]*bool
}

// Score 根据试卷快照和学生答案计算成绩，不访问数据库
func Score(questions []model.MatrixQuestion, answers []model.StudentAnswer, passingMarks int) (*ScoreOutcome, error) {
	byQuestion := make(map[uint]model.StudentAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	out := &ScoreOutcome{
		TotalQuestions: len(questions),
		Details:        make([]model.QuestionResultDetail, 0, len(questions)),
		Verdicts:       make(map[uint]*bool),
	}

	for _, q := range questions {
		opts, err := q.OptionSnapshots()
		if err != nil {
			return nil, fmt.Errorf("decode options of question %d: %w", q.QuestionID, err)
		}
		out.TotalMarks += q.Marks

		detail := model.QuestionResultDetail{
			QuestionID:    q.QuestionID,
			QuestionOrder: q.QuestionOrder,
			QuestionText:  q.QuestionText,
			QuestionType:  q.QuestionTypeName,
			Marks:         q.Marks,
			CorrectAnswer: q.CorrectAnswer,
			AllOptions:    opts,
		}
		if detail.AllOptions == nil {
			detail.AllOptions = []model.OptionSnapshot{}
		}
		for _, o := range opts {
			if o.IsCorrect {
				id, text := o.OptionID, o.OptionText
				detail.CorrectOptionID = &id
				detail.CorrectOptionText = &text
				break
			}
		}

		answer, answered := byQuestion[q.QuestionID]
		if answered {
			detail.SelectedOptionID = answer.SelectedOptionID
			detail.TextAnswer = answer.TextAnswer
		}

		verdict, state := judge(q, opts, answer, answered)
		switch state {
		case stateUnanswered:
			out.Unanswered++
		case statePending:
			out.PendingReview++
			out.Verdicts[q.QuestionID] = nil
		case stateCorrect:
			out.Correct++
			out.Score += q.Marks
			detail.EarnedMarks = q.Marks
			out.Verdicts[q.QuestionID] = verdict
		case stateWrong:
			out.Wrong++
			out.Verdicts[q.QuestionID] = verdict
		}
		detail.IsCorrect = verdict

		if detail.SelectedOptionID != nil {
			for _, o := range opts {
				if o.OptionID == *detail.SelectedOptionID {
					text := o.OptionText
					detail.SelectedOptionText = &text
					break
				}
			}
		}

		out.Details = append(out.Details, detail)
	}

	if out.TotalMarks > 0 {
		out.Percentage = math.Round(float64(out.Score)*10000/float64(out.TotalMarks)) / 100
	}
	out.Passed = out.Score >= passingMarks
	out.Feedback = feedback(out)
	return out, nil
}

type answerState int

const (
	stateUnanswered answerState = iota
	stateCorrect
	stateWrong
	statePending
)

func judge(q model.MatrixQuestion, opts []model.OptionSnapshot, a model.StudentAnswer, answered bool) (*bool, answerState) {
	if !answered {
		return nil, stateUnanswered
	}

	if len(opts) > 0 {
		if a.SelectedOptionID == nil {
			if a.TextAnswer == nil || strings.TrimSpace(*a.TextAnswer) == "" {
				return nil, stateUnanswered
			}
			return boolPtr(false), stateWrong
		}
		for _, o := range opts {
			if o.OptionID == *a.SelectedOptionID {
				if o.IsCorrect {
					return boolPtr(true), stateCorrect
				}
				return boolPtr(false), stateWrong
			}
		}
		return boolPtr(false), stateWrong
	}

	if a.TextAnswer == nil || strings.TrimSpace(*a.TextAnswer) == "" {
		return nil, stateUnanswered
	}
	key := strings.TrimSpace(q.CorrectAnswer)
	if key == "" {
		return nil, statePending
	}
	if strings.EqualFold(strings.TrimSpace(*a.TextAnswer), key) {
		return boolPtr(true), stateCorrect
	}
	return boolPtr(false), stateWrong
}

func feedback(out *ScoreOutcome) string {
	var msg string
	switch {
	case out.Percentage >= 90:
		msg = "Excellent work!"
	case out.Passed:
		msg = "Good job, you passed the exam."
	default:
		msg = "You did not reach the passing mark. Review the lessons and try again."
	}
	if out.PendingReview > 0 {
		msg += fmt.Sprintf(" %d answer(s) are awaiting teacher review.", out.PendingReview)
	}
	return msg
}

func boolPtr(b bool) *bool {
	return &b
}
