package service

import (
	"encoding/json"
	"strings"
	"testing"

	"matrix_exam_backend/internal/model"

	"gorm.io/datatypes"
)

func choiceSnapshot(t *testing.T, questionID uint, marks int, correct uint, optionIDs ...uint) model.MatrixQuestion {
	t.Helper()
	opts := make([]model.OptionSnapshot, 0, len(optionIDs))
	for i, id := range optionIDs {
		opts = append(opts, model.OptionSnapshot{
			OptionID:    id,
			OptionText:  "option",
			IsCorrect:   id == correct,
			OptionOrder: i + 1,
		})
	}
	raw, err := json.Marshal(opts)
	if err != nil {
		t.Fatal(err)
	}
	return model.MatrixQuestion{
		QuestionID:    questionID,
		QuestionOrder: int(questionID),
		Marks:         marks,
		QuestionText:  "question",
		Options:       datatypes.JSON(raw),
	}
}

func textSnapshot(questionID uint, marks int, answer string) model.MatrixQuestion {
	return model.MatrixQuestion{
		QuestionID:    questionID,
		QuestionOrder: int(questionID),
		Marks:         marks,
		QuestionText:  "question",
		CorrectAnswer: answer,
	}
}

func TestScoreOneOfThree(t *testing.T) {
	questions := []model.MatrixQuestion{
		choiceSnapshot(t, 1, 10, 11, 11, 12),
		choiceSnapshot(t, 2, 10, 21, 21, 22),
		choiceSnapshot(t, 3, 10, 31, 31, 32),
	}
	answers := []model.StudentAnswer{
		{QuestionID: 1, SelectedOptionID: uintPtr(11)},
		{QuestionID: 2, SelectedOptionID: uintPtr(22)},
	}

	out, err := Score(questions, answers, 15)
	if err != nil {
		t.Fatal(err)
	}
	if out.Score != 10 || out.TotalMarks != 30 {
		t.Fatalf("score = %d/%d, want 10/30", out.Score, out.TotalMarks)
	}
	if out.Percentage != 33.33 {
		t.Errorf("percentage = %v, want 33.33", out.Percentage)
	}
	if out.Correct != 1 || out.Wrong != 1 || out.Unanswered != 1 {
		t.Errorf("correct/wrong/unanswered = %d/%d/%d", out.Correct, out.Wrong, out.Unanswered)
	}
	if out.Passed {
		t.Error("10 marks should not pass with passing mark 15")
	}
	if got := out.Details[0].EarnedMarks; got != 10 {
		t.Errorf("earned marks of first question = %d", got)
	}
	if out.Details[1].CorrectOptionID == nil || *out.Details[1].CorrectOptionID != 21 {
		t.Error("details should reveal the correct option")
	}
	if out.Verdicts[3] != nil {
		t.Error("unanswered question must not have a verdict")
	}
}

func TestScorePassBoundary(t *testing.T) {
	questions := []model.MatrixQuestion{
		choiceSnapshot(t, 1, 5, 11, 11, 12),
		choiceSnapshot(t, 2, 5, 21, 21, 22),
	}
	answers := []model.StudentAnswer{{QuestionID: 1, SelectedOptionID: uintPtr(11)}}

	tests := []struct {
		name    string
		passing int
		want    bool
	}{
		{"equal to passing mark", 5, true},
		{"one below passing mark", 6, false},
		{"zero passing mark", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Score(questions, answers, tt.passing)
			if err != nil {
				t.Fatal(err)
			}
			if out.Passed != tt.want {
				t.Errorf("passed = %v, want %v", out.Passed, tt.want)
			}
		})
	}
}

func TestScoreTextAnswers(t *testing.T) {
	questions := []model.MatrixQuestion{
		textSnapshot(1, 2, "Photosynthesis"),
		textSnapshot(2, 2, "42"),
		textSnapshot(3, 4, ""),
		textSnapshot(4, 1, "x"),
	}
	answers := []model.StudentAnswer{
		{QuestionID: 1, TextAnswer: strPtr("  photosynthesis ")},
		{QuestionID: 2, TextAnswer: strPtr("41")},
		{QuestionID: 3, TextAnswer: strPtr("a long essay")},
		{QuestionID: 4, TextAnswer: strPtr("   ")},
	}

	out, err := Score(questions, answers, 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.Correct != 1 || out.Wrong != 1 || out.PendingReview != 1 || out.Unanswered != 1 {
		t.Fatalf("correct/wrong/pending/unanswered = %d/%d/%d/%d",
			out.Correct, out.Wrong, out.PendingReview, out.Unanswered)
	}
	if out.Score != 2 {
		t.Errorf("score = %d, want 2", out.Score)
	}
	if v, ok := out.Verdicts[3]; !ok || v != nil {
		t.Error("pending question should be recorded with a nil verdict")
	}
	if !strings.Contains(out.Feedback, "awaiting teacher review") {
		t.Errorf("feedback = %q", out.Feedback)
	}
}

func TestScoreCountsAddUp(t *testing.T) {
	questions := []model.MatrixQuestion{
		choiceSnapshot(t, 1, 1, 11, 11, 12),
		choiceSnapshot(t, 2, 1, 21, 21, 22),
		textSnapshot(3, 1, ""),
		textSnapshot(4, 1, "yes"),
		choiceSnapshot(t, 5, 1, 51, 51, 52),
	}
	answers := []model.StudentAnswer{
		{QuestionID: 1, SelectedOptionID: uintPtr(11)},
		{QuestionID: 2, SelectedOptionID: uintPtr(99)},
		{QuestionID: 3, TextAnswer: strPtr("maybe")},
		{QuestionID: 4, TextAnswer: strPtr("YES")},
		{QuestionID: 42, SelectedOptionID: uintPtr(1)},
	}

	out, err := Score(questions, answers, 3)
	if err != nil {
		t.Fatal(err)
	}
	if sum := out.Correct + out.Wrong + out.Unanswered + out.PendingReview; sum != out.TotalQuestions {
		t.Fatalf("counts add up to %d, want %d", sum, out.TotalQuestions)
	}
	if len(out.Details) != len(questions) {
		t.Errorf("details = %d, want %d", len(out.Details), len(questions))
	}
	if out.Score != 2 || out.Passed {
		t.Errorf("score = %d passed = %v", out.Score, out.Passed)
	}
}

func TestScoreEmptyMatrix(t *testing.T) {
	out, err := Score(nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.Percentage != 0 || out.TotalQuestions != 0 {
		t.Errorf("unexpected outcome %+v", out)
	}
}
