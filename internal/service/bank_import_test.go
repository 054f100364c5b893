package service

import (
	"context"
	"strings"
	"testing"

	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/internal/util"
)

const sampleBank = `
questionTypes:
  - name: TRUE_FALSE
  - name: MATCHING
    description: 连线题
levels:
  - name: Medium
    difficultyScore: 5
  - name: Expert
    difficultyScore: 10
subjects:
  - code: SCI
    name: Science
    grades:
      - level: "8"
        name: Grade 8
        lessons:
          - title: Plants
            order: 1
            questions:
              - text: Plants need sunlight to make food.
                type: TRUE_FALSE
                level: Medium
                options:
                  - text: "True"
                    correct: true
                  - text: "False"
              - text: Name the green pigment in leaves.
                type: SHORT_ANSWER
                level: Expert
                marks: 3
                correctAnswer: chlorophyll
          - title: Cells
            order: 2
            questions:
              - text: Describe the role of the cell membrane.
                type: ESSAY
                level: Hard
                marks: 5
`

func TestParseAndImportBank(t *testing.T) {
	db := newTestDB(t)
	bank, err := ParseQuestionBank(strings.NewReader(sampleBank))
	if err != nil {
		t.Fatal(err)
	}

	importer := NewBankImporter(db)
	summary, err := importer.Import(context.Background(), bank)
	if err != nil {
		t.Fatal(err)
	}
	want := ImportSummary{Subjects: 1, Grades: 1, Lessons: 2, QuestionTypes: 1, Levels: 1, Questions: 3}
	if *summary != want {
		t.Fatalf("summary = %+v, want %+v", *summary, want)
	}

	var q model.Question
	if err := db.Preload("Options").Where("question_text LIKE ?", "Plants need%").First(&q).Error; err != nil {
		t.Fatal(err)
	}
	if q.Marks != 1 {
		t.Errorf("default marks = %d", q.Marks)
	}
	if len(q.Options) != 2 || !q.Options[0].IsCorrect || q.Options[1].IsCorrect {
		t.Errorf("options = %+v", q.Options)
	}

	again, err := importer.Import(context.Background(), bank)
	if err != nil {
		t.Fatal(err)
	}
	if again.Questions != 0 || again.Skipped != 3 || again.Subjects != 0 || again.Lessons != 0 {
		t.Errorf("re-import = %+v", *again)
	}

	var questions int64
	db.Model(&model.Question{}).Count(&questions)
	if questions != 3 {
		t.Errorf("questions = %d after re-import", questions)
	}
}

func TestParseQuestionBankRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{
			name:  "unknown field",
			input: "subjects:\n  - code: X\n    colour: red\n",
		},
		{
			name:  "missing code",
			input: "subjects:\n  - name: Nameless\n",
			field: "subjects[0].code",
		},
		{
			name: "two correct options",
			input: `
subjects:
  - code: X
    grades:
      - name: G
        lessons:
          - title: L
            questions:
              - text: Pick one
                options:
                  - text: a
                    correct: true
                  - text: b
                    correct: true
`,
			field: "subjects[0].grades[0].lessons[0].questions[0].options",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuestionBank(strings.NewReader(tt.input))
			wantReason(t, err, util.ReasonValidation)
			if tt.field == "" {
				return
			}
			appErr, _ := util.AsAppError(err)
			if _, ok := appErr.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want %s", appErr.Fields, tt.field)
			}
		})
	}
}

func TestImportUnknownTypeRollsBack(t *testing.T) {
	db := newTestDB(t)
	bank, err := ParseQuestionBank(strings.NewReader(`
subjects:
  - code: GEO
    grades:
      - name: Grade 9
        lessons:
          - title: Rivers
            questions:
              - text: Longest river?
                type: DRAWING
                level: Easy
`))
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewBankImporter(db).Import(context.Background(), bank)
	wantReason(t, err, util.ReasonValidation)

	var subjects int64
	db.Model(&model.Subject{}).Where("subject_code = ?", "GEO").Count(&subjects)
	if subjects != 0 {
		t.Error("failed import should leave nothing behind")
	}
}
