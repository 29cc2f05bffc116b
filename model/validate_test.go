package model

import (
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldMessages(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)

	fields := map[string]string{}
	merr, ok := err.(*multierror.Error)
	if !ok {
		fieldErr, ok := err.(FieldError)
		require.True(t, ok, "expected FieldError, got %T", err)
		fields[fieldErr.Field] = fieldErr.Message
		return fields
	}
	for _, e := range merr.Errors {
		fieldErr, ok := e.(FieldError)
		require.True(t, ok, "expected FieldError, got %T", e)
		fields[fieldErr.Field] = fieldErr.Message
	}
	return fields
}

func TestSurveyValidate(t *testing.T) {
	valid := Survey{
		Title:       "Customer feedback",
		Description: "How did we do?",
		DateEnd:     time.Now().Add(24 * time.Hour),
	}
	assert.NoError(t, valid.Validate())

	t.Run("missing title", func(t *testing.T) {
		s := valid
		s.Title = "  "
		fields := fieldMessages(t, s.Validate())
		assert.Contains(t, fields, "title")
	})

	t.Run("missing description", func(t *testing.T) {
		s := valid
		s.Description = ""
		fields := fieldMessages(t, s.Validate())
		assert.Contains(t, fields, "description")
	})

	t.Run("missing date_end", func(t *testing.T) {
		s := valid
		s.DateEnd = time.Time{}
		fields := fieldMessages(t, s.Validate())
		assert.Contains(t, fields, "date_end")
	})

	t.Run("all fields missing reported together", func(t *testing.T) {
		fields := fieldMessages(t, Survey{}.Validate())
		assert.Len(t, fields, 3)
	})
}

func TestSurveyActive(t *testing.T) {
	now := time.Now()
	s := Survey{DateStart: now.Add(-time.Hour), DateEnd: now.Add(time.Hour)}

	assert.True(t, s.Active(now))
	assert.True(t, s.Active(s.DateStart), "window is inclusive at start")
	assert.True(t, s.Active(s.DateEnd), "window is inclusive at end")
	assert.False(t, s.Active(now.Add(-2*time.Hour)))
	assert.False(t, s.Active(now.Add(2*time.Hour)))
}

func TestQuestionValidate(t *testing.T) {
	valid := Question{SurveyID: 1, Text: "Did you like it?", Type: TypeOneOption}
	assert.NoError(t, valid.Validate(true))

	t.Run("unknown type", func(t *testing.T) {
		q := valid
		q.Type = "multiple_choice"
		fields := fieldMessages(t, q.Validate(true))
		assert.Contains(t, fields, "question_type")
	})

	t.Run("missing survey", func(t *testing.T) {
		fields := fieldMessages(t, valid.Validate(false))
		assert.Equal(t, "survey does not exist", fields["survey_id"])
	})

	t.Run("empty text", func(t *testing.T) {
		q := valid
		q.Text = ""
		fields := fieldMessages(t, q.Validate(true))
		assert.Contains(t, fields, "question_text")
	})
}

func TestChoiceValidate(t *testing.T) {
	valid := Choice{QuestionID: 1, Text: "yes"}
	assert.NoError(t, valid.Validate(true))

	fields := fieldMessages(t, Choice{}.Validate(false))
	assert.Equal(t, "question does not exist", fields["question_id"])
	assert.Contains(t, fields, "choice_text")
}

func TestAnswerValidate(t *testing.T) {
	now := time.Now()
	openWindow := AnswerSnapshot{
		QuestionExists: true,
		QuestionType:   TypeOneOption,
		SurveyStart:    now.Add(-time.Hour),
		SurveyEnd:      now.Add(time.Hour),
	}
	answer := Answer{QuestionID: 1}

	assert.NoError(t, answer.Validate(openWindow, now))

	t.Run("question does not exist", func(t *testing.T) {
		fields := fieldMessages(t, answer.Validate(AnswerSnapshot{}, now))
		assert.Equal(t, "question does not exist", fields["question_id"])
	})

	t.Run("survey not started", func(t *testing.T) {
		snap := openWindow
		snap.SurveyStart = now.Add(time.Minute)
		fields := fieldMessages(t, answer.Validate(snap, now))
		assert.Equal(t, "survey is closed", fields["question_id"])
	})

	t.Run("survey ended", func(t *testing.T) {
		snap := openWindow
		snap.SurveyEnd = now.Add(-time.Minute)
		fields := fieldMessages(t, answer.Validate(snap, now))
		assert.Equal(t, "survey is closed", fields["question_id"])
	})

	t.Run("unknown choice", func(t *testing.T) {
		snap := openWindow
		snap.ChoiceMissing = true
		fields := fieldMessages(t, answer.Validate(snap, now))
		assert.Equal(t, "choice does not exist", fields["choice_id"])
	})

	t.Run("duplicate", func(t *testing.T) {
		snap := openWindow
		snap.AlreadyAnswered = true
		fields := fieldMessages(t, answer.Validate(snap, now))
		assert.Equal(t, "you have already answered this question", fields["question_id"])
	})

	t.Run("closed survey wins over duplicate", func(t *testing.T) {
		snap := openWindow
		snap.SurveyEnd = now.Add(-time.Minute)
		snap.AlreadyAnswered = true
		fields := fieldMessages(t, answer.Validate(snap, now))
		assert.Equal(t, "survey is closed", fields["question_id"])
	})
}

func TestAnswerValue(t *testing.T) {
	assert.Equal(t, "free text", Answer{Text: "free text", Choice: "yes"}.Value())
	assert.Equal(t, "yes", Answer{Choice: "yes"}.Value())
	assert.Equal(t, "", Answer{}.Value())
}
