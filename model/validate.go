package model

import (
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// FieldError is a validation failure tied to a single payload field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks the writable survey fields. The start date is server
// assigned and never part of the payload contract.
func (s Survey) Validate() error {
	var errs *multierror.Error
	if strings.TrimSpace(s.Title) == "" {
		errs = multierror.Append(errs, FieldError{"title", "must not be empty"})
	}
	if strings.TrimSpace(s.Description) == "" {
		errs = multierror.Append(errs, FieldError{"description", "must not be empty"})
	}
	if s.DateEnd.IsZero() {
		errs = multierror.Append(errs, FieldError{"date_end", "must be a valid timestamp"})
	}
	return errs.ErrorOrNil()
}

// Validate checks the writable question fields. surveyExists reflects the
// datastore at validation time.
func (q Question) Validate(surveyExists bool) error {
	var errs *multierror.Error
	if strings.TrimSpace(q.Text) == "" {
		errs = multierror.Append(errs, FieldError{"question_text", "must not be empty"})
	}
	switch q.Type {
	case TypeText, TypeOneOption, TypeManyOptions:
	default:
		errs = multierror.Append(errs, FieldError{"question_type", "must be one of: text, one_option, many_options"})
	}
	if !surveyExists {
		errs = multierror.Append(errs, FieldError{"survey_id", "survey does not exist"})
	}
	return errs.ErrorOrNil()
}

func (c Choice) Validate(questionExists bool) error {
	var errs *multierror.Error
	if strings.TrimSpace(c.Text) == "" {
		errs = multierror.Append(errs, FieldError{"choice_text", "must not be empty"})
	}
	if !questionExists {
		errs = multierror.Append(errs, FieldError{"question_id", "question does not exist"})
	}
	return errs.ErrorOrNil()
}

// AnswerSnapshot is the slice of datastore state an answer is validated
// against: the referenced question, its survey window, and whether a
// conflicting answer row already exists for the requesting user.
type AnswerSnapshot struct {
	QuestionExists  bool
	QuestionType    string
	SurveyStart     time.Time
	SurveyEnd       time.Time
	ChoiceMissing   bool // choice_id given but not one of the question's choices
	AlreadyAnswered bool
}

// Validate applies the answer business rules in order: reference checks,
// survey window, duplicate prevention.
func (a Answer) Validate(snap AnswerSnapshot, now time.Time) error {
	if !snap.QuestionExists {
		return FieldError{"question_id", "question does not exist"}
	}

	window := Survey{DateStart: snap.SurveyStart, DateEnd: snap.SurveyEnd}
	if !window.Active(now) {
		return FieldError{"question_id", "survey is closed"}
	}

	if snap.ChoiceMissing {
		return FieldError{"choice_id", "choice does not exist"}
	}

	if snap.AlreadyAnswered {
		return FieldError{"question_id", "you have already answered this question"}
	}

	return nil
}
