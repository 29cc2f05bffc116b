package model

import "time"

// Question types.
const (
	TypeText        = "text"
	TypeOneOption   = "one_option"
	TypeManyOptions = "many_options"
)

type Survey struct {
	ID          int        `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DateStart   time.Time  `json:"date_start,omitempty"`
	DateEnd     time.Time  `json:"date_end"`
	Questions   []Question `json:"questions,omitempty"`
}

// Active reports whether now falls within the survey window.
func (s Survey) Active(now time.Time) bool {
	return !now.Before(s.DateStart) && !now.After(s.DateEnd)
}

type Question struct {
	ID       int      `json:"id,omitempty"`
	SurveyID int      `json:"survey_id"`
	Survey   string   `json:"survey,omitempty"` // survey title, read only
	Text     string   `json:"question_text"`
	Type     string   `json:"question_type"`
	Choices  []string `json:"choices,omitempty"` // choice texts, read only
}

type Choice struct {
	ID         int    `json:"id,omitempty"`
	QuestionID int    `json:"question_id"`
	Question   string `json:"question,omitempty"` // question text, read only
	Text       string `json:"choice_text"`
}

type Answer struct {
	ID         int    `json:"id,omitempty"`
	User       string `json:"user,omitempty"`   // username, read only
	Survey     string `json:"survey,omitempty"` // survey title, read only
	QuestionID int    `json:"question_id"`
	Question   string `json:"question,omitempty"` // question text, read only
	ChoiceID   *int   `json:"choice_id,omitempty"`
	Choice     string `json:"choice,omitempty"` // choice text, read only
	Text       string `json:"answer_text,omitempty"`
}

// Value is the displayable content of an answer: its free text when present,
// the chosen option's text otherwise.
func (a Answer) Value() string {
	if a.Text != "" {
		return a.Text
	}
	return a.Choice
}
