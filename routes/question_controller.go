package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/akozyrev/surveys-api/app"
	"github.com/akozyrev/surveys-api/httpx"
	"github.com/akozyrev/surveys-api/log"
	"github.com/akozyrev/surveys-api/model"
)

func CreateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		question := model.Question{}
		err := render.DecodeJSON(r.Body, &question)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		surveyExists, err := rowExists(app, r, "SELECT 1 FROM survey WHERE id = ?", question.SurveyID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}

		err = question.Validate(surveyExists)
		if err != nil {
			httpx.LogValidationError(w, r, "create_question.validate", err)
			return
		}

		var questionId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO question (survey_id, question_text, question_type)
			VALUES (?, ?, ?)
			RETURNING id`,
			question.SurveyID,
			question.Text,
			question.Type,
		).Scan(&questionId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": questionId,
		})
	}
}

func ListQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT q.id, q.survey_id, s.title, q.question_text, q.question_type, c.choice_text
			FROM question q
			INNER JOIN survey s ON (s.id = q.survey_id)
			LEFT OUTER JOIN choice c ON (q.id = c.question_id)
			ORDER BY q.id, c.id`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_questions", err)
			return
		}
		defer rows.Close()

		questions := []model.Question{}
		for rows.Next() {
			q := model.Question{}
			var choiceText sql.NullString
			err = rows.Scan(&q.ID, &q.SurveyID, &q.Survey, &q.Text, &q.Type, &choiceText)
			if err != nil {
				httpx.LogInternalError(w, "db.get_questions.scan", err)
				return
			}

			lastIdx := len(questions) - 1
			if lastIdx > -1 && questions[lastIdx].ID == q.ID {
				if choiceText.Valid {
					questions[lastIdx].Choices = append(questions[lastIdx].Choices, choiceText.String)
				}
			} else {
				if choiceText.Valid {
					q.Choices = append(q.Choices, choiceText.String)
				}
				questions = append(questions, q)
			}
		}

		render.JSON(w, r, map[string]any{
			"questions": questions,
		})
	}
}

func GetQuestionById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		question, err := fetchQuestion(app, r, questionId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_question", questionId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_question", err)
			return
		}

		render.JSON(w, r, question)
	}
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		question := model.Question{}
		err = render.DecodeJSON(r.Body, &question)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		surveyExists, err := rowExists(app, r, "SELECT 1 FROM survey WHERE id = ?", question.SurveyID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}

		err = question.Validate(surveyExists)
		if err != nil {
			httpx.LogValidationError(w, r, "update_question.validate", err)
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE question
			SET
				survey_id = ?,
				question_text = ?,
				question_type = ?
			WHERE id = ?`,
			question.SurveyID,
			question.Text,
			question.Type,
			questionId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_question", questionId)
			return
		}

		updated, err := fetchQuestion(app, r, questionId)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.fetch", err)
			return
		}
		render.JSON(w, r, updated)
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM question WHERE id = ?`,
			questionId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_question", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_question.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_question", questionId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func fetchQuestion(app app.App, r *http.Request, questionId int) (model.Question, error) {
	question := model.Question{}
	err := app.QueryRowContext(r.Context(), `
		SELECT q.id, q.survey_id, s.title, q.question_text, q.question_type
		FROM question q
		INNER JOIN survey s ON (s.id = q.survey_id)
		WHERE q.id = ?`,
		questionId,
	).Scan(&question.ID, &question.SurveyID, &question.Survey, &question.Text, &question.Type)
	if err != nil {
		return question, err
	}

	rows, err := app.QueryContext(r.Context(), `
		SELECT c.choice_text
		FROM choice c
		WHERE c.question_id = ?
		ORDER BY c.id`,
		questionId,
	)
	if err != nil {
		return question, err
	}
	defer rows.Close()

	for rows.Next() {
		var text string
		err = rows.Scan(&text)
		if err != nil {
			return question, err
		}
		question.Choices = append(question.Choices, text)
	}
	return question, rows.Err()
}

// rowExists runs an existence probe query with the given arguments.
func rowExists(app app.App, r *http.Request, query string, args ...any) (bool, error) {
	var one int
	err := app.QueryRowContext(r.Context(), query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
